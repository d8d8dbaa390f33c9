// Package docprops builds documentation property records from a namespace
// table. Each record carries the rich-text form of a symbol's docstring and,
// for classes, the hierarchy and the accessor relationship of every slot.
package docprops

import (
	"context"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/phobologic/docmeta/internal/accessor"
	"github.com/phobologic/docmeta/internal/graph"
	"github.com/phobologic/docmeta/internal/model"
	"github.com/phobologic/docmeta/internal/namespace"
	"github.com/phobologic/docmeta/internal/richtext"
)

// SlotRecord describes one slot of a class.
type SlotRecord struct {
	Name   string                `json:"name" yaml:"name"`
	Doc    []richtext.Segment    `json:"doc,omitempty" yaml:"doc,omitempty"`
	Access accessor.Relationship `json:"access,omitempty" yaml:"access,omitempty"`
}

// Record is the property record of one documented symbol.
type Record struct {
	Name         string             `json:"name" yaml:"name"`
	Kind         model.SymbolKind   `json:"kind" yaml:"kind"`
	Language     string             `json:"language" yaml:"language"`
	Class        string             `json:"class,omitempty" yaml:"class,omitempty"`
	File         string             `json:"file" yaml:"file"`
	Line         int                `json:"line" yaml:"line"`
	Signature    string             `json:"signature,omitempty" yaml:"signature,omitempty"`
	Params       string             `json:"params,omitempty" yaml:"params,omitempty"`
	Doc          []richtext.Segment `json:"doc,omitempty" yaml:"doc,omitempty"`
	Superclasses []string           `json:"superclasses,omitempty" yaml:"superclasses,omitempty"`
	Ancestors    []string           `json:"ancestors,omitempty" yaml:"ancestors,omitempty"`
	Slots        []SlotRecord       `json:"slots,omitempty" yaml:"slots,omitempty"`
	Methods      []string           `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// QualifiedName returns Class.Name for members and Name otherwise.
func (r *Record) QualifiedName() string {
	if r.Class != "" {
		return r.Class + "." + r.Name
	}
	return r.Name
}

// Options controls record building.
type Options struct {
	// CaseSensitive only matches argument names written in upper case.
	CaseSensitive bool
	// IncludePrivate keeps non-exported symbols.
	IncludePrivate bool
	// Splitter tokenizes docstrings; nil uses richtext.DefaultSplitter.
	Splitter *richtext.Splitter
	// Workers bounds concurrency; zero or less uses GOMAXPROCS.
	Workers int
}

type builder struct {
	tbl     *namespace.Table
	h       *graph.Hierarchy
	opts    Options
	members map[string][]model.Symbol
}

// Build returns one record per symbol of tbl, fields excluded, in table
// order. Fields appear as slots of their class record.
func Build(ctx context.Context, tbl *namespace.Table, opts Options) ([]Record, error) {
	if opts.Splitter == nil {
		opts.Splitter = richtext.DefaultSplitter()
	}
	b := &builder{
		tbl:     tbl,
		h:       graph.Build(tbl.Symbols()),
		opts:    opts,
		members: make(map[string][]model.Symbol),
	}

	var selected []model.Symbol
	for _, s := range tbl.Symbols() {
		if s.Class != "" {
			b.members[s.Class] = append(b.members[s.Class], s)
		}
		if s.Kind == model.Field || !b.visible(s) {
			continue
		}
		selected = append(selected, s)
	}

	return buildConcurrent(ctx, len(selected), opts.Workers, func(i int) Record {
		return b.record(selected[i])
	})
}

// BuildAll builds the records of every table, languages in sorted order.
func BuildAll(ctx context.Context, tables map[string]*namespace.Table, opts Options) ([]Record, error) {
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []Record
	for _, name := range names {
		records, err := Build(ctx, tables[name], opts)
		if err != nil {
			return nil, err
		}
		out = append(out, records...)
	}
	return out, nil
}

func (b *builder) visible(s model.Symbol) bool {
	return s.Exported || b.opts.IncludePrivate
}

func (b *builder) record(s model.Symbol) Record {
	r := Record{
		Name:      s.Name,
		Kind:      s.Kind,
		Language:  b.tbl.Language(),
		Class:     s.Class,
		File:      s.File,
		Line:      s.Line,
		Signature: s.Signature,
		Doc:       b.parse(s.Doc, paramNames(s.Params)),
	}

	switch s.Kind {
	case model.Function, model.Method:
		r.Params = FormatParams(s.Params)
	case model.Class:
		if s.Class != "" {
			break
		}
		r.Superclasses = b.h.Superclasses(s.Name)
		r.Ancestors = b.h.Ancestors(s.Name)
		for _, m := range b.members[s.Name] {
			switch m.Kind {
			case model.Field:
				if slot, ok := b.slot(s.Name, m); ok {
					r.Slots = append(r.Slots, slot)
				}
			case model.Method:
				if b.visible(m) {
					r.Methods = append(r.Methods, m.Name)
				}
			}
		}
	}
	return r
}

// slot builds a slot record. A non-exported field is still listed when it
// has a public accessor.
func (b *builder) slot(class string, field model.Symbol) (SlotRecord, bool) {
	access := accessor.ForSlot(
		b.tbl.SpecializedMethods(class, field.Name),
		class,
		b.tbl.SlotKey(field.Name),
		b.tbl.IsExported,
	)
	if !b.visible(field) && len(access) == 0 {
		return SlotRecord{}, false
	}
	return SlotRecord{
		Name:   field.Name,
		Doc:    b.parse(field.Doc, nil),
		Access: access,
	}, true
}

func (b *builder) parse(doc string, args []string) []richtext.Segment {
	if doc == "" {
		return nil
	}
	return b.opts.Splitter.Parse(doc, args, richtext.Options{
		CaseSensitive: b.opts.CaseSensitive,
		Namespace:     b.tbl,
	})
}

func paramNames(params []model.Param) []string {
	if len(params) == 0 {
		return nil
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
	}
	return names
}

// FormatParams renders a parameter list as "(a, b: int = 2, *rest, **opts)".
// Keyword parameters render as "key:" followed by their default, block
// parameters as "&name".
func FormatParams(params []model.Param) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatParam(p)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatParam(p model.Param) string {
	var b strings.Builder
	switch p.Kind {
	case model.Rest:
		// Go variadics carry "..." in the annotation.
		if !strings.HasPrefix(p.Annotation, "...") {
			b.WriteString("*")
		}
	case model.KeywordRest:
		b.WriteString("**")
	case model.Block:
		b.WriteString("&")
	}
	b.WriteString(p.Name)

	if p.Kind == model.Keyword {
		b.WriteString(":")
		if p.Default != "" {
			b.WriteString(" " + p.Default)
		}
		return b.String()
	}
	if p.Annotation != "" {
		b.WriteString(": " + p.Annotation)
	}
	if p.Default != "" {
		b.WriteString(" = " + p.Default)
	}
	return b.String()
}

// buildConcurrent runs build for every index on a bounded pool of workers.
// Results keep index order.
func buildConcurrent(ctx context.Context, n, workers int, build func(int) Record) ([]Record, error) {
	if n == 0 {
		return nil, ctx.Err()
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > n {
		workers = n
	}

	work := make(chan int, n)
	for i := range n {
		work <- i
	}
	close(work)

	out := make([]Record, n)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				if ctx.Err() != nil {
					return
				}
				out[i] = build(i)
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
