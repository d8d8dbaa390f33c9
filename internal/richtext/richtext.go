// Package richtext turns documentation strings into cross-referenced segment
// trees. Words naming arguments, functions, variables or keywords are tagged;
// everything else is merged into plain runs. The transformation is lossless:
// PlainText of a parse result is the original input.
package richtext

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsupportedInput is returned by Reduce for values that are neither a
// plain string nor a segment sequence.
var ErrUnsupportedInput = errors.New("unsupported rich text input")

// KeywordMarker starts keyword-style tokens such as `:key`.
const KeywordMarker = ':'

// Category tags a classified token. The zero value is Plain.
type Category string

const (
	Plain    Category = ""
	Argument Category = "argument"
	Function Category = "function"
	Variable Category = "variable"
	Keyword  Category = "keyword"
)

// Namespace resolves words against a symbol table. Intern returns an error
// for text that has no canonical name form.
type Namespace interface {
	Intern(raw string) (string, error)
	IsCallable(name string) bool
	IsBoundValue(name string) bool
}

// Options controls classification.
type Options struct {
	// CaseSensitive only matches argument names written in upper case.
	CaseSensitive bool
	// Namespace may be nil, in which case no function or variable
	// references are produced.
	Namespace Namespace
}

// Segment is a node of a rich text tree: a plain run when Category is Plain,
// otherwise a tagged region whose content is Children.
type Segment struct {
	Category Category  `json:"category,omitempty" yaml:"category,omitempty"`
	Text     string    `json:"text,omitempty" yaml:"text,omitempty"`
	Children []Segment `json:"children,omitempty" yaml:"children,omitempty"`
}

// Text returns a plain segment.
func Text(s string) Segment {
	return Segment{Text: s}
}

// Tagged returns a tagged segment wrapping children.
func Tagged(c Category, children ...Segment) Segment {
	return Segment{Category: c, Children: children}
}

// IsPlain reports whether s is a plain run.
func (s Segment) IsPlain() bool {
	return s.Category == Plain
}

// Classify assigns a category to a single word. The checks run in a fixed
// order and the first match wins.
func Classify(word string, args []string, opts Options) Category {
	if matchesArg(word, args, opts.CaseSensitive) {
		return Argument
	}
	if opts.Namespace != nil {
		if name, err := opts.Namespace.Intern(word); err == nil {
			if opts.Namespace.IsCallable(name) {
				return Function
			}
			if opts.Namespace.IsBoundValue(name) {
				return Variable
			}
		}
	}
	if word != "" && word[0] == KeywordMarker {
		return Keyword
	}
	return Plain
}

// matchesArg compares word against the upper-cased argument names. Without
// caseSensitive the word is upper-cased too; with it only a word already in
// upper case can match.
func matchesArg(word string, args []string, caseSensitive bool) bool {
	if caseSensitive {
		for _, a := range args {
			if strings.ToUpper(a) == word {
				return true
			}
		}
		return false
	}
	upper := strings.ToUpper(word)
	for _, a := range args {
		if strings.ToUpper(a) == upper {
			return true
		}
	}
	return false
}

// Parse tokenizes text with the default splitter, classifies each word and
// folds the result.
func Parse(text string, args []string, opts Options) []Segment {
	return defaultSplitter.Parse(text, args, opts)
}

// Parse tokenizes text with sp, classifies each word and folds the result.
// Delimiter tokens are never classified.
func (sp *Splitter) Parse(text string, args []string, opts Options) []Segment {
	tokens := sp.Split(text)
	flat := make([]Segment, 0, len(tokens))
	for _, tok := range tokens {
		cat := Plain
		if !tok.Delim {
			cat = Classify(tok.Text, args, opts)
		}
		if cat == Plain {
			flat = append(flat, Text(tok.Text))
			continue
		}
		flat = append(flat, Tagged(cat, Text(tok.Text)))
	}
	return Fold(flat)
}

// Fold merges consecutive plain segments into single runs and folds the
// children of tagged segments recursively. It accepts both freshly
// classified tokens and pre-structured input, and folding a folded
// sequence returns an equal sequence.
func Fold(segs []Segment) []Segment {
	var (
		out []Segment
		run strings.Builder
	)
	flush := func() {
		if run.Len() > 0 {
			out = append(out, Text(run.String()))
			run.Reset()
		}
	}
	for _, s := range segs {
		if s.IsPlain() {
			run.WriteString(s.Text)
			continue
		}
		flush()
		out = append(out, Segment{Category: s.Category, Children: Fold(content(s))})
	}
	flush()
	return out
}

// content returns the children of a tagged segment. A tagged segment that
// holds only Text is treated as a single plain child.
func content(s Segment) []Segment {
	if len(s.Children) == 0 && s.Text != "" {
		return []Segment{Text(s.Text)}
	}
	return s.Children
}

// Reduce is the entry point for values of unknown shape. A plain string is
// returned unchanged without tokenizing; segment sequences are folded.
func Reduce(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []Segment:
		return Fold(x), nil
	case Segment:
		return Fold([]Segment{x}), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedInput, v)
	}
}

// PlainText concatenates the leaf text of segs, dropping all tags.
func PlainText(segs []Segment) string {
	var b strings.Builder
	writePlain(&b, segs)
	return b.String()
}

func writePlain(b *strings.Builder, segs []Segment) {
	for _, s := range segs {
		if s.IsPlain() {
			b.WriteString(s.Text)
			continue
		}
		writePlain(b, content(s))
	}
}

// Ref is a tagged region flattened to its text.
type Ref struct {
	Category Category
	Text     string
}

// Refs lists the top-level tagged regions of segs in document order.
func Refs(segs []Segment) []Ref {
	var refs []Ref
	for _, s := range segs {
		if s.IsPlain() {
			continue
		}
		refs = append(refs, Ref{Category: s.Category, Text: PlainText(content(s))})
	}
	return refs
}
