// Package namespace implements the symbol table that documentation
// extraction resolves names against. A Table is built once from extracted
// files and is read-only afterwards, so it is safe for concurrent use.
package namespace

import (
	"errors"
	"fmt"
	"sort"

	"github.com/phobologic/docmeta/internal/lang"
	"github.com/phobologic/docmeta/internal/model"
)

// ErrInvalidName is returned by Intern for text that is not an identifier
// in the table's language.
var ErrInvalidName = errors.New("invalid name")

// ErrUnknownLanguage is returned by Build for an unregistered language.
var ErrUnknownLanguage = errors.New("unknown language")

type memberKey struct {
	class string
	slot  string
}

// Table is the symbol table of one language across a repository. When a
// name is defined more than once the first definition in file order wins.
type Table struct {
	language *lang.Language

	symbols   []model.Symbol
	byName    map[string]int
	callables map[string]struct{}
	values    map[string]struct{}
	types     map[string]struct{}
	accessors map[memberKey][]model.SlotMethod
	methods   []model.SlotMethod
}

// Build indexes the files of a single language. Files written in other
// languages are ignored.
func Build(language string, files []model.FileInfo) (*Table, error) {
	l, ok := lang.Languages[language]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	t := &Table{
		language:  l,
		byName:    make(map[string]int),
		callables: make(map[string]struct{}),
		values:    make(map[string]struct{}),
		types:     make(map[string]struct{}),
		accessors: make(map[memberKey][]model.SlotMethod),
	}

	sorted := make([]model.FileInfo, 0, len(files))
	for _, f := range files {
		if f.Language == language {
			sorted = append(sorted, f)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, f := range sorted {
		for _, s := range f.Symbols {
			t.add(s)
		}
		for _, m := range f.Methods {
			key := memberKey{m.Class, l.Slot(m.Slot)}
			t.accessors[key] = append(t.accessors[key], m)
			t.methods = append(t.methods, m)
		}
	}
	return t, nil
}

// BuildAll builds one table per language present in files.
func BuildAll(files []model.FileInfo) (map[string]*Table, error) {
	seen := make(map[string]struct{})
	tables := make(map[string]*Table)
	for _, f := range files {
		if _, ok := seen[f.Language]; ok {
			continue
		}
		seen[f.Language] = struct{}{}
		t, err := Build(f.Language, files)
		if err != nil {
			return nil, err
		}
		tables[f.Language] = t
	}
	return tables, nil
}

func (t *Table) add(s model.Symbol) {
	qn := s.QualifiedName()
	if _, dup := t.byName[qn]; dup {
		return
	}
	t.byName[qn] = len(t.symbols)
	t.symbols = append(t.symbols, s)

	if s.Class != "" {
		return
	}
	switch s.Kind {
	case model.Function:
		t.callables[s.Name] = struct{}{}
	case model.Variable:
		t.values[s.Name] = struct{}{}
	case model.Class, model.Type:
		t.types[s.Name] = struct{}{}
	}
}

// Language returns the name of the table's language.
func (t *Table) Language() string {
	return t.language.Name
}

// Intern converts raw text to the canonical name form. Names are case
// sensitive in every supported language, so the canonical form is the text
// itself once it is known to be a valid identifier.
func (t *Table) Intern(raw string) (string, error) {
	if !t.language.ValidName(raw) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, raw)
	}
	return raw, nil
}

// IsCallable reports whether name is a top-level function.
func (t *Table) IsCallable(name string) bool {
	_, ok := t.callables[name]
	return ok
}

// IsBoundValue reports whether name is a top-level variable or constant.
func (t *Table) IsBoundValue(name string) bool {
	_, ok := t.values[name]
	return ok
}

// IsType reports whether name is a class or named type.
func (t *Table) IsType(name string) bool {
	_, ok := t.types[name]
	return ok
}

// Symbols returns every indexed symbol in file order.
func (t *Table) Symbols() []model.Symbol {
	return t.symbols
}

// Lookup returns the symbol with the given qualified name.
func (t *Table) Lookup(qualified string) (model.Symbol, bool) {
	i, ok := t.byName[qualified]
	if !ok {
		return model.Symbol{}, false
	}
	return t.symbols[i], true
}

// Docstring returns the documentation of a qualified name, or "".
func (t *Table) Docstring(qualified string) string {
	s, _ := t.Lookup(qualified)
	return s.Doc
}

// Params returns the parameter list of a qualified callable name.
func (t *Table) Params(qualified string) []model.Param {
	s, _ := t.Lookup(qualified)
	return s.Params
}

// Superclasses returns the direct superclasses of class.
func (t *Table) Superclasses(class string) []string {
	s, _ := t.Lookup(class)
	return s.Superclasses
}

// SlotKey normalizes a slot name the way accessor methods were indexed.
func (t *Table) SlotKey(slot string) string {
	return t.language.Slot(slot)
}

// SpecializedMethods returns the accessor methods of class whose slot is
// slot, in source order. Slot names are normalized with SlotKey and the
// returned methods carry the normalized slot.
func (t *Table) SpecializedMethods(class, slot string) []model.SlotMethod {
	key := memberKey{class, t.SlotKey(slot)}
	found := t.accessors[key]
	out := make([]model.SlotMethod, len(found))
	for i, m := range found {
		m.Slot = key.slot
		out[i] = m
	}
	return out
}

// Methods returns every accessor method in file order.
func (t *Table) Methods() []model.SlotMethod {
	return t.methods
}

// IsExported reports whether m is visible outside its class.
func (t *Table) IsExported(m model.SlotMethod) bool {
	return m.Exported
}

// SetterTarget returns X when name is the compound "setter of X" form.
func (t *Table) SetterTarget(name model.MethodName) (string, bool) {
	return name.Target, name.Target != ""
}
