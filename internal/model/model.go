// Package model defines the symbol-table structures shared by the extractor,
// the namespace and the property-record builder.
package model

// SymbolKind indicates the syntactic kind of a symbol.
type SymbolKind string

const (
	Class    SymbolKind = "class"
	Function SymbolKind = "function"
	Method   SymbolKind = "method"
	Variable SymbolKind = "variable"
	Field    SymbolKind = "field"
	Type     SymbolKind = "type"
)

// ParamKind distinguishes the shapes a parameter can take in a lambda list.
type ParamKind string

const (
	Positional  ParamKind = "positional"
	Optional    ParamKind = "optional"
	Rest        ParamKind = "rest"
	Keyword     ParamKind = "keyword"
	KeywordRest ParamKind = "keyword_rest"
	Block       ParamKind = "block"
)

// Param is a single entry of a callable's parameter list.
type Param struct {
	Name       string
	Kind       ParamKind
	Default    string
	Annotation string
}

// Symbol is a single definition extracted from source code.
// Class is set for methods and fields; Superclasses only for classes.
type Symbol struct {
	Name         string
	Kind         SymbolKind
	Class        string
	File         string
	Line         int
	Signature    string
	Doc          string
	Params       []Param
	Superclasses []string
	Exported     bool
}

// QualifiedName returns Class.Name for members and Name otherwise.
func (s *Symbol) QualifiedName() string {
	if s.Class != "" {
		return s.Class + "." + s.Name
	}
	return s.Name
}

// MethodKind tags an accessor method as reading or writing its slot.
type MethodKind string

const (
	Reader MethodKind = "reader"
	Writer MethodKind = "writer"
)

// MethodName is the name of an accessor method. A non-empty Target marks
// the compound "setter of Target" form, e.g. Ruby's `width=` or Python's
// `@width.setter`.
type MethodName struct {
	Text   string
	Target string
}

// PlainName returns a non-compound method name.
func PlainName(text string) MethodName {
	return MethodName{Text: text}
}

// SetterName returns the compound name text that writes target.
func SetterName(text, target string) MethodName {
	return MethodName{Text: text, Target: target}
}

// IsZero reports whether the name is absent.
func (n MethodName) IsZero() bool {
	return n.Text == ""
}

func (n MethodName) String() string {
	return n.Text
}

// SlotMethod describes an accessor method specialized on one slot of one class.
type SlotMethod struct {
	Name     MethodName
	Kind     MethodKind
	Class    string
	Slot     string
	Exported bool
	Line     int
}

// FileInfo holds the symbols and accessor methods extracted from one file.
type FileInfo struct {
	Path     string
	Language string
	Symbols  []Symbol
	Methods  []SlotMethod
}
