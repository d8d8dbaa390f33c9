package lang

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"github.com/phobologic/docmeta/internal/model"
)

func init() {
	Languages["go"] = &Language{
		Name:       "go",
		Extensions: []string{".go"},
		lang:       golang.GetLanguage(),
		ident:      regexp.MustCompile(`^[\pL_][\pL\pN_]*$`),
		Extract:    goExtract,
		SlotKey:    goSlotKey,
	}
}

type goExtractor struct {
	source  []byte
	symbols []model.Symbol
	methods []model.SlotMethod
}

func goExtract(root *sitter.Node, source []byte) ([]model.Symbol, []model.SlotMethod) {
	x := &goExtractor{source: source}
	for _, decl := range namedChildren(root) {
		switch decl.Type() {
		case "function_declaration":
			x.symbols = append(x.symbols, x.function(decl, "", model.Function))
		case "method_declaration":
			x.method(decl)
		case "type_declaration":
			x.typeDecl(decl)
		case "var_declaration", "const_declaration":
			x.valueDecl(decl)
		}
	}
	return x.symbols, x.methods
}

// goSlotKey maps both a field name and an accessor-derived slot name to the
// same key: `width`, `Width()` and `SetWidth()` all key as "width".
func goSlotKey(name string) string {
	r, size := utf8.DecodeRuneInString(name)
	if size == 0 {
		return name
	}
	return string(unicode.ToLower(r)) + name[size:]
}

func goStripComment(s string) string {
	if strings.HasPrefix(s, "/*") {
		return strings.TrimSuffix(strings.TrimPrefix(s, "/*"), "*/")
	}
	s = strings.TrimPrefix(s, "//")
	return strings.TrimPrefix(s, " ")
}

func goDoc(node *sitter.Node, source []byte) string {
	return CleanDoc(precedingComments(node, source, goStripComment))
}

func (x *goExtractor) function(decl *sitter.Node, class string, kind model.SymbolKind) model.Symbol {
	var name string
	if n := decl.ChildByFieldName("name"); n != nil {
		name = NodeText(n, x.source)
	}
	return model.Symbol{
		Name:      name,
		Kind:      kind,
		Class:     class,
		Line:      line(decl),
		Signature: goExtractSignature(decl, x.source),
		Doc:       goDoc(decl, x.source),
		Params:    goParams(decl.ChildByFieldName("parameters"), x.source),
		Exported:  upperFirst(name),
	}
}

// method records a method and, when its shape matches `Field() T` or
// `SetField(v)`, an accessor candidate for the receiver's field.
func (x *goExtractor) method(decl *sitter.Node) {
	class := goFindReceiverType(decl.ChildByFieldName("receiver"), x.source)
	sym := x.function(decl, class, model.Method)
	x.symbols = append(x.symbols, sym)
	if class == "" {
		return
	}

	hasResult := decl.ChildByFieldName("result") != nil
	m := model.SlotMethod{
		Name:     model.PlainName(sym.Name),
		Class:    class,
		Exported: sym.Exported,
		Line:     sym.Line,
	}
	switch {
	case len(sym.Params) == 0 && hasResult:
		m.Kind = model.Reader
		m.Slot = goSlotKey(sym.Name)
	case len(sym.Params) == 1 && !hasResult && len(sym.Name) > 3 && strings.HasPrefix(sym.Name, "Set"):
		m.Kind = model.Writer
		m.Slot = goSlotKey(sym.Name[3:])
	default:
		return
	}
	x.methods = append(x.methods, m)
}

func (x *goExtractor) typeDecl(decl *sitter.Node) {
	for _, spec := range namedChildren(decl) {
		if spec.Type() != "type_spec" && spec.Type() != "type_alias" {
			continue
		}
		doc := goDoc(spec, x.source)
		if doc == "" {
			doc = goDoc(decl, x.source)
		}
		x.typeSpec(spec, doc)
	}
}

func (x *goExtractor) typeSpec(spec *sitter.Node, doc string) {
	nameNode := spec.ChildByFieldName("name")
	typ := spec.ChildByFieldName("type")
	if nameNode == nil || typ == nil {
		return
	}
	name := NodeText(nameNode, x.source)
	sym := model.Symbol{
		Name:      name,
		Kind:      model.Type,
		Line:      line(spec),
		Signature: name + " " + CollapseWhitespace(NodeText(typ, x.source)),
		Doc:       doc,
		Exported:  upperFirst(name),
	}
	if typ.Type() != "struct_type" {
		x.symbols = append(x.symbols, sym)
		return
	}

	sym.Kind = model.Class
	sym.Signature = name
	classIdx := len(x.symbols)
	x.symbols = append(x.symbols, sym)

	var supers []string
	for _, fd := range namedChildren(firstChildOfType(typ, "field_declaration_list")) {
		if fd.Type() != "field_declaration" {
			continue
		}
		var fieldType string
		if t := fd.ChildByFieldName("type"); t != nil {
			fieldType = NodeText(t, x.source)
		}
		var names []string
		for _, child := range namedChildren(fd) {
			if child.Type() == "field_identifier" {
				names = append(names, NodeText(child, x.source))
			}
		}
		if len(names) == 0 {
			// Embedded field: the embedded type is the superclass.
			if fieldType == "" {
				fieldType = CollapseWhitespace(NodeText(fd, x.source))
			}
			supers = append(supers, strings.TrimPrefix(fieldType, "*"))
			continue
		}
		for _, n := range names {
			x.symbols = append(x.symbols, model.Symbol{
				Name:      n,
				Kind:      model.Field,
				Class:     name,
				Line:      line(fd),
				Signature: n + " " + CollapseWhitespace(fieldType),
				Doc:       goDoc(fd, x.source),
				Exported:  upperFirst(n),
			})
		}
	}
	x.symbols[classIdx].Superclasses = supers
}

func (x *goExtractor) valueDecl(decl *sitter.Node) {
	var specs []*sitter.Node
	for _, child := range namedChildren(decl) {
		switch child.Type() {
		case "var_spec", "const_spec":
			specs = append(specs, child)
		case "var_spec_list", "const_spec_list":
			for _, s := range namedChildren(child) {
				if s.Type() == "var_spec" || s.Type() == "const_spec" {
					specs = append(specs, s)
				}
			}
		}
	}
	for _, spec := range specs {
		doc := goDoc(spec, x.source)
		if doc == "" && len(specs) == 1 {
			doc = goDoc(decl, x.source)
		}
		for _, child := range namedChildren(spec) {
			if child.Type() != "identifier" {
				continue
			}
			name := NodeText(child, x.source)
			if name == "_" {
				continue
			}
			x.symbols = append(x.symbols, model.Symbol{
				Name:      name,
				Kind:      model.Variable,
				Line:      line(spec),
				Signature: CollapseWhitespace(NodeText(spec, x.source)),
				Doc:       doc,
				Exported:  upperFirst(name),
			})
		}
	}
}

func goParams(list *sitter.Node, source []byte) []model.Param {
	var out []model.Param
	for _, pd := range namedChildren(list) {
		var typ string
		if t := pd.ChildByFieldName("type"); t != nil {
			typ = NodeText(t, source)
		}
		switch pd.Type() {
		case "parameter_declaration":
			for _, child := range namedChildren(pd) {
				if child.Type() == "identifier" {
					out = append(out, model.Param{Name: NodeText(child, source), Kind: model.Positional, Annotation: typ})
				}
			}
		case "variadic_parameter_declaration":
			if n := pd.ChildByFieldName("name"); n != nil {
				out = append(out, model.Param{Name: NodeText(n, source), Kind: model.Rest, Annotation: "..." + typ})
			}
		}
	}
	return out
}

// goFindReceiverType extracts the receiver type name from a method's
// receiver parameter_list, unwrapping pointer and generic types.
func goFindReceiverType(receiver *sitter.Node, source []byte) string {
	for _, param := range namedChildren(receiver) {
		if param.Type() == "parameter_declaration" {
			return goExtractTypeName(param.ChildByFieldName("type"), source)
		}
	}
	return ""
}

func goExtractTypeName(typ *sitter.Node, source []byte) string {
	if typ == nil {
		return ""
	}
	switch typ.Type() {
	case "type_identifier":
		return NodeText(typ, source)
	case "pointer_type", "generic_type":
		for _, inner := range namedChildren(typ) {
			if name := goExtractTypeName(inner, source); name != "" {
				return name
			}
		}
	}
	return ""
}

func goExtractSignature(decl *sitter.Node, source []byte) string {
	var name, params, result string
	if n := decl.ChildByFieldName("name"); n != nil {
		name = NodeText(n, source)
	}
	if p := decl.ChildByFieldName("parameters"); p != nil {
		params = CollapseWhitespace(NodeText(p, source))
	}
	if r := decl.ChildByFieldName("result"); r != nil {
		result = CollapseWhitespace(NodeText(r, source))
	}
	sig := name + params
	if result != "" {
		sig += " " + result
	}
	return sig
}
