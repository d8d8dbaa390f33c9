package lang

import (
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/phobologic/docmeta/internal/model"
)

func init() {
	Languages["python"] = &Language{
		Name:       "python",
		Extensions: []string{".py"},
		lang:       python.GetLanguage(),
		ident:      regexp.MustCompile(`^[\pL_][\pL\pN_]*$`),
		Extract:    pythonExtract,
	}
}

type pythonExtractor struct {
	source  []byte
	symbols []model.Symbol
	methods []model.SlotMethod
}

func pythonExtract(root *sitter.Node, source []byte) ([]model.Symbol, []model.SlotMethod) {
	x := &pythonExtractor{source: source}
	stmts := namedChildren(root)
	for i, stmt := range stmts {
		def, _ := pythonUnwrap(stmt, source)
		switch def.Type() {
		case "function_definition":
			x.symbols = append(x.symbols, x.function(def, "", model.Function))
		case "class_definition":
			x.class(def)
		case "expression_statement":
			x.assignment(stmts, i, "", model.Variable)
		}
	}
	return x.symbols, x.methods
}

// pythonUnwrap returns the definition inside a decorated_definition and the
// decorator expressions applied to it, without the leading "@".
func pythonUnwrap(node *sitter.Node, source []byte) (*sitter.Node, []string) {
	if node.Type() != "decorated_definition" {
		return node, nil
	}
	var decorators []string
	for _, child := range namedChildren(node) {
		if child.Type() == "decorator" {
			text := strings.TrimPrefix(NodeText(child, source), "@")
			decorators = append(decorators, strings.TrimSpace(text))
		}
	}
	if def := node.ChildByFieldName("definition"); def != nil {
		return def, decorators
	}
	return node, decorators
}

func (x *pythonExtractor) function(def *sitter.Node, class string, kind model.SymbolKind) model.Symbol {
	var name string
	if n := def.ChildByFieldName("name"); n != nil {
		name = NodeText(n, x.source)
	}
	return model.Symbol{
		Name:      name,
		Kind:      kind,
		Class:     class,
		Line:      line(def),
		Signature: pythonExtractFunctionSignature(def, x.source),
		Doc:       pythonDocstring(def.ChildByFieldName("body"), x.source),
		Params:    pythonParams(def.ChildByFieldName("parameters"), x.source),
		Exported:  pythonExported(name),
	}
}

func (x *pythonExtractor) class(def *sitter.Node) {
	nameNode := def.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := NodeText(nameNode, x.source)

	var supers []string
	for _, arg := range namedChildren(def.ChildByFieldName("superclasses")) {
		if arg.Type() == "identifier" || arg.Type() == "attribute" {
			supers = append(supers, NodeText(arg, x.source))
		}
	}

	body := def.ChildByFieldName("body")
	x.symbols = append(x.symbols, model.Symbol{
		Name:         name,
		Kind:         model.Class,
		Line:         line(def),
		Signature:    pythonExtractClassSignature(def, x.source),
		Doc:          pythonDocstring(body, x.source),
		Superclasses: supers,
		Exported:     pythonExported(name),
	})

	members := namedChildren(body)
	for i, member := range members {
		d, decorators := pythonUnwrap(member, x.source)
		switch d.Type() {
		case "function_definition":
			x.member(d, decorators, name)
		case "expression_statement":
			x.assignment(members, i, name, model.Field)
		}
	}
}

// member records a method, or a property reader/writer pair half.
func (x *pythonExtractor) member(def *sitter.Node, decorators []string, class string) {
	sym := x.function(def, class, model.Method)

	for _, d := range decorators {
		switch {
		case d == "property" || d == "cached_property" || d == "functools.cached_property":
			sym.Kind = model.Field
			sym.Params = nil
			sym.Signature = sym.Name
			if rt := def.ChildByFieldName("return_type"); rt != nil {
				sym.Signature += ": " + NodeText(rt, x.source)
			}
			x.symbols = append(x.symbols, sym)
			x.methods = append(x.methods, model.SlotMethod{
				Name:     model.PlainName(sym.Name),
				Kind:     model.Reader,
				Class:    class,
				Slot:     sym.Name,
				Exported: sym.Exported,
				Line:     sym.Line,
			})
			return
		case strings.HasSuffix(d, ".setter"):
			target := strings.TrimSuffix(d, ".setter")
			x.methods = append(x.methods, model.SlotMethod{
				Name:     model.SetterName(d, target),
				Kind:     model.Writer,
				Class:    class,
				Slot:     target,
				Exported: sym.Exported,
				Line:     sym.Line,
			})
			return
		case strings.HasSuffix(d, ".deleter"):
			return
		}
	}
	x.symbols = append(x.symbols, sym)
}

// assignment records `name = value` or `name: T = value` at stmts[i]. A
// string literal statement directly after it is taken as its docstring.
func (x *pythonExtractor) assignment(stmts []*sitter.Node, i int, class string, kind model.SymbolKind) {
	a := firstChildOfType(stmts[i], "assignment")
	if a == nil {
		return
	}
	left := a.ChildByFieldName("left")
	if left == nil || left.Type() != "identifier" {
		return
	}
	name := NodeText(left, x.source)

	var doc string
	if i+1 < len(stmts) {
		doc = pythonStatementString(stmts[i+1], x.source)
	}
	x.symbols = append(x.symbols, model.Symbol{
		Name:      name,
		Kind:      kind,
		Class:     class,
		Line:      line(a),
		Signature: pythonExtractFieldSignature(a, x.source),
		Doc:       doc,
		Exported:  pythonExported(name),
	})
}

// pythonDocstring returns the docstring of a block: its first statement when
// that statement is a bare string literal.
func pythonDocstring(block *sitter.Node, source []byte) string {
	for _, stmt := range namedChildren(block) {
		if stmt.Type() == "comment" {
			continue
		}
		return pythonStatementString(stmt, source)
	}
	return ""
}

func pythonStatementString(stmt *sitter.Node, source []byte) string {
	if stmt.Type() != "expression_statement" || stmt.NamedChildCount() != 1 {
		return ""
	}
	str := stmt.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return CleanDoc(pythonStringValue(NodeText(str, source)))
}

// pythonStringValue strips the prefix and quotes from a string literal.
func pythonStringValue(raw string) string {
	raw = strings.TrimLeft(raw, "rRuUbBfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(raw) >= 2*len(q) && strings.HasPrefix(raw, q) && strings.HasSuffix(raw, q) {
			return raw[len(q) : len(raw)-len(q)]
		}
	}
	return raw
}

func pythonParams(params *sitter.Node, source []byte) []model.Param {
	var out []model.Param
	for _, p := range namedChildren(params) {
		switch p.Type() {
		case "identifier":
			out = append(out, model.Param{Name: NodeText(p, source), Kind: model.Positional})
		case "list_splat_pattern", "dictionary_splat_pattern":
			out = append(out, pythonSplat(p, source))
		case "typed_parameter":
			inner := firstChildOfType(p, "identifier", "list_splat_pattern", "dictionary_splat_pattern")
			if inner == nil {
				continue
			}
			param := model.Param{Name: NodeText(inner, source), Kind: model.Positional}
			if inner.Type() != "identifier" {
				param = pythonSplat(inner, source)
			}
			if t := p.ChildByFieldName("type"); t != nil {
				param.Annotation = NodeText(t, source)
			}
			out = append(out, param)
		case "default_parameter", "typed_default_parameter":
			n := p.ChildByFieldName("name")
			if n == nil {
				continue
			}
			param := model.Param{Name: NodeText(n, source), Kind: model.Optional}
			if v := p.ChildByFieldName("value"); v != nil {
				param.Default = NodeText(v, source)
			}
			if t := p.ChildByFieldName("type"); t != nil {
				param.Annotation = NodeText(t, source)
			}
			out = append(out, param)
		}
	}
	return out
}

func pythonSplat(node *sitter.Node, source []byte) model.Param {
	kind := model.Rest
	if node.Type() == "dictionary_splat_pattern" {
		kind = model.KeywordRest
	}
	name := strings.TrimLeft(NodeText(node, source), "*")
	if id := firstChildOfType(node, "identifier"); id != nil {
		name = NodeText(id, source)
	}
	return model.Param{Name: name, Kind: kind}
}

// pythonExported follows the underscore convention: `_x` and `__x` are
// private, dunder names are public.
func pythonExported(name string) bool {
	if name == "" {
		return false
	}
	if strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__") {
		return true
	}
	return !strings.HasPrefix(name, "_")
}

func pythonExtractClassSignature(node *sitter.Node, source []byte) string {
	var name, args string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = NodeText(child, source)
		case "argument_list":
			args = NodeText(child, source)
		}
	}
	if args != "" {
		return name + args
	}
	return name
}

// pythonExtractFieldSignature returns "name: type" when the assignment
// carries an annotation, otherwise just "name".
func pythonExtractFieldSignature(node *sitter.Node, source []byte) string {
	var name, annotation string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			if name == "" {
				name = NodeText(child, source)
			}
		case "type":
			annotation = NodeText(child, source)
		}
	}
	if name != "" && annotation != "" {
		return name + ": " + annotation
	}
	if name != "" {
		return name
	}
	return CollapseWhitespace(NodeText(node, source))
}

func pythonExtractFunctionSignature(node *sitter.Node, source []byte) string {
	var name, params, returnType string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "identifier":
			name = NodeText(child, source)
		case "parameters":
			params = CollapseWhitespace(NodeText(child, source))
		case "type":
			returnType = NodeText(child, source)
		}
	}
	sig := name + params
	if returnType != "" {
		sig += " -> " + returnType
	}
	return sig
}
