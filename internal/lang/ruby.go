package lang

import (
	"regexp"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/ruby"

	"github.com/phobologic/docmeta/internal/model"
)

func init() {
	Languages["ruby"] = &Language{
		Name:       "ruby",
		Extensions: []string{".rb"},
		lang:       ruby.GetLanguage(),
		ident:      regexp.MustCompile(`^[\pL_][\pL\pN_]*=?$`),
		Extract:    rubyExtract,
	}
}

var rubyAttrKinds = map[string][]model.MethodKind{
	"attr_reader":   {model.Reader},
	"attr_writer":   {model.Writer},
	"attr_accessor": {model.Reader, model.Writer},
}

type rubyExtractor struct {
	source  []byte
	symbols []model.Symbol
	methods []model.SlotMethod
}

func rubyExtract(root *sitter.Node, source []byte) ([]model.Symbol, []model.SlotMethod) {
	x := &rubyExtractor{source: source}
	for _, stmt := range namedChildren(root) {
		switch stmt.Type() {
		case "class", "module":
			x.class(stmt, "")
		case "method", "singleton_method":
			sym := x.method(stmt, "", true)
			sym.Kind = model.Function
			x.symbols = append(x.symbols, sym)
		case "assignment":
			x.constant(stmt)
		}
	}
	return x.symbols, x.methods
}

func rubyStripComment(s string) string {
	s = strings.TrimPrefix(s, "#")
	return strings.TrimPrefix(s, " ")
}

func rubyDoc(node *sitter.Node, source []byte) string {
	return CleanDoc(precedingComments(node, source, rubyStripComment))
}

// rubyBody returns the statements of a class or module body, accepting
// grammars that wrap them in body_statement and grammars that do not.
func rubyBody(node *sitter.Node) []*sitter.Node {
	if body := node.ChildByFieldName("body"); body != nil {
		return namedChildren(body)
	}
	var stmts []*sitter.Node
	for _, child := range namedChildren(node) {
		switch child.Type() {
		case "body_statement":
			return namedChildren(child)
		case "constant", "scope_resolution", "superclass":
			continue
		}
		stmts = append(stmts, child)
	}
	return stmts
}

// rubyMember is a hand-written method that may turn out to be an accessor.
type rubyMember struct {
	name     string
	exported bool
	line     int
}

func (x *rubyExtractor) class(node *sitter.Node, outer string) {
	name := rubyClassName(node, x.source)
	if name == "" {
		return
	}
	if outer != "" {
		name = outer + "::" + name
	}

	var supers []string
	if sc := node.ChildByFieldName("superclass"); sc != nil {
		if c := firstChildOfType(sc, "constant", "scope_resolution"); c != nil {
			supers = append(supers, NodeText(c, x.source))
		}
	}
	x.symbols = append(x.symbols, model.Symbol{
		Name:         name,
		Kind:         model.Class,
		Line:         line(node),
		Signature:    rubyExtractClassSignature(node, x.source),
		Doc:          rubyDoc(node, x.source),
		Superclasses: supers,
		Exported:     true,
	})

	var (
		public    = true
		slots     = map[string]bool{}
		explicit  []rubyMember
		private   = map[string]bool{}
		accessors []model.SlotMethod
	)
	for _, stmt := range rubyBody(node) {
		switch stmt.Type() {
		case "identifier":
			switch NodeText(stmt, x.source) {
			case "private", "protected":
				public = false
			case "public":
				public = true
			}
		case "class", "module":
			x.class(stmt, name)
		case "method", "singleton_method":
			sym := x.method(stmt, name, public)
			x.symbols = append(x.symbols, sym)
			if stmt.Type() == "method" {
				explicit = append(explicit, rubyMember{name: sym.Name, exported: public, line: sym.Line})
			}
		case "call", "method_call", "command":
			method := rubyCallName(stmt, x.source)
			args := rubyCallArgs(stmt)
			if kinds, ok := rubyAttrKinds[method]; ok {
				for _, slot := range rubySymbolArgs(args, x.source) {
					if !slots[slot] {
						slots[slot] = true
						x.symbols = append(x.symbols, model.Symbol{
							Name:      slot,
							Kind:      model.Field,
							Class:     name,
							Line:      line(stmt),
							Signature: method + " :" + slot,
							Doc:       rubyDoc(stmt, x.source),
							Exported:  public,
						})
					}
					for _, k := range kinds {
						accessors = append(accessors, rubyAccessor(name, slot, k, public, line(stmt)))
					}
				}
				continue
			}
			if method == "private" || method == "protected" {
				for _, target := range rubySymbolArgs(args, x.source) {
					private[target] = true
				}
				// private def foo ... end
				for _, inner := range namedChildren(args) {
					if inner.Type() == "method" {
						sym := x.method(inner, name, false)
						x.symbols = append(x.symbols, sym)
						explicit = append(explicit, rubyMember{name: sym.Name, line: sym.Line})
					}
				}
			}
		}
	}

	// Hand-written `def width` and `def width=(v)` count as accessors of a
	// slot declared through attr_*.
	for _, m := range explicit {
		slot := strings.TrimSuffix(m.name, "=")
		if !slots[slot] {
			continue
		}
		kind := model.Reader
		if strings.HasSuffix(m.name, "=") {
			kind = model.Writer
		}
		accessors = append(accessors, rubyAccessor(name, slot, kind, m.exported, m.line))
	}
	sort.SliceStable(accessors, func(i, j int) bool {
		return accessors[i].Line < accessors[j].Line
	})
	for i := range accessors {
		if private[accessors[i].Name.Text] {
			accessors[i].Exported = false
		}
	}
	for i := range x.symbols {
		s := &x.symbols[i]
		if s.Class == name && private[s.Name] {
			s.Exported = false
		}
	}
	x.methods = append(x.methods, accessors...)
}

func rubyAccessor(class, slot string, kind model.MethodKind, exported bool, ln int) model.SlotMethod {
	name := model.PlainName(slot)
	if kind == model.Writer {
		name = model.SetterName(slot+"=", slot)
	}
	return model.SlotMethod{Name: name, Kind: kind, Class: class, Slot: slot, Exported: exported, Line: ln}
}

func (x *rubyExtractor) method(node *sitter.Node, class string, public bool) model.Symbol {
	var name string
	if n := node.ChildByFieldName("name"); n != nil {
		name = NodeText(n, x.source)
	}
	return model.Symbol{
		Name:      name,
		Kind:      model.Method,
		Class:     class,
		Line:      line(node),
		Signature: rubyExtractMethodSignature(node, x.source),
		Doc:       rubyDoc(node, x.source),
		Params:    rubyParams(node.ChildByFieldName("parameters"), x.source),
		Exported:  public,
	}
}

// constant records a top-level `NAME = value` or `$name = value`.
func (x *rubyExtractor) constant(node *sitter.Node) {
	left := node.ChildByFieldName("left")
	if left == nil || (left.Type() != "constant" && left.Type() != "global_variable") {
		return
	}
	name := NodeText(left, x.source)
	x.symbols = append(x.symbols, model.Symbol{
		Name:      name,
		Kind:      model.Variable,
		Line:      line(node),
		Signature: CollapseWhitespace(NodeText(node, x.source)),
		Doc:       rubyDoc(node, x.source),
		Exported:  true,
	})
}

func rubyCallName(node *sitter.Node, source []byte) string {
	if m := node.ChildByFieldName("method"); m != nil {
		return NodeText(m, source)
	}
	if id := firstChildOfType(node, "identifier"); id != nil {
		return NodeText(id, source)
	}
	return ""
}

func rubyCallArgs(node *sitter.Node) *sitter.Node {
	if a := node.ChildByFieldName("arguments"); a != nil {
		return a
	}
	return firstChildOfType(node, "argument_list")
}

// rubySymbolArgs returns the names of the :symbol arguments of a call.
func rubySymbolArgs(args *sitter.Node, source []byte) []string {
	var out []string
	for _, a := range namedChildren(args) {
		switch a.Type() {
		case "simple_symbol", "symbol":
			out = append(out, strings.TrimPrefix(NodeText(a, source), ":"))
		}
	}
	return out
}

func rubyParams(params *sitter.Node, source []byte) []model.Param {
	var out []model.Param
	for _, p := range namedChildren(params) {
		switch p.Type() {
		case "identifier":
			out = append(out, model.Param{Name: NodeText(p, source), Kind: model.Positional})
		case "optional_parameter":
			out = append(out, rubyNamedParam(p, source, model.Optional))
		case "keyword_parameter":
			out = append(out, rubyNamedParam(p, source, model.Keyword))
		case "splat_parameter":
			out = append(out, rubyNamedParam(p, source, model.Rest))
		case "hash_splat_parameter":
			out = append(out, rubyNamedParam(p, source, model.KeywordRest))
		case "block_parameter":
			out = append(out, rubyNamedParam(p, source, model.Block))
		}
	}
	return out
}

func rubyNamedParam(p *sitter.Node, source []byte, kind model.ParamKind) model.Param {
	param := model.Param{Kind: kind}
	if n := p.ChildByFieldName("name"); n != nil {
		param.Name = NodeText(n, source)
	} else {
		param.Name = strings.TrimLeft(NodeText(p, source), "*&")
	}
	if v := p.ChildByFieldName("value"); v != nil {
		param.Default = NodeText(v, source)
	}
	return param
}

// rubyClassName extracts the name from a class or module node.
func rubyClassName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return NodeText(n, source)
	}
	if c := firstChildOfType(node, "constant", "scope_resolution"); c != nil {
		return NodeText(c, source)
	}
	return ""
}

func rubyExtractClassSignature(node *sitter.Node, source []byte) string {
	var name, superclass string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "constant", "scope_resolution":
			if name == "" {
				name = NodeText(child, source)
			}
		case "superclass":
			// superclass node contains "< ClassName"
			for j := 0; j < int(child.ChildCount()); j++ {
				sc := child.Child(j)
				if sc.Type() == "constant" || sc.Type() == "scope_resolution" {
					superclass = NodeText(sc, source)
				}
			}
		}
	}
	if node.Type() == "module" {
		return "module " + name
	}
	if superclass != "" {
		return name + " < " + superclass
	}
	return name
}

func rubyExtractMethodSignature(node *sitter.Node, source []byte) string {
	var name, params string
	if n := node.ChildByFieldName("name"); n != nil {
		name = NodeText(n, source)
	}
	if p := node.ChildByFieldName("parameters"); p != nil {
		params = CollapseWhitespace(NodeText(p, source))
	}
	if node.Type() == "singleton_method" {
		name = "self." + name
	}
	return name + params
}
