// Package lang provides a language registry mapping file extensions to
// tree-sitter languages and their symbol extractors.
package lang

import (
	"regexp"
	"strings"
	"sync"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docmeta/internal/model"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
	ident      *regexp.Regexp

	// Extract walks a parsed tree and returns the definitions it contains
	// together with the accessor methods specialized on class slots.
	Extract func(root *sitter.Node, source []byte) ([]model.Symbol, []model.SlotMethod)

	// SlotKey normalizes slot names so that field names and the slot names
	// derived from accessor method names compare equal. Nil means identity.
	SlotKey func(name string) string
}

// Slot returns the normalized key for a slot name.
func (l *Language) Slot(name string) string {
	if l.SlotKey == nil {
		return name
	}
	return l.SlotKey(name)
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// ValidName reports whether s is a well-formed identifier in this language.
func (l *Language) ValidName(s string) bool {
	return l.ident.MatchString(s)
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// CollapseWhitespace replaces runs of whitespace with a single space and trims.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	n := int(node.NamedChildCount())
	out := make([]*sitter.Node, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}

func firstChildOfType(node *sitter.Node, types ...string) *sitter.Node {
	for _, child := range namedChildren(node) {
		for _, t := range types {
			if child.Type() == t {
				return child
			}
		}
	}
	return nil
}

func line(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// precedingComments collects the block of comment nodes directly above node,
// with no blank line in between, and returns their text with markers
// removed by strip.
func precedingComments(node *sitter.Node, source []byte, strip func(string) string) string {
	var lines []string
	nextRow := node.StartPoint().Row
	for prev := commentCandidate(node); prev != nil && prev.Type() == "comment"; prev = prev.PrevNamedSibling() {
		if prev.EndPoint().Row+1 != nextRow {
			break
		}
		// A comment trailing code on the same line documents that code.
		if before := prev.PrevNamedSibling(); before != nil && before.EndPoint().Row == prev.StartPoint().Row {
			break
		}
		lines = append([]string{strip(NodeText(prev, source))}, lines...)
		nextRow = prev.StartPoint().Row
	}
	return strings.Join(lines, "\n")
}

// commentCandidate returns the node a comment walk starts from. Ruby puts
// comments ahead of a body's first statement outside the body_statement, so
// the walk continues from the body's own previous sibling.
func commentCandidate(node *sitter.Node) *sitter.Node {
	if prev := node.PrevNamedSibling(); prev != nil {
		return prev
	}
	if parent := node.Parent(); parent != nil && parent.Type() == "body_statement" {
		return parent.PrevNamedSibling()
	}
	return nil
}

// CleanDoc removes the common leading indentation of every line after the
// first, strips the first line, and drops leading and trailing blank lines.
func CleanDoc(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	indent := -1
	for _, l := range lines[1:] {
		trimmed := strings.TrimLeft(l, " \t")
		if trimmed == "" {
			continue
		}
		if n := len(l) - len(trimmed); indent < 0 || n < indent {
			indent = n
		}
	}
	lines[0] = strings.TrimSpace(lines[0])
	for i := 1; i < len(lines); i++ {
		if indent > 0 && len(lines[i]) >= indent {
			lines[i] = lines[i][indent:]
		}
		lines[i] = strings.TrimRightFunc(lines[i], unicode.IsSpace)
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

func upperFirst(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}
