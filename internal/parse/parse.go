// Package parse extracts symbol tables from source files using tree-sitter.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docmeta/internal/lang"
	"github.com/phobologic/docmeta/internal/model"
)

// ExtractFile parses a source file and returns its definitions and accessor
// methods. The parser must be created for the correct language.
// filePath is used only for Symbol.File and should be the repo-relative path.
func ExtractFile(ctx context.Context, l *lang.Language, parser *sitter.Parser, source []byte, filePath string) (model.FileInfo, error) {
	info := model.FileInfo{Path: filePath, Language: l.Name}
	if len(source) == 0 {
		return info, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return info, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	symbols, methods := l.Extract(tree.RootNode(), source)
	for i := range symbols {
		symbols[i].File = filePath
	}
	info.Symbols = symbols
	info.Methods = methods
	return info, nil
}
