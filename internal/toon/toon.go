// Package toon implements TOON (Token-Oriented Object Notation) encoding of
// documentation property records.
package toon

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/phobologic/docmeta/internal/docprops"
	"github.com/phobologic/docmeta/internal/richtext"
)

var (
	needsQuoting = regexp.MustCompile(`[,:"\\{}\[\]]`)
	looksNumeric = regexp.MustCompile(`^-?(?:0|[1-9]\d*)(?:\.\d+)?$`)
	keywords     = map[string]struct{}{
		"true":  {},
		"false": {},
		"null":  {},
	}
)

// Encode converts property records into TOON format. Docstrings are written
// as plain text; the refs table lists their tagged words.
func Encode(root string, records []docprops.Record) string {
	var parts []string

	parts = append(parts, fmt.Sprintf("root: %s", encodeValue(root)))

	var recordRows [][]string
	for i := range records {
		r := &records[i]
		recordRows = append(recordRows, []string{
			r.Language,
			r.File,
			fmt.Sprintf("%d", r.Line),
			string(r.Kind),
			r.QualifiedName(),
			r.Params,
			richtext.PlainText(r.Doc),
		})
	}
	parts = append(parts, formatTabular("records",
		[]string{"language", "file", "line", "kind", "name", "params", "doc"}, recordRows))

	var hierarchyRows [][]string
	for i := range records {
		r := &records[i]
		if len(r.Superclasses) == 0 {
			continue
		}
		hierarchyRows = append(hierarchyRows, []string{
			r.Name,
			strings.Join(r.Superclasses, " "),
			strings.Join(r.Ancestors, " "),
		})
	}
	if len(hierarchyRows) > 0 {
		parts = append(parts, formatTabular("hierarchy",
			[]string{"class", "superclasses", "ancestors"}, hierarchyRows))
	}

	var slotRows [][]string
	for i := range records {
		r := &records[i]
		for _, s := range r.Slots {
			if len(s.Access) == 0 {
				slotRows = append(slotRows, []string{r.Name, s.Name, "", ""})
				continue
			}
			for _, e := range s.Access {
				slotRows = append(slotRows, []string{r.Name, s.Name, string(e.Role), e.Name})
			}
		}
	}
	parts = append(parts, formatTabular("slots", []string{"class", "slot", "role", "method"}, slotRows))

	var refRows [][]string
	addRefs := func(symbol string, doc []richtext.Segment) {
		for _, ref := range richtext.Refs(doc) {
			refRows = append(refRows, []string{symbol, string(ref.Category), ref.Text})
		}
	}
	for i := range records {
		r := &records[i]
		addRefs(r.QualifiedName(), r.Doc)
		for _, s := range r.Slots {
			addRefs(r.Name+"."+s.Name, s.Doc)
		}
	}
	parts = append(parts, formatTabular("refs", []string{"symbol", "category", "name"}, refRows))

	return strings.Join(parts, "\n")
}

func formatTabular(name string, columns []string, rows [][]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, len(rows), strings.Join(columns, ","))
	for _, row := range rows {
		encoded := make([]string, len(row))
		for i, cell := range row {
			encoded[i] = encodeValue(cell)
		}
		fmt.Fprintf(&b, "\n  %s", strings.Join(encoded, ","))
	}
	return b.String()
}

func encodeValue(value string) string {
	if value == "" {
		return `""`
	}

	if value != strings.TrimSpace(value) {
		return quote(value)
	}

	if strings.ContainsAny(value, "\n\r\t") {
		return quote(value)
	}

	if _, ok := keywords[strings.ToLower(value)]; ok {
		return quote(value)
	}

	if looksNumeric.MatchString(value) {
		return value
	}

	if needsQuoting.MatchString(value) {
		return quote(value)
	}

	if strings.HasPrefix(value, "-") {
		return quote(value)
	}

	return value
}

func quote(value string) string {
	escaped := strings.ReplaceAll(value, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	escaped = strings.ReplaceAll(escaped, "\n", `\n`)
	escaped = strings.ReplaceAll(escaped, "\r", `\r`)
	escaped = strings.ReplaceAll(escaped, "\t", `\t`)
	return `"` + escaped + `"`
}
