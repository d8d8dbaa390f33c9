// Package render serializes property records in the supported output formats.
package render

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/phobologic/docmeta/internal/docprops"
	"github.com/phobologic/docmeta/internal/toon"
)

// Output formats.
const (
	FormatTOON = "toon"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ErrUnsupportedFormat is returned for an unknown output format.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Document is the JSON and YAML shape of the output.
type Document struct {
	Root    string            `json:"root" yaml:"root"`
	Records []docprops.Record `json:"records" yaml:"records"`
}

// Formats lists the supported formats, default first.
func Formats() []string {
	return []string{FormatTOON, FormatJSON, FormatYAML}
}

// Validate returns ErrUnsupportedFormat unless format is supported.
func Validate(format string) error {
	switch format {
	case FormatTOON, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
}

// Render serializes records for root. The result ends with a newline.
func Render(format, root string, records []docprops.Record) ([]byte, error) {
	if records == nil {
		records = []docprops.Record{}
	}
	doc := Document{Root: root, Records: records}

	switch format {
	case FormatTOON:
		return []byte(toon.Encode(root, records) + "\n"), nil
	case FormatJSON:
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal records to JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("marshal records to YAML: %w", err)
		}
		return data, nil
	default:
		return nil, Validate(format)
	}
}
