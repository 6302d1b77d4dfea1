// Package output renders CLI results in the supported formats. INI is the
// default because its sections paste straight into ssh configs and scripts.
package output

import (
	"io"
	"strings"

	"github.com/boxfleet/boxfleet/internal/model"
)

// Format represents the output format
type Format string

const (
	FormatINI   Format = "ini"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
)

// Section is one named record: a box, an alias, or any key/value bundle.
type Section struct {
	Name   string
	Fields []model.KV
}

// Document carries both the record view (ini/table) and the raw API payload
// (json/yaml), so every format renders from the same call site.
type Document struct {
	Sections []Section
	Raw      interface{}
}

// Formatter is an interface for output formatting
type Formatter interface {
	Write(w io.Writer, doc Document) error
}

// ParseFormat parses a format string
func ParseFormat(s string) Format {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON
	case "yaml", "yml":
		return FormatYAML
	case "table":
		return FormatTable
	default:
		return FormatINI
	}
}

// NewFormatter creates a new formatter for the given format
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{}
	default:
		return &INIFormatter{}
	}
}
