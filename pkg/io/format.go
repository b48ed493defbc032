package io

import (
	"path/filepath"
	"strings"

	"github.com/matzehuels/nestree/pkg/errors"
)

// Format names a record encoding.
type Format string

// Supported formats.
const (
	FormatCSV   Format = "csv"
	FormatTSV   Format = "tsv"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table" // output only
)

// InputFormats lists the formats accepted by [Read].
var InputFormats = []Format{FormatCSV, FormatTSV, FormatJSON, FormatYAML}

// OutputFormats lists the formats accepted by [Write].
var OutputFormats = []Format{FormatCSV, FormatTSV, FormatJSON, FormatYAML, FormatTable}

var aliases = map[string]Format{
	"csv":   FormatCSV,
	"tsv":   FormatTSV,
	"tab":   FormatTSV,
	"json":  FormatJSON,
	"yaml":  FormatYAML,
	"yml":   FormatYAML,
	"table": FormatTable,
}

// ParseFormat converts a format name or file extension (case-insensitive,
// with or without a leading dot) to a Format.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", s)
}

// FormatFromPath infers a format from the extension of path.
func FormatFromPath(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil || f == FormatTable {
		return "", false
	}
	return f, true
}

// CanRead reports whether f is an input format.
func (f Format) CanRead() bool { return f != FormatTable && f.CanWrite() }

// CanWrite reports whether f is an output format.
func (f Format) CanWrite() bool {
	switch f {
	case FormatCSV, FormatTSV, FormatJSON, FormatYAML, FormatTable:
		return true
	}
	return false
}

// Names returns the string form of formats, for flag help.
func Names(formats []Format) []string {
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}
