package io

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
)

// record is the input shape shared by the JSON and YAML readers.
type record struct {
	ID     string   `json:"id" yaml:"id"`
	Label  string   `json:"label" yaml:"label"`
	Parent *string  `json:"parent" yaml:"parent"`
	Leaf   flexBool `json:"leaf" yaml:"leaf"`
}

// flexBool decodes a boolean that may be null, empty, or a quoted string.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*b = false
		return nil
	}
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	v, err := parseBool(s)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

func (b *flexBool) UnmarshalYAML(value *yaml.Node) error {
	if value.Tag == "!!null" {
		*b = false
		return nil
	}
	v, err := parseBool(value.Value)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

// parseBool accepts strconv.ParseBool values plus "" (false) and yes/no.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return false, nil
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid leaf value %q", s)
	}
	return v, nil
}

func (r record) node(row int) (nestedset.Node, error) {
	if err := errors.ValidateIdentity(r.ID); err != nil {
		return nestedset.Node{}, errors.Wrap(errors.ErrCodeInvalidInput, err, "record %d", row)
	}
	n := nestedset.Node{ID: r.ID, Label: r.Label, Leaf: bool(r.Leaf)}
	if r.Parent != nil {
		n.Parent = *r.Parent
	}
	return n, nil
}

// Read decodes records of the given format from r.
//
// Read returns an error wrapping [errors.ErrCodeInvalidFormat] for output-only
// or unknown formats and [errors.ErrCodeInvalidInput] for malformed records.
// Read does not close r.
func Read(r io.Reader, f Format) ([]nestedset.Node, error) {
	switch f {
	case FormatCSV:
		return ReadCSV(r, ',')
	case FormatTSV:
		return ReadCSV(r, '\t')
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	}
	return nil, errors.New(errors.ErrCodeInvalidFormat, "cannot read format %q", f)
}

// ReadCSV decodes delimiter-separated records with a header row.
// Columns are matched by name, case-insensitively; "id" and "label" are
// required, "parent" and "leaf" optional. Unknown columns are ignored.
func ReadCSV(r io.Reader, delim rune) ([]nestedset.Node, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.Comma = delim
	cr.LazyQuotes = delim == '\t'
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidInput, "missing header row")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read header")
	}
	cols := map[string]int{"id": -1, "label": -1, "parent": -1, "leaf": -1}
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, ok := cols[key]; ok && cols[key] < 0 {
			cols[key] = i
		}
	}
	for _, required := range []string{"id", "label"} {
		if cols[required] < 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "missing %q column in header", required)
		}
	}

	field := func(rec []string, name string) string {
		if i := cols[name]; i >= 0 && i < len(rec) {
			return rec[i]
		}
		return ""
	}

	var nodes []nestedset.Node
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "row %d", row)
		}
		leaf, err := parseBool(field(rec, "leaf"))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "row %d", row)
		}
		id := field(rec, "id")
		if err := errors.ValidateIdentity(id); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "row %d", row)
		}
		nodes = append(nodes, nestedset.Node{
			ID:     id,
			Label:  field(rec, "label"),
			Parent: field(rec, "parent"),
			Leaf:   leaf,
		})
	}
	return nodes, nil
}

// ReadJSON decodes a JSON array of records.
func ReadJSON(r io.Reader) ([]nestedset.Node, error) {
	var recs []record
	if err := json.NewDecoder(r).Decode(&recs); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode json")
	}
	return toNodes(recs)
}

// ReadYAML decodes a YAML sequence of records.
func ReadYAML(r io.Reader) ([]nestedset.Node, error) {
	var recs []record
	if err := yaml.NewDecoder(r).Decode(&recs); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode yaml")
	}
	return toNodes(recs)
}

func toNodes(recs []record) ([]nestedset.Node, error) {
	nodes := make([]nestedset.Node, 0, len(recs))
	for i, rec := range recs {
		n, err := rec.node(i + 1)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// ImportFile reads records from the file at path. If f is empty the format
// is inferred from the file extension.
func ImportFile(path string, f Format) ([]nestedset.Node, error) {
	if f == "" {
		var ok bool
		if f, ok = FormatFromPath(path); !ok {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "missing option --from: cannot infer format of %s", path)
		}
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()
	return Read(file, f)
}
