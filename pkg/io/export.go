package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
)

// Header lists output field names in order.
var Header = []string{
	"pid",
	"classification",
	"classification_label",
	"classification_origin",
	"classification_parent",
	"parent_id",
	"leaf",
	"lft",
	"rgt",
	"count",
}

type outRecord struct {
	PID      int     `json:"pid" yaml:"pid"`
	ID       string  `json:"classification" yaml:"classification"`
	Label    string  `json:"classification_label" yaml:"classification_label"`
	Origin   *string `json:"classification_origin" yaml:"classification_origin"`
	Parent   *string `json:"classification_parent" yaml:"classification_parent"`
	ParentID *int    `json:"parent_id" yaml:"parent_id"`
	Leaf     bool    `json:"leaf" yaml:"leaf"`
	Left     int     `json:"lft" yaml:"lft"`
	Right    int     `json:"rgt" yaml:"rgt"`
	Count    int     `json:"count" yaml:"count"`
}

func toRecord(n nestedset.Node) outRecord {
	rec := outRecord{
		PID:   n.PositionID,
		ID:    n.ID,
		Label: n.Label,
		Leaf:  n.Leaf,
		Left:  n.Left,
		Right: n.Right,
		Count: n.Count,
	}
	if n.Origin != "" {
		origin := n.Origin
		rec.Origin = &origin
	}
	if n.Parent != "" {
		parent := n.Parent
		rec.Parent = &parent
	}
	if n.ParentPositionID != 0 {
		pid := n.ParentPositionID
		rec.ParentID = &pid
	}
	return rec
}

func (r outRecord) row() []string {
	opt := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	parentID := ""
	if r.ParentID != nil {
		parentID = strconv.Itoa(*r.ParentID)
	}
	return []string{
		strconv.Itoa(r.PID),
		r.ID,
		r.Label,
		opt(r.Origin),
		opt(r.Parent),
		parentID,
		strconv.FormatBool(r.Leaf),
		strconv.Itoa(r.Left),
		strconv.Itoa(r.Right),
		strconv.Itoa(r.Count),
	}
}

// Write encodes indexed nodes in the given format to w, in slice order.
func Write(w io.Writer, f Format, nodes []nestedset.Node) error {
	recs := make([]outRecord, len(nodes))
	for i, n := range nodes {
		recs[i] = toRecord(n)
	}
	switch f {
	case FormatCSV:
		return writeCSV(w, ',', recs)
	case FormatTSV:
		return writeCSV(w, '\t', recs)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(recs); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(recs); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatTable:
		tbl := tablewriter.NewWriter(w)
		tbl.SetHeader(Header)
		tbl.SetAutoFormatHeaders(false)
		for _, r := range recs {
			tbl.Append(r.row())
		}
		tbl.Render()
		return nil
	}
	return errors.New(errors.ErrCodeInvalidFormat, "cannot write format %q", f)
}

func writeCSV(w io.Writer, delim rune, recs []outRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = delim
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range recs {
		if err := cw.Write(r.row()); err != nil {
			return fmt.Errorf("write row %d: %w", r.PID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile writes nodes to the file at path. If f is empty the format is
// inferred from the file extension.
func ExportFile(path string, f Format, nodes []nestedset.Node) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if f == "" {
		var ok bool
		if f, ok = FormatFromPath(path); !ok {
			return errors.New(errors.ErrCodeInvalidFormat, "missing option --to: cannot infer format of %s", path)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(file, f, nodes); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
