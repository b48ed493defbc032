package io

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/nestree/pkg/errors"
	"github.com/matzehuels/nestree/pkg/nestedset"
)

const clothingCSV = `id,label,parent,leaf
Clothing,Clothing,,
Men's,Men's,Clothing,
Suits,Suits,Men's,true
Women's,Women's,Clothing,false
`

func TestReadCSV(t *testing.T) {
	nodes, err := Read(strings.NewReader(clothingCSV), FormatCSV)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	want := []nestedset.Node{
		{ID: "Clothing", Label: "Clothing"},
		{ID: "Men's", Label: "Men's", Parent: "Clothing"},
		{ID: "Suits", Label: "Suits", Parent: "Men's", Leaf: true},
		{ID: "Women's", Label: "Women's", Parent: "Clothing"},
	}
	if len(nodes) != len(want) {
		t.Fatalf("len = %d, want %d", len(nodes), len(want))
	}
	for i := range want {
		if nodes[i] != want[i] {
			t.Errorf("nodes[%d] = %+v, want %+v", i, nodes[i], want[i])
		}
	}
}

func TestReadCSV_ColumnOrder(t *testing.T) {
	in := "Leaf,Parent,Extra,Label,ID\n,,x,Root,r\nyes,r,y,Child,c\n"
	nodes, err := ReadCSV(strings.NewReader(in), ',')
	if err != nil {
		t.Fatalf("ReadCSV() error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len = %d, want 2", len(nodes))
	}
	if nodes[1].ID != "c" || nodes[1].Parent != "r" || !nodes[1].Leaf || nodes[1].Label != "Child" {
		t.Errorf("nodes[1] = %+v", nodes[1])
	}
}

func TestReadTSV(t *testing.T) {
	in := "id\tlabel\tparent\nroot\tRoot\t\nchild\tA \"quoted\" label\troot\n"
	nodes, err := Read(strings.NewReader(in), FormatTSV)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("len = %d, want 2", len(nodes))
	}
	if nodes[1].Label != `A "quoted" label` {
		t.Errorf("Label = %q", nodes[1].Label)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"missing id column", "label,parent\nA,\n"},
		{"missing label column", "id,parent\nA,\n"},
		{"bad leaf", "id,label,leaf\nA,A,maybe\n"},
		{"empty id", "id,label\n,A\n"},
		{"ragged row", "id,label\nA,A,extra\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.in), ',')
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, errors.ErrCodeInvalidInput) {
				t.Errorf("code = %v, want %v", errors.GetCode(err), errors.ErrCodeInvalidInput)
			}
		})
	}
}

func TestReadCSV_RowNumberInError(t *testing.T) {
	in := "id,label,leaf\nA,A,\nB,B,nope\n"
	_, err := ReadCSV(strings.NewReader(in), ',')
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Errorf("error %q should name row 3", err)
	}
}

func TestReadJSON(t *testing.T) {
	in := `[
  {"id": "Clothing", "label": "Clothing", "parent": null},
  {"id": "Men's", "label": "Men's", "parent": "Clothing", "leaf": null},
  {"id": "Suits", "label": "Suits", "parent": "Men's", "leaf": "true"},
  {"id": "Jackets", "label": "Jackets", "parent": "Men's", "leaf": true}
]`
	nodes, err := Read(strings.NewReader(in), FormatJSON)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(nodes) != 4 {
		t.Fatalf("len = %d, want 4", len(nodes))
	}
	if nodes[0].Parent != "" {
		t.Errorf("root Parent = %q, want empty", nodes[0].Parent)
	}
	if nodes[1].Leaf {
		t.Error("null leaf should decode as false")
	}
	if !nodes[2].Leaf || !nodes[3].Leaf {
		t.Error("string and bool leaf should decode as true")
	}
}

func TestReadJSON_Errors(t *testing.T) {
	for _, in := range []string{
		`{"id": "A"}`,
		`[{"id": "", "label": "A"}]`,
		`[{"id": "A", "label": "A", "leaf": "sometimes"}]`,
	} {
		if _, err := ReadJSON(strings.NewReader(in)); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ReadJSON(%s) error = %v, want INVALID_INPUT", in, err)
		}
	}
}

func TestReadYAML(t *testing.T) {
	in := `
- id: Clothing
  label: Clothing
  parent: null
- id: Suits
  label: Suits
  parent: Clothing
  leaf: yes
- id: Dresses
  label: Dresses
  parent: Clothing
`
	nodes, err := Read(strings.NewReader(in), FormatYAML)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("len = %d, want 3", len(nodes))
	}
	if !nodes[1].Leaf {
		t.Error("Suits should be a leaf")
	}
	if nodes[2].Leaf {
		t.Error("Dresses should not be a leaf")
	}
	if nodes[2].Parent != "Clothing" {
		t.Errorf("Parent = %q, want Clothing", nodes[2].Parent)
	}
}

func TestReadYAML_Empty(t *testing.T) {
	nodes, err := ReadYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ReadYAML() error: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("len = %d, want 0", len(nodes))
	}
}

func TestRead_OutputOnlyFormat(t *testing.T) {
	_, err := Read(strings.NewReader(""), FormatTable)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("Read(table) error = %v, want INVALID_FORMAT", err)
	}
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tree.csv")
	if err := os.WriteFile(path, []byte(clothingCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	nodes, err := ImportFile(path, "")
	if err != nil {
		t.Fatalf("ImportFile() error: %v", err)
	}
	if len(nodes) != 4 {
		t.Errorf("len = %d, want 4", len(nodes))
	}

	if _, err := ImportFile(filepath.Join(dir, "missing.csv"), ""); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file error = %v, want FILE_NOT_FOUND", err)
	}

	noExt := filepath.Join(dir, "tree")
	if err := os.WriteFile(noExt, []byte(clothingCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ImportFile(noExt, ""); !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("no extension error = %v, want INVALID_FORMAT", err)
	}
	if _, err := ImportFile(noExt, FormatCSV); err != nil {
		t.Errorf("explicit format error: %v", err)
	}
}
