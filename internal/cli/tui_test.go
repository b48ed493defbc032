package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/nestree/pkg/nestedset"
)

// browseFixture is an indexed hierarchy, stored out of preorder:
//
//	root
//	├── a
//	│   └── x
//	└── b
func browseFixture() []nestedset.Node {
	return []nestedset.Node{
		{ID: "root", Label: "Root", PositionID: 1, Left: 1, Right: 8, Count: 2},
		{ID: "b", Label: "B", Parent: "root", Leaf: true, PositionID: 2, ParentPositionID: 1, Left: 6, Right: 7},
		{ID: "a", Label: "A", Parent: "root", PositionID: 3, ParentPositionID: 1, Left: 2, Right: 5, Count: 1},
		{ID: "a__x", Label: "X", Parent: "a", Leaf: true, Origin: "x", PositionID: 4, ParentPositionID: 3, Left: 3, Right: 4},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m TreeModel, keys ...string) TreeModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(TreeModel)
	}
	return m
}

func currentID(t *testing.T, m TreeModel) string {
	t.Helper()
	n, ok := m.Current()
	if !ok {
		t.Fatal("no current node")
	}
	return n.ID
}

func TestTreeModelPreorder(t *testing.T) {
	m := NewTreeModel(browseFixture())
	if m.Visible() != 4 {
		t.Fatalf("Visible() = %d, want 4", m.Visible())
	}

	var got []string
	for range m.Visible() {
		got = append(got, currentID(t, m))
		m = press(t, m, "j")
	}
	want := []string{"root", "a", "a__x", "b"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("rows = %v, want %v", got, want)
	}
}

func TestTreeModelNavigation(t *testing.T) {
	tests := []struct {
		name string
		keys []string
		want string
	}{
		{"start at root", nil, "root"},
		{"down", []string{"down"}, "a"},
		{"up stops at top", []string{"up", "k"}, "root"},
		{"down stops at bottom", []string{"j", "j", "j", "j", "j"}, "b"},
		{"end", []string{"G"}, "b"},
		{"home", []string{"G", "g"}, "root"},
		{"left on leaf moves to parent", []string{"j", "j", "left"}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(t, NewTreeModel(browseFixture()), tt.keys...)
			if got := currentID(t, m); got != tt.want {
				t.Errorf("current = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTreeModelCollapse(t *testing.T) {
	m := press(t, NewTreeModel(browseFixture()), "j", "enter")
	if m.Visible() != 3 {
		t.Fatalf("collapsing a: Visible() = %d, want 3", m.Visible())
	}
	if !strings.Contains(m.View(), "(+1)") {
		t.Error("collapsed row should show its hidden descendant count")
	}

	m = press(t, m, "right")
	if m.Visible() != 4 {
		t.Errorf("expanding a: Visible() = %d, want 4", m.Visible())
	}

	m = press(t, m, "g", "left")
	if m.Visible() != 1 {
		t.Errorf("collapsing root: Visible() = %d, want 1", m.Visible())
	}
}

func TestTreeModelCollapseClampsCursor(t *testing.T) {
	m := press(t, NewTreeModel(browseFixture()), "G", "g", " ")
	if m.Visible() != 1 || m.Cursor != 0 {
		t.Errorf("Visible() = %d, Cursor = %d, want 1 and 0", m.Visible(), m.Cursor)
	}
}

func TestTreeModelQuit(t *testing.T) {
	m := NewTreeModel(browseFixture())
	for _, k := range []string{"q", "esc"} {
		msg := key(k)
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEscape}
		}
		if _, cmd := m.Update(msg); cmd == nil {
			t.Errorf("%q should return a quit command", k)
		}
	}
}

func TestTreeModelWindowSize(t *testing.T) {
	m := NewTreeModel(browseFixture())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if h := next.(TreeModel).Height; h != 5 {
		t.Errorf("Height = %d, want minimum of 5", h)
	}
}

func TestTreeModelView(t *testing.T) {
	view := NewTreeModel(browseFixture()).View()
	for _, want := range []string{"Root", "A", "X", "B", "copy of x", "[1/4]", "lft"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() should contain %q", want)
		}
	}
}

func TestTreeModelEmpty(t *testing.T) {
	m := NewTreeModel(nil)
	if _, ok := m.Current(); ok {
		t.Error("empty model should have no current node")
	}
	if _, cmd := m.Update(key("j")); cmd == nil {
		t.Error("keys on an empty model should quit")
	}
}
