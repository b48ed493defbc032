package cli

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/nestree/pkg/nestedset"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
	listCopyStyle     = lipgloss.NewStyle().Foreground(colorYellow)
)

const (
	markerCollapsed = "▸"
	markerExpanded  = "▾"
	markerLeaf      = "·"
)

// =============================================================================
// TreeModel - Interactive nested-set browser
// =============================================================================

// TreeModel is the bubbletea model for browsing an indexed hierarchy.
// Rows are shown in preorder; subtrees can be collapsed.
type TreeModel struct {
	nodes     []nestedset.Node
	preorder  []int // node indices sorted by Left
	depths    []int // depth per node index
	collapsed map[int]bool
	visible   []int // preorder indices not hidden by a collapsed ancestor

	Cursor int // index into visible
	Offset int
	Height int
}

// NewTreeModel creates a browser over an indexed collection.
func NewTreeModel(nodes []nestedset.Node) TreeModel {
	preorder := make([]int, len(nodes))
	for i := range preorder {
		preorder[i] = i
	}
	slices.SortStableFunc(preorder, func(a, b int) int { return cmp.Compare(nodes[a].Left, nodes[b].Left) })

	m := TreeModel{
		nodes:     nodes,
		preorder:  preorder,
		depths:    nestedset.Depths(nodes),
		collapsed: make(map[int]bool),
		Height:    20,
	}
	m.refresh()
	return m
}

// refresh recomputes the visible rows after a collapse or expand.
func (m *TreeModel) refresh() {
	m.visible = make([]int, 0, len(m.preorder))
	skipUntil := 0
	for _, i := range m.preorder {
		n := m.nodes[i]
		if n.Left < skipUntil {
			continue
		}
		m.visible = append(m.visible, i)
		if m.collapsed[i] {
			skipUntil = n.Right
		}
	}
	if m.Cursor >= len(m.visible) {
		m.Cursor = max(len(m.visible)-1, 0)
	}
	m.clampOffset()
}

func (m *TreeModel) clampOffset() {
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// Visible returns the number of rows currently shown.
func (m TreeModel) Visible() int { return len(m.visible) }

// Current returns the node under the cursor.
func (m TreeModel) Current() (nestedset.Node, bool) {
	if len(m.visible) == 0 {
		return nestedset.Node{}, false
	}
	return m.nodes[m.visible[m.Cursor]], true
}

func (m TreeModel) hasChildren(i int) bool { return m.nodes[i].Count > 0 }

// parentRow returns the visible row of the cursor node's parent.
func (m TreeModel) parentRow() (int, bool) {
	cur := m.nodes[m.visible[m.Cursor]]
	for row := m.Cursor - 1; row >= 0; row-- {
		if m.nodes[m.visible[row]].PositionID == cur.ParentPositionID {
			return row, true
		}
	}
	return 0, false
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if len(m.visible) == 0 {
			return m, tea.Quit
		}
		cur := m.visible[m.Cursor]
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
			}
		case "down", "j":
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
			}
		case "home", "g":
			m.Cursor = 0
		case "end", "G":
			m.Cursor = len(m.visible) - 1
		case "enter", " ":
			if m.hasChildren(cur) {
				m.collapsed[cur] = !m.collapsed[cur]
				m.refresh()
			}
		case "left", "h":
			if m.hasChildren(cur) && !m.collapsed[cur] {
				m.collapsed[cur] = true
				m.refresh()
			} else if row, ok := m.parentRow(); ok {
				m.Cursor = row
			}
		case "right", "l":
			if m.collapsed[cur] {
				delete(m.collapsed, cur)
				m.refresh()
			}
		}
		m.clampOffset()
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
		m.clampOffset()
	}
	return m, nil
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Nested Set"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ toggle  ←/→ collapse/expand  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	for row := m.Offset; row < end; row++ {
		i := m.visible[row]
		b.WriteString(m.renderRow(i, row == m.Cursor))
		b.WriteString("\n")
	}

	if n, ok := m.Current(); ok {
		b.WriteString("\n")
		b.WriteString(renderDetail(n))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.visible))))
	return b.String()
}

func (m TreeModel) renderRow(i int, selected bool) string {
	n := m.nodes[i]
	marker := markerLeaf
	if m.hasChildren(i) {
		marker = markerExpanded
		if m.collapsed[i] {
			marker = markerCollapsed
		}
	}

	cursor := "  "
	if selected {
		cursor = "> "
	}
	line := cursor + strings.Repeat("  ", m.depths[i]) + marker + " " + n.Label

	style := listNormalStyle
	if selected {
		style = listSelectedStyle
	}
	out := style.Render(line) + " " + listDimStyle.Render(n.ID)
	if n.Origin != "" {
		out += " " + listCopyStyle.Render("copy of "+n.Origin)
	}
	if m.collapsed[i] {
		out += " " + listDimStyle.Render(fmt.Sprintf("(+%d)", n.Descendants()))
	}
	return out
}

// renderDetail shows the indexed fields of a node as a one-row table.
func renderDetail(n nestedset.Node) string {
	parentID := "-"
	if n.ParentPositionID != 0 {
		parentID = strconv.Itoa(n.ParentPositionID)
	}
	origin := "-"
	if n.Origin != "" {
		origin = n.Origin
	}
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("pid", "parent_id", "lft", "rgt", "count", "leaf", "origin").
		Row(strconv.Itoa(n.PositionID), parentID, strconv.Itoa(n.Left), strconv.Itoa(n.Right),
			strconv.Itoa(n.Count), strconv.FormatBool(n.Leaf), origin).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Foreground(colorWhite).Padding(0, 1)
		}).
		Render()
}
