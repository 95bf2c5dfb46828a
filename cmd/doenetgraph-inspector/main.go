// Command doenetgraph-inspector is a terminal UI for walking a document's
// component tree, coloring each state variable by its freshness state, and
// stepping EnsureFresh one state variable at a time to watch the
// dependency graph resolve.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dqnykamp/doenetgraph"
	"github.com/dqnykamp/doenetgraph/internal/engine"
	"github.com/dqnykamp/doenetgraph/internal/graph"
)

func main() {
	markupPath := flag.String("markup", "", "path to the document's markup JSON")
	essentialsPath := flag.String("essentials", "", "path to a prior essential-cell dump (optional)")
	flag.Parse()

	if *markupPath == "" {
		fmt.Fprintln(os.Stderr, "doenetgraph-inspector: -markup is required")
		os.Exit(1)
	}

	markup, err := os.ReadFile(*markupPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reading markup:", err)
		os.Exit(1)
	}
	var essentials []byte
	if *essentialsPath != "" {
		essentials, err = os.ReadFile(*essentialsPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "reading essentials:", err)
			os.Exit(1)
		}
	}

	h, _, _, err := doenetgraph.Create(markup, essentials)
	if err != nil {
		fmt.Fprintln(os.Stderr, "building document:", err)
		os.Exit(1)
	}

	if _, err := tea.NewProgram(newModel(h)).Run(); err != nil {
		fmt.Fprintln(os.Stderr, "running inspector:", err)
		os.Exit(1)
	}
}

// row is one flattened line of the tree view: a component heading, or one
// of its state variables.
type row struct {
	depth     int
	isHeading bool
	component string
	typeName  string
	stateVar  string
	svIndex   int
}

type model struct {
	handle   *doenetgraph.Handle
	allRows  []row
	rows     []row
	cursor   int
	status   string
	filter   textinput.Model
	filterOn bool
}

func newModel(h *doenetgraph.Handle) model {
	ti := textinput.New()
	ti.Placeholder = "filter by component name"
	ti.Prompt = "/"
	ti.CharLimit = 128
	m := model{handle: h, filter: ti}
	m.rebuild()
	return m
}

func (m *model) rebuild() {
	m.allRows = nil
	g := m.handle.Graph()
	m.walk(g, g.Root, 0)
	m.applyFilter()
}

// applyFilter narrows allRows down to rows whose component name matches the
// filter box, or shows every row when the filter is empty.
func (m *model) applyFilter() {
	needle := strings.ToLower(m.filter.Value())
	if needle == "" {
		m.rows = m.allRows
		return
	}
	m.rows = nil
	for _, r := range m.allRows {
		if strings.Contains(strings.ToLower(r.component), needle) {
			m.rows = append(m.rows, r)
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = 0
	}
}

func (m *model) walk(g *graph.Graph, name string, depth int) {
	node, ok := g.Nodes[name]
	if !ok {
		return
	}
	m.allRows = append(m.allRows, row{depth: depth, isHeading: true, component: name, typeName: node.TypeName})
	for i, sv := range node.Type.StateVars {
		m.allRows = append(m.allRows, row{depth: depth + 1, component: name, stateVar: sv.Name, svIndex: i})
	}
	for _, c := range node.Children {
		if !c.IsString {
			m.walk(g, c.Name, depth+1)
		}
	}
}

func (m model) Init() tea.Cmd { return textinput.Blink }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.filterOn {
			switch msg.String() {
			case "esc", "enter":
				m.filterOn = false
				m.filter.Blur()
			default:
				var cmd tea.Cmd
				m.filter, cmd = m.filter.Update(msg)
				m.applyFilter()
				return m, cmd
			}
			return m, nil
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		case "enter", "f":
			m.step()
		case "a":
			m.stepAll()
		case "/":
			m.filterOn = true
			return m, m.filter.Focus()
		}
	}
	return m, nil
}

// step freshens the state variable under the cursor, if it has one.
func (m *model) step() {
	r := m.rows[m.cursor]
	if r.isHeading {
		m.status = fmt.Sprintf("%s is a component heading, not a state variable", r.component)
		return
	}
	v := m.handle.Engine().EnsureFresh(r.component, r.svIndex)
	m.status = fmt.Sprintf("%s#%s -> %v", r.component, r.stateVar, v.ToWire())
}

// stepAll freshens every state variable in document order, the same walk
// UpdateRenderers performs for for-renderer variables but covering every
// variable regardless of ForRenderer.
func (m *model) stepAll() {
	for _, r := range m.allRows {
		if !r.isHeading {
			m.handle.Engine().EnsureFresh(r.component, r.svIndex)
		}
	}
	m.status = "froze every state variable to fresh"
}

var (
	headingStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	cursorStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	unresolvedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	staleStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	freshStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	statusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).MarginTop(1)
)

func (m model) View() string {
	var b string
	for i, r := range m.rows {
		indent := ""
		for d := 0; d < r.depth; d++ {
			indent += "  "
		}
		var line string
		if r.isHeading {
			line = indent + headingStyle.Render(fmt.Sprintf("%s (%s)", r.component, r.typeName))
		} else {
			style := stateColor(m.handle.Engine().State(r.component, r.svIndex))
			line = indent + style.Render(r.stateVar)
		}
		if i == m.cursor {
			line = cursorStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b += line + "\n"
	}
	if m.filterOn || m.filter.Value() != "" {
		b += m.filter.View() + "\n"
	}
	b += statusStyle.Render(m.status) + "\n"
	b += "\nup/down move, enter/f freshen selected, a freshen all, / filter, q quit\n"
	return b
}

func stateColor(st engine.State) lipgloss.Style {
	switch st {
	case engine.Fresh:
		return freshStyle
	case engine.Stale:
		return staleStyle
	default:
		return unresolvedStyle
	}
}
