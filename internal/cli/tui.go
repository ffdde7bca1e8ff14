package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/bigpicture/pkg/commitgraph"
	"github.com/matzehuels/bigpicture/pkg/pipeline"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// FilterPickerModel - Interactive predicate selection
// =============================================================================

// filterItem is one toggleable filter predicate.
type filterItem struct {
	name    string
	matches int
	field   func(*pipeline.Options) *bool
}

// FilterPickerModel is the bubbletea model for choosing filter predicates
// against a loaded history. The footer previews how many commits the current
// selection keeps.
type FilterPickerModel struct {
	Graph     *commitgraph.Graph
	Options   pipeline.Options
	Cursor    int
	Confirmed bool

	items []filterItem
}

// NewFilterPickerModel starts from the predicates enabled in opts.
func NewFilterPickerModel(g *commitgraph.Graph, opts pipeline.Options) FilterPickerModel {
	return FilterPickerModel{
		Graph:   g,
		Options: opts,
		items: []filterItem{
			{"branches", g.BranchCount(), func(o *pipeline.Options) *bool { return &o.Branches }},
			{"tags", g.TagCount(), func(o *pipeline.Options) *bool { return &o.Tags }},
			{"roots", len(g.Roots()), func(o *pipeline.Options) *bool { return &o.Roots }},
			{"merges", len(g.Merges()), func(o *pipeline.Options) *bool { return &o.Merges }},
			{"bifurcations", len(g.Bifurcations()), func(o *pipeline.Options) *bool { return &o.Bifurcations }},
		},
	}
}

func (m FilterPickerModel) Init() tea.Cmd {
	return nil
}

func (m FilterPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.items)-1 {
			m.Cursor++
		}
	case " ", "x":
		v := m.items[m.Cursor].field(&m.Options)
		*v = !*v
	case "enter":
		m.Confirmed = true
		return m, tea.Quit
	}
	return m, nil
}

// kept counts the commits the current selection keeps, before includes.
func (m FilterPickerModel) kept() int {
	return m.Graph.Interesting(m.Options.FilterOptions(nil)).Cardinality()
}

func (m FilterPickerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Commits To Keep"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ render  q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(m.items))
	for i, it := range m.items {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		check := "[ ]"
		if *it.field(&m.Options) {
			check = "[x]"
		}
		rows[i] = []string{cursor, check, it.name, strconv.Itoa(it.matches)}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Predicate", "Matches").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleTableHeader
			}
			base := lipgloss.NewStyle()
			if col == 3 {
				base = base.Align(lipgloss.Right).Foreground(colorGray)
			}
			if row == m.Cursor {
				return base.Inherit(listSelectedStyle)
			}
			if !*m.items[row].field(&m.Options) {
				return base.Foreground(colorDim)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %s of %s commits kept\n",
		StyleNumber.Render(strconv.Itoa(m.kept())),
		StyleValue.Render(strconv.Itoa(m.Graph.CommitCount()))))
	return b.String()
}

// pickFilters runs the picker on stderr. It reports false when the user quit
// without confirming.
func pickFilters(ctx context.Context, g *commitgraph.Graph, opts pipeline.Options) (pipeline.Options, bool, error) {
	p := tea.NewProgram(NewFilterPickerModel(g, opts), tea.WithContext(ctx), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return opts, false, err
	}
	m, ok := final.(FilterPickerModel)
	if !ok || !m.Confirmed {
		return opts, false, nil
	}
	return m.Options, true, nil
}
