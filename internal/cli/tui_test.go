package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/bigpicture/pkg/commitgraph"
	"github.com/matzehuels/bigpicture/pkg/pipeline"
)

func newPicker(t *testing.T) FilterPickerModel {
	t.Helper()
	g, err := commitgraph.FromSnapshot(testSnapshot())
	if err != nil {
		t.Fatalf("FromSnapshot: %v", err)
	}
	return NewFilterPickerModel(g, pipeline.DefaultOptions())
}

func press(m FilterPickerModel, keys ...string) (FilterPickerModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case " ":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var model tea.Model
		model, cmd = m.Update(msg)
		m = model.(FilterPickerModel)
	}
	return m, cmd
}

func TestFilterPickerCounts(t *testing.T) {
	m := newPicker(t)

	want := map[string]int{"branches": 1, "tags": 1, "roots": 1, "merges": 1, "bifurcations": 1}
	for _, it := range m.items {
		if it.matches != want[it.name] {
			t.Errorf("%s matches = %d, want %d", it.name, it.matches, want[it.name])
		}
	}
	if got := m.kept(); got != 2 {
		t.Errorf("kept() = %d, want 2", got)
	}
}

func TestFilterPickerNavigation(t *testing.T) {
	m := newPicker(t)

	m, _ = press(m, "up")
	if m.Cursor != 0 {
		t.Errorf("cursor moved above first item: %d", m.Cursor)
	}
	m, _ = press(m, "down", "j", "j")
	if m.Cursor != 3 {
		t.Errorf("cursor = %d, want 3", m.Cursor)
	}
	m, _ = press(m, "down", "down", "down")
	if m.Cursor != len(m.items)-1 {
		t.Errorf("cursor moved past last item: %d", m.Cursor)
	}
	m, _ = press(m, "k")
	if m.Cursor != len(m.items)-2 {
		t.Errorf("cursor = %d after k, want %d", m.Cursor, len(m.items)-2)
	}
}

func TestFilterPickerToggle(t *testing.T) {
	m := newPicker(t)

	// Cursor on "merges", then toggle it on.
	m, _ = press(m, "down", "down", "down", " ")
	if !m.Options.Merges {
		t.Fatal("merges not enabled")
	}
	if got := m.kept(); got != 3 {
		t.Errorf("kept() = %d with merges, want 3", got)
	}

	// Branches off leaves the tagged root and the merge.
	m, _ = press(m, "up", "up", "up", "x")
	if m.Options.Branches {
		t.Fatal("branches still enabled")
	}
	if got := m.kept(); got != 2 {
		t.Errorf("kept() = %d, want 2", got)
	}
}

func TestFilterPickerConfirmAndQuit(t *testing.T) {
	m, cmd := press(newPicker(t), "enter")
	if !m.Confirmed {
		t.Error("enter should confirm")
	}
	if cmd == nil {
		t.Error("enter should quit")
	}

	for _, key := range []string{"q", "esc"} {
		m, cmd := press(newPicker(t), key)
		if m.Confirmed {
			t.Errorf("%s should not confirm", key)
		}
		if cmd == nil {
			t.Errorf("%s should quit", key)
		}
	}
}

func TestFilterPickerView(t *testing.T) {
	view := newPicker(t).View()
	for _, want := range []string{"branches", "bifurcations", "[x]", "[ ]", "commits kept"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}
