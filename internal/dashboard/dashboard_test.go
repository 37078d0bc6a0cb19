package dashboard

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/movieboard/internal/model"
	"github.com/verte-zerg/movieboard/internal/stats"
)

func testDataset() model.Dataset {
	return model.NewDataset([]model.MovieRecord{
		{Name: "Alien", Genre: "Horror", Year: "1979", Score: 8.4, Budget: 11000000},
		{Name: "Rocky II", Genre: "Drama", Year: "1979", Score: 3.5, Budget: 7000000},
		{Name: "Airplane!", Genre: "Comedy", Year: "1980", Score: 3.8, Budget: 3500000},
		{Name: "The Shining", Genre: "Horror", Year: "1980", Score: 8.4, Budget: 19000000},
	})
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newSizedModel(t *testing.T) *Model {
	t.Helper()
	ds := testDataset()
	m := NewModel(ds, stats.DefaultSelection(ds), nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func TestViewShowsTabsAndSelection(t *testing.T) {
	m := newSizedModel(t)
	out := m.View()
	for _, want := range []string{"Movies", "Scores", "Budgets", "year=1979", "Alien", "Rocky II"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in view:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Airplane!") {
		t.Fatalf("unexpected movie from another year:\n%s", out)
	}
}

func TestTabNavigation(t *testing.T) {
	m := newSizedModel(t)
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if m.activeTab != tabScores {
		t.Fatalf("expected scores tab, got %d", m.activeTab)
	}
	if !strings.Contains(m.View(), stats.ScoresTitle) {
		t.Fatalf("expected score chart title")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	m.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if m.activeTab != tabBudgets {
		t.Fatalf("expected wrap to budgets tab, got %d", m.activeTab)
	}
}

func TestControlsApplySelection(t *testing.T) {
	m := newSizedModel(t)
	m.Update(runes("/"))
	if !m.controlsMode {
		t.Fatalf("expected controls mode")
	}
	// next year
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	// clear genres, then select the first one
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(runes("n"))
	m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	// widen the max score by two steps
	m.Update(runes("}"))
	m.Update(runes("}"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if m.controlsMode {
		t.Fatalf("expected controls mode to close")
	}
	want := model.FilterSelection{
		Year:   "1980",
		Genres: []string{"Horror"},
		Score:  model.ScoreRange{Min: 3.0, Max: 4.2},
	}
	if !reflect.DeepEqual(m.Selection(), want) {
		t.Fatalf("unexpected selection: %+v", m.Selection())
	}
	if len(m.view.Table) != 1 || m.view.Table[0].Name != "The Shining" {
		t.Fatalf("unexpected table: %+v", m.view.Table)
	}
}

func TestControlsRejectInvalidScore(t *testing.T) {
	m := newSizedModel(t)
	before := m.Selection()
	m.Update(runes("/"))
	m.controls.minInput.SetValue("abc")
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.controlsMode {
		t.Fatalf("expected controls to stay open")
	}
	if !strings.Contains(m.controls.err, "invalid min score") {
		t.Fatalf("unexpected error: %q", m.controls.err)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.controlsMode || !reflect.DeepEqual(m.Selection(), before) {
		t.Fatalf("expected cancel to keep selection")
	}
}

func TestControlsSelectAllGenres(t *testing.T) {
	m := newSizedModel(t)
	m.Update(runes("/"))
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	m.Update(runes("a"))
	sel, err := m.controls.selection()
	if err != nil {
		t.Fatalf("selection: %v", err)
	}
	if !reflect.DeepEqual(sel.Genres, []string{"Horror", "Drama", "Comedy"}) {
		t.Fatalf("unexpected genres: %v", sel.Genres)
	}
}

func TestStepClampsToBounds(t *testing.T) {
	m := newSizedModel(t)
	m.Update(runes("/"))
	for i := 0; i < 10; i++ {
		m.Update(runes("["))
	}
	if got := m.controls.minInput.Value(); got != "3.5" {
		t.Fatalf("expected min clamped to dataset minimum, got %q", got)
	}
}

func TestEmptySelectionShowsMessages(t *testing.T) {
	ds := testDataset()
	m := NewModel(ds, model.FilterSelection{Year: "1979", Score: model.ScoreRange{Min: 9, Max: 10}}, nil)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	if !strings.Contains(m.View(), stats.EmptyTableMessage) {
		t.Fatalf("expected empty table message")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyRight})
	if !strings.Contains(m.View(), stats.EmptyChartMessage) {
		t.Fatalf("expected empty chart message")
	}
}

func TestTruncateLine(t *testing.T) {
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateLine("abc", 6); got != "abc" {
		t.Fatalf("unexpected truncation: %q", got)
	}
}
