package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/lantern/maze"
	"github.com/brensch/lantern/selfplay"
)

func TestModel_MatchUpdate(t *testing.T) {
	m := initialModel(make(chan MatchUpdate), 3)

	res := selfplay.MatchResult{Rounds: 12, Score: [2]int{4, 1}, Winner: 0, Final: maze.Default.State(0)}
	next, cmd := m.Update(MatchUpdate{Result: res})
	if cmd == nil {
		t.Fatalf("update did not keep listening")
	}
	m = next.(model)
	if m.played != 1 || m.wins[0] != 1 {
		t.Fatalf("played=%d wins=%v", m.played, m.wins)
	}

	next, _ = m.Update(MatchUpdate{Result: selfplay.MatchResult{Winner: -1, Final: maze.Default.State(0)}})
	m = next.(model)
	if m.wins[2] != 1 {
		t.Fatalf("draw not counted: %v", m.wins)
	}

	view := m.View()
	for _, want := range []string{"Matches:    2 / 3", "Blue/Red/Draw: 1 / 0 / 1", "rounds  12", "Press q to quit."} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_Quit(t *testing.T) {
	m := initialModel(make(chan MatchUpdate), 1)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("q did not quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("q returned %T", cmd())
	}
}
