package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/brensch/lantern/selfplay"
)

type MatchUpdate struct {
	Result selfplay.MatchResult
}

type model struct {
	target    int
	played    int
	wins      [3]int // blue, red, draw
	plies     int64
	nodes     int64
	startTime time.Time
	lastBoard string
	recent    []string
	updates   chan MatchUpdate
}

func initialModel(updates chan MatchUpdate, target int) model {
	return model{
		target:    target,
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates chan MatchUpdate) tea.Cmd {
	return func() tea.Msg {
		return <-updates
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.plies = totalPlies.Load()
		m.nodes = totalNodes.Load()
		return m, tickCmd()
	case MatchUpdate:
		res := msg.Result
		m.played++
		switch res.Winner {
		case 0, 1:
			m.wins[res.Winner]++
		default:
			m.wins[2]++
		}
		m.lastBoard = selfplay.Render(res.Final)
		line := fmt.Sprintf("%s  rounds %3d  blue %3d  red %3d  (%s)",
			res.MatchID.String()[:8], res.Rounds, res.Score[0], res.Score[1], res.Elapsed.Round(time.Millisecond))
		m.recent = append([]string{line}, m.recent...)
		if len(m.recent) > 10 {
			m.recent = m.recent[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	pliesPerSec := float64(m.plies) / duration.Seconds()
	nodesPerSec := float64(m.nodes) / duration.Seconds()
	if duration.Seconds() < 1 {
		pliesPerSec = 0
		nodesPerSec = 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Matches:    %d / %d\n", m.played, m.target)
	fmt.Fprintf(&b, "Blue/Red/Draw: %d / %d / %d\n", m.wins[0], m.wins[1], m.wins[2])
	fmt.Fprintf(&b, "Plies:      %d\n", m.plies)
	fmt.Fprintf(&b, "Nodes:      %d\n", m.nodes)
	fmt.Fprintf(&b, "Duration:   %s\n", duration.Round(time.Second))
	fmt.Fprintf(&b, "Plies/Sec:  %.2f\n", pliesPerSec)
	fmt.Fprintf(&b, "Nodes/Sec:  %.0f\n\n", nodesPerSec)

	if m.lastBoard != "" {
		b.WriteString("Last final position:\n")
		b.WriteString(m.lastBoard)
		b.WriteString("\n")
	}

	b.WriteString("Recent Matches:\n")
	for _, line := range m.recent {
		b.WriteString(line + "\n")
	}

	b.WriteString("\nPress q to quit.\n")
	return b.String()
}
