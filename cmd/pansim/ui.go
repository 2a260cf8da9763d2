package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	gomidi "gitlab.com/gomidi/midi/v2"

	"github.com/panforge/pan"
	"github.com/panforge/pan/layout"
)

// noteHold is how long a simulated strike stays "down" before the
// release is sent. Terminals report key presses but not key releases, so
// the release is synthesized on a timer.
const noteHold = 250 * time.Millisecond

// padKeys assigns qwerty keys to notes in ascending pitch order, home
// row first so the lowest notes sit under the strongest fingers.
var padKeys = []string{
	"a", "s", "d", "f", "g", "h", "j", "k", "l", ";",
	"q", "w", "e", "r", "t", "y", "u", "i", "o", "p",
	"z", "x", "c", "v", "b", "n", "m", ",", ".", "/",
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("36"))
	padStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1).
			Align(lipgloss.Center)
	litStyle = padStyle.
			BorderForeground(lipgloss.Color("220")).
			Foreground(lipgloss.Color("220")).
			Bold(true)
	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

const padRow = 10

type releaseMsg struct {
	idx int
	gen int
}

type model struct {
	player pan.NotePlayer
	notes  []layout.Note
	keyIdx map[string]int
	send   func(gomidi.Message) error

	// lit[i] is a strike generation counter; a release only lands if no
	// newer strike hit the same pad while the timer ran.
	lit      map[int]int
	velocity int
	tone     bool

	// midiErr keeps the first failed forward so it can be shown; later
	// failures would just repeat it.
	midiErr error
}

func (m *model) forward(msg gomidi.Message) {
	if m.send == nil {
		return
	}
	if err := m.send(msg); err != nil && m.midiErr == nil {
		m.midiErr = err
	}
}

func newModel(player pan.NotePlayer, reg *layout.Registry, send func(gomidi.Message) error, tone bool) model {
	notes := reg.Notes()
	if len(notes) > len(padKeys) {
		notes = notes[:len(padKeys)]
	}
	keyIdx := make(map[string]int, len(notes))
	for i := range notes {
		keyIdx[padKeys[i]] = i
	}
	return model{
		player:   player,
		notes:    notes,
		keyIdx:   keyIdx,
		send:     send,
		lit:      make(map[int]int),
		velocity: 100,
		tone:     tone,
	}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case releaseMsg:
		if m.lit[msg.idx] == msg.gen {
			delete(m.lit, msg.idx)
			pitch := m.notes[msg.idx].Pitch
			m.player.NoteOff(pitch)
			m.forward(gomidi.NoteOff(0, uint8(pitch)))
		}
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case " ":
		m.player.AllOff()
		m.lit = make(map[int]int)
		return m, nil
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.velocity = int(key[0]-'0') * 14
		return m, nil
	}

	idx, ok := m.keyIdx[key]
	if !ok {
		return m, nil
	}
	pitch := m.notes[idx].Pitch
	m.player.NoteOn(pitch, m.velocity)
	m.forward(gomidi.NoteOn(0, uint8(pitch), uint8(m.velocity)))
	m.lit[idx]++
	gen := m.lit[idx]
	return m, tea.Tick(noteHold, func(time.Time) tea.Msg {
		return releaseMsg{idx: idx, gen: gen}
	})
}

func (m model) View() string {
	s := titleStyle.Render("pansim") + "\n"
	if m.tone {
		s += warnStyle.Render("no samples found, square-wave fallback") + "\n"
	}
	if m.midiErr != nil {
		s += warnStyle.Render(fmt.Sprintf("midi forward failed: %v", m.midiErr)) + "\n"
	}
	s += "\n"

	for row := 0; row < len(m.notes); row += padRow {
		end := row + padRow
		if end > len(m.notes) {
			end = len(m.notes)
		}
		pads := make([]string, 0, end-row)
		for i := row; i < end; i++ {
			style := padStyle
			if _, down := m.lit[i]; down {
				style = litStyle
			}
			pads = append(pads, style.Render(fmt.Sprintf("%s\n%s", padKeys[i], m.notes[i].Display())))
		}
		s += lipgloss.JoinHorizontal(lipgloss.Top, pads...) + "\n"
	}

	s += "\n" + helpStyle.Render(fmt.Sprintf("velocity %d (1-9)  space: silence  esc: quit", m.velocity))
	return s
}
