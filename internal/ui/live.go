package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// liveState drives the live detection screen. A frame source is a file that
// an external capture tool keeps overwriting; each capture sends its current
// contents to /detect.
type liveState struct {
	input    textinput.Model
	inFlight bool
	captures int
	summary  string
	err      string
	lastAt   time.Time
}

func newLiveState() liveState {
	input := textinput.New()
	input.Prompt = "Frame: "
	input.Placeholder = "/tmp/frame.jpg"
	input.CharLimit = 4096
	return liveState{input: input}
}

func (m Model) handleLiveKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.EditPath):
		return m, m.live.input.Focus()

	case key.Matches(msg, m.keys.Capture):
		// One request at a time; the trigger is disabled until it resolves.
		if m.live.inFlight {
			return m, nil
		}
		path := strings.TrimSpace(m.live.input.Value())
		if path == "" {
			m.live.err = "Set a frame source first (press /)"
			return m, nil
		}
		m.live.inFlight = true
		m.live.err = ""
		return m, tea.Batch(detectCmd(m.ctx, m.svc, path), m.spinner.Tick)
	}
	return m, nil
}

func (m Model) handleLiveInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.live.input.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.live.input, cmd = m.live.input.Update(msg)
	return m, cmd
}

func (m *Model) handleDetectDone(msg detectDoneMsg) {
	m.live.inFlight = false
	m.live.captures++
	m.live.lastAt = msg.at

	switch {
	case msg.readErr != nil:
		m.live.err = "Read frame: " + msg.readErr.Error()
		m.live.summary = ""
	case !msg.outcome.Success():
		m.live.err = msg.outcome.Message()
		if m.live.err == "" {
			m.live.err = "empty detection response"
		}
		m.live.summary = ""
	default:
		m.live.err = ""
		m.live.summary = summarizeDetection(msg.outcome.Payload)
	}
}

func (m Model) renderLive() string {
	styles := m.theme.Styles()
	width := max(m.width-4, 10)

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Live detection"))
	b.WriteString("\n")
	b.WriteString(m.live.input.View())
	b.WriteString("\n\n")

	switch {
	case m.live.inFlight:
		b.WriteString(m.spinner.View() + " " + styles.Badge("pending").Render("DETECTING"))
	case m.live.captures == 0:
		b.WriteString(styles.FaintText.Render("press space to capture a frame"))
	default:
		b.WriteString(styles.MutedText.Render(fmt.Sprintf("Capture #%d at %s", m.live.captures, m.live.lastAt.Local().Format("15:04:05"))))
	}

	if m.live.summary != "" {
		b.WriteString("\n")
		b.WriteString(styles.SuccessText.Render(m.live.summary))
	}
	if m.live.err != "" {
		b.WriteString("\n")
		b.WriteString(styles.DangerText.Render(truncate(m.live.err, width)))
	}

	panel := styles.Panel
	if m.live.input.Focused() {
		panel = styles.FocusPanel
	}
	return panel.Width(width).Render(b.String())
}
