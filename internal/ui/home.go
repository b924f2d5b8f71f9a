package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cattlelens/internal/history"
	"github.com/five82/cattlelens/internal/samples"
)

type homeState struct {
	input       textinput.Model
	classifying bool
	status      string
	statusErr   bool

	recent     []history.Entry
	historyErr error
	selected   int
}

func newHomeState(lastDir string) homeState {
	input := textinput.New()
	input.Prompt = "Image: "
	input.Placeholder = "/path/to/cow.jpg"
	input.CharLimit = 4096
	if dir := strings.TrimSpace(lastDir); dir != "" {
		input.SetValue(dir + string(filepath.Separator))
	}
	return homeState{input: input}
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.EditPath):
		m.home.status = ""
		return m, m.home.input.Focus()

	case key.Matches(msg, m.keys.Sample):
		sample, ok := samples.Lookup("cow" + msg.String())
		if !ok {
			return m, nil
		}
		m.result = m.result.showSample(sample)
		m.updateResultViewport()
		m.push(ScreenResult)
		return m, nil

	case key.Matches(msg, m.keys.Live):
		m.push(ScreenLive)
		return m, nil

	case key.Matches(msg, m.keys.Diagnostics):
		m.push(ScreenDiagnostics)
		return m, logTailCmd(m.logPath)

	case key.Matches(msg, m.keys.Up):
		if m.home.selected > 0 {
			m.home.selected--
		}
		return m, nil

	case key.Matches(msg, m.keys.Down):
		if m.home.selected < len(m.home.recent)-1 {
			m.home.selected++
		}
		return m, nil

	case key.Matches(msg, m.keys.Open):
		if len(m.home.recent) == 0 || m.history == nil {
			return m, m.home.input.Focus()
		}
		return m, loadEntryCmd(m.ctx, m.history, m.home.recent[m.home.selected].ID)
	}
	return m, nil
}

func (m Model) handleEntry(msg entryMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.home.status = "Load entry: " + msg.err.Error()
		m.home.statusErr = true
		return m, loadHistoryCmd(m.ctx, m.history)
	}
	m.result = m.result.showEntry(msg.entry)
	m.updateResultViewport()
	m.push(ScreenResult)
	return m, nil
}

func (m Model) handleHomeInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.home.input.Blur()
		return m, nil

	case tea.KeyEnter:
		if m.home.classifying {
			return m, nil
		}
		path := strings.TrimSpace(m.home.input.Value())
		if path == "" {
			m.home.status = "Enter the path of a cattle photo"
			m.home.statusErr = true
			return m, nil
		}
		m.home.input.Blur()
		m.home.classifying = true
		m.home.status = "Classifying " + filepath.Base(path)
		m.home.statusErr = false
		return m, tea.Batch(classifyCmd(m.ctx, m.svc, m.history, path, m.logger), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.home.input, cmd = m.home.input.Update(msg)
	return m, cmd
}

func (m Model) handleClassifyDone(msg classifyDoneMsg) (tea.Model, tea.Cmd) {
	m.home.classifying = false
	if msg.loadErr != nil {
		m.home.status = msg.loadErr.Error()
		m.home.statusErr = true
		return m, nil
	}

	m.home.status = ""
	m.home.statusErr = false
	m.result = m.result.showOutcome(msg.label, msg.outcome)
	m.updateResultViewport()
	m.push(ScreenResult)
	m.rememberImageDir(msg.path)
	return m, loadHistoryCmd(m.ctx, m.history)
}

func (m *Model) handleHistory(msg historyMsg) {
	m.home.historyErr = msg.err
	if msg.err != nil {
		m.logger.Warn("load history failed", "error", msg.err)
		return
	}
	m.home.recent = msg.entries
	if m.home.selected >= len(m.home.recent) {
		m.home.selected = max(len(m.home.recent)-1, 0)
	}
}

func (m Model) renderHome() string {
	styles := m.theme.Styles()
	width := max(m.width-2, 20)

	var b strings.Builder

	// Classify panel
	var classify strings.Builder
	classify.WriteString(styles.AccentText.Bold(true).Render("Classify a photo"))
	classify.WriteString("\n")
	classify.WriteString(m.home.input.View())
	classify.WriteString("\n")
	switch {
	case m.home.classifying:
		classify.WriteString(m.spinner.View() + " " + styles.MutedText.Render(m.home.status))
	case m.home.status != "" && m.home.statusErr:
		classify.WriteString(styles.DangerText.Render(m.home.status))
	case m.home.status != "":
		classify.WriteString(styles.MutedText.Render(m.home.status))
	default:
		classify.WriteString(styles.FaintText.Render("press / to type a path, enter to classify"))
	}
	panel := styles.Panel
	if m.home.input.Focused() {
		panel = styles.FocusPanel
	}
	b.WriteString(panel.Width(width - 2).Render(classify.String()))
	b.WriteString("\n")

	// Samples
	var samplesView strings.Builder
	samplesView.WriteString(styles.AccentText.Bold(true).Render("Samples"))
	for i, s := range samples.All() {
		samplesView.WriteString("\n")
		samplesView.WriteString(styles.WarningText.Render(fmt.Sprintf("%d", i+1)))
		samplesView.WriteString("  ")
		samplesView.WriteString(styles.Text.Render(s.Breed))
		samplesView.WriteString(styles.FaintText.Render(fmt.Sprintf("  score %.1f", s.Score)))
	}
	samplesView.WriteString("\n\n")
	samplesView.WriteString(styles.WarningText.Render("l") + "  " + styles.Text.Render("Live detection"))
	samplesView.WriteString("\n")
	samplesView.WriteString(styles.WarningText.Render("d") + "  " + styles.Text.Render("Diagnostics"))

	recentView := m.renderRecent(styles)

	if m.width < LayoutCompactWidth {
		b.WriteString(styles.Panel.Width(width - 2).Render(samplesView.String()))
		b.WriteString("\n")
		b.WriteString(styles.Panel.Width(width - 2).Render(recentView))
		return b.String()
	}

	left := styles.Panel.Width(30).Render(samplesView.String())
	right := styles.Panel.Width(max(width-36, 20)).Render(recentView)
	b.WriteString(joinHorizontal(left, right))
	return b.String()
}

func (m Model) renderRecent(styles Styles) string {
	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Recent"))

	switch {
	case m.history == nil:
		b.WriteString("\n" + styles.FaintText.Render("history is disabled"))
		return b.String()
	case m.home.historyErr != nil:
		b.WriteString("\n" + styles.DangerText.Render("history unavailable: "+m.home.historyErr.Error()))
		return b.String()
	case len(m.home.recent) == 0:
		b.WriteString("\n" + styles.FaintText.Render("no classifications yet"))
		return b.String()
	}

	for i, e := range m.home.recent {
		badge := badgeFor(e.Source)
		line := fmt.Sprintf("%s  %-12s %s",
			e.CreatedAt.Local().Format("Jan 02 15:04"),
			truncate(e.PredictedBreed, 12),
			truncateMiddle(e.ImageLabel, 28))
		b.WriteString("\n")
		if i == m.home.selected {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Text.Render(line))
		}
		b.WriteString(" ")
		b.WriteString(styles.Badge(badge).Render(strings.ToUpper(badge)))
	}
	return b.String()
}
