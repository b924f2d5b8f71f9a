package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cattlelens/internal/logtail"
)

type diagState struct {
	viewport viewport.Model
	checking bool
	health   *healthMsg
	entries  []logtail.Entry
	logErr   error
}

func (m Model) handleDiagnosticsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.CheckHealth) {
		if m.diag.checking || m.svc == nil {
			return m, nil
		}
		m.diag.checking = true
		return m, tea.Batch(healthCmd(m.ctx, m.svc), m.spinner.Tick)
	}

	var cmd tea.Cmd
	m.diag.viewport, cmd = m.diag.viewport.Update(msg)
	return m, cmd
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.diag.logErr = msg.err
	if msg.err == nil {
		m.diag.entries = msg.entries
	}
	atBottom := m.diag.viewport.AtBottom()
	m.updateDiagViewport()
	if atBottom {
		m.diag.viewport.GotoBottom()
	}
}

func (m *Model) updateDiagViewport() {
	styles := m.theme.Styles()
	if m.diag.logErr != nil {
		m.diag.viewport.SetContent(styles.DangerText.Render("read log: " + m.diag.logErr.Error()))
		return
	}
	if len(m.diag.entries) == 0 {
		m.diag.viewport.SetContent(styles.FaintText.Render("no log output yet"))
		return
	}

	lines := make([]string, 0, len(m.diag.entries))
	for _, e := range m.diag.entries {
		lines = append(lines, formatLogEntry(styles, e))
	}
	m.diag.viewport.SetContent(strings.Join(lines, "\n"))
}

func formatLogEntry(styles Styles, e logtail.Entry) string {
	if e.Level == "" {
		return styles.MutedText.Render(e.Message)
	}

	levelStyle := styles.InfoText
	switch e.Level {
	case "WARN":
		levelStyle = styles.WarningText
	case "ERROR":
		levelStyle = styles.DangerText
	case "DEBUG":
		levelStyle = styles.FaintText
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
		b.WriteString(" ")
	}
	b.WriteString(levelStyle.Render(fmt.Sprintf("%-5s", e.Level)))
	b.WriteString(" ")
	b.WriteString(styles.Text.Render(e.Message))
	for _, a := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(a.Key + "=" + a.Value))
	}
	return b.String()
}

func (m Model) renderDiagnostics() string {
	styles := m.theme.Styles()
	width := max(m.width-4, 10)

	var b strings.Builder
	b.WriteString(styles.AccentText.Bold(true).Render("Endpoints"))

	switch {
	case !m.snapshot.HasProbes:
		b.WriteString("\n" + styles.FaintText.Render("waiting for the first connectivity sweep"))
	default:
		for _, p := range m.snapshot.Probes {
			b.WriteString("\n")
			if p.OK() {
				b.WriteString(styles.Badge("success").Render("OK  "))
			} else {
				b.WriteString(styles.Badge("failed").Render("FAIL"))
			}
			b.WriteString(" ")
			b.WriteString(styles.Text.Render(fmt.Sprintf("%-28s", truncateMiddle(p.Endpoint, 28))))
			if p.ResponseTime > 0 {
				b.WriteString(styles.MutedText.Render(fmt.Sprintf(" %6s", p.ResponseTime.Round(time.Millisecond))))
			}
			if p.Error != "" {
				b.WriteString(" ")
				b.WriteString(styles.DangerText.Render(truncate(p.Error, max(width-45, 10))))
			}
		}
	}

	b.WriteString("\n\n")
	if endpoint := m.activeEndpoint(); endpoint != "" {
		b.WriteString(styles.MutedText.Render("Resolved: ") + styles.InfoText.Render(endpoint))
	} else {
		b.WriteString(styles.MutedText.Render("Resolved: ") + styles.WarningText.Render("none (placeholder mode)"))
	}
	if ts := formatTimestamp(m.snapshot.LastUpdated, time.Now()); ts != "" {
		b.WriteString(styles.FaintText.Render("  last sweep " + ts))
	}
	if m.snapshot.ConsecutiveFailures > 0 {
		b.WriteString(styles.WarningText.Render(fmt.Sprintf("  %d failed sweeps", m.snapshot.ConsecutiveFailures)))
	}

	b.WriteString("\n")
	b.WriteString(m.renderHealthLine(styles))

	top := styles.Panel.Width(width).Render(b.String())
	logs := styles.Panel.Width(width).Render(
		styles.AccentText.Bold(true).Render("Log") + "\n" + m.diag.viewport.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left, top, logs)
}

func (m Model) renderHealthLine(styles Styles) string {
	switch {
	case m.diag.checking:
		return m.spinner.View() + " " + styles.MutedText.Render("Checking health...")
	case m.diag.health == nil:
		return styles.FaintText.Render("press r to check health")
	case m.diag.health.err != nil:
		return styles.DangerText.Render("Health: " + m.diag.health.err.Error())
	case m.diag.health.healthy:
		return styles.SuccessText.Render("Health: ok") + styles.MutedText.Render(" "+m.diag.health.endpoint)
	default:
		return styles.DangerText.Render("Health: failing") + styles.MutedText.Render(" "+m.diag.health.endpoint)
	}
}
