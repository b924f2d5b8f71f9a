package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cattlelens/internal/classifier"
	"github.com/five82/cattlelens/internal/history"
	"github.com/five82/cattlelens/internal/samples"
)

// resultState is what the result screen shows. It is filled from a live
// classification, a canned sample or a history entry.
type resultState struct {
	viewport viewport.Model

	title   string
	badge   string
	breed   string
	scores  []classifier.Score
	details classifier.InfoFields
	notice  string
	meta    []classifier.DetailField
}

func (r resultState) showOutcome(label string, outcome classifier.ClassifyOutcome) resultState {
	out := resultState{
		viewport: r.viewport,
		title:    label,
		badge:    badgeFor(outcome.Source),
		breed:    outcome.Result.PredictedBreed,
		scores:   outcome.Result.Ranked(),
		details:  outcome.Result.AdditionalInfo,
	}
	if !outcome.Success() {
		out.notice = "Service unavailable, showing placeholder data: " + outcome.Message()
	}
	if v := outcome.Result.ModelVersion; v != "" {
		out.meta = append(out.meta, classifier.DetailField{Label: "Model", Value: v})
	}
	if t := outcome.Result.ParsedPredictionTime(); !t.IsZero() {
		out.meta = append(out.meta, classifier.DetailField{Label: "Predicted", Value: t.Local().Format(time.DateTime)})
	}
	return out
}

func (r resultState) showSample(s samples.Sample) resultState {
	return resultState{
		viewport: r.viewport,
		title:    s.Title,
		badge:    badgeSample,
		breed:    s.Breed,
		details:  s.Details(),
	}
}

func (r resultState) showEntry(e history.Entry) resultState {
	out := resultState{
		viewport: r.viewport,
		title:    e.ImageLabel,
		badge:    badgeFor(e.Source),
		breed:    e.PredictedBreed,
		scores:   classifier.ClassificationResult{ConfidenceScores: e.Scores}.Ranked(),
	}
	if e.Error != "" {
		out.notice = "Service unavailable, showing placeholder data: " + e.Error
	}
	if e.ModelVersion != "" {
		out.meta = append(out.meta, classifier.DetailField{Label: "Model", Value: e.ModelVersion})
	}
	out.meta = append(out.meta, classifier.DetailField{Label: "Recorded", Value: e.CreatedAt.Local().Format(time.DateTime)})
	return out
}

func (m Model) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.result.viewport, cmd = m.result.viewport.Update(msg)
	return m, cmd
}

func (m *Model) updateResultViewport() {
	m.result.viewport.SetContent(m.renderResultBody())
}

func (m Model) renderResult() string {
	styles := m.theme.Styles()

	title := styles.AccentText.Bold(true).Render(truncateMiddle(m.result.title, max(m.width-20, 10)))
	if m.result.badge != "" {
		title += " " + styles.Badge(m.result.badge).Render(strings.ToUpper(m.result.badge))
	}

	body := styles.Panel.Width(max(m.width-4, 10)).Render(m.result.viewport.View())
	return title + "\n" + body
}

func (m Model) renderResultBody() string {
	styles := m.theme.Styles()
	var b strings.Builder

	if m.result.notice != "" {
		b.WriteString(styles.WarningText.Render(m.result.notice))
		b.WriteString("\n\n")
	}

	b.WriteString(styles.MutedText.Render("Predicted breed"))
	b.WriteString("\n")
	breed := m.result.breed
	if breed == "" {
		breed = "Unknown"
	}
	b.WriteString(styles.SuccessText.Render(breed))
	b.WriteString("\n")

	if len(m.result.scores) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Confidence"))
		nameWidth := 0
		for _, s := range m.result.scores {
			nameWidth = max(nameWidth, len([]rune(s.Breed)))
		}
		barWidth := min(ConfidenceBarWidth, max(m.result.viewport.Width-nameWidth-12, 5))
		for i, s := range m.result.scores {
			barStyle := styles.InfoText
			if i == 0 {
				barStyle = styles.SuccessText
			}
			b.WriteString("\n")
			b.WriteString(styles.Text.Render(fmt.Sprintf("%-*s", nameWidth, s.Breed)))
			b.WriteString("  ")
			b.WriteString(barStyle.Render(confidenceBar(s.Percent, barWidth)))
			b.WriteString(styles.Text.Render(fmt.Sprintf(" %5.1f%%", s.Percent)))
		}
		b.WriteString("\n")
	}

	if rows := append(append(classifier.InfoFields{}, m.result.details...), m.result.meta...); len(rows) > 0 {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("Details"))
		labelWidth := 0
		for _, row := range rows {
			labelWidth = max(labelWidth, len([]rune(row.Label)))
		}
		for _, row := range rows {
			b.WriteString("\n")
			b.WriteString(styles.FaintText.Render(fmt.Sprintf("%-*s", labelWidth, row.Label)))
			b.WriteString("  ")
			b.WriteString(styles.Text.Render(row.Value))
		}
	}

	return b.String()
}
