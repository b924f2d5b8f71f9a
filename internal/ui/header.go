package ui

import (
	"fmt"
	"strings"
	"time"
)

// renderHeader renders the status bar with connectivity information.
func (m Model) renderHeader() string {
	// Header uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if !m.snapshot.HasProbes {
		return styles.Header.Width(m.width).Render(
			bg.Render("cattlelens", styles.Logo) + bg.Spaces(2) +
				bg.Render("Probing endpoints...", styles.WarningText.Bold(true)),
		)
	}

	return styles.Header.Width(m.width).Render(m.buildStatusContent(styles, bg))
}

// buildStatusContent builds the status bar content string.
func (m Model) buildStatusContent(styles Styles, bg BgStyle) string {
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("cattlelens", styles.Logo)}

	reachable := m.snapshot.Reachable()
	switch {
	case reachable > 0:
		parts = append(parts, bg.Render("● ONLINE", styles.SuccessText))
	case m.snapshot.IsOffline():
		parts = append(parts, bg.Render("● OFFLINE", styles.DangerText))
	default:
		parts = append(parts, bg.Render("● DEGRADED", styles.WarningText))
	}

	reachStyle := styles.Text
	if reachable == 0 {
		reachStyle = styles.DangerText
	}
	parts = append(parts,
		bg.Render("Endpoints:", styles.MutedText)+bg.Space()+
			bg.Render(fmt.Sprintf("%d/%d", reachable, len(m.snapshot.Probes)), reachStyle),
	)

	if endpoint := m.activeEndpoint(); endpoint != "" {
		limit := 40
		if compact {
			limit = 24
		}
		parts = append(parts,
			bg.Render("API:", styles.MutedText)+bg.Space()+
				bg.Render(truncateMiddle(endpoint, limit), styles.InfoText),
		)
	} else if !compact {
		parts = append(parts, bg.Render("API: placeholder mode", styles.WarningText))
	}

	if ts := formatTimestamp(m.snapshot.LastUpdated, time.Now()); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if m.snapshot.LastError != nil && !compact {
		parts = append(parts,
			bg.Render(classifyConnectionError(m.snapshot.LastError), styles.DangerText.Bold(true)),
		)
	}

	return bg.Join(parts, "  ")
}

// activeEndpoint prefers the endpoint the service resolved itself over the
// one the last sweep recorded.
func (m Model) activeEndpoint() string {
	if m.svc != nil {
		if endpoint, ok := m.svc.Endpoint(); ok {
			return endpoint
		}
	}
	return m.snapshot.Endpoint
}

// formatTimestamp formats the last sweep time with a relative indicator.
func formatTimestamp(at, now time.Time) string {
	if at.IsZero() {
		return ""
	}
	return fmt.Sprintf("%s (%s)", at.Local().Format("15:04:05"), humanizeDuration(now.Sub(at)))
}

// classifyConnectionError returns a short description of the connection error.
func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "REFUSED"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timed out"), strings.Contains(msg, "timeout"):
		return "TIMEOUT"
	case strings.Contains(msg, "endpoint reachable"):
		return "UNREACHABLE"
	default:
		return "ERROR"
	}
}

// renderFooter renders the command hints bar.
func (m Model) renderFooter() string {
	// Command bar uses Surface background
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.Current() {
	case ScreenResult:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ScreenLive:
		capture := "Capture"
		if m.live.inFlight {
			capture = "Detecting"
		}
		commands = []cmd{
			{"/", "Frame"},
			{"space", capture},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ScreenDiagnostics:
		commands = []cmd{
			{"r", "Check health"},
			{"j/k", "Scroll log"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"/", "Path"},
			{"1-3", "Samples"},
			{"l", "Live"},
			{"d", "Diagnostics"},
			{"?", "More"},
		}
	}
	if m.inputFocused() {
		commands = []cmd{
			{"enter", "Submit"},
			{"esc", "Cancel"},
		}
	}

	colon := bg.Render(":", styles.FaintText)
	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	// Theme indicator
	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Footer.Width(m.width).Render(strings.Join(segments, bg.Spaces(2)))
}
