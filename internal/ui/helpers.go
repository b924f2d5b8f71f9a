package ui

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/cattlelens/internal/classifier"
)

// Badge names understood by Styles.Badge.
const (
	badgeServer      = "server"
	badgePlaceholder = "placeholder"
	badgeSample      = "sample"
)

func badgeFor(source classifier.Source) string {
	if source == classifier.SourceServer {
		return badgeServer
	}
	return badgePlaceholder
}

func humanizeDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
}

// truncate truncates a string to max runes with ellipsis.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle truncates a string in the middle, preserving start and end.
func truncateMiddle(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 5 {
		return string(runes[:limit])
	}
	// Keep more of the end (file name) than the start
	endLen := (limit - 3) * 2 / 3
	startLen := limit - 3 - endLen
	return string(runes[:startLen]) + "..." + string(runes[len(runes)-endLen:])
}

func joinHorizontal(blocks ...string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// confidenceBar renders a proportional bar for a 0-100 percentage.
func confidenceBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	pct = math.Max(0, math.Min(100, pct))
	filled := int(math.Round(pct / 100 * float64(width)))
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

type detection struct {
	Label      string  `json:"label"`
	Breed      string  `json:"breed"`
	Confidence float64 `json:"confidence"`
}

// summarizeDetection turns a detect payload into one line. Payloads that do
// not carry a detections array are shown as compact raw JSON.
func summarizeDetection(payload json.RawMessage) string {
	var body struct {
		Detections *[]detection `json:"detections"`
	}
	if err := json.Unmarshal(payload, &body); err != nil || body.Detections == nil {
		return truncate(compactJSON(payload), 200)
	}

	found := *body.Detections
	if len(found) == 0 {
		return "No cattle detected"
	}

	parts := make([]string, 0, len(found))
	for _, d := range found {
		name := d.Breed
		if name == "" {
			name = d.Label
		}
		if name == "" {
			name = "object"
		}
		conf := d.Confidence
		if conf <= 1 {
			conf *= 100
		}
		parts = append(parts, fmt.Sprintf("%s %.0f%%", name, conf))
	}

	noun := "detections"
	if len(found) == 1 {
		noun = "detection"
	}
	return fmt.Sprintf("%d %s: %s", len(found), noun, strings.Join(parts, ", "))
}

func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
