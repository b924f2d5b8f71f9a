package ui

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cattlelens/internal/classifier"
	"github.com/five82/cattlelens/internal/history"
	"github.com/five82/cattlelens/internal/logtail"
	"github.com/five82/cattlelens/internal/state"
)

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type classifyDoneMsg struct {
	path    string
	label   string
	outcome classifier.ClassifyOutcome
	loadErr error
}

type historyMsg struct {
	entries []history.Entry
	err     error
}

type entryMsg struct {
	entry history.Entry
	err   error
}

type detectDoneMsg struct {
	outcome classifier.DetectOutcome
	readErr error
	at      time.Time
}

type logLinesMsg struct {
	entries []logtail.Entry
	err     error
}

type healthMsg struct {
	endpoint string
	healthy  bool
	err      error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

// classifyCmd loads the image, classifies it and records the outcome.
func classifyCmd(ctx context.Context, svc classifier.Service, hist history.Store, path string, logger *slog.Logger) tea.Cmd {
	return func() tea.Msg {
		path = strings.TrimSpace(path)
		img, err := classifier.LoadImage(path)
		if err != nil {
			return classifyDoneMsg{path: path, loadErr: err}
		}
		outcome := svc.Classify(ctx, img)
		if hist != nil {
			writeCtx, cancel := context.WithTimeout(ctx, HistoryWriteTimeout)
			defer cancel()
			if _, err := hist.Record(writeCtx, history.FromOutcome(img.Label, outcome)); err != nil {
				logger.Warn("record history failed", "error", err)
			}
		}
		return classifyDoneMsg{path: path, label: img.Label, outcome: outcome}
	}
}

func loadHistoryCmd(ctx context.Context, hist history.Store) tea.Cmd {
	if hist == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := hist.Recent(ctx, RecentHistoryLimit)
		return historyMsg{entries: entries, err: err}
	}
}

func loadEntryCmd(ctx context.Context, hist history.Store, id string) tea.Cmd {
	return func() tea.Msg {
		entry, err := hist.Get(ctx, id)
		return entryMsg{entry: entry, err: err}
	}
}

// detectCmd re-reads the frame file so each capture sends the current image.
func detectCmd(ctx context.Context, svc classifier.Service, framePath string) tea.Cmd {
	return func() tea.Msg {
		frame, err := os.ReadFile(strings.TrimSpace(framePath))
		if err != nil {
			return detectDoneMsg{readErr: err, at: time.Now()}
		}
		return detectDoneMsg{outcome: svc.Detect(ctx, frame), at: time.Now()}
	}
}

func logTailCmd(path string) tea.Cmd {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	return func() tea.Msg {
		lines, err := logtail.Read(path, LogTailLines)
		if err != nil {
			return logLinesMsg{err: err}
		}
		return logLinesMsg{entries: logtail.ParseLines(lines)}
	}
}

func healthCmd(ctx context.Context, svc classifier.Service) tea.Cmd {
	return func() tea.Msg {
		endpoint, err := svc.Resolve(ctx)
		if err != nil {
			return healthMsg{err: err}
		}
		return healthMsg{endpoint: endpoint, healthy: svc.CheckHealth(ctx)}
	}
}
