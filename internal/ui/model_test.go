package ui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cattlelens/internal/classifier"
	"github.com/five82/cattlelens/internal/history"
	"github.com/five82/cattlelens/internal/prefs"
	"github.com/five82/cattlelens/internal/state"
)

type stubService struct {
	classify    classifier.ClassifyOutcome
	detect      classifier.DetectOutcome
	endpoint    string
	healthy     bool
	resolveErr  error
	classified  []classifier.Image
	detectCalls int
}

func (s *stubService) Resolve(context.Context) (string, error) {
	if s.resolveErr != nil {
		return "", s.resolveErr
	}
	return s.endpoint, nil
}

func (s *stubService) Classify(_ context.Context, img classifier.Image) classifier.ClassifyOutcome {
	s.classified = append(s.classified, img)
	return s.classify
}

func (s *stubService) Detect(context.Context, []byte) classifier.DetectOutcome {
	s.detectCalls++
	return s.detect
}

func (s *stubService) TestConnectivity(context.Context) []classifier.ProbeResult { return nil }

func (s *stubService) CheckHealth(context.Context) bool { return s.healthy }

func (s *stubService) Endpoint() (string, bool) { return s.endpoint, s.endpoint != "" }

type memHistory struct {
	entries []history.Entry
}

func (h *memHistory) Record(_ context.Context, e history.Entry) (history.Entry, error) {
	e.ID = fmt.Sprintf("entry-%d", len(h.entries)+1)
	e.CreatedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h.entries = append(h.entries, e)
	return e, nil
}

func (h *memHistory) Recent(_ context.Context, limit int) ([]history.Entry, error) {
	var out []history.Entry
	for i := len(h.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h.entries[i])
	}
	return out, nil
}

func (h *memHistory) Get(_ context.Context, id string) (history.Entry, error) {
	for _, e := range h.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return history.Entry{}, history.ErrNotFound
}

func (h *memHistory) Prune(context.Context, int) (int64, error) { return 0, nil }

func serverOutcome() classifier.ClassifyOutcome {
	return classifier.ClassifyOutcome{
		Source: classifier.SourceServer,
		Result: classifier.ClassificationResult{
			PredictedBreed:   "Gir",
			ConfidenceScores: map[string]float64{"Gir": 81.5, "Sahiwal": 12, "Red Sindhi": 6.5},
			ModelVersion:     "2.1.0",
			AdditionalInfo:   classifier.InfoFields{{Label: "Body Length", Value: "140 cm"}},
		},
	}
}

func newTestModel(t *testing.T, svc classifier.Service, hist history.Store) Model {
	t.Helper()
	opts := Options{
		Context:   context.Background(),
		Service:   svc,
		Store:     &state.Store{},
		LogPath:   filepath.Join(t.TempDir(), "cattlelens.log"),
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
	}
	if hist != nil {
		opts.History = hist
	}
	m := New(opts)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

// runCmd executes cmd and any batched commands, returning their messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed
		}
	}
	var zero T
	t.Fatalf("no %T in %v", zero, msgs)
	return zero
}

func keyPress(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func submitHomePath(t *testing.T, m Model, path string) (Model, tea.Cmd) {
	t.Helper()
	m.home.input.Focus()
	m.home.input.SetValue(path)
	return update(t, m, keyPress("enter"))
}

func TestModel_SampleOpensResult(t *testing.T) {
	m := newTestModel(t, &stubService{}, nil)

	m, _ = update(t, m, keyPress("2"))
	if m.Current() != ScreenResult {
		t.Fatalf("Current() = %v, want Result", m.Current())
	}
	if m.result.breed != "Gir" || m.result.badge != badgeSample {
		t.Fatalf("result = %q/%q, want Gir/sample", m.result.breed, m.result.badge)
	}
	if v, _ := m.result.details.Get("Chest Width"); v != "48 cm" {
		t.Errorf("Chest Width = %q, want 48 cm", v)
	}
	view := m.View()
	if !strings.Contains(view, "SAMPLE") || !strings.Contains(view, "Rump Angle") {
		t.Errorf("view missing sample content:\n%s", view)
	}

	m, _ = update(t, m, keyPress("esc"))
	if m.Current() != ScreenHome {
		t.Fatalf("Current() after esc = %v, want Home", m.Current())
	}
}

func TestModel_ClassifyServerResult(t *testing.T) {
	svc := &stubService{classify: serverOutcome()}
	hist := &memHistory{}
	m := newTestModel(t, svc, hist)
	path := writeFile(t, "cow.jpg", []byte("jpeg-bytes"))

	m, cmd := submitHomePath(t, m, path)
	if !m.home.classifying {
		t.Fatal("classifying = false after submit, want true")
	}
	if m.home.input.Focused() {
		t.Error("input still focused after submit")
	}

	done := findMsg[classifyDoneMsg](t, runCmd(cmd))
	if len(svc.classified) != 1 || svc.classified[0].Label != "cow.jpg" {
		t.Fatalf("classified = %+v, want one cow.jpg upload", svc.classified)
	}
	if len(hist.entries) != 1 || hist.entries[0].PredictedBreed != "Gir" {
		t.Fatalf("history entries = %+v", hist.entries)
	}

	m, cmd = update(t, m, done)
	if m.home.classifying {
		t.Error("classifying = true after result")
	}
	if m.Current() != ScreenResult {
		t.Fatalf("Current() = %v, want Result", m.Current())
	}
	if m.result.badge != badgeServer || m.result.notice != "" {
		t.Errorf("badge/notice = %q/%q, want server and no notice", m.result.badge, m.result.notice)
	}
	if len(m.result.scores) != 3 || m.result.scores[0].Breed != "Gir" {
		t.Errorf("scores = %+v, want Gir first", m.result.scores)
	}

	histMsg := findMsg[historyMsg](t, runCmd(cmd))
	m, _ = update(t, m, histMsg)
	if len(m.home.recent) != 1 || m.home.recent[0].ImageLabel != "cow.jpg" {
		t.Errorf("recent = %+v", m.home.recent)
	}

	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.LastImageDir != filepath.Dir(path) {
		t.Errorf("LastImageDir = %q, want %q", saved.LastImageDir, filepath.Dir(path))
	}
}

func TestModel_ClassifyFallbackShowsPlaceholder(t *testing.T) {
	outcome := serverOutcome()
	outcome.Source = classifier.SourceSynthesized
	outcome.Err = classifier.ErrNoEndpointAvailable
	m := newTestModel(t, &stubService{classify: outcome}, nil)

	m, cmd := submitHomePath(t, m, writeFile(t, "cow.png", []byte("png")))
	m, _ = update(t, m, findMsg[classifyDoneMsg](t, runCmd(cmd)))

	if m.result.badge != badgePlaceholder {
		t.Errorf("badge = %q, want placeholder", m.result.badge)
	}
	if !strings.Contains(m.result.notice, "no working API endpoint found") {
		t.Errorf("notice = %q, want the failure message", m.result.notice)
	}
	if !strings.Contains(m.View(), "PLACEHOLDER") {
		t.Error("view does not show the placeholder badge")
	}
}

func TestModel_ClassifyMissingFileStaysHome(t *testing.T) {
	svc := &stubService{classify: serverOutcome()}
	m := newTestModel(t, svc, nil)

	m, cmd := submitHomePath(t, m, filepath.Join(t.TempDir(), "missing.jpg"))
	m, _ = update(t, m, findMsg[classifyDoneMsg](t, runCmd(cmd)))

	if m.Current() != ScreenHome {
		t.Fatalf("Current() = %v, want Home", m.Current())
	}
	if !m.home.statusErr || !strings.Contains(m.home.status, "read image") {
		t.Errorf("status = %q (err=%v), want read image error", m.home.status, m.home.statusErr)
	}
	if len(svc.classified) != 0 {
		t.Errorf("Classify called %d times, want 0", len(svc.classified))
	}
}

func TestModel_EmptyPathRejected(t *testing.T) {
	m := newTestModel(t, &stubService{}, nil)

	m, cmd := submitHomePath(t, m, "   ")
	if cmd != nil {
		t.Error("submit with empty path returned a command")
	}
	if m.home.classifying || !m.home.statusErr {
		t.Errorf("classifying=%v statusErr=%v, want false/true", m.home.classifying, m.home.statusErr)
	}
}

func TestModel_FocusedInputSwallowsShortcuts(t *testing.T) {
	m := newTestModel(t, &stubService{}, nil)
	m.home.input.Focus()

	m, _ = update(t, m, keyPress("l"))
	if m.Current() != ScreenHome {
		t.Fatalf("Current() = %v, want Home while typing", m.Current())
	}
	if got := m.home.input.Value(); got != "l" {
		t.Errorf("input value = %q, want l", got)
	}

	m, _ = update(t, m, keyPress("esc"))
	if m.home.input.Focused() {
		t.Error("esc did not blur the input")
	}
}

func TestModel_LiveCaptureIsSingleFlight(t *testing.T) {
	svc := &stubService{detect: classifier.DetectOutcome{
		Payload: json.RawMessage(`{"detections":[{"label":"cattle","breed":"Gir","confidence":0.78}]}`),
	}}
	m := newTestModel(t, svc, nil)
	frame := writeFile(t, "frame.jpg", []byte("frame"))

	m, _ = update(t, m, keyPress("l"))
	if m.Current() != ScreenLive {
		t.Fatalf("Current() = %v, want Live", m.Current())
	}
	m.live.input.SetValue(frame)

	m, first := update(t, m, keyPress("space"))
	if first == nil || !m.live.inFlight {
		t.Fatal("capture did not start")
	}
	m, second := update(t, m, keyPress("space"))
	if second != nil {
		t.Error("second capture started while one was in flight")
	}

	m, _ = update(t, m, findMsg[detectDoneMsg](t, runCmd(first)))
	if svc.detectCalls != 1 {
		t.Errorf("Detect called %d times, want 1", svc.detectCalls)
	}
	if m.live.inFlight || m.live.captures != 1 {
		t.Errorf("inFlight=%v captures=%d, want false/1", m.live.inFlight, m.live.captures)
	}
	if m.live.summary != "1 detection: Gir 78%" || m.live.err != "" {
		t.Errorf("summary=%q err=%q", m.live.summary, m.live.err)
	}
}

func TestModel_LiveCaptureErrors(t *testing.T) {
	svc := &stubService{detect: classifier.DetectOutcome{Err: errors.New("api /detect returned status 503")}}
	m := newTestModel(t, svc, nil)
	m, _ = update(t, m, keyPress("l"))

	m, cmd := update(t, m, keyPress("space"))
	if cmd != nil || m.live.err == "" {
		t.Fatalf("capture without a frame source: cmd=%v err=%q", cmd != nil, m.live.err)
	}

	m.live.input.SetValue(writeFile(t, "frame.jpg", []byte("frame")))
	m, cmd = update(t, m, keyPress("space"))
	m, _ = update(t, m, findMsg[detectDoneMsg](t, runCmd(cmd)))
	if m.live.err != "api /detect returned status 503" || m.live.summary != "" {
		t.Errorf("err=%q summary=%q", m.live.err, m.live.summary)
	}

	m.live.input.SetValue(filepath.Join(t.TempDir(), "gone.jpg"))
	m, cmd = update(t, m, keyPress("space"))
	m, _ = update(t, m, findMsg[detectDoneMsg](t, runCmd(cmd)))
	if !strings.HasPrefix(m.live.err, "Read frame:") {
		t.Errorf("err = %q, want read frame error", m.live.err)
	}
	if svc.detectCalls != 1 {
		t.Errorf("Detect called %d times, want 1", svc.detectCalls)
	}
}

func TestModel_DiagnosticsHealthAndLog(t *testing.T) {
	svc := &stubService{endpoint: "http://127.0.0.1:8001", healthy: true}
	m := newTestModel(t, svc, nil)
	line := `time=2026-01-02T03:04:05.000Z level=WARN msg="health probe failed" endpoint=http://10.0.2.2:8000`
	if err := os.WriteFile(m.logPath, []byte(line+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	m, cmd := update(t, m, keyPress("d"))
	if m.Current() != ScreenDiagnostics {
		t.Fatalf("Current() = %v, want Diagnostics", m.Current())
	}
	m, _ = update(t, m, findMsg[logLinesMsg](t, runCmd(cmd)))
	if len(m.diag.entries) != 1 || m.diag.entries[0].Level != "WARN" {
		t.Fatalf("log entries = %+v", m.diag.entries)
	}

	m, cmd = update(t, m, keyPress("r"))
	if !m.diag.checking {
		t.Fatal("checking = false after r")
	}
	m, _ = update(t, m, findMsg[healthMsg](t, runCmd(cmd)))
	if m.diag.checking || m.diag.health == nil || !m.diag.health.healthy {
		t.Fatalf("health = %+v, checking=%v", m.diag.health, m.diag.checking)
	}
	if m.diag.health.endpoint != "http://127.0.0.1:8001" {
		t.Errorf("endpoint = %q", m.diag.health.endpoint)
	}
	if got := m.store.Snapshot().Endpoint; got != "http://127.0.0.1:8001" {
		t.Errorf("store endpoint = %q, want the resolved endpoint", got)
	}
	if view := m.View(); !strings.Contains(view, "Health: ok") || !strings.Contains(view, "health probe failed") {
		t.Errorf("diagnostics view missing content:\n%s", view)
	}
}

func TestModel_HealthResolveFailure(t *testing.T) {
	svc := &stubService{resolveErr: classifier.ErrNoEndpointAvailable}
	m := newTestModel(t, svc, nil)
	m, _ = update(t, m, keyPress("d"))

	m, cmd := update(t, m, keyPress("r"))
	m, _ = update(t, m, findMsg[healthMsg](t, runCmd(cmd)))
	if m.diag.health == nil || !errors.Is(m.diag.health.err, classifier.ErrNoEndpointAvailable) {
		t.Fatalf("health = %+v, want resolve error", m.diag.health)
	}
}

func TestModel_SnapshotDrivesHeader(t *testing.T) {
	m := newTestModel(t, &stubService{}, nil)
	if !strings.Contains(m.renderHeader(), "Probing endpoints") {
		t.Errorf("header before first sweep = %q", m.renderHeader())
	}

	store := &state.Store{}
	store.Update([]classifier.ProbeResult{
		{Endpoint: "http://127.0.0.1:8001", Status: classifier.ProbeSuccess},
		{Endpoint: "http://10.0.2.2:8000", Status: classifier.ProbeFailed, Error: "connection refused"},
	}, "http://127.0.0.1:8001", nil)

	m, _ = update(t, m, snapshotMsg(store.Snapshot()))
	header := m.renderHeader()
	for _, want := range []string{"ONLINE", "1/2", "127.0.0.1:8001"} {
		if !strings.Contains(header, want) {
			t.Errorf("header %q missing %q", header, want)
		}
	}
}

func TestModel_CycleThemePersists(t *testing.T) {
	m := newTestModel(t, &stubService{}, nil)

	m, _ = update(t, m, keyPress("T"))
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", m.theme.Name)
	}
	saved, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("prefs.Load: %v", err)
	}
	if saved.Theme != "Kanagawa" {
		t.Errorf("saved theme = %q, want Kanagawa", saved.Theme)
	}
}

func TestModel_HelpOverlay(t *testing.T) {
	m := newTestModel(t, &stubService{}, nil)

	m, _ = update(t, m, keyPress("?"))
	if !m.showHelp || !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Fatal("help overlay not shown")
	}
	m, _ = update(t, m, keyPress("d"))
	if m.showHelp {
		t.Error("help still shown after a key press")
	}
	if m.Current() != ScreenHome {
		t.Errorf("key that closed help also navigated to %v", m.Current())
	}
}

func TestModel_OpenHistoryEntry(t *testing.T) {
	hist := &memHistory{entries: []history.Entry{
		{ID: "a", Source: classifier.SourceServer, ImageLabel: "a.jpg", PredictedBreed: "Sahiwal", Scores: map[string]float64{"Sahiwal": 70, "Gir": 30}, CreatedAt: time.Now()},
		{ID: "b", Source: classifier.SourceSynthesized, ImageLabel: "b.jpg", PredictedBreed: "Gir", Error: "offline", CreatedAt: time.Now()},
	}}
	m := newTestModel(t, &stubService{}, hist)
	m, _ = update(t, m, findMsg[historyMsg](t, runCmd(loadHistoryCmd(m.ctx, m.history))))
	if len(m.home.recent) != 2 || m.home.recent[0].ID != "b" {
		t.Fatalf("recent = %+v, want newest first", m.home.recent)
	}

	m, _ = update(t, m, keyPress("j"))
	m, cmd := update(t, m, keyPress("enter"))
	m, _ = update(t, m, findMsg[entryMsg](t, runCmd(cmd)))
	if m.Current() != ScreenResult {
		t.Fatalf("Current() = %v, want Result", m.Current())
	}
	if m.result.title != "a.jpg" || m.result.badge != badgeServer {
		t.Errorf("result = %q/%q, want a.jpg/server", m.result.title, m.result.badge)
	}
	if len(m.result.scores) != 2 || m.result.scores[0].Breed != "Sahiwal" {
		t.Errorf("scores = %+v", m.result.scores)
	}
}

func TestModel_OpenMissingHistoryEntry(t *testing.T) {
	hist := &memHistory{}
	m := newTestModel(t, &stubService{}, hist)
	m, _ = update(t, m, historyMsg{entries: []history.Entry{{ID: "pruned", ImageLabel: "old.jpg"}}})

	m, cmd := update(t, m, keyPress("enter"))
	m, cmd = update(t, m, findMsg[entryMsg](t, runCmd(cmd)))
	if m.Current() != ScreenHome {
		t.Fatalf("Current() = %v, want Home", m.Current())
	}
	if !m.home.statusErr || !strings.Contains(m.home.status, "not found") {
		t.Errorf("status = %q, want not found", m.home.status)
	}

	m, _ = update(t, m, findMsg[historyMsg](t, runCmd(cmd)))
	if len(m.home.recent) != 0 {
		t.Errorf("recent = %+v, want refreshed empty list", m.home.recent)
	}
}
