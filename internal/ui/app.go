package ui

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/cattlelens/internal/classifier"
	"github.com/five82/cattlelens/internal/history"
	"github.com/five82/cattlelens/internal/prefs"
	"github.com/five82/cattlelens/internal/state"
)

// Screen identifies a page in the navigation stack.
type Screen int

const (
	ScreenHome Screen = iota
	ScreenResult
	ScreenLive
	ScreenDiagnostics
)

func (s Screen) String() string {
	switch s {
	case ScreenResult:
		return "Result"
	case ScreenLive:
		return "Live"
	case ScreenDiagnostics:
		return "Diagnostics"
	default:
		return "Home"
	}
}

// Options configures the UI.
type Options struct {
	Context   context.Context
	Service   classifier.Service
	Store     *state.Store
	History   history.Store // nil disables the recent list
	LogPath   string
	PollTick  time.Duration
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *slog.Logger
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx       context.Context
	svc       classifier.Service
	store     *state.Store
	history   history.Store
	logPath   string
	prefs     prefs.Prefs
	prefsPath string
	pollTick  time.Duration
	logger    *slog.Logger
	keys      keyMap

	// UI state
	theme    Theme
	stack    []Screen
	width    int
	height   int
	ready    bool
	showHelp bool
	spinner  spinner.Model

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	home   homeState
	result resultState
	live   liveState
	diag   diagState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick <= 0 {
		pollTick = DefaultUIInterval
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return Model{
		ctx:       ctx,
		svc:       opts.Service,
		store:     opts.Store,
		history:   opts.History,
		logPath:   opts.LogPath,
		prefs:     opts.Prefs,
		prefsPath: prefsPath,
		pollTick:  pollTick,
		logger:    logger.With("component", "ui"),
		keys:      DefaultKeyMap(),
		theme:     GetTheme(opts.Prefs.Theme),
		stack:     []Screen{ScreenHome},
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		home:      newHomeState(opts.Prefs.LastImageDir),
		result:    resultState{viewport: viewport.New(0, 0)},
		live:      newLiveState(),
		diag:      diagState{viewport: viewport.New(0, 0)},
	}
}

// Current returns the screen on top of the navigation stack.
func (m Model) Current() Screen {
	return m.stack[len(m.stack)-1]
}

func (m *Model) push(s Screen) {
	if m.Current() != s {
		m.stack = append(m.stack, s)
	}
}

func (m *Model) pop() {
	if len(m.stack) > 1 {
		m.stack = m.stack[:len(m.stack)-1]
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.pollTick),
		loadHistoryCmd(m.ctx, m.history),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		return m, nil

	case classifyDoneMsg:
		return m.handleClassifyDone(msg)

	case historyMsg:
		m.handleHistory(msg)
		return m, nil

	case entryMsg:
		return m.handleEntry(msg)

	case detectDoneMsg:
		m.handleDetectDone(msg)
		return m, nil

	case logLinesMsg:
		m.handleLogLines(msg)
		return m, nil

	case healthMsg:
		m.diag.checking = false
		m.diag.health = &msg
		if msg.endpoint != "" && m.store != nil {
			m.store.SetEndpoint(msg.endpoint)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// Cursor blink and other component messages go to the focused input.
	return m.updateInputs(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderContent() string {
	switch m.Current() {
	case ScreenResult:
		return m.renderResult()
	case ScreenLive:
		return m.renderLive()
	case ScreenDiagnostics:
		return m.renderDiagnostics()
	default:
		return m.renderHome()
	}
}

// contentHeight is the space left between header and footer.
func (m Model) contentHeight() int {
	return max(m.height-2, 1)
}

func (m *Model) resize() {
	h := max(m.contentHeight()-4, 3)
	w := max(m.width-4, 10)
	m.result.viewport.Width = w
	m.result.viewport.Height = h
	m.diag.viewport.Width = w
	m.diag.viewport.Height = max(h/2, 3)
	m.home.input.Width = max(w-20, 20)
	m.live.input.Width = max(w-20, 20)
	m.updateResultViewport()
	m.updateDiagViewport()
}

func (m Model) busy() bool {
	return m.home.classifying || m.live.inFlight || m.diag.checking
}

// inputFocused reports whether keystrokes should go to a text input.
func (m Model) inputFocused() bool {
	switch m.Current() {
	case ScreenHome:
		return m.home.input.Focused()
	case ScreenLive:
		return m.live.input.Focused()
	}
	return false
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}
	if m.inputFocused() {
		return m.handleInputKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.updateResultViewport()
		m.updateDiagViewport()
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.pop()
		return m, nil
	}

	switch m.Current() {
	case ScreenHome:
		return m.handleHomeKey(msg)
	case ScreenResult:
		return m.handleResultKey(msg)
	case ScreenLive:
		return m.handleLiveKey(msg)
	case ScreenDiagnostics:
		return m.handleDiagnosticsKey(msg)
	}
	return m, nil
}

// handleInputKey routes keys while a text input has focus.
func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.Current() {
	case ScreenHome:
		return m.handleHomeInputKey(msg)
	case ScreenLive:
		return m.handleLiveInputKey(msg)
	}
	return m, nil
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case m.home.input.Focused():
		m.home.input, cmd = m.home.input.Update(msg)
	case m.live.input.Focused():
		m.live.input, cmd = m.live.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.Current() == ScreenDiagnostics {
		cmds = append(cmds, logTailCmd(m.logPath))
	}
	cmds = append(cmds, tickCmd(m.pollTick))
	return m, tea.Batch(cmds...)
}

func (m *Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		m.logger.Warn("save prefs failed", "error", err)
	}
}

func (m *Model) rememberImageDir(path string) {
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil || dir == m.prefs.LastImageDir {
		return
	}
	m.prefs.LastImageDir = dir
	m.savePrefs()
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}
