package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"typegauge/internal/envinfo"
	"typegauge/internal/keylog"
	"typegauge/internal/metrics"
	"typegauge/internal/model"
	"typegauge/internal/prompt"
	"typegauge/internal/session"
	statsPkg "typegauge/internal/stats"
	"typegauge/internal/store"
)

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

type tickMsg time.Time

// Model implements the Bubble Tea typing UI. It is the caller that
// drives the session pipeline: each key event is recorded and appended,
// and whichever completion trigger fires first (prompt typed out, time
// budget, user abandon) finalizes the session.
type Model struct {
	config  model.Config
	store   *store.Store
	gen     *prompt.Generator
	words   []string
	weakSet map[rune]struct{}

	width  int
	height int

	recorder    *keylog.Recorder
	sess        *session.Session
	promptRunes []rune
	inputRunes  []rune

	lastMetrics *metrics.Metrics
	allWPM      float64
	allAcc      float64
	allSessions int

	errMsg string
}

// NewModel constructs a typing TUI model and starts the first session.
func NewModel(cfg model.Config, st *store.Store, gen *prompt.Generator, words []string, weakSet map[rune]struct{}) *Model {
	m := &Model{
		config:   cfg,
		store:    st,
		gen:      gen,
		words:    words,
		weakSet:  weakSet,
		recorder: keylog.NewRecorder(nil),
	}
	m.startSession()
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.timeExpired() {
			// Time budget elapsed: the session ends as completed with
			// whatever was typed.
			m.finishSession(session.StatusCompleted)
			m.startSession()
		}
		return m, tick()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			m.finishSession(session.StatusAbandoned)
			return m, tea.Quit
		case tea.KeyEsc:
			m.finishSession(session.StatusAbandoned)
			m.startSession()
			return m, nil
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
			return m, nil
		case tea.KeySpace:
			m.handleRunes([]rune{' '})
			return m, nil
		case tea.KeyRunes:
			m.handleRunes(msg.Runes)
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

func (m *Model) timeExpired() bool {
	if m.config.TimeLimitSecs <= 0 || m.sess == nil {
		return false
	}
	elapsed := time.Now().UnixMilli() - m.sess.Metadata().StartTime
	return elapsed >= int64(m.config.TimeLimitSecs)*1000
}

func (m *Model) handleBackspace() {
	if len(m.inputRunes) == 0 {
		return
	}
	// Backspace stays in the raw log as a navigation event; it carries
	// no expected key and the metrics filter skips it.
	pos := len(m.inputRunes) - 1
	ks, err := m.recorder.Record("Backspace", nil, pos, keylog.ActionKeyDown, m.sess.LastTimestamp())
	if err == nil {
		if aerr := m.sess.Append(ks); aerr != nil {
			m.errMsg = aerr.Error()
			return
		}
	}
	m.inputRunes = m.inputRunes[:pos]
}

func (m *Model) handleRunes(runes []rune) {
	for _, r := range runes {
		if len(m.inputRunes) >= len(m.promptRunes) {
			return
		}
		pos := len(m.inputRunes)
		ks, err := m.recorder.Record(string(r), keylog.ExpectedAt(m.promptRunes, pos), pos, keylog.ActionKeyDown, m.sess.LastTimestamp())
		if err != nil {
			m.errMsg = err.Error()
			return
		}
		if err := m.sess.Append(ks); err != nil {
			m.errMsg = err.Error()
			return
		}
		m.inputRunes = append(m.inputRunes, r)
		if len(m.inputRunes) == len(m.promptRunes) {
			m.finishSession(session.StatusCompleted)
			m.startSession()
			return
		}
	}
}

func (m *Model) startSession() {
	m.inputRunes = nil
	m.promptRunes = []rune(m.generateText())
	m.sess = session.New(string(m.promptRunes), envinfo.Capture())
}

func (m *Model) generateText() string {
	var words []string
	if m.config.FocusWeak && len(m.weakSet) > 0 {
		words = m.gen.GenerateWeighted(m.words, m.config.Words, m.config.CapsPct, m.config.PunctPct, []rune(m.config.PunctSet), m.weakSet, m.config.WeakFactor)
	} else {
		words = m.gen.Generate(m.words, m.config.Words, m.config.CapsPct, m.config.PunctPct, []rune(m.config.PunctSet))
	}
	return strings.Join(words, " ")
}

// finishSession finalizes the in-flight session, assembles the record,
// and hands it to the store. Sessions with no keystrokes are finalized
// but not persisted.
func (m *Model) finishSession(outcome session.Status) {
	if m.sess == nil {
		return
	}
	if err := m.sess.Finalize(string(m.inputRunes), outcome); err != nil {
		m.errMsg = err.Error()
		return
	}
	if m.sess.Len() == 0 {
		return
	}
	data, err := m.sess.Assemble()
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	ctx := context.Background()
	if err := m.store.InsertSession(ctx, data); err != nil {
		logErrf("failed to save session: %v\n", err)
	}
	m.lastMetrics = &data.Metrics
	m.allSessions++
	m.allWPM += (data.Metrics.WPM - m.allWPM) / float64(m.allSessions)
	m.allAcc += (data.Metrics.Accuracy - m.allAcc) / float64(m.allSessions)

	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) loadFooterStats() {
	ctx := context.Background()
	sessions, err := m.store.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastMetrics = &metrics.Metrics{WPM: last.WPM, Accuracy: last.Accuracy, Consistency: last.Consistency}
	for _, s := range sessions {
		m.allWPM += s.WPM
		m.allAcc += s.Accuracy
	}
	m.allSessions = len(sessions)
	m.allWPM /= float64(m.allSessions)
	m.allAcc /= float64(m.allSessions)
}

func (m *Model) refreshWeakSet() {
	ctx := context.Background()
	aggs, err := m.store.GetWeakKeys(ctx, m.config.WeakWindow)
	if err != nil {
		logErrf("failed to load weak keys: %v\n", err)
		return
	}
	m.weakSet = statsPkg.SelectWeakKeys(aggs, m.config.WeakTop)
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.promptRunes) == 0 {
		return ""
	}
	cells := m.buildCells()
	if m.width == 0 || m.height == 0 {
		return renderCells(cells)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapCells(cells, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (m *Model) buildCells() []cell {
	cursor := len(m.inputRunes)
	wordStart, wordEnd := wordBounds(m.promptRunes, cursor)

	cells := make([]cell, 0, len(m.promptRunes))
	for i, target := range m.promptRunes {
		displayed := target
		style := pendingStyle
		switch {
		case i < len(m.inputRunes):
			if m.inputRunes[i] == target {
				style = correctStyle
			} else {
				style = incorrectStyle
				if target == ' ' {
					displayed = '·'
				}
			}
		case i >= wordStart && i < wordEnd && target != ' ':
			style = currentWordStyle
		}
		if i == cursor {
			style = style.Underline(true)
		}
		cells = append(cells, cell{
			rendered: style.Render(string(displayed)),
			width:    cellWidth(displayed),
			isSpace:  target == ' ',
		})
	}
	return cells
}

func (m *Model) renderFooter() string {
	if len(m.promptRunes) == 0 {
		return ""
	}
	progress := int(float64(len(m.inputRunes)) / float64(len(m.promptRunes)) * 100)
	segments := []string{fmt.Sprintf("Progress %d%%", progress)}
	if m.lastMetrics != nil {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %.1f%%", m.lastMetrics.WPM, m.lastMetrics.Accuracy))
	}
	if m.allSessions > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", m.allWPM, m.allAcc))
	}
	if m.errMsg != "" {
		segments = append(segments, m.errMsg)
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
