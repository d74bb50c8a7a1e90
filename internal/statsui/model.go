// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"typegauge/internal/model"
	"typegauge/internal/stats"
	"typegauge/internal/store"
)

const (
	tabOverview = iota
	tabKeys
)

const plotHeight = 10

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig

	report stats.Report
	errMsg string

	tabs      []string
	activeTab int
	viewport  viewport.Model
	keyTable  table.Model

	width  int
	height int
	ready  bool
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig) *Model {
	return &Model{
		store: st,
		cfg:   cfg,
		tabs:  []string{"Overview", "Keys"},
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	report, err := stats.BuildReport(context.Background(), m.store, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		return nil
	}
	m.report = report
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "tab", "right", "l":
			m.activeTab = (m.activeTab + 1) % len(m.tabs)
			return m, nil
		case "shift+tab", "left", "h":
			m.activeTab = (m.activeTab + len(m.tabs) - 1) % len(m.tabs)
			return m, nil
		}
	}
	var cmd tea.Cmd
	switch m.activeTab {
	case tabOverview:
		m.viewport, cmd = m.viewport.Update(msg)
	case tabKeys:
		m.keyTable, cmd = m.keyTable.Update(msg)
	}
	return m, cmd
}

func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	bodyHeight := m.height - 4
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	m.viewport = viewport.New(m.width, bodyHeight)
	m.viewport.SetContent(m.overviewContent())
	m.keyTable = m.buildKeyTable(bodyHeight)
	m.ready = true
}

func (m *Model) overviewContent() string {
	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, m.report.Sessions); err != nil {
		return err.Error()
	}
	if err := stats.RenderCurvesWithSize(&buf, m.report.Sessions, m.cfg.CurveWindow, m.width, plotHeight); err != nil {
		return err.Error()
	}
	return buf.String()
}

func (m *Model) buildKeyTable(height int) table.Model {
	columns := []table.Column{
		{Title: "Key", Width: 8},
		{Title: "Accuracy", Width: 10},
		{Title: "Avg Delay (ms)", Width: 15},
		{Title: "Correct", Width: 8},
		{Title: "Incorrect", Width: 10},
	}
	aggs := append([]model.KeyAggregate(nil), m.report.KeyAggsWindow...)
	sort.Slice(aggs, func(i, j int) bool {
		ai := keyAccuracy(aggs[i])
		aj := keyAccuracy(aggs[j])
		if ai == aj {
			return aggs[i].Key < aggs[j].Key
		}
		return ai < aj
	})
	rows := make([]table.Row, 0, len(aggs))
	for _, agg := range aggs {
		label := agg.Key
		if label == " " {
			label = "<space>"
		}
		delay := 0.0
		if agg.DelayCount > 0 {
			delay = float64(agg.DelaySumMs) / float64(agg.DelayCount)
		}
		rows = append(rows, table.Row{
			label,
			fmt.Sprintf("%.2f%%", keyAccuracy(agg)*100),
			fmt.Sprintf("%.1f", delay),
			fmt.Sprintf("%d", agg.Correct),
			fmt.Sprintf("%d", agg.Incorrect),
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(height),
		table.WithFocused(true),
	)
	return t
}

func keyAccuracy(agg model.KeyAggregate) float64 {
	total := agg.Correct + agg.Incorrect
	if total == 0 {
		return 1.0
	}
	return float64(agg.Correct) / float64(total)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.errMsg != "" {
		return errorStyle.Render("error: " + m.errMsg)
	}
	if !m.ready {
		return headerStyle.Render("loading...")
	}
	nav := make([]string, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			nav[i] = activeNavStyle.Render(tab)
		} else {
			nav[i] = inactiveNavStyle.Render(tab)
		}
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, nav...)

	var body string
	switch m.activeTab {
	case tabOverview:
		body = m.viewport.View()
	case tabKeys:
		body = m.keyTable.View()
	}
	footer := headerStyle.Render("tab: switch · q: quit")
	return header + "\n" + body + "\n" + footer
}
