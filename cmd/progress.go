package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/airframesio/data-validator/cmd/reporting"
)

type checkState int

const (
	checkPending checkState = iota
	checkRunning
	checkPassed
	checkFailed
)

type checkRow struct {
	metric   string
	state    checkState
	columns  int
	duration time.Duration
}

type progressModel struct {
	checks    []checkRow
	completed int
	failed    int
	spinner   spinner.Model
	overall   progress.Model
	width     int
	startTime time.Time
	done      bool
	err       error
	cancel    context.CancelFunc
}

type checkStartedMsg struct {
	index int
}

type checkFinishedMsg struct {
	index  int
	result reporting.ValidationResult
}

type runFinishedMsg struct {
	err error
}

var (
	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Margin(0, 2)

	stageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Margin(0, 2)

	tableHeaderStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFAA00")).
				Bold(true).
				Margin(0, 2)

	progressInfoStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#888888")).
				Margin(0, 2)

	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Margin(1, 3)
)

func newProgressModel(metrics []string, cancel context.CancelFunc) progressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	checks := make([]checkRow, len(metrics))
	for i, metric := range metrics {
		checks[i] = checkRow{metric: metric}
	}

	return progressModel{
		checks:    checks,
		spinner:   s,
		overall:   progress.New(progress.WithScaledGradient("#FF7CCB", "#FDFF8C"), progress.WithWidth(60)),
		startTime: time.Now(),
		cancel:    cancel,
	}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.overall.Width = max(10, msg.Width-10)
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case checkStartedMsg:
		if msg.index >= 0 && msg.index < len(m.checks) {
			m.checks[msg.index].state = checkRunning
		}
		return m, nil
	case checkFinishedMsg:
		return m.handleCheckFinishedMsg(msg)
	case runFinishedMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || msg.String() == "q" {
		if m.cancel != nil {
			m.cancel()
		}
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) handleCheckFinishedMsg(msg checkFinishedMsg) (tea.Model, tea.Cmd) {
	if msg.index < 0 || msg.index >= len(m.checks) {
		return m, nil
	}

	row := &m.checks[msg.index]
	row.duration = msg.result.Duration
	row.columns = len(msg.result.Details)
	if msg.result.Passed() {
		row.state = checkPassed
	} else {
		row.state = checkFailed
		m.failed++
	}
	m.completed++
	return m, nil
}

func (m progressModel) renderBanner() []string {
	title := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF7CCB")).Bold(true).Render("DATA VALIDATOR")
	version := lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).Render("v" + Version)
	return []string{bannerStyle.Render(title + "  " + version)}
}

func (m progressModel) renderChecks() []string {
	sections := []string{tableHeaderStyle.Render("   Checks"), ""}
	for _, row := range m.checks {
		var line string
		switch row.state {
		case checkPending:
			line = fmt.Sprintf("   ·  %s", row.metric)
		case checkRunning:
			line = stageStyle.Render(fmt.Sprintf(" %s %s", m.spinner.View(), row.metric))
		case checkPassed:
			line = fmt.Sprintf("   ✅ %s (%v)", row.metric, row.duration.Round(time.Millisecond))
		case checkFailed:
			line = fmt.Sprintf("   ❌ %s - %d columns differ (%v)", row.metric, row.columns, row.duration.Round(time.Millisecond))
		}
		sections = append(sections, line)
	}
	return sections
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}

	var sections []string
	sections = append(sections, m.renderBanner()...)

	total := len(m.checks)
	overallInfo := fmt.Sprintf("   Overall: %d/%d checks, %d failed, %v elapsed",
		m.completed, total, m.failed, time.Since(m.startTime).Round(time.Second))
	sections = append(sections, progressInfoStyle.Render(overallInfo))
	if total > 0 {
		sections = append(sections, "   "+m.overall.ViewAs(float64(m.completed)/float64(total)))
	}
	sections = append(sections, "")

	sections = append(sections, m.renderChecks()...)

	sections = append(sections, "")
	sections = append(sections, helpStyle.Render("   Press Ctrl+C or 'q' to quit"))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// tuiReporter forwards progress events to a running program
type tuiReporter struct {
	program *tea.Program
}

func (r tuiReporter) CheckStarted(index int, _ string) {
	r.program.Send(checkStartedMsg{index: index})
}

func (r tuiReporter) CheckFinished(index int, result reporting.ValidationResult) {
	r.program.Send(checkFinishedMsg{index: index, result: result})
}

// runWithProgress runs the checks behind the progress display. Quitting the
// display cancels the run.
func runWithProgress(ctx context.Context, runner *Runner, wrap func(checkReporter) checkReporter) ([]reporting.ValidationResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	metrics := make([]string, len(runner.config.Checks))
	for i, check := range runner.config.Checks {
		metrics[i] = check.Metric
	}

	// Bubble Tea's signal handler is disabled so the signal context stays in charge
	program := tea.NewProgram(newProgressModel(metrics, cancel), tea.WithoutSignalHandler(), tea.WithAltScreen())

	type outcome struct {
		results []reporting.ValidationResult
		err     error
	}
	finished := make(chan outcome, 1)
	go func() {
		results, err := runner.Run(ctx, wrap(tuiReporter{program: program}))
		finished <- outcome{results: results, err: err}
		program.Send(runFinishedMsg{err: err})
	}()

	if _, err := program.Run(); err != nil {
		cancel()
		<-finished
		return nil, fmt.Errorf("error running progress display: %w", err)
	}

	out := <-finished
	return out.results, out.err
}

// useProgressDisplay reports whether the interactive display should be used
func useProgressDisplay(config *Config) bool {
	if config.Debug || (config.LogFormat != "" && config.LogFormat != "text") {
		return false
	}
	info, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

var _ tea.Model = progressModel{}
