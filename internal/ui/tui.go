package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TUIRenderer provides a rich terminal UI using bubbletea.
type TUIRenderer struct {
	mu      sync.Mutex
	cfg     Config
	program *tea.Program
	model   *runModel
	started bool
	done    chan struct{}
}

// NewTUIRenderer creates a TUI renderer.
func NewTUIRenderer(cfg Config) *TUIRenderer {
	model := newRunModel(GetStyles(cfg.NoColor))
	return &TUIRenderer{
		cfg:   cfg,
		model: model,
		done:  make(chan struct{}),
	}
}

// Start implements Renderer.
func (r *TUIRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return nil
	}

	var opts []tea.ProgramOption
	if f, ok := r.cfg.Output.(*os.File); ok {
		opts = append(opts, tea.WithOutput(f))
	}

	r.program = tea.NewProgram(r.model, opts...)
	r.started = true

	go func() {
		defer close(r.done)
		_, _ = r.program.Run()
	}()

	return nil
}

// UpdateProgress implements Renderer.
func (r *TUIRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(progressUpdateMsg(event))
	}
}

// AddError implements Renderer.
func (r *TUIRenderer) AddError(event ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(errorMsg(event))
	}
}

// Complete implements Renderer.
func (r *TUIRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Send(completeMsg(stats))
	}
}

// Stop implements Renderer.
func (r *TUIRenderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.program != nil {
		r.program.Quit()

		// Do not hang on an unresponsive TUI after Ctrl+C.
		select {
		case <-r.done:
		case <-time.After(2 * time.Second):
		}
	}

	return nil
}

// Messages sent from the renderer to the bubbletea program.
type (
	progressUpdateMsg ProgressEvent
	errorMsg          ErrorEvent
	completeMsg       CompletionStats
)

// runModel is the bubbletea model for a run.
type runModel struct {
	styles   Styles
	spinner  spinner.Model
	bar      progress.Model
	stage    Stage
	current  int
	total    int
	message  string
	errors   []ErrorEvent
	stats    CompletionStats
	finished bool
}

func newRunModel(styles Styles) *runModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Progress

	bar := progress.New(progress.WithDefaultGradient())

	return &runModel{
		styles:  styles,
		spinner: sp,
		bar:     bar,
	}
}

// Init implements tea.Model.
func (m *runModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m *runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
		return m, nil

	case progressUpdateMsg:
		m.stage = msg.Stage
		m.current = msg.Current
		m.total = msg.Total
		m.message = msg.Message
		return m, nil

	case errorMsg:
		m.errors = append(m.errors, ErrorEvent(msg))
		return m, nil

	case completeMsg:
		m.stats = CompletionStats(msg)
		m.finished = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *runModel) View() string {
	var b strings.Builder

	b.WriteString(m.styles.Header.Render("Open Australian Legal Embeddings"))
	b.WriteString("\n\n")

	if m.finished {
		if m.stats.UpToDate {
			b.WriteString(m.styles.Success.Render("The embeddings are already up to date."))
		} else {
			b.WriteString(m.styles.Success.Render(fmt.Sprintf(
				"Complete: %d documents, %d fragments embedded, %d records removed in %s",
				m.stats.Documents, m.stats.Fragments, m.stats.Removed,
				m.stats.Duration.Round(100*time.Millisecond))))
		}
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(m.styles.Stage.Render(m.stage.String()))

	if m.message != "" {
		b.WriteString(m.styles.Label.Render(" " + m.message))
	}
	b.WriteString("\n")

	if m.total > 0 {
		ratio := float64(m.current) / float64(m.total)
		b.WriteString(m.bar.ViewAs(ratio))
		b.WriteString(m.styles.Label.Render(fmt.Sprintf(" %d/%d documents", m.current, m.total)))
		b.WriteString("\n")
	}

	for _, e := range m.errors {
		style := m.styles.Error
		prefix := "ERROR"
		if e.IsWarn {
			style = m.styles.Warning
			prefix = "WARN"
		}
		b.WriteString(style.Render(fmt.Sprintf("%s: %v", prefix, e.Err)))
		b.WriteString("\n")
	}

	return b.String()
}
