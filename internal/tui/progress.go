package tui

import (
	"fmt"
	"strings"

	"sheetSum/internal/summary"

	tea "github.com/charmbracelet/bubbletea"
)

type clientStartedMsg struct {
	client string
	files  int
}

type clientFinishedMsg struct {
	outcome summary.Outcome
}

type batchDoneMsg struct {
	report *summary.Report
	err    error
}

// model is the progress view of a running batch.
type model struct {
	total    int
	current  string
	files    int
	finished []summary.Outcome

	report *summary.Report
	err    error
	done   bool
}

func newModel(total int) model {
	return model{total: total}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case clientStartedMsg:
		m.current = msg.client
		m.files = msg.files

	case clientFinishedMsg:
		m.finished = append(m.finished, msg.outcome)
		m.current = ""

	case batchDoneMsg:
		m.report = msg.report
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Building client summaries"))
	b.WriteString("\n\n")

	b.WriteString(progressStyle.Render(fmt.Sprintf("Progress: %d/%d clients", len(m.finished), m.total)))
	b.WriteString("\n\n")

	for _, outcome := range m.finished {
		b.WriteString(renderOutcome(outcome))
	}

	if m.current != "" {
		b.WriteString(activeStyle.Render(fmt.Sprintf("%s (%d files)", m.current, m.files)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: close view"))
	b.WriteString("\n")
	return b.String()
}

// programObserver forwards builder progress to a running program.
type programObserver struct {
	program *tea.Program
}

func (o programObserver) ClientStarted(client string, files int) {
	o.program.Send(clientStartedMsg{client: client, files: files})
}

func (o programObserver) ClientFinished(outcome summary.Outcome) {
	o.program.Send(clientFinishedMsg{outcome: outcome})
}

// RunProgress shows a live progress view while run executes the batch in a
// separate goroutine. total is the number of clients to expect. Closing the
// view does not stop the batch; RunProgress still waits for its report.
func RunProgress(total int, run func(summary.Observer) (*summary.Report, error)) (*summary.Report, error) {
	p := tea.NewProgram(newModel(total))

	result := make(chan batchDoneMsg, 1)
	go func() {
		report, err := run(programObserver{program: p})
		msg := batchDoneMsg{report: report, err: err}
		result <- msg
		p.Send(msg)
	}()

	if _, err := p.Run(); err != nil {
		<-result
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	done := <-result
	return done.report, done.err
}
