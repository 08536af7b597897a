package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Pipeline stage names shown by the run progress display.
var runStages = []string{"load", "analyze", "snapshot", "render", "diff"}

// stageMsg reports a stage transition from the pipeline goroutine.
type stageMsg struct {
	stage string
	done  bool
	note  string
}

// runDoneMsg ends the program; err carries a pipeline failure.
type runDoneMsg struct{ err error }

var (
	stagePendingStyle = lipgloss.NewStyle().Foreground(colorDim)
	stageActiveStyle  = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	stageDoneStyle    = lipgloss.NewStyle().Foreground(colorGreen)
)

// RunProgressModel is the bubbletea model displaying pipeline stage
// progress during `ludock run`. Stage events arrive on Updates.
type RunProgressModel struct {
	Updates <-chan tea.Msg

	active string
	done   map[string]string // stage -> completion note
	frame  int
	err    error
}

// NewRunProgressModel creates the progress model reading from updates.
func NewRunProgressModel(updates <-chan tea.Msg) RunProgressModel {
	return RunProgressModel{
		Updates: updates,
		done:    make(map[string]string),
	}
}

func (m RunProgressModel) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		return <-m.Updates
	}
}

func (m RunProgressModel) Init() tea.Cmd {
	return m.waitForUpdate()
}

func (m RunProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case stageMsg:
		if msg.done {
			m.done[msg.stage] = msg.note
			if m.active == msg.stage {
				m.active = ""
			}
		} else {
			m.active = msg.stage
		}
		m.frame++
		return m, m.waitForUpdate()
	case runDoneMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m RunProgressModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("ludock run"))
	b.WriteString("\n\n")

	spinnerFrames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	for _, stage := range runStages {
		switch {
		case m.done[stage] != "" || hasKey(m.done, stage):
			line := fmt.Sprintf("%s %s", iconSuccess, stage)
			if note := m.done[stage]; note != "" {
				line += StyleDim.Render("  " + note)
			}
			b.WriteString(stageDoneStyle.Render(line))
		case stage == m.active:
			frame := spinnerFrames[m.frame%len(spinnerFrames)]
			b.WriteString(stageActiveStyle.Render(fmt.Sprintf("%s %s", frame, stage)))
		default:
			b.WriteString(stagePendingStyle.Render(fmt.Sprintf("  %s", stage)))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styleIconError.Render(iconError) + " " + m.err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// Err returns the pipeline failure reported through runDoneMsg, if any.
func (m RunProgressModel) Err() error { return m.err }

func hasKey(m map[string]string, k string) bool {
	_, ok := m[k]
	return ok
}
