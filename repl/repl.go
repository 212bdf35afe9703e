// Package repl implements the Read-Eval-Print Loop for the interpreter.
//
// It uses the Charm libraries (Bubbletea, Bubbles, Lipgloss) the same way
// the teacher's own REPL did, but deliberately kept thin: no syntax
// highlighting, no LaTeX-escape input method, no command-history file —
// those are the interactive line-editor's job, out of scope here. What
// remains is multiline bracket-balance detection (code literals and vec
// literals can span lines), a scrollback of input/output pairs, and a
// persistent State carried from one evaluation to the next.
package repl

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dr8co/kongur/failure"
	"github.com/dr8co/kongur/parser"
	"github.com/dr8co/kongur/value"
	"github.com/dr8co/kongur/vm"
)

const (
	// Prompt is the default prompt for the REPL.
	Prompt = ">> "

	// ContPrompt is the continuation prompt used while a code or vec
	// literal is still open across lines.
	ContPrompt = ".. "
)

// Options configures REPL presentation.
type Options struct {
	NoColor bool // Disable colored output.
	Debug   bool // Trace every instruction as it executes.
}

// Start initializes and runs the REPL against the given initial state,
// returning once the user quits. m is the Machine that will run every
// line entered; state is usually a freshly Install-ed prelude state, or
// the result of running a file first (the -r flag).
func Start(username string, state *value.State, m *vm.Machine, options Options) {
	p := tea.NewProgram(initialModel(username, state, m, options))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error running program:", err)
	}
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87"))

	historyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#767676"))
)

type evalResultMsg struct {
	output  string
	isError bool
	state   *value.State
	elapsed time.Duration
}

type historyEntry struct {
	input          string
	output         string
	isError        bool
	evaluationTime time.Duration
}

type model struct {
	textInput    textinput.Model
	spinner      spinner.Model
	history      []historyEntry
	state        *value.State
	machine      *vm.Machine
	username     string
	evaluating   bool
	currentInput string
	buffer       string
	multiline    bool
	options      Options
}

func (m model) applyStyle(style lipgloss.Style, text string) string {
	if m.options.NoColor {
		return text
	}
	return style.Render(text)
}

func initialModel(username string, state *value.State, machine *vm.Machine, options Options) model {
	ti := textinput.New()
	ti.Placeholder = "enter a form"
	ti.Focus()
	ti.Width = 80
	ti.Prompt = promptStyle.Render(Prompt)

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))

	return model{
		textInput: ti,
		spinner:   s,
		state:     state,
		machine:   machine,
		username:  username,
		options:   options,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

// isBalanced reports whether every ( and { in input has been closed. The
// REPL uses this, not an EOF-flagged parse error, to decide whether to
// request another line: a vec or code literal can legally span many lines,
// and re-parsing a half-open one on every keystroke would be wasteful.
func isBalanced(input string) bool {
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '{':
			depth++
		case ')', '}':
			depth--
			if depth < 0 {
				return true // a stray closer is a syntax error, not more input
			}
		}
	}
	return depth == 0
}

// evalCmd runs one top-level form against m/state and reports the
// resulting stack's top value, or a failure message. On failure the REPL
// resumes with the last committed state, per spec's error-propagation
// contract.
func evalCmd(input string, state *value.State, m *vm.Machine, debug bool) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		output, nextState, isError := run(input, state, m, debug)

		return evalResultMsg{
			output:  output,
			isError: isError,
			state:   nextState,
			elapsed: time.Since(start),
		}
	}
}

func run(input string, state *value.State, m *vm.Machine, debug bool) (output string, next *value.State, isError bool) {
	instrs, err := parser.Parse(input)
	if err != nil {
		return err.Error(), state, true
	}

	if debug {
		traced := *m
		traced.Trace = func(s *value.State, instr value.Instruction) {
			fmt.Printf("DEBUG: %#v\n", instr)
		}
		m = &traced
	}

	var runErr error
	result := func() (res *value.State) {
		defer failure.Recover(&runErr)
		return m.Run(state, instrs)
	}()
	if runErr != nil {
		return runErr.Error(), state, true
	}

	if top, _, ok := result.Pop(); ok {
		return top.Inspect(), result, false
	}
	return "(stack empty)", result, false
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.evaluating {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case evalResultMsg:
		m.evaluating = false
		m.history = append(m.history, historyEntry{
			input:          m.currentInput,
			output:         msg.output,
			isError:        msg.isError,
			evaluationTime: msg.elapsed,
		})
		m.state = msg.state
		m.currentInput = ""
		return m, nil

	case tea.KeyMsg:
		if m.evaluating && msg.Type != tea.KeyCtrlC {
			return m, m.spinner.Tick
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyCtrlD:
			return m, tea.Quit
		case tea.KeyEnter:
			input := m.textInput.Value()
			if input == "" && !m.multiline {
				return m, nil
			}

			candidate := input
			if m.multiline {
				candidate = m.buffer + "\n" + input
			}

			if !isBalanced(candidate) {
				m.multiline = true
				m.buffer = candidate
				m.textInput.SetValue("")
				return m, nil
			}

			m.evaluating = true
			m.currentInput = candidate
			m.multiline = false
			m.buffer = ""
			m.textInput.SetValue("")
			return m, evalCmd(candidate, m.state, m.machine, m.options.Debug)
		}
	}

	if !m.evaluating {
		m.textInput, cmd = m.textInput.Update(msg)
	}
	if m.evaluating {
		return m, m.spinner.Tick
	}
	return m, cmd
}

func (m model) View() string {
	var s strings.Builder

	s.WriteString(m.applyStyle(titleStyle, " kongur "))
	s.WriteString("\n")
	if m.username != "" {
		s.WriteString(fmt.Sprintf("\nhi %s\n", m.username))
	}
	s.WriteString("\n")

	for _, entry := range m.history {
		for i, line := range strings.Split(entry.input, "\n") {
			if i == 0 {
				s.WriteString(m.applyStyle(promptStyle, Prompt))
			} else {
				s.WriteString(m.applyStyle(promptStyle, ContPrompt))
			}
			s.WriteString(line)
			s.WriteString("\n")
		}

		if entry.isError {
			s.WriteString(m.applyStyle(errorStyle, entry.output))
		} else {
			s.WriteString(m.applyStyle(resultStyle, entry.output))
		}

		if entry.evaluationTime > 10*time.Millisecond {
			s.WriteString(m.applyStyle(historyStyle, fmt.Sprintf(" (%.2fs)", entry.evaluationTime.Seconds())))
		}
		s.WriteString("\n\n")
	}

	if m.evaluating {
		s.WriteString(m.applyStyle(promptStyle, Prompt))
		s.WriteString(m.currentInput)
		s.WriteString("\n")
		s.WriteString(m.spinner.View())
		s.WriteString(" evaluating...\n\n")
	}

	if m.multiline && !m.evaluating {
		s.WriteString(m.applyStyle(historyStyle, "(open form, continue typing)\n"))
	}

	if !m.evaluating {
		if m.multiline {
			m.textInput.Prompt = m.applyStyle(promptStyle, ContPrompt)
		} else {
			m.textInput.Prompt = m.applyStyle(promptStyle, Prompt)
		}
		s.WriteString(m.textInput.View())
		s.WriteString("\n")
	}

	s.WriteString(m.applyStyle(historyStyle, "\nesc or ctrl+c/d to exit"))

	return s.String()
}
