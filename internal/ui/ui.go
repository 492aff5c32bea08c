package ui

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	// ErrCancelled is returned when the user backs out of a prompt (esc).
	ErrCancelled = errors.New("selection cancelled")
	// ErrInterrupted is returned when the user interrupts a prompt (ctrl+c).
	ErrInterrupted = errors.New("interrupted")
)

// Prompter asks the user questions. Select returns the index of the chosen option.
type Prompter interface {
	Select(title string, options []string) (int, error)
	Confirm(message string, def bool) (bool, error)
	Input(message string) (string, error)
}

var _ Prompter = (*Terminal)(nil)

// Terminal is the interactive [Prompter] used by the CLI.
type Terminal struct {
	In  *os.File
	Out *os.File
}

// NewTerminal prompts on stdin and stdout.
func NewTerminal() *Terminal {
	return &Terminal{In: os.Stdin, Out: os.Stdout}
}

// Select shows options in a filterable list and returns the chosen index.
func (t *Terminal) Select(title string, options []string) (int, error) {
	if len(options) == 0 {
		return -1, fmt.Errorf("%w: nothing to choose from", ErrCancelled)
	}

	p := tea.NewProgram(newSelectModel(title, options), tea.WithInput(t.In), tea.WithOutput(t.Out))
	final, err := p.Run()
	if err != nil {
		return -1, err
	}

	m, ok := final.(*selectModel)
	if !ok {
		return -1, fmt.Errorf("unexpected model %T", final)
	}
	return m.result()
}

// Confirm asks a yes/no question.
func (t *Terminal) Confirm(message string, def bool) (bool, error) {
	answer := def
	err := survey.AskOne(&survey.Confirm{Message: message, Default: def}, &answer, t.stdio())
	return answer, surveyErr(err)
}

// Input asks for a line of free text.
func (t *Terminal) Input(message string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message}, &answer, t.stdio())
	return answer, surveyErr(err)
}

func (t *Terminal) stdio() survey.AskOpt {
	return survey.WithStdio(t.In, t.Out, t.Out)
}

func surveyErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, terminal.InterruptErr):
		return ErrInterrupted
	case errors.Is(err, io.EOF):
		return ErrCancelled
	default:
		return err
	}
}

// selectModel is the bubbletea model behind [Terminal.Select].
type selectModel struct {
	list   list.Model
	keys   keyMap
	help   help.Model
	chosen int
	err    error
}

func newSelectModel(title string, options []string) *selectModel {
	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	height := len(options) + 6
	if height > 20 {
		height = 20
	}

	l := list.New(optionItems(options), delegate, 60, height)
	l.Title = title
	l.Styles.Title = l.Styles.Title.Background(styles.title.GetForeground())
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)

	return &selectModel{list: l, keys: newKeyMap(), help: help.New(), chosen: -1}
}

func (m *selectModel) Init() tea.Cmd { return nil }

func (m *selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			m.err = ErrInterrupted
			return m, tea.Quit
		}
		if m.list.FilterState() == list.Filtering {
			break
		}
		switch {
		case key.Matches(msg, m.keys.back) && m.list.FilterState() == list.Unfiltered:
			m.err = ErrCancelled
			return m, tea.Quit
		case key.Matches(msg, m.keys.enter):
			if item, ok := m.list.SelectedItem().(optionItem); ok {
				m.chosen = item.index
				return m, tea.Quit
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *selectModel) View() string {
	if m.chosen >= 0 || m.err != nil {
		return ""
	}
	return fmt.Sprintf("%s\n%s\n", m.list.View(), m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m *selectModel) result() (int, error) {
	if m.err != nil {
		return -1, m.err
	}
	if m.chosen < 0 {
		return -1, ErrCancelled
	}
	return m.chosen, nil
}
