package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/pmcgill/zvm/storybrowser"
	"github.com/pmcgill/zvm/zmachine"
)

type textUpdateMessage string
type statusBarMessage zmachine.StatusBar
type inputRequestMessage zmachine.InputRequest
type characterRequestMessage zmachine.CharacterRequest
type quitMessage zmachine.Quit
type runtimeErrorMessage zmachine.RuntimeError
type warningMessage zmachine.Warning

type storyState int

const (
	storyRunning storyState = iota
	storyWaitingForInput
	storyWaitingForCharacter
)

// keyToZscii maps special keys to their ZSCII codes (spec section 10.5.2.1
// for the cursor keys, plus the basics).
func keyToZscii(msg tea.KeyMsg) uint8 {
	switch msg.Type {
	case tea.KeyEnter:
		return 13
	case tea.KeyEscape:
		return 27
	case tea.KeyBackspace, tea.KeyDelete:
		return 8
	case tea.KeyUp:
		return 129
	case tea.KeyDown:
		return 130
	case tea.KeyLeft:
		return 131
	case tea.KeyRight:
		return 132
	default:
		return 0
	}
}

type storyModel struct {
	outputChannel <-chan any
	sendChannel   chan<- zmachine.InputResponse
	zMachine      *zmachine.ZMachine
	storyPath     string

	state      storyState
	statusBar  zmachine.StatusBar
	transcript string
	inputBox   textinput.Model
	width      int
	height     int

	statusBarStyle lipgloss.Style
	errorStyle     lipgloss.Style
	runtimeError   string
}

func newStoryModel(zMachine *zmachine.ZMachine, sendChannel chan<- zmachine.InputResponse, outputChannel <-chan any, storyPath string) storyModel {
	inputBox := textinput.New()
	inputBox.Focus()
	inputBox.Prompt = ""

	return storyModel{
		outputChannel:  outputChannel,
		sendChannel:    sendChannel,
		zMachine:       zMachine,
		storyPath:      storyPath,
		inputBox:       inputBox,
		statusBarStyle: lipgloss.NewStyle().Reverse(true),
		errorStyle:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

func (m storyModel) Init() tea.Cmd {
	return tea.Batch(
		waitForInterpreter(m.outputChannel),
		runInterpreter(m.zMachine),
		tea.Sequence(
			tea.SetWindowTitle(m.storyPath),
			tea.WindowSize(),
		),
	)
}

func runInterpreter(z *zmachine.ZMachine) tea.Cmd {
	return func() tea.Msg {
		z.Run()
		return nil
	}
}

func waitForInterpreter(sub <-chan any) tea.Cmd {
	return func() tea.Msg {
		switch msg := (<-sub).(type) {
		case string:
			return textUpdateMessage(msg)
		case zmachine.StatusBar:
			return statusBarMessage(msg)
		case zmachine.InputRequest:
			return inputRequestMessage(msg)
		case zmachine.CharacterRequest:
			return characterRequestMessage(msg)
		case zmachine.Quit:
			return quitMessage(msg)
		case zmachine.RuntimeError:
			return runtimeErrorMessage(msg)
		case zmachine.Warning:
			return warningMessage(msg)
		default:
			return runtimeErrorMessage("invalid message type sent from interpreter")
		}
	}
}

func (m storyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case storyWaitingForCharacter:
			m.state = storyRunning
			if len(msg.Runes) > 0 {
				m.sendChannel <- zmachine.InputResponse{Text: string(msg.Runes[0])}
			} else {
				m.sendChannel <- zmachine.InputResponse{TerminatingKey: keyToZscii(msg)}
			}
		case storyWaitingForInput:
			if msg.Type == tea.KeyEnter {
				m.state = storyRunning
				m.transcript += m.inputBox.Value() + "\n"
				m.sendChannel <- zmachine.InputResponse{Text: m.inputBox.Value(), TerminatingKey: 13}
				m.inputBox.SetValue("")
			}
		}

	case textUpdateMessage:
		m.transcript += string(msg)
		return m, waitForInterpreter(m.outputChannel)

	case statusBarMessage:
		m.statusBar = zmachine.StatusBar(msg)
		return m, waitForInterpreter(m.outputChannel)

	case inputRequestMessage:
		m.state = storyWaitingForInput
		m.inputBox.CharLimit = int(msg.MaxChars)
		return m, waitForInterpreter(m.outputChannel)

	case characterRequestMessage:
		m.state = storyWaitingForCharacter
		return m, waitForInterpreter(m.outputChannel)

	case quitMessage:
		return m, tea.Quit

	case runtimeErrorMessage:
		m.runtimeError = string(msg)
		return m, tea.Quit

	case warningMessage:
		fmt.Fprintf(os.Stderr, "%s\n", msg)
		return m, waitForInterpreter(m.outputChannel)
	}

	if m.state == storyWaitingForInput {
		m.inputBox, cmd = m.inputBox.Update(msg)
	}

	return m, cmd
}

func statusLine(width int, bar zmachine.StatusBar) string {
	rightHandSide := fmt.Sprintf("Score: %d    Moves: %d", bar.Score, bar.Moves)
	if bar.IsTimeBased {
		rightHandSide = fmt.Sprintf("Time: %d:%02d", bar.Score, bar.Moves)
	}

	if len(rightHandSide) >= width {
		return rightHandSide[:width]
	}
	placeName := bar.PlaceName
	if len(placeName)+len(rightHandSide)+1 >= width {
		placeName = placeName[:width-len(rightHandSide)-1]
	}

	return placeName + strings.Repeat(" ", width-len(placeName)-len(rightHandSide)) + rightHandSide
}

func (m storyModel) View() string {
	if m.runtimeError != "" {
		return fmt.Sprintf("\n%s\n\n%s\n", m.errorStyle.Render("Z-Machine Error:"), m.runtimeError)
	}

	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	s := strings.Builder{}
	transcriptHeight := m.height - 2

	if m.statusBar.PlaceName != "" || m.statusBar.Score != 0 || m.statusBar.Moves != 0 {
		s.WriteString(m.statusBarStyle.Render(statusLine(m.width, m.statusBar)))
		s.WriteString("\n")
		transcriptHeight--
	}

	lines := strings.Split(wordwrap.String(m.transcript, m.width), "\n")
	if len(lines) > transcriptHeight {
		lines = lines[len(lines)-transcriptHeight:]
	}
	s.WriteString(strings.Join(lines, "\n"))

	if m.state == storyWaitingForInput {
		s.WriteString(m.inputBox.View())
	}

	return s.String()
}

func main() {
	flag.Parse()

	storyPath := flag.Arg(0)
	if storyPath == "" {
		selected, err := storybrowser.Select()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if selected == "" {
			return // Browser dismissed without a choice
		}
		storyPath = selected
	}

	romBytes, err := os.ReadFile(storyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	outputChannel := make(chan any)
	inputChannel := make(chan zmachine.InputResponse)
	zMachine, err := zmachine.LoadRom(romBytes, inputChannel, outputChannel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", storyPath, err)
		os.Exit(1)
	}

	tui := tea.NewProgram(newStoryModel(zMachine, inputChannel, outputChannel, storyPath))

	finalModel, err := tui.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}

	if m, ok := finalModel.(storyModel); ok && m.runtimeError != "" {
		fmt.Fprintf(os.Stderr, "%s\n", m.runtimeError)
		os.Exit(1)
	}
}
