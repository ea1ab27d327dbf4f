// Package tui provides the terminal user interface using Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"storyweaver/internal/export"
	"storyweaver/internal/story"
	"storyweaver/internal/token"
	"storyweaver/internal/tui/styles"
	"storyweaver/pkg/types"
)

// ViewState represents the current view mode.
type ViewState int

const (
	ViewStory ViewState = iota
	ViewSelectTone
	ViewInputCharacter
	ViewInputInstruction
	ViewPreview
	ViewHelp
)

// Model is the main TUI model.
type Model struct {
	session      *story.Session
	exportFormat string
	counter      *token.Counter

	// View state
	view       ViewState
	width      int
	height     int
	ready      bool
	err        error
	statusText string

	// Components
	viewport  viewport.Model
	textinput textinput.Model
	textarea  textarea.Model
	spinner   spinner.Model

	// Tone selector
	toneIndex int

	// State flags
	generating bool
}

// New creates a new TUI model for an existing session. The session must
// already hold a committed story.
func New(session *story.Session, exportFormat string) *Model {
	ti := textinput.New()
	ti.Placeholder = "a retired astronaut"
	ti.CharLimit = 200
	ti.Width = 60

	ta := textarea.New()
	ta.Placeholder = "Describe the change you want..."
	ta.CharLimit = 1000
	ta.SetWidth(70)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	counter, err := token.NewCounter("")
	if err != nil {
		counter = nil
	}

	return &Model{
		session:      session,
		exportFormat: exportFormat,
		counter:      counter,
		textinput:    ti,
		textarea:     ta,
		spinner:      sp,
		view:         ViewStory,
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// refinementDoneMsg reports the outcome of a refinement request.
type refinementDoneMsg struct {
	err error
}

// exportDoneMsg reports the outcome of an export.
type exportDoneMsg struct {
	path string
	err  error
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-7)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 7
		}

		m.textarea.SetWidth(msg.Width - 6)
		m.updateViewport()

	case spinner.TickMsg:
		if m.generating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case refinementDoneMsg:
		m.generating = false
		if msg.err != nil {
			m.err = msg.err
			m.view = ViewStory
		} else {
			m.view = ViewPreview
		}
		m.updateViewport()

	case exportDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.statusText = fmt.Sprintf("Exported to %s", msg.path)
		}
	}

	switch m.view {
	case ViewInputCharacter:
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		cmds = append(cmds, cmd)
	case ViewInputInstruction:
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// handleKeyMsg handles keyboard input.
func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.generating {
		// One request at a time; everything but quit is ignored.
		return m, nil
	}

	switch m.view {
	case ViewStory:
		return m.handleStoryKeys(msg)
	case ViewSelectTone:
		return m.handleToneKeys(msg)
	case ViewInputCharacter:
		return m.handleCharacterKeys(msg)
	case ViewInputInstruction:
		return m.handleInstructionKeys(msg)
	case ViewPreview:
		return m.handlePreviewKeys(msg)
	case ViewHelp:
		if msg.Type == tea.KeyEsc || msg.String() == "q" {
			m.view = ViewStory
			m.updateViewport()
		}
	}

	return m, nil
}

func (m *Model) handleStoryKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "t":
		m.toneIndex = 0
		current := m.session.Parameters().Tone
		for i, t := range types.Tones {
			if t == current {
				m.toneIndex = i
				break
			}
		}
		m.view = ViewSelectTone
		m.updateViewport()
	case "c":
		m.textinput.SetValue("")
		m.textinput.Focus()
		m.view = ViewInputCharacter
	case "i":
		m.textarea.Reset()
		m.textarea.Focus()
		m.view = ViewInputInstruction
	case "e":
		return m, m.exportStory()
	case "?":
		m.view = ViewHelp
		m.updateViewport()
	}
	return m, nil
}

func (m *Model) handleToneKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.view = ViewStory
		m.updateViewport()
	case "up", "k":
		if m.toneIndex > 0 {
			m.toneIndex--
		}
		m.updateViewport()
	case "down", "j":
		if m.toneIndex < len(types.Tones)-1 {
			m.toneIndex++
		}
		m.updateViewport()
	case "enter":
		tone := types.Tones[m.toneIndex]
		return m, m.startRefinement(story.ToneRefinement(tone))
	}
	return m, nil
}

func (m *Model) handleCharacterKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.textinput.Blur()
		m.view = ViewStory
		m.updateViewport()
	case tea.KeyEnter:
		character := strings.TrimSpace(m.textinput.Value())
		if character == "" {
			m.err = fmt.Errorf("character cannot be blank")
			return m, nil
		}
		m.textinput.Blur()
		return m, m.startRefinement(story.CharacterRefinement(character))
	default:
		var cmd tea.Cmd
		m.textinput, cmd = m.textinput.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleInstructionKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.textarea.Blur()
		m.view = ViewStory
		m.updateViewport()
	case tea.KeyCtrlD, tea.KeyEnter:
		if msg.Type == tea.KeyEnter && msg.Alt {
			// Alt+enter inserts a newline in the instruction.
			var cmd tea.Cmd
			m.textarea, cmd = m.textarea.Update(tea.KeyMsg{Type: tea.KeyEnter})
			return m, cmd
		}
		instruction := strings.TrimSpace(m.textarea.Value())
		if instruction == "" {
			m.err = fmt.Errorf("instruction cannot be blank")
			return m, nil
		}
		m.textarea.Blur()
		return m, m.startRefinement(story.CustomRefinement(instruction, ""))
	default:
		var cmd tea.Cmd
		m.textarea, cmd = m.textarea.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "k":
		if err := m.session.CommitCandidate(); err != nil {
			m.err = err
		} else {
			m.statusText = "Candidate kept"
		}
		m.view = ViewStory
		m.updateViewport()
	case "d":
		if err := m.session.DiscardCandidate(); err != nil {
			m.err = err
		} else {
			m.statusText = "Candidate discarded"
		}
		m.view = ViewStory
		m.updateViewport()
	}
	return m, nil
}

// startRefinement kicks off a refinement request in the background.
func (m *Model) startRefinement(ref story.Refinement) tea.Cmd {
	m.generating = true
	m.view = ViewStory
	m.updateViewport()

	request := func() tea.Msg {
		return refinementDoneMsg{err: m.session.RequestRefinement(context.Background(), ref)}
	}
	return tea.Batch(m.spinner.Tick, request)
}

// exportStory writes the committed story to a file in the working directory.
func (m *Model) exportStory() tea.Cmd {
	session := m.session
	format := m.exportFormat
	return func() tea.Msg {
		exp, err := export.ForFormat(format)
		if err != nil {
			return exportDoneMsg{err: err}
		}

		path := export.Filename(session.LastModified(), exp.Extension())
		f, err := os.Create(path)
		if err != nil {
			return exportDoneMsg{err: fmt.Errorf("export failed: %w", err)}
		}
		defer f.Close()

		if err := session.ExportCurrent(f, exp); err != nil {
			os.Remove(path)
			return exportDoneMsg{err: err}
		}
		return exportDoneMsg{path: path}
	}
}

// updateViewport updates the viewport content.
func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var content string
	switch m.view {
	case ViewSelectTone:
		content = m.renderToneSelector()
	case ViewPreview:
		content = m.renderPreview()
	case ViewHelp:
		content = m.renderHelp()
	default:
		content = styles.StoryText.Render(m.session.CurrentStory())
	}

	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

// renderToneSelector renders the inline tone list.
func (m *Model) renderToneSelector() string {
	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Select a new tone"))
	sb.WriteString("\n\n")
	for i, t := range types.Tones {
		if i == m.toneIndex {
			sb.WriteString(styles.SelectedItem.Render("> " + t))
		} else {
			sb.WriteString(styles.ListItem.Render("  " + t))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
	sb.WriteString(styles.MutedText.Render("enter to regenerate, esc to cancel"))
	return sb.String()
}

// renderPreview renders the pending candidate next to instructions.
func (m *Model) renderPreview() string {
	candidate, ok := m.session.CandidateStory()
	if !ok {
		return styles.ErrorText.Render("No candidate to preview")
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render("Candidate story"))
	sb.WriteString("\n\n")
	sb.WriteString(styles.CandidateBorder.Width(styles.Width(m.width)).Render(candidate))
	sb.WriteString("\n\n")
	sb.WriteString(styles.HelpKey.Render("k") + styles.HelpDesc.Render(" keep   "))
	sb.WriteString(styles.HelpKey.Render("d") + styles.HelpDesc.Render(" discard"))
	return sb.String()
}

// renderHelp renders the help view.
func (m *Model) renderHelp() string {
	help := `
STORYWEAVER - Help

Keys:
  t      - Change the tone (regenerates the story)
  c      - Change the main character (regenerates the story)
  i      - Free-form instruction (rewrites the story)
  k / d  - Keep / discard a candidate while previewing
  e      - Export the story
  ?      - Show this help
  q      - Quit

A refinement produces a candidate story for preview. The committed
story only changes when you keep a candidate.

Press esc to return.
`
	return styles.InfoText.Render(help)
}

// View renders the TUI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	var sb strings.Builder

	params := m.session.Parameters()
	header := styles.Header.Render(fmt.Sprintf("STORYWEAVER - %s / %s", params.Genre, params.Tone))
	sb.WriteString(header)
	sb.WriteString("\n")

	sb.WriteString(m.viewport.View())
	sb.WriteString("\n")

	if m.err != nil {
		sb.WriteString(styles.ErrorText.Render("Error: "+m.err.Error()) + "\n")
		m.err = nil
	}

	if m.generating {
		sb.WriteString(m.spinner.View() + " Refining story...\n")
	} else if m.statusText != "" {
		sb.WriteString(styles.StatusBar.Render(m.statusText) + "\n")
		m.statusText = ""
	}

	switch m.view {
	case ViewInputCharacter:
		sb.WriteString(styles.InputPrompt.Render("New character: "))
		sb.WriteString(m.textinput.View())
		sb.WriteString("\n")
	case ViewInputInstruction:
		sb.WriteString(styles.InputPrompt.Render("Instruction:\n"))
		sb.WriteString(m.textarea.View())
		sb.WriteString("\n")
	}

	sb.WriteString(m.statusLine())
	return sb.String()
}

// statusLine renders word and token counts with the key hint.
func (m *Model) statusLine() string {
	current := m.session.CurrentStory()
	words := len(strings.Fields(current))

	tokens := token.Estimate(current)
	if m.counter != nil {
		tokens = m.counter.Count(current)
	}

	counts := styles.TokenCounter.Render(fmt.Sprintf("%d words · %d tokens", words, tokens))
	hint := styles.HelpKey.Render("?") + styles.HelpDesc.Render(" help")

	gap := m.width - lipgloss.Width(counts) - lipgloss.Width(hint)
	if gap < 1 {
		gap = 1
	}
	return counts + strings.Repeat(" ", gap) + hint
}
