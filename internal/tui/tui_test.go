package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyweaver/internal/generate"
	"storyweaver/internal/story"
	"storyweaver/pkg/types"
)

// echoStub returns the prompt plus a fixed continuation.
type echoStub struct {
	continuation string
}

func (s *echoStub) Generate(ctx context.Context, req generate.Request) (string, error) {
	return req.Prompt + s.continuation, nil
}

func (s *echoStub) Capabilities() generate.Capabilities {
	return generate.Capabilities{Model: "stub", MaxContextTokens: 8192}
}

func (s *echoStub) Close() error { return nil }

// newTestModel builds a ready model over a session with a committed story.
func newTestModel(t *testing.T, continuation string) *Model {
	t.Helper()

	session := story.NewSession(&echoStub{continuation: continuation})
	err := session.RequestGeneration(context.Background(), types.StoryParameters{
		Genre:     "Comedy",
		Tone:      "Humorous",
		Character: "a cat",
		Setting:   "a library",
		WordLimit: "Short (400 - 600 words)",
	})
	require.NoError(t, err)

	m := New(session, "txt")
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// runCmd executes a command tree and returns the collected messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	var msgs []tea.Msg
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, sub := range msg {
			msgs = append(msgs, runCmd(sub)...)
		}
	default:
		msgs = append(msgs, msg)
	}
	return msgs
}

func keyMsg(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// TestModelInitialView tests the ready model shows the committed story.
func TestModelInitialView(t *testing.T) {
	m := newTestModel(t, " The cat knocked over a shelf.")

	assert.Equal(t, ViewStory, m.view)
	view := m.View()
	assert.Contains(t, view, "STORYWEAVER")
	assert.Contains(t, view, "Comedy")
	assert.Contains(t, view, "The cat knocked over a shelf.")
}

// TestToneSelector tests entering and navigating the tone list.
func TestToneSelector(t *testing.T) {
	m := newTestModel(t, " A story.")

	m.Update(keyMsg("t"))
	assert.Equal(t, ViewSelectTone, m.view)
	// Selection starts on the session's current tone.
	assert.Equal(t, "Humorous", types.Tones[m.toneIndex])

	m.Update(keyMsg("j"))
	assert.Equal(t, "Dark", types.Tones[m.toneIndex])

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewStory, m.view)
}

// TestToneRefinementFlow tests refine, preview and keep end to end.
func TestToneRefinementFlow(t *testing.T) {
	m := newTestModel(t, " A darker tale.")

	m.Update(keyMsg("t"))
	m.Update(keyMsg("j"))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, m.generating)

	// Drain the command tree and deliver the completion message.
	var done bool
	for _, msg := range runCmd(cmd) {
		if d, ok := msg.(refinementDoneMsg); ok {
			done = true
			require.NoError(t, d.err)
			m.Update(d)
		}
	}
	require.True(t, done, "refinement must complete")

	assert.False(t, m.generating)
	assert.Equal(t, ViewPreview, m.view)

	candidate, ok := m.session.CandidateStory()
	require.True(t, ok)
	assert.Equal(t, "A darker tale.", candidate)

	m.Update(keyMsg("k"))
	assert.Equal(t, ViewStory, m.view)
	assert.Equal(t, "A darker tale.", m.session.CurrentStory())
	assert.Equal(t, "Dark", m.session.Parameters().Tone)
}

// TestDiscardKeepsStory tests that discarding restores the prior story.
func TestDiscardKeepsStory(t *testing.T) {
	m := newTestModel(t, " Original story.")
	committed := m.session.CurrentStory()

	require.NoError(t, m.session.RequestRefinement(context.Background(), story.ToneRefinement("Dark")))
	m.Update(refinementDoneMsg{})
	assert.Equal(t, ViewPreview, m.view)

	m.Update(keyMsg("d"))
	assert.Equal(t, ViewStory, m.view)
	assert.Equal(t, committed, m.session.CurrentStory())
	assert.Equal(t, "Humorous", m.session.Parameters().Tone)
}

// TestInputRejectedWhileGenerating tests the busy guard on key handling.
func TestInputRejectedWhileGenerating(t *testing.T) {
	m := newTestModel(t, " A story.")
	m.generating = true

	m.Update(keyMsg("t"))
	assert.Equal(t, ViewStory, m.view, "keys are ignored while generating")

	view := m.View()
	assert.Contains(t, view, "Refining story...")
}

// TestHelpView tests entering and leaving help.
func TestHelpView(t *testing.T) {
	m := newTestModel(t, " A story.")

	m.Update(keyMsg("?"))
	assert.Equal(t, ViewHelp, m.view)
	assert.Contains(t, m.View(), "STORYWEAVER - Help")

	m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewStory, m.view)
}

// TestCharacterInputValidation tests that a blank character is rejected
// without leaving the input view.
func TestCharacterInputValidation(t *testing.T) {
	m := newTestModel(t, " A story.")

	m.Update(keyMsg("c"))
	assert.Equal(t, ViewInputCharacter, m.view)

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ViewInputCharacter, m.view)
	assert.Error(t, m.err)
}
