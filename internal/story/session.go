// Package story holds the session state machine that governs how a story
// version is generated, previewed and committed.
package story

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"storyweaver/internal/cleaner"
	"storyweaver/internal/export"
	"storyweaver/internal/generate"
	"storyweaver/internal/prompt"
	"storyweaver/pkg/types"
)

// State is the session's position in the generation lifecycle.
type State int

const (
	// StateIdle means no story has been generated yet.
	StateIdle State = iota

	// StateGenerating means a provider call is in flight.
	StateGenerating

	// StateHasStory means a story is committed and no candidate is pending.
	StateHasStory

	// StatePreviewingCandidate means a refinement result awaits commit
	// or discard.
	StatePreviewingCandidate
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateGenerating:
		return "generating"
	case StateHasStory:
		return "has story"
	case StatePreviewingCandidate:
		return "previewing candidate"
	default:
		return "unknown"
	}
}

// RefinementKind selects which parameter a refinement changes.
type RefinementKind int

const (
	// ToneChange regenerates the story with a new tone.
	ToneChange RefinementKind = iota

	// CharacterChange regenerates the story with a new main character.
	CharacterChange

	// CustomChange rewrites a base story per a free-form instruction.
	CustomChange
)

// Refinement describes one requested change to the committed story.
type Refinement struct {
	Kind        RefinementKind
	Tone        string
	Character   string
	Instruction string

	// BaseStory is the text a CustomChange rewrites. Blank means the
	// committed story.
	BaseStory string
}

// ToneRefinement requests a tone change.
func ToneRefinement(tone string) Refinement {
	return Refinement{Kind: ToneChange, Tone: tone}
}

// CharacterRefinement requests a main-character change.
func CharacterRefinement(character string) Refinement {
	return Refinement{Kind: CharacterChange, Character: character}
}

// CustomRefinement requests a free-form rewrite of baseStory.
func CustomRefinement(instruction, baseStory string) Refinement {
	return Refinement{Kind: CustomChange, Instruction: instruction, BaseStory: baseStory}
}

// Session is one user's story document. Each session owns its state
// independently; the mutex serializes the single permitted mutator with
// concurrent readers from the presentation layer.
type Session struct {
	mu sync.Mutex

	state        State
	currentStory string
	candidate    string
	hasCandidate bool

	// pending is the refinement whose result the candidate holds. Applied
	// to the active parameters only on commit.
	pending Refinement

	params       types.StoryParameters
	lastModified time.Time

	provider generate.Provider
	timeout  time.Duration
	logger   *log.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithTimeout bounds each provider call. Zero or negative disables the bound.
func WithTimeout(timeout time.Duration) SessionOption {
	return func(s *Session) {
		s.timeout = timeout
	}
}

// WithLogger sets the logger used for session diagnostics.
func WithLogger(logger *log.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates an empty session backed by the given provider.
func NewSession(provider generate.Provider, opts ...SessionOption) *Session {
	s := &Session{
		state:    StateIdle,
		provider: provider,
		timeout:  45 * time.Second,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RequestGeneration generates a fresh story from params, replacing any
// committed story on success. Valid from the idle and has-story states
// only; a pending candidate must be committed or discarded first. Blank
// character or setting is rejected before any provider call.
func (s *Session) RequestGeneration(ctx context.Context, params types.StoryParameters) error {
	if missing := params.Validate(); len(missing) > 0 {
		return &ValidationError{Missing: missing}
	}

	p, err := prompt.BuildPrompt(params)
	if err != nil {
		return err
	}
	maxTokens, err := prompt.MaxTokens(params.WordLimit)
	if err != nil {
		return err
	}

	s.mu.Lock()
	switch s.state {
	case StateGenerating:
		s.mu.Unlock()
		return ErrBusy
	case StatePreviewingCandidate:
		s.mu.Unlock()
		return ErrCandidatePending
	}
	prior := s.state
	s.state = StateGenerating
	s.mu.Unlock()

	cleaned, genErr := s.invoke(ctx, p, maxTokens)

	s.mu.Lock()
	defer s.mu.Unlock()
	if genErr != nil {
		s.state = prior
		return genErr
	}

	s.currentStory = cleaned
	s.candidate = ""
	s.hasCandidate = false
	s.params = params
	s.lastModified = time.Now()
	s.state = StateHasStory
	s.logger.Info("story generated", "genre", params.Genre, "tone", params.Tone, "bytes", len(cleaned))
	return nil
}

// RequestRefinement generates a candidate story applying the refinement to
// the committed story. Valid from the has-story and previewing states; a
// pending candidate is silently overwritten by the new result.
func (s *Session) RequestRefinement(ctx context.Context, ref Refinement) error {
	s.mu.Lock()
	if s.state == StateGenerating {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.state != StateHasStory && s.state != StatePreviewingCandidate {
		s.mu.Unlock()
		return ErrNoStory
	}
	params := s.params
	base := s.currentStory
	s.mu.Unlock()

	// Tone and character changes regenerate from scratch with the changed
	// field substituted; only a free-form instruction rewrites the existing
	// text.
	var p string
	var err error
	switch ref.Kind {
	case ToneChange:
		regen := params
		regen.Tone = ref.Tone
		p, err = prompt.BuildPrompt(regen)
	case CharacterChange:
		regen := params
		regen.Character = ref.Character
		p, err = prompt.BuildPrompt(regen)
	case CustomChange:
		if ref.BaseStory != "" {
			base = ref.BaseStory
		}
		p, err = prompt.BuildRefinementPrompt(params, base, ref.Instruction)
	}
	if err != nil {
		return err
	}
	maxTokens, err := prompt.MaxTokens(params.WordLimit)
	if err != nil {
		return err
	}

	prior, err := s.begin()
	if err != nil {
		return err
	}

	cleaned, genErr := s.invoke(ctx, p, maxTokens)

	s.mu.Lock()
	defer s.mu.Unlock()
	if genErr != nil {
		s.state = prior
		return genErr
	}

	s.candidate = cleaned
	s.hasCandidate = true
	s.pending = ref
	s.state = StatePreviewingCandidate
	s.logger.Info("candidate generated", "kind", int(ref.Kind), "bytes", len(cleaned))
	return nil
}

// CommitCandidate promotes the pending candidate into the committed story
// and applies the refinement's parameter change.
func (s *Session) CommitCandidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateGenerating {
		return ErrBusy
	}
	if !s.hasCandidate {
		return ErrNoCandidate
	}

	s.currentStory = s.candidate
	switch s.pending.Kind {
	case ToneChange:
		s.params.Tone = s.pending.Tone
	case CharacterChange:
		s.params.Character = s.pending.Character
	case CustomChange:
		s.params.LastCustomChange = s.pending.Instruction
	}
	s.candidate = ""
	s.hasCandidate = false
	s.lastModified = time.Now()
	s.state = StateHasStory
	return nil
}

// DiscardCandidate drops the pending candidate, keeping the committed story.
func (s *Session) DiscardCandidate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateGenerating {
		return ErrBusy
	}
	if !s.hasCandidate {
		return ErrNoCandidate
	}

	s.candidate = ""
	s.hasCandidate = false
	s.state = StateHasStory
	return nil
}

// CurrentStory returns the committed story text, empty before the first
// successful generation.
func (s *Session) CurrentStory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentStory
}

// CandidateStory returns the pending candidate, if any.
func (s *Session) CandidateStory() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.candidate, s.hasCandidate
}

// Parameters returns the active parameter set.
func (s *Session) Parameters() types.StoryParameters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

// State returns the session's current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LastModified returns when the committed story last changed.
func (s *Session) LastModified() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastModified
}

// ExportCurrent renders the committed story to w. An export failure never
// affects the committed story.
func (s *Session) ExportCurrent(w io.Writer, exp export.Exporter) error {
	s.mu.Lock()
	doc := export.Document{
		Story:       s.currentStory,
		Genre:       s.params.Genre,
		Tone:        s.params.Tone,
		GeneratedAt: s.lastModified,
	}
	s.mu.Unlock()

	if doc.Story == "" {
		return ErrNoStory
	}
	if err := exp.Export(w, doc); err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	return nil
}

// begin transitions into the generating state, rejecting concurrent
// requests. It returns the prior state for restoration on failure.
func (s *Session) begin() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateGenerating {
		return 0, ErrBusy
	}
	prior := s.state
	s.state = StateGenerating
	return prior, nil
}

// invoke runs one provider call outside the lock and cleans the result.
func (s *Session) invoke(ctx context.Context, promptText string, maxTokens int) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	raw, err := s.provider.Generate(ctx, generate.Request{
		Prompt:       promptText,
		MaxNewTokens: maxTokens,
	})
	if err != nil {
		reason := ReasonProviderError
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			reason = ReasonTimeout
		case errors.Is(err, generate.ErrEmptyCompletion):
			reason = ReasonEmptyCompletion
		}
		s.logger.Warn("generation failed", "reason", string(reason), "err", err)
		return "", &GenerationError{Reason: reason, Err: err}
	}

	cleaned := cleaner.Clean(raw, promptText)
	if cleaned == "" {
		s.logger.Warn("generation failed", "reason", string(ReasonEmptyAfterCleaning))
		return "", &GenerationError{Reason: ReasonEmptyAfterCleaning}
	}
	return cleaned, nil
}
