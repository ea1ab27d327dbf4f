package cleaner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestCleanEchoStrip tests removal of a verbatim prompt echo.
func TestCleanEchoStrip(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		prompt   string
		expected string
	}{
		{
			name:     "strips echoed prompt prefix",
			raw:      "Write a story. Once upon a time, there was a fox.",
			prompt:   "Write a story.",
			expected: "Once upon a time, there was a fox.",
		},
		{
			name:     "keeps text when prompt is not a prefix",
			raw:      "Once upon a time. Write a story.",
			prompt:   "Write a story.",
			expected: "Once upon a time. Write a story.",
		},
		{
			name:     "empty prompt strips nothing",
			raw:      "A quiet morning in the village.",
			prompt:   "",
			expected: "A quiet morning in the village.",
		},
		{
			name:     "prompt longer than completion",
			raw:      "short",
			prompt:   "a much longer prompt than the completion itself",
			expected: "short",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.raw, tt.prompt))
		})
	}
}

// TestCleanCommentaryMarkers tests leftmost-occurrence truncation.
func TestCleanCommentaryMarkers(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "truncates at explanatory phrase",
			raw:      "The fox ran. In this rewritten version, I changed the pacing.",
			expected: "The fox ran.",
		},
		{
			name:     "truncates at horizontal rule",
			raw:      "The fox ran.\n\n---\nNotes about the story.",
			expected: "The fox ran.",
		},
		{
			name: "leftmost marker wins over list order",
			// "---" appears before "In this rewritten version" even though
			// it is listed later.
			raw:      "The fox ran.\n---\nIn this rewritten version, nothing.",
			expected: "The fox ran.",
		},
		{
			name:     "no marker keeps text unchanged",
			raw:      "The fox ran through the forest.",
			expected: "The fox ran through the forest.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.raw, ""))
		})
	}
}

// TestCleanEmphasisMarkers tests the emphasis-marker paragraph cut.
func TestCleanEmphasisMarkers(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "cuts at first emphasis marker",
			raw:      "She walked in.\n\n**Chapter Two**\nMore text",
			expected: "She walked in.",
		},
		{
			name:     "output never contains emphasis markers",
			raw:      "Plain text **bold claim** trailing",
			expected: "Plain text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clean(tt.raw, "")
			assert.Equal(t, tt.expected, got)
			assert.NotContains(t, got, "**")
		})
	}
}

// TestCleanToneLabel tests the trailing tone-label strip.
func TestCleanToneLabel(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{
			name:     "keeps text after last tone label",
			raw:      "tone: dark tone: light The real story begins here.",
			expected: "light The real story begins here.",
		},
		{
			name:     "tone label is case-insensitive",
			raw:      "The story ends. TONE: dark",
			expected: "dark",
		},
		{
			name:     "no tone label keeps text",
			raw:      "A story without labels.",
			expected: "A story without labels.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Clean(tt.raw, ""))
		})
	}
}

// TestCleanScenario reproduces the full pipeline on a realistic completion.
func TestCleanScenario(t *testing.T) {
	prompt := "Write a Horror story..."
	raw := "Write a Horror story...\n\nShe walked in.\n\n**Act I: Arrival**\nMore text"

	assert.Equal(t, "She walked in.", Clean(raw, prompt))
}

// TestCleanTotality tests that Clean returns a string for any input.
func TestCleanTotality(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		prompt string
	}{
		{name: "empty input", raw: "", prompt: ""},
		{name: "only whitespace", raw: "  \n\t  ", prompt: ""},
		{name: "only markers", raw: "**---**", prompt: ""},
		{name: "non-ASCII text", raw: "Ein Märchen über einen 狐 im Wald.", prompt: ""},
		{name: "replacement characters", raw: "story � text �", prompt: "x"},
		{name: "raw equals prompt", raw: "Write a story.", prompt: "Write a story."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				_ = Clean(tt.raw, tt.prompt)
			})
		})
	}
}

// TestCleanNeverEchoesPrompt tests the prefix property on cleaned output.
func TestCleanNeverEchoesPrompt(t *testing.T) {
	prompts := []string{
		"Write a complete Fantasy story with a Dark tone.",
		"Write a story.",
		"p",
	}

	for _, p := range prompts {
		raw := p + " The hero set out at dawn."
		got := Clean(raw, p)
		assert.False(t, strings.HasPrefix(got, p), "cleaned output echoes prompt %q", p)
	}
}

// TestCleanIdempotence tests that cleaning an already-clean story again
// changes nothing.
func TestCleanIdempotence(t *testing.T) {
	inputs := []struct {
		name   string
		raw    string
		prompt string
	}{
		{
			name:   "marker heavy completion",
			raw:    "Write it. The fox ran.\n**Act I: Hunt**\nrest",
			prompt: "Write it.",
		},
		{
			name:   "plain story",
			raw:    "The fox ran through the quiet forest.",
			prompt: "",
		},
		{
			name:   "tone labelled completion",
			raw:    "tone: dark\nA shadow crossed the yard.",
			prompt: "",
		},
	}

	for _, tt := range inputs {
		t.Run(tt.name, func(t *testing.T) {
			once := Clean(tt.raw, tt.prompt)
			twice := Clean(once, "")
			assert.Equal(t, once, twice)
		})
	}
}

// TestLastIndexFold tests the case-insensitive reverse search helper.
func TestLastIndexFold(t *testing.T) {
	tests := []struct {
		name     string
		s        string
		substr   string
		expected int
	}{
		{name: "exact match", s: "tone: x", substr: "tone:", expected: 0},
		{name: "uppercase match", s: "TONE: x", substr: "tone:", expected: 0},
		{name: "last occurrence", s: "tone: a tone: b", substr: "tone:", expected: 8},
		{name: "no match", s: "nothing here", substr: "tone:", expected: -1},
		{name: "substr longer than s", s: "to", substr: "tone:", expected: -1},
		{name: "empty substr", s: "text", substr: "", expected: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, lastIndexFold(tt.s, tt.substr))
		})
	}
}
