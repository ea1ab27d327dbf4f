package prompt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyweaver/pkg/types"
)

// TestBand tests label resolution for the five fixed bands.
func TestBand(t *testing.T) {
	tests := []struct {
		name        string
		label       string
		expectedMin int
		expectedMax int
		expectErr   bool
	}{
		{
			name:        "really short band",
			label:       "Really short (150 - 300 words)",
			expectedMin: 150,
			expectedMax: 300,
		},
		{
			name:        "short band",
			label:       "Short (400 - 600 words)",
			expectedMin: 400,
			expectedMax: 600,
		},
		{
			name:        "medium band",
			label:       "Medium (700 - 900 words)",
			expectedMin: 700,
			expectedMax: 900,
		},
		{
			name:        "long band",
			label:       "Long (1000 - 1200 words)",
			expectedMin: 1000,
			expectedMax: 1200,
		},
		{
			name:        "very long band",
			label:       "Very long (1300 - 1500 words)",
			expectedMin: 1300,
			expectedMax: 1500,
		},
		{
			name:      "unknown label",
			label:     "Epic (5000 words)",
			expectErr: true,
		},
		{
			name:      "empty label",
			label:     "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			band, err := Band(tt.label)
			if tt.expectErr {
				assert.ErrorIs(t, err, ErrUnknownWordLimit)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedMin, band.Min)
			assert.Equal(t, tt.expectedMax, band.Max)
		})
	}
}

// TestBandBoundsOrdered tests the min/max invariant on every band.
func TestBandBoundsOrdered(t *testing.T) {
	for _, b := range WordBands {
		assert.Positive(t, b.Min, "band %q", b.Label)
		assert.LessOrEqual(t, b.Min, b.Max, "band %q", b.Label)
	}
}

// TestMaxTokens tests the token budget derivation.
func TestMaxTokens(t *testing.T) {
	tests := []struct {
		name     string
		label    string
		expected int
	}{
		{name: "short band", label: "Short (400 - 600 words)", expected: 1200},
		{name: "very long band", label: "Very long (1300 - 1500 words)", expected: 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MaxTokens(tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := MaxTokens("bogus")
	assert.ErrorIs(t, err, ErrUnknownWordLimit)
}

// TestBuildPrompt tests the generation instruction text.
func TestBuildPrompt(t *testing.T) {
	params := types.StoryParameters{
		Genre:     "Fantasy",
		Tone:      "Dark",
		Character: "a blind cartographer",
		Setting:   "an endless library",
		WordLimit: "Medium (700 - 900 words)",
	}

	p, err := BuildPrompt(params)
	require.NoError(t, err)

	assert.Contains(t, p, "Fantasy")
	assert.Contains(t, p, "Dark tone")
	assert.Contains(t, p, "a blind cartographer")
	assert.Contains(t, p, "an endless library")
	assert.Contains(t, p, "between 700 and 900 words")
	assert.Contains(t, p, "without any explanations or meta-commentary")
}

// TestBuildPromptUnknownBand tests the configuration failure path.
func TestBuildPromptUnknownBand(t *testing.T) {
	params := types.StoryParameters{
		Genre:     "Fantasy",
		Tone:      "Dark",
		Character: "a fox",
		Setting:   "a forest",
		WordLimit: "nonsense",
	}

	_, err := BuildPrompt(params)
	assert.ErrorIs(t, err, ErrUnknownWordLimit)
}

// TestBuildPromptDeterministic tests that identical parameters produce
// identical prompts.
func TestBuildPromptDeterministic(t *testing.T) {
	params := types.StoryParameters{
		Genre:     "Mystery",
		Tone:      "Mysterious",
		Character: "a detective",
		Setting:   "a snowed-in hotel",
		WordLimit: "Short (400 - 600 words)",
	}

	first, err := BuildPrompt(params)
	require.NoError(t, err)
	second, err := BuildPrompt(params)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// TestBuildRefinementPrompt tests the rewrite instruction text.
func TestBuildRefinementPrompt(t *testing.T) {
	params := types.StoryParameters{
		Genre:     "Horror",
		Tone:      "Dark",
		Character: "a lighthouse keeper",
		Setting:   "a remote island",
		WordLimit: "Short (400 - 600 words)",
	}
	existing := "The lamp went out at midnight."
	instruction := "make the ending hopeful"

	p, err := BuildRefinementPrompt(params, existing, instruction)
	require.NoError(t, err)

	assert.Contains(t, p, existing)
	assert.Contains(t, p, instruction)
	assert.Contains(t, p, "between 400 and 600 words")
	assert.Contains(t, p, "Keep the same genre, tone, character, and setting")
	assert.Contains(t, p, "without any explanations or meta-commentary")
}

// TestWordLimitLabels tests the label list matches the band table.
func TestWordLimitLabels(t *testing.T) {
	labels := WordLimitLabels()
	require.Len(t, labels, len(WordBands))
	for i, b := range WordBands {
		assert.Equal(t, b.Label, labels[i], fmt.Sprintf("label %d", i))
	}
}
