// Package prompt builds natural-language generation instructions from
// structured story parameters.
package prompt

import (
	"errors"
	"fmt"

	"storyweaver/pkg/types"
)

// ErrUnknownWordLimit is returned when a word-limit label is not one of the
// five fixed bands.
var ErrUnknownWordLimit = errors.New("unknown word limit")

// WordBand is an inclusive word-count range selectable by the user.
type WordBand struct {
	Label string
	Min   int
	Max   int
}

// WordBands lists the five selectable bands in display order.
var WordBands = []WordBand{
	{"Really short (150 - 300 words)", 150, 300},
	{"Short (400 - 600 words)", 400, 600},
	{"Medium (700 - 900 words)", 700, 900},
	{"Long (1000 - 1200 words)", 1000, 1200},
	{"Very long (1300 - 1500 words)", 1300, 1500},
}

// Band resolves a word-limit label to its band.
func Band(label string) (WordBand, error) {
	for _, b := range WordBands {
		if b.Label == label {
			return b, nil
		}
	}
	return WordBand{}, fmt.Errorf("%w: %q", ErrUnknownWordLimit, label)
}

// MaxTokens derives the generation token budget for a word-limit label:
// twice the band's maximum word count.
func MaxTokens(label string) (int, error) {
	band, err := Band(label)
	if err != nil {
		return 0, err
	}
	return band.Max * 2, nil
}

// BuildPrompt constructs the generation instruction for a parameter set.
// The emitted text always states the numeric word bounds and directs the
// model to omit meta-commentary, which gives the cleaner a stable anchor.
func BuildPrompt(params types.StoryParameters) (string, error) {
	band, err := Band(params.WordLimit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Write a complete %s story with a %s tone about %s in %s. "+
			"The story must be between %d and %d words. "+
			"Include a clear beginning, middle, and end with proper character development and plot progression. "+
			"Write the story directly without any explanations or meta-commentary. ",
		params.Genre, params.Tone, params.Character, params.Setting,
		band.Min, band.Max,
	), nil
}

// BuildRefinementPrompt constructs a rewrite instruction embedding an
// existing story and a free-form change request. Genre, tone, character,
// setting and word bounds are carried over from the active parameters.
func BuildRefinementPrompt(params types.StoryParameters, existingStory, instruction string) (string, error) {
	band, err := Band(params.WordLimit)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(
		"Here is a %s story with a %s tone about %s in %s:\n\n"+
			"%s\n\n"+
			"Rewrite this story with the following change: %s. "+
			"The story must be between %d and %d words. "+
			"Keep the same genre, tone, character, and setting, but incorporate the requested change. "+
			"Write the story directly without any explanations or meta-commentary.",
		params.Genre, params.Tone, params.Character, params.Setting,
		existingStory, instruction,
		band.Min, band.Max,
	), nil
}

// WordLimitLabels returns the band labels in display order.
func WordLimitLabels() []string {
	labels := make([]string, len(WordBands))
	for i, b := range WordBands {
		labels[i] = b.Label
	}
	return labels
}
