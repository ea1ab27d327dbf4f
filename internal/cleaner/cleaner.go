// Package cleaner strips prompt echoes and model meta-commentary from raw
// completions, leaving only the narrative text.
package cleaner

import "strings"

// commentaryMarkers are literal substrings that signal the model has stopped
// narrating and started explaining itself. Truncation uses the leftmost
// occurrence across all markers, not the order of this list.
var commentaryMarkers = []string{
	"In this rewritten version",
	"The emotional tone of the rewritten story",
	"While keeping the main plot and setting",
	"Here's the story with a",
	"I'd like to rewrite this story with a",
	"Here's your story with a",
	"The changes made include:",
	"Overall, the rewritten story",
	"**Act I:",
	"**Act II:",
	"**Act III:",
	"**Act IV:",
	"---",
	"**Characters:**",
	"**Setting:**",
}

const emphasisMarker = "**"

// Clean sanitizes a raw completion against the prompt that produced it.
// It is pure and total: any input string, including empty or non-ASCII
// text, yields a string result and never an error. An empty result means
// the completion carried no usable narrative and the caller must treat
// the generation as failed.
//
// The steps run in fixed order; reordering them changes the output:
//
//  1. strip a verbatim echo of the prompt from the front
//  2. truncate at the leftmost commentary marker, if any
//  3. cut at the first emphasis marker, then drop remaining markers
//  4. keep only what follows the last "tone:" label, if present
//  5. trim surrounding whitespace
func Clean(raw, originalPrompt string) string {
	text := raw

	if originalPrompt != "" && strings.HasPrefix(text, originalPrompt) {
		text = strings.TrimSpace(text[len(originalPrompt):])
	}

	// Leftmost-match-wins across every marker.
	cut := -1
	for _, marker := range commentaryMarkers {
		if pos := strings.Index(text, marker); pos != -1 && (cut == -1 || pos < cut) {
			cut = pos
		}
	}
	if cut != -1 {
		text = strings.TrimSpace(text[:cut])
	}

	if idx := strings.Index(text, emphasisMarker); idx != -1 {
		text = strings.TrimSpace(text[:idx])
	}
	text = strings.ReplaceAll(text, emphasisMarker, "")

	if idx := lastIndexFold(text, "tone:"); idx != -1 {
		text = strings.TrimSpace(text[idx+len("tone:"):])
	}

	return strings.TrimSpace(text)
}

// lastIndexFold returns the byte index of the last case-insensitive
// occurrence of substr in s, or -1.
func lastIndexFold(s, substr string) int {
	if substr == "" || len(s) < len(substr) {
		return -1
	}
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
