package summary

import (
	"context"
	"strings"
	"unicode"
)

const (
	// shortTextThreshold is the length in runes below which the text is
	// returned whole instead of being reduced to sentences.
	shortTextThreshold = 50

	// maxExtractiveInput caps how much of the note the extractive
	// summarizer looks at.
	maxExtractiveInput = 1024
)

// Extractive is a local, deterministic Summarizer that needs no external
// service. It keeps the first and last sentence of the text, which for short
// notes tends to capture the point and the conclusion. It backs the Gemini
// summarizer when no API key is configured or the API is unavailable.
type Extractive struct{}

// NewExtractive creates the rule-based extractive summarizer.
func NewExtractive() *Extractive {
	return &Extractive{}
}

// Summarize reduces the text to its first and last sentence, prefixed with
// "Summary: ". Text shorter than the sentence threshold is returned whole
// under the same prefix.
func (e *Extractive) Summarize(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", ErrEmptyText
	}

	runes := []rune(trimmed)
	if len(runes) > maxExtractiveInput {
		trimmed = strings.TrimSpace(string(runes[:maxExtractiveInput]))
		runes = []rune(trimmed)
	}

	if len(runes) < shortTextThreshold {
		return "Summary: " + trimmed, nil
	}

	sentences := splitSentences(trimmed)
	first := sentences[0]
	last := sentences[len(sentences)-1]
	if first == last {
		return "Summary: " + first, nil
	}
	return "Summary: " + first + " " + last, nil
}

// splitSentences breaks text on sentence-ending punctuation followed by
// whitespace. Trailing text without a terminator counts as a sentence, so
// the result is never empty for non-empty input.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(text)
	for i, r := range runes {
		current.WriteRune(r)
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		atEnd := i == len(runes)-1
		if atEnd || unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
