// Package summary defines the boundary between the application core and the
// text summarization backends. The Summarizer interface is implemented by the
// Gemini-backed summarizer in internal/platform/gemini and by the local
// extractive summarizer in this package; the decorators here compose them
// into the chain the application actually uses.
package summary

import "context"

// Summarizer produces a summary of the given text.
// This interface serves as a boundary between the application core and
// external AI/LLM services, following the hexagonal architecture pattern.
type Summarizer interface {
	// Summarize returns a summary of the provided text.
	//
	// Parameters:
	//   - ctx: Context for the operation, which can be used for cancellation
	//   - text: The raw note text to summarize
	//
	// Returns:
	//   - The summary string
	//   - An error if summarization fails (see errors.go for specific types)
	Summarize(ctx context.Context, text string) (string, error)
}
