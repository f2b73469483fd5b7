package summary

import (
	"context"
	"log/slog"
)

// Fallback chains two summarizers: the fallback runs whenever the primary
// returns an error. The application wires the Gemini summarizer as primary
// with the extractive one behind it, so a note still gets a summary when the
// API is down or exhausts its retries.
type Fallback struct {
	primary  Summarizer
	fallback Summarizer
	logger   *slog.Logger
}

// WithFallback wraps primary so that any error falls through to fallback.
func WithFallback(primary, fallback Summarizer, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// Summarize tries the primary summarizer and falls back on any error.
func (f *Fallback) Summarize(ctx context.Context, text string) (string, error) {
	result, err := f.primary.Summarize(ctx, text)
	if err == nil {
		return result, nil
	}

	f.logger.WarnContext(ctx, "primary summarizer failed, using fallback", "error", err)
	return f.fallback.Summarize(ctx, text)
}
