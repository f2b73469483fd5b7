package summary

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSummarizer is a configurable Summarizer for decorator tests.
type stubSummarizer struct {
	result string
	err    error
	calls  int
}

func (s *stubSummarizer) Summarize(ctx context.Context, text string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.result, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFallback_PrimarySucceeds(t *testing.T) {
	t.Parallel()

	primary := &stubSummarizer{result: "primary summary"}
	fallback := &stubSummarizer{result: "fallback summary"}

	chain := WithFallback(primary, fallback, discardLogger())
	got, err := chain.Summarize(context.Background(), "some note text")

	require.NoError(t, err)
	assert.Equal(t, "primary summary", got)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls, "fallback must not run when primary succeeds")
}

func TestFallback_PrimaryFails(t *testing.T) {
	t.Parallel()

	primary := &stubSummarizer{err: ErrTransientFailure}
	fallback := &stubSummarizer{result: "fallback summary"}

	chain := WithFallback(primary, fallback, discardLogger())
	got, err := chain.Summarize(context.Background(), "some note text")

	require.NoError(t, err)
	assert.Equal(t, "fallback summary", got)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestFallback_BothFail(t *testing.T) {
	t.Parallel()

	fallbackErr := errors.New("fallback also broken")
	primary := &stubSummarizer{err: ErrContentBlocked}
	fallback := &stubSummarizer{err: fallbackErr}

	chain := WithFallback(primary, fallback, discardLogger())
	_, err := chain.Summarize(context.Background(), "some note text")

	assert.ErrorIs(t, err, fallbackErr, "the fallback's error is the one surfaced")
}
