package gemini

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"text/template"

	"github.com/precishq/precis-api/internal/config"
	"github.com/precishq/precis-api/internal/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func testLLMConfig() config.LLMConfig {
	return config.LLMConfig{
		GeminiAPIKey:      "test-api-key",
		ModelName:         "gemini-2.0-flash",
		RequestsPerSecond: 1,
		MaxInputChars:     4096,
		MaxRetries:        3,
		RetryDelaySeconds: 2,
	}
}

func TestNewSummarizer(t *testing.T) {
	t.Parallel()

	t.Run("valid configuration", func(t *testing.T) {
		t.Parallel()

		s, err := NewSummarizer(context.Background(), testLogger(), testLLMConfig())
		require.NoError(t, err)
		require.NotNil(t, s)
		assert.Equal(t, "gemini-2.0-flash", s.model)
		assert.NotNil(t, s.client)
		assert.NotNil(t, s.promptTemplate)
	})

	t.Run("nil logger", func(t *testing.T) {
		t.Parallel()

		_, err := NewSummarizer(context.Background(), nil, testLLMConfig())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "logger cannot be nil")
	})

	t.Run("missing API key", func(t *testing.T) {
		t.Parallel()

		cfg := testLLMConfig()
		cfg.GeminiAPIKey = ""
		_, err := NewSummarizer(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, summary.ErrInvalidConfig)
	})

	t.Run("missing model name", func(t *testing.T) {
		t.Parallel()

		cfg := testLLMConfig()
		cfg.ModelName = ""
		_, err := NewSummarizer(context.Background(), testLogger(), cfg)
		assert.ErrorIs(t, err, summary.ErrInvalidConfig)
	})
}

func TestCreatePrompt(t *testing.T) {
	t.Parallel()

	tmpl, err := template.New("summarize").Parse(defaultPromptTemplate)
	require.NoError(t, err)

	s := &Summarizer{
		logger:         testLogger(),
		promptTemplate: tmpl,
	}

	t.Run("renders note text", func(t *testing.T) {
		t.Parallel()

		prompt, err := s.createPrompt(context.Background(), "The meeting moved to Tuesday.")
		require.NoError(t, err)
		assert.Contains(t, prompt, "The meeting moved to Tuesday.")
		assert.Contains(t, prompt, "Summarize the following note")
	})

	t.Run("empty note text", func(t *testing.T) {
		t.Parallel()

		_, err := s.createPrompt(context.Background(), "")
		assert.ErrorIs(t, err, summary.ErrEmptyText)
	})

	t.Run("text is not escaped", func(t *testing.T) {
		t.Parallel()

		prompt, err := s.createPrompt(context.Background(), `Tom & Jerry's "notes" <draft>`)
		require.NoError(t, err)
		assert.Contains(t, prompt, `Tom & Jerry's "notes" <draft>`)
	})
}

func TestExtractSummary(t *testing.T) {
	t.Parallel()

	textResponse := func(parts ...string) *genai.GenerateContentResponse {
		content := &genai.Content{}
		for _, p := range parts {
			content.Parts = append(content.Parts, &genai.Part{Text: p})
		}
		return &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{Content: content, FinishReason: genai.FinishReasonStop},
			},
		}
	}

	t.Run("single part", func(t *testing.T) {
		t.Parallel()

		got, err := extractSummary(textResponse("A concise summary."))
		require.NoError(t, err)
		assert.Equal(t, "A concise summary.", got)
	})

	t.Run("multiple parts concatenated", func(t *testing.T) {
		t.Parallel()

		got, err := extractSummary(textResponse("First half ", "second half."))
		require.NoError(t, err)
		assert.Equal(t, "First half second half.", got)
	})

	t.Run("surrounding whitespace trimmed", func(t *testing.T) {
		t.Parallel()

		got, err := extractSummary(textResponse("\n  padded summary  \n"))
		require.NoError(t, err)
		assert.Equal(t, "padded summary", got)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()

		_, err := extractSummary(nil)
		assert.ErrorIs(t, err, summary.ErrInvalidResponse)
	})

	t.Run("no candidates", func(t *testing.T) {
		t.Parallel()

		_, err := extractSummary(&genai.GenerateContentResponse{})
		assert.ErrorIs(t, err, summary.ErrInvalidResponse)
	})

	t.Run("safety finish reason", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{FinishReason: genai.FinishReasonSafety},
			},
		}
		_, err := extractSummary(resp)
		assert.ErrorIs(t, err, summary.ErrContentBlocked)
	})

	t.Run("blocked prompt", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			PromptFeedback: &genai.GenerateContentResponsePromptFeedback{
				BlockReason: genai.BlockedReasonSafety,
			},
		}
		_, err := extractSummary(resp)
		assert.ErrorIs(t, err, summary.ErrContentBlocked)
	})

	t.Run("nil content", func(t *testing.T) {
		t.Parallel()

		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{
				{FinishReason: genai.FinishReasonStop},
			},
		}
		_, err := extractSummary(resp)
		assert.ErrorIs(t, err, summary.ErrInvalidResponse)
	})

	t.Run("whitespace-only text", func(t *testing.T) {
		t.Parallel()

		_, err := extractSummary(textResponse("   \n\t "))
		assert.ErrorIs(t, err, summary.ErrInvalidResponse)
	})
}

func TestTruncateRunes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{name: "under limit", in: "short", max: 10, want: "short"},
		{name: "at limit", in: "exact", max: 5, want: "exact"},
		{name: "over limit", in: "overflowing", max: 4, want: "over"},
		{name: "no limit", in: "anything goes", max: 0, want: "anything goes"},
		{name: "multibyte runes", in: "héllo wörld", max: 6, want: "héllo "},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, truncateRunes(tc.in, tc.max))
		})
	}
}

func TestSummarize_EmptyText(t *testing.T) {
	t.Parallel()

	s, err := NewSummarizer(context.Background(), testLogger(), testLLMConfig())
	require.NoError(t, err)

	_, err = s.Summarize(context.Background(), "   ")
	assert.ErrorIs(t, err, summary.ErrEmptyText)

	_, err = s.Summarize(context.Background(), strings.Repeat(" \n", 10))
	assert.ErrorIs(t, err, summary.ErrEmptyText)
}
