package gemini

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"strings"
	"text/template"
	"time"

	"github.com/precishq/precis-api/internal/config"
	"github.com/precishq/precis-api/internal/summary"
	"google.golang.org/genai"
)

// defaultPromptTemplate is the prompt sent for each note. The model is asked
// for bare prose because the summary is stored and served verbatim.
const defaultPromptTemplate = `Summarize the following note in two or three plain sentences.
Respond with only the summary text, no preamble and no markdown.

Note:
{{.NoteText}}`

// promptData carries the values substituted into the prompt template.
type promptData struct {
	NoteText string
}

// Summarizer implements the summary.Summarizer interface using Google's
// Gemini API.
type Summarizer struct {
	// logger is used for structured logging
	logger *slog.Logger

	// config contains LLM-specific configuration
	config config.LLMConfig

	// promptTemplate is the parsed template for creating prompts
	promptTemplate *template.Template

	// client is the Gemini API client for making requests
	client *genai.Client

	// model is the name of the Gemini model to use
	model string
}

// Ensure Summarizer implements the summary.Summarizer interface.
var _ summary.Summarizer = (*Summarizer)(nil)

// NewSummarizer creates a Gemini-backed summarizer with the provided
// dependencies.
//
// Parameters:
//   - ctx: Context for the operation, which can be used for cancellation
//   - logger: A structured logger for operation logging
//   - cfg: LLM configuration containing API key, model name, and retry settings
//
// Returns:
//   - A properly initialized Summarizer or an error if initialization fails
func NewSummarizer(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Summarizer, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", summary.ErrInvalidConfig)
	}

	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", summary.ErrInvalidConfig)
	}

	promptTemplate, err := template.New("summarize").Parse(defaultPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v", summary.ErrInvalidConfig, err)
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v", summary.ErrInvalidConfig, err)
	}

	return &Summarizer{
		logger:         logger,
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}, nil
}

// Summarize produces a summary of the note text via the Gemini API.
// Oversized input is truncated to the configured limit before prompting.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return "", summary.ErrEmptyText
	}

	truncated := truncateRunes(trimmed, s.config.MaxInputChars)
	if len(truncated) < len(trimmed) {
		s.logger.DebugContext(ctx, "truncated note text for prompt",
			"original_length", len(trimmed),
			"max_input_chars", s.config.MaxInputChars)
	}

	prompt, err := s.createPrompt(ctx, truncated)
	if err != nil {
		return "", err
	}

	return s.callGeminiWithRetry(ctx, prompt)
}

// createPrompt renders the prompt template with the note text.
func (s *Summarizer) createPrompt(ctx context.Context, noteText string) (string, error) {
	if noteText == "" {
		return "", summary.ErrEmptyText
	}

	var promptBuffer bytes.Buffer
	if err := s.promptTemplate.Execute(&promptBuffer, promptData{NoteText: noteText}); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	prompt := promptBuffer.String()
	s.logger.DebugContext(ctx, "prompt generated",
		"note_length", len(noteText),
		"prompt_length", len(prompt))

	return prompt, nil
}

// callGeminiWithRetry makes a call to the Gemini API with exponential backoff
// retry logic.
//
// It attempts the call up to config.MaxRetries additional times, backing off
// with jitter between retries for transient errors. Permanent errors, such as
// content blocked by safety filters or a malformed response, are returned
// immediately without retrying.
func (s *Summarizer) callGeminiWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := s.config.MaxRetries
	baseDelaySeconds := s.config.RetryDelaySeconds
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	if maxRetries < 0 {
		s.logger.WarnContext(ctx, "invalid max retries value, using default", "max_retries", 3)
		maxRetries = 3
	}

	if baseDelaySeconds < 1 {
		s.logger.WarnContext(ctx, "invalid retry delay value, using default", "base_delay_seconds", 2)
		baseDelaySeconds = 2
	}

	generationConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		attemptNum := attempt + 1
		s.logger.InfoContext(ctx, "calling gemini api",
			"attempt", attemptNum,
			"max_attempts", maxRetries+1,
			"model", s.model)

		var result string
		isTransient := false

		resp, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), generationConfig)
		if err != nil {
			// API transport errors are assumed transient.
			isTransient = true
			s.logger.ErrorContext(ctx, "gemini api call error",
				"error", err,
				"attempt", attemptNum)
		} else {
			result, err = extractSummary(resp)
		}

		if err == nil {
			s.logger.InfoContext(ctx, "gemini api call successful",
				"attempt", attemptNum,
				"summary_length", len(result))
			return result, nil
		}

		if errors.Is(err, summary.ErrContentBlocked) || errors.Is(err, summary.ErrInvalidResponse) {
			s.logger.WarnContext(ctx, "permanent error from gemini, not retrying", "error", err)
			return "", err
		}

		if attempt >= maxRetries {
			s.logger.WarnContext(ctx, "maximum retry attempts reached", "max_retries", maxRetries)
			return "", fmt.Errorf("%w: exceeded maximum retry attempts (%d): %v",
				summary.ErrTransientFailure, maxRetries, err)
		}

		if !isTransient {
			return "", err
		}

		// delay = baseDelay * (2^attempt) * (0.5 + rand(0, 0.5))
		backoffSeconds := float64(baseDelaySeconds) * math.Pow(2, float64(attempt))
		jitterFactor := 0.5 + rng.Float64()*0.5
		delay := time.Duration(backoffSeconds * jitterFactor * float64(time.Second))

		s.logger.InfoContext(ctx, "retrying gemini call after delay",
			"attempt", attemptNum,
			"delay", delay.String())

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			s.logger.WarnContext(ctx, "gemini call cancelled during retry delay",
				"attempt", attemptNum,
				"ctx_err", ctx.Err())
			return "", fmt.Errorf("%w: %v", summary.ErrTransientFailure, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: failed after %d attempts", summary.ErrTransientFailure, maxRetries+1)
}

// extractSummary validates a GenerateContent response and returns its text.
// Safety-filtered and malformed responses map to the permanent error types
// so the retry loop gives up on them immediately.
func extractSummary(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%w: nil response", summary.ErrInvalidResponse)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", summary.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", summary.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: generation stopped by safety filters", summary.ErrContentBlocked)
	}

	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content in response", summary.ErrInvalidResponse)
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("%w: empty summary text", summary.ErrInvalidResponse)
	}

	return text, nil
}

// truncateRunes cuts s to at most max runes. A non-positive max means no
// limit.
func truncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
