// Package gemini provides an implementation of the summary.Summarizer
// interface that uses Google's Gemini API to summarize note text.
//
// This package is an infrastructure adapter in the hexagonal architecture,
// connecting the application's domain logic to Google's external Gemini AI
// service. It translates between the application's domain models and the
// Gemini API without exposing the details of the external service to the
// core application.
//
// Key components:
//
// 1. Summarizer:
//   - Implements the summary.Summarizer interface
//   - Handles communication with the Gemini API
//   - Extracts and validates the summary text from responses
//
// 2. Prompt Management:
//   - Renders the summarization prompt from a template
//   - Truncates oversized note text before prompting
//
// 3. Error Handling:
//   - Implements retry logic with exponential backoff for transient errors
//   - Categorizes and translates API errors to application-specific errors
//   - Handles content filtering and safety measures
//
// The package depends on Google's genai client library for communicating
// with the Gemini API, and handles authentication, request formatting, and
// response processing according to Google's API specifications.
package gemini
