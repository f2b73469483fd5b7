// Package task holds the concrete background job handlers and the glue that
// connects them to the job scheduler. The summarize-note handler drives a
// note through summarization without blocking HTTP request handling; the
// event handler turns job request events emitted by services into scheduler
// submissions.
package task
