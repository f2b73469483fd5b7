// Package job implements the asynchronous job queue at the core of the
// application: a persistent store of job records, a registry of typed
// handlers keyed by job type, and a polling scheduler that drives queued
// jobs through their handlers with bounded retries.
//
// Jobs move through a fixed lifecycle: queued, processing, then either
// completed or failed. A failed attempt requeues the job until its attempt
// limit is reached, at which point the job is failed permanently and the
// type's exhaustion callback is notified. Jobs are never deleted, so status
// queries keep working after a job reaches a terminal state.
package job
