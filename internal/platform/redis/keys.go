package redis

import "github.com/precishq/precis-api/internal/job"

// Redis key naming for job data.
// All keys are prefixed with "precis:" to avoid collisions.

const keyPrefix = "precis:"

// jobKey returns the Hash key for a job entity: precis:job:{id}
func jobKey(id string) string { return keyPrefix + "job:" + id }

// statusKey returns the Sorted Set key tracking the IDs of jobs in a
// status, scored by creation time: precis:jobs:{status}
func statusKey(status job.Status) string { return keyPrefix + "jobs:" + string(status) }
