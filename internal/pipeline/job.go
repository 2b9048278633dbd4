package pipeline

import (
	"encoding/json"
	"strings"
)

// Job is the queue message body: {"manual":{"id":"..."}}.
type Job struct {
	Manual struct {
		ID string `json:"id"`
	} `json:"manual"`
}

// ParseJob decodes body and reports whether it names a manual.
func ParseJob(body []byte) (Job, bool) {
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return Job{}, false
	}
	job.Manual.ID = strings.TrimSpace(job.Manual.ID)
	if job.Manual.ID == "" {
		return Job{}, false
	}
	return job, true
}

// NewJob returns the message for manualID.
func NewJob(manualID string) Job {
	var job Job
	job.Manual.ID = manualID
	return job
}

// Encode serializes the job as a queue message body.
func (j Job) Encode() ([]byte, error) {
	return json.Marshal(j)
}
