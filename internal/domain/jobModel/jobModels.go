package jobModel

import (
	"context"
	"time"
)

type JobStatus string
type InternalStatus string

const (
	JobStatusQueued   JobStatus = "QUEUED"
	JobStatusRunning  JobStatus = "RUNNING"
	JobStatusComplete JobStatus = "COMPLETE"
	// JobStatusStale is set when a reset superseded the submission; its
	// result was never applied.
	JobStatusStale JobStatus = "STALE"
	JobStatusError JobStatus = "Error"

	SubmitInit InternalStatus = "Init"
	Processing InternalStatus = "Processing"
	Superseded InternalStatus = "Superseded"
	Error      InternalStatus = "Error"

	Complete InternalStatus = "Complete"
)

// Job is one submitted query travelling through the worker pool.
type Job struct {
	Id             string         `json:"id"`
	ConversationId string         `json:"conversation_id"`
	TraceId        string         `json:"trace_id"`
	JobPayload     JobPayload     `json:"job_payload"`
	Error          JobError       `json:"error,omitempty"`
	CreatedTime    time.Time      `json:"created_time"`
	EndTime        time.Time      `json:"end_time,omitempty"`
	Status         JobStatus      `json:"status"`
	CurrentStep    InternalStatus `json:"current_step"`
}

type JobError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Retry   bool   `json:"retry"`
}

type JobPayload struct {
	Question string   `json:"question,omitempty"`
	Answer   string   `json:"answer,omitempty"`
	Intent   string   `json:"intent,omitempty"`
	Sources  []string `json:"sources,omitempty"`
}

type JobStore interface {
	GetJob(ctx context.Context, jobId string) (Job, bool)
	SaveJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, jobID string)
}
