package worker

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/akolanti/SecoursTech/internal/config"
	jobmodel "github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/internal/metrics"
	"github.com/akolanti/SecoursTech/internal/session"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

func executeJob(job jobmodel.Job) {
	start := time.Now()
	defer func() {
		metrics.CaptureJobMetrics(string(job.Status), time.Since(start))
	}()
	ctxTrace := context.WithValue(context.Background(), config.TRACE_ID_KEY, job.TraceId)
	ctx, cancel := context.WithTimeout(ctxTrace, config.SubmissionTimeout)
	defer cancel()
	log := logger.WithTrace(ctx).With("jobId", job.Id, "conversationId", job.ConversationId)
	log.Debug("Processing submission")

	job.CurrentStep = jobmodel.Processing
	job = saveJobState(ctx, job, jobmodel.JobStatusRunning)

	job = processQuery(ctx, job, log)

	job.EndTime = time.Now()
	job = saveJobState(ctx, job, job.Status)
}

func removeWorker(reason string) {
	workerWaitGroup.Done()
	count := atomic.AddInt64(&currentWorkerCount, -1)
	logger.Info("Removed worker", "reason", reason, "workerCount", count)
	metrics.DecrementActiveWorkerCount()
}

func processQuery(ctx context.Context, job jobmodel.Job, log *logger_i.Logger) jobmodel.Job {
	conversation, err := _jobService.Sessions.Get(ctx, job.ConversationId)
	switch {
	case errors.Is(err, session.ErrUnknownConversation):
		return jobError(job, log, err, http.StatusNotFound, "Conversation not found", false)
	case err != nil:
		return jobError(job, log, err, http.StatusInternalServerError, "Internal Server Error", true)
	}

	out, err := conversation.Submit(ctx, job.JobPayload.Question)
	switch {
	case errors.Is(err, session.ErrEmptyQuery):
		return jobError(job, log, err, http.StatusBadRequest, "Empty question", false)
	case errors.Is(err, session.ErrBusy):
		return jobError(job, log, err, http.StatusConflict, "Conversation is still answering a previous question", true)
	case err != nil:
		return jobError(job, log, err, http.StatusInternalServerError, "Internal Server Error", true)
	}

	job.JobPayload.Intent = string(out.Intent)
	if out.Stale {
		log.Info("Submission superseded by a reset", "token", out.Token)
		job.CurrentStep = jobmodel.Superseded
		job.Status = jobmodel.JobStatusStale
		return job
	}
	job.JobPayload.Answer = out.Reply.Content
	job.JobPayload.Sources = out.Reply.Sources
	job.CurrentStep = jobmodel.Complete
	job.Status = jobmodel.JobStatusComplete
	return job
}

func jobError(job jobmodel.Job, log *logger_i.Logger, err error, code int, message string, canRetry bool) jobmodel.Job {
	log.Error(message, "error", err)
	job.Error = jobmodel.JobError{
		Code:    code,
		Message: message,
		Retry:   canRetry,
	}
	job.CurrentStep = jobmodel.Error
	job.Status = jobmodel.JobStatusError
	return job
}

func saveJobState(ctx context.Context, job jobmodel.Job, jobStatus jobmodel.JobStatus) jobmodel.Job {
	job.Status = jobStatus
	if err := _jobService.JobStore.SaveJob(ctx, job); err != nil {
		logger.Error("Failed to update submission status", "err", err)
	}
	return job
}
