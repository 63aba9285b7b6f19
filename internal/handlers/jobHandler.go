package handlers

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/internal/job"
	"github.com/akolanti/SecoursTech/internal/metrics"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

var (
	handlerInstance *JobHandler //private singleton
	once            sync.Once
	logJH           = logger_i.NewLogger("job_handler")
)

type JobHandler struct {
	service *job.Service
}

func InitJobHandler(jobService *job.Service) {
	once.Do(func() {
		handlerInstance = &JobHandler{service: jobService}
		logJH.Info("Starting job handler")
	})
}

type newJobData struct {
	id             string
	conversationId string
	message        string
	traceId        string
}

func CreateNewJob(newJob newJobData) {
	logJH.With("traceId", newJob.traceId, "jobId", newJob.id).Debug("Queueing submission")
	handlerInstance.pushToJobChannel(newJob)
}

func GetJobStatus(id string, traceId string) (result jobModel.Job, isFound bool) {
	ctxC := context.WithValue(context.Background(), config.TRACE_ID_KEY, traceId)
	if handlerInstance != nil {
		return handlerInstance.service.JobStore.GetJob(ctxC, id)
	}
	return result, false
}

// private methods
func (h *JobHandler) pushToJobChannel(newJob newJobData) {
	_job := jobModel.Job{
		Id:             newJob.id,
		ConversationId: newJob.conversationId,
		TraceId:        newJob.traceId,
		CreatedTime:    time.Now(),
		Status:         jobModel.JobStatusQueued,
		CurrentStep:    jobModel.SubmitInit,
		JobPayload:     jobModel.JobPayload{Question: newJob.message},
	}

	ctx := context.WithValue(context.Background(), config.TRACE_ID_KEY, newJob.traceId)
	if err := h.service.JobStore.SaveJob(ctx, _job); err != nil {
		logJH.Error("Could not record queued submission", "jobId", _job.Id, "error", err)
	}

	metrics.IncrementJobsInQueue()

	h.service.JobChannel <- _job //blocking send applies back pressure when the buffer is full

	// one more worker every RequestsPerNewWorkerCount submissions; idle ones retire
	accurateCount := atomic.AddInt64(&h.service.RequestCount, 1)
	if accurateCount%config.RequestsPerNewWorkerCount == 0 {
		metrics.StartDispatcherSignalCount()
		logJH.Debug("Signalling dispatcher", "requestCount", accurateCount)
		h.service.DispatcherChannel <- true
	}
}
