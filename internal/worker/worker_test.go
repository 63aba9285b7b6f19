package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/akolanti/SecoursTech/internal/data/store"
	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/internal/job"
	"github.com/akolanti/SecoursTech/internal/rag"
	"github.com/akolanti/SecoursTech/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPipeline counts the submissions that reached the answerer.
type MockPipeline struct {
	ProcessedCount int32
	OnAnswer       func(ctx context.Context, query string) (string, error)
}

func (m *MockPipeline) Route(ctx context.Context, q string, h []chatModel.Message) (rag.RouterResult, error) {
	return rag.RouterResult{Intent: rag.IntentChitChat}, nil
}

func (m *MockPipeline) Answer(ctx context.Context, q string, h []chatModel.Message, r rag.RouterResult) (string, error) {
	atomic.AddInt32(&m.ProcessedCount, 1)
	if m.OnAnswer != nil {
		return m.OnAnswer(ctx, q)
	}
	return "Bonjour. Prêt pour instructions.", nil
}

type MockJobStore struct {
	OnSaveJob func(ctx context.Context, job jobModel.Job) error

	mu   sync.Mutex
	last map[string]jobModel.Job
}

func (m *MockJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j, ok := m.last[jobId]
	return j, ok
}

func (m *MockJobStore) DeleteJob(ctx context.Context, jobID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.last, jobID)
}

func (m *MockJobStore) SaveJob(ctx context.Context, j jobModel.Job) error {
	m.mu.Lock()
	if m.last == nil {
		m.last = make(map[string]jobModel.Job)
	}
	m.last[j.Id] = j
	m.mu.Unlock()
	if m.OnSaveJob != nil {
		return m.OnSaveJob(ctx, j)
	}
	return nil
}

func newJobService(p rag.Service, js jobModel.JobStore) *job.Service {
	return &job.Service{
		JobChannel:        make(chan jobModel.Job, 10),
		DispatcherChannel: make(chan bool, 10),
		JobStore:          js,
		Sessions:          session.NewManager(p, store.InitInMemoryMessageLog()),
	}
}

func waitForStatus(t *testing.T, js *MockJobStore, id string, want jobModel.JobStatus) jobModel.Job {
	t.Helper()
	var got jobModel.Job
	require.Eventually(t, func() bool {
		j, ok := js.GetJob(context.Background(), id)
		got = j
		return ok && j.Status == want
	}, 2*time.Second, 10*time.Millisecond)
	return got
}

func TestWorkerPool_Flow(t *testing.T) {
	mockPipeline := &MockPipeline{}
	jobStore := &MockJobStore{}
	jobSvc := newJobService(mockPipeline, jobStore)
	stopChan := make(chan bool)
	wg := &sync.WaitGroup{}

	atomic.StoreInt64(&currentWorkerCount, 0)
	InitServices(jobSvc)
	InitWorkerPool(stopChan, wg)

	conversation := jobSvc.Sessions.Create()

	t.Run("Dispatcher creates worker on signal", func(t *testing.T) {
		jobSvc.DispatcherChannel <- true
		assert.Eventually(t, func() bool {
			return atomic.LoadInt64(&currentWorkerCount) >= 2
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("Worker answers a submission", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{
			Id:             "test-1",
			ConversationId: conversation.Id(),
			JobPayload:     jobModel.JobPayload{Question: "Bonjour"},
		}

		got := waitForStatus(t, jobStore, "test-1", jobModel.JobStatusComplete)
		assert.Equal(t, "Bonjour. Prêt pour instructions.", got.JobPayload.Answer)
		assert.Equal(t, string(rag.IntentChitChat), got.JobPayload.Intent)
		assert.Equal(t, jobModel.Complete, got.CurrentStep)
		assert.False(t, got.EndTime.IsZero())
		assert.Equal(t, int32(1), atomic.LoadInt32(&mockPipeline.ProcessedCount))
	})

	t.Run("Unknown conversation", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "test-2", ConversationId: "ghost", JobPayload: jobModel.JobPayload{Question: "Bonjour"}}

		got := waitForStatus(t, jobStore, "test-2", jobModel.JobStatusError)
		assert.Equal(t, 404, got.Error.Code)
	})

	t.Run("Empty question", func(t *testing.T) {
		jobSvc.JobChannel <- jobModel.Job{Id: "test-3", ConversationId: conversation.Id()}

		got := waitForStatus(t, jobStore, "test-3", jobModel.JobStatusError)
		assert.Equal(t, 400, got.Error.Code)
	})

	t.Run("Stop signal retires workers", func(t *testing.T) {
		close(stopChan)

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("Workers did not stop within timeout")
		}
	})
}

func TestWorker_StaleSubmission(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	mockPipeline := &MockPipeline{OnAnswer: func(ctx context.Context, q string) (string, error) {
		close(started)
		<-release
		return "late", nil
	}}
	jobStore := &MockJobStore{}
	_jobService = newJobService(mockPipeline, jobStore)
	conversation := _jobService.Sessions.Create()

	done := make(chan struct{})
	go func() {
		executeJob(jobModel.Job{Id: "stale-1", ConversationId: conversation.Id(), JobPayload: jobModel.JobPayload{Question: "q"}})
		close(done)
	}()

	<-started
	require.NoError(t, conversation.Reset(context.Background()))
	close(release)
	<-done

	got, ok := jobStore.GetJob(context.Background(), "stale-1")
	require.True(t, ok)
	assert.Equal(t, jobModel.JobStatusStale, got.Status)
	assert.Empty(t, got.JobPayload.Answer)
}

func TestWorker_BusyConversation(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	mockPipeline := &MockPipeline{OnAnswer: func(ctx context.Context, q string) (string, error) {
		if q == "first" {
			close(started)
			<-release
		}
		return "answer " + q, nil
	}}
	jobStore := &MockJobStore{}
	_jobService = newJobService(mockPipeline, jobStore)
	conversation := _jobService.Sessions.Create()

	done := make(chan struct{})
	go func() {
		executeJob(jobModel.Job{Id: "busy-1", ConversationId: conversation.Id(), JobPayload: jobModel.JobPayload{Question: "first"}})
		close(done)
	}()
	<-started

	executeJob(jobModel.Job{Id: "busy-2", ConversationId: conversation.Id(), JobPayload: jobModel.JobPayload{Question: "second"}})
	got, ok := jobStore.GetJob(context.Background(), "busy-2")
	require.True(t, ok)
	assert.Equal(t, jobModel.JobStatusError, got.Status)
	assert.Equal(t, 409, got.Error.Code)
	assert.True(t, got.Error.Retry)

	close(release)
	<-done
	first, ok := jobStore.GetJob(context.Background(), "busy-1")
	require.True(t, ok)
	assert.Equal(t, jobModel.JobStatusComplete, first.Status)
	assert.Equal(t, "answer first", first.JobPayload.Answer)
}

func TestWorker_StoreFailureDoesNotStopJob(t *testing.T) {
	jobStore := &MockJobStore{OnSaveJob: func(ctx context.Context, j jobModel.Job) error {
		return errors.New("redis down")
	}}
	_jobService = newJobService(&MockPipeline{}, jobStore)
	conversation := _jobService.Sessions.Create()

	executeJob(jobModel.Job{Id: "j", ConversationId: conversation.Id(), JobPayload: jobModel.JobPayload{Question: "Bonjour"}})

	snap, err := conversation.State(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Messages, 2)
}

func TestWorker_IdleTimeout(t *testing.T) {
	atomic.StoreInt64(&currentWorkerCount, 0)
	atomic.StoreInt64(&minWorkerCount, 0)
	previous := idleWorkerTimeout
	idleWorkerTimeout = 50 * time.Millisecond
	t.Cleanup(func() {
		idleWorkerTimeout = previous
		atomic.StoreInt64(&minWorkerCount, 1)
	})

	_jobService = &job.Service{JobChannel: make(chan jobModel.Job)}
	wg := &sync.WaitGroup{}
	workerWaitGroup = wg
	stopWorkerChannel = make(chan bool)

	createWorker()

	assert.Eventually(t, func() bool {
		return atomic.LoadInt64(&currentWorkerCount) == 0
	}, time.Second, 10*time.Millisecond, "worker should have retired after idling")
	wg.Wait()
}
