package store

import (
	"context"
	"time"

	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"github.com/patrickmn/go-cache"
)

var inMemLogger = logger_i.NewLogger("inmem_store")

// InMemoryJobStore is the fallback when Redis is offline. Entries expire
// after the same TTL the Redis store applies.
type InMemoryJobStore struct {
	jobs *cache.Cache
}

func InitInMemoryJobStore() *InMemoryJobStore {
	return &InMemoryJobStore{
		jobs: cache.New(config.RedisSubmissionStoreTTL, 10*time.Minute),
	}
}

func (store *InMemoryJobStore) SaveJob(ctx context.Context, jobToStore jobModel.Job) error {
	store.jobs.SetDefault(jobToStore.Id, jobToStore)
	inMemLogger.WithTrace(ctx).Debug("Saved submission", "jobId", jobToStore.Id, "status", jobToStore.Status)
	return nil
}

func (store *InMemoryJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	v, found := store.jobs.Get(jobId)
	if !found {
		return jobModel.Job{}, false
	}
	return v.(jobModel.Job), true
}

func (store *InMemoryJobStore) DeleteJob(ctx context.Context, jobID string) {
	store.jobs.Delete(jobID)
}
