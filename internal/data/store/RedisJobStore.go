package store

import (
	"context"
	"encoding/json"

	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/data/redisStore"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

const jobKeyPrefix = "submission:"

type RedisJobStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisJobStore(ctx context.Context, opts redisStore.Options) (*RedisJobStore, error) {
	s, err := redisStore.GetRedisStore(ctx, opts, config.RedisSubmissionStore)
	if err != nil {
		return nil, err
	}
	return &RedisJobStore{
		store:  s,
		logger: logger_i.NewLogger("job_store"),
	}, nil
}

func (s *RedisJobStore) SaveJob(ctx context.Context, job jobModel.Job) error {
	log := s.logger.WithTrace(ctx).With("jobId", job.Id)
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	err = s.store.Set(ctx, jobKeyPrefix+job.Id, data, config.RedisSubmissionStoreTTL)
	if err != nil {
		log.Error("Could not save submission", "error", err)
		return err
	}
	log.Debug("Saved submission to Redis", "status", job.Status)
	return nil
}

func (s *RedisJobStore) GetJob(ctx context.Context, jobId string) (jobModel.Job, bool) {
	var job jobModel.Job
	log := s.logger.WithTrace(ctx).With("jobId", jobId)
	val, err := s.store.Get(ctx, jobKeyPrefix+jobId)
	if s.store.IsNil(err) {
		return job, false
	} else if err != nil {
		log.Error("Could not read submission", "error", err)
		return job, false
	}

	if err = json.Unmarshal([]byte(val), &job); err != nil {
		log.Error("Corrupt submission record", "error", err)
		return job, false
	}
	return job, true
}

func (s *RedisJobStore) DeleteJob(ctx context.Context, jobID string) {
	if err := s.store.Del(ctx, jobKeyPrefix+jobID); err != nil {
		s.logger.Error("Error deleting submission from Redis", "jobId", jobID, "error", err)
		return
	}
	s.logger.Debug("Submission deleted from Redis", "jobId", jobID)
}

func TestJobStore(store *redisStore.Store) *RedisJobStore {
	return &RedisJobStore{
		store:  store,
		logger: logger_i.NewLogger("test_redis"),
	}
}
