package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/data/redisStore"
	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

// RedisMessageLog keeps each conversation as a list of JSON messages.
type RedisMessageLog struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisMessageLog(ctx context.Context, opts redisStore.Options) (*RedisMessageLog, error) {
	s, err := redisStore.GetRedisStore(ctx, opts, config.RedisMessageStore)
	if err != nil {
		return nil, err
	}
	return &RedisMessageLog{
		store:  s,
		logger: logger_i.NewLogger("message_log"),
	}, nil
}

func messagesKey(conversationId string) string {
	return "conversation:" + conversationId + ":messages"
}

func (s *RedisMessageLog) Append(ctx context.Context, conversationId string, msg chatModel.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err = s.store.ListPush(ctx, messagesKey(conversationId), data, config.RedisMessageStoreTTL); err != nil {
		s.logger.WithTrace(ctx).Error("Error saving message", "conversationId", conversationId, "error", err)
		return err
	}
	return nil
}

func (s *RedisMessageLog) List(ctx context.Context, conversationId string) ([]chatModel.Message, error) {
	raw, err := s.store.ListGetAll(ctx, messagesKey(conversationId))
	if err != nil {
		s.logger.WithTrace(ctx).Error("Error getting history", "conversationId", conversationId, "error", err)
		return nil, err
	}
	msgs := make([]chatModel.Message, 0, len(raw))
	for _, r := range raw {
		var m chatModel.Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (s *RedisMessageLog) Replace(ctx context.Context, conversationId string, msgs []chatModel.Message) error {
	values := make([]interface{}, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}
		values = append(values, data)
	}
	return s.store.ListReplace(ctx, messagesKey(conversationId), values, config.RedisMessageStoreTTL)
}

func (s *RedisMessageLog) Clear(ctx context.Context, conversationId string) error {
	return s.store.Del(ctx, messagesKey(conversationId))
}

func (s *RedisMessageLog) Exists(ctx context.Context, conversationId string) (bool, error) {
	return s.store.Exists(ctx, messagesKey(conversationId))
}

func TestMessageLog(store *redisStore.Store) *RedisMessageLog {
	return &RedisMessageLog{
		store:  store,
		logger: logger_i.NewLogger("test_redis"),
	}
}
