package store

import (
	"context"
	"sync"

	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
)

type InMemoryMessageLog struct {
	chatLock *sync.RWMutex
	chatMap  map[string][]chatModel.Message
}

func InitInMemoryMessageLog() *InMemoryMessageLog {
	return &InMemoryMessageLog{
		chatLock: new(sync.RWMutex),
		chatMap:  make(map[string][]chatModel.Message),
	}
}

func (store *InMemoryMessageLog) Append(ctx context.Context, conversationId string, msg chatModel.Message) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[conversationId] = append(store.chatMap[conversationId], msg)
	return nil
}

func (store *InMemoryMessageLog) List(ctx context.Context, conversationId string) ([]chatModel.Message, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	msgs := store.chatMap[conversationId]
	out := make([]chatModel.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (store *InMemoryMessageLog) Replace(ctx context.Context, conversationId string, msgs []chatModel.Message) error {
	cp := make([]chatModel.Message, len(msgs))
	copy(cp, msgs)
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	store.chatMap[conversationId] = cp
	return nil
}

func (store *InMemoryMessageLog) Exists(ctx context.Context, conversationId string) (bool, error) {
	store.chatLock.RLock()
	defer store.chatLock.RUnlock()
	_, ok := store.chatMap[conversationId]
	return ok, nil
}

func (store *InMemoryMessageLog) Clear(ctx context.Context, conversationId string) error {
	store.chatLock.Lock()
	defer store.chatLock.Unlock()
	delete(store.chatMap, conversationId)
	return nil
}
