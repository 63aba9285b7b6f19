package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/rag"
	"github.com/google/uuid"
)

// Manager keeps one Coordinator per conversation id.
type Manager struct {
	pipeline rag.Service
	messages chatModel.MessageLog

	mu       sync.RWMutex
	sessions map[string]*Coordinator
}

func NewManager(pipeline rag.Service, messages chatModel.MessageLog) *Manager {
	return &Manager{
		pipeline: pipeline,
		messages: messages,
		sessions: make(map[string]*Coordinator),
	}
}

func (m *Manager) Create() *Coordinator {
	return m.Open(uuid.NewString())
}

// Open returns the coordinator for id, creating it when needed.
func (m *Manager) Open(id string) *Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.sessions[id]; ok {
		return c
	}
	c := NewCoordinator(id, m.pipeline, m.messages)
	m.sessions[id] = c
	return c
}

// Get returns the coordinator for id. A conversation whose log outlived the
// process (Redis) is reattached with a fresh token.
func (m *Manager) Get(ctx context.Context, id string) (*Coordinator, error) {
	m.mu.RLock()
	c, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return c, nil
	}

	stored, err := m.messages.Exists(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup conversation: %w", err)
	}
	if !stored {
		return nil, ErrUnknownConversation
	}
	return m.Open(id), nil
}

// Delete resets the conversation, so late results are dropped, then forgets it.
func (m *Manager) Delete(ctx context.Context, id string) error {
	c, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return c.Reset(ctx)
}

func (m *Manager) Ids() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
