package rag_test

import (
	"context"
	"sync"

	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"github.com/akolanti/SecoursTech/internal/rag/document"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
)

// MockLLM implements llm.Provider and records every request.
type MockLLM struct {
	OnGenerate func(ctx context.Context, req llm.Request) (string, error)

	mu       sync.Mutex
	Requests []llm.Request
}

func (m *MockLLM) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, req)
	}
	return "mocked llm response", nil
}

func (m *MockLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockFetcher implements document.Fetcher.
type MockFetcher struct {
	OnFetch func(ctx context.Context, doc commonModels.Document) (document.Payload, error)

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Fetch(ctx context.Context, doc commonModels.Document) (document.Payload, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.OnFetch != nil {
		return m.OnFetch(ctx, doc)
	}
	return document.Payload{Name: doc.Filename, MIMEType: "application/pdf", Data: "JVBERi0xLjQ="}, nil
}

func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
