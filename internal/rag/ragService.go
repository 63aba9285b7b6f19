package rag

import (
	"context"

	"github.com/akolanti/SecoursTech/internal/catalogue"
	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/rag/document"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

// Service is the two-phase pipeline the session layer drives. The concrete
// router and answerer stay private so callers can swap the whole pipeline
// for a fake in tests.
type Service interface {
	Route(ctx context.Context, query string, history []chatModel.Message) (RouterResult, error)
	Answer(ctx context.Context, query string, history []chatModel.Message, res RouterResult) (string, error)
}

type service struct {
	router   *Router
	answerer *Answerer
	logger   *logger_i.Logger
}

type Options struct {
	Model             string
	DegradedThreshold int
}

func NewService(provider llm.Provider, fetcher document.Fetcher, cat *catalogue.Catalogue, opts Options) Service {
	return &service{
		router:   NewRouter(provider, cat, opts.Model, opts.DegradedThreshold),
		answerer: NewAnswerer(provider, fetcher, opts.Model),
		logger:   logger_i.NewLogger("rag_service"),
	}
}

func (s *service) Route(ctx context.Context, query string, history []chatModel.Message) (RouterResult, error) {
	return s.executeRouterStep(ctx, query, history)
}

func (s *service) Answer(ctx context.Context, query string, history []chatModel.Message, res RouterResult) (string, error) {
	return s.executeGenerationStep(ctx, query, history, res)
}
