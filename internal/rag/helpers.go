package rag

import (
	"context"
	"time"

	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/metrics"
)

func (s *service) executeRouterStep(ctx context.Context, query string, history []chatModel.Message) (RouterResult, error) {
	s.logger.WithTrace(ctx).Debug("Pipeline step", "step", "router")

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("router", time.Since(start)) }()

	return s.router.Route(ctx, query, history)
}

func (s *service) executeGenerationStep(ctx context.Context, query string, history []chatModel.Message, res RouterResult) (string, error) {
	s.logger.WithTrace(ctx).Debug("Pipeline step", "step", "generation", "intent", res.Intent)

	start := time.Now()
	defer func() { metrics.CaptureExecutionMetrics("generation_"+string(res.Intent), time.Since(start)) }()

	return s.answerer.Answer(ctx, query, history, res)
}
