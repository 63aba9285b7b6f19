package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/akolanti/SecoursTech/internal/catalogue"
	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"github.com/akolanti/SecoursTech/internal/metrics"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

type Intent string

const (
	IntentChitChat  Intent = "CHITCHAT"
	IntentGeneral   Intent = "GENERAL_KNOWLEDGE"
	IntentTechnical Intent = "TECHNICAL_PROCEDURE"
	IntentOffTopic  Intent = "OFF_TOPIC"
)

// RouterResult is the classification of one query. Document is only set for
// IntentTechnical and is always a catalogue entry.
type RouterResult struct {
	Intent   Intent
	Document *commonModels.Document
}

func generalFallback() RouterResult {
	return RouterResult{Intent: IntentGeneral}
}

type routingReply struct {
	Type             string  `json:"type"`
	RelevantFilename *string `json:"relevantFilename"`
}

type Router struct {
	llm       llm.Provider
	catalogue *catalogue.Catalogue
	model     string
	logger    *logger_i.Logger

	degradedThreshold int
	mu                sync.Mutex
	fallbackStreak    int
}

func NewRouter(provider llm.Provider, cat *catalogue.Catalogue, model string, degradedThreshold int) *Router {
	return &Router{
		llm:               provider,
		catalogue:         cat,
		model:             model,
		logger:            logger_i.NewLogger("router"),
		degradedThreshold: degradedThreshold,
	}
}

// Route classifies query against history, which must not contain query
// itself. Only a quota failure is returned; every other failure falls back
// to GENERAL_KNOWLEDGE without a document.
func (r *Router) Route(ctx context.Context, query string, history []chatModel.Message) (RouterResult, error) {
	log := r.logger.WithTrace(ctx)

	prompt := buildRouterPrompt(Transcript(history), query, r.catalogue.PromptList())
	raw, err := r.llm.Generate(ctx, llm.Request{
		Model:  r.model,
		Turns:  []llm.Turn{{Role: llm.RoleUser, Text: prompt}},
		Schema: routingSchema,
	})
	if err != nil {
		if llm.IsQuota(err) {
			metrics.IncrementQuotaExceeded("router")
			log.Warn("Router hit quota", "error", err)
			return RouterResult{}, err
		}
		return r.fallback(log, err), nil
	}

	res, err := r.parse(raw)
	if err != nil {
		return r.fallback(log, err), nil
	}
	r.recovered()
	metrics.IncrementIntent(string(res.Intent))
	log.Debug("Query routed", "intent", res.Intent, "document", documentName(res.Document))
	return res, nil
}

func (r *Router) parse(raw string) (RouterResult, error) {
	var reply routingReply
	if err := json.Unmarshal([]byte(stripFence(raw)), &reply); err != nil {
		return RouterResult{}, fmt.Errorf("decode routing reply: %w", err)
	}

	switch Intent(reply.Type) {
	case IntentOffTopic:
		return RouterResult{Intent: IntentOffTopic}, nil
	case IntentChitChat:
		return RouterResult{Intent: IntentChitChat}, nil
	case IntentTechnical:
		if reply.RelevantFilename == nil || *reply.RelevantFilename == "" {
			return RouterResult{Intent: IntentTechnical}, nil
		}
		doc, ok := r.catalogue.ByFilename(*reply.RelevantFilename)
		if !ok {
			r.logger.Debug("Filename not in catalogue, downgrading", "filename", *reply.RelevantFilename)
			return generalFallback(), nil
		}
		return RouterResult{Intent: IntentTechnical, Document: &doc}, nil
	default:
		return generalFallback(), nil
	}
}

func (r *Router) fallback(log *logger_i.Logger, cause error) RouterResult {
	metrics.IncrementRoutingFallback()
	log.Error("Routing failed, falling back to general knowledge", "error", cause)

	r.mu.Lock()
	r.fallbackStreak++
	streak := r.fallbackStreak
	r.mu.Unlock()

	if r.degradedThreshold > 0 && streak == r.degradedThreshold {
		log.Warn("Router degraded: consecutive classification failures", "count", streak)
	}
	return generalFallback()
}

func (r *Router) recovered() {
	r.mu.Lock()
	r.fallbackStreak = 0
	r.mu.Unlock()
}

// FallbackStreak reports consecutive classification failures.
func (r *Router) FallbackStreak() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fallbackStreak
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func documentName(d *commonModels.Document) string {
	if d == nil {
		return ""
	}
	return d.Name
}
