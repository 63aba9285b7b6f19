package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"github.com/akolanti/SecoursTech/internal/metrics"
	"github.com/akolanti/SecoursTech/internal/rag/document"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

// plan is the closed set of generation strategies.
type plan interface {
	isPlan()
}

type offTopicPlan struct{}
type chitChatPlan struct{}
type generalPlan struct{}
type groundedPlan struct {
	doc commonModels.Document
}

func (offTopicPlan) isPlan() {}
func (chitChatPlan) isPlan() {}
func (generalPlan) isPlan()  {}
func (groundedPlan) isPlan() {}

func selectPlan(res RouterResult) plan {
	switch res.Intent {
	case IntentOffTopic:
		return offTopicPlan{}
	case IntentChitChat:
		return chitChatPlan{}
	case IntentTechnical:
		if res.Document != nil {
			return groundedPlan{doc: *res.Document}
		}
		return generalPlan{}
	default:
		return generalPlan{}
	}
}

type Answerer struct {
	llm     llm.Provider
	fetcher document.Fetcher
	model   string
	logger  *logger_i.Logger
}

func NewAnswerer(provider llm.Provider, fetcher document.Fetcher, model string) *Answerer {
	return &Answerer{
		llm:     provider,
		fetcher: fetcher,
		model:   model,
		logger:  logger_i.NewLogger("answerer"),
	}
}

// Answer produces the reply for query. history must not contain query.
// The only error returned is llm.ErrQuotaExceeded from the persona and
// general plans; every other failure becomes a user-facing text.
func (a *Answerer) Answer(ctx context.Context, query string, history []chatModel.Message, res RouterResult) (string, error) {
	switch p := selectPlan(res).(type) {
	case offTopicPlan:
		return OffTopicRefusal, nil
	case chitChatPlan:
		return a.converse(ctx, chitChatInstruction, query, history)
	case generalPlan:
		return a.converse(ctx, generalInstruction, query, history)
	case groundedPlan:
		return a.grounded(ctx, p.doc, query, history), nil
	default:
		panic(fmt.Sprintf("rag: unhandled plan %T", p))
	}
}

func (a *Answerer) converse(ctx context.Context, instruction, query string, history []chatModel.Message) (string, error) {
	log := a.logger.WithTrace(ctx)

	turns := append(Turns(history), llm.Turn{Role: llm.RoleUser, Text: query})
	out, err := a.llm.Generate(ctx, llm.Request{
		Model:             a.model,
		SystemInstruction: instruction,
		Turns:             turns,
	})
	if err != nil {
		if llm.IsQuota(err) {
			metrics.IncrementQuotaExceeded("answer")
			return "", err
		}
		log.Error("Generation failed", "error", err)
		return APIErrorMessage, nil
	}
	return out, nil
}

func (a *Answerer) grounded(ctx context.Context, doc commonModels.Document, query string, history []chatModel.Message) string {
	log := a.logger.WithTrace(ctx).With("document", doc.Filename)

	payload, err := a.fetcher.Fetch(ctx, doc)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			log.Error("Referenced document is missing", "path", doc.Path, "error", err)
		} else {
			log.Error("Could not load referenced document", "error", err)
		}
		return GroundedErrorMessage
	}

	out, err := a.llm.Generate(ctx, llm.Request{
		Model:             a.model,
		SystemInstruction: fmt.Sprintf(groundedInstruction, doc.Name),
		Parts: []llm.Part{
			llm.TextPart(groundedHeader(Turns(history))),
			llm.AttachmentPart(llm.Attachment{Name: payload.Name, MIMEType: payload.MIMEType, Data: payload.Data}),
			llm.TextPart(groundedQuestion(query)),
		},
	})
	if err != nil {
		if llm.IsQuota(err) {
			metrics.IncrementQuotaExceeded("grounded")
			log.Warn("Grounded generation hit quota", "error", err)
			return GroundedQuotaMessage
		}
		log.Error("Grounded generation failed", "error", err)
		return GroundedErrorMessage
	}
	return out
}
