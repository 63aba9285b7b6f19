package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/metrics"
	"github.com/akolanti/SecoursTech/internal/rag"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"github.com/google/uuid"
)

var (
	ErrEmptyQuery          = errors.New("empty query")
	ErrUnknownConversation = errors.New("unknown conversation")
	// ErrBusy rejects a query while the conversation is still answering one.
	ErrBusy = errors.New("conversation busy")
)

const (
	QuotaAlertMessage      = "⚠️ **ALERTE SYSTÈME : Surcharge (Quota API).**\n\nLe nombre maximum de requêtes gratuites est atteint. Veuillez patienter une minute avant de relancer votre demande."
	SystemErrorMessage     = "⚠️ Erreur système. Veuillez réessayer."
	EmptyAnswerMessage     = "Je n'ai pas pu générer de réponse."
	GeneralKnowledgeSource = "Connaissances Générales (Hors GDO)"

	readingNoticeId = "sys-reading"
)

// Snapshot is what a presentation layer renders.
type Snapshot struct {
	Token      uint64                    `json:"token"`
	Messages   []chatModel.Message       `json:"messages"`
	Processing chatModel.ProcessingState `json:"processing"`
}

// Outcome reports how a submission ended. Reply is only set when the
// answer (or error message) was applied to the log.
type Outcome struct {
	Token  uint64
	Stale  bool
	Intent rag.Intent
	Reply  *chatModel.Message
}

// Coordinator owns one conversation. Every visible mutation goes through
// apply, which drops it when a reset happened after the submission began.
type Coordinator struct {
	id       string
	pipeline rag.Service
	messages chatModel.MessageLog
	logger   *logger_i.Logger

	mu         sync.Mutex
	token      uint64
	busy       bool
	processing chatModel.ProcessingState
}

func NewCoordinator(id string, pipeline rag.Service, messages chatModel.MessageLog) *Coordinator {
	return &Coordinator{
		id:         id,
		pipeline:   pipeline,
		messages:   messages,
		logger:     logger_i.NewLogger("session").With("conversationId", id),
		processing: chatModel.Idle(),
	}
}

func (c *Coordinator) Id() string {
	return c.id
}

// Reset invalidates every submission in flight and empties the conversation.
func (c *Coordinator) Reset(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.token++
	c.busy = false
	c.processing = chatModel.Idle()
	c.logger.WithTrace(ctx).Info("Conversation reset", "token", c.token)
	if err := c.messages.Clear(ctx, c.id); err != nil {
		return fmt.Errorf("clear messages: %w", err)
	}
	return nil
}

func (c *Coordinator) State(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	msgs, err := c.messages.List(ctx, c.id)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list messages: %w", err)
	}
	return Snapshot{Token: c.token, Messages: msgs, Processing: c.processing}, nil
}

// Submit runs query through the router and the answerer. Pipeline failures
// end as messages in the log; only ErrEmptyQuery, ErrBusy and storage errors
// are returned. One submission runs per token: a second one is rejected until
// the first posts its reply or a reset supersedes it.
func (c *Coordinator) Submit(ctx context.Context, query string) (Outcome, error) {
	if strings.TrimSpace(query) == "" {
		return Outcome{}, ErrEmptyQuery
	}
	log := c.logger.WithTrace(ctx)

	c.mu.Lock()
	token := c.token
	if c.busy {
		c.mu.Unlock()
		return Outcome{Token: token}, ErrBusy
	}
	history, err := c.messages.List(ctx, c.id)
	if err == nil {
		err = c.messages.Append(ctx, c.id, newMessage(chatModel.RoleUser, query, nil))
	}
	if err != nil {
		c.mu.Unlock()
		return Outcome{Token: token}, fmt.Errorf("record query: %w", err)
	}
	c.busy = true
	c.processing = chatModel.ProcessingState{Step: chatModel.StepRouting}
	c.mu.Unlock()

	out := Outcome{Token: token}
	defer c.apply(ctx, token, func() error {
		c.busy = false
		c.processing = chatModel.Idle()
		return nil
	})

	res, err := c.pipeline.Route(ctx, query, history)
	if err != nil {
		return c.fail(ctx, out, err), nil
	}
	out.Intent = res.Intent

	if !c.current(token) {
		log.Debug("Submission superseded after routing", "token", token)
		out.Stale = true
		return out, nil
	}

	switch {
	case res.Intent == rag.IntentTechnical && res.Document != nil:
		doc := res.Document
		c.apply(ctx, token, func() error {
			c.processing = chatModel.ProcessingState{Step: chatModel.StepReading, CurrentDocument: doc.Name}
			notice := newMessage(chatModel.RoleSystem, fmt.Sprintf("Consultation : %s...", doc.Name), nil)
			notice.Id = readingNoticeId
			return c.messages.Append(ctx, c.id, notice)
		})
	case res.Intent == rag.IntentGeneral:
		c.apply(ctx, token, func() error {
			c.processing = chatModel.ProcessingState{Step: chatModel.StepReasoning}
			return nil
		})
	}

	answer, err := c.pipeline.Answer(ctx, query, history, res)
	if err != nil {
		return c.fail(ctx, out, err), nil
	}
	if strings.TrimSpace(answer) == "" {
		answer = EmptyAnswerMessage
	}

	reply := newMessage(chatModel.RoleAssistant, answer, sourcesFor(res))
	return c.post(ctx, out, reply), nil
}

func (c *Coordinator) fail(ctx context.Context, out Outcome, cause error) Outcome {
	text := SystemErrorMessage
	if llm.IsQuota(cause) {
		text = QuotaAlertMessage
	}
	c.logger.WithTrace(ctx).Error("Submission failed", "error", cause, "quota", llm.IsQuota(cause))
	return c.post(ctx, out, newMessage(chatModel.RoleAssistant, text, nil))
}

// post replaces any notice with msg.
func (c *Coordinator) post(ctx context.Context, out Outcome, msg chatModel.Message) Outcome {
	applied := c.apply(ctx, out.Token, func() error {
		msgs, err := c.messages.List(ctx, c.id)
		if err != nil {
			return err
		}
		return c.messages.Replace(ctx, c.id, append(chatModel.WithoutNotices(msgs), msg))
	})
	if !applied {
		out.Stale = true
		return out
	}
	out.Reply = &msg
	return out
}

// apply runs mutate under the lock when token is still live. It reports
// whether the mutation was attempted.
func (c *Coordinator) apply(ctx context.Context, token uint64, mutate func() error) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if token != c.token {
		metrics.IncrementStaleDropped()
		return false
	}
	if err := mutate(); err != nil {
		c.logger.WithTrace(ctx).Error("Could not update conversation", "error", err)
	}
	return true
}

func (c *Coordinator) current(token uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return token == c.token
}

func sourcesFor(res rag.RouterResult) []string {
	if res.Intent != rag.IntentTechnical {
		return nil
	}
	if res.Document != nil {
		return []string{res.Document.Name}
	}
	return []string{GeneralKnowledgeSource}
}

func newMessage(role chatModel.Role, content string, sources []string) chatModel.Message {
	return chatModel.Message{
		Id:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
		Sources:   sources,
	}
}
