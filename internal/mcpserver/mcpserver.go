package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/akolanti/SecoursTech/internal/session"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "secourstech"

type AskInput struct {
	Question       string `json:"question" jsonschema:"the firefighter's question, in French"`
	ConversationId string `json:"conversation_id,omitempty" jsonschema:"conversation to continue; a new one is opened when empty"`
}

type AskOutput struct {
	ConversationId string   `json:"conversation_id"`
	Answer         string   `json:"answer"`
	Intent         string   `json:"intent,omitempty"`
	Sources        []string `json:"sources,omitempty"`
	Stale          bool     `json:"stale,omitempty"`
}

type ResetInput struct {
	ConversationId string `json:"conversation_id" jsonschema:"conversation to clear"`
}

type ResetOutput struct {
	ConversationId string `json:"conversation_id"`
	Token          uint64 `json:"token"`
}

// Tools exposes conversations to MCP clients.
type Tools struct {
	sessions *session.Manager
	logger   *logger_i.Logger
}

func NewTools(sessions *session.Manager) *Tools {
	return &Tools{sessions: sessions, logger: logger_i.NewLogger("mcp")}
}

// Server registers the ask and reset tools on a new MCP server.
func (t *Tools) Server(version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask the firefighting assistant a question. Answers are grounded in the GDO procedure documents when one applies.",
	}, t.Ask)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset",
		Description: "Clear a conversation. Answers still being computed for it are discarded.",
	}, t.Reset)
	return server
}

// Run serves the tools over stdio until ctx is done or the client leaves.
func (t *Tools) Run(ctx context.Context, version string) error {
	t.logger.Info("MCP server starting on stdio")
	return t.Server(version).Run(ctx, &mcp.StdioTransport{})
}

func (t *Tools) Ask(ctx context.Context, _ *mcp.CallToolRequest, in AskInput) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(in.Question) == "" {
		return nil, AskOutput{}, session.ErrEmptyQuery
	}

	var c *session.Coordinator
	if in.ConversationId == "" {
		c = t.sessions.Create()
	} else {
		c = t.sessions.Open(in.ConversationId)
	}

	out, err := c.Submit(ctx, in.Question)
	if err != nil {
		t.logger.WithTrace(ctx).Error("Ask failed", "conversationId", c.Id(), "error", err)
		return nil, AskOutput{}, fmt.Errorf("ask: %w", err)
	}

	res := AskOutput{ConversationId: c.Id(), Intent: string(out.Intent), Stale: out.Stale}
	if out.Reply != nil {
		res.Answer = out.Reply.Content
		res.Sources = out.Reply.Sources
	}
	return nil, res, nil
}

func (t *Tools) Reset(ctx context.Context, _ *mcp.CallToolRequest, in ResetInput) (*mcp.CallToolResult, ResetOutput, error) {
	c, err := t.sessions.Get(ctx, in.ConversationId)
	if err != nil {
		return nil, ResetOutput{}, fmt.Errorf("conversation %q: %w", in.ConversationId, err)
	}
	if err := c.Reset(ctx); err != nil {
		return nil, ResetOutput{}, fmt.Errorf("reset: %w", err)
	}
	snap, err := c.State(ctx)
	if err != nil {
		return nil, ResetOutput{}, err
	}
	return nil, ResetOutput{ConversationId: c.Id(), Token: snap.Token}, nil
}
