package openaiLLM

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type llmClient struct {
	client    openai.Client
	modelName string
	timeout   time.Duration
	logger    *logger_i.Logger
}

func NewOpenAIClient(apikey string, modelName string, timeout time.Duration, httpClient *http.Client) llm.Provider {
	opts := []option.RequestOption{option.WithAPIKey(apikey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	logger := logger_i.NewLogger("llm_openai")
	logger.Info("OpenAI client created", "model", modelName)
	return &llmClient{
		client:    openai.NewClient(opts...),
		modelName: modelName,
		timeout:   timeout,
		logger:    logger,
	}
}

func (c *llmClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	log := c.logger.WithTrace(ctx)

	model := req.Model
	if model == "" {
		model = c.modelName
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: toMessages(req),
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Schema.Name,
					Schema: toJSONSchema(req.Schema),
				},
			},
		}
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log.Debug("Calling OpenAI", "model", model, "messages", len(params.Messages))
	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		log.Error("OpenAI generation failed", "error", err)
		return "", llm.Wrap(err, isQuotaError(err))
	}
	if len(resp.Choices) == 0 {
		return "", llm.Wrap(errors.New("no choices returned"), false)
	}
	return resp.Choices[0].Message.Content, nil
}

func toMessages(req llm.Request) []openai.ChatCompletionMessageParamUnion {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.SystemInstruction != "" {
		msgs = append(msgs, openai.SystemMessage(req.SystemInstruction))
	}

	if len(req.Parts) > 0 {
		parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(req.Parts))
		for _, p := range req.Parts {
			if p.Attachment == nil {
				parts = append(parts, openai.TextContentPart(p.Text))
				continue
			}
			parts = append(parts, openai.FileContentPart(openai.ChatCompletionContentPartFileFileParam{
				FileData: openai.String(fmt.Sprintf("data:%s;base64,%s", p.Attachment.MIMEType, p.Attachment.Data)),
				Filename: openai.String(p.Attachment.Name),
			}))
		}
		return append(msgs, openai.UserMessage(parts))
	}

	for _, t := range req.Turns {
		if t.Role == llm.RoleModel {
			msgs = append(msgs, openai.AssistantMessage(t.Text))
		} else {
			msgs = append(msgs, openai.UserMessage(t.Text))
		}
	}
	return msgs
}

func toJSONSchema(s *llm.Schema) map[string]any {
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		prop := map[string]any{"type": "string"}
		if p.Nullable {
			prop["type"] = []string{"string", "null"}
		}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		if len(p.Enum) > 0 {
			prop["enum"] = p.Enum
		}
		props[name] = prop
	}
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(s.Required) > 0 {
		schema["required"] = s.Required
	}
	return schema
}

func isQuotaError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == http.StatusTooManyRequests
	}
	return false
}
