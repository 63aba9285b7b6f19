package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"google.golang.org/genai"
)

type llmClient struct {
	client    *genai.Client
	modelName string
	timeout   time.Duration
	logger    *logger_i.Logger
}

func NewGeminiClient(ctx context.Context, apikey string, modelName string, timeout time.Duration, httpClient *http.Client) (llm.Provider, error) {
	logger := logger_i.NewLogger("llm_gemini")

	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apikey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		logger.Error("Error creating Gemini client", "error", err)
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	logger.Info("Gemini client created", "model", modelName)
	return &llmClient{client: c, modelName: modelName, timeout: timeout, logger: logger}, nil
}

func (c *llmClient) Generate(ctx context.Context, req llm.Request) (string, error) {
	log := c.logger.WithTrace(ctx)

	model := req.Model
	if model == "" {
		model = c.modelName
	}

	contents, err := toContents(req)
	if err != nil {
		return "", llm.Wrap(err, false)
	}

	contentConfig := &genai.GenerateContentConfig{}
	if req.SystemInstruction != "" {
		contentConfig.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{
				{Text: req.SystemInstruction},
			},
		}
	}
	if req.Schema != nil {
		contentConfig.ResponseMIMEType = "application/json"
		contentConfig.ResponseSchema = toSchema(req.Schema)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log.Debug("Calling Gemini", "model", model, "contents", len(contents), "structured", req.Schema != nil)
	result, err := c.client.Models.GenerateContent(ctx, model, contents, contentConfig)
	if err != nil {
		log.Error("Gemini generation failed", "error", err)
		return "", llm.Wrap(err, isQuotaError(err))
	}
	if result == nil {
		return "", llm.Wrap(errors.New("empty response"), false)
	}
	return result.Text(), nil
}

func toContents(req llm.Request) ([]*genai.Content, error) {
	if len(req.Parts) > 0 {
		parts := make([]*genai.Part, 0, len(req.Parts))
		for _, p := range req.Parts {
			if p.Attachment == nil {
				parts = append(parts, genai.NewPartFromText(p.Text))
				continue
			}
			data, err := base64.StdEncoding.DecodeString(p.Attachment.Data)
			if err != nil {
				return nil, fmt.Errorf("decode attachment %s: %w", p.Attachment.Name, err)
			}
			parts = append(parts, genai.NewPartFromBytes(data, p.Attachment.MIMEType))
		}
		return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, nil
	}

	contents := make([]*genai.Content, 0, len(req.Turns))
	for _, t := range req.Turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == llm.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents, nil
}

func toSchema(s *llm.Schema) *genai.Schema {
	props := make(map[string]*genai.Schema, len(s.Properties))
	for name, p := range s.Properties {
		prop := &genai.Schema{
			Type:        genai.TypeString,
			Description: p.Description,
			Enum:        p.Enum,
		}
		if p.Nullable {
			prop.Nullable = genai.Ptr(true)
		}
		props[name] = prop
	}
	return &genai.Schema{
		Type:       genai.TypeObject,
		Properties: props,
		Required:   s.Required,
	}
}

func isQuotaError(err error) bool {
	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == http.StatusTooManyRequests || apiErr.Status == "RESOURCE_EXHAUSTED"
	}
	return false
}
