package rag_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/akolanti/SecoursTech/internal/catalogue"
	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/domain/chatModel"
	"github.com/akolanti/SecoursTech/internal/domain/commonModels"
	"github.com/akolanti/SecoursTech/internal/rag"
	"github.com/akolanti/SecoursTech/internal/rag/document"
	"github.com/akolanti/SecoursTech/internal/rag/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const forestFile = "GDO-Feux-Forets-Espaces-Naturels.pdf"

func testCatalogue(t *testing.T) *catalogue.Catalogue {
	t.Helper()
	cat, err := catalogue.Default()
	require.NoError(t, err)
	return cat
}

func testContext() context.Context {
	return context.WithValue(context.Background(), config.TRACE_ID_KEY, "test-trace")
}

func routingJSON(intent rag.Intent, filename string) string {
	if filename == "" {
		return fmt.Sprintf(`{"type":%q,"relevantFilename":null}`, intent)
	}
	return fmt.Sprintf(`{"type":%q,"relevantFilename":%q}`, intent, filename)
}

func TestRoute_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		reply      string
		replyErr   error
		wantIntent rag.Intent
		wantDoc    string
		wantQuota  bool
	}{
		{
			name:       "Chitchat",
			reply:      routingJSON(rag.IntentChitChat, ""),
			wantIntent: rag.IntentChitChat,
		},
		{
			name:       "Off_Topic_Drops_Filename",
			reply:      routingJSON(rag.IntentOffTopic, forestFile),
			wantIntent: rag.IntentOffTopic,
		},
		{
			name:       "Technical_With_Catalogue_File",
			reply:      routingJSON(rag.IntentTechnical, forestFile),
			wantIntent: rag.IntentTechnical,
			wantDoc:    "GDO Feux de Forêts",
		},
		{
			name:       "Technical_Unknown_File_Downgrades",
			reply:      routingJSON(rag.IntentTechnical, "GDO-Inexistant.pdf"),
			wantIntent: rag.IntentGeneral,
		},
		{
			name:       "Technical_Filename_Is_Case_Sensitive",
			reply:      routingJSON(rag.IntentTechnical, "gdo-feux-forets-espaces-naturels.pdf"),
			wantIntent: rag.IntentGeneral,
		},
		{
			name:       "Technical_Without_File_Stays_Technical",
			reply:      routingJSON(rag.IntentTechnical, ""),
			wantIntent: rag.IntentTechnical,
		},
		{
			name:       "Unknown_Label_Is_General",
			reply:      `{"type":"WEATHER"}`,
			wantIntent: rag.IntentGeneral,
		},
		{
			name:       "Malformed_JSON_Falls_Back",
			reply:      "not json",
			wantIntent: rag.IntentGeneral,
		},
		{
			name:       "Backend_Failure_Falls_Back",
			replyErr:   llm.Wrap(errors.New("503 unavailable"), false),
			wantIntent: rag.IntentGeneral,
		},
		{
			name:      "Quota_Propagates",
			replyErr:  llm.Wrap(errors.New("429 Too Many Requests"), false),
			wantQuota: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mLLM := &MockLLM{OnGenerate: func(ctx context.Context, req llm.Request) (string, error) {
				return tt.reply, tt.replyErr
			}}
			r := rag.NewRouter(mLLM, testCatalogue(t), config.GeminiModelName, config.RouterDegradedThreshold)

			res, err := r.Route(testContext(), "question", nil)

			assert.Equal(t, 1, mLLM.Calls())
			if tt.wantQuota {
				require.Error(t, err)
				assert.ErrorIs(t, err, llm.ErrQuotaExceeded)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantIntent, res.Intent)
			if tt.wantDoc == "" {
				assert.Nil(t, res.Document)
			} else {
				require.NotNil(t, res.Document)
				assert.Equal(t, tt.wantDoc, res.Document.Name)
			}
		})
	}
}

func TestRoute_PromptCarriesContext(t *testing.T) {
	mLLM := &MockLLM{OnGenerate: func(ctx context.Context, req llm.Request) (string, error) {
		return routingJSON(rag.IntentGeneral, ""), nil
	}}
	r := rag.NewRouter(mLLM, testCatalogue(t), "model-x", 0)

	history := []chatModel.Message{
		{Role: chatModel.RoleUser, Content: "Comment fonctionne un ARI ?"},
		{Role: chatModel.RoleSystem, Content: "Consultation : GDO..."},
		{Role: chatModel.RoleAssistant, Content: "L'ARI est un appareil respiratoire isolant."},
	}
	_, err := r.Route(testContext(), "Et le manomètre ?", history)
	require.NoError(t, err)

	req := mLLM.Requests[0]
	assert.Equal(t, "model-x", req.Model)
	require.NotNil(t, req.Schema)
	require.Len(t, req.Turns, 1)
	prompt := req.Turns[0].Text
	assert.Contains(t, prompt, `CURRENT User Query: "Et le manomètre ?"`)
	assert.Contains(t, prompt, `User: "Comment fonctionne un ARI ?"`)
	assert.Contains(t, prompt, fmt.Sprintf("ID: %q - Content: GDO Feux de Forêts", forestFile))
	assert.NotContains(t, prompt, "Consultation : GDO")
}

func TestRoute_DegradedStreakResetsOnSuccess(t *testing.T) {
	fail := true
	mLLM := &MockLLM{OnGenerate: func(ctx context.Context, req llm.Request) (string, error) {
		if fail {
			return "", llm.Wrap(errors.New("boom"), false)
		}
		return routingJSON(rag.IntentChitChat, ""), nil
	}}
	r := rag.NewRouter(mLLM, testCatalogue(t), "", 2)

	for i := 0; i < 3; i++ {
		_, err := r.Route(testContext(), "q", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, r.FallbackStreak())

	fail = false
	_, err := r.Route(testContext(), "q", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, r.FallbackStreak())
}

func TestAnswer_Scenarios(t *testing.T) {
	cat := testCatalogue(t)
	forest, ok := cat.ByFilename(forestFile)
	require.True(t, ok)

	quotaErr := llm.Wrap(errors.New("RESOURCE_EXHAUSTED"), true)

	tests := []struct {
		name        string
		res         rag.RouterResult
		setupMocks  func(l *MockLLM, f *MockFetcher)
		wantAnswer  string
		wantErr     error
		wantLLM     int
		wantFetches int
	}{
		{
			name:       "Off_Topic_Makes_No_Calls",
			res:        rag.RouterResult{Intent: rag.IntentOffTopic},
			wantAnswer: rag.OffTopicRefusal,
		},
		{
			name:       "Chitchat_Persona",
			res:        rag.RouterResult{Intent: rag.IntentChitChat},
			wantAnswer: "mocked llm response",
			wantLLM:    1,
		},
		{
			name:       "Technical_Without_Document_Uses_General",
			res:        rag.RouterResult{Intent: rag.IntentTechnical},
			wantAnswer: "mocked llm response",
			wantLLM:    1,
		},
		{
			name: "General_Quota_Propagates",
			res:  rag.RouterResult{Intent: rag.IntentGeneral},
			setupMocks: func(l *MockLLM, f *MockFetcher) {
				l.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) { return "", quotaErr }
			},
			wantErr: llm.ErrQuotaExceeded,
			wantLLM: 1,
		},
		{
			name: "General_Backend_Error_Text",
			res:  rag.RouterResult{Intent: rag.IntentGeneral},
			setupMocks: func(l *MockLLM, f *MockFetcher) {
				l.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) {
					return "", llm.Wrap(errors.New("500"), false)
				}
			},
			wantAnswer: rag.APIErrorMessage,
			wantLLM:    1,
		},
		{
			name: "Grounded_Success",
			res:  rag.RouterResult{Intent: rag.IntentTechnical, Document: &forest},
			setupMocks: func(l *MockLLM, f *MockFetcher) {
				l.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) { return "grounded answer", nil }
			},
			wantAnswer:  "grounded answer",
			wantLLM:     1,
			wantFetches: 1,
		},
		{
			name: "Grounded_Missing_Document",
			res:  rag.RouterResult{Intent: rag.IntentTechnical, Document: &forest},
			setupMocks: func(l *MockLLM, f *MockFetcher) {
				f.OnFetch = func(ctx context.Context, doc commonModels.Document) (document.Payload, error) {
					return document.Payload{}, document.ErrNotFound
				}
			},
			wantAnswer:  rag.GroundedErrorMessage,
			wantFetches: 1,
		},
		{
			name: "Grounded_Quota_Message",
			res:  rag.RouterResult{Intent: rag.IntentTechnical, Document: &forest},
			setupMocks: func(l *MockLLM, f *MockFetcher) {
				l.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) { return "", quotaErr }
			},
			wantAnswer:  rag.GroundedQuotaMessage,
			wantLLM:     1,
			wantFetches: 1,
		},
		{
			name: "Grounded_Backend_Error",
			res:  rag.RouterResult{Intent: rag.IntentTechnical, Document: &forest},
			setupMocks: func(l *MockLLM, f *MockFetcher) {
				l.OnGenerate = func(ctx context.Context, req llm.Request) (string, error) {
					return "", llm.Wrap(errors.New("bad gateway"), false)
				}
			},
			wantAnswer:  rag.GroundedErrorMessage,
			wantLLM:     1,
			wantFetches: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mLLM := &MockLLM{}
			mFetch := &MockFetcher{}
			if tt.setupMocks != nil {
				tt.setupMocks(mLLM, mFetch)
			}
			a := rag.NewAnswerer(mLLM, mFetch, config.GeminiModelName)

			got, err := a.Answer(testContext(), "question", nil, tt.res)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantAnswer, got)
			}
			assert.Equal(t, tt.wantLLM, mLLM.Calls(), "backend calls")
			assert.Equal(t, tt.wantFetches, mFetch.Calls(), "fetches")
		})
	}
}

func TestAnswer_GroundedRequestShape(t *testing.T) {
	cat := testCatalogue(t)
	forest, _ := cat.ByFilename(forestFile)
	mLLM := &MockLLM{}
	a := rag.NewAnswerer(mLLM, &MockFetcher{}, "")

	history := []chatModel.Message{
		{Role: chatModel.RoleUser, Content: "Bonjour"},
		{Role: chatModel.RoleAssistant, Content: "Bonjour. Prêt pour instructions."},
	}
	_, err := a.Answer(testContext(), "Quelle est la procédure pour les feux de forêt ?", history,
		rag.RouterResult{Intent: rag.IntentTechnical, Document: &forest})
	require.NoError(t, err)

	req := mLLM.Requests[0]
	assert.Empty(t, req.Turns)
	assert.Contains(t, req.SystemInstruction, "Ta source prioritaire est le document : GDO Feux de Forêts.")
	assert.Contains(t, req.SystemInstruction, "(Selon connaissances générales/véhicules standards)")
	require.Len(t, req.Parts, 3)
	assert.Contains(t, req.Parts[0].Text, "Question Précédente: Bonjour")
	require.NotNil(t, req.Parts[1].Attachment)
	assert.Equal(t, "application/pdf", req.Parts[1].Attachment.MIMEType)
	assert.Equal(t, "NOUVELLE QUESTION OPÉRATIONNELLE: Quelle est la procédure pour les feux de forêt ?", req.Parts[2].Text)
}

func TestAnswer_TurnListEndsWithQuery(t *testing.T) {
	mLLM := &MockLLM{}
	a := rag.NewAnswerer(mLLM, &MockFetcher{}, "")

	history := make([]chatModel.Message, 0, 14)
	for i := 0; i < 14; i++ {
		role := chatModel.RoleUser
		if i%2 == 1 {
			role = chatModel.RoleAssistant
		}
		history = append(history, chatModel.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
	}
	_, err := a.Answer(testContext(), "Qui es-tu ?", history, rag.RouterResult{Intent: rag.IntentChitChat})
	require.NoError(t, err)

	req := mLLM.Requests[0]
	require.Len(t, req.Turns, rag.TurnWindow+1)
	assert.Equal(t, "m4", req.Turns[0].Text)
	assert.Equal(t, llm.Turn{Role: llm.RoleUser, Text: "Qui es-tu ?"}, req.Turns[len(req.Turns)-1])
	assert.Contains(t, req.SystemInstruction, "IDENTITÉ : Tu es SecoursTech.")
}

func TestService_RouteThenAnswer(t *testing.T) {
	mLLM := &MockLLM{OnGenerate: func(ctx context.Context, req llm.Request) (string, error) {
		if req.Schema != nil {
			return routingJSON(rag.IntentTechnical, forestFile), nil
		}
		return "Réponse issue du GDO", nil
	}}
	mFetch := &MockFetcher{}
	s := rag.NewService(mLLM, mFetch, testCatalogue(t), rag.Options{Model: config.GeminiModelName})

	res, err := s.Route(testContext(), "Quelle est la procédure pour les feux de forêt ?", nil)
	require.NoError(t, err)
	require.NotNil(t, res.Document)

	ans, err := s.Answer(testContext(), "Quelle est la procédure pour les feux de forêt ?", nil, res)
	require.NoError(t, err)
	assert.Equal(t, "Réponse issue du GDO", ans)
	assert.Equal(t, 2, mLLM.Calls())
	assert.Equal(t, 1, mFetch.Calls())
}
