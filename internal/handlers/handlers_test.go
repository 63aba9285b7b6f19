package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/akolanti/SecoursTech/internal/api"
	"github.com/akolanti/SecoursTech/internal/catalogue"
	"github.com/akolanti/SecoursTech/internal/data/store"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
	"github.com/akolanti/SecoursTech/internal/job"
	"github.com/akolanti/SecoursTech/internal/rag/document"
	"github.com/akolanti/SecoursTech/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockStore struct {
	OnOpen func(ctx context.Context, canonicalPath string) ([]byte, error)
}

func (m *MockStore) Open(ctx context.Context, canonicalPath string) ([]byte, error) {
	return m.OnOpen(ctx, canonicalPath)
}

func newTestRouter(t *testing.T) (*chi.Mux, *job.Service) {
	t.Helper()
	svc := job.InitJobService(job.ServiceConfig{
		JobChannel:        make(chan jobModel.Job, 16),
		DispatcherChannel: make(chan bool, 16),
		JobStore:          store.InitInMemoryJobStore(),
		Sessions:          session.NewManager(nil, store.InitInMemoryMessageLog()),
	})
	prev := handlerInstance
	handlerInstance = &JobHandler{service: svc}
	t.Cleanup(func() { handlerInstance = prev })

	r := chi.NewRouter()
	r.Post("/conversations", CreateConversationHandler)
	r.Get("/conversations/{id}", GetConversationHandler)
	r.Delete("/conversations/{id}", DeleteConversationHandler)
	r.Post("/conversations/{id}/messages", PostMessageHandler)
	r.Post("/conversations/{id}/reset", ResetConversationHandler)
	r.Get("/status/{id}", GetStatusHandler)
	r.Get("/documents", ListDocumentsHandler)
	r.Get("/documents/{id}/file", GetDocumentFileHandler)
	return r, svc
}

func do(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func createConversation(t *testing.T, r http.Handler) api.ConversationResponse {
	t.Helper()
	rec := do(r, http.MethodPost, "/conversations", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	var conv api.ConversationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&conv))
	return conv
}

func TestConversationLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	conv := createConversation(t, r)
	assert.NotEmpty(t, conv.Id)
	assert.Equal(t, "idle", conv.Processing.Step)

	rec := do(r, http.MethodGet, "/conversations/"+conv.Id, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, http.MethodPost, "/conversations/"+conv.Id+"/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var reset api.ConversationResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&reset))
	assert.Equal(t, uint64(1), reset.Token)

	rec = do(r, http.MethodDelete, "/conversations/"+conv.Id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/conversations/"+conv.Id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = do(r, http.MethodDelete, "/conversations/"+conv.Id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostMessage(t *testing.T) {
	r, svc := newTestRouter(t)
	conv := createConversation(t, r)

	tests := []struct {
		name     string
		target   string
		body     string
		wantCode int
	}{
		{"queued", "/conversations/" + conv.Id + "/messages", `{"message":"Feu de forêt ?"}`, http.StatusAccepted},
		{"blank message", "/conversations/" + conv.Id + "/messages", `{"message":"   "}`, http.StatusBadRequest},
		{"malformed body", "/conversations/" + conv.Id + "/messages", `{"message":`, http.StatusBadRequest},
		{"unknown conversation", "/conversations/nope/messages", `{"message":"x"}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, http.MethodPost, tt.target, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}

	require.Len(t, svc.JobChannel, 1)
	queued := <-svc.JobChannel
	assert.Equal(t, conv.Id, queued.ConversationId)
	assert.Equal(t, "Feu de forêt ?", queued.JobPayload.Question)

	rec := do(r, http.MethodGet, "/status/"+queued.Id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status api.JobResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, string(jobModel.JobStatusQueued), status.Result.Status)

	rec = do(r, http.MethodGet, "/status/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDocuments(t *testing.T) {
	r, _ := newTestRouter(t)
	cat, err := catalogue.Default()
	require.NoError(t, err)
	doc := cat.All()[0]

	tests := []struct {
		name     string
		id       string
		open     func(context.Context, string) ([]byte, error)
		wantCode int
	}{
		{"served", doc.Id, func(context.Context, string) ([]byte, error) { return []byte("%PDF-1.4"), nil }, http.StatusOK},
		{"missing file", doc.Id, func(context.Context, string) ([]byte, error) { return nil, document.ErrNotFound }, http.StatusNotFound},
		{"store down", doc.Id, func(context.Context, string) ([]byte, error) { return nil, errors.New("dial tcp: refused") }, http.StatusBadGateway},
		{"unknown id", "nope", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitDocumentHandler(cat, &MockStore{OnOpen: tt.open})
			rec := do(r, http.MethodGet, "/documents/"+tt.id+"/file", "")
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
				assert.Equal(t, "%PDF-1.4", rec.Body.String())
			}
		})
	}

	rec := do(r, http.MethodGet, "/documents", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list []api.DocumentResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Len(t, list, cat.Len())
}
