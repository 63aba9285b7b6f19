package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/akolanti/SecoursTech/internal/adapter"
	"github.com/akolanti/SecoursTech/internal/adapter/utils"
	"github.com/akolanti/SecoursTech/internal/api"
	"github.com/akolanti/SecoursTech/internal/session"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
)

var logRH = logger_i.NewLogger("request_handler")

const maxMessageBytes = 16 << 10

func GetHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func sessions() *session.Manager {
	if handlerInstance == nil {
		return nil
	}
	return handlerInstance.service.Sessions
}

// CreateConversationHandler godoc
// @Summary      Open a conversation
// @Description  Creates an empty conversation and returns its id.
// @Tags         Conversations
// @Produce      json
// @Success      201  {object}  api.ConversationResponse
// @Failure      503  {object}  api.ErrorResponse
// @Router       /conversations [post]
func CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	m := sessions()
	if m == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Service not ready")
		return
	}
	c := m.Create()
	snap, err := c.State(r.Context())
	if err != nil {
		logRH.WithTrace(r.Context()).Error("Could not read new conversation", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, c.Id(), "Storage error")
		return
	}
	logRH.WithTrace(r.Context()).Info("Conversation created", "conversationId", c.Id())
	writeJsonResponse(w, http.StatusCreated, adapter.ToConversationResponse(c.Id(), snap))
}

// GetConversationHandler godoc
// @Summary      Get a conversation
// @Description  Returns the visible messages and the processing state of a conversation.
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  api.ConversationResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /conversations/{id} [get]
func GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	c, ok := lookupConversation(w, r)
	if !ok {
		return
	}
	snap, err := c.State(r.Context())
	if err != nil {
		logRH.WithTrace(r.Context()).Error("Could not read conversation", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, c.Id(), "Storage error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToConversationResponse(c.Id(), snap))
}

// DeleteConversationHandler godoc
// @Summary      Delete a conversation
// @Description  Drops the conversation; answers still in flight are discarded.
// @Tags         Conversations
// @Param        id   path      string  true  "Conversation ID"
// @Success      204
// @Failure      404  {object}  api.ErrorResponse
// @Router       /conversations/{id} [delete]
func DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	m := sessions()
	id := utils.GetChiURLParam(r, "id")
	if m == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "Service not ready")
		return
	}
	err := m.Delete(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrUnknownConversation):
		WriteErrorResponse(w, http.StatusNotFound, id, "Conversation not found")
	case err != nil:
		logRH.WithTrace(r.Context()).Error("Could not delete conversation", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Storage error")
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// ResetConversationHandler godoc
// @Summary      Reset a conversation
// @Description  Clears the messages; any answer still being computed for it will never be shown.
// @Tags         Conversations
// @Produce      json
// @Param        id   path      string  true  "Conversation ID"
// @Success      200  {object}  api.ConversationResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /conversations/{id}/reset [post]
func ResetConversationHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	c, ok := lookupConversation(w, r)
	if !ok {
		return
	}
	if err := c.Reset(r.Context()); err != nil {
		logRH.WithTrace(r.Context()).Error("Reset failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, c.Id(), "Storage error")
		return
	}
	snap, err := c.State(r.Context())
	if err != nil {
		WriteErrorResponse(w, http.StatusInternalServerError, c.Id(), "Storage error")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToConversationResponse(c.Id(), snap))
}

// PostMessageHandler godoc
// @Summary      Ask a question
// @Description  Queues the question for the conversation and returns a submission id to poll.
// @Tags         Conversations
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Conversation ID"
// @Param        request  body      api.MessageRequest  true  "Question"
// @Success      202      {object}  api.InitJobResponse
// @Failure      400      {object}  api.ErrorResponse
// @Failure      404      {object}  api.ErrorResponse
// @Router       /conversations/{id}/messages [post]
func PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	c, ok := lookupConversation(w, r)
	if !ok {
		return
	}

	var requestData api.MessageRequest
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxMessageBytes)).Decode(&requestData); err != nil {
		logRH.WithTrace(r.Context()).Warn("Bad message request", "error", err)
		WriteErrorResponse(w, http.StatusBadRequest, c.Id(), "Bad Request")
		return
	}
	if strings.TrimSpace(requestData.Message) == "" {
		WriteErrorResponse(w, http.StatusBadRequest, c.Id(), session.ErrEmptyQuery.Error())
		return
	}

	newJob := newJobData{
		id:             utils.GetNewUUID(),
		conversationId: c.Id(),
		message:        requestData.Message,
		traceId:        traceId(r.Context()),
	}
	CreateNewJob(newJob)
	writeJsonResponse(w, http.StatusAccepted, adapter.ToInitJobResponse(newJob.id))
}

// GetStatusHandler godoc
// @Summary      Get submission status
// @Description  Retrieves the state of a queued question. STALE means a reset superseded it.
// @Tags         Job Status
// @Produce      json
// @Param        id   path      string  true  "Submission ID"
// @Success      200  {object}  api.JobResponse
// @Failure      404  {object}  api.ErrorResponse
// @Router       /status/{id} [get]
func GetStatusHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	idString := utils.GetChiURLParam(r, "id")
	result, isFound := validateId(idString, traceId(r.Context()))
	if !isFound {
		WriteErrorResponse(w, http.StatusNotFound, idString, "Submission not found")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToAPIResponse(result))
}

func lookupConversation(w http.ResponseWriter, r *http.Request) (*session.Coordinator, bool) {
	id := utils.GetChiURLParam(r, "id")
	m := sessions()
	if m == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "Service not ready")
		return nil, false
	}
	c, err := m.Get(r.Context(), id)
	switch {
	case errors.Is(err, session.ErrUnknownConversation):
		WriteErrorResponse(w, http.StatusNotFound, id, "Conversation not found")
		return nil, false
	case err != nil:
		logRH.WithTrace(r.Context()).Error("Could not look up conversation", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, id, "Storage error")
		return nil, false
	}
	return c, true
}
