package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/akolanti/SecoursTech/internal/adapter"
	"github.com/akolanti/SecoursTech/internal/config"
	"github.com/akolanti/SecoursTech/internal/domain/jobModel"
)

func writeJsonResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// headers are gone, nothing left but logging
		logRH.Error("Error encoding response", "error", err)
	}
}

func traceId(ctx context.Context) string {
	trace, _ := ctx.Value(config.TRACE_ID_KEY).(string)
	return trace
}

func validateId(id string, trace string) (result jobModel.Job, isFound bool) {
	if id == "" {
		logRH.Warn("Empty submission id")
		return jobModel.Job{}, false
	}
	return GetJobStatus(id, trace)
}

func validateContext(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		logRH.WithTrace(ctx).Warn("context error", "error", err)
		return false
	}
	return true
}

func WriteErrorResponse(w http.ResponseWriter, httpCode int, id string, message string) {
	writeJsonResponse(w, httpCode, adapter.BadRequest(id, message, httpCode))
}
