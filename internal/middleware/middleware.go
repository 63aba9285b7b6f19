package middleware

import (
	"net/http"
	"strconv"

	"github.com/akolanti/SecoursTech/internal/handlers"
	"github.com/akolanti/SecoursTech/internal/metrics"
	"github.com/akolanti/SecoursTech/pkg/logger_i"
	"github.com/go-chi/chi/v5"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	errorMessage string
}

var (
	GetHandler = Wrap(handlers.GetHandler)

	CreateConversationHandler = Wrap(handlers.CreateConversationHandler)
	GetConversationHandler    = Wrap(handlers.GetConversationHandler)
	DeleteConversationHandler = Wrap(handlers.DeleteConversationHandler)
	ResetConversationHandler  = Wrap(handlers.ResetConversationHandler)
	PostMessageHandler        = Wrap(handlers.PostMessageHandler)
	GetStatusHandler          = Wrap(handlers.GetStatusHandler)
	ListDocumentsHandler      = Wrap(handlers.ListDocumentsHandler)
	GetDocumentFileHandler    = Wrap(handlers.GetDocumentFileHandler)
)

var mwLogger = logger_i.NewLogger("middleware")

func Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := &metrics.HttpStatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		re := processRequest(requestResponseStruct{req: r, writer: rec})

		if !re.badRequest.isBadRequest {
			next(rec, re.req)
		}

		metrics.HttpRequestsTotal.WithLabelValues(routePattern(r), strconv.Itoa(rec.Status)).Inc()
	}
}

// routePattern keeps metric labels bounded: ids are replaced by the chi pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

func processRequest(re requestResponseStruct) requestResponseStruct {
	re.logger = mwLogger
	re = injectTrace(re)
	if !handleBadRequest(re) {
		return re
	}
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)
	re = authenticate(re)
	if !handleBadRequest(re) {
		return re
	}
	re = rateLimiter(re)
	handleBadRequest(re)
	return re
}
