package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/akolanti/SecoursTech/internal/adapter"
	"github.com/akolanti/SecoursTech/internal/adapter/utils"
	"github.com/akolanti/SecoursTech/internal/catalogue"
	"github.com/akolanti/SecoursTech/internal/rag/document"
)

var documents struct {
	catalogue *catalogue.Catalogue
	store     document.Store
}

func InitDocumentHandler(cat *catalogue.Catalogue, store document.Store) {
	documents.catalogue = cat
	documents.store = store
}

// ListDocumentsHandler godoc
// @Summary      List procedure documents
// @Description  Returns the catalogue the router chooses from.
// @Tags         Documents
// @Produce      json
// @Success      200  {array}  api.DocumentResponse
// @Router       /documents [get]
func ListDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	if documents.catalogue == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, "", "Service not ready")
		return
	}
	writeJsonResponse(w, http.StatusOK, adapter.ToDocumentResponses(documents.catalogue.All()))
}

// GetDocumentFileHandler godoc
// @Summary      Download a procedure PDF
// @Description  Streams the raw document for the viewer.
// @Tags         Documents
// @Produce      application/pdf
// @Param        id   path      string  true  "Document ID"
// @Success      200  {file}    file
// @Failure      404  {object}  api.ErrorResponse
// @Failure      502  {object}  api.ErrorResponse
// @Router       /documents/{id}/file [get]
func GetDocumentFileHandler(w http.ResponseWriter, r *http.Request) {
	if !validateContext(r.Context()) {
		return
	}
	id := utils.GetChiURLParam(r, "id")
	if documents.catalogue == nil || documents.store == nil {
		WriteErrorResponse(w, http.StatusServiceUnavailable, id, "Service not ready")
		return
	}
	doc, ok := documents.catalogue.ById(id)
	if !ok {
		WriteErrorResponse(w, http.StatusNotFound, id, "Document not found")
		return
	}

	raw, err := documents.store.Open(r.Context(), document.Canonicalize(doc.Path))
	switch {
	case errors.Is(err, document.ErrNotFound):
		logRH.WithTrace(r.Context()).Error("Catalogued document missing from store", "path", doc.Path)
		WriteErrorResponse(w, http.StatusNotFound, id, "Document file missing")
		return
	case err != nil:
		logRH.WithTrace(r.Context()).Error("Document store failure", "error", err)
		WriteErrorResponse(w, http.StatusBadGateway, id, "Document store unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.Header().Set("Content-Disposition", "inline; filename=\""+doc.Filename+"\"")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(raw); err != nil {
		logRH.WithTrace(r.Context()).Warn("Could not write document", "error", err)
	}
}
