package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/jayanthvn/taxmate/internal/db"
	"github.com/jayanthvn/taxmate/internal/extraction"
	"github.com/jayanthvn/taxmate/internal/server/middleware"
	"github.com/jayanthvn/taxmate/internal/types"
)

// maxUploadBytes is the upload size limit for document files.
const maxUploadBytes = 10 << 20

// allowedMimeTypes lists the document formats accepted for upload.
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
}

// uploadedDocument is the upload response payload: the persisted record
// with the dispatched workflow's status folded in.
type uploadedDocument struct {
	*types.DocumentRecord
	WorkflowStatus types.WorkflowStatus `json:"workflowStatus"`
}

// handleUploadDocument accepts a multipart upload, stores the file and
// dispatches the processing workflow.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	// Leave headroom for the multipart framing around the 10MB file.
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			s.errorResponse(w, http.StatusBadRequest, "File size must be less than 10MB")
			return
		}
		s.errorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Failed to read file")
		return
	}
	if len(data) > maxUploadBytes {
		s.errorResponse(w, http.StatusBadRequest, "File size must be less than 10MB")
		return
	}
	if len(data) == 0 {
		s.errorResponse(w, http.StatusBadRequest, "No file provided")
		return
	}

	// The file's actual content decides, not the client-supplied header.
	if !allowedMimeTypes[extraction.DetectMimeType(data)] {
		s.errorResponse(w, http.StatusBadRequest, "Only PDF, JPEG, PNG, and WebP files are supported")
		return
	}

	docType := types.ParseDocumentType(r.FormValue("type"))

	doc, run, err := s.docs.Upload(r.Context(), userID, header.Filename, data, docType)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to upload document")
		return
	}

	s.jsonResponse(w, http.StatusCreated, map[string]any{
		"document": uploadedDocument{DocumentRecord: doc, WorkflowStatus: run.Status},
	})
}

// handleListDocuments returns the caller's documents, newest first,
// reconciling any that are still processing.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	filters := db.DocumentFilters{}
	if t := r.URL.Query().Get("type"); t != "" {
		filters.Type = types.ParseDocumentType(t)
	}
	switch status := r.URL.Query().Get("status"); types.DocumentStatus(status) {
	case types.StatusProcessing, types.StatusProcessed, types.StatusError:
		filters.Status = types.DocumentStatus(status)
	case "":
	default:
		s.errorResponse(w, http.StatusBadRequest, "Invalid status filter")
		return
	}
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 1 {
			s.errorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filters.Limit = limit
	}

	docs, total, err := s.docs.List(r.Context(), userID, filters)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	if docs == nil {
		docs = []types.DocumentRecord{}
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"documents": docs,
		"total":     total,
	})
}

// handleGetDocument returns a single document, reconciled against its
// workflow.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid document id")
		return
	}

	doc, err := s.docs.Get(r.Context(), documentID, userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to get document")
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"document": doc})
}

// handleDeleteDocument removes a document record and its stored file.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.GetUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	documentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid document id")
		return
	}

	doc, err := s.docs.Delete(r.Context(), documentID, userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to delete document")
		return
	}
	if doc == nil {
		s.errorResponse(w, http.StatusNotFound, "Document not found")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"message": "Document deleted successfully"})
}
