package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayanthvn/taxmate/internal/types"
)

var pdfBytes = []byte("%PDF-1.4 test document")

func uploadDocument(t *testing.T, s *Server, userID uuid.UUID, filename string, data []byte, docType string) *httptest.ResponseRecorder {
	t.Helper()

	body, contentType := multipartUpload(t, filename, data, map[string]string{"type": docType})
	req := authedRequest(http.MethodPost, "/documents", body, userID)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.handleUploadDocument(rec, req)
	return rec
}

func TestUploadDocumentHandler(t *testing.T) {
	s, store, _ := newTestServer(t)
	userID := uuid.New()

	rec := uploadDocument(t, s, userID, "invoice.pdf", pdfBytes, "invoice")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Document struct {
			types.DocumentRecord
			WorkflowStatus types.WorkflowStatus `json:"workflowStatus"`
		} `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, userID, resp.Document.OwnerID)
	assert.Equal(t, "invoice.pdf", resp.Document.Name)
	assert.Equal(t, types.TypeInvoice, resp.Document.Type)
	assert.Equal(t, types.StatusProcessing, resp.Document.Status)
	assert.Equal(t, "application/pdf", resp.Document.MimeType)
	assert.NotEmpty(t, resp.Document.WorkflowID)
	assert.Equal(t, types.WorkflowRunning, resp.Document.WorkflowStatus)

	// Clients read camelCase keys off the document object itself.
	body := rec.Body.String()
	assert.Contains(t, body, `"workflowId"`)
	assert.Contains(t, body, `"workflowStatus":"RUNNING"`)
	assert.Contains(t, body, `"userId"`)
	assert.Contains(t, body, `"mimeType"`)
	assert.NotContains(t, body, `"workflow":{`)

	require.Len(t, store.docs, 1)
}

func TestUploadDocumentUnknownTypeDefaultsToOther(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := uploadDocument(t, s, uuid.New(), "scan.pdf", pdfBytes, "mystery")
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Document types.DocumentRecord `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.TypeOther, resp.Document.Type)
}

func TestUploadDocumentWithoutFile(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := uploadDocument(t, s, uuid.New(), "", nil, "invoice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No file provided")
}

func TestUploadDocumentRejectsUnsupportedFormat(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := uploadDocument(t, s, uuid.New(), "notes.txt", []byte("plain text notes"), "other")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Only PDF, JPEG, PNG, and WebP")
}

func TestUploadDocumentRejectsOversizedFile(t *testing.T) {
	s, _, _ := newTestServer(t)

	big := make([]byte, maxUploadBytes+1)
	copy(big, "%PDF-1.4")
	rec := uploadDocument(t, s, uuid.New(), "big.pdf", big, "invoice")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "less than 10MB")
}

func TestUploadDocumentPersistenceFailure(t *testing.T) {
	s, store, _ := newTestServer(t)
	store.createErr = fmt.Errorf("connection reset")

	rec := uploadDocument(t, s, uuid.New(), "invoice.pdf", pdfBytes, "invoice")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListDocumentsHandler(t *testing.T) {
	s, _, _ := newTestServer(t)
	userID := uuid.New()

	require.Equal(t, http.StatusCreated, uploadDocument(t, s, userID, "a.pdf", pdfBytes, "invoice").Code)
	require.Equal(t, http.StatusCreated, uploadDocument(t, s, userID, "b.pdf", pdfBytes, "receipt").Code)
	// Another user's document must not appear.
	require.Equal(t, http.StatusCreated, uploadDocument(t, s, uuid.New(), "c.pdf", pdfBytes, "invoice").Code)

	rec := httptest.NewRecorder()
	s.handleListDocuments(rec, authedRequest(http.MethodGet, "/documents", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Documents []types.DocumentRecord `json:"documents"`
		Total     int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Len(t, resp.Documents, 2)
}

func TestListDocumentsTypeFilter(t *testing.T) {
	s, _, _ := newTestServer(t)
	userID := uuid.New()

	require.Equal(t, http.StatusCreated, uploadDocument(t, s, userID, "a.pdf", pdfBytes, "invoice").Code)
	require.Equal(t, http.StatusCreated, uploadDocument(t, s, userID, "b.pdf", pdfBytes, "receipt").Code)

	rec := httptest.NewRecorder()
	s.handleListDocuments(rec, authedRequest(http.MethodGet, "/documents?type=receipt", nil, userID))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Documents []types.DocumentRecord `json:"documents"`
		Total     int                    `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, types.TypeReceipt, resp.Documents[0].Type)
}

func TestListDocumentsInvalidStatusFilter(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleListDocuments(rec, authedRequest(http.MethodGet, "/documents?status=bogus", nil, uuid.New()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListDocumentsEmptyResult(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	s.handleListDocuments(rec, authedRequest(http.MethodGet, "/documents", nil, uuid.New()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"documents":[]`)
}

func getDocument(t *testing.T, s *Server, userID uuid.UUID, documentID string) *httptest.ResponseRecorder {
	t.Helper()
	req := authedRequest(http.MethodGet, "/documents/"+documentID, nil, userID)
	req.SetPathValue("id", documentID)
	rec := httptest.NewRecorder()
	s.handleGetDocument(rec, req)
	return rec
}

func TestGetDocumentHandler(t *testing.T) {
	s, store, engine := newTestServer(t)
	userID := uuid.New()

	require.Equal(t, http.StatusCreated, uploadDocument(t, s, userID, "invoice.pdf", pdfBytes, "invoice").Code)

	var doc *types.DocumentRecord
	for _, d := range store.docs {
		doc = d
	}
	require.NotNil(t, doc)

	// The workflow finished; fetching the document reconciles it.
	endTime := time.Now()
	engine.executions[doc.WorkflowID] = types.WorkflowExecution{
		WorkflowID: doc.WorkflowID,
		Status:     types.WorkflowCompleted,
		EndTime:    &endTime,
		Output: &types.ExtractionOutput{
			ExtractedData:     map[string]any{"vendorName": "ABC Services Ltd."},
			ValidationResults: map[string]any{"isValid": true},
		},
	}

	rec := getDocument(t, s, userID, doc.ID.String())
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Document types.DocumentRecord `json:"document"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, types.StatusProcessed, resp.Document.Status)
	assert.Equal(t, "ABC Services Ltd.", resp.Document.ExtractedData["vendorName"])
}

func TestGetDocumentNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := getDocument(t, s, uuid.New(), uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDocumentInvalidID(t *testing.T) {
	s, _, _ := newTestServer(t)

	rec := getDocument(t, s, uuid.New(), "not-a-uuid")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteDocumentHandler(t *testing.T) {
	s, store, _ := newTestServer(t)
	userID := uuid.New()

	require.Equal(t, http.StatusCreated, uploadDocument(t, s, userID, "invoice.pdf", pdfBytes, "invoice").Code)

	var documentID uuid.UUID
	for id := range store.docs {
		documentID = id
	}

	req := authedRequest(http.MethodDelete, "/documents/"+documentID.String(), nil, userID)
	req.SetPathValue("id", documentID.String())
	rec := httptest.NewRecorder()
	s.handleDeleteDocument(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "deleted successfully")
	assert.Empty(t, store.docs)
}

func TestDeleteDocumentNotFound(t *testing.T) {
	s, _, _ := newTestServer(t)

	documentID := uuid.NewString()
	req := authedRequest(http.MethodDelete, "/documents/"+documentID, nil, uuid.New())
	req.SetPathValue("id", documentID)
	rec := httptest.NewRecorder()
	s.handleDeleteDocument(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadDocumentRequiresAuthContext(t *testing.T) {
	s, _, _ := newTestServer(t)

	body, contentType := multipartUpload(t, "invoice.pdf", pdfBytes, map[string]string{"type": "invoice"})
	req := httptest.NewRequest(http.MethodPost, "/documents", bytes.NewReader(body.Bytes()))
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	s.handleUploadDocument(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
