package server

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jayanthvn/taxmate/internal/config"
	"github.com/jayanthvn/taxmate/internal/db"
	"github.com/jayanthvn/taxmate/internal/documents"
	"github.com/jayanthvn/taxmate/internal/server/middleware"
	"github.com/jayanthvn/taxmate/internal/storage"
	"github.com/jayanthvn/taxmate/internal/types"
)

// fakeDocStore is an in-memory documents.Store. The mutex matters: the
// list handler reconciles documents from several goroutines.
type fakeDocStore struct {
	mu        sync.Mutex
	docs      map[uuid.UUID]*types.DocumentRecord
	createErr error
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[uuid.UUID]*types.DocumentRecord)}
}

func (f *fakeDocStore) CreateDocument(_ context.Context, doc *types.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	doc.ID = uuid.New()
	doc.Status = types.StatusProcessing
	doc.CreatedAt = time.Now()
	doc.UpdatedAt = doc.CreatedAt
	stored := *doc
	f.docs[doc.ID] = &stored
	return nil
}

func (f *fakeDocStore) SetWorkflowID(_ context.Context, documentID uuid.UUID, workflowID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if doc, ok := f.docs[documentID]; ok {
		doc.WorkflowID = workflowID
	}
	return nil
}

func (f *fakeDocStore) GetDocument(_ context.Context, documentID, ownerID uuid.UUID) (*types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok || doc.OwnerID != ownerID {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocStore) GetDocumentByWorkflowID(_ context.Context, workflowID string) (*types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, doc := range f.docs {
		if doc.WorkflowID == workflowID {
			copied := *doc
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeDocStore) ListDocuments(_ context.Context, ownerID uuid.UUID, filters db.DocumentFilters) ([]types.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var docs []types.DocumentRecord
	for _, doc := range f.docs {
		if doc.OwnerID != ownerID {
			continue
		}
		if filters.Type != "" && doc.Type != filters.Type {
			continue
		}
		if filters.Status != "" && doc.Status != filters.Status {
			continue
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

func (f *fakeDocStore) CountDocuments(ctx context.Context, ownerID uuid.UUID, filters db.DocumentFilters) (int, error) {
	docs, err := f.ListDocuments(ctx, ownerID, filters)
	return len(docs), err
}

func (f *fakeDocStore) ApplyWorkflowResult(_ context.Context, documentID uuid.UUID, status types.DocumentStatus, output *types.ExtractionOutput) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[documentID]
	if !ok || doc.Status != types.StatusProcessing {
		return false, nil
	}
	doc.Status = status
	if output != nil {
		doc.ExtractedData = output.ExtractedData
		doc.ValidationResults = output.ValidationResults
		doc.ComplianceStatus = output.ComplianceStatus
	}
	return true, nil
}

func (f *fakeDocStore) DeleteDocument(_ context.Context, documentID, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.docs[documentID]; !ok {
		return fmt.Errorf("document not found: %s", documentID)
	}
	delete(f.docs, documentID)
	return nil
}

// fakeFiles is an in-memory storage.Storage.
type fakeFiles struct{}

func (f *fakeFiles) Store(_ context.Context, _ []byte, name, _ string) (*storage.StoredFile, error) {
	return &storage.StoredFile{
		URL:        "https://files.example.com/" + name,
		ProviderID: "provider/" + name,
	}, nil
}

func (f *fakeFiles) Delete(context.Context, string) error { return nil }

// fakeEngine is a scripted documents.Engine.
type fakeEngine struct {
	mu         sync.Mutex
	executions map[string]types.WorkflowExecution
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{executions: make(map[string]types.WorkflowExecution)}
}

func (f *fakeEngine) StartWorkflow(_ context.Context, doc types.DocumentSnapshot) types.WorkflowRun {
	return types.WorkflowRun{
		WorkflowID: "mock_1_" + doc.ID[:8],
		Status:     types.WorkflowRunning,
		StartTime:  time.Now(),
	}
}

func (f *fakeEngine) Status(_ context.Context, workflowID string) types.WorkflowExecution {
	f.mu.Lock()
	defer f.mu.Unlock()
	if exec, ok := f.executions[workflowID]; ok {
		return exec
	}
	return types.WorkflowExecution{WorkflowID: workflowID, Status: types.WorkflowNotFound}
}

// fakeUserStore is an in-memory UserStore.
type fakeUserStore struct {
	byID    map[uuid.UUID]*db.User
	byEmail map[string]*db.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		byID:    make(map[uuid.UUID]*db.User),
		byEmail: make(map[string]*db.User),
	}
}

func (f *fakeUserStore) CreateUser(_ context.Context, name, email, passwordHash string) (uuid.UUID, error) {
	user := &db.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.byID[user.ID] = user
	f.byEmail[email] = user
	return user.ID, nil
}

func (f *fakeUserStore) GetUser(_ context.Context, userID uuid.UUID) (*db.User, error) {
	return f.byID[userID], nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	return f.byEmail[email], nil
}

func (f *fakeUserStore) CheckEmailExists(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

// newTestServer wires a Server against in-memory fakes.
func newTestServer(t *testing.T) (*Server, *fakeDocStore, *fakeEngine) {
	t.Helper()

	store := newFakeDocStore()
	engine := newFakeEngine()

	s := &Server{docs: documents.NewService(store, &fakeFiles{}, engine)}
	s.userService = NewUserService(newFakeUserStore(), &config.PasswordConfig{BcryptCost: 10})
	s.jwtService = NewJWTService(&config.JWTConfig{Secret: "test-secret", ExpirationHours: 1})
	s.authHandler = NewAuthHandler(s.userService, s.jwtService)

	return s, store, engine
}

// authedRequest builds a request whose context already carries a user id,
// as the auth middleware would have left it.
func authedRequest(method, target string, body *bytes.Buffer, userID uuid.UUID) *http.Request {
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, target, body)
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// multipartUpload builds a multipart body with the given file and form
// fields.
func multipartUpload(t *testing.T, filename string, data []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(data); err != nil {
			t.Fatalf("failed to write form file: %v", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("failed to write form field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to finalize form: %v", err)
	}
	return &body, writer.FormDataContentType()
}
