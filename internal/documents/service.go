// Package documents coordinates uploads, workflow dispatch and the
// reconciliation of workflow results into persisted document records.
package documents

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/jayanthvn/taxmate/internal/db"
	"github.com/jayanthvn/taxmate/internal/extraction"
	"github.com/jayanthvn/taxmate/internal/storage"
	"github.com/jayanthvn/taxmate/internal/types"
)

// Store is the document persistence surface the service needs.
// *db.DB satisfies it; tests use an in-memory fake.
type Store interface {
	CreateDocument(ctx context.Context, doc *types.DocumentRecord) error
	SetWorkflowID(ctx context.Context, documentID uuid.UUID, workflowID string) error
	GetDocument(ctx context.Context, documentID, ownerID uuid.UUID) (*types.DocumentRecord, error)
	GetDocumentByWorkflowID(ctx context.Context, workflowID string) (*types.DocumentRecord, error)
	ListDocuments(ctx context.Context, ownerID uuid.UUID, filters db.DocumentFilters) ([]types.DocumentRecord, error)
	CountDocuments(ctx context.Context, ownerID uuid.UUID, filters db.DocumentFilters) (int, error)
	ApplyWorkflowResult(ctx context.Context, documentID uuid.UUID, status types.DocumentStatus, output *types.ExtractionOutput) (bool, error)
	DeleteDocument(ctx context.Context, documentID, ownerID uuid.UUID) error
}

// Engine starts workflows and reports their status. Implementations never
// fail: remote errors resolve to fallback workflows or NOT_FOUND.
type Engine interface {
	StartWorkflow(ctx context.Context, doc types.DocumentSnapshot) types.WorkflowRun
	Status(ctx context.Context, workflowID string) types.WorkflowExecution
}

// Service is the document-processing application service.
type Service struct {
	store   Store
	storage storage.Storage
	engine  Engine
}

// NewService creates a document service.
func NewService(store Store, store2 storage.Storage, engine Engine) *Service {
	return &Service{store: store, storage: store2, engine: engine}
}

// Upload stores the file, persists the initial document record and
// dispatches the processing workflow. The record is persisted before the
// workflow starts so a remote workflow can never exist without local
// linkage; if persistence fails the whole upload fails and nothing is
// dispatched. Workflow dispatch itself cannot fail — the engine guarantees
// a fallback result.
func (s *Service) Upload(ctx context.Context, ownerID uuid.UUID, name string, data []byte, docType types.DocumentType) (*types.DocumentRecord, types.WorkflowRun, error) {
	stored, err := s.storage.Store(ctx, data, name, "taxmate-"+ownerID.String())
	if err != nil {
		return nil, types.WorkflowRun{}, fmt.Errorf("failed to store file: %w", err)
	}

	doc := &types.DocumentRecord{
		OwnerID:   ownerID,
		Name:      name,
		Type:      docType,
		FileURL:   stored.URL,
		StorageID: stored.ProviderID,
		Size:      int64(len(data)),
		MimeType:  extraction.DetectMimeType(data),
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return nil, types.WorkflowRun{}, fmt.Errorf("failed to persist document: %w", err)
	}

	run := s.engine.StartWorkflow(ctx, doc.Snapshot())
	doc.WorkflowID = run.WorkflowID
	if err := s.store.SetWorkflowID(ctx, doc.ID, run.WorkflowID); err != nil {
		// The workflow is already running; the next reconciliation pass
		// cannot find it without the link, so this is worth a loud log.
		log.Printf("[documents] failed to record workflow id %s on document %s: %v", run.WorkflowID, doc.ID, err)
	}

	return doc, run, nil
}

// Get fetches a single document and reconciles it against its workflow.
// Returns (nil, nil) when the document does not exist.
func (s *Service) Get(ctx context.Context, documentID, ownerID uuid.UUID) (*types.DocumentRecord, error) {
	doc, err := s.store.GetDocument(ctx, documentID, ownerID)
	if err != nil || doc == nil {
		return doc, err
	}
	if err := s.Reconcile(ctx, doc); err != nil {
		// Reconciliation failure must not hide the document itself.
		log.Printf("[documents] failed to reconcile document %s: %v", doc.ID, err)
	}
	return doc, nil
}

// List fetches an owner's documents newest-first, reconciling each one,
// and returns the total count matching the filters.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID, filters db.DocumentFilters) ([]types.DocumentRecord, int, error) {
	docs, err := s.store.ListDocuments(ctx, ownerID, filters)
	if err != nil {
		return nil, 0, err
	}

	s.ReconcileAll(ctx, docs)

	total, err := s.store.CountDocuments(ctx, ownerID, filters)
	if err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Delete removes a document record and its stored file. Returns (nil, nil)
// when the document does not exist.
func (s *Service) Delete(ctx context.Context, documentID, ownerID uuid.UUID) (*types.DocumentRecord, error) {
	doc, err := s.store.GetDocument(ctx, documentID, ownerID)
	if err != nil || doc == nil {
		return doc, err
	}

	if doc.StorageID != "" {
		if err := s.storage.Delete(ctx, doc.StorageID); err != nil {
			// The record removal still proceeds; orphaned provider objects
			// are preferable to undeletable documents.
			log.Printf("[documents] failed to delete stored file %s: %v", doc.StorageID, err)
		}
	}

	if err := s.store.DeleteDocument(ctx, documentID, ownerID); err != nil {
		return nil, err
	}
	return doc, nil
}

// WorkflowStatus returns the raw status of a workflow and, when the
// workflow is terminal, reconciles the matching document if one exists.
func (s *Service) WorkflowStatus(ctx context.Context, workflowID string) types.WorkflowExecution {
	exec := s.engine.Status(ctx, workflowID)

	if exec.Status.Terminal() {
		doc, err := s.store.GetDocumentByWorkflowID(ctx, workflowID)
		switch {
		case err != nil:
			log.Printf("[documents] failed to look up document for workflow %s: %v", workflowID, err)
		case doc != nil:
			if err := s.applyTerminal(ctx, doc, exec); err != nil {
				log.Printf("[documents] failed to reconcile document %s for workflow %s: %v", doc.ID, workflowID, err)
			}
		}
	}

	return exec
}
