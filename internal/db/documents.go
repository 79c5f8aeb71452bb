package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jayanthvn/taxmate/internal/types"
)

const documentColumns = `id, user_id, name, type, file_url, storage_id, size, mime_type,
	status, workflow_id, extracted_data, validation_results, compliance_status,
	created_at, updated_at`

// CreateDocument inserts a new document record with status=processing and
// fills in the generated id and timestamps.
func (db *DB) CreateDocument(ctx context.Context, doc *types.DocumentRecord) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO documents (user_id, name, type, file_url, storage_id, size, mime_type, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, 'processing')
		 RETURNING id, status, created_at, updated_at`,
		doc.OwnerID, doc.Name, doc.Type, doc.FileURL, doc.StorageID, doc.Size, doc.MimeType,
	).Scan(&doc.ID, &doc.Status, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}
	return nil
}

// SetWorkflowID records the workflow id issued for a document.
func (db *DB) SetWorkflowID(ctx context.Context, documentID uuid.UUID, workflowID string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE documents SET workflow_id = $1, updated_at = NOW() WHERE id = $2`,
		workflowID, documentID,
	)
	if err != nil {
		return fmt.Errorf("failed to set workflow id: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by id scoped to its owner. Returns
// (nil, nil) when no matching document exists.
func (db *DB) GetDocument(ctx context.Context, documentID, ownerID uuid.UUID) (*types.DocumentRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = $1 AND user_id = $2`,
		documentID, ownerID,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return doc, nil
}

// GetDocumentByWorkflowID retrieves the document linked to a workflow id.
// Returns (nil, nil) when no document carries that id.
func (db *DB) GetDocumentByWorkflowID(ctx context.Context, workflowID string) (*types.DocumentRecord, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE workflow_id = $1`,
		workflowID,
	)
	doc, err := scanDocument(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get document by workflow id: %w", err)
	}
	return doc, nil
}

// DocumentFilters holds optional filters for listing documents.
type DocumentFilters struct {
	Type   types.DocumentType
	Status types.DocumentStatus
	Limit  int
}

// ListDocuments retrieves an owner's documents, newest first.
func (db *DB) ListDocuments(ctx context.Context, ownerID uuid.UUID, filters DocumentFilters) ([]types.DocumentRecord, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = $1`
	args := []any{ownerID}
	argNum := 2

	if filters.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, filters.Type)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	var docs []types.DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, nil
}

// CountDocuments returns the number of documents matching the filters.
func (db *DB) CountDocuments(ctx context.Context, ownerID uuid.UUID, filters DocumentFilters) (int, error) {
	query := `SELECT COUNT(*) FROM documents WHERE user_id = $1`
	args := []any{ownerID}
	argNum := 2

	if filters.Type != "" {
		query += fmt.Sprintf(" AND type = $%d", argNum)
		args = append(args, filters.Type)
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
	}

	var count int
	if err := db.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// ApplyWorkflowResult writes a terminal workflow outcome onto a document.
// The update only applies while the document is still processing, which
// makes the terminal write-back exactly-once and keeps the status
// transition monotonic. Returns whether a row was updated.
func (db *DB) ApplyWorkflowResult(ctx context.Context, documentID uuid.UUID, status types.DocumentStatus, output *types.ExtractionOutput) (bool, error) {
	var extracted, validation, compliance []byte
	if output != nil {
		var err error
		if output.ExtractedData != nil {
			if extracted, err = json.Marshal(output.ExtractedData); err != nil {
				return false, fmt.Errorf("failed to marshal extracted data: %w", err)
			}
		}
		if output.ValidationResults != nil {
			if validation, err = json.Marshal(output.ValidationResults); err != nil {
				return false, fmt.Errorf("failed to marshal validation results: %w", err)
			}
		}
		if output.ComplianceStatus != nil {
			if compliance, err = json.Marshal(output.ComplianceStatus); err != nil {
				return false, fmt.Errorf("failed to marshal compliance status: %w", err)
			}
		}
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE documents
		 SET status = $1, extracted_data = $2, validation_results = $3, compliance_status = $4, updated_at = NOW()
		 WHERE id = $5 AND status = 'processing'`,
		status, extracted, validation, compliance, documentID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to apply workflow result: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// DeleteDocument removes a document scoped to its owner.
func (db *DB) DeleteDocument(ctx context.Context, documentID, ownerID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`DELETE FROM documents WHERE id = $1 AND user_id = $2`,
		documentID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("document not found: %s", documentID)
	}
	return nil
}

// rowScanner covers pgx.Row and pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*types.DocumentRecord, error) {
	var doc types.DocumentRecord
	var storageID, mimeType, workflowID *string
	var extracted, validation, compliance []byte

	err := row.Scan(
		&doc.ID, &doc.OwnerID, &doc.Name, &doc.Type, &doc.FileURL, &storageID, &doc.Size, &mimeType,
		&doc.Status, &workflowID, &extracted, &validation, &compliance,
		&doc.CreatedAt, &doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if storageID != nil {
		doc.StorageID = *storageID
	}
	if mimeType != nil {
		doc.MimeType = *mimeType
	}
	if workflowID != nil {
		doc.WorkflowID = *workflowID
	}
	if len(extracted) > 0 {
		if err := json.Unmarshal(extracted, &doc.ExtractedData); err != nil {
			return nil, fmt.Errorf("failed to unmarshal extracted data: %w", err)
		}
	}
	if len(validation) > 0 {
		if err := json.Unmarshal(validation, &doc.ValidationResults); err != nil {
			return nil, fmt.Errorf("failed to unmarshal validation results: %w", err)
		}
	}
	if len(compliance) > 0 {
		if err := json.Unmarshal(compliance, &doc.ComplianceStatus); err != nil {
			return nil, fmt.Errorf("failed to unmarshal compliance status: %w", err)
		}
	}
	return &doc, nil
}
