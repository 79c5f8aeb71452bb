// Package types provides type definitions for structured data used throughout the taxmate system.
package types

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType classifies an uploaded tax document.
type DocumentType string

// Known document types. Unrecognized values are normalized to TypeOther.
const (
	TypeInvoice       DocumentType = "invoice"
	TypeReceipt       DocumentType = "receipt"
	TypeBankStatement DocumentType = "bank_statement"
	TypeTaxForm       DocumentType = "tax_form"
	TypeOther         DocumentType = "other"
)

// ParseDocumentType normalizes a raw type string, defaulting to TypeOther.
func ParseDocumentType(raw string) DocumentType {
	switch DocumentType(raw) {
	case TypeInvoice, TypeReceipt, TypeBankStatement, TypeTaxForm, TypeOther:
		return DocumentType(raw)
	default:
		return TypeOther
	}
}

// DocumentStatus is the lifecycle status of a persisted document record.
type DocumentStatus string

const (
	StatusProcessing DocumentStatus = "processing"
	StatusProcessed  DocumentStatus = "processed"
	StatusError      DocumentStatus = "error"
)

// DocumentRecord is the persisted record for an uploaded document.
// Status moves processing -> {processed, error} and never backward; the
// extracted/validation/compliance payloads are written exactly once when the
// reconciler observes a completed workflow.
type DocumentRecord struct {
	ID                uuid.UUID         `json:"id"`
	OwnerID           uuid.UUID         `json:"userId"`
	Name              string            `json:"name"`
	Type              DocumentType      `json:"type"`
	FileURL           string            `json:"fileUrl"`
	StorageID         string            `json:"storageId,omitempty"`
	Size              int64             `json:"size"`
	MimeType          string            `json:"mimeType,omitempty"`
	Status            DocumentStatus    `json:"status"`
	WorkflowID        string            `json:"workflowId,omitempty"`
	ExtractedData     map[string]any    `json:"extractedData,omitempty"`
	ValidationResults map[string]any    `json:"validationResults,omitempty"`
	ComplianceStatus  *ComplianceStatus `json:"complianceStatus,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// Snapshot captures the fields the workflow layer needs from a record.
func (d *DocumentRecord) Snapshot() DocumentSnapshot {
	return DocumentSnapshot{
		ID:       d.ID.String(),
		OwnerID:  d.OwnerID.String(),
		Type:     d.Type,
		Name:     d.Name,
		Size:     d.Size,
		MimeType: d.MimeType,
		FileURL:  d.FileURL,
	}
}

// DocumentSnapshot is the immutable view of a document handed to the
// workflow engine and the fallback processor.
type DocumentSnapshot struct {
	ID       string       `json:"documentId"`
	OwnerID  string       `json:"userId"`
	Type     DocumentType `json:"documentType"`
	Name     string       `json:"documentName"`
	Size     int64        `json:"documentSize"`
	MimeType string       `json:"documentMimeType"`
	FileURL  string       `json:"fileUrl"`
}
