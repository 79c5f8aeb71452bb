package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParseDocumentType(t *testing.T) {
	tests := []struct {
		raw  string
		want DocumentType
	}{
		{"invoice", TypeInvoice},
		{"receipt", TypeReceipt},
		{"bank_statement", TypeBankStatement},
		{"tax_form", TypeTaxForm},
		{"other", TypeOther},
		{"", TypeOther},
		{"INVOICE", TypeOther},
		{"mystery", TypeOther},
	}

	for _, tt := range tests {
		t.Run("raw="+tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDocumentType(tt.raw))
		})
	}
}

func TestDocumentSnapshot(t *testing.T) {
	doc := &DocumentRecord{
		ID:       uuid.New(),
		OwnerID:  uuid.New(),
		Name:     "invoice.pdf",
		Type:     TypeInvoice,
		FileURL:  "https://files.example.com/invoice.pdf",
		Size:     2048,
		MimeType: "application/pdf",
		Status:   StatusProcessing,
	}

	snap := doc.Snapshot()
	assert.Equal(t, doc.ID.String(), snap.ID)
	assert.Equal(t, doc.OwnerID.String(), snap.OwnerID)
	assert.Equal(t, TypeInvoice, snap.Type)
	assert.Equal(t, "invoice.pdf", snap.Name)
	assert.Equal(t, int64(2048), snap.Size)
	assert.Equal(t, "application/pdf", snap.MimeType)
	assert.Equal(t, doc.FileURL, snap.FileURL)
}

func TestWorkflowStatusTerminal(t *testing.T) {
	assert.False(t, WorkflowRunning.Terminal())
	assert.True(t, WorkflowCompleted.Terminal())
	assert.True(t, WorkflowFailed.Terminal())
	assert.False(t, WorkflowNotFound.Terminal())
}
