package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayanthvn/taxmate/internal/types"
)

func snapshotOfType(docType types.DocumentType) types.DocumentSnapshot {
	return types.DocumentSnapshot{
		ID:      "doc-1",
		OwnerID: "user-1",
		Type:    docType,
		Name:    "statement.pdf",
	}
}

func TestMockOutputInvoice(t *testing.T) {
	out := mockOutput(snapshotOfType(types.TypeInvoice))

	assert.Equal(t, "doc-1", out.DocumentID)
	assert.Equal(t, "ABC Services Ltd.", out.ExtractedData["vendorName"])
	assert.Equal(t, "INR", out.ExtractedData["currency"])
	assert.Equal(t, "29AADCB2230M1ZV", out.ExtractedData["taxId"])
	assert.Regexp(t, `^INV-\d{4}$`, out.ExtractedData["invoiceNumber"])

	items, ok := out.ExtractedData["lineItems"].([]any)
	require.True(t, ok)
	assert.Len(t, items, 2)

	assert.Equal(t, true, out.ValidationResults["isValid"])
	require.NotNil(t, out.ComplianceStatus)
	assert.True(t, out.ComplianceStatus.Compliant)
	assert.Greater(t, out.ProcessingTime, 0.0)
}

func TestMockOutputReceipt(t *testing.T) {
	out := mockOutput(snapshotOfType(types.TypeReceipt))

	assert.Equal(t, "XYZ Restaurant", out.ExtractedData["merchantName"])
	assert.Regexp(t, `^R-\d{4}$`, out.ExtractedData["receiptNumber"])
	assert.Contains(t,
		[]string{"Cash", "Credit Card", "Debit Card", "UPI"},
		out.ExtractedData["paymentMethod"])
	assert.Equal(t, true, out.ValidationResults["isValid"])
}

func TestMockOutputBankStatement(t *testing.T) {
	out := mockOutput(snapshotOfType(types.TypeBankStatement))

	assert.Equal(t, "State Bank of India", out.ExtractedData["bankName"])
	assert.Regexp(t, `^XXXX\d{4}$`, out.ExtractedData["accountNumber"])

	period, ok := out.ExtractedData["statementPeriod"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, period["from"])
	assert.NotEmpty(t, period["to"])

	transactions, ok := out.ExtractedData["transactions"].([]any)
	require.True(t, ok)
	assert.Len(t, transactions, 3)
}

func TestMockOutputTaxForm(t *testing.T) {
	out := mockOutput(snapshotOfType(types.TypeTaxForm))

	assert.Equal(t, "ITR-4", out.ExtractedData["formType"])
	assert.Equal(t, "ABCDE1234F", out.ExtractedData["panNumber"])
	assert.Equal(t, "2023-24", out.ExtractedData["assessmentYear"])
	assert.Equal(t, true, out.ValidationResults["panValid"])
}

func TestMockOutputOther(t *testing.T) {
	out := mockOutput(snapshotOfType(types.TypeOther))

	// The file extension is stripped from the derived title.
	assert.Equal(t, "statement", out.ExtractedData["documentTitle"])
	assert.Contains(t,
		[]string{"Contract", "Agreement", "Letter", "Certificate"},
		out.ExtractedData["possibleDocumentType"])
	require.NotNil(t, out.ComplianceStatus)
	assert.True(t, out.ComplianceStatus.Compliant)
	assert.NotEmpty(t, out.ComplianceStatus.Recommendations)
}

func TestMockOutputUnknownTypeUsesGenericGenerator(t *testing.T) {
	out := mockOutput(snapshotOfType(types.DocumentType("mystery")))

	assert.Contains(t, out.ExtractedData, "documentTitle")
	assert.Contains(t, out.ExtractedData, "possibleDocumentType")
}
