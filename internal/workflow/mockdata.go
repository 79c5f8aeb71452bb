package workflow

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jayanthvn/taxmate/internal/types"
)

// mockGenerators dispatches synthetic output generation by document type.
// Unknown types fall through to the generic generator.
var mockGenerators = map[types.DocumentType]func(types.DocumentSnapshot) *types.ExtractionOutput{
	types.TypeInvoice:       mockInvoiceOutput,
	types.TypeReceipt:       mockReceiptOutput,
	types.TypeBankStatement: mockBankStatementOutput,
	types.TypeTaxForm:       mockTaxFormOutput,
	types.TypeOther:         mockOtherOutput,
}

// mockOutput produces plausible fabricated processing results for a
// document, keyed by its declared type.
func mockOutput(doc types.DocumentSnapshot) *types.ExtractionOutput {
	generate, ok := mockGenerators[doc.Type]
	if !ok {
		generate = mockOtherOutput
	}
	return generate(doc)
}

func mockInvoiceOutput(doc types.DocumentSnapshot) *types.ExtractionOutput {
	return &types.ExtractionOutput{
		DocumentID: doc.ID,
		ExtractedData: map[string]any{
			"vendorName":    "ABC Services Ltd.",
			"invoiceNumber": fmt.Sprintf("INV-%04d", rand.Intn(10000)),
			"issueDate":     dateWithinPastDays(90),
			"dueDate":       dateWithinNextDays(30),
			"totalAmount":   float64(rand.Intn(10000) + 1000),
			"taxAmount":     float64(rand.Intn(1000) + 100),
			"currency":      "INR",
			"taxId":         "29AADCB2230M1ZV",
			"lineItems": []any{
				map[string]any{
					"description": "Consulting Services",
					"quantity":    1,
					"unitPrice":   float64(rand.Intn(5000) + 500),
					"amount":      float64(rand.Intn(5000) + 500),
				},
				map[string]any{
					"description": "Software Development",
					"quantity":    rand.Intn(10) + 1,
					"unitPrice":   float64(rand.Intn(1000) + 100),
					"amount":      float64(rand.Intn(5000) + 500),
				},
			},
		},
		ValidationResults: map[string]any{
			"isValid": true,
			"gstin": map[string]any{
				"value":   "29AADCB2230M1ZV",
				"isValid": true,
			},
			"issueDateValid": true,
			"dueDateValid":   true,
			"lineItemsValid": true,
		},
		ComplianceStatus: &types.ComplianceStatus{
			Compliant:       true,
			Flags:           []string{},
			Recommendations: []string{},
		},
		ProcessingTime: rand.Float64()*3 + 2,
	}
}

func mockReceiptOutput(doc types.DocumentSnapshot) *types.ExtractionOutput {
	paymentMethods := []string{"Cash", "Credit Card", "Debit Card", "UPI"}
	return &types.ExtractionOutput{
		DocumentID: doc.ID,
		ExtractedData: map[string]any{
			"merchantName":  "XYZ Restaurant",
			"receiptNumber": fmt.Sprintf("R-%04d", rand.Intn(10000)),
			"date":          dateWithinPastDays(90),
			"totalAmount":   float64(rand.Intn(2000) + 200),
			"taxAmount":     float64(rand.Intn(200) + 20),
			"currency":      "INR",
			"paymentMethod": paymentMethods[rand.Intn(len(paymentMethods))],
			"items": []any{
				map[string]any{
					"description": "Food & Beverages",
					"amount":      float64(rand.Intn(1000) + 100),
				},
				map[string]any{
					"description": "Service Charge",
					"amount":      float64(rand.Intn(200) + 50),
				},
			},
		},
		ValidationResults: map[string]any{
			"isValid":     true,
			"dateValid":   true,
			"amountValid": true,
		},
		ComplianceStatus: &types.ComplianceStatus{
			Compliant:       true,
			Flags:           []string{},
			Recommendations: []string{},
		},
		ProcessingTime: rand.Float64()*2 + 1,
	}
}

func mockBankStatementOutput(doc types.DocumentSnapshot) *types.ExtractionOutput {
	return &types.ExtractionOutput{
		DocumentID: doc.ID,
		ExtractedData: map[string]any{
			"bankName":          "State Bank of India",
			"accountNumber":     fmt.Sprintf("XXXX%04d", rand.Intn(10000)),
			"accountHolderName": "John Doe",
			"statementPeriod": map[string]any{
				"from": time.Now().AddDate(0, 0, -30).Format("2006-01-02"),
				"to":   time.Now().Format("2006-01-02"),
			},
			"openingBalance": float64(rand.Intn(50000) + 5000),
			"closingBalance": float64(rand.Intn(60000) + 5000),
			"transactions": []any{
				map[string]any{
					"date":        dateWithinPastDays(30),
					"description": "Salary Credit",
					"amount":      float64(rand.Intn(50000) + 30000),
					"type":        "credit",
				},
				map[string]any{
					"date":        dateWithinPastDays(30),
					"description": "Rent Payment",
					"amount":      float64(rand.Intn(15000) + 10000),
					"type":        "debit",
				},
				map[string]any{
					"date":        dateWithinPastDays(30),
					"description": "Utilities Bill",
					"amount":      float64(rand.Intn(3000) + 1000),
					"type":        "debit",
				},
			},
		},
		ValidationResults: map[string]any{
			"isValid":       true,
			"periodValid":   true,
			"balancesValid": true,
		},
		ComplianceStatus: &types.ComplianceStatus{
			Compliant:       true,
			Flags:           []string{},
			Recommendations: []string{},
		},
		ProcessingTime: rand.Float64()*4 + 3,
	}
}

func mockTaxFormOutput(doc types.DocumentSnapshot) *types.ExtractionOutput {
	return &types.ExtractionOutput{
		DocumentID: doc.ID,
		ExtractedData: map[string]any{
			"formType":         "ITR-4",
			"assessmentYear":   "2023-24",
			"panNumber":        "ABCDE1234F",
			"taxpayerName":     "John Doe",
			"filingDate":       dateWithinPastDays(90),
			"grossTotalIncome": float64(rand.Intn(1000000) + 500000),
			"deductions":       float64(rand.Intn(150000) + 50000),
			"totalTaxPayable":  float64(rand.Intn(100000) + 50000),
			"taxPaid":          float64(rand.Intn(100000) + 40000),
		},
		ValidationResults: map[string]any{
			"isValid":             true,
			"panValid":            true,
			"assessmentYearValid": true,
		},
		ComplianceStatus: &types.ComplianceStatus{
			Compliant:       true,
			Flags:           []string{},
			Recommendations: []string{},
		},
		ProcessingTime: rand.Float64()*5 + 4,
	}
}

func mockOtherOutput(doc types.DocumentSnapshot) *types.ExtractionOutput {
	possibleTypes := []string{"Contract", "Agreement", "Letter", "Certificate"}
	title := doc.Name
	if idx := strings.LastIndex(title, "."); idx > 0 {
		title = title[:idx]
	}
	return &types.ExtractionOutput{
		DocumentID: doc.ID,
		ExtractedData: map[string]any{
			"documentTitle":        title,
			"date":                 dateWithinPastDays(90),
			"relevantParties":      []any{"Individual/Company Name"},
			"keyInformation":       "Extracted key information from the document",
			"possibleDocumentType": possibleTypes[rand.Intn(len(possibleTypes))],
		},
		ValidationResults: map[string]any{
			"isValid":   true,
			"dateValid": true,
		},
		ComplianceStatus: &types.ComplianceStatus{
			Compliant: true,
			Flags:     []string{},
			Recommendations: []string{
				"Consider proper categorization of this document for better tax management",
			},
		},
		ProcessingTime: rand.Float64()*3 + 2,
	}
}

func dateWithinPastDays(n int) string {
	return time.Now().AddDate(0, 0, -rand.Intn(n)).Format("2006-01-02")
}

func dateWithinNextDays(n int) string {
	return time.Now().AddDate(0, 0, rand.Intn(n)).Format("2006-01-02")
}
