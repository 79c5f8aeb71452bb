package extraction

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jayanthvn/taxmate/internal/types"
)

// ValidationError represents a schema validation failure with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("schema validation failed:")
	for _, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf(" %s: %s;", err.Field, err.Message))
	}
	return strings.TrimSuffix(sb.String(), ";")
}

// ValidateShape checks the extracted fields against the JSON Schema for the
// document type. The schemas are deliberately permissive — fields may be
// null or absent — and only reject structurally wrong output (for example a
// string where a number belongs, or line items that are not an array).
func ValidateShape(docType types.DocumentType, data map[string]any) error {
	schema, ok := outputSchemas[docType]
	if !ok {
		// Unknown/other documents carry free-form fields.
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(data),
	)
	if err != nil {
		return fmt.Errorf("failed to run schema validation: %w", err)
	}
	if result.Valid() {
		return nil
	}

	validationErr := &ValidationError{
		Errors: make([]FieldError, 0, len(result.Errors())),
	}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		validationErr.Errors = append(validationErr.Errors, FieldError{
			Field:   field,
			Message: desc.Description(),
		})
	}
	return validationErr
}

// outputSchemas maps document types to the JSON Schema their extraction
// output must satisfy.
var outputSchemas = map[types.DocumentType]string{
	types.TypeInvoice: `{
		"type": "object",
		"properties": {
			"vendorName":    {"type": ["string", "null"]},
			"invoiceNumber": {"type": ["string", "null"]},
			"issueDate":     {"type": ["string", "null"]},
			"dueDate":       {"type": ["string", "null"]},
			"totalAmount":   {"type": ["number", "null"]},
			"taxAmount":     {"type": ["number", "null"]},
			"currency":      {"type": ["string", "null"]},
			"taxId":         {"type": ["string", "null"]},
			"lineItems": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"description": {"type": ["string", "null"]},
						"quantity":    {"type": ["number", "null"]},
						"unitPrice":   {"type": ["number", "null"]},
						"amount":      {"type": ["number", "null"]},
						"discount":    {"type": ["number", "null"]}
					}
				}
			}
		}
	}`,
	types.TypeReceipt: `{
		"type": "object",
		"properties": {
			"merchantName":  {"type": ["string", "null"]},
			"receiptNumber": {"type": ["string", "null"]},
			"date":          {"type": ["string", "null"]},
			"totalAmount":   {"type": ["number", "null"]},
			"taxAmount":     {"type": ["number", "null"]},
			"currency":      {"type": ["string", "null"]},
			"paymentMethod": {"type": ["string", "null"]},
			"items": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"description": {"type": ["string", "null"]},
						"amount":      {"type": ["number", "null"]}
					}
				}
			}
		}
	}`,
	types.TypeBankStatement: `{
		"type": "object",
		"properties": {
			"bankName":          {"type": ["string", "null"]},
			"accountNumber":     {"type": ["string", "null"]},
			"accountHolderName": {"type": ["string", "null"]},
			"statementPeriod": {
				"type": ["object", "null"],
				"properties": {
					"from": {"type": ["string", "null"]},
					"to":   {"type": ["string", "null"]}
				}
			},
			"openingBalance": {"type": ["number", "null"]},
			"closingBalance": {"type": ["number", "null"]},
			"transactions": {
				"type": ["array", "null"],
				"items": {
					"type": "object",
					"properties": {
						"date":        {"type": ["string", "null"]},
						"description": {"type": ["string", "null"]},
						"amount":      {"type": ["number", "null"]},
						"type":        {"type": ["string", "null"]}
					}
				}
			}
		}
	}`,
	types.TypeTaxForm: `{
		"type": "object",
		"properties": {
			"formType":         {"type": ["string", "null"]},
			"assessmentYear":   {"type": ["string", "null"]},
			"panNumber":        {"type": ["string", "null"]},
			"taxpayerName":     {"type": ["string", "null"]},
			"filingDate":       {"type": ["string", "null"]},
			"grossTotalIncome": {"type": ["number", "null"]},
			"deductions":       {"type": ["number", "null"]},
			"totalTaxPayable":  {"type": ["number", "null"]},
			"taxPaid":          {"type": ["number", "null"]}
		}
	}`,
}
