package workflow

import (
	"regexp"

	"github.com/jayanthvn/taxmate/internal/types"
)

// gstinPattern matches the GSTIN format: state code, PAN, entity number,
// the literal Z, and a check character.
var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

// inputTaxCreditThreshold is the invoice amount (INR) above which retention
// for input tax credit claims is recommended.
const inputTaxCreditThreshold = 50000

// ValidateExtraction runs local validation rules over extracted fields.
// Only invoices have meaningful rules today; every other type is reported
// valid as-is.
func ValidateExtraction(docType types.DocumentType, data map[string]any) map[string]any {
	if docType != types.TypeInvoice {
		return map[string]any{"isValid": true}
	}

	_, hasVendor := stringField(data, "vendorName")
	_, hasNumber := stringField(data, "invoiceNumber")
	_, hasTotal := numberField(data, "totalAmount")

	results := map[string]any{
		"isValid": hasVendor && hasNumber && hasTotal,
	}

	if taxID, ok := stringField(data, "taxId", "gstin"); ok {
		results["gstin"] = map[string]any{
			"value":   taxID,
			"isValid": gstinPattern.MatchString(taxID),
		}
	}

	items, _ := data["lineItems"].([]any)
	results["lineItemsValid"] = len(items) > 0

	return results
}

// CheckCompliance runs local tax-compliance rules over extracted fields.
// Only invoices have meaningful rules today; every other type is reported
// compliant with no findings.
func CheckCompliance(docType types.DocumentType, data map[string]any) *types.ComplianceStatus {
	status := &types.ComplianceStatus{
		Compliant:       true,
		Flags:           []string{},
		Recommendations: []string{},
	}
	if docType != types.TypeInvoice {
		return status
	}

	_, hasTaxID := stringField(data, "taxId", "gstin")
	total, hasTotal := numberField(data, "totalAmount")

	status.Compliant = hasTaxID && hasTotal

	if !hasTaxID {
		status.Flags = append(status.Flags, "Missing GSTIN")
		status.Recommendations = append(status.Recommendations,
			"Request a GST-compliant invoice with the vendor's GSTIN")
	}

	if hasTotal && total >= inputTaxCreditThreshold {
		status.Recommendations = append(status.Recommendations,
			"Retain this invoice for input tax credit claims")
	}

	return status
}

// stringField returns the first non-empty string value found under any of
// the given keys.
func stringField(data map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := data[key].(string); ok && v != "" {
			return v, true
		}
	}
	return "", false
}

// numberField returns the first numeric value found under any of the given
// keys. JSON decoding yields float64; integer values from generators are
// accepted too.
func numberField(data map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		switch v := data[key].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case int64:
			return float64(v), true
		}
	}
	return 0, false
}
