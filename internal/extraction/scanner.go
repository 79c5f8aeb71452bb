// Package extraction turns raw document bytes into structured, type-specific
// fields using the Gemini API.
package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jayanthvn/taxmate/internal/types"
)

// DefaultModel is the Gemini model used for document scanning.
const DefaultModel = "gemini-1.5-flash"

// GeminiScanner analyzes document images and PDFs with the Gemini API.
type GeminiScanner struct {
	client *genai.Client
	model  string
}

// NewGeminiScanner creates a scanner backed by the Gemini API.
func NewGeminiScanner(ctx context.Context, apiKey, model string) (*GeminiScanner, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiScanner{client: client, model: model}, nil
}

// Analyze sends the document to Gemini with a type-specific prompt and
// returns the extracted fields. The model's JSON output is shape-checked
// against the document type's schema before being accepted.
func (s *GeminiScanner) Analyze(ctx context.Context, data []byte, docType types.DocumentType) (map[string]any, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("no document bytes provided")
	}

	model := s.client.GenerativeModel(s.model)
	model.SetTemperature(0.1) // Low temperature for consistent output
	model.ResponseMIMEType = "application/json"
	model.SafetySettings = safetySettings()

	resp, err := model.GenerateContent(ctx,
		genai.Text(promptFor(docType)),
		genai.Blob{MIMEType: DetectMimeType(data), Data: data},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze document: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, err
	}

	var extracted map[string]any
	if err := json.Unmarshal([]byte(cleanJSONBlock(text)), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse extraction JSON: %w", err)
	}

	if err := ValidateShape(docType, extracted); err != nil {
		return nil, fmt.Errorf("extraction output rejected: %w", err)
	}

	return extracted, nil
}

// Close releases resources held by the scanner.
func (s *GeminiScanner) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func safetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockMediumAndAbove},
		{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockMediumAndAbove},
	}
}

// promptFor builds the extraction prompt for a document type.
func promptFor(docType types.DocumentType) string {
	switch docType {
	case types.TypeInvoice:
		return "Analyze this invoice and extract the following information as JSON with these exact keys: " +
			"vendorName, invoiceNumber, issueDate, dueDate, totalAmount, taxAmount, currency, taxId (GSTIN if present), " +
			"lineItems (array of {description, quantity, unitPrice, amount, discount}). " +
			"Use null for information that is unclear or missing. Return ONLY the JSON object."
	case types.TypeReceipt:
		return "Analyze this receipt and extract the following information as JSON with these exact keys: " +
			"merchantName, receiptNumber, date, totalAmount, taxAmount, currency, paymentMethod, " +
			"items (array of {description, amount}). " +
			"Use null for information that is unclear or missing. Return ONLY the JSON object."
	case types.TypeBankStatement:
		return "Analyze this bank statement and extract the following information as JSON with these exact keys: " +
			"bankName, accountNumber, accountHolderName, statementPeriod ({from, to}), openingBalance, closingBalance, " +
			"transactions (array of {date, description, amount, type}). " +
			"Use null for information that is unclear or missing. Return ONLY the JSON object."
	case types.TypeTaxForm:
		return "Analyze this tax form and extract the following information as JSON with these exact keys: " +
			"formType, assessmentYear, panNumber, taxpayerName, filingDate, grossTotalIncome, deductions, " +
			"totalTaxPayable, taxPaid. " +
			"Use null for information that is unclear or missing. Return ONLY the JSON object."
	default:
		return fmt.Sprintf("Analyze this %s document and extract all relevant tax-related information as a JSON object. "+
			"Include documentTitle, date, relevantParties and keyInformation keys where applicable. "+
			"Use null for information that is unclear or missing. Return ONLY the JSON object.", docType)
	}
}

// extractTextFromResponse extracts text from a Gemini API response.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// cleanJSONBlock removes markdown code block wrappers from JSON.
func cleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
