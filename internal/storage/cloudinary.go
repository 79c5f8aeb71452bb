package storage

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"strings"
	"time"
)

// CloudinaryConfig holds credentials for the Cloudinary upload API.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

// CloudinaryStorage implements Storage against the Cloudinary REST API
// using signed uploads.
type CloudinaryStorage struct {
	cfg        CloudinaryConfig
	httpClient *http.Client
	baseURL    string
	now        func() time.Time
}

// NewCloudinaryStorage creates a Cloudinary-backed Storage.
func NewCloudinaryStorage(cfg CloudinaryConfig) (*CloudinaryStorage, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary cloud name, API key and API secret are required")
	}
	return &CloudinaryStorage{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		baseURL:    "https://api.cloudinary.com/v1_1/" + cfg.CloudName,
		now:        time.Now,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Store uploads the file bytes into the given folder and returns its
// public URL and provider id.
func (s *CloudinaryStorage) Store(ctx context.Context, data []byte, name, folder string) (*StoredFile, error) {
	timestamp := fmt.Sprintf("%d", s.now().Unix())
	params := map[string]string{
		"folder":    folder,
		"timestamp": timestamp,
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range params {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("failed to write form field: %w", err)
		}
	}
	if err := writer.WriteField("api_key", s.cfg.APIKey); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	if err := writer.WriteField("signature", signParams(params, s.cfg.APISecret)); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auto/upload", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	var result uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode upload response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upload returned %d: %s", resp.StatusCode, result.Error.Message)
	}

	return &StoredFile{URL: result.SecureURL, ProviderID: result.PublicID}, nil
}

// Delete removes an uploaded file by its provider id.
func (s *CloudinaryStorage) Delete(ctx context.Context, providerID string) error {
	timestamp := fmt.Sprintf("%d", s.now().Unix())
	params := map[string]string{
		"public_id": providerID,
		"timestamp": timestamp,
	}

	form := fmt.Sprintf("public_id=%s&timestamp=%s&api_key=%s&signature=%s",
		providerID, timestamp, s.cfg.APIKey, signParams(params, s.cfg.APISecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/image/destroy", strings.NewReader(form))
	if err != nil {
		return fmt.Errorf("failed to create destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("destroy request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("destroy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}
	return nil
}

// signParams computes the Cloudinary request signature: the SHA-1 of the
// alphabetically-sorted parameters concatenated with the API secret.
func signParams(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+params[key])
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return fmt.Sprintf("%x", sum)
}
