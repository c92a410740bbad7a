// Package cloudinary stores image bytes with Cloudinary and signs direct
// client-to-provider uploads.
package cloudinary

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Config holds the Cloudinary account credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// Client uploads images through Cloudinary's HTTP API.
type Client struct {
	cfg     Config
	http    *http.Client
	baseURL string
}

// NewClient creates a new Cloudinary client. A nil httpClient falls back to
// http.DefaultClient.
func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		cfg:     cfg,
		http:    httpClient,
		baseURL: "https://api.cloudinary.com",
	}
}

// Sign computes the SHA-1 signature Cloudinary expects over
// "folder=<folder>&timestamp=<timestamp><apiSecret>". It is a pure function
// of its inputs; no upload happens here.
func Sign(folder, timestamp, apiSecret string) string {
	stringToSign := fmt.Sprintf("folder=%s&timestamp=%s", folder, timestamp)
	sum := sha1.Sum([]byte(stringToSign + apiSecret))
	return hex.EncodeToString(sum[:])
}

// SignUpload signs a direct client upload for this account so the client
// never sees the API secret.
func (c *Client) SignUpload(folder, timestamp string) string {
	return Sign(folder, timestamp, c.cfg.APISecret)
}

// Upload sends the image to Cloudinary as a signed multipart request and
// returns the durable secure URL. Single attempt, no retry.
func (c *Client) Upload(ctx context.Context, file io.Reader, folder string) (string, error) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	fields := map[string]string{
		"api_key":   c.cfg.APIKey,
		"timestamp": timestamp,
		"folder":    folder,
		"signature": c.SignUpload(folder, timestamp),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return "", fmt.Errorf("failed to build upload form: %w", err)
		}
	}
	part, err := writer.CreateFormFile("file", uuid.New().String())
	if err != nil {
		return "", fmt.Errorf("failed to build upload form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload form: %w", err)
	}

	url := fmt.Sprintf("%s/v1_1/%s/image/upload", c.baseURL, c.cfg.CloudName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read cloudinary response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("cloudinary upload failed (status %d): %s", resp.StatusCode, data)
	}

	var result struct {
		SecureURL string `json:"secure_url"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("failed to decode cloudinary response: %w", err)
	}
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary response contained no secure_url")
	}
	return result.SecureURL, nil
}
