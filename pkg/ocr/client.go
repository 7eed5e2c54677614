// Package ocr pulls text out of screenshots scammers send alongside
// their messages. OCR is best effort: any failure returns the original
// message untouched so the conversation never stalls on an image.
package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/baitline/baitline/pkg/httputil"
)

// ImageTextPrefix marks OCR-derived text appended to a message, so
// downstream extraction sees the image content as part of the turn.
const ImageTextPrefix = "[IMAGE_TEXT]: "

// Client calls an OCR HTTP service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New returns a client for the OCR service at baseURL. An empty baseURL
// yields a disabled client whose Augment is a pass-through.
func New(baseURL string, log *zap.Logger, opts ...Option) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httputil.MediumClient(),
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enabled reports whether a service URL is configured.
func (c *Client) Enabled() bool { return c.baseURL != "" }

type ocrRequest struct {
	ImageBase64 string `json:"image_base64"`
}

type ocrResponse struct {
	Text string `json:"text"`
}

// Recognize extracts text from a raw image.
func (c *Client) Recognize(ctx context.Context, image []byte) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("ocr: no service configured")
	}

	payload, err := json.Marshal(ocrRequest{ImageBase64: base64.StdEncoding.EncodeToString(image)})
	if err != nil {
		return "", fmt.Errorf("ocr: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("ocr: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ocr: request: %w", err)
	}
	defer httputil.DrainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ocr: service returned %d", resp.StatusCode)
	}

	body, err := httputil.ReadResponseBody(resp.Body, 0)
	if err != nil {
		return "", fmt.Errorf("ocr: read response: %w", err)
	}
	var out ocrResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("ocr: decode response: %w", err)
	}
	return strings.TrimSpace(out.Text), nil
}

// Augment appends recognized image text to a message. On any OCR failure
// the message comes back unchanged.
func (c *Client) Augment(ctx context.Context, message string, image []byte) string {
	if len(image) == 0 || !c.Enabled() {
		return message
	}
	text, err := c.Recognize(ctx, image)
	if err != nil {
		c.log.Debug("ocr failed", zap.Error(err))
		return message
	}
	if text == "" {
		return message
	}
	if message == "" {
		return ImageTextPrefix + text
	}
	return message + "\n" + ImageTextPrefix + text
}
