// Package translate implements the translation and remote language
// identification clients against a LibreTranslate-compatible HTTP API.
package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nakurusafety/incident-analytics/internal/domain"
	"github.com/nakurusafety/incident-analytics/internal/observability"
)

// DefaultRetries bounds translation attempts per call.
const DefaultRetries = 3

// Client talks to a LibreTranslate-compatible service.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger
	metrics    *observability.Metrics

	// retryWait returns the sleep before retry n (0-based). Overridable
	// in tests; production doubles from one second.
	retryWait func(attempt int) time.Duration
}

// NewClient creates a translation client.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
		metrics:    metrics,
		retryWait: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * time.Second
		},
	}
}

// Translate converts text between the supported languages. Blank input and
// same-language requests return the input unchanged. Failures are retried
// with exponential backoff; exhausting the retries returns
// domain.TranslationUnavailable. Translate never returns an error to its
// caller.
func (c *Client) Translate(ctx context.Context, text, source, target string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	text = strings.Join(strings.Fields(text), " ")

	src := domain.LanguageCode(source)
	dst := domain.LanguageCode(target)
	if src == dst {
		return text
	}

	for attempt := 0; attempt < DefaultRetries; attempt++ {
		result, err := c.doTranslate(ctx, text, src, dst)
		if err == nil && result != "" {
			c.metrics.TranslationRequests.WithLabelValues("success").Inc()
			return result
		}
		if err != nil {
			c.logger.Warn("translation attempt failed", "attempt", attempt+1, "error", err)
		}
		if attempt < DefaultRetries-1 {
			if !sleepWithContext(ctx, c.retryWait(attempt)) {
				break
			}
		}
	}

	c.metrics.TranslationRequests.WithLabelValues("unavailable").Inc()
	return domain.TranslationUnavailable
}

// Detect asks the service to identify the text's language. It returns the
// raw language code; callers map it onto the supported pair.
func (c *Client) Detect(ctx context.Context, text string) (string, error) {
	payload := map[string]string{"q": text}
	if c.apiKey != "" {
		payload["api_key"] = c.apiKey
	}

	var results []detectResult
	if err := c.post(ctx, "/detect", payload, &results); err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "", fmt.Errorf("detect: empty response")
	}
	return strings.ToLower(results[0].Language), nil
}

func (c *Client) doTranslate(ctx context.Context, text, source, target string) (string, error) {
	payload := map[string]string{
		"q":      text,
		"source": source,
		"target": target,
		"format": "text",
	}
	if c.apiKey != "" {
		payload["api_key"] = c.apiKey
	}

	var result translateResult
	if err := c.post(ctx, "/translate", payload, &result); err != nil {
		return "", err
	}
	return result.TranslatedText, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("translation API error: status %d: %s", resp.StatusCode, msg)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// API response types.

type translateResult struct {
	TranslatedText string `json:"translatedText"`
}

type detectResult struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}
