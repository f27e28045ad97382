// Package transcribe converts recorded audio into text via an external
// recognizer.
package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/dongnae-labs/storefront/internal/metrics"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// ErrNoResult reports that the recognizer produced no transcription for the
// audio. Callers recover it locally and surface a retry hint to the user.
var ErrNoResult = errors.New("no recognition result")

// Config configures the recognizer client. Language is fixed per deployment;
// the default locale matches the product's single supported language.
type Config struct {
	Endpoint string
	APIKey   string
	Language string
	Timeout  time.Duration
}

// Client posts raw audio bytes to the recognizer and returns the recognized
// text. Transport and provider errors are returned to the caller, which
// converts them into degraded-but-continuing behavior.
type Client struct {
	httpClient *http.Client
	endpoint   *url.URL
	apiKey     string
	language   string
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New creates the transcription client.
func New(cfg Config, m *metrics.Metrics, log *logger.Logger) (*Client, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("transcription endpoint required")
	}
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("parse transcription endpoint: %w", err)
	}
	language := cfg.Language
	if language == "" {
		language = "ko-KR"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("transcribe")
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   parsed,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		language:   language,
		metrics:    m,
		log:        log,
	}, nil
}

// Transcribe submits the audio and returns the recognized text, or
// ErrNoResult when the recognizer found nothing.
func (c *Client) Transcribe(ctx context.Context, audio []byte) (string, error) {
	text, err := c.doTranscribe(ctx, audio)
	if c.metrics != nil {
		c.metrics.RecordExternalCall("transcription", err == nil)
	}
	return text, err
}

func (c *Client) doTranscribe(ctx context.Context, audio []byte) (string, error) {
	requestURL := *c.endpoint
	q := requestURL.Query()
	q.Set("language", c.language)
	requestURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL.String(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("build transcription request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read transcription response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("transcription status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	text := strings.TrimSpace(gjson.GetBytes(body, "text").String())
	if text == "" {
		return "", ErrNoResult
	}
	return text, nil
}
