package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/tidwall/gjson"

	"github.com/dongnae-labs/storefront/pkg/logger"
)

// Generator produces a free-text completion for a single-turn prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// HTTPGeneratorConfig configures the chat-completion client.
type HTTPGeneratorConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// HTTPGenerator calls an OpenAI-compatible chat-completions endpoint. The
// retry count and timeout come from configuration; the default is a single
// attempt.
type HTTPGenerator struct {
	client     *http.Client
	baseURL    string
	apiKey     string
	model      string
	maxRetries int
	backoff    time.Duration
	log        *logger.Logger
}

// NewHTTPGenerator constructs the generator client.
func NewHTTPGenerator(cfg HTTPGeneratorConfig, log *logger.Logger) (*HTTPGenerator, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("generator base URL required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("generator model required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	if log == nil {
		log = logger.NewDefault("generator")
	}
	return &HTTPGenerator{
		client:     &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		log:        log,
	}, nil
}

// Generate submits the prompt and returns the reply text.
func (g *HTTPGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	reqBody := map[string]interface{}{
		"model":    g.model,
		"messages": messages,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal completion request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(g.backoff * time.Duration(attempt)):
			}
		}
		reply, err := g.doRequest(ctx, payload)
		if err == nil {
			return reply, nil
		}
		lastErr = err
		g.log.WithError(err).WithField("attempt", attempt).Warn("completion request failed")
	}
	return "", lastErr
}

func (g *HTTPGenerator) doRequest(ctx context.Context, payload []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("completion status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	content := gjson.GetBytes(body, "choices.0.message.content")
	if !content.Exists() {
		return "", fmt.Errorf("completion response missing content")
	}
	return content.String(), nil
}
