// Package notify sends authenticated outbound SMS notifications.
package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dongnae-labs/storefront/internal/metrics"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

// Result is the boolean/reason pair returned to callers. Send never raises
// past this boundary.
type Result struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// Config configures the dispatcher. MaxRetries defaults to zero, keeping
// dispatch fire-and-forget; a non-zero value adds linear backoff between
// attempts.
type Config struct {
	Endpoint   string
	APIKey     string
	APISecret  string
	From       string
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
}

// Dispatcher issues HMAC-signed SMS requests to the provider. Success is
// exactly HTTP 200; any other status or transport error becomes a Failure
// carrying the response body or error text. No delivery confirmation is
// polled.
type Dispatcher struct {
	client     *http.Client
	endpoint   string
	apiKey     string
	apiSecret  string
	from       string
	maxRetries int
	backoff    time.Duration
	metrics    *metrics.Metrics
	log        *logger.Logger
}

// New creates the dispatcher.
func New(cfg Config, m *metrics.Metrics, log *logger.Logger) (*Dispatcher, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("sms endpoint required")
	}
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("sms api credentials required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sms sender number required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = time.Second
	}
	if log == nil {
		log = logger.NewDefault("notify")
	}
	return &Dispatcher{
		client:     &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		apiSecret:  cfg.APISecret,
		from:       cfg.From,
		maxRetries: cfg.MaxRetries,
		backoff:    backoff,
		metrics:    m,
		log:        log,
	}, nil
}

type messagePayload struct {
	Message struct {
		To   string `json:"to"`
		From string `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
}

// Send dispatches one SMS and reports the outcome.
func (d *Dispatcher) Send(ctx context.Context, toPhone, body string) Result {
	var result Result
	for attempt := 0; attempt <= d.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				result = Result{Success: false, Reason: ctx.Err().Error()}
				d.record(result)
				return result
			case <-time.After(d.backoff * time.Duration(attempt)):
			}
		}
		result = d.dispatch(ctx, toPhone, body)
		if result.Success {
			break
		}
		d.log.WithFields(map[string]interface{}{"attempt": attempt, "reason": result.Reason}).Warn("sms dispatch failed")
	}
	d.record(result)
	return result
}

func (d *Dispatcher) record(result Result) {
	if d.metrics != nil {
		d.metrics.RecordSMS(result.Success)
		d.metrics.RecordExternalCall("sms", result.Success)
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, toPhone, body string) Result {
	var payload messagePayload
	payload.Message.To = toPhone
	payload.Message.From = d.from
	payload.Message.Text = body

	encoded, err := json.Marshal(payload)
	if err != nil {
		return Result{Success: false, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return Result{Success: false, Reason: err.Error()}
	}
	date := time.Now().Format(time.RFC3339)
	salt := strings.ReplaceAll(uuid.NewString(), "-", "")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", d.authorizationHeader(date, salt))

	resp, err := d.client.Do(req)
	if err != nil {
		return Result{Success: false, Reason: err.Error()}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return Result{Success: false, Reason: string(respBody)}
	}
	return Result{Success: true}
}

// authorizationHeader builds the provider's HMAC header: the signature is a
// hex SHA-256 HMAC over date+salt keyed with the shared secret.
func (d *Dispatcher) authorizationHeader(date, salt string) string {
	mac := hmac.New(sha256.New, []byte(d.apiSecret))
	mac.Write([]byte(date + salt))
	signature := hex.EncodeToString(mac.Sum(nil))
	return fmt.Sprintf("HMAC-SHA256 apiKey=%s, date=%s, salt=%s, signature=%s", d.apiKey, date, salt, signature)
}
