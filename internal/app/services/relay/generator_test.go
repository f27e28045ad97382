package relay

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/dongnae-labs/storefront/pkg/logger"
)

func TestHTTPGeneratorGenerate(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"네, 주문 도와드릴게요"}}]}`))
	}))
	defer server.Close()

	gen, err := NewHTTPGenerator(HTTPGeneratorConfig{
		BaseURL: server.URL,
		APIKey:  "test-key",
		Model:   "gpt-4o-mini",
	}, logger.NewNop())
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), "점원 역할", "주문인지 판단해.")
	require.NoError(t, err)
	assert.Equal(t, "네, 주문 도와드릴게요", reply)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "/chat/completions", gotPath)

	assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(gotBody, "model").String())
	messages := gjson.GetBytes(gotBody, "messages").Array()
	require.Len(t, messages, 2)
	assert.Equal(t, "system", messages[0].Get("role").String())
	assert.Equal(t, "user", messages[1].Get("role").String())
}

func TestHTTPGeneratorNon200(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	gen, err := NewHTTPGenerator(HTTPGeneratorConfig{BaseURL: server.URL, Model: "m"}, logger.NewNop())
	require.NoError(t, err)

	_, err = gen.Generate(context.Background(), "", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestHTTPGeneratorRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "transient", http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	gen, err := NewHTTPGenerator(HTTPGeneratorConfig{
		BaseURL:    server.URL,
		Model:      "m",
		MaxRetries: 3,
		Backoff:    time.Millisecond,
	}, logger.NewNop())
	require.NoError(t, err)

	reply, err := gen.Generate(context.Background(), "", "hello")
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPGeneratorRequiresConfig(t *testing.T) {
	_, err := NewHTTPGenerator(HTTPGeneratorConfig{Model: "m"}, logger.NewNop())
	assert.Error(t, err)
	_, err = NewHTTPGenerator(HTTPGeneratorConfig{BaseURL: "http://localhost"}, logger.NewNop())
	assert.Error(t, err)
}
