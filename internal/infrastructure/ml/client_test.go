package ml

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthRanker/internal/config"
)

func TestClientComplete(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/generate", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "score NVIDIA", body["prompt"])
		assert.Equal(t, "local-moat", body["model"])

		_, _ = w.Write([]byte(`{"text": "{\"moat_score\": 4, \"narrative\": \"ok\"}"}`))
	}))
	defer server.Close()

	c := NewClient(config.LLMConfig{Endpoint: server.URL + "/", APIKey: "secret", Model: "local-moat"})
	out, err := c.Complete(context.Background(), "score NVIDIA")
	require.NoError(t, err)
	assert.Equal(t, `{"moat_score": 4, "narrative": "ok"}`, out)
}

func TestClientCompleteStatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c := NewClient(config.LLMConfig{Endpoint: server.URL})
	_, err := c.Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClientRequiresEndpoint(t *testing.T) {
	t.Parallel()

	_, err := NewClient(config.LLMConfig{}).Complete(context.Background(), "x")
	assert.Error(t, err)
}
