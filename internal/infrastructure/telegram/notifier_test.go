package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"GrowthRanker/internal/config"
)

func TestPublishDigest(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.PostForm.Get("chat_id"))
		assert.Equal(t, "1. NVIDIA 45.00", r.PostForm.Get("text"))
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "TOKEN", ChatID: "42"})
	n.apiBase = server.URL
	require.NoError(t, n.PublishDigest(context.Background(), "1. NVIDIA 45.00"))
}

func TestPublishDigestErrors(t *testing.T) {
	t.Parallel()

	assert.Error(t, NewNotifier(config.TelegramConfig{}).PublishDigest(context.Background(), "x"))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	n := NewNotifier(config.TelegramConfig{BotToken: "T", ChatID: "1"})
	n.apiBase = server.URL
	assert.ErrorContains(t, n.PublishDigest(context.Background(), "x"), "403")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", 5000)
	out := truncate(long, maxMessageLen)
	assert.Equal(t, maxMessageLen, utf8.RuneCountInString(out))
	assert.Equal(t, "short", truncate("short", maxMessageLen))
}
