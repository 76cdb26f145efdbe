package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWebhookNotifier_Notify(t *testing.T) {
	var received envelope
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, time.Second, zap.NewNop())
	err := n.Notify(context.Background(), KindListingCreated, map[string]any{"contract_address": "0xabc"})
	require.NoError(t, err)

	assert.NotEmpty(t, received.ID)
	assert.Equal(t, KindListingCreated, received.Kind)
	assert.False(t, received.Timestamp.IsZero())
}

func TestWebhookNotifier_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, time.Second, zap.NewNop())
	err := n.Notify(context.Background(), KindPurchaseCreated, nil)
	assert.Error(t, err)
}

func TestWebhookNotifier_UnreachableBackend(t *testing.T) {
	n := NewWebhookNotifier("http://127.0.0.1:1", 100*time.Millisecond, zap.NewNop())
	err := n.Notify(context.Background(), KindListingUpdated, nil)
	assert.Error(t, err)
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Notify(context.Background(), KindListingCreated, nil))
}
