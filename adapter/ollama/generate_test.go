package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aerostats/insightserver"
)

func TestAdapter_Invoke(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/chat", r.URL.Path)

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2:3b", req.Model)
		assert.False(t, req.Stream)
		assert.Equal(t, float64(0.1), req.Options["temperature"])
		assert.Equal(t, float64(512), req.Options["num_predict"])
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		json.NewEncoder(w).Encode(chatResponse{
			Model:           req.Model,
			Message:         chatMessage{Role: "assistant", Content: "Based on the data, delays average 16.63 minutes."},
			PromptEvalCount: 180,
			EvalCount:       25,
		})
	}))
	defer server.Close()

	adapter := New(WithBaseURL(server.URL))

	generation, err := adapter.Invoke(context.Background(), "some prompt", "llama3.2:3b", 0.1, 512)
	require.NoError(t, err)

	assert.Contains(t, generation.Text, "16.63")
	assert.Equal(t, 180, generation.TokensIn)
	assert.Equal(t, 25, generation.TokensOut)
}

func TestAdapter_Invoke_RateLimited(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	adapter := New(WithBaseURL(server.URL))

	_, err := adapter.Invoke(context.Background(), "some prompt", "llama3.2:3b", 0.1, 512)
	require.ErrorIs(t, err, insightserver.ErrRateLimited)
}

func TestAdapter_Invoke_ServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := New(WithBaseURL(server.URL))

	_, err := adapter.Invoke(context.Background(), "some prompt", "missing-model", 0.1, 512)
	require.ErrorIs(t, err, insightserver.ErrBackendUnavailable)
	assert.Contains(t, err.Error(), "model not found")
}
