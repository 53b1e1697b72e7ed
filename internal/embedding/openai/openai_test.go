package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ragloc/internal/vecmath"
)

func newTestServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"server_error"}}`))
			return
		}
		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)

		type item struct {
			Object    string    `json:"object"`
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		data := make([]item, len(req.Input))
		// answer in reverse order to exercise index mapping
		for i := range req.Input {
			j := len(req.Input) - 1 - i
			data[i] = item{Object: "embedding", Index: j, Embedding: []float32{float32(len(req.Input[j])), 0, 0}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data, "model": req.Model})
	}))
}

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	t.Setenv("RAG_TEST_KEY", "test-key")
	c, err := NewClient(Config{BaseURL: url, APIKeyEnv: "RAG_TEST_KEY", Model: "test-model", Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestClient_Encode(t *testing.T) {
	srv := newTestServer(t, http.StatusOK)
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	vecs, err := c.Encode(context.Background(), []string{"a", "bbb"}, false)
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, float32(1), vecs[0][0])
	assert.Equal(t, float32(3), vecs[1][0])
	assert.Equal(t, 3, c.Dimension())
	assert.Equal(t, "openai:test-model", c.Name())

	vecs, err = c.Encode(context.Background(), []string{"bbb"}, true)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vecmath.Norm(vecs[0]), 1e-6)
}

func TestClient_EncodeServerError(t *testing.T) {
	srv := newTestServer(t, http.StatusInternalServerError)
	defer srv.Close()
	c := newTestClient(t, srv.URL)

	_, err := c.Encode(context.Background(), []string{"a"}, false)
	assert.Error(t, err)
}

func TestNewClient_MissingKey(t *testing.T) {
	t.Setenv("RAG_MISSING_KEY", "")
	_, err := NewClient(Config{APIKeyEnv: "RAG_MISSING_KEY"})
	assert.ErrorContains(t, err, "RAG_MISSING_KEY")
}
