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
)

func TestGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		var req struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tiny", req.Model)
		assert.Equal(t, 100, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		assert.Equal(t, "the prompt", req.Messages[0].Content)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "x",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": "  blue \n"},
			}},
		})
	}))
	defer srv.Close()

	t.Setenv("RAG_GEN_KEY", "k")
	g, err := NewGenerator(Config{BaseURL: srv.URL, APIKeyEnv: "RAG_GEN_KEY", Model: "tiny", Timeout: 5 * time.Second})
	require.NoError(t, err)
	assert.Equal(t, "openai:tiny", g.Name())

	out, err := g.Generate(context.Background(), "the prompt", 100)
	require.NoError(t, err)
	assert.Equal(t, "blue", out)
}

func TestGenerator_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	t.Setenv("RAG_GEN_KEY", "k")
	g, err := NewGenerator(Config{BaseURL: srv.URL, APIKeyEnv: "RAG_GEN_KEY"})
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "p", 10)
	assert.Error(t, err)
}

func TestNewGenerator_MissingKey(t *testing.T) {
	t.Setenv("RAG_GEN_MISSING", "")
	_, err := NewGenerator(Config{APIKeyEnv: "RAG_GEN_MISSING"})
	assert.Error(t, err)
}
