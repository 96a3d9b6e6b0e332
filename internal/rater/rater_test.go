package rater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cdc542559455/lmcache-leaderboard/internal/contract"
	"github.com/cdc542559455/lmcache-leaderboard/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRaterRate(t *testing.T) {
	var got chatRequest
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": " 18\n"}}]}`)
	}))
	defer server.Close()

	r := NewChatRater(server.Client(), server.URL+"/v1/", "sk-test", "gpt-4o-mini")
	reply, err := r.Rate(t.Context(), "rate this")

	require.NoError(t, err)
	assert.Equal(t, "18", reply)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	assert.Equal(t, maxTokens, got.MaxTokens)
	assert.Zero(t, got.Temperature)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, "rate this", got.Messages[0].Content)
	assert.Equal(t, "gpt-4o-mini", r.Model())
}

func TestChatRaterErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr string
	}{
		{name: "http error", status: http.StatusUnauthorized, body: `{"error": {"message": "bad key"}}`, wantErr: "401"},
		{name: "api error", status: http.StatusOK, body: `{"error": {"message": "overloaded"}}`, wantErr: "overloaded"},
		{name: "no choices", status: http.StatusOK, body: `{"choices": []}`, wantErr: "no choices"},
		{name: "bad json", status: http.StatusOK, body: `not json`, wantErr: "decoding"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := NewChatRater(server.Client(), server.URL, "", "m").Rate(t.Context(), "p")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestChatRaterHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()
	_, err := NewChatRater(server.Client(), server.URL, "", "m").Rate(ctx, "p")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	assert.Nil(t, New(&contract.Config{Rater: schema.NoRater}))

	r := New(&contract.Config{Rater: schema.OpenAIRater, RaterModel: "m", RaterBaseURL: "http://x"})
	require.NotNil(t, r)
	assert.Equal(t, "m", r.Model())
}
