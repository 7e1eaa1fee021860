package openai

import (
	"clipnest-pipeline/constant"
	"context"
	"encoding/json"
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, APIKey: "sk-test", Timeout: 5 * time.Second})
}

func chatReply(content string) string {
	b, _ := json.Marshal(map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	})
	return string(b)
}

func TestEnrich(t *testing.T) {
	var got chatRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(chatReply(`{"summary":"Tacos in Austin.","sentiment":"positive","tags":["tacos","austin"],"categories":["food"],"venue":"Joe's Diner","city":"Austin"}`)))
	})

	result, err := client.Enrich(context.Background(), "we ate tacos")
	require.NoError(t, err)

	assert.Equal(t, DefaultChatModel, got.Model)
	require.NotNil(t, got.ResponseFormat)
	assert.Equal(t, "json_object", got.ResponseFormat.Type)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "Analyze this transcript:\n\nwe ate tacos", got.Messages[1].Content)

	assert.Equal(t, "Tacos in Austin.", result.Summary)
	assert.Equal(t, constant.SentimentPositive, result.Sentiment)
	assert.Equal(t, []string{"tacos", "austin"}, result.Tags)
	require.NotNil(t, result.Venue)
	assert.Equal(t, "Joe's Diner", *result.Venue)
	assert.Nil(t, result.Address)
}

func TestEnrich_EmptyContent(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := client.Enrich(context.Background(), "x")
	require.ErrorIs(t, err, ErrEmptyResponse)
}

func TestEnrich_MalformedJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply("not json")))
	})

	_, err := client.Enrich(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrEmptyResponse))
}

func TestEnrich_InvalidSentiment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(chatReply(`{"summary":"s","sentiment":"ecstatic","tags":[],"categories":[]}`)))
	})

	_, err := client.Enrich(context.Background(), "x")
	require.ErrorContains(t, err, "unknown sentiment")
}

func TestEnrich_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	})

	_, err := client.Enrich(context.Background(), "x")
	require.ErrorContains(t, err, "rate limited")
}

func TestEmbed(t *testing.T) {
	var got embeddingRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	})

	vec, err := client.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, DefaultEmbeddingModel, got.Model)
	assert.Equal(t, "hello", got.Input)
}

func TestEmbed_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})

	_, err := client.Embed(context.Background(), "hello")
	require.ErrorIs(t, err, ErrEmptyResponse)
}
