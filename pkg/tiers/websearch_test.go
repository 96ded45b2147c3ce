package tiers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greglas75/coding-ui-sub005/pkg/config"
	"github.com/greglas75/coding-ui-sub005/pkg/evidence"
)

func webSearchRequest() *evidence.ValidationRequest {
	return &evidence.ValidationRequest{
		Label:        "Nike",
		ResponseText: "nike running shoes",
		Category: evidence.CategoryContext{
			Name:          "Sportswear",
			AllowedLabels: []string{"Nike", "Adidas"},
		},
	}
}

func TestWebSearchEvaluate(t *testing.T) {
	t.Setenv("TEST_SEARCH_KEY", "secret-key")

	var gotKey, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		var body struct {
			Query string `json:"q"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body.Query

		json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "Nike official store", "link": "https://nike.example", "snippet": "shop nike"},
				{"title": "Running shoe reviews", "link": "https://reviews.example", "snippet": "best shoes 2025"},
				{"title": "Nike Air history", "link": "https://history.example", "snippet": "the swoosh"},
				{"title": "Marathon training", "link": "https://train.example", "snippet": "plans"},
			},
			"images": []map[string]string{
				{"imageUrl": "https://img.example/shoe.jpg"},
				{"imageUrl": ""},
			},
		})
	}))
	defer server.Close()

	provider := NewWebSearchProvider(config.WebSearchConfig{
		Endpoint:  server.URL,
		APIKeyEnv: "TEST_SEARCH_KEY",
	}, server.Client())

	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, "secret-key", gotKey)
	assert.Contains(t, gotQuery, "nike running shoes")
	assert.Contains(t, gotQuery, "Nike")

	assert.Equal(t, evidence.TierWebSearch, result.Tier)
	assert.Equal(t, evidence.StatusSucceeded, result.Status)
	assert.Equal(t, "Nike", result.Label)
	require.NotNil(t, result.Confidence)
	assert.InDelta(t, 0.5, *result.Confidence, 1e-9)
	assert.True(t, result.InAllowedSet)
	assert.Equal(t, []string{"https://img.example/shoe.jpg"}, result.Images)
	assert.Len(t, result.Matches, 4)
}

func TestWebSearchEvaluateNoOrganicResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{},
			"images":  []map[string]string{{"imageUrl": "https://img.example/only.jpg"}},
		})
	}))
	defer server.Close()

	provider := NewWebSearchProvider(config.WebSearchConfig{Endpoint: server.URL}, server.Client())
	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, evidence.StatusSucceeded, result.Status)
	assert.Empty(t, result.Label)
	assert.Nil(t, result.Confidence)
	assert.Equal(t, []string{"https://img.example/only.jpg"}, result.Images)
}

func TestWebSearchEvaluateServerErrorRetriesOnce(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	provider := NewWebSearchProvider(config.WebSearchConfig{Endpoint: server.URL}, server.Client())
	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, evidence.StatusFailed, result.Status)
	assert.Contains(t, result.Error, "upstream unavailable")
	assert.EqualValues(t, 2, calls.Load())
}

func TestWebSearchEvaluateRecoversAfterRetryableError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"organic": []map[string]string{
				{"title": "Nike store", "link": "https://nike.example", "snippet": ""},
			},
		})
	}))
	defer server.Close()

	provider := NewWebSearchProvider(config.WebSearchConfig{Endpoint: server.URL}, server.Client())
	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, evidence.StatusSucceeded, result.Status)
	assert.EqualValues(t, 2, calls.Load())
}

func TestWebSearchEvaluateMalformedResponse(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	provider := NewWebSearchProvider(config.WebSearchConfig{Endpoint: server.URL}, server.Client())
	result := provider.Evaluate(context.Background(), webSearchRequest())

	assert.Equal(t, evidence.StatusFailed, result.Status)
	// Parse failures are not transient: no retry.
	assert.EqualValues(t, 1, calls.Load())
}
