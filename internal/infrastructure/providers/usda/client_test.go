package usda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nutrihub/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com", 0, 0)

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.Equal(t, "usda", client.Name())
}

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("query"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "10", r.URL.Query().Get("pageSize"))

		response := searchResponse{
			Foods: []food{
				{
					FdcID:       123456,
					Description: "Apples, raw, with skin",
					DataType:    "Foundation",
					Nutrients: []nutrient{
						{NutrientID: nutrientIDEnergy, Value: 52},
						{NutrientID: nutrientIDProtein, Value: 0.26},
					},
				},
			},
			TotalHits:   1,
			CurrentPage: 1,
			TotalPages:  1,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0, 0)

	result, err := client.Search(context.Background(), "apple", domain.SearchOptions{Limit: 10})

	require.NoError(t, err)
	require.Len(t, result.Foods, 1)
	assert.Equal(t, "usda_123456", result.Foods[0].ID)
	assert.Equal(t, "123456", result.Foods[0].ExternalID)
	assert.Equal(t, "Apples, raw, with skin", result.Foods[0].Name)
	assert.True(t, result.Foods[0].Verified)
	assert.Equal(t, "usda", result.Source)
	assert.Equal(t, 1, result.TotalResults)
	assert.False(t, result.HasMore)
}

func TestSearch_MissingAPIKey(t *testing.T) {
	client := NewClient("", "https://api.example.com", 0, 0)

	result, err := client.Search(context.Background(), "apple", domain.SearchOptions{Limit: 10})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrMissingCredentials)
}

func TestSearch_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(searchResponse{Foods: []food{}})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0, 0)

	result, err := client.Search(context.Background(), "zzz", domain.SearchOptions{Limit: 10})

	// An empty result set is not an error; the orchestrator decides
	// whether to fall back.
	require.NoError(t, err)
	assert.Empty(t, result.Foods)
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0, 0)

	result, err := client.Search(context.Background(), "apple", domain.SearchOptions{Limit: 10})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestSearch_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0, 0)

	_, err := client.Search(context.Background(), "apple", domain.SearchOptions{Limit: 10})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestSearch_MalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0, 0)

	_, err := client.Search(context.Background(), "apple", domain.SearchOptions{Limit: 10})

	assert.ErrorIs(t, err, domain.ErrMalformedResponse)
}

func TestSearch_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(searchResponse{})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Search(ctx, "apple", domain.SearchOptions{Limit: 10})

	assert.Error(t, err)
}

func TestSearch_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "3", r.URL.Query().Get("pageNumber"))
		json.NewEncoder(w).Encode(searchResponse{
			Foods:       []food{{FdcID: 1, Description: "x"}},
			TotalHits:   100,
			CurrentPage: 3,
			TotalPages:  10,
		})
	}))
	defer server.Close()

	client := NewClient("test-api-key", server.URL, 0, 0)

	result, err := client.Search(context.Background(), "apple", domain.SearchOptions{Limit: 10, Offset: 20})

	require.NoError(t, err)
	assert.True(t, result.HasMore)
	assert.Equal(t, 100, result.TotalResults)
}
