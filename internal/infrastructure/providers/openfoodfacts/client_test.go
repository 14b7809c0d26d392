package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nutrihub/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Text(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		assert.Equal(t, "nutella", r.URL.Query().Get("search_terms"))
		assert.Equal(t, "1", r.URL.Query().Get("json"))

		w.Write([]byte(`{
			"count": 2,
			"page": 1,
			"page_size": 20,
			"products": [
				{
					"code": "3017620422003",
					"product_name": "Nutella",
					"brands": "Ferrero,Nutella",
					"categories": "Spreads,Sweet spreads",
					"image_url": "https://images.example/nutella.jpg",
					"serving_quantity": "15",
					"serving_size": "1 tbsp (15g)",
					"nutriments": {
						"energy-kcal_100g": 539,
						"proteins_100g": 6.3,
						"carbohydrates_100g": 57.5,
						"fat_100g": 30.9,
						"sugars_100g": 56.3,
						"saturated-fat_100g": 10.6,
						"sodium_100g": 0.0428
					}
				},
				{
					"code": "1234",
					"product_name": "Hazelnut Spread",
					"nutriments": {}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 0)

	result, err := client.Search(context.Background(), "nutella", domain.SearchOptions{Limit: 20})

	require.NoError(t, err)
	require.Len(t, result.Foods, 2)
	assert.Equal(t, 2, result.TotalResults)
	assert.False(t, result.HasMore)

	f := result.Foods[0]
	assert.Equal(t, "openfoodfacts_3017620422003", f.ID)
	assert.Equal(t, "3017620422003", f.ExternalID)
	assert.Equal(t, "3017620422003", f.Barcode)
	assert.Equal(t, "Nutella", f.Name)
	assert.Equal(t, "Ferrero", f.Brand)
	assert.Equal(t, "Spreads", f.Category)
	assert.False(t, f.Verified)
	assert.Equal(t, "https://images.example/nutella.jpg", f.ImageURL)

	require.Len(t, f.ServingSizes, 2)
	assert.Equal(t, "100g", f.ServingSizes[0].Name)
	assert.Equal(t, "1 tbsp (15g)", f.ServingSizes[1].Name)
	assert.Equal(t, 15.0, f.ServingSizes[1].Grams)

	assert.Equal(t, 539.0, f.Nutrients.Calories)
	require.NotNil(t, f.Nutrients.Sugar)
	assert.Equal(t, 56.3, *f.Nutrients.Sugar)
	require.NotNil(t, f.Nutrients.Sodium)
	assert.InDelta(t, 42.8, *f.Nutrients.Sodium, 0.001) // g -> mg

	// Product with empty nutriments defaults macros to 0.
	assert.Equal(t, 0.0, result.Foods[1].Nutrients.Calories)
	assert.Nil(t, result.Foods[1].Nutrients.Sugar)
}

func TestSearch_BarcodeLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v2/product/3017620422003.json", r.URL.Path)
		w.Write([]byte(`{
			"status": 1,
			"product": {
				"code": "3017620422003",
				"product_name": "Nutella",
				"nutriments": {"energy-kcal_100g": 539}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 0)

	result, err := client.Search(context.Background(), "3017620422003", domain.SearchOptions{Limit: 20, IncludeBarcode: true})

	require.NoError(t, err)
	require.Len(t, result.Foods, 1)
	assert.Equal(t, "Nutella", result.Foods[0].Name)
	assert.Equal(t, 1, result.TotalResults)
}

func TestSearch_BarcodeUnknownProduct(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 0)

	result, err := client.Search(context.Background(), "0000000000000", domain.SearchOptions{IncludeBarcode: true})

	// Unknown barcode is a soft failure: empty result, no error.
	require.NoError(t, err)
	assert.Empty(t, result.Foods)
}

func TestSearch_NumericQueryWithoutBarcodeFlag(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Must hit the text search endpoint, not the product endpoint.
		assert.Equal(t, "/cgi/search.pl", r.URL.Path)
		w.Write([]byte(`{"count":0,"products":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 0)

	_, err := client.Search(context.Background(), "3017620422003", domain.SearchOptions{Limit: 5})

	require.NoError(t, err)
}

func TestSearch_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, 0, 0)

	_, err := client.Search(context.Background(), "apple", domain.SearchOptions{Limit: 5})

	assert.ErrorIs(t, err, domain.ErrProviderFailure)
}

func TestAsFloat(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"float", 42.5, 42.5},
		{"string number", "13.81", 13.81},
		{"string with spaces", " 7 ", 7},
		{"garbage string", "n/a", 0},
		{"nil", nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, asFloat(tt.in))
		})
	}
}
