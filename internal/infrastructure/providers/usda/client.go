package usda

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/nutrihub/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Name is the provider identifier used in registry, cache and usage records.
const Name = "usda"

// searchResponse mirrors the USDA FoodData Central search payload.
type searchResponse struct {
	Foods       []food `json:"foods"`
	TotalHits   int    `json:"totalHits"`
	CurrentPage int    `json:"currentPage"`
	TotalPages  int    `json:"totalPages"`
}

type food struct {
	FdcID           int        `json:"fdcId"`
	Description     string     `json:"description"`
	DataType        string     `json:"dataType"`
	BrandOwner      string     `json:"brandOwner,omitempty"`
	BrandName       string     `json:"brandName,omitempty"`
	FoodCategory    string     `json:"foodCategory,omitempty"`
	GtinUpc         string     `json:"gtinUpc,omitempty"`
	ServingSize     float64    `json:"servingSize,omitempty"`
	ServingSizeUnit string     `json:"servingSizeUnit,omitempty"`
	Nutrients       []nutrient `json:"foodNutrients"`
}

type nutrient struct {
	NutrientID   int     `json:"nutrientId"`
	NutrientName string  `json:"nutrientName"`
	UnitName     string  `json:"unitName"`
	Value        float64 `json:"value"`
}

// Client handles communication with the USDA FoodData Central API.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	debug       bool
}

// NewClient creates a new USDA API client. requestsPerHour caps the
// outbound call rate (USDA allows 1000/hour on the free tier; pass 0
// to use that default).
func NewClient(apiKey, baseURL string, requestsPerHour int, timeout time.Duration) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = 1000
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limiter := rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600.0), 10)

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
	}
}

// SetDebug toggles verbose request logging.
func (c *Client) SetDebug(debug bool) {
	c.debug = debug
}

// Name implements domain.Provider.
func (c *Client) Name() string {
	return Name
}

// Search queries the USDA database and normalizes the results.
func (c *Client) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("usda: %w", domain.ErrMissingCredentials)
	}

	if c.debug {
		log.Printf("[USDA] Search called with query: %q limit=%d offset=%d", query, opts.Limit, opts.Offset)
	}

	pageSize := opts.Limit
	if pageSize <= 0 {
		pageSize = 20
	}
	pageNumber := opts.Offset/pageSize + 1

	endpoint := fmt.Sprintf("%s/v1/foods/search", c.baseURL)
	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Survey (FNDDS),Foundation,Branded")
	params.Add("pageSize", fmt.Sprintf("%d", pageSize))
	params.Add("pageNumber", fmt.Sprintf("%d", pageNumber))

	reqURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("usda: rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("usda: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "NutriHub/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: usda: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: usda: reading body: %v", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("usda: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: usda: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: usda: %v", domain.ErrMalformedResponse, err)
	}

	foods := make([]domain.NormalizedFood, 0, len(searchResp.Foods))
	for i := range searchResp.Foods {
		foods = append(foods, normalize(&searchResp.Foods[i]))
	}

	if c.debug {
		log.Printf("[USDA] Found %d foods for query: %q (total hits %d)", len(foods), query, searchResp.TotalHits)
	}

	return &domain.SearchResult{
		Foods:        foods,
		Source:       Name,
		TotalResults: searchResp.TotalHits,
		HasMore:      searchResp.CurrentPage < searchResp.TotalPages,
	}, nil
}
