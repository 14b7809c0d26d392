package nutritionix

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/nutrihub/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Name is the provider identifier used in registry, cache and usage records.
const Name = "nutritionix"

type instantResponse struct {
	Branded []brandedItem `json:"branded"`
	Common  []commonItem  `json:"common"`
}

type brandedItem struct {
	NixItemID          string         `json:"nix_item_id"`
	FoodName           string         `json:"food_name"`
	BrandName          string         `json:"brand_name"`
	ServingQty         float64        `json:"serving_qty"`
	ServingUnit        string         `json:"serving_unit"`
	ServingWeightGrams float64        `json:"serving_weight_grams"`
	Calories           float64        `json:"nf_calories"`
	Photo              photo          `json:"photo"`
	FullNutrients      []fullNutrient `json:"full_nutrients"`
}

type commonItem struct {
	FoodName           string         `json:"food_name"`
	TagID              string         `json:"tag_id"`
	ServingQty         float64        `json:"serving_qty"`
	ServingUnit        string         `json:"serving_unit"`
	ServingWeightGrams float64        `json:"serving_weight_grams"`
	Photo              photo          `json:"photo"`
	FullNutrients      []fullNutrient `json:"full_nutrients"`
}

type photo struct {
	Thumb string `json:"thumb"`
}

type fullNutrient struct {
	AttrID int     `json:"attr_id"`
	Value  float64 `json:"value"`
}

// Client talks to the Nutritionix v2 API. Credentials travel as
// x-app-id / x-app-key headers on every request.
type Client struct {
	httpClient  *http.Client
	appID       string
	appKey      string
	baseURL     string
	rateLimiter *rate.Limiter
}

// NewClient creates a new Nutritionix client.
func NewClient(appID, appKey, baseURL string, requestsPerHour int, timeout time.Duration) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = 200
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		appID:       appID,
		appKey:      appKey,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600.0), 5),
	}
}

// Name implements domain.Provider.
func (c *Client) Name() string {
	return Name
}

// Search runs an instant search and normalizes branded and common
// results. Nutritionix reports nutrients per declared serving, so the
// mapper rescales everything to 100 g using serving_weight_grams.
func (c *Client) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if c.appID == "" || c.appKey == "" {
		return nil, fmt.Errorf("nutritionix: %w", domain.ErrMissingCredentials)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("nutritionix: rate limiter: %w", err)
	}

	params := url.Values{}
	params.Add("query", query)
	params.Add("detailed", "true")

	reqURL := fmt.Sprintf("%s/v2/search/instant?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("nutritionix: failed to create request: %w", err)
	}
	req.Header.Set("x-app-id", c.appID)
	req.Header.Set("x-app-key", c.appKey)
	req.Header.Set("User-Agent", "NutriHub/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: nutritionix: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: nutritionix: reading body: %v", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("nutritionix: %w", domain.ErrRateLimited)
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("nutritionix: credentials rejected: %w", domain.ErrMissingCredentials)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: nutritionix: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var instResp instantResponse
	if err := json.Unmarshal(body, &instResp); err != nil {
		return nil, fmt.Errorf("%w: nutritionix: %v", domain.ErrMalformedResponse, err)
	}

	foods := make([]domain.NormalizedFood, 0, len(instResp.Branded)+len(instResp.Common))
	for i := range instResp.Branded {
		foods = append(foods, normalizeBranded(&instResp.Branded[i]))
	}
	for i := range instResp.Common {
		foods = append(foods, normalizeCommon(&instResp.Common[i]))
	}

	total := len(foods)

	// The instant endpoint has no server-side paging; apply the
	// caller's window locally.
	limit := opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if opts.Offset >= len(foods) {
		foods = []domain.NormalizedFood{}
	} else {
		foods = foods[opts.Offset:]
	}
	hasMore := len(foods) > limit
	if hasMore {
		foods = foods[:limit]
	}

	return &domain.SearchResult{
		Foods:        foods,
		Source:       Name,
		TotalResults: total,
		HasMore:      hasMore,
	}, nil
}
