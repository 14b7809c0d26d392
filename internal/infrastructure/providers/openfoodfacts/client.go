package openfoodfacts

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/nutrihub/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Name is the provider identifier used in registry, cache and usage records.
const Name = "openfoodfacts"

var numericQueryRegex = regexp.MustCompile(`^\d{6,14}$`)

// product mirrors the subset of an Open Food Facts product we consume.
// Nutriment values can arrive as numbers or strings, hence any.
type product struct {
	Code          string         `json:"code"`
	ProductName   string         `json:"product_name"`
	Brands        string         `json:"brands"`
	Categories    string         `json:"categories"`
	ImageURL      string         `json:"image_url"`
	ServingQty    any            `json:"serving_quantity"`
	ServingSize   string         `json:"serving_size"`
	Nutriments    map[string]any `json:"nutriments"`
}

type searchResponse struct {
	Products []product `json:"products"`
	Count    int       `json:"count"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

type productResponse struct {
	Status  any     `json:"status"`
	Product product `json:"product"`
}

// Client talks to the Open Food Facts API. It is the only provider
// without a credential requirement, which makes it the guaranteed last
// fallback in the default reliability order.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
}

// NewClient creates a new Open Food Facts client.
func NewClient(baseURL string, requestsPerHour int, timeout time.Duration) *Client {
	if requestsPerHour <= 0 {
		// OFF asks for no more than 100 req/min on the search API.
		requestsPerHour = 6000
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600.0), 10),
	}
}

// Name implements domain.Provider.
func (c *Client) Name() string {
	return Name
}

// Search queries Open Food Facts. When the caller opted into barcode
// handling and the query looks like a barcode, the direct product
// endpoint is used instead of the free-text search.
func (c *Client) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("openfoodfacts: rate limiter: %w", err)
	}

	if opts.IncludeBarcode && numericQueryRegex.MatchString(query) {
		return c.lookupBarcode(ctx, query)
	}
	return c.searchText(ctx, query, opts)
}

func (c *Client) searchText(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	pageSize := opts.Limit
	if pageSize <= 0 {
		pageSize = 20
	}
	page := opts.Offset/pageSize + 1

	params := url.Values{}
	params.Add("search_terms", query)
	params.Add("search_simple", "1")
	params.Add("action", "process")
	params.Add("json", "1")
	params.Add("page_size", fmt.Sprintf("%d", pageSize))
	params.Add("page", fmt.Sprintf("%d", page))

	reqURL := fmt.Sprintf("%s/cgi/search.pl?%s", c.baseURL, params.Encode())

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: openfoodfacts: %v", domain.ErrMalformedResponse, err)
	}

	foods := make([]domain.NormalizedFood, 0, len(searchResp.Products))
	for i := range searchResp.Products {
		foods = append(foods, normalize(&searchResp.Products[i]))
	}

	return &domain.SearchResult{
		Foods:        foods,
		Source:       Name,
		TotalResults: searchResp.Count,
		HasMore:      page*pageSize < searchResp.Count,
	}, nil
}

func (c *Client) lookupBarcode(ctx context.Context, barcode string) (*domain.SearchResult, error) {
	reqURL := fmt.Sprintf("%s/api/v2/product/%s.json", c.baseURL, url.PathEscape(barcode))

	body, err := c.get(ctx, reqURL)
	if err != nil {
		return nil, err
	}

	var prodResp productResponse
	if err := json.Unmarshal(body, &prodResp); err != nil {
		return nil, fmt.Errorf("%w: openfoodfacts: %v", domain.ErrMalformedResponse, err)
	}

	// status 0 means unknown product; an empty result, not an error.
	if asFloat(prodResp.Status) == 0 || prodResp.Product.ProductName == "" {
		return &domain.SearchResult{Foods: []domain.NormalizedFood{}, Source: Name}, nil
	}

	f := normalize(&prodResp.Product)
	if f.Barcode == "" {
		f.Barcode = barcode
	}

	return &domain.SearchResult{
		Foods:        []domain.NormalizedFood{f},
		Source:       Name,
		TotalResults: 1,
	}, nil
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("openfoodfacts: failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "NutriHub/1.0 (https://github.com/nutrihub/backend)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: openfoodfacts: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: openfoodfacts: reading body: %v", domain.ErrProviderFailure, err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("openfoodfacts: %w", domain.ErrRateLimited)
	}
	// The product endpoint answers 404 for unknown barcodes.
	if resp.StatusCode == http.StatusNotFound {
		return []byte(`{"status":0}`), nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: openfoodfacts: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	return body, nil
}
