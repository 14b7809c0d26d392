package fatsecret

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nutrihub/backend/internal/domain"
	"golang.org/x/time/rate"
)

// Name is the provider identifier used in registry, cache and usage records.
const Name = "fatsecret"

// tokenRefreshSlack refreshes the OAuth token slightly before its
// actual expiry so in-flight searches never race a lapsed token.
const tokenRefreshSlack = time.Minute

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type searchResponse struct {
	Foods struct {
		Food         foodList `json:"food"`
		MaxResults   string   `json:"max_results"`
		TotalResults string   `json:"total_results"`
		PageNumber   string   `json:"page_number"`
	} `json:"foods"`
}

type apiFood struct {
	FoodID          string `json:"food_id"`
	FoodName        string `json:"food_name"`
	BrandName       string `json:"brand_name"`
	FoodType        string `json:"food_type"`
	FoodDescription string `json:"food_description"`
	FoodURL         string `json:"food_url"`
}

// foodList tolerates FatSecret returning a single object instead of an
// array when exactly one food matches.
type foodList []apiFood

func (l *foodList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var single apiFood
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = foodList{single}
		return nil
	}
	var many []apiFood
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}

// Client talks to the FatSecret platform API using OAuth2 client
// credentials. The access token is cached per client and refreshed on
// expiry or a 401 from the search endpoint.
type Client struct {
	httpClient   *http.Client
	clientID     string
	clientSecret string
	baseURL      string
	tokenURL     string
	rateLimiter  *rate.Limiter

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a new FatSecret client.
func NewClient(clientID, clientSecret, baseURL, tokenURL string, requestsPerHour int, timeout time.Duration) *Client {
	if requestsPerHour <= 0 {
		requestsPerHour = 5000
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		clientID:     clientID,
		clientSecret: clientSecret,
		baseURL:      baseURL,
		tokenURL:     tokenURL,
		rateLimiter:  rate.NewLimiter(rate.Limit(float64(requestsPerHour)/3600.0), 10),
	}
}

// Name implements domain.Provider.
func (c *Client) Name() string {
	return Name
}

// Search runs foods.search against the platform API and normalizes the
// results. Nutrient values are parsed out of each food's description
// string, best effort.
func (c *Client) Search(ctx context.Context, query string, opts domain.SearchOptions) (*domain.SearchResult, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return nil, fmt.Errorf("fatsecret: %w", domain.ErrMissingCredentials)
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("fatsecret: rate limiter: %w", err)
	}

	maxResults := opts.Limit
	if maxResults <= 0 {
		maxResults = 20
	}
	pageNumber := opts.Offset / maxResults

	body, status, err := c.doSearch(ctx, query, maxResults, pageNumber)
	if err != nil {
		return nil, err
	}

	// A 401 means the cached token lapsed server-side; refresh once and
	// replay the search. This is the token sub-call, not a search retry.
	if status == http.StatusUnauthorized {
		c.invalidateToken()
		body, status, err = c.doSearch(ctx, query, maxResults, pageNumber)
		if err != nil {
			return nil, err
		}
	}

	if status == http.StatusTooManyRequests {
		return nil, fmt.Errorf("fatsecret: %w", domain.ErrRateLimited)
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: fatsecret: status %d", domain.ErrProviderFailure, status)
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("%w: fatsecret: %v", domain.ErrMalformedResponse, err)
	}

	foods := make([]domain.NormalizedFood, 0, len(searchResp.Foods.Food))
	for i := range searchResp.Foods.Food {
		foods = append(foods, normalize(&searchResp.Foods.Food[i]))
	}

	total := atoi(searchResp.Foods.TotalResults)
	page := atoi(searchResp.Foods.PageNumber)

	return &domain.SearchResult{
		Foods:        foods,
		Source:       Name,
		TotalResults: total,
		HasMore:      (page+1)*maxResults < total,
	}, nil
}

func (c *Client) doSearch(ctx context.Context, query string, maxResults, pageNumber int) ([]byte, int, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, 0, err
	}

	params := url.Values{}
	params.Add("method", "foods.search")
	params.Add("search_expression", query)
	params.Add("format", "json")
	params.Add("max_results", fmt.Sprintf("%d", maxResults))
	params.Add("page_number", fmt.Sprintf("%d", pageNumber))

	reqURL := fmt.Sprintf("%s/rest/server.api?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("fatsecret: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "NutriHub/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: fatsecret: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: fatsecret: reading body: %v", domain.ErrProviderFailure, err)
	}

	return body, resp.StatusCode, nil
}

// token returns a cached access token, fetching a fresh one when the
// cache is empty or about to expire.
func (c *Client) token(ctx context.Context) (string, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-tokenRefreshSlack)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Add("grant_type", "client_credentials")
	form.Add("scope", "basic")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("fatsecret: failed to create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: fatsecret: token: %v", domain.ErrProviderFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return "", fmt.Errorf("fatsecret: token rejected: %w", domain.ErrMissingCredentials)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: fatsecret: token: status %d", domain.ErrProviderFailure, resp.StatusCode)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("%w: fatsecret: token: %v", domain.ErrMalformedResponse, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: fatsecret: empty access token", domain.ErrMalformedResponse)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)

	return c.accessToken, nil
}

func (c *Client) invalidateToken() {
	c.tokenMu.Lock()
	c.accessToken = ""
	c.tokenExpiry = time.Time{}
	c.tokenMu.Unlock()
}

func atoi(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}
