package domain

// ServingSize is one way a food can be portioned. The first entry in a
// food's serving list is the default serving; every food carries at
// least a 100g entry.
type ServingSize struct {
	Name  string  `json:"name"`
	Grams float64 `json:"grams"`
}

// Nutrients holds nutrient values normalized to a 100 gram basis.
// Calories, protein, carbs and fat are always present (0 when a
// provider omits them); the rest are nil when the provider did not
// report them. Sodium, cholesterol, calcium, iron and vitamin C are in
// milligrams, everything else in grams except calories (kcal).
type Nutrients struct {
	Calories     float64  `json:"calories"`
	Protein      float64  `json:"protein"`
	Carbs        float64  `json:"carbs"`
	Fat          float64  `json:"fat"`
	Fiber        *float64 `json:"fiber,omitempty"`
	Sugar        *float64 `json:"sugar,omitempty"`
	Sodium       *float64 `json:"sodium,omitempty"`
	SaturatedFat *float64 `json:"saturatedFat,omitempty"`
	Cholesterol  *float64 `json:"cholesterol,omitempty"`
	Calcium      *float64 `json:"calcium,omitempty"`
	Iron         *float64 `json:"iron,omitempty"`
	VitaminC     *float64 `json:"vitaminC,omitempty"`
}

// NormalizedFood is the canonical food record returned to callers
// regardless of which provider produced it.
type NormalizedFood struct {
	ID           string        `json:"id"` // provider-namespaced, e.g. "usda_123456"
	Name         string        `json:"name"`
	Brand        string        `json:"brand,omitempty"`
	Category     string        `json:"category,omitempty"`
	Barcode      string        `json:"barcode,omitempty"`
	ServingSizes []ServingSize `json:"servingSizes"`
	Nutrients    Nutrients     `json:"nutrientsPer100g"`
	Source       string        `json:"source"`
	ExternalID   string        `json:"externalId"`
	Verified     bool          `json:"verified"`
	ImageURL     string        `json:"imageUrl,omitempty"`
}

// SearchOptions carries caller-supplied search parameters.
type SearchOptions struct {
	Limit          int      `json:"limit"`
	Offset         int      `json:"offset"`
	PreferredAPIs  []string `json:"preferredApis,omitempty"`
	IncludeBarcode bool     `json:"includeBarcode,omitempty"`
}

// SearchResult is the normalized result set for one search. Source is
// "cache", a provider name, or "none" when every provider was exhausted.
type SearchResult struct {
	Foods        []NormalizedFood `json:"foods"`
	Source       string           `json:"source"`
	TotalResults int              `json:"totalResults,omitempty"`
	HasMore      bool             `json:"hasMore,omitempty"`
}

// SourceCache and SourceNone are the two non-provider values of
// SearchResult.Source.
const (
	SourceCache = "cache"
	SourceNone  = "none"
)

// ProviderConfig is the per-provider configuration the core reads from
// the admin/configuration layer. Immutable for the duration of one
// request; the core never writes it back.
type ProviderConfig struct {
	Name              string `json:"name"`
	Enabled           bool   `json:"enabled"`
	HasCredentials    bool   `json:"hasCredentials"`
	RateLimitPerHour  int    `json:"rateLimitPerHour,omitempty"`
	RateLimitPerDay   int    `json:"rateLimitPerDay,omitempty"`
	RateLimitPerMonth int    `json:"rateLimitPerMonth,omitempty"`
}
