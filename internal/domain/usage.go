package domain

import "time"

// UsageRecord is one append-only log entry per provider invocation.
type UsageRecord struct {
	Provider     string    `json:"provider" db:"api_used"`
	Query        string    `json:"query" db:"search_query"`
	ResultCount  int       `json:"resultCount" db:"results_count"`
	ErrorMessage string    `json:"errorMessage,omitempty" db:"error_message"`
	Timestamp    time.Time `json:"timestamp" db:"search_timestamp"`
}

// APIUsageStats is the per-provider aggregate derived from usage
// records on read. Day and month boundaries are UTC calendar
// boundaries.
type APIUsageStats struct {
	API               string    `json:"api" db:"api_used"`
	RequestsToday     int       `json:"requestsToday" db:"requests_today"`
	RequestsThisMonth int       `json:"requestsThisMonth" db:"requests_this_month"`
	LastRequest       time.Time `json:"lastRequest" db:"last_request"`
}
