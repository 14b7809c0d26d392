package http

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nutrihub/backend/internal/domain"
	"github.com/nutrihub/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search  *usecase.SearchService
	tracker *usecase.UsageTracker
}

// NewHandler creates a new HTTP handler
func NewHandler(search *usecase.SearchService, tracker *usecase.UsageTracker) *Handler {
	return &Handler{search: search, tracker: tracker}
}

// SearchRequest is the body of POST /api/v1/foods/search.
type SearchRequest struct {
	Query          string   `json:"query" binding:"required"`
	Limit          int      `json:"limit"`
	Offset         int      `json:"offset"`
	PreferredAPIs  []string `json:"preferred_apis"`
	IncludeBarcode bool     `json:"include_barcode"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutrihub-backend",
		"version": "1.0.0",
	})
}

// SearchFoods handles food search requests
func (h *Handler) SearchFoods(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.search.Search(c.Request.Context(), req.Query, domain.SearchOptions{
		Limit:          req.Limit,
		Offset:         req.Offset,
		PreferredAPIs:  req.PreferredAPIs,
		IncludeBarcode: req.IncludeBarcode,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRequest):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Client went away; 499 in the nginx tradition.
			c.Status(499)
		default:
			log.Printf("[HTTP] search failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// UsageStats returns per-provider usage aggregates. The optional
// "days" query parameter bounds the window (default 30).
func (h *Handler) UsageStats(c *gin.Context) {
	days := 30
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	stats, err := h.tracker.Stats(c.Request.Context(), days)
	if err != nil {
		log.Printf("[HTTP] usage stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"windowDays": days,
		"stats":      stats,
	})
}

// ClearCache drops every cached search result.
func (h *Handler) ClearCache(c *gin.Context) {
	if err := h.search.ClearCache(c.Request.Context()); err != nil {
		log.Printf("[HTTP] cache clear failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
