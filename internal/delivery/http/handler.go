package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/myfcd/harvester/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// TableReader is the read side of the harvested table
type TableReader interface {
	Food(ctx context.Context, name string) (*domain.FoodRecord, error)
	FoodNames(ctx context.Context) ([]string, error)
	NutrientNames(ctx context.Context) ([]string, error)
	Search(ctx context.Context, query string, limit int) ([]domain.SearchMatch, error)
	LatestRun(ctx context.Context) (*domain.RunSummary, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	tables TableReader
}

// NewHandler creates a new HTTP handler
func NewHandler(tables TableReader) *Handler {
	return &Handler{tables: tables}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "myfcd-harvester",
		"version": Version,
	})
}

// ListFoods returns every food name, or the best matches for ?q=
func (h *Handler) ListFoods(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	if query := c.Query("q"); query != "" {
		limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
		if err != nil || limit < 0 {
			c.Header("Cache-Control", "no-store")
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		matches, err := h.tables.Search(c.Request.Context(), query, limit)
		if err != nil {
			h.writeError(c, err)
			return
		}
		if matches == nil {
			matches = []domain.SearchMatch{}
		}
		c.JSON(http.StatusOK, gin.H{"query": query, "matches": matches})
		return
	}

	names, err := h.tables.FoodNames(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(names), "foods": names})
}

// GetFood returns one food record by exact display name
func (h *Handler) GetFood(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	record, err := h.tables.Food(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// ListNutrients returns the union of nutrient names across all foods
func (h *Handler) ListNutrients(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	names, err := h.tables.NutrientNames(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(names), "nutrients": names})
}

// LatestRun returns the summary of the run being served
func (h *Handler) LatestRun(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	summary, err := h.tables.LatestRun(c.Request.Context())
	if err != nil {
		if errors.Is(err, domain.ErrCacheMiss) {
			c.Header("Cache-Control", "no-store")
			c.JSON(http.StatusNotFound, gin.H{"error": "no harvest run recorded"})
			return
		}
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// ready answers 501 when the handler was built without a table reader
func (h *Handler) ready(c *gin.Context) bool {
	if h.tables == nil {
		c.Header("Cache-Control", "no-store")
		c.JSON(http.StatusNotImplemented, gin.H{"error": "food table not configured"})
		return false
	}
	return true
}

// writeError maps domain errors to HTTP status codes
func (h *Handler) writeError(c *gin.Context, err error) {
	c.Header("Cache-Control", "no-store")
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrFoodNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrCacheMiss):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no harvested table available"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
