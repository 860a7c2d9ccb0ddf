package api

import (
	"net/http"
	"strconv"

	"brigade/internal/apperr"
	"brigade/internal/order"

	"github.com/gin-gonic/gin"
)

// CreateOrder ingests a new customer order. The full pipeline runs
// behind this call: validation, price snapshot, atomic persistence,
// workflow derivation, audit.
func (s *Server) CreateOrder(c *gin.Context) {
	var input order.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.orders.CreateOrder(c.Request.Context(), input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetOrder retrieves an order with its items and workflow steps
func (s *Server) GetOrder(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	found, err := s.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// GetOrderStats serves the cached aggregate order view
func (s *Server) GetOrderStats(c *gin.Context) {
	stats, err := s.orders.GetStats(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, apperr.Validation("api.parseID", "invalid id %q", raw)
	}
	return uint(id), nil
}
