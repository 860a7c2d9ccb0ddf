package api

import (
	"net/http"

	"brigade/internal/station"

	"github.com/gin-gonic/gin"
)

// ListStations returns all stations in step-order ascending
func (s *Server) ListStations(c *gin.Context) {
	stations, err := s.stations.ListStations(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stations)
}

// GetStation returns one station by id
func (s *Server) GetStation(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	found, err := s.stations.GetStation(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, found)
}

// CreateStation registers a new kitchen station
func (s *Server) CreateStation(c *gin.Context) {
	var input station.CreateStationInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := s.stations.CreateStation(c.Request.Context(), input)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, created)
}

// UpdateStation applies a partial update to a station
func (s *Server) UpdateStation(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var patch station.StationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.stations.UpdateStation(c.Request.Context(), id, patch)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteStation removes a station unless workflow steps still
// reference it
func (s *Server) DeleteStation(c *gin.Context) {
	id, err := parseID(c.Param("id"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	if err := s.stations.DeleteStation(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "station deleted"})
}
