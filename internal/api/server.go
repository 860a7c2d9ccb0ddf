package api

import (
	"net/http"

	"brigade/internal/order"
	"brigade/internal/station"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server is the HTTP boundary of the ordering core. It adapts JSON
// requests to in-process service calls and maps the error taxonomy to
// status codes; all business rules live in the services.
type Server struct {
	router   *gin.Engine
	orders   *order.Service
	stations *station.Registry
	log      *zap.Logger
}

// NewServer creates the API server and registers all routes
func NewServer(orders *order.Service, stations *station.Registry, log *zap.Logger) *Server {
	router := gin.Default()

	s := &Server{
		router:   router,
		orders:   orders,
		stations: stations,
		log:      log,
	}

	s.setupRoutes()
	return s
}

// Router exposes the underlying engine for serving and tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := s.router.Group("/api/v1")
	{
		// Order ingestion
		v1.POST("/orders", s.CreateOrder)
		v1.GET("/orders/:id", s.GetOrder)
		v1.GET("/stats/orders", s.GetOrderStats)

		// Station administration
		v1.GET("/stations", s.ListStations)
		v1.GET("/stations/:id", s.GetStation)
		v1.POST("/stations", s.CreateStation)
		v1.PUT("/stations/:id", s.UpdateStation)
		v1.DELETE("/stations/:id", s.DeleteStation)
	}
}
