package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	chartdomain "github.com/smallbiznis/astrolabe/internal/chart/domain"
)

type engineStatusResponse struct {
	Status          string                   `json:"status"`
	Message         string                   `json:"message"`
	Timestamp       string                   `json:"timestamp"`
	Engine          chartdomain.EngineStatus `json:"engine"`
	UsingRealEngine bool                     `json:"using_real_engine"`
}

// EngineStatus reports which calculation engine this process resolved.
func (s *Server) EngineStatus(c *gin.Context) {
	status := s.chartSvc.EngineStatus(c.Request.Context())
	c.JSON(http.StatusOK, engineStatusResponse{
		Status:          "ok",
		Message:         "service is running",
		Timestamp:       s.clock.Now().Format(time.RFC3339),
		Engine:          status,
		UsingRealEngine: status.UsingRealEngine,
	})
}
