package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health reports process and database liveness. A broken database makes the
// status "degraded" but still answers 200: the API itself is up.
func (s *Server) Health(c *gin.Context) {
	status := "ok"
	database := "up"

	sqlDB, err := s.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		status = "degraded"
		database = "down"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
