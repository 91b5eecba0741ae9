package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/collegelover/college-lover-api/ws"
)

// HealthCheck reports liveness, database reachability and websocket load.
func HealthCheck(db *gorm.DB, hub *ws.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		rooms, clients := hub.Stats()
		response := gin.H{
			"success":   true,
			"status":    "ok",
			"message":   "College Lover API is running",
			"timestamp": time.Now().Unix(),
			"db":        "ok",
			"websocket": gin.H{"rooms": rooms, "clients": clients},
		}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			response["success"] = false
			response["status"] = "degraded"
			response["db"] = "error: cannot connect to DB"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}

		c.JSON(http.StatusOK, response)
	}
}
