package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/evalstats/internal/events"
	"gorm.io/gorm"
)

// HealthHandler reports the state of the store and the event pipeline.
type HealthHandler struct {
	db    *gorm.DB
	bus   events.Bus
	relay *events.Relay
}

func NewHealthHandler(db *gorm.DB, bus events.Bus, relay *events.Relay) *HealthHandler {
	return &HealthHandler{db: db, bus: bus, relay: relay}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"
	status := 200

	dbStatus := "ok"
	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		dbStatus = "error: " + err.Error()
	}
	if dbStatus != "ok" {
		overall = "unhealthy"
		status = 503
	}

	busMode := "local"
	if h.bus != nil && h.bus.IsAsync() {
		busMode = "async (Redis)"
	}

	var pending int64 = -1
	if h.relay != nil && dbStatus == "ok" {
		if n, err := h.relay.Pending(c.Request.Context()); err == nil {
			pending = n
		}
	}

	c.JSON(status, gin.H{
		"status":  overall,
		"service": "evalstats",
		"components": gin.H{
			"database":       dbStatus,
			"event_bus":      busMode,
			"pending_events": pending,
		},
	})
}
