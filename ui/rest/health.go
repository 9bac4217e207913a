package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/subgate/subgate/pkg/utils"
)

type Health struct {
	DB      *gorm.DB
	started time.Time
}

func InitRestHealth(app fiber.Router, db *gorm.DB) Health {
	handler := Health{DB: db, started: time.Now()}

	group := app.Group("/health")
	group.Get("/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	dbStatus := "up"
	sqlDB, err := h.DB.DB()
	if err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		dbStatus = "down"
	}

	status := 200
	code := "SUCCESS"
	if dbStatus != "up" {
		status = 503
		code = "DEGRADED"
	}

	return c.Status(status).JSON(utils.ResponseData{
		Status:  status,
		Code:    code,
		Message: "Health status retrieved",
		Results: map[string]any{
			"database": dbStatus,
			"uptime":   time.Since(h.started).Round(time.Second).String(),
		},
	})
}
