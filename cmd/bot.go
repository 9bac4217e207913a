package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	coreconfig "github.com/subgate/subgate/core/config"
	"github.com/subgate/subgate/pkg/utils"
	"github.com/subgate/subgate/ui/rest"
	"github.com/subgate/subgate/ui/rest/middleware"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the subscription bot and the operational http API",
	Long: `Starts the Telegram long-poll loop, the hourly expiry scanner and a
small http API for health and subscription statistics.`,
	Run: runBot,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func runBot(_ *cobra.Command, _ []string) {
	cfg := coreconfig.Global

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app := fiber.New(fiber.Config{
		Network:               "tcp",
		AppName:               "Subgate",
		DisableStartupMessage: false,
		ServerHeader:          "Hidden",
	})

	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	if cfg.App.Debug {
		app.Use(logger.New())
	}

	apiGroup := app.Group("/api")
	rest.InitRestHealth(apiGroup, db)
	rest.InitRestSubscription(apiGroup, subscriberRepo, settingsSvc)

	apiGroup.Get("/workers/stats", func(c *fiber.Ctx) error {
		return c.JSON(utils.ResponseData{
			Status:  200,
			Code:    "SUCCESS",
			Message: "Worker pool stats retrieved",
			Results: updateRouter.PoolStats(),
		})
	})

	apiGroup.All("/*", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "API Endpoint not found",
			"path":  c.Path(),
		})
	})

	// Telegram update loop
	go func() {
		if err := updateRouter.Run(ctx); err != nil && err != context.Canceled {
			logrus.WithError(err).Error("[TELEGRAM] Update loop terminated")
		}
	}()

	// Expiry scanner
	go func() {
		if err := expiryScanner.Run(ctx); err != nil && err != context.Canceled {
			logrus.WithError(err).Error("[SCANNER] Scanner terminated")
		}
	}()

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[BOT] Reception of termination signal, shutting down gracefully...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.Errorf("[BOT] Error during Fiber shutdown: %v", err)
		}
		StopApp()
	}()

	if err := app.Listen(":" + cfg.App.Port); err != nil {
		logrus.Fatalln("[BOT] Failed to start http API:", err)
	}
}
