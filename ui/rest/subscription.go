package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"

	settingsApp "github.com/subgate/subgate/core/settings/application"
	pkgError "github.com/subgate/subgate/pkg/error"
	"github.com/subgate/subgate/pkg/utils"
	"github.com/subgate/subgate/subscription/domain"
)

type Subscription struct {
	Subscribers domain.ISubscriberRepository
	Settings    *settingsApp.SettingsService
}

func InitRestSubscription(app fiber.Router, subs domain.ISubscriberRepository, settings *settingsApp.SettingsService) Subscription {
	handler := Subscription{Subscribers: subs, Settings: settings}

	group := app.Group("/subscriptions")
	group.Get("/stats", handler.GetStats)
	group.Get("/:id", handler.GetSubscriber)

	return handler
}

func (h *Subscription) GetStats(c *fiber.Ctx) error {
	total, err := h.Subscribers.Count(c.UserContext())
	utils.PanicIfNeeded(err)

	active, err := h.Subscribers.CountActive(c.UserContext())
	utils.PanicIfNeeded(err)

	price, err := h.Settings.Price(c.UserContext())
	utils.PanicIfNeeded(err)

	channelID, err := h.Settings.ChannelID(c.UserContext())
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Subscription stats retrieved",
		Results: map[string]any{
			"total":              total,
			"active":             active,
			"price":              price,
			"channel_configured": channelID != "",
		},
	})
}

func (h *Subscription) GetSubscriber(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id == 0 {
		panic(pkgError.ValidationError("subscriber id must be a non-zero integer"))
	}

	sub, err := h.Subscribers.Get(c.UserContext(), int64(id))
	if err == domain.ErrSubscriberNotFound {
		panic(pkgError.NotFoundError("subscriber not found"))
	}
	utils.PanicIfNeeded(err)

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Subscriber retrieved",
		Results: map[string]any{
			"subscriber": sub,
			"active":     sub.IsActive(time.Now()),
		},
	})
}
