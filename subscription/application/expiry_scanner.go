package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	settingsApp "github.com/subgate/subgate/core/settings/application"
	"github.com/subgate/subgate/subscription/domain"
)

// ExpiryScanner periodically finds subscriptions entering their expiry
// window and sends each a discounted renewal offer exactly once per window.
// It runs for the lifetime of the process; a failing tick is logged and the
// next tick proceeds normally.
type ExpiryScanner struct {
	subs     domain.ISubscriberRepository
	settings *settingsApp.SettingsService
	notifier domain.INotifier

	interval        time.Duration
	window          time.Duration
	discountPercent int
}

func NewExpiryScanner(
	subs domain.ISubscriberRepository,
	settings *settingsApp.SettingsService,
	notifier domain.INotifier,
	interval, window time.Duration,
	discountPercent int,
) *ExpiryScanner {
	return &ExpiryScanner{
		subs:            subs,
		settings:        settings,
		notifier:        notifier,
		interval:        interval,
		window:          window,
		discountPercent: discountPercent,
	}
}

// DiscountedPrice applies the renewal discount to the given price,
// rounding down.
func (s *ExpiryScanner) DiscountedPrice(price int) int {
	return price * (100 - s.discountPercent) / 100
}

// Run executes one tick immediately and then once per interval until the
// context is cancelled. Each tick runs inside its own recover boundary so
// neither errors nor panics can terminate the loop.
func (s *ExpiryScanner) Run(ctx context.Context) error {
	logrus.Infof("[SCANNER] Started, interval %s, window %s", s.interval, s.window)

	s.safeTick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logrus.Info("[SCANNER] Stopped")
			return ctx.Err()
		case <-ticker.C:
			s.safeTick(ctx)
		}
	}
}

func (s *ExpiryScanner) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[SCANNER] Tick panicked: %v", r)
		}
	}()

	if err := s.Tick(ctx); err != nil {
		logrus.WithError(err).Error("[SCANNER] Tick failed")
	}
}

// Tick sends a renewal offer to every subscriber entering the expiry window
// that has not been offered one yet, then marks them notified. The flag is
// set only after a successful send, so a delivery failure retries on the
// next tick instead of silently dropping the offer.
func (s *ExpiryScanner) Tick(ctx context.Context) error {
	price, err := s.settings.Price(ctx)
	if err != nil {
		return fmt.Errorf("read price: %w", err)
	}
	discounted := s.DiscountedPrice(price)

	expiring, err := s.subs.FindExpiringUnnotified(ctx, s.window)
	if err != nil {
		return fmt.Errorf("find expiring: %w", err)
	}

	for _, sub := range expiring {
		if err := s.notifier.SendRenewalOffer(ctx, sub.ID, sub.ValidUntil, discounted); err != nil {
			logrus.WithError(err).Errorf("[SCANNER] Failed to send offer to %d", sub.ID)
			continue
		}
		if err := s.subs.MarkNotified(ctx, sub.ID); err != nil {
			logrus.WithError(err).Errorf("[SCANNER] Failed to mark %d notified", sub.ID)
		}
	}

	if len(expiring) > 0 {
		logrus.Infof("[SCANNER] Offered renewal to %d subscriber(s) at price %d", len(expiring), discounted)
	}
	return nil
}
