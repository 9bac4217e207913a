package application

import (
	"context"
	"strconv"

	"github.com/subgate/subgate/core/settings/domain"
)

// SettingsService exposes the dynamic settings with their expected types.
// It performs no input validation; callers (the admin dialogue) validate
// before committing.
type SettingsService struct {
	repo domain.ISettingsRepository
}

func NewSettingsService(repo domain.ISettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Description(ctx context.Context) (string, error) {
	return s.repo.Get(ctx, domain.KeyDescription)
}

func (s *SettingsService) SetDescription(ctx context.Context, v string) error {
	return s.repo.Set(ctx, domain.KeyDescription, v)
}

// Price returns the current subscription price in the bot currency.
// A missing or unparsable stored value falls back to 0; the purchase flow
// treats that the same as an unconfigured bot.
func (s *SettingsService) Price(ctx context.Context) (int, error) {
	val, err := s.repo.Get(ctx, domain.KeyPrice)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

func (s *SettingsService) SetPrice(ctx context.Context, v int) error {
	return s.repo.Set(ctx, domain.KeyPrice, strconv.Itoa(v))
}

func (s *SettingsService) ChannelID(ctx context.Context) (string, error) {
	return s.repo.Get(ctx, domain.KeyChannelID)
}

func (s *SettingsService) SetChannelID(ctx context.Context, v string) error {
	return s.repo.Set(ctx, domain.KeyChannelID, v)
}
