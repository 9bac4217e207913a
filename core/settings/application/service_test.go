package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subgate/subgate/core/settings/domain"
)

type memorySettingsRepo struct {
	values map[string]string
}

func newMemorySettingsRepo() *memorySettingsRepo {
	return &memorySettingsRepo{values: make(map[string]string)}
}

func (r *memorySettingsRepo) Get(_ context.Context, key string) (string, error) {
	return r.values[key], nil
}

func (r *memorySettingsRepo) Set(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func (r *memorySettingsRepo) InitSchema(_ context.Context) error {
	return nil
}

func TestPriceParsesStoredValue(t *testing.T) {
	repo := newMemorySettingsRepo()
	svc := NewSettingsService(repo)
	ctx := context.Background()

	require.NoError(t, svc.SetPrice(ctx, 150))

	price, err := svc.Price(ctx)
	require.NoError(t, err)
	assert.Equal(t, 150, price)
}

func TestPriceFallsBackToZero(t *testing.T) {
	repo := newMemorySettingsRepo()
	svc := NewSettingsService(repo)
	ctx := context.Background()

	// Missing key
	price, err := svc.Price(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, price)

	// Corrupted value
	repo.values[domain.KeyPrice] = "not-a-number"
	price, err = svc.Price(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, price)
}

func TestDescriptionRoundTrip(t *testing.T) {
	svc := NewSettingsService(newMemorySettingsRepo())
	ctx := context.Background()

	require.NoError(t, svc.SetDescription(ctx, "Access to the premium channel"))

	desc, err := svc.Description(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Access to the premium channel", desc)
}

func TestChannelIDRoundTrip(t *testing.T) {
	svc := NewSettingsService(newMemorySettingsRepo())
	ctx := context.Background()

	require.NoError(t, svc.SetChannelID(ctx, "@paidchannel"))

	id, err := svc.ChannelID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "@paidchannel", id)
}
