package domain

import "context"

// Setting represents a dynamic configuration value stored in the database.
type Setting struct {
	Key   string
	Value string
}

// ISettingsRepository defines the contract for persisting dynamic settings.
type ISettingsRepository interface {
	// Get returns the stored value, or "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error

	// InitSchema creates the necessary tables and seeds defaults.
	InitSchema(ctx context.Context) error
}

// Keys mutated through the admin dialogue.
const (
	KeyDescription = "description"
	KeyPrice       = "price"
	KeyChannelID   = "channel_id"
)

// Defaults seeds the settings table at first run. Settings are never
// deleted afterwards, only overwritten.
var Defaults = []Setting{
	{Key: KeyDescription, Value: "Private channel subscription. Ask the admin for details."},
	{Key: KeyPrice, Value: "10"},
	{Key: KeyChannelID, Value: ""},
}
