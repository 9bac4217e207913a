package domain

import (
	"context"
	"time"
)

// IChannelAccess is the capability the core invokes to manage membership of
// the restricted channel. It is implemented by the chat transport and may
// fail; the core reports those failures, it never retries them.
type IChannelAccess interface {
	// CreateInviteLink mints a single-use invite valid for ttl.
	CreateInviteLink(ctx context.Context, channelID string, ttl time.Duration) (string, error)

	// RemoveMember kicks the user without permanently banning them, so a
	// future purchase can re-admit them.
	RemoveMember(ctx context.Context, channelID string, userID int64) error

	// ResolveChannel verifies the channel exists and is reachable by the
	// bot, returning its title.
	ResolveChannel(ctx context.Context, channelID string) (string, error)
}

// INotifier delivers outbound messages to individual users.
type INotifier interface {
	// SendRenewalOffer presents the discounted renewal and cancel actions.
	SendRenewalOffer(ctx context.Context, userID int64, validUntil time.Time, price int) error

	// SendDirect sends a plain text message to the user.
	SendDirect(ctx context.Context, userID int64, text string) error
}
