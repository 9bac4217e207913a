package domain

import "time"

// Subscriber represents a user holding (or having held) a time-boxed grant
// of access to the restricted channel.
type Subscriber struct {
	ID          int64  `json:"id"` // Telegram user id
	DisplayName string `json:"display_name"`
	// ValidUntil is the end of the paid access window. Renewals extend it
	// from its previous value, never from the current time.
	ValidUntil time.Time `json:"valid_until"`
	// InviteLink is the single-use invite the subscriber joined with.
	InviteLink string `json:"invite_link,omitempty"`
	// Notified is true while the subscriber has already received a renewal
	// offer for the current expiry window. Any mutation of ValidUntil
	// resets it to false.
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsActive reports whether the grant is still running at t.
func (s *Subscriber) IsActive(t time.Time) bool {
	return s.ValidUntil.After(t)
}
