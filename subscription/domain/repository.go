package domain

import (
	"context"
	"time"
)

// ISubscriberRepository defines the persistence operations for subscriber
// records. Every operation is atomic; in particular Upsert and Extend write
// the validity mutation and the notified reset as one store operation.
type ISubscriberRepository interface {
	// Get returns ErrSubscriberNotFound when no record exists.
	Get(ctx context.Context, id int64) (*Subscriber, error)

	// Upsert creates or replaces the record and resets notified to false.
	Upsert(ctx context.Context, sub *Subscriber) error

	// Extend moves valid_until forward by delta measured from its previous
	// value and resets notified to false, returning the new valid_until.
	// Returns ErrSubscriberNotFound when no record exists.
	Extend(ctx context.Context, id int64, delta time.Duration) (time.Time, error)

	// Delete removes the record. Deleting an absent record is a no-op.
	Delete(ctx context.Context, id int64) error

	// FindExpiringUnnotified returns subscribers with
	// now < valid_until <= now+window that have not been offered a renewal
	// for the current expiry window yet.
	FindExpiringUnnotified(ctx context.Context, window time.Duration) ([]*Subscriber, error)

	// MarkNotified flags the subscriber as offered until the next
	// validity mutation clears the flag.
	MarkNotified(ctx context.Context, id int64) error

	// Counters for the operational surface.
	Count(ctx context.Context) (int64, error)
	CountActive(ctx context.Context) (int64, error)

	// InitSchema creates the necessary tables.
	InitSchema(ctx context.Context) error
}
