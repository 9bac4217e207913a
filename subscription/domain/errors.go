package domain

import "errors"

var (
	// ErrSubscriberNotFound is returned when no subscriber record exists
	// for the given id.
	ErrSubscriberNotFound = errors.New("subscriber not found")

	// ErrAlreadySubscribed is returned when a purchase is requested while
	// an active grant exists.
	ErrAlreadySubscribed = errors.New("subscription is already active")

	// ErrChannelNotConfigured is returned when the restricted channel has
	// not been set up by the administrator yet.
	ErrChannelNotConfigured = errors.New("channel is not configured")

	// ErrAccessIssuance is returned when the channel refused to mint an
	// invite link. On the purchase path the payment is already captured at
	// that point; the record is not created and the failure is reported.
	ErrAccessIssuance = errors.New("failed to issue channel access")
)
