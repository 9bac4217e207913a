package application

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	settingsApp "github.com/subgate/subgate/core/settings/application"
	"github.com/subgate/subgate/subscription/domain"
)

// Payload tags carried by every invoice. At payment-confirmation time they
// are the only thing distinguishing a first purchase from a renewal.
const (
	PayloadNewPurchase = "subscription_payment"
	PayloadRenewal     = "renewal_payment"
)

// Invoice is the intent the transport turns into an actual invoice message.
type Invoice struct {
	UserID      int64
	Title       string
	Description string
	Payload     string
	Amount      int
}

// PaymentResult describes the store mutation a confirmed payment produced.
type PaymentResult struct {
	Renewed    bool
	ValidUntil time.Time
	InviteLink string
}

// PaymentFlow branches purchase and renewal handling and applies the
// resulting subscriber mutations. It keeps no state of its own beyond the
// subscriber records.
type PaymentFlow struct {
	subs     domain.ISubscriberRepository
	settings *settingsApp.SettingsService
	access   domain.IChannelAccess

	period    time.Duration // access granted per payment
	inviteTTL time.Duration // lifetime of minted invite links
}

func NewPaymentFlow(
	subs domain.ISubscriberRepository,
	settings *settingsApp.SettingsService,
	access domain.IChannelAccess,
	period, inviteTTL time.Duration,
) *PaymentFlow {
	return &PaymentFlow{
		subs:      subs,
		settings:  settings,
		access:    access,
		period:    period,
		inviteTTL: inviteTTL,
	}
}

// RequestPurchase produces the invoice intent for a first-time purchase at
// the currently configured price. It rejects users that already hold an
// active grant and refuses to sell access to an unconfigured channel.
func (f *PaymentFlow) RequestPurchase(ctx context.Context, userID int64) (*Invoice, error) {
	sub, err := f.subs.Get(ctx, userID)
	if err != nil && err != domain.ErrSubscriberNotFound {
		return nil, err
	}
	if sub != nil && sub.IsActive(time.Now()) {
		return nil, domain.ErrAlreadySubscribed
	}

	channelID, err := f.settings.ChannelID(ctx)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, domain.ErrChannelNotConfigured
	}

	price, err := f.settings.Price(ctx)
	if err != nil {
		return nil, err
	}

	return &Invoice{
		UserID:      userID,
		Title:       "Channel subscription",
		Description: fmt.Sprintf("Access to the channel for %d days", int(f.period.Hours()/24)),
		Payload:     PayloadNewPurchase,
		Amount:      price,
	}, nil
}

// RequestRenewal produces the invoice intent for a discounted renewal. The
// amount is the one offered at notification time; it is not re-derived from
// the current price setting.
func (f *PaymentFlow) RequestRenewal(userID int64, discountedPrice int) *Invoice {
	return &Invoice{
		UserID:      userID,
		Title:       "Subscription renewal",
		Description: fmt.Sprintf("Renewal for %d days at the discounted price", int(f.period.Hours()/24)),
		Payload:     PayloadRenewal,
		Amount:      discountedPrice,
	}
}

// ConfirmPreCheckout approves the pre-checkout query. No amount or payload
// re-validation happens at this step.
func (f *PaymentFlow) ConfirmPreCheckout(ctx context.Context) bool {
	return true
}

// OnPaymentSuccess applies a confirmed payment. Renewals extend the existing
// grant by a full period measured from the previous valid_until, so renewing
// early never shortens total access. New purchases mint an invite link and
// create the record; if minting fails the payment is already captured and
// the failure is reported without creating anything.
func (f *PaymentFlow) OnPaymentSuccess(ctx context.Context, userID int64, displayName, payload string, amount int) (*PaymentResult, error) {
	if payload == PayloadRenewal {
		newEnd, err := f.subs.Extend(ctx, userID, f.period)
		if err != nil {
			return nil, err
		}

		logrus.Infof("[PAYMENT] Renewal for %d: %d until %s", userID, amount, newEnd.Format(time.RFC3339))
		return &PaymentResult{Renewed: true, ValidUntil: newEnd}, nil
	}

	return f.Grant(ctx, userID, displayName)
}

// Grant runs the new-purchase issuance path: mint a single-use invite and
// upsert the subscriber with a fresh period. It is shared by paid purchases
// and admin grants.
func (f *PaymentFlow) Grant(ctx context.Context, userID int64, displayName string) (*PaymentResult, error) {
	channelID, err := f.settings.ChannelID(ctx)
	if err != nil {
		return nil, err
	}
	if channelID == "" {
		return nil, domain.ErrChannelNotConfigured
	}

	inviteLink, err := f.access.CreateInviteLink(ctx, channelID, f.inviteTTL)
	if err != nil {
		logrus.WithError(err).Errorf("[PAYMENT] Failed to mint invite link for %d", userID)
		return nil, domain.ErrAccessIssuance
	}

	validUntil := time.Now().Add(f.period)
	sub := &domain.Subscriber{
		ID:          userID,
		DisplayName: displayName,
		ValidUntil:  validUntil,
		InviteLink:  inviteLink,
	}
	if err := f.subs.Upsert(ctx, sub); err != nil {
		return nil, err
	}

	logrus.Infof("[PAYMENT] Access granted to %d until %s", userID, validUntil.Format(time.RFC3339))
	return &PaymentResult{ValidUntil: validUntil, InviteLink: inviteLink}, nil
}

// Cancel revokes channel membership (a kick that does not permanently ban)
// and deletes the record. Cancelling a user with no record is a no-op that
// touches neither the store nor the channel.
func (f *PaymentFlow) Cancel(ctx context.Context, userID int64) (bool, error) {
	_, err := f.subs.Get(ctx, userID)
	if err == domain.ErrSubscriberNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	channelID, err := f.settings.ChannelID(ctx)
	if err == nil && channelID != "" {
		if err := f.access.RemoveMember(ctx, channelID, userID); err != nil {
			// Membership revocation failures do not block record removal.
			logrus.WithError(err).Errorf("[PAYMENT] Failed to remove %d from channel", userID)
		}
	}

	if err := f.subs.Delete(ctx, userID); err != nil {
		return false, err
	}

	logrus.Infof("[PAYMENT] Subscription cancelled for %d", userID)
	return true, nil
}
