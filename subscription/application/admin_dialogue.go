package application

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	settingsApp "github.com/subgate/subgate/core/settings/application"
	"github.com/subgate/subgate/subscription/domain"
	"github.com/subgate/subgate/validations"
)

// DialogueState is the pending configuration field the administrator is
// expected to supply next.
type DialogueState int

const (
	StateNone DialogueState = iota
	StateAwaitingDescription
	StateAwaitingPrice
	StateAwaitingChannelID
	StateAwaitingGrantUserID
)

// AdminDialogue drives the multi-step configuration conversation. It owns
// the per-admin state map; dialogue state never leaks into subscriber
// records. Only the configured administrator identity can read or advance
// it; input from anyone else is ignored at every state.
type AdminDialogue struct {
	adminID  int64
	settings *settingsApp.SettingsService
	access   domain.IChannelAccess
	notifier domain.INotifier
	flow     *PaymentFlow

	mu     sync.Mutex
	states map[int64]DialogueState
}

func NewAdminDialogue(
	adminID int64,
	settings *settingsApp.SettingsService,
	access domain.IChannelAccess,
	notifier domain.INotifier,
	flow *PaymentFlow,
) *AdminDialogue {
	return &AdminDialogue{
		adminID:  adminID,
		settings: settings,
		access:   access,
		notifier: notifier,
		flow:     flow,
		states:   make(map[int64]DialogueState),
	}
}

// IsAdmin reports whether the sender is the configured administrator.
func (d *AdminDialogue) IsAdmin(senderID int64) bool {
	return senderID == d.adminID
}

// Active reports whether a configuration prompt is outstanding for the
// sender, i.e. whether their next free-text message belongs to the dialogue.
func (d *AdminDialogue) Active(senderID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[senderID] != StateNone
}

func (d *AdminDialogue) setState(senderID int64, s DialogueState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if s == StateNone {
		delete(d.states, senderID)
		return
	}
	d.states[senderID] = s
}

func (d *AdminDialogue) state(senderID int64) DialogueState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[senderID]
}

// Begin moves the dialogue into the awaiting state for the selected field
// and returns the prompt to show, echoing the current value where one
// exists. Issuing a new prompt replaces any outstanding one.
func (d *AdminDialogue) Begin(ctx context.Context, senderID int64, target DialogueState) (string, error) {
	if !d.IsAdmin(senderID) {
		return "", nil
	}

	var prompt string
	switch target {
	case StateAwaitingDescription:
		prompt = "Send the new project description:"
	case StateAwaitingPrice:
		current, err := d.settings.Price(ctx)
		if err != nil {
			return "", err
		}
		prompt = fmt.Sprintf("Current price: %d. Send the new price:", current)
	case StateAwaitingChannelID:
		current, err := d.settings.ChannelID(ctx)
		if err != nil {
			return "", err
		}
		prompt = fmt.Sprintf("Current channel: %s\nSend the new channel id:", current)
	case StateAwaitingGrantUserID:
		prompt = "Send the user id to grant a subscription to:"
	default:
		return "", nil
	}

	d.setState(senderID, target)
	return prompt, nil
}

// HandleText feeds an incoming free-text message into the dialogue. The
// returned handled flag is false when the message does not belong to the
// dialogue (no outstanding prompt, or not the admin). A validation failure
// keeps the state and reprompts without altering the stored value.
func (d *AdminDialogue) HandleText(ctx context.Context, senderID int64, text string) (reply string, handled bool, err error) {
	if !d.IsAdmin(senderID) {
		return "", false, nil
	}

	switch d.state(senderID) {
	case StateAwaitingDescription:
		return d.commitDescription(ctx, senderID, text)
	case StateAwaitingPrice:
		return d.commitPrice(ctx, senderID, text)
	case StateAwaitingChannelID:
		return d.commitChannelID(ctx, senderID, text)
	case StateAwaitingGrantUserID:
		return d.commitGrant(ctx, senderID, text)
	default:
		return "", false, nil
	}
}

func (d *AdminDialogue) commitDescription(ctx context.Context, senderID int64, text string) (string, bool, error) {
	desc, err := validations.ValidateDescription(text)
	if err != nil {
		return "The description cannot be empty. Send the new description:", true, nil
	}

	if err := d.settings.SetDescription(ctx, desc); err != nil {
		return "", true, err
	}

	d.setState(senderID, StateNone)
	return "Description updated.", true, nil
}

func (d *AdminDialogue) commitPrice(ctx context.Context, senderID int64, text string) (string, bool, error) {
	price, err := validations.ValidatePrice(text)
	if err != nil {
		// State stays awaiting_price, stored price untouched.
		return "The price must be a positive whole number. Send the new price:", true, nil
	}

	if err := d.settings.SetPrice(ctx, price); err != nil {
		return "", true, err
	}

	d.setState(senderID, StateNone)
	return fmt.Sprintf("Price updated to %d.", price), true, nil
}

func (d *AdminDialogue) commitChannelID(ctx context.Context, senderID int64, text string) (string, bool, error) {
	channelID := strings.TrimSpace(text)
	title, err := d.access.ResolveChannel(ctx, channelID)
	if err != nil {
		logrus.WithError(err).Warnf("[ADMIN] Channel %q not reachable", channelID)
		return "That channel is not reachable. Check the id and the bot's rights, then send it again:", true, nil
	}

	if err := d.settings.SetChannelID(ctx, channelID); err != nil {
		return "", true, err
	}

	d.setState(senderID, StateNone)
	return fmt.Sprintf("Channel updated: %s", title), true, nil
}

func (d *AdminDialogue) commitGrant(ctx context.Context, senderID int64, text string) (string, bool, error) {
	userID, err := validations.ValidateUserID(text)
	if err != nil {
		return "That is not a valid user id. Send the user id:", true, nil
	}

	result, err := d.flow.Grant(ctx, userID, fmt.Sprintf("admin_given_%d", userID))
	if err != nil {
		d.setState(senderID, StateNone)
		switch err {
		case domain.ErrChannelNotConfigured:
			return "The channel is not configured yet.", true, nil
		case domain.ErrAccessIssuance:
			return "Failed to create an invite link.", true, nil
		default:
			return "", true, err
		}
	}

	// Best effort: the grant stands even if the user cannot be reached.
	notice := fmt.Sprintf(
		"You have been granted a subscription!\n\nJoin link: %s\n\nValid until: %s",
		result.InviteLink, result.ValidUntil.Format("02.01.2006 15:04"),
	)
	if err := d.notifier.SendDirect(ctx, userID, notice); err != nil {
		logrus.WithError(err).Warnf("[ADMIN] Could not notify granted user %d", userID)
	}

	d.setState(senderID, StateNone)
	return fmt.Sprintf("Subscription granted to %d until %s.", userID, result.ValidUntil.Format("02.01.2006 15:04")), true, nil
}
