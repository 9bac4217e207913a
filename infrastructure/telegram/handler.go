package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	settingsApp "github.com/subgate/subgate/core/settings/application"
	"github.com/subgate/subgate/pkg/updateworker"
	"github.com/subgate/subgate/subscription/application"
	"github.com/subgate/subgate/subscription/domain"
)

// Router receives Telegram updates and dispatches them to the payment flow
// and the admin dialogue. All business rejections are translated into
// human-readable replies here; nothing is retried.
type Router struct {
	client   *Client
	subs     domain.ISubscriberRepository
	settings *settingsApp.SettingsService
	flow     *application.PaymentFlow
	dialogue *application.AdminDialogue
	pool     *updateworker.UpdateWorkerPool

	updateTimeout int
}

func NewRouter(
	client *Client,
	subs domain.ISubscriberRepository,
	settings *settingsApp.SettingsService,
	flow *application.PaymentFlow,
	dialogue *application.AdminDialogue,
	updateTimeout int,
	pool *updateworker.UpdateWorkerPool,
) *Router {
	return &Router{
		client:        client,
		subs:          subs,
		settings:      settings,
		flow:          flow,
		dialogue:      dialogue,
		pool:          pool,
		updateTimeout: updateTimeout,
	}
}

// Run long-polls Telegram until the context is cancelled. Updates are
// dispatched through the worker pool keyed by sender, so one user's
// updates process in order while distinct users proceed in parallel.
func (r *Router) Run(ctx context.Context) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = r.updateTimeout

	r.pool.Start(ctx)
	defer r.pool.Stop()

	updates := r.client.bot.GetUpdatesChan(cfg)
	logrus.Info("[TELEGRAM] Update loop started")

	for {
		select {
		case <-ctx.Done():
			r.client.bot.StopReceivingUpdates()
			logrus.Info("[TELEGRAM] Update loop stopped")
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			r.pool.Dispatch(updateworker.UpdateJob{
				UserID: senderOf(update),
				Handler: func(ctx context.Context) error {
					return r.handle(ctx, update)
				},
			})
		}
	}
}

// senderOf extracts the originating user of any update kind we handle.
func senderOf(update tgbotapi.Update) int64 {
	switch {
	case update.PreCheckoutQuery != nil:
		return update.PreCheckoutQuery.From.ID
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID
	}
	return 0
}

// PoolStats exposes the update pool metrics for the operational API.
func (r *Router) PoolStats() updateworker.PoolStats {
	return r.pool.GetStats()
}

func (r *Router) handle(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.PreCheckoutQuery != nil:
		return r.handlePreCheckout(ctx, update.PreCheckoutQuery)
	case update.CallbackQuery != nil:
		return r.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.SuccessfulPayment != nil:
		return r.handlePaymentSuccess(ctx, update.Message)
	case update.Message != nil && update.Message.IsCommand():
		return r.handleCommand(ctx, update.Message)
	case update.Message != nil:
		return r.handleText(ctx, update.Message)
	}
	return nil
}

func (r *Router) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.Command() != "start" {
		return nil
	}

	userID := msg.From.ID
	if r.dialogue.IsAdmin(userID) {
		reply := tgbotapi.NewMessage(msg.Chat.ID, "👋 Welcome to the admin panel!")
		reply.ReplyMarkup = adminKeyboard()
		_, err := r.client.bot.Send(reply)
		return err
	}

	sub, err := r.subs.Get(ctx, userID)
	if err != nil && err != domain.ErrSubscriberNotFound {
		return err
	}
	if sub != nil && sub.IsActive(time.Now()) {
		return r.client.SendDirect(ctx, msg.Chat.ID, fmt.Sprintf(
			"✅ Your subscription is active until %s", sub.ValidUntil.Format("02.01.2006 15:04")))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, "👋 Welcome! Choose an action:")
	reply.ReplyMarkup = mainKeyboard()
	_, err = r.client.bot.Send(reply)
	return err
}

// handleText feeds free text into the admin dialogue; messages outside an
// outstanding prompt are ignored.
func (r *Router) handleText(ctx context.Context, msg *tgbotapi.Message) error {
	reply, handled, err := r.dialogue.HandleText(ctx, msg.From.ID, msg.Text)
	if err != nil {
		return r.client.SendDirect(ctx, msg.Chat.ID, "❌ Something went wrong. Try again.")
	}
	if !handled || reply == "" {
		return nil
	}

	out := tgbotapi.NewMessage(msg.Chat.ID, reply)
	if !r.dialogue.Active(msg.From.ID) {
		// Committed: show the panel again for the next action.
		out.ReplyMarkup = adminKeyboard()
	}
	_, err = r.client.bot.Send(out)
	return err
}

func (r *Router) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	data := cb.Data

	switch {
	case data == cbDescription:
		return r.showDescription(ctx, cb)
	case data == cbPayment:
		return r.startPurchase(ctx, cb)
	case strings.HasPrefix(data, cbRenewPrefix):
		return r.startRenewal(ctx, cb)
	case data == cbCancelSub:
		return r.cancelSubscription(ctx, cb)
	case data == cbAdminDesc, data == cbAdminPrice, data == cbAdminChannel, data == cbAdminGrant:
		return r.beginAdminDialogue(ctx, cb)
	default:
		return r.answer(cb, "")
	}
}

func (r *Router) showDescription(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	description, err := r.settings.Description(ctx)
	if err != nil {
		return err
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID, description, mainKeyboard())
	if _, err := r.client.bot.Send(edit); err != nil {
		return err
	}
	return r.answer(cb, "")
}

func (r *Router) startPurchase(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	invoice, err := r.flow.RequestPurchase(ctx, cb.From.ID)
	switch err {
	case nil:
	case domain.ErrAlreadySubscribed:
		return r.alert(cb, "You already have an active subscription!")
	case domain.ErrChannelNotConfigured:
		return r.alert(cb, "The channel is not set up yet. Contact the administrator.")
	default:
		return err
	}

	if err := r.client.SendInvoice(ctx, invoice); err != nil {
		return err
	}
	return r.answer(cb, "")
}

func (r *Router) startRenewal(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	price, err := strconv.Atoi(strings.TrimPrefix(cb.Data, cbRenewPrefix))
	if err != nil || price <= 0 {
		return r.answer(cb, "")
	}

	invoice := r.flow.RequestRenewal(cb.From.ID, price)
	if err := r.client.SendInvoice(ctx, invoice); err != nil {
		return err
	}
	return r.answer(cb, "")
}

func (r *Router) cancelSubscription(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	cancelled, err := r.flow.Cancel(ctx, cb.From.ID)
	if err != nil {
		return err
	}
	if !cancelled {
		return r.answer(cb, "")
	}

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID,
		"❌ Subscription cancelled. Channel access is closed.")
	if _, err := r.client.bot.Send(edit); err != nil {
		return err
	}
	return r.answer(cb, "")
}

func (r *Router) beginAdminDialogue(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if !r.dialogue.IsAdmin(cb.From.ID) {
		return r.alert(cb, "Access denied!")
	}

	var target application.DialogueState
	switch cb.Data {
	case cbAdminDesc:
		target = application.StateAwaitingDescription
	case cbAdminPrice:
		target = application.StateAwaitingPrice
	case cbAdminChannel:
		target = application.StateAwaitingChannelID
	case cbAdminGrant:
		target = application.StateAwaitingGrantUserID
	}

	prompt, err := r.dialogue.Begin(ctx, cb.From.ID, target)
	if err != nil {
		return err
	}
	if prompt == "" {
		return r.answer(cb, "")
	}

	edit := tgbotapi.NewEditMessageText(cb.Message.Chat.ID, cb.Message.MessageID, prompt)
	if _, err := r.client.bot.Send(edit); err != nil {
		return err
	}
	return r.answer(cb, "")
}

func (r *Router) handlePreCheckout(ctx context.Context, query *tgbotapi.PreCheckoutQuery) error {
	cfg := tgbotapi.PreCheckoutConfig{
		PreCheckoutQueryID: query.ID,
		OK:                 r.flow.ConfirmPreCheckout(ctx),
	}
	_, err := r.client.bot.Request(cfg)
	return err
}

func (r *Router) handlePaymentSuccess(ctx context.Context, msg *tgbotapi.Message) error {
	payment := msg.SuccessfulPayment
	userID := msg.From.ID

	displayName := msg.From.UserName
	if displayName == "" {
		displayName = fmt.Sprintf("user_%d", userID)
	}

	result, err := r.flow.OnPaymentSuccess(ctx, userID, displayName, payment.InvoicePayload, payment.TotalAmount)
	switch err {
	case nil:
	case domain.ErrSubscriberNotFound:
		return r.client.SendDirect(ctx, msg.Chat.ID,
			"❌ We could not find a subscription to renew. Contact the administrator.")
	case domain.ErrAccessIssuance:
		return r.client.SendDirect(ctx, msg.Chat.ID,
			"❌ Error creating your invite link. Contact the administrator.")
	default:
		return err
	}

	if result.Renewed {
		return r.client.SendDirect(ctx, msg.Chat.ID, fmt.Sprintf(
			"✅ Subscription renewed!\n\n📅 New end date: %s",
			result.ValidUntil.Format("02.01.2006 15:04")))
	}

	return r.client.SendDirect(ctx, msg.Chat.ID, fmt.Sprintf(
		"✅ Payment successful!\n\n🔗 Your invite link: %s\n\n📅 Subscription valid until: %s",
		result.InviteLink, result.ValidUntil.Format("02.01.2006 15:04")))
}

func (r *Router) answer(cb *tgbotapi.CallbackQuery, text string) error {
	_, err := r.client.bot.Request(tgbotapi.NewCallback(cb.ID, text))
	return err
}

func (r *Router) alert(cb *tgbotapi.CallbackQuery, text string) error {
	_, err := r.client.bot.Request(tgbotapi.NewCallbackWithAlert(cb.ID, text))
	return err
}
