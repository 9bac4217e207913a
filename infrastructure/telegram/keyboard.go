package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Callback actions routed by the handler.
const (
	cbDescription  = "description"
	cbPayment      = "payment"
	cbCancelSub    = "cancel_sub"
	cbRenewPrefix  = "renew_"
	cbAdminDesc    = "admin_description"
	cbAdminPrice   = "admin_price"
	cbAdminChannel = "admin_channel"
	cbAdminGrant   = "admin_give_sub"
)

func mainKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📋 About the channel", cbDescription),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💳 Buy subscription", cbPayment),
		),
	)
}

func adminKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📝 Edit description", cbAdminDesc),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💰 Edit price", cbAdminPrice),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📺 Edit channel", cbAdminChannel),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🎁 Grant subscription", cbAdminGrant),
		),
	)
}

// renewalKeyboard carries the offered price inside the callback data so the
// renewal invoice charges exactly what was offered, regardless of later
// price changes.
func renewalKeyboard(price int) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🔄 Renew for %d stars", price),
				fmt.Sprintf("%s%d", cbRenewPrefix, price),
			),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Don't renew", cbCancelSub),
		),
	)
}
