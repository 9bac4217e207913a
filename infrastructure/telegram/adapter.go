package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/subgate/subgate/subscription/application"
)

// Client wraps the Telegram Bot API connection and implements the
// collaborator capabilities the core depends on: channel access issuance,
// membership revocation, channel lookup, outbound notifications and
// invoice presentation.
//
// tgbotapi performs its own HTTP handling and carries no context support;
// the context parameters satisfy the domain contracts and mark the
// suspension points.
type Client struct {
	bot      *tgbotapi.BotAPI
	currency string
}

func NewClient(token, currency string, debug bool) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to telegram: %w", err)
	}
	bot.Debug = debug

	logrus.Infof("[TELEGRAM] Authorized as @%s", bot.Self.UserName)
	return &Client{bot: bot, currency: currency}, nil
}

// chatConfig resolves a stored channel identifier, which is either a
// numeric chat id ("-100...") or a public "@name".
func chatConfig(channelID string) tgbotapi.ChatConfig {
	if strings.HasPrefix(channelID, "@") {
		return tgbotapi.ChatConfig{SuperGroupUsername: channelID}
	}
	id, _ := strconv.ParseInt(channelID, 10, 64)
	return tgbotapi.ChatConfig{ChatID: id}
}

func memberConfig(channelID string, userID int64) tgbotapi.ChatMemberConfig {
	cfg := tgbotapi.ChatMemberConfig{UserID: userID}
	if strings.HasPrefix(channelID, "@") {
		cfg.SuperGroupUsername = channelID
	} else {
		cfg.ChatID, _ = strconv.ParseInt(channelID, 10, 64)
	}
	return cfg
}

// CreateInviteLink mints a single-use invite link that expires after ttl.
func (c *Client) CreateInviteLink(_ context.Context, channelID string, ttl time.Duration) (string, error) {
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  chatConfig(channelID),
		MemberLimit: 1,
		ExpireDate:  int(time.Now().Add(ttl).Unix()),
	}

	resp, err := c.bot.Request(cfg)
	if err != nil {
		return "", fmt.Errorf("create invite link: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("decode invite link: %w", err)
	}
	return link.InviteLink, nil
}

// RemoveMember kicks the user out of the channel and immediately lifts the
// ban, so they stay eligible to rejoin through a future invite.
func (c *Client) RemoveMember(_ context.Context, channelID string, userID int64) error {
	ban := tgbotapi.BanChatMemberConfig{ChatMemberConfig: memberConfig(channelID, userID)}
	if _, err := c.bot.Request(ban); err != nil {
		return fmt.Errorf("ban member: %w", err)
	}

	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: memberConfig(channelID, userID),
	}
	if _, err := c.bot.Request(unban); err != nil {
		return fmt.Errorf("unban member: %w", err)
	}
	return nil
}

// ResolveChannel verifies the bot can see the channel and returns its title.
func (c *Client) ResolveChannel(_ context.Context, channelID string) (string, error) {
	chat, err := c.bot.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: chatConfig(channelID)})
	if err != nil {
		return "", fmt.Errorf("get chat: %w", err)
	}
	return chat.Title, nil
}

// SendRenewalOffer presents the discounted renewal with its two actions.
func (c *Client) SendRenewalOffer(_ context.Context, userID int64, validUntil time.Time, price int) error {
	msg := tgbotapi.NewMessage(userID, fmt.Sprintf(
		"Your subscription expires on %s!\n\nRenew now with a discount.",
		validUntil.Format("02.01.2006 15:04"),
	))
	msg.ReplyMarkup = renewalKeyboard(price)

	_, err := c.bot.Send(msg)
	return err
}

// SendDirect sends a plain text message to the user.
func (c *Client) SendDirect(_ context.Context, userID int64, text string) error {
	_, err := c.bot.Send(tgbotapi.NewMessage(userID, text))
	return err
}

// SendInvoice presents an invoice produced by the payment flow. Stars
// payments carry an empty provider token.
func (c *Client) SendInvoice(_ context.Context, inv *application.Invoice) error {
	cfg := tgbotapi.InvoiceConfig{
		BaseChat:    tgbotapi.BaseChat{ChatID: inv.UserID},
		Title:       inv.Title,
		Description: inv.Description,
		Payload:     inv.Payload,
		Currency:    c.currency,
		Prices:      []tgbotapi.LabeledPrice{{Label: inv.Title, Amount: inv.Amount}},
	}

	if _, err := c.bot.Send(cfg); err != nil {
		return fmt.Errorf("send invoice: %w", err)
	}
	return nil
}
