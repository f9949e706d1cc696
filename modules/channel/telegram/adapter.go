package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/pkg/event"
)

// Config holds the Telegram adapter configuration.
type Config struct {
	// BotToken authenticates against the Bot API. Required.
	BotToken string
	// WebhookSecret, when set, must match the X-Telegram-Bot-Api-Secret-Token
	// header on every delivery.
	WebhookSecret string
	// APIURL overrides the Bot API base URL. Tests point it at a local server.
	APIURL string
}

// Adapter implements channel.Adapter and channel.Verifier for Telegram.
type Adapter struct {
	client *Client
	secret string
	logger *slog.Logger
}

// Compile-time interface guards.
var (
	_ channel.Adapter       = (*Adapter)(nil)
	_ channel.Verifier      = (*Adapter)(nil)
	_ channel.CallbackAcker = (*Adapter)(nil)
)

// New creates a Telegram adapter. The token is validated lazily; GetMe at
// startup is the bootstrap's call to make.
func New(cfg Config, logger *slog.Logger) (*Adapter, error) {
	if cfg.BotToken == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client: NewClient(cfg.BotToken, cfg.APIURL),
		secret: cfg.WebhookSecret,
		logger: logger.With("channel", "telegram"),
	}, nil
}

// ID implements channel.Adapter.
func (a *Adapter) ID() event.ChannelID { return event.ChannelTelegram }

// Client exposes the underlying Bot API client for webhook management.
func (a *Adapter) Client() *Client { return a.client }

// Decode implements channel.Adapter. Telegram delivers exactly one update
// per webhook call; it may be a text message or a callback query. Updates of
// any other kind decode to zero events.
func (a *Adapter) Decode(payload []byte) ([]event.Inbound, error) {
	var update Update
	if err := json.Unmarshal(payload, &update); err != nil {
		return nil, fmt.Errorf("telegram: invalid update JSON: %w", err)
	}

	correlationID := fmt.Sprintf("telegram:update:%d", update.UpdateID)

	switch {
	case update.Message != nil && update.Message.Text != "":
		msg := update.Message
		ev := event.Inbound{
			Channel:       event.ChannelTelegram,
			SenderID:      strconv.FormatInt(msg.Chat.ID, 10),
			Text:          msg.Text,
			ReceivedAt:    time.Now(),
			CorrelationID: correlationID,
			Entities: map[string]string{
				"message_id": strconv.Itoa(msg.MessageID),
			},
		}
		if msg.From != nil {
			ev.Entities["first_name"] = msg.From.FirstName
			if msg.From.Username != "" {
				ev.Entities["username"] = msg.From.Username
			}
		}
		return []event.Inbound{ev}, nil

	case update.CallbackQuery != nil && update.CallbackQuery.Data != "":
		cb := update.CallbackQuery
		if cb.Message == nil {
			a.logger.Debug("callback query without originating message", "update_id", update.UpdateID)
			return nil, nil
		}
		ev := event.Inbound{
			Channel:       event.ChannelTelegram,
			SenderID:      strconv.FormatInt(cb.Message.Chat.ID, 10),
			Text:          cb.Data,
			ReceivedAt:    time.Now(),
			IsCallback:    true,
			CorrelationID: correlationID,
			Entities: map[string]string{
				"callback_id": cb.ID,
			},
		}
		return []event.Inbound{ev}, nil

	default:
		// Edited messages, channel posts, media-only updates and other
		// unsupported kinds are skipped, not failed.
		a.logger.Debug("skipping unsupported update", "update_id", update.UpdateID)
		return nil, nil
	}
}

// AckCallback implements channel.CallbackAcker. It answers the callback
// query named by the event so the client stops its loading spinner.
func (a *Adapter) AckCallback(ctx context.Context, ev event.Inbound) error {
	id := ev.Entities["callback_id"]
	if id == "" {
		return nil
	}
	return a.client.AnswerCallbackQuery(ctx, id)
}

// Send implements channel.Adapter. A Buttons reply maps to Telegram's native
// inline keyboard; no degradation is needed on this platform.
func (a *Adapter) Send(ctx context.Context, reply event.Reply) error {
	if err := reply.Validate(); err != nil {
		return channel.RecipientFailure(err)
	}

	var err error
	switch reply.Kind {
	case event.ReplyText:
		_, err = a.client.SendMessage(ctx, SendMessageRequest{
			ChatID: reply.RecipientID,
			Text:   reply.Text,
		})

	case event.ReplyImage:
		_, err = a.client.SendPhoto(ctx, SendPhotoRequest{
			ChatID:  reply.RecipientID,
			Photo:   reply.MediaURL,
			Caption: reply.Text,
		})

	case event.ReplyDocument:
		_, err = a.client.SendDocument(ctx, SendDocumentRequest{
			ChatID:   reply.RecipientID,
			Document: reply.MediaURL,
			Caption:  reply.Text,
		})

	case event.ReplyButtons:
		keyboard := make([][]InlineKeyboardButton, 0, len(reply.Buttons))
		for _, b := range reply.Buttons {
			keyboard = append(keyboard, []InlineKeyboardButton{{
				Text:         b.Title,
				CallbackData: b.Payload,
			}})
		}
		_, err = a.client.SendMessage(ctx, SendMessageRequest{
			ChatID:      reply.RecipientID,
			Text:        reply.Text,
			ReplyMarkup: &InlineKeyboardMarkup{InlineKeyboard: keyboard},
		})
	}

	if err != nil {
		return classify(err)
	}
	return nil
}

// classify maps Bot API and transport errors onto the dispatch failure taxonomy.
func classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
			// 403 also covers "bot was blocked by the user", which is a
			// recipient problem, not a credential problem.
			if strings.Contains(apiErr.Description, "blocked") {
				return channel.RecipientFailure(apiErr)
			}
			return channel.AuthFailure(apiErr)
		case apiErr.Code == http.StatusBadRequest && isRecipientDescription(apiErr.Description):
			return channel.RecipientFailure(apiErr)
		default:
			return channel.Transient(apiErr)
		}
	}
	return channel.Transient(err)
}

// isRecipientDescription reports whether a 400 description names an invalid
// destination rather than a malformed request.
func isRecipientDescription(desc string) bool {
	desc = strings.ToLower(desc)
	return strings.Contains(desc, "chat not found") ||
		strings.Contains(desc, "user not found") ||
		strings.Contains(desc, "user is deactivated")
}
