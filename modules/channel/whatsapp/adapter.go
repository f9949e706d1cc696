package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/pkg/event"
)

// maxInteractiveButtons is the Cloud API's cap on reply buttons per message.
const maxInteractiveButtons = 3

// Graph API error codes that identify an invalid recipient.
// 131026: message undeliverable; 131030: recipient not in allowed list.
var recipientErrorCodes = map[int]bool{
	131026: true,
	131030: true,
}

// Config holds the WhatsApp adapter configuration.
type Config struct {
	// AccessToken is the Cloud API bearer token. Required.
	AccessToken string
	// PhoneNumberID is the business phone number the bot sends from. Required.
	PhoneNumberID string
	// VerifyToken is the shared secret echoed back during the GET handshake.
	// Required; without it every handshake would fail.
	VerifyToken string
	// APIURL overrides the Graph API base URL. Tests point it at a local server.
	APIURL string
}

// Adapter implements channel.Adapter and channel.Verifier for the WhatsApp
// Business Cloud API.
type Adapter struct {
	client      *Client
	verifyToken string
	logger      *slog.Logger
}

// Compile-time interface guards.
var (
	_ channel.Adapter  = (*Adapter)(nil)
	_ channel.Verifier = (*Adapter)(nil)
)

// New creates a WhatsApp adapter.
func New(cfg Config, logger *slog.Logger) (*Adapter, error) {
	if cfg.AccessToken == "" {
		return nil, errors.New("whatsapp: access token is required")
	}
	if cfg.PhoneNumberID == "" {
		return nil, errors.New("whatsapp: phone number id is required")
	}
	if cfg.VerifyToken == "" {
		return nil, errors.New("whatsapp: verify token is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		client:      NewClient(cfg.AccessToken, cfg.PhoneNumberID, cfg.APIURL),
		verifyToken: cfg.VerifyToken,
		logger:      logger.With("channel", "whatsapp"),
	}, nil
}

// ID implements channel.Adapter.
func (a *Adapter) ID() event.ChannelID { return event.ChannelWhatsApp }

// Decode implements channel.Adapter. One delivery batches entries, changes,
// and messages; every supported message yields one event and everything else
// (statuses, unsupported message types, non-message fields) yields nothing.
func (a *Adapter) Decode(payload []byte) ([]event.Inbound, error) {
	var wh WebhookPayload
	if err := json.Unmarshal(payload, &wh); err != nil {
		return nil, fmt.Errorf("whatsapp: invalid webhook JSON: %w", err)
	}

	var events []event.Inbound
	for _, entry := range wh.Entry {
		for _, change := range entry.Changes {
			if change.Field != "messages" {
				continue
			}

			names := contactNames(change.Value.Contacts)

			for _, msg := range change.Value.Messages {
				ev, ok := a.decodeMessage(msg, names)
				if !ok {
					continue
				}
				events = append(events, ev)
			}
		}
	}
	return events, nil
}

// decodeMessage maps one WhatsApp message to an inbound event. Unsupported
// message types (audio, reactions, locations, stickers...) report ok=false
// so the rest of the batch keeps flowing.
func (a *Adapter) decodeMessage(msg Message, names map[string]string) (event.Inbound, bool) {
	ev := event.Inbound{
		Channel:       event.ChannelWhatsApp,
		SenderID:      msg.From,
		ReceivedAt:    time.Now(),
		CorrelationID: "whatsapp:msg:" + msg.ID,
		Entities: map[string]string{
			"message_id": msg.ID,
			"type":       msg.Type,
		},
	}
	if name, ok := names[msg.From]; ok {
		ev.Entities["profile_name"] = name
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return event.Inbound{}, false
		}
		ev.Text = msg.Text.Body

	case "interactive":
		if msg.Interactive == nil || msg.Interactive.ButtonReply == nil {
			return event.Inbound{}, false
		}
		ev.Text = msg.Interactive.ButtonReply.ID
		ev.IsCallback = true
		ev.Entities["button_title"] = msg.Interactive.ButtonReply.Title

	default:
		a.logger.Debug("skipping unsupported message type", "type", msg.Type, "message_id", msg.ID)
		return event.Inbound{}, false
	}

	return ev, true
}

func contactNames(contacts []Contact) map[string]string {
	if len(contacts) == 0 {
		return nil
	}
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		if c.Profile.Name != "" {
			names[c.WaID] = c.Profile.Name
		}
	}
	return names
}

// Send implements channel.Adapter. Buttons replies use the platform's
// interactive reply buttons when they fit the three-button cap; larger sets
// degrade to a numbered text list, so the user still sees every option and
// can answer with its number.
func (a *Adapter) Send(ctx context.Context, reply event.Reply) error {
	if err := reply.Validate(); err != nil {
		return channel.RecipientFailure(err)
	}

	req := SendRequest{
		RecipientType: "individual",
		To:            reply.RecipientID,
	}

	switch reply.Kind {
	case event.ReplyText:
		req.Type = "text"
		req.Text = &TextContent{Body: reply.Text}

	case event.ReplyImage:
		req.Type = "image"
		req.Image = &MediaLink{Link: reply.MediaURL, Caption: reply.Text}

	case event.ReplyDocument:
		req.Type = "document"
		req.Document = &MediaLink{Link: reply.MediaURL, Caption: reply.Text}

	case event.ReplyButtons:
		if len(reply.Buttons) > maxInteractiveButtons {
			req.Type = "text"
			req.Text = &TextContent{Body: degradeButtons(reply)}
			a.logger.Info("degrading buttons reply to text list",
				"recipient", reply.RecipientID,
				"buttons", len(reply.Buttons),
			)
			break
		}
		buttons := make([]InteractiveButton, 0, len(reply.Buttons))
		for _, b := range reply.Buttons {
			buttons = append(buttons, InteractiveButton{
				Type:  "reply",
				Reply: ButtonReply{ID: b.Payload, Title: b.Title},
			})
		}
		req.Type = "interactive"
		req.Interactive = &SendInteractive{
			Type:   "button",
			Body:   InteractiveBody{Text: reply.Text},
			Action: &InteractiveAction{Buttons: buttons},
		}
	}

	if _, err := a.client.SendMessage(ctx, req); err != nil {
		return classify(err)
	}
	return nil
}

// degradeButtons renders a buttons reply as a numbered list for when the
// platform cap is exceeded.
func degradeButtons(reply event.Reply) string {
	var b strings.Builder
	b.WriteString(reply.Text)
	for i, btn := range reply.Buttons {
		fmt.Fprintf(&b, "\n%d. %s", i+1, btn.Title)
	}
	return b.String()
}

// classify maps Graph API and transport errors onto the dispatch failure taxonomy.
func classify(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatus == http.StatusUnauthorized || apiErr.HTTPStatus == http.StatusForbidden:
			return channel.AuthFailure(apiErr)
		case apiErr.Code == 190: // expired or invalid access token
			return channel.AuthFailure(apiErr)
		case recipientErrorCodes[apiErr.Code]:
			return channel.RecipientFailure(apiErr)
		default:
			return channel.Transient(apiErr)
		}
	}
	return channel.Transient(err)
}
