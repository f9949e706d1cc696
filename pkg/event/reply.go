package event

import "fmt"

// ReplyKind discriminates the variant of a Reply.
type ReplyKind string

// Supported reply kinds.
const (
	ReplyText     ReplyKind = "text"
	ReplyImage    ReplyKind = "image"
	ReplyDocument ReplyKind = "document"
	ReplyButtons  ReplyKind = "buttons"
)

// Button is a single interactive choice attached to a ReplyButtons reply.
type Button struct {
	Title   string `json:"title"`
	Payload string `json:"payload"`
}

// Reply is a canonical outbound message produced by the dialogue engine and
// consumed exactly once by the dispatcher. How a kind maps onto vendor calls
// is adapter-specific; platforms lacking an equivalent affordance degrade it
// explicitly rather than truncating.
type Reply struct {
	Channel     ChannelID `json:"channel"`
	RecipientID string    `json:"recipient_id"`
	Kind        ReplyKind `json:"kind"`
	Text        string    `json:"text,omitempty"`
	MediaURL    string    `json:"media_url,omitempty"`
	Buttons     []Button  `json:"buttons,omitempty"`
}

// NewTextReply builds a plain text reply.
func NewTextReply(channel ChannelID, recipientID, text string) Reply {
	return Reply{
		Channel:     channel,
		RecipientID: recipientID,
		Kind:        ReplyText,
		Text:        text,
	}
}

// Validate checks structural requirements common to all channels.
func (r Reply) Validate() error {
	if !r.Channel.Valid() {
		return fmt.Errorf("event: unknown channel %q", r.Channel)
	}
	if r.RecipientID == "" {
		return fmt.Errorf("event: reply missing recipient")
	}
	switch r.Kind {
	case ReplyText:
		if r.Text == "" {
			return fmt.Errorf("event: text reply with empty text")
		}
	case ReplyImage, ReplyDocument:
		if r.MediaURL == "" {
			return fmt.Errorf("event: %s reply missing media_url", r.Kind)
		}
	case ReplyButtons:
		if len(r.Buttons) == 0 {
			return fmt.Errorf("event: buttons reply with no buttons")
		}
	default:
		return fmt.Errorf("event: unknown reply kind %q", r.Kind)
	}
	return nil
}
