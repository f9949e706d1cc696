// Package event defines the platform-agnostic data contract between channel
// adapters, the inbound router, and the outbound dispatcher. Adapters decode
// vendor webhook payloads into Inbound events and encode Reply values back
// into vendor API calls.
package event

import "time"

// ChannelID identifies a messaging platform. The set of channels is closed;
// adding a platform means adding a constant here and an adapter module.
type ChannelID string

// Supported channels.
const (
	ChannelTelegram ChannelID = "telegram"
	ChannelWhatsApp ChannelID = "whatsapp"
)

// Valid reports whether the channel is one of the known platforms.
func (c ChannelID) Valid() bool {
	switch c {
	case ChannelTelegram, ChannelWhatsApp:
		return true
	}
	return false
}

// Inbound is a single user event normalized from a vendor webhook delivery.
// It is constructed once by an adapter's Decode and never mutated afterwards.
type Inbound struct {
	// Channel is the platform that delivered the event.
	Channel ChannelID `json:"channel"`

	// SenderID is the platform-scoped conversation identifier. It doubles as
	// the dialogue session id, so replies address the same conversation.
	SenderID string `json:"sender_id"`

	// Text is the message text, or the callback payload for button presses.
	Text string `json:"text"`

	// Entities carries flat vendor metadata worth preserving (message ids,
	// profile names, message subtype). Values stay strings so the map
	// survives JSON round-trips unchanged.
	Entities map[string]string `json:"entities,omitempty"`

	// ReceivedAt is when the gateway accepted the delivery.
	ReceivedAt time.Time `json:"received_at"`

	// IsCallback is true when the event originates from an interactive
	// element (inline keyboard press) rather than a typed message.
	IsCallback bool `json:"is_callback,omitempty"`

	// CorrelationID is derived deterministically from the vendor's own
	// message/update identifier. Re-delivered payloads decode to the same
	// value, which lets downstream consumers detect duplicates.
	CorrelationID string `json:"correlation_id"`
}
