// Package channel defines the bridge between messaging platforms and the
// gateway. It provides the Adapter and Verifier interfaces, the send failure
// taxonomy, and the registry that maps channel ids to their implementations.
package channel

import (
	"context"
	"net/http"
	"net/url"

	"github.com/thesoulpath/soulpath/pkg/event"
)

// Adapter is the bridge between a messaging platform and the gateway.
// Every concrete adapter (Telegram, WhatsApp, etc.) must implement this
// interface. Adapters are constructed once at startup from configuration
// and must be safe for concurrent use.
type Adapter interface {
	// ID returns the channel this adapter serves.
	ID() event.ChannelID

	// Decode transforms a raw webhook body into zero or more inbound events.
	// A single delivery may batch several user messages (WhatsApp) or carry
	// exactly one update (Telegram). Sub-messages the adapter does not
	// understand produce nothing, not an error: one unsupported message
	// must never block its siblings. Decode returns an error only when the
	// envelope itself cannot be parsed.
	Decode(payload []byte) ([]event.Inbound, error)

	// Send translates a canonical reply into one or more vendor HTTP calls.
	// It returns nil only on a platform-acknowledged success; failures are
	// reported as *SendError so the dispatcher can apply its retry policy.
	Send(ctx context.Context, reply event.Reply) error
}

// CallbackAcker is implemented by adapters whose platform expects an
// explicit acknowledgement of callback events, separate from any reply.
// Telegram's answerCallbackQuery is the canonical case: without it the
// client keeps showing a loading spinner on the pressed button.
type CallbackAcker interface {
	AckCallback(ctx context.Context, ev event.Inbound) error
}

// Verifier validates inbound authenticity before an adapter is invoked.
// Verification never performs network I/O.
type Verifier interface {
	// Handshake answers a GET challenge/verification request. It returns the
	// challenge string to echo verbatim on success, ErrForbidden when the
	// presented verify token does not match, or ErrHandshakeUnsupported for
	// platforms that have no handshake flow.
	Handshake(query url.Values) (string, error)

	// VerifyDelivery checks a POST delivery's headers and envelope shape.
	// It returns ErrForbidden for failed secret checks and ErrBadEnvelope
	// when the body does not carry the platform's expected markers.
	VerifyDelivery(headers http.Header, body []byte) error
}

// Entry pairs an adapter with its verifier.
type Entry struct {
	Adapter  Adapter
	Verifier Verifier
}
