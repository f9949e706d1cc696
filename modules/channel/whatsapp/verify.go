package whatsapp

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/thesoulpath/soulpath/internal/channel"
)

// Handshake implements channel.Verifier. Meta verifies a webhook by sending
// GET ?hub.mode=subscribe&hub.verify_token=...&hub.challenge=...; the
// challenge must be echoed back byte for byte when the token matches.
func (a *Adapter) Handshake(query url.Values) (string, error) {
	mode := query.Get("hub.mode")
	token := query.Get("hub.verify_token")
	challenge := query.Get("hub.challenge")

	if mode != "subscribe" {
		return "", fmt.Errorf("%w: unexpected hub.mode %q", channel.ErrForbidden, mode)
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.verifyToken)) != 1 {
		return "", fmt.Errorf("%w: verify token mismatch", channel.ErrForbidden)
	}
	return challenge, nil
}

// VerifyDelivery implements channel.Verifier. A delivery must declare the
// whatsapp_business_account object marker before it may reach Decode.
func (a *Adapter) VerifyDelivery(_ http.Header, body []byte) error {
	var envelope struct {
		Object string `json:"object"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("%w: %v", channel.ErrBadEnvelope, err)
	}
	if envelope.Object != envelopeObject {
		return fmt.Errorf("%w: unexpected object %q", channel.ErrBadEnvelope, envelope.Object)
	}
	return nil
}
