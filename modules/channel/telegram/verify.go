package telegram

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/thesoulpath/soulpath/internal/channel"
)

// secretTokenHeader is set by Telegram on every delivery when the webhook
// was registered with a secret_token.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// Handshake implements channel.Verifier. Telegram has no GET challenge flow;
// the gateway answers its generic health body instead.
func (a *Adapter) Handshake(url.Values) (string, error) {
	return "", channel.ErrHandshakeUnsupported
}

// VerifyDelivery implements channel.Verifier. It checks the secret token
// header (constant time) when configured and requires the update_id envelope
// marker before the payload may reach Decode.
func (a *Adapter) VerifyDelivery(headers http.Header, body []byte) error {
	if a.secret != "" {
		token := headers.Get(secretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(a.secret), []byte(token)) != 1 {
			return fmt.Errorf("%w: bad secret token", channel.ErrForbidden)
		}
	}

	var envelope struct {
		UpdateID *int `json:"update_id"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.UpdateID == nil {
		return fmt.Errorf("%w: missing update_id", channel.ErrBadEnvelope)
	}
	return nil
}
