package channel

import (
	"context"
	"net/http"
	"net/url"
	"sync"

	"github.com/thesoulpath/soulpath/pkg/event"
)

// MockAdapter is a configurable Adapter implementation for tests in this and
// dependent packages.
type MockAdapter struct {
	Channel event.ChannelID

	// DecodeFunc, when set, overrides Decode.
	DecodeFunc func(payload []byte) ([]event.Inbound, error)

	// SendErrs is consumed one per Send call; nil entries mean success.
	// When exhausted, Send returns nil.
	SendErrs []error

	mu    sync.Mutex
	sent  []event.Reply
	calls int
}

// ID implements Adapter.
func (m *MockAdapter) ID() event.ChannelID { return m.Channel }

// Decode implements Adapter.
func (m *MockAdapter) Decode(payload []byte) ([]event.Inbound, error) {
	if m.DecodeFunc != nil {
		return m.DecodeFunc(payload)
	}
	return nil, nil
}

// Send implements Adapter. It records the reply and pops the next scripted error.
func (m *MockAdapter) Send(_ context.Context, reply event.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, reply)
	m.calls++
	if m.calls <= len(m.SendErrs) {
		return m.SendErrs[m.calls-1]
	}
	return nil
}

// SendCalls returns how many times Send was invoked.
func (m *MockAdapter) SendCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Sent returns a copy of all replies passed to Send.
func (m *MockAdapter) Sent() []event.Reply {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Reply, len(m.sent))
	copy(out, m.sent)
	return out
}

// MockVerifier is a configurable Verifier implementation for tests.
type MockVerifier struct {
	HandshakeFunc func(query url.Values) (string, error)
	VerifyFunc    func(headers http.Header, body []byte) error
}

// Handshake implements Verifier.
func (m *MockVerifier) Handshake(query url.Values) (string, error) {
	if m.HandshakeFunc != nil {
		return m.HandshakeFunc(query)
	}
	return "", ErrHandshakeUnsupported
}

// VerifyDelivery implements Verifier.
func (m *MockVerifier) VerifyDelivery(headers http.Header, body []byte) error {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(headers, body)
	}
	return nil
}
