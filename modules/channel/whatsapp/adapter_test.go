package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/thesoulpath/soulpath/internal/channel"
	"github.com/thesoulpath/soulpath/pkg/event"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func testAdapter(t *testing.T, apiURL string) *Adapter {
	t.Helper()
	a, err := New(Config{
		AccessToken:   "test-access-token",
		PhoneNumberID: "1234567890",
		VerifyToken:   "verify-me",
		APIURL:        apiURL,
	}, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

const twoMessagePayload = `{
	"object": "whatsapp_business_account",
	"entry": [{
		"id": "biz-1",
		"changes": [{
			"field": "messages",
			"value": {
				"messaging_product": "whatsapp",
				"metadata": {"display_phone_number": "15550001111", "phone_number_id": "1234567890"},
				"contacts": [{"profile": {"name": "Ana"}, "wa_id": "5215550001"}],
				"messages": [
					{"from": "5215550001", "id": "wamid.A", "timestamp": "1700000000", "type": "text", "text": {"body": "hola"}},
					{"from": "5215550002", "id": "wamid.B", "timestamp": "1700000001", "type": "text", "text": {"body": "precios?"}}
				]
			}
		}]
	}]
}`

func TestDecode_TwoMessagesInOneChange(t *testing.T) {
	t.Parallel()

	a := testAdapter(t, "")
	events, err := a.Decode([]byte(twoMessagePayload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].SenderID == events[1].SenderID {
		t.Error("expected distinct sender ids per message")
	}
	for _, ev := range events {
		if ev.Channel != event.ChannelWhatsApp {
			t.Errorf("Channel = %s", ev.Channel)
		}
	}
	if events[0].Entities["profile_name"] != "Ana" {
		t.Errorf("profile name not mapped: %v", events[0].Entities)
	}
	if events[0].CorrelationID != "whatsapp:msg:wamid.A" {
		t.Errorf("CorrelationID = %q", events[0].CorrelationID)
	}
}

func TestDecode_MixedSupportedAndUnsupported(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "biz-1", "changes": [{
			"field": "messages",
			"value": {"messages": [
				{"from": "5215550001", "id": "wamid.A", "type": "audio"},
				{"from": "5215550002", "id": "wamid.B", "type": "text", "text": {"body": "hola"}}
			]}
		}]}]
	}`

	a := testAdapter(t, "")
	events, err := a.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want exactly 1 (unsupported type must not block siblings)", len(events))
	}
	if events[0].Text != "hola" {
		t.Errorf("Text = %q", events[0].Text)
	}
}

func TestDecode_StatusOnlyDelivery(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "biz-1", "changes": [{
			"field": "messages",
			"value": {"statuses": [{"id": "wamid.A", "status": "delivered", "recipient_id": "5215550001"}]}
		}]}]
	}`

	a := testAdapter(t, "")
	events, err := a.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events from status-only delivery, want 0", len(events))
	}
}

func TestDecode_ButtonReply(t *testing.T) {
	t.Parallel()

	payload := `{
		"object": "whatsapp_business_account",
		"entry": [{"id": "biz-1", "changes": [{
			"field": "messages",
			"value": {"messages": [{
				"from": "5215550001", "id": "wamid.C", "type": "interactive",
				"interactive": {"type": "button_reply", "button_reply": {"id": "/book_tarot", "title": "Tarot"}}
			}]}
		}]}]
	}`

	a := testAdapter(t, "")
	events, err := a.Decode([]byte(payload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(events) != 1 || !events[0].IsCallback {
		t.Fatalf("events = %+v", events)
	}
	if events[0].Text != "/book_tarot" {
		t.Errorf("Text = %q", events[0].Text)
	}
}

func TestDecode_Idempotent(t *testing.T) {
	t.Parallel()

	a := testAdapter(t, "")
	first, _ := a.Decode([]byte(twoMessagePayload))
	second, _ := a.Decode([]byte(twoMessagePayload))
	if first[0].CorrelationID != second[0].CorrelationID {
		t.Errorf("correlation ids differ: %q vs %q", first[0].CorrelationID, second[0].CorrelationID)
	}
}

func ackResponse() []byte {
	return []byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.out.1"}]}`)
}

func sendServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *http.Request, *[]byte) {
	t.Helper()
	var lastReq http.Request
	var lastBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		lastReq = *r
		buf := new(bytes.Buffer)
		_, _ = buf.ReadFrom(r.Body)
		lastBody = buf.Bytes()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &lastReq, &lastBody
}

func TestSend_Text(t *testing.T) {
	t.Parallel()

	srv, lastReq, lastBody := sendServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(ackResponse())
	})

	a := testAdapter(t, srv.URL)
	err := a.Send(context.Background(), event.NewTextReply(event.ChannelWhatsApp, "5215550001", "hola"))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if got := lastReq.Header.Get("Authorization"); got != "Bearer test-access-token" {
		t.Errorf("Authorization = %q", got)
	}
	if want := "/v18.0/1234567890/messages"; lastReq.URL.Path != want {
		t.Errorf("path = %q, want %q", lastReq.URL.Path, want)
	}

	var req SendRequest
	if err := json.Unmarshal(*lastBody, &req); err != nil {
		t.Fatalf("unmarshal request: %v", err)
	}
	if req.MessagingProduct != "whatsapp" || req.To != "5215550001" || req.Text.Body != "hola" {
		t.Errorf("request = %+v", req)
	}
}

func TestSend_ButtonsWithinCap(t *testing.T) {
	t.Parallel()

	srv, _, lastBody := sendServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(ackResponse())
	})

	a := testAdapter(t, srv.URL)
	reply := event.Reply{
		Channel: event.ChannelWhatsApp, RecipientID: "5215550001", Kind: event.ReplyButtons,
		Text: "Elige una sesión",
		Buttons: []event.Button{
			{Title: "Tarot", Payload: "/book_tarot"},
			{Title: "Astrología", Payload: "/book_astro"},
		},
	}
	if err := a.Send(context.Background(), reply); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var req SendRequest
	_ = json.Unmarshal(*lastBody, &req)
	if req.Type != "interactive" || req.Interactive == nil {
		t.Fatalf("request = %+v", req)
	}
	if len(req.Interactive.Action.Buttons) != 2 {
		t.Errorf("buttons = %+v", req.Interactive.Action.Buttons)
	}
	if req.Interactive.Action.Buttons[0].Reply.ID != "/book_tarot" {
		t.Errorf("payload = %+v", req.Interactive.Action.Buttons[0])
	}
}

func TestSend_ButtonsOverCap_DegradesToNumberedList(t *testing.T) {
	t.Parallel()

	srv, _, lastBody := sendServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(ackResponse())
	})

	a := testAdapter(t, srv.URL)
	reply := event.Reply{
		Channel: event.ChannelWhatsApp, RecipientID: "5215550001", Kind: event.ReplyButtons,
		Text: "Nuestros servicios:",
		Buttons: []event.Button{
			{Title: "Tarot", Payload: "/1"},
			{Title: "Astrología", Payload: "/2"},
			{Title: "Numerología", Payload: "/3"},
			{Title: "Reiki", Payload: "/4"},
		},
	}
	if err := a.Send(context.Background(), reply); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var req SendRequest
	_ = json.Unmarshal(*lastBody, &req)
	if req.Type != "text" {
		t.Fatalf("type = %q, want degraded text", req.Type)
	}
	want := "Nuestros servicios:\n1. Tarot\n2. Astrología\n3. Numerología\n4. Reiki"
	if req.Text.Body != want {
		t.Errorf("body = %q, want %q", req.Text.Body, want)
	}
}

func TestSend_EmbeddedError200_IsNotSuccess(t *testing.T) {
	t.Parallel()

	srv, _, _ := sendServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"Message undeliverable","code":131026}}`))
	})

	a := testAdapter(t, srv.URL)
	err := a.Send(context.Background(), event.NewTextReply(event.ChannelWhatsApp, "5215550001", "hola"))
	if err == nil {
		t.Fatal("expected error for 200 with embedded error body")
	}
	if got := channel.Classify(err); got != channel.FailureRecipient {
		t.Errorf("Classify = %v, want recipient (err=%v)", got, err)
	}
}

func TestSend_InvalidToken_IsAuthError(t *testing.T) {
	t.Parallel()

	srv, _, _ := sendServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token","type":"OAuthException","code":190}}`))
	})

	a := testAdapter(t, srv.URL)
	err := a.Send(context.Background(), event.NewTextReply(event.ChannelWhatsApp, "5215550001", "hola"))
	if got := channel.Classify(err); got != channel.FailureAuth {
		t.Errorf("Classify = %v, want auth (err=%v)", got, err)
	}
}

func TestSend_ServerError_IsTransient(t *testing.T) {
	t.Parallel()

	srv, _, _ := sendServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"An unexpected error has occurred","code":1}}`))
	})

	a := testAdapter(t, srv.URL)
	err := a.Send(context.Background(), event.NewTextReply(event.ChannelWhatsApp, "5215550001", "hola"))
	if got := channel.Classify(err); got != channel.FailureTransient {
		t.Errorf("Classify = %v, want transient (err=%v)", got, err)
	}
}

func TestHandshake(t *testing.T) {
	t.Parallel()

	a := testAdapter(t, "")

	tests := []struct {
		name      string
		query     url.Values
		want      string
		forbidden bool
	}{
		{
			name: "valid token echoes challenge verbatim",
			query: url.Values{
				"hub.mode":         {"subscribe"},
				"hub.verify_token": {"verify-me"},
				"hub.challenge":    {"1158201444"},
			},
			want: "1158201444",
		},
		{
			name: "wrong token",
			query: url.Values{
				"hub.mode":         {"subscribe"},
				"hub.verify_token": {"nope"},
				"hub.challenge":    {"1158201444"},
			},
			forbidden: true,
		},
		{
			name: "wrong mode",
			query: url.Values{
				"hub.mode":         {"unsubscribe"},
				"hub.verify_token": {"verify-me"},
				"hub.challenge":    {"1158201444"},
			},
			forbidden: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := a.Handshake(tt.query)
			if tt.forbidden {
				if !errors.Is(err, channel.ErrForbidden) {
					t.Errorf("err = %v, want ErrForbidden", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Handshake: %v", err)
			}
			if got != tt.want {
				t.Errorf("challenge = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVerifyDelivery(t *testing.T) {
	t.Parallel()

	a := testAdapter(t, "")

	if err := a.VerifyDelivery(nil, []byte(`{"object":"whatsapp_business_account","entry":[]}`)); err != nil {
		t.Errorf("valid envelope rejected: %v", err)
	}
	if err := a.VerifyDelivery(nil, []byte(`{"object":"page"}`)); !errors.Is(err, channel.ErrBadEnvelope) {
		t.Errorf("wrong object: err = %v, want ErrBadEnvelope", err)
	}
	if err := a.VerifyDelivery(nil, []byte(`not json`)); !errors.Is(err, channel.ErrBadEnvelope) {
		t.Errorf("bad JSON: err = %v, want ErrBadEnvelope", err)
	}
}
