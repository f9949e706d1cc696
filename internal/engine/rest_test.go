package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thesoulpath/soulpath/pkg/event"
)

func engineServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestRESTEngineHandleText(t *testing.T) {
	t.Parallel()

	var gotBody map[string]any
	srv := engineServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"recipient_id":"12345","text":"Hola! Bienvenido."}]`))
	})

	eng := NewRESTEngine(srv.URL, time.Second, nil)
	replies, err := eng.Handle(context.Background(), event.Inbound{
		Channel:  event.ChannelTelegram,
		SenderID: "12345",
		Text:     "/start",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if gotBody["sender"] != "12345" {
		t.Errorf("sender = %v, want 12345", gotBody["sender"])
	}
	if gotBody["message"] != "/start" {
		t.Errorf("message = %v, want /start", gotBody["message"])
	}
	if len(replies) != 1 {
		t.Fatalf("replies = %d, want 1", len(replies))
	}
	r := replies[0]
	if r.Channel != event.ChannelTelegram || r.RecipientID != "12345" {
		t.Errorf("reply addressed to %s/%s", r.Channel, r.RecipientID)
	}
	if r.Kind != event.ReplyText || r.Text != "Hola! Bienvenido." {
		t.Errorf("reply = %+v", r)
	}
}

func TestRESTEngineHandleVariants(t *testing.T) {
	t.Parallel()

	srv := engineServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[
			{"recipient_id":"7","text":"Elige una opción","buttons":[{"title":"Reservar","payload":"/book"},{"title":"Precios","payload":"/prices"}]},
			{"recipient_id":"7","image":"https://example.com/chart.png"},
			{"recipient_id":"7","attachment":"https://example.com/guide.pdf"}
		]`))
	})

	eng := NewRESTEngine(srv.URL, time.Second, nil)
	replies, err := eng.Handle(context.Background(), event.Inbound{
		Channel:  event.ChannelWhatsApp,
		SenderID: "7",
		Text:     "menu",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(replies) != 3 {
		t.Fatalf("replies = %d, want 3", len(replies))
	}
	if replies[0].Kind != event.ReplyButtons || len(replies[0].Buttons) != 2 {
		t.Errorf("reply[0] = %+v", replies[0])
	}
	if replies[0].Buttons[0].Payload != "/book" {
		t.Errorf("button payload = %q", replies[0].Buttons[0].Payload)
	}
	if replies[1].Kind != event.ReplyImage || replies[1].MediaURL != "https://example.com/chart.png" {
		t.Errorf("reply[1] = %+v", replies[1])
	}
	if replies[2].Kind != event.ReplyDocument || replies[2].MediaURL != "https://example.com/guide.pdf" {
		t.Errorf("reply[2] = %+v", replies[2])
	}
}

func TestRESTEngineSessionDefaults(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing price uses default",
			body: `[{"recipient_id":"7","text":"Confirmado","custom":{"session_type":"astrologia","date":"2026-09-01","time":"10:00"}}]`,
			want: "Precio: $80 USD",
		},
		{
			name: "explicit price preserved",
			body: `[{"recipient_id":"7","text":"Confirmado","custom":{"session_type":"tarot","price_usd":120}}]`,
			want: "Precio: $120 USD",
		},
		{
			name: "explicit zero price preserved",
			body: `[{"recipient_id":"7","text":"Confirmado","custom":{"session_type":"intro","price_usd":0}}]`,
			want: "Precio: $0 USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := engineServer(t, func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			})
			eng := NewRESTEngine(srv.URL, time.Second, nil)
			replies, err := eng.Handle(context.Background(), event.Inbound{
				Channel:  event.ChannelWhatsApp,
				SenderID: "7",
				Text:     "confirmar",
			})
			if err != nil {
				t.Fatalf("Handle: %v", err)
			}
			if len(replies) != 1 {
				t.Fatalf("replies = %d, want 1", len(replies))
			}
			if !strings.Contains(replies[0].Text, tt.want) {
				t.Errorf("text = %q, want substring %q", replies[0].Text, tt.want)
			}
		})
	}
}

func TestRESTEngineErrors(t *testing.T) {
	t.Parallel()

	t.Run("non-200 status", func(t *testing.T) {
		t.Parallel()
		srv := engineServer(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		eng := NewRESTEngine(srv.URL, time.Second, nil)
		if _, err := eng.Handle(context.Background(), event.Inbound{SenderID: "1"}); err == nil {
			t.Fatal("expected error for 502 response")
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		srv := engineServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"not":"an array"}`))
		})
		eng := NewRESTEngine(srv.URL, time.Second, nil)
		if _, err := eng.Handle(context.Background(), event.Inbound{SenderID: "1"}); err == nil {
			t.Fatal("expected error for malformed body")
		}
	})

	t.Run("unreachable engine", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()
		eng := NewRESTEngine(srv.URL, time.Second, nil)
		if _, err := eng.Handle(context.Background(), event.Inbound{SenderID: "1"}); err == nil {
			t.Fatal("expected error for unreachable engine")
		}
	})

	t.Run("empty response", func(t *testing.T) {
		t.Parallel()
		srv := engineServer(t, func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`[]`))
		})
		eng := NewRESTEngine(srv.URL, time.Second, nil)
		replies, err := eng.Handle(context.Background(), event.Inbound{SenderID: "1"})
		if err != nil {
			t.Fatalf("Handle: %v", err)
		}
		if len(replies) != 0 {
			t.Errorf("replies = %d, want 0", len(replies))
		}
	})
}
