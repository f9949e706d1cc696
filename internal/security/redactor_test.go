package security

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestRedactPatterns(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	tests := []struct {
		name string
		in   string
		leak string
		keep string
	}{
		{
			name: "telegram bot token",
			in:   "request to https://api.telegram.org/bot123456789:AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw/sendMessage failed",
			leak: "AAHdqTcvCH1vGWJxfSeofSAs0K5PALDsaw",
			keep: "https://api.telegram.org/bot",
		},
		{
			name: "meta access token",
			in:   "auth failed for EAAGm0PX4ZCpsBAKZBZBZCZCvalidlookingtoken123456",
			leak: "EAAGm0PX4ZCps",
		},
		{
			name: "bearer header",
			in:   "header was Bearer abcdef1234567890abcdef",
			leak: "abcdef1234567890abcdef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := r.Redact(tt.in)
			if strings.Contains(out, tt.leak) {
				t.Errorf("secret leaked: %q", out)
			}
			if !strings.Contains(out, RedactPlaceholder) {
				t.Errorf("placeholder missing: %q", out)
			}
			if tt.keep != "" && !strings.Contains(out, tt.keep) {
				t.Errorf("non-secret text lost: %q", out)
			}
		})
	}
}

func TestRedactLiterals(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddLiteral("hunter2")
	r.AddLiteral("")

	out := r.Redact("verify token is hunter2, do not share")
	if strings.Contains(out, "hunter2") {
		t.Errorf("literal leaked: %q", out)
	}
}

func TestRedactEmptyString(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	if out := r.Redact(""); out != "" {
		t.Errorf("Redact(\"\") = %q", out)
	}
}

func TestRedactingHandler(t *testing.T) {
	t.Parallel()

	r := NewRedactor()
	r.AddLiteral("s3cret-verify")

	var buf bytes.Buffer
	logger := slog.New(NewRedactingHandler(slog.NewTextHandler(&buf, nil), r))

	logger.Info("webhook rejected s3cret-verify mismatch",
		"token", "s3cret-verify",
		"error", errors.New("expected s3cret-verify"),
	)
	logger.With("secret", "s3cret-verify").Info("child logger attrs")

	out := buf.String()
	if strings.Contains(out, "s3cret-verify") {
		t.Errorf("secret leaked into log output:\n%s", out)
	}
	if !strings.Contains(out, RedactPlaceholder) {
		t.Errorf("placeholder missing:\n%s", out)
	}
}
