// Package security keeps channel credentials out of log output.
package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// Redactor replaces secret values in strings with a redaction placeholder.
// It combines regex matching for known token formats with literal matching
// for credentials loaded at startup. All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with patterns for the token
// formats the platforms issue.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddLiteral adds a literal secret value that should be redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s
// with RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}

	return s
}

// DefaultPatterns returns compiled regex patterns for the credential
// formats this gateway handles. The patterns carry no word-boundary
// anchors: tokens appear mid-word in Bot API URLs ("bot123456789:..."),
// where a boundary would prevent the match.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Telegram bot token: numeric id, colon, 30+ char secret.
		regexp.MustCompile(`\d{8,10}:[A-Za-z0-9_-]{30,}`),
		// Meta Graph API access token.
		regexp.MustCompile(`EAA[A-Za-z0-9]{20,}`),
		// Bearer header values.
		regexp.MustCompile(`Bearer [A-Za-z0-9._\-]{16,}`),
	}
}
