package logging

import (
	"log/slog"
	"regexp"
	"strings"
)

var (
	emailPattern  = regexp.MustCompile(`([a-zA-Z0-9._%+-]+)@([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})`)
	bearerPattern = regexp.MustCompile(`Bearer\s+[a-zA-Z0-9\-._~+/]+=*`)
)

var sensitiveKeys = []string{
	"password", "secret", "token", "api_key", "apikey", "authorization", "x-api-key",
}

// Redactor masks email addresses in log attributes and hides the values of
// attributes whose key names a secret.
type Redactor struct{}

// NewRedactor creates a Redactor.
func NewRedactor() *Redactor {
	return &Redactor{}
}

// ReplaceAttr is a slog.HandlerOptions.ReplaceAttr hook.
func (r *Redactor) ReplaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() != slog.KindString {
		if a.Value.Kind() == slog.KindAny && isSensitiveKey(a.Key) {
			return slog.String(a.Key, "***")
		}
		return a
	}
	s := a.Value.String()
	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactSecret(s))
	}
	return slog.String(a.Key, r.RedactString(s))
}

// RedactString masks every email address and bearer token in s.
func (r *Redactor) RedactString(s string) string {
	if s == "" {
		return s
	}
	if strings.Contains(s, "@") {
		s = emailPattern.ReplaceAllStringFunc(s, RedactEmail)
	}
	if strings.Contains(s, "Bearer") {
		s = bearerPattern.ReplaceAllString(s, "Bearer ***")
	}
	return s
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// RedactEmail keeps the first character of the local part and the domain.
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	if local == "" {
		return "***@" + domain
	}
	return local[:1] + "***@" + domain
}

// RedactSecret keeps a four character prefix of long values.
func RedactSecret(s string) string {
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "***"
}
