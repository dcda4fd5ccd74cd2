package auth

import (
	"context"
	"net"
	"regexp"
	"strings"
	"time"
)

// NormalizeEmail lower-cases and trims an email address.  Every email that
// reaches a store or a comparison goes through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// emailDomain returns the part after the last '@'.
func emailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[at+1:]
}

// HoneypotTriggered reports whether the hidden form field was filled in.
// Humans never see the field; any non-blank value signals automated traffic.
func HoneypotTriggered(value string) bool {
	return strings.TrimSpace(value) != ""
}

// IsDisposableEmail reports whether the email's domain is on the throwaway
// provider blocklist.
func IsDisposableEmail(email string, blocklist map[string]bool) bool {
	return blocklist[strings.ToLower(emailDomain(email))]
}

// MXChecker resolves whether a domain can receive mail.  The orchestrator
// holds one as a field so tests can stub the network call.
type MXChecker func(ctx context.Context, domain string) error

// CheckEmailMX verifies that the domain has at least one MX record.  The
// lookup is bounded by timeout; resolver errors and timeouts both count as
// failure, never as a pipeline error.
func CheckEmailMX(ctx context.Context, domain string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	records, err := net.DefaultResolver.LookupMX(ctx, domain)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return &net.DNSError{Err: "no MX records", Name: domain, IsNotFound: true}
	}
	return nil
}

var (
	htmlTagRe    = regexp.MustCompile(`<[^>]+>`)
	unsafeTextRe = regexp.MustCompile(`[^\w\s\-'.]`)
)

// SanitizeText strips HTML tags and everything outside the allow-list (word
// characters, whitespace, hyphen, apostrophe, period) from free-text input
// such as display names.  Sanitization never rejects; it only cleans.
func SanitizeText(text string) string {
	clean := htmlTagRe.ReplaceAllString(text, "")
	clean = unsafeTextRe.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}
