// Package sanitizer keeps credentials out of logs, summaries and error
// messages.
package sanitizer

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"strings"
)

var urlPattern = regexp.MustCompile(`[a-zA-Z][a-zA-Z0-9+.-]*://[^\s"']+`)

const redactedQueryValue = "REDACTED"

// sensitiveParams are query parameters that carry credentials, such as
// the ones in presigned object URLs.
var sensitiveParams = map[string]bool{
	"access_token":         true,
	"api_key":              true,
	"apikey":               true,
	"key":                  true,
	"password":             true,
	"sig":                  true,
	"signature":            true,
	"token":                true,
	"x-amz-credential":     true,
	"x-amz-security-token": true,
	"x-amz-signature":      true,
}

// Location hides the password and credential query values of a URL
// location. Anything that is not an absolute URL is returned unchanged.
func Location(location string) string {
	if !strings.Contains(location, "://") {
		return location
	}
	u, err := url.Parse(location)
	if err != nil {
		return location
	}

	q := u.Query()
	changed := false
	for name := range q {
		if sensitiveParams[strings.ToLower(name)] {
			q.Set(name, redactedQueryValue)
			changed = true
		}
	}
	if changed {
		u.RawQuery = q.Encode()
	}
	return u.Redacted()
}

// Redactor replaces known secret values with a salted hash so repeated
// occurrences stay correlatable.
type Redactor struct {
	secrets []string
	salt    string
}

// New ignores empty secrets.
func New(salt string, secrets ...string) *Redactor {
	r := &Redactor{salt: salt}
	for _, s := range secrets {
		if s != "" {
			r.secrets = append(r.secrets, s)
		}
	}
	return r
}

// String redacts credentials of every URL in s and then every secret.
func (r *Redactor) String(s string) string {
	s = urlPattern.ReplaceAllStringFunc(s, Location)
	for _, secret := range r.secrets {
		if strings.Contains(s, secret) {
			s = strings.ReplaceAll(s, secret, hashToken(secret, r.salt))
		}
	}
	return s
}

// Error returns err with a redacted message. errors.Is and errors.As
// still see the wrapped chain.
func (r *Redactor) Error(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	clean := r.String(msg)
	if clean == msg {
		return err
	}
	return &redactedError{msg: clean, err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }

func (e *redactedError) Unwrap() error { return e.err }

func hashToken(secret, salt string) string {
	sum := sha256.Sum256([]byte(salt + secret))
	return "[S256:" + hex.EncodeToString(sum[:8]) + "]"
}
