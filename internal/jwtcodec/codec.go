// Package jwtcodec converts between a monolithic JWT and its
// decomposed transport parts. The decomposed form ships the payload as
// raw JSON and the signature unchanged, so HPACK can index the stable
// parts independently; the header segment is a fixed constant for
// every token the deployment mints and is not retransmitted.
//
// Both directions are pure and stateless. The analysis engine never
// calls this package; it only observes the values it produces in
// traced header frames.
package jwtcodec

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// HeaderSegment is the base64url encoding of {"alg":"RS256","typ":"JWT"},
// the header of every token in the deployment.
const HeaderSegment = "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9"

// BearerPrefix is the conventional authorization-header scheme prefix.
const BearerPrefix = "Bearer "

// ErrMalformedToken is returned when a token does not have exactly
// three dot-delimited segments.
var ErrMalformedToken = errors.New("jwtcodec: malformed token")

// ErrMissingParts is returned by Reassemble when required components
// are absent.
var ErrMissingParts = errors.New("jwtcodec: missing components")

// Components holds the decomposed parts of a JWT.
type Components struct {
	// Header is the base64url-encoded header segment. Empty means the
	// deployment constant (HeaderSegment).
	Header string `json:"header,omitempty"`

	// Payload is the claims segment decoded to raw JSON. Raw JSON is
	// what travels in x-jwt-payload; it is ~25% smaller than its
	// base64 form.
	Payload string `json:"payload"`

	// Signature is the base64url signature segment, unchanged.
	Signature string `json:"signature"`
}

// Decompose splits a JWT into transport components. It fails when the
// token does not have exactly three dot-delimited segments or the
// payload segment is not valid base64url.
func Decompose(token string) (*Components, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, len(parts))
	}

	payloadJSON, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("jwtcodec: decode payload: %w", err)
	}

	return &Components{
		Header:    parts[0],
		Payload:   string(payloadJSON),
		Signature: parts[2],
	}, nil
}

// Reassemble reconstructs a JWT from its components. A missing header
// falls back to the deployment constant; a missing payload or
// signature is an error.
func Reassemble(c *Components) (string, error) {
	if c == nil || c.Payload == "" || c.Signature == "" {
		return "", ErrMissingParts
	}

	header := c.Header
	if header == "" {
		header = HeaderSegment
	}

	payloadB64 := base64.RawURLEncoding.EncodeToString([]byte(c.Payload))
	return header + "." + payloadB64 + "." + c.Signature, nil
}

// FromBearer extracts the raw token from an authorization header value
// using the plain bearer-token convention. ok is false when the value
// does not carry the bearer scheme.
func FromBearer(headerValue string) (token string, ok bool) {
	if !strings.HasPrefix(headerValue, BearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(headerValue, BearerPrefix), true
}

// ToBearer wraps a token in the bearer scheme.
func ToBearer(token string) string {
	return BearerPrefix + token
}

// ComponentSizes returns the byte sizes of each component for logging.
func ComponentSizes(c *Components) map[string]int {
	return map[string]int{
		"header":    len(c.Header),
		"payload":   len(c.Payload),
		"signature": len(c.Signature),
		"total":     len(c.Header) + len(c.Payload) + len(c.Signature),
	}
}
