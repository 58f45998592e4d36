// Package classifier maps raw header-frame events to the logical
// header categories the analysis tracks.
//
// When HPACK serves a header from its tables the wire no longer
// carries the name, so classification falls back to value shape. The
// fallback is inherently heuristic; it is kept deterministic and
// order-stable by expressing the rules as an ordered list evaluated
// first-match-wins. Categories are data, not code: a different
// deployment supplies a different rule list.
package classifier

import (
	"regexp"
	"strings"

	"github.com/cvalentine99/hpackstat/internal/jwtcodec"
	"github.com/cvalentine99/hpackstat/internal/models"
)

// Logical header categories of the JWT-forwarding deployment.
const (
	CategoryAuthorization models.Category = "authorization"
	CategoryJWTHeader     models.Category = "x-jwt-header"
	CategoryJWTPayload    models.Category = "x-jwt-payload"
	CategoryJWTSignature  models.Category = "x-jwt-sig"

	// Legacy names from the four-header pilot format.
	CategoryJWTStatic  models.Category = "x-jwt-static"
	CategoryJWTSession models.Category = "x-jwt-session"
	CategoryJWTDynamic models.Category = "x-jwt-dynamic"
)

// KnownCategories lists every category the default rule set can
// produce, in report order.
var KnownCategories = []models.Category{
	CategoryAuthorization,
	CategoryJWTHeader,
	CategoryJWTPayload,
	CategoryJWTSignature,
	CategoryJWTStatic,
	CategoryJWTSession,
	CategoryJWTDynamic,
}

// Rule is one predicate/category pair. Rules are evaluated in order;
// the first match wins.
type Rule struct {
	// Name identifies the rule in logs.
	Name string

	// Category is the result when Match returns true.
	Category models.Category

	// Match decides whether an event belongs to the category. name is
	// empty when HPACK elided it.
	Match func(name, value string) bool
}

// Classifier classifies (name, value) pairs into categories.
// Classification is a pure function of its inputs; the classifier
// holds only the immutable rule list.
type Classifier struct {
	rules     []Rule
	sessionRE *regexp.Regexp
}

// sessionIDPattern extracts the session identifier a payload carries.
var sessionIDPattern = regexp.MustCompile(`"session_id"\s*:\s*"([a-fA-F0-9-]+)"`)

// New creates a classifier from an explicit rule list.
func New(rules []Rule) *Classifier {
	return &Classifier{
		rules:     rules,
		sessionRE: sessionIDPattern,
	}
}

// Default creates a classifier with the deployment's standard rules.
// The exact-name rules run first; the value-shape fallback rules apply
// only when the name was elided, in this fixed priority order:
//
//  1. exact match against the constant JWT header segment
//  2. JSON object carrying the session marker
//  3. long opaque value with no JSON or JWT structure (signature)
//
// sigThreshold is the minimum value length for rule 3; sessionMarker is
// the substring rule 2 looks for, the session-id JSON key when empty.
func Default(sigThreshold int, sessionMarker string) *Classifier {
	if sessionMarker == "" {
		sessionMarker = `"session_id"`
	}
	rules := make([]Rule, 0, len(KnownCategories)+3)

	for _, cat := range KnownCategories {
		rules = append(rules, exactNameRule(cat))
	}

	rules = append(rules,
		Rule{
			Name:     "fallback-constant-header",
			Category: CategoryJWTHeader,
			Match: func(name, value string) bool {
				return name == "" && value == jwtcodec.HeaderSegment
			},
		},
		Rule{
			Name:     "fallback-json-payload",
			Category: CategoryJWTPayload,
			Match: func(name, value string) bool {
				return name == "" && strings.HasPrefix(value, "{") &&
					strings.Contains(value, sessionMarker)
			},
		},
		Rule{
			Name:     "fallback-opaque-signature",
			Category: CategoryJWTSignature,
			Match: func(name, value string) bool {
				return name == "" && len(value) > sigThreshold &&
					!strings.Contains(value, "{") &&
					!strings.Contains(value, ".")
			},
		},
	)

	return New(rules)
}

// exactNameRule matches events whose declared name equals the
// category's canonical header name.
func exactNameRule(cat models.Category) Rule {
	return Rule{
		Name:     "name-" + string(cat),
		Category: cat,
		Match: func(name, value string) bool {
			return name == string(cat)
		},
	}
}

// Classify returns the logical category for a header occurrence, or
// ok=false when the event is not of interest. The "unknown" name
// placeholder is treated as an elided name.
func (c *Classifier) Classify(name, value string) (models.Category, bool) {
	if name == "unknown" {
		name = ""
	}
	for _, r := range c.rules {
		if r.Match(name, value) {
			return r.Category, true
		}
	}
	return "", false
}

// SessionID extracts a session identifier from a header value when the
// value carries the session marker. Purely observational: session
// identity never drives classification or byte accounting.
func (c *Classifier) SessionID(value string) (string, bool) {
	m := c.sessionRE.FindStringSubmatch(value)
	if m == nil {
		return "", false
	}
	return m[1], true
}
