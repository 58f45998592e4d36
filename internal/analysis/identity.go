package analysis

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// ValueIdentity is a fixed-width content fingerprint of a header
// value, used only for equality and counting, never reversed. Two
// events with equal raw values always produce equal identities;
// collisions across distinct values are a controlled approximation,
// negligible at observed cardinalities.
type ValueIdentity [16]byte

// IdentityOf fingerprints a header value with BLAKE3, truncated to the
// identity width.
func IdentityOf(value string) ValueIdentity {
	sum := blake3.Sum256([]byte(value))
	var id ValueIdentity
	copy(id[:], sum[:len(id)])
	return id
}

// Hex returns the identity as a hex string for report keys.
func (id ValueIdentity) Hex() string {
	return hex.EncodeToString(id[:])
}

// emptyIdentity is the identity of the empty value. Empty values are
// tracked normally but flagged as a data-quality signal at finalize.
var emptyIdentity = IdentityOf("")
