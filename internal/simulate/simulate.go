// Package simulate generates synthetic header-frame traces by driving
// a real HPACK encoder over generated JWT sessions. The representation
// tag of every emitted field is read off the wire bytes the encoder
// actually produced, so simulated traces exercise the same indexing,
// reuse and eviction dynamics as captured ones, at any dynamic-table
// size.
package simulate

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/net/http2/hpack"

	"github.com/cvalentine99/hpackstat/internal/jwtcodec"
	"github.com/cvalentine99/hpackstat/internal/logging"
	"github.com/cvalentine99/hpackstat/internal/models"
)

// Mode selects the header scheme under simulation.
type Mode int

const (
	// ModeBearer sends the whole JWT in a single authorization header.
	ModeBearer Mode = iota

	// ModeDecomposed sends the decomposed x-jwt-payload and x-jwt-sig
	// headers; the constant header segment is not transmitted.
	ModeDecomposed
)

// ParseMode maps a mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "bearer":
		return ModeBearer, nil
	case "decomposed":
		return ModeDecomposed, nil
	}
	return 0, fmt.Errorf("simulate: unknown mode %q", s)
}

// String returns the mode name.
func (m Mode) String() string {
	if m == ModeDecomposed {
		return "decomposed"
	}
	return "bearer"
}

// Config controls trace generation.
type Config struct {
	// Sessions is the number of distinct user sessions.
	Sessions int

	// RequestsPerSession is how many requests each session issues.
	// Sessions are interleaved round-robin, modelling concurrent
	// traffic on one connection.
	RequestsPerSession int

	// TableSize is the encoder's dynamic-table size in bytes.
	TableSize uint32

	// Mode selects the header scheme.
	Mode Mode

	// Seed makes generation reproducible.
	Seed int64

	// ElideIndexedNames blanks the name on fully indexed events, the
	// way a trace looks when HPACK references a dynamic-table name
	// without retransmitting it. Exercises fallback classification.
	ElideIndexedNames bool
}

// signatureBytes is the raw length of a generated RS256 signature;
// base64url encodes it to 342 characters, matching production tokens.
const signatureBytes = 256

// Generator produces an ordered synthetic trace.
type Generator struct {
	cfg Config
	rng *rand.Rand
	log *logging.Logger
}

// New creates a generator.
func New(cfg Config) *Generator {
	if cfg.Sessions <= 0 {
		cfg.Sessions = 1
	}
	if cfg.RequestsPerSession <= 0 {
		cfg.RequestsPerSession = 1
	}
	if cfg.TableSize == 0 {
		cfg.TableSize = 4096
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		log: logging.SimulateLogger(),
	}
}

// session holds one generated user session's stable header values.
type session struct {
	payload   string
	signature string
	token     string
}

// Events generates the full trace in wire order.
func (g *Generator) Events() ([]models.HeaderFrameEvent, error) {
	sessions, err := g.sessions()
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := hpack.NewEncoder(&buf)
	// The limit defaults to the protocol's 4096; raise it first or the
	// size below gets clamped.
	enc.SetMaxDynamicTableSizeLimit(g.cfg.TableSize)
	enc.SetMaxDynamicTableSize(g.cfg.TableSize)

	var events []models.HeaderFrameEvent
	frame := uint64(0)
	stream := uint64(1)

	for r := 0; r < g.cfg.RequestsPerSession; r++ {
		for _, s := range sessions {
			frame++
			for _, f := range g.fields(s) {
				ev, err := encodeField(enc, &buf, f, frame, stream)
				if err != nil {
					return nil, err
				}
				if g.cfg.ElideIndexedNames && ev.Repr == models.RepresentationIndexed {
					ev.Name = ""
				}
				events = append(events, ev)
			}
			stream += 2
		}
	}

	g.log.Info("trace generated",
		"mode", g.cfg.Mode.String(),
		"sessions", g.cfg.Sessions,
		"events", len(events),
		"table_size", g.cfg.TableSize,
	)

	return events, nil
}

// fields returns the header fields one request carries.
func (g *Generator) fields(s *session) []hpack.HeaderField {
	if g.cfg.Mode == ModeDecomposed {
		return []hpack.HeaderField{
			{Name: "x-jwt-payload", Value: s.payload},
			{Name: "x-jwt-sig", Value: s.signature},
		}
	}
	return []hpack.HeaderField{
		{Name: "authorization", Value: jwtcodec.ToBearer(s.token)},
	}
}

// encodeField writes one field through the encoder and derives its
// representation from the first emitted wire byte (RFC 7541 section 6
// prefixes).
func encodeField(enc *hpack.Encoder, buf *bytes.Buffer, f hpack.HeaderField, frame, stream uint64) (models.HeaderFrameEvent, error) {
	buf.Reset()
	if err := enc.WriteField(f); err != nil {
		return models.HeaderFrameEvent{}, fmt.Errorf("simulate: encode %s: %w", f.Name, err)
	}
	wire := skipSizeUpdates(buf.Bytes())
	if len(wire) == 0 {
		return models.HeaderFrameEvent{}, fmt.Errorf("simulate: encoder emitted no bytes for %s", f.Name)
	}

	repr := representationOf(wire[0])

	return models.HeaderFrameEvent{
		Frame:    frame,
		StreamID: strconv.FormatUint(stream, 10),
		Name:     f.Name,
		Value:    f.Value,
		Repr:     repr,
		RawRepr:  repr.String(),
	}, nil
}

// skipSizeUpdates advances past the dynamic-table size updates the
// encoder prepends to the first field after a size change (001xxxxx
// prefix plus integer continuation bytes).
func skipSizeUpdates(wire []byte) []byte {
	for len(wire) > 0 && wire[0]&0xE0 == 0x20 {
		if wire[0]&0x1F != 0x1F {
			wire = wire[1:]
			continue
		}
		i := 1
		for i < len(wire) && wire[i]&0x80 != 0 {
			i++
		}
		if i >= len(wire) {
			return nil
		}
		wire = wire[i+1:]
	}
	return wire
}

// representationOf classifies the leading byte of an encoded field.
func representationOf(b byte) models.Representation {
	switch {
	case b&0x80 != 0:
		return models.RepresentationIndexed
	case b&0xC0 == 0x40:
		return models.RepresentationLiteralIncremental
	case b&0xF0 == 0x10:
		return models.RepresentationLiteralNeverIndexed
	case b&0xF0 == 0x00:
		return models.RepresentationLiteralNoIndex
	}
	return models.RepresentationUnknown
}

// sessions generates the stable per-session values. Tokens are built
// through the codec so simulated values match what the forwarding
// services actually put on the wire.
func (g *Generator) sessions() ([]*session, error) {
	out := make([]*session, 0, g.cfg.Sessions)
	for i := 0; i < g.cfg.Sessions; i++ {
		sid, err := uuid.NewRandomFromReader(g.rng)
		if err != nil {
			return nil, fmt.Errorf("simulate: session id: %w", err)
		}

		payload := payloadJSON(sid.String(), i)
		signature := g.signature()

		token, err := jwtcodec.Reassemble(&jwtcodec.Components{
			Payload:   payload,
			Signature: signature,
		})
		if err != nil {
			return nil, fmt.Errorf("simulate: build token: %w", err)
		}

		out = append(out, &session{
			payload:   payload,
			signature: signature,
			token:     token,
		})
	}
	return out, nil
}

// payloadJSON renders a realistic claims payload for one session.
func payloadJSON(sessionID string, n int) string {
	return fmt.Sprintf(`{"session_id":"%s","user_id":"user_%020d","email":"user%d@example.com","name":"Load Test User","roles":["admin","user","viewer"],"permissions":["read","write","delete"],"organization_id":"org_%020d","tenant_id":"tenant_abc123","iat":1701734400,"exp":1701738000,"nbf":1701734400,"iss":"https://auth.example.com","aud":"https://api.example.com","custom_claims":{"department":"engineering","team":"platform","level":"senior"}}`,
		sessionID, n, n, n)
}

// signature generates a random base64url signature of production size.
func (g *Generator) signature() string {
	raw := make([]byte, signatureBytes)
	g.rng.Read(raw)
	return base64.RawURLEncoding.EncodeToString(raw)
}
