package jwtcodec

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

const testPayloadJSON = `{"session_id":"550e8400-e29b-41d4-a716-446655440000","user_id":"user_12345678901234567890","email":"user@example.com","roles":["admin","user","viewer"],"iat":1701734400,"exp":1701738000}`

const testSignature = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk2thvLuX0bZzizOfQHzJMYlE4vxWHNVnqH6hGZuOMxMDknkWMP3QNNDMqGXmFOvxyPcL4kzYz0oYXfpF_9WpadMhG"

func testToken() string {
	return HeaderSegment + "." + base64.RawURLEncoding.EncodeToString([]byte(testPayloadJSON)) + "." + testSignature
}

func TestDecompose(t *testing.T) {
	c, err := Decompose(testToken())
	if err != nil {
		t.Fatalf("Decompose: %v", err)
	}
	if c.Header != HeaderSegment {
		t.Errorf("header = %q", c.Header)
	}
	if c.Payload != testPayloadJSON {
		t.Errorf("payload not decoded to raw JSON: %q", c.Payload)
	}
	if c.Signature != testSignature {
		t.Errorf("signature changed: %q", c.Signature)
	}
}

func TestDecomposeRejectsMalformed(t *testing.T) {
	for _, token := range []string{
		"",
		"onlyonesegment",
		"two.segments",
		"a.b.c.d",
	} {
		_, err := Decompose(token)
		if !errors.Is(err, ErrMalformedToken) {
			t.Errorf("Decompose(%q) = %v, want ErrMalformedToken", token, err)
		}
	}

	// Three segments but the payload is not transport-safe encoding.
	if _, err := Decompose("a.!!not-base64!!.c"); err == nil {
		t.Error("expected error for invalid payload encoding")
	}
}

func TestReassembleRoundTrip(t *testing.T) {
	original, err := Decompose(testToken())
	if err != nil {
		t.Fatal(err)
	}

	token, err := Reassemble(original)
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if token != testToken() {
		t.Error("reassembled token differs from the original")
	}

	again, err := Decompose(token)
	if err != nil {
		t.Fatalf("Decompose after Reassemble: %v", err)
	}
	if *again != *original {
		t.Errorf("round trip changed components: %+v vs %+v", again, original)
	}
}

func TestReassembleHeaderFallback(t *testing.T) {
	token, err := Reassemble(&Components{Payload: testPayloadJSON, Signature: testSignature})
	if err != nil {
		t.Fatalf("Reassemble: %v", err)
	}
	if !strings.HasPrefix(token, HeaderSegment+".") {
		t.Error("missing header should fall back to the deployment constant")
	}
}

func TestReassembleMissingParts(t *testing.T) {
	cases := []*Components{
		nil,
		{Payload: testPayloadJSON},
		{Signature: testSignature},
	}
	for _, c := range cases {
		if _, err := Reassemble(c); !errors.Is(err, ErrMissingParts) {
			t.Errorf("Reassemble(%+v) = %v, want ErrMissingParts", c, err)
		}
	}
}

func TestBearerConvention(t *testing.T) {
	token := testToken()

	got, ok := FromBearer(ToBearer(token))
	if !ok || got != token {
		t.Errorf("bearer round trip failed: %q, %v", got, ok)
	}

	if _, ok := FromBearer(token); ok {
		t.Error("bare token should not parse as bearer")
	}
}

func TestComponentSizes(t *testing.T) {
	c := &Components{Header: HeaderSegment, Payload: testPayloadJSON, Signature: testSignature}
	sizes := ComponentSizes(c)

	if sizes["payload"] != len(testPayloadJSON) {
		t.Errorf("payload size = %d", sizes["payload"])
	}
	if sizes["total"] != len(HeaderSegment)+len(testPayloadJSON)+len(testSignature) {
		t.Errorf("total size = %d", sizes["total"])
	}
}

func BenchmarkDecompose(b *testing.B) {
	token := testToken()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = Decompose(token)
	}
}

func BenchmarkReassemble(b *testing.B) {
	c, _ := Decompose(testToken())
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Reassemble(c)
	}
}

func BenchmarkRoundTrip(b *testing.B) {
	token := testToken()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c, _ := Decompose(token)
		_, _ = Reassemble(c)
	}
}
