package codec_test

import (
	"bytes"
	"testing"

	"ratchetd/internal/codec"
	"ratchetd/internal/domain"
)

func TestDecodeLegacyJSONRPC(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","method":"makeMove","id":7}`)
	msg, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.IsEncrypted() {
		t.Fatal("legacy payload decoded as encrypted")
	}
	if !bytes.Equal(msg.Plaintext, raw) {
		t.Fatalf("plaintext altered: %q", msg.Plaintext)
	}
}

func TestDecodeNonJSON(t *testing.T) {
	raw := []byte("PING\r\n")
	msg, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.IsEncrypted() || !bytes.Equal(msg.Plaintext, raw) {
		t.Fatalf("got %+v", msg)
	}
}

func TestDecodeExplicitlyUnencrypted(t *testing.T) {
	raw := []byte(`{"encrypted":false,"payload":"x"}`)
	msg, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.IsEncrypted() {
		t.Fatal(`"encrypted": false treated as an envelope`)
	}
}

func TestDecodeLeadingWhitespace(t *testing.T) {
	raw := []byte("\n\t {\"jsonrpc\":\"2.0\",\"method\":\"ping\"}")
	msg, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if msg.IsEncrypted() {
		t.Fatal("legacy payload decoded as encrypted")
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := domain.Envelope{
		Encrypted:  true,
		Ciphertext: []byte{0xDE, 0xAD, 0xBE, 0xEF},
		IV:         []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Header: domain.RatchetHeader{
			DHPublicKey:     bytes.Repeat([]byte{0x42}, 32),
			PreviousCounter: 3,
			MessageCounter:  17,
		},
	}

	wire, err := codec.Encode(domain.Message{Envelope: &env})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	msg, err := codec.Decode(wire)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !msg.IsEncrypted() {
		t.Fatal("envelope lost its marker")
	}
	got := msg.Envelope
	if !bytes.Equal(got.Ciphertext, env.Ciphertext) || !bytes.Equal(got.IV, env.IV) {
		t.Fatal("ciphertext or IV altered in transit")
	}
	if !bytes.Equal(got.Header.DHPublicKey, env.Header.DHPublicKey) {
		t.Fatal("header key altered in transit")
	}
	if got.Header.PreviousCounter != 3 || got.Header.MessageCounter != 17 {
		t.Fatalf("counters altered: %+v", got.Header)
	}
}

func TestEncodePlaintextPassthrough(t *testing.T) {
	raw := []byte(`{"jsonrpc":"2.0","result":"ok"}`)
	wire, err := codec.Encode(domain.Message{Plaintext: raw})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Equal(wire, raw) {
		t.Fatalf("plaintext altered: %q", wire)
	}
}

func TestDecodeMalformedEnvelope(t *testing.T) {
	raw := []byte(`{"encrypted":true,"ciphertext":12345}`)
	if _, err := codec.Decode(raw); err == nil {
		t.Fatal("malformed envelope accepted")
	}
}
