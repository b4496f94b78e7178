package codec

import (
	"bytes"
	"encoding/json"
	"fmt"

	"ratchetd/internal/domain"
)

// marker mirrors only the field that distinguishes an encrypted envelope
// from a legacy payload.
type marker struct {
	Encrypted bool `json:"encrypted"`
}

// Decode resolves raw transport bytes into the tagged message variant.
//
// Anything that is not a JSON object carrying `"encrypted": true` is a
// legacy plaintext payload and passes through byte-for-byte; a payload that
// does carry the marker must parse as a complete envelope.
func Decode(raw []byte) (domain.Message, error) {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return domain.Message{Plaintext: raw}, nil
	}
	var m marker
	if err := json.Unmarshal(trimmed, &m); err != nil || !m.Encrypted {
		return domain.Message{Plaintext: raw}, nil
	}
	var env domain.Envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return domain.Message{}, fmt.Errorf("malformed envelope: %w", err)
	}
	return domain.Message{Envelope: &env}, nil
}

// Encode serialises a message for the transport: envelopes as JSON, legacy
// plaintext unchanged.
func Encode(msg domain.Message) ([]byte, error) {
	if msg.Envelope == nil {
		return msg.Plaintext, nil
	}
	return json.Marshal(msg.Envelope)
}
