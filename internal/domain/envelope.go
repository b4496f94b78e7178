package domain

// RatchetHeader is sent in the clear alongside every ciphertext. It carries
// only public material: the sender's current ratchet public key and the two
// counters the receiver needs for skipped-key bookkeeping.
type RatchetHeader struct {
	DHPublicKey     []byte `json:"dh_public_key"`
	PreviousCounter uint32 `json:"previous_counter"`
	MessageCounter  uint32 `json:"message_counter"`
}

// Envelope is the wire form of an encrypted message.
type Envelope struct {
	Encrypted  bool          `json:"encrypted"`
	Ciphertext []byte        `json:"ciphertext"`
	IV         []byte        `json:"iv"` // 12 random bytes
	Header     RatchetHeader `json:"ratchet_header"`
}

// Message is the tagged variant resolved at the transport boundary: either an
// encrypted envelope or a legacy plaintext payload, never both.
type Message struct {
	Envelope  *Envelope
	Plaintext []byte
}

// IsEncrypted reports whether the message carries an envelope.
func (m Message) IsEncrypted() bool { return m.Envelope != nil }
