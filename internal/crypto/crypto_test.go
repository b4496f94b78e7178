package crypto_test

import (
	"bytes"
	"errors"
	"testing"

	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
)

func TestSharedSecretIsSymmetric(t *testing.T) {
	aPriv, aPub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	bPriv, bPub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}

	ab, err := crypto.SharedSecret(aPriv, bPub)
	if err != nil {
		t.Fatalf("SharedSecret: %v", err)
	}
	ba, err := crypto.SharedSecret(bPriv, aPub)
	if err != nil {
		t.Fatalf("SharedSecret: %v", err)
	}
	if ab != ba {
		t.Fatal("DH is not symmetric")
	}
}

func TestSharedSecretRejectsLowOrderPoint(t *testing.T) {
	priv, _, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	var zero domain.X25519Public
	if _, err := crypto.SharedSecret(priv, zero); !errors.Is(err, domain.ErrInvalidKey) {
		t.Fatalf("want ErrInvalidKey, got %v", err)
	}
}

func TestPublicKeyFromWire(t *testing.T) {
	_, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	got, err := crypto.PublicKeyFromWire(pub.Slice())
	if err != nil {
		t.Fatalf("PublicKeyFromWire: %v", err)
	}
	if got != pub {
		t.Fatal("round trip changed the key")
	}

	for _, n := range []int{0, 16, 31, 33} {
		if _, err := crypto.PublicKeyFromWire(make([]byte, n)); !errors.Is(err, domain.ErrInvalidKey) {
			t.Fatalf("length %d: want ErrInvalidKey, got %v", n, err)
		}
	}
}

func TestKDFDeterministicAndLabelSeparated(t *testing.T) {
	key := bytes.Repeat([]byte{0x5A}, 32)

	a := crypto.KDF(key, "label-one", 32)
	b := crypto.KDF(key, "label-one", 32)
	if !bytes.Equal(a, b) {
		t.Fatal("KDF is not deterministic")
	}
	c := crypto.KDF(key, "label-two", 32)
	if bytes.Equal(a, c) {
		t.Fatal("different labels derived the same output")
	}
	if len(crypto.KDF(key, "label-one", 44)) != 44 {
		t.Fatal("wrong output length")
	}
}

func TestMixKDFDependsOnBothInputs(t *testing.T) {
	chain := bytes.Repeat([]byte{0x01}, 32)
	secret := bytes.Repeat([]byte{0x02}, 32)

	base := crypto.MixKDF(chain, secret, "mix", 64)
	if !bytes.Equal(base, crypto.MixKDF(chain, secret, "mix", 64)) {
		t.Fatal("MixKDF is not deterministic")
	}

	otherChain := bytes.Repeat([]byte{0x03}, 32)
	if bytes.Equal(base, crypto.MixKDF(otherChain, secret, "mix", 64)) {
		t.Fatal("chaining key ignored")
	}
	otherSecret := bytes.Repeat([]byte{0x04}, 32)
	if bytes.Equal(base, crypto.MixKDF(chain, otherSecret, "mix", 64)) {
		t.Fatal("secret ignored")
	}
}

func TestFingerprintStable(t *testing.T) {
	_, pub, err := crypto.GenerateKeyPair()
	if err != nil {
		t.Fatalf("GenerateKeyPair: %v", err)
	}
	fp := crypto.Fingerprint(pub.Slice())
	if fp != crypto.Fingerprint(pub.Slice()) {
		t.Fatal("fingerprint not stable")
	}
	if len(fp) != 20 {
		t.Fatalf("fingerprint length %d, want 20 hex chars", len(fp))
	}
}

func TestB64RoundTrip(t *testing.T) {
	in := []byte{0, 1, 2, 0xFF, 0x7F}
	out, err := crypto.FromB64(crypto.B64(in))
	if err != nil {
		t.Fatalf("FromB64: %v", err)
	}
	if !bytes.Equal(in, out) {
		t.Fatalf("got %v", out)
	}
}
