package store

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"ratchetd/internal/domain"
	"ratchetd/internal/util/memzero"
)

const (
	identityFile = "identity.sealed"

	// Current version of the sealed blob format on disk.
	keystoreFormatVersion = 1
)

var (
	// ErrNoIdentity indicates no identity has been generated yet.
	ErrNoIdentity = errors.New("no identity found; run keygen first")

	// errWrongPassphrase covers both a bad passphrase and a tampered blob;
	// the AEAD cannot tell them apart.
	errWrongPassphrase = errors.New("wrong passphrase or corrupted identity")
)

// identityRecord is the plaintext form sealed inside the blob. Explicit byte
// slices keep the encoding independent of the in-memory key array types.
type identityRecord struct {
	Private []byte `cbor:"private"`
	Public  []byte `cbor:"public"`
}

// blob is the on-disk CBOR structure holding the ciphertext and KDF
// parameters.
type blob struct {
	V      int    `cbor:"v"`
	Salt   []byte `cbor:"salt"`
	N      int    `cbor:"scrypt_n"`
	R      int    `cbor:"scrypt_r"`
	P      int    `cbor:"scrypt_p"`
	Cipher []byte `cbor:"cipher"`
}

// Keystore persists the sealed identity under a directory.
type Keystore struct {
	dir string
	mu  sync.Mutex
}

// NewKeystore returns a Keystore rooted at dir.
func NewKeystore(dir string) *Keystore { return &Keystore{dir: dir} }

// SaveIdentity seals id under passphrase and writes it atomically.
func (s *Keystore) SaveIdentity(passphrase string, id domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := cbor.Marshal(identityRecord{
		Private: id.Private.Slice(),
		Public:  id.Public.Slice(),
	})
	if err != nil {
		return err
	}
	defer memzero.Zero(raw)

	N, r, p := scryptParamsDefault()
	sealed, err := seal(passphrase, raw, N, r, p)
	if err != nil {
		return err
	}
	return writeFileAtomic(filepath.Join(s.dir, identityFile), sealed, 0o600)
}

// LoadIdentity reads and unseals the stored identity.
func (s *Keystore) LoadIdentity(passphrase string) (domain.Identity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sealed, err := os.ReadFile(filepath.Join(s.dir, identityFile))
	if errors.Is(err, os.ErrNotExist) {
		return domain.Identity{}, ErrNoIdentity
	}
	if err != nil {
		return domain.Identity{}, err
	}
	raw, err := unseal(passphrase, sealed)
	if err != nil {
		return domain.Identity{}, err
	}
	defer memzero.Zero(raw)

	var rec identityRecord
	if err := cbor.Unmarshal(raw, &rec); err != nil {
		return domain.Identity{}, err
	}
	if len(rec.Private) != 32 || len(rec.Public) != 32 {
		return domain.Identity{}, errWrongPassphrase
	}
	id := domain.Identity{
		Private: domain.MustX25519Private(rec.Private),
		Public:  domain.MustX25519Public(rec.Public),
	}
	memzero.Zero(rec.Private)
	return id, nil
}

// Exists reports whether an identity file is present.
func (s *Keystore) Exists() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := os.Stat(filepath.Join(s.dir, identityFile))
	return err == nil
}

// seal derives a key from passphrase and wraps raw in an AEAD-sealed blob.
func seal(passphrase string, raw []byte, N, r, p int) ([]byte, error) {
	var salt [16]byte
	if _, err := rand.Read(salt[:]); err != nil {
		return nil, err
	}
	key, err := scrypt.Key([]byte(passphrase), salt[:], N, r, p, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; salt-bound key guarantees uniqueness
	ct := aead.Seal(nil, nonce[:], raw, salt[:])

	return cbor.Marshal(blob{
		V:      keystoreFormatVersion,
		Salt:   salt[:],
		N:      N,
		R:      r,
		P:      p,
		Cipher: ct,
	})
}

// unseal opens a blob using a key derived from passphrase.
func unseal(passphrase string, sealed []byte) ([]byte, error) {
	var bl blob
	if err := cbor.Unmarshal(sealed, &bl); err != nil {
		return nil, err
	}
	if bl.V > keystoreFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", bl.V)
	}

	key, err := scrypt.Key([]byte(passphrase), bl.Salt, bl.N, bl.R, bl.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, err
	}
	defer memzero.Zero(key)

	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	raw, err := aead.Open(nil, nonce[:], bl.Cipher, bl.Salt)
	if err != nil {
		return nil, errWrongPassphrase
	}
	return raw, nil
}

// writeFileAtomic writes bytes via a temp file, then atomically replaces the
// target.
func writeFileAtomic(path string, b []byte, mode os.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	f, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()

	// Best-effort cleanup if anything fails before rename.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

// Tunables for scrypt key derivation.
func scryptParamsDefault() (N, r, p int) { return 1 << 15, 8, 1 }

// Compile-time assertion that Keystore implements domain.IdentityStore.
var _ domain.IdentityStore = (*Keystore)(nil)
