package domain_test

import (
	"bytes"
	"testing"

	"ratchetd/internal/domain"
)

func sampleState() *domain.SessionState {
	return &domain.SessionState{
		Agent:   "agent-1",
		RootKey: []byte{1, 2, 3, 4},
		Send:    domain.ChainState{Key: []byte{5, 6}, Index: 3},
		Recv:    domain.ChainState{Key: []byte{7, 8}, Index: 1},
		RemoteGenerations: map[domain.X25519Public]uint32{
			{0xAA}: 2,
		},
	}
}

func TestCloneIsDeep(t *testing.T) {
	st := sampleState()
	c := st.Clone()

	c.RootKey[0] = 0xFF
	c.Send.Key[0] = 0xFF
	c.RemoteGenerations[domain.X25519Public{0xBB}] = 9

	if st.RootKey[0] == 0xFF || st.Send.Key[0] == 0xFF {
		t.Fatal("clone shares key buffers with the original")
	}
	if len(st.RemoteGenerations) != 1 {
		t.Fatal("clone shares the generation map")
	}
}

func TestZeroWipesSecrets(t *testing.T) {
	st := sampleState()
	st.DHPriv[0] = 0x42
	st.Zero()

	if st.RootKey != nil || st.Send.Key != nil || st.Recv.Key != nil {
		t.Fatal("key buffers survived Zero")
	}
	if st.DHPriv != (domain.X25519Private{}) {
		t.Fatal("private key survived Zero")
	}
}

func TestReplaceWithWipesOldBuffers(t *testing.T) {
	st := sampleState()
	oldRoot := st.RootKey
	oldSend := st.Send.Key

	c := st.Clone()
	c.Recv.Index = 7
	st.ReplaceWith(c)

	if !bytes.Equal(oldRoot, []byte{0, 0, 0, 0}) || !bytes.Equal(oldSend, []byte{0, 0}) {
		t.Fatal("replaced buffers not wiped")
	}
	if st.Recv.Index != 7 {
		t.Fatal("replacement contents not installed")
	}
}

func TestMessageKeyZero(t *testing.T) {
	mk := domain.MessageKey{Key: []byte{1, 2}, NonceSeed: []byte{3, 4}}
	key := mk.Key
	mk.Zero()
	if mk.Key != nil || mk.NonceSeed != nil {
		t.Fatal("buffers survived Zero")
	}
	if key[0] != 0 || key[1] != 0 {
		t.Fatal("key bytes not wiped")
	}
}
