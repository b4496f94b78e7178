package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratchetd/internal/app"
	"ratchetd/internal/codec"
	"ratchetd/internal/crypto"
	"ratchetd/internal/domain"
)

// ping: drive an in-process agent through a full round trip against the
// service: establish, encrypt, decode at the wire boundary, decrypt, and
// back. No broker needed; useful as a post-install self-test.
func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Run an in-process encrypt/decrypt self-test",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			priv, pub, err := crypto.GenerateKeyPair()
			if err != nil {
				return err
			}
			serverIdentity := domain.Identity{Private: priv, Public: pub}
			server := app.NewWire(cfg, serverIdentity, logger).Service
			agent := app.NewWire(cfg, domain.Identity{}, logger).Service

			const (
				agentID = domain.AgentID("ping-agent")
				peerID  = domain.AgentID("ratchetd")
			)
			if _, err := agent.EstablishSession(ctx, peerID, serverIdentity.Public); err != nil {
				return err
			}

			request := []byte(`{"jsonrpc":"2.0","method":"ping","id":1}`)
			out, err := agent.EncryptMessage(ctx, peerID, request)
			if err != nil {
				return err
			}
			wire, err := codec.Encode(out)
			if err != nil {
				return err
			}
			in, err := codec.Decode(wire)
			if err != nil {
				return err
			}
			got, err := server.DecryptMessage(ctx, agentID, in)
			if err != nil {
				return err
			}
			if string(got) != string(request) {
				return fmt.Errorf("round trip mismatch: %q", got)
			}

			// And the reply direction, exercising the responder's first send.
			reply := []byte(`{"jsonrpc":"2.0","result":"pong","id":1}`)
			out, err = server.EncryptMessage(ctx, agentID, reply)
			if err != nil {
				return err
			}
			wire, err = codec.Encode(out)
			if err != nil {
				return err
			}
			in, err = codec.Decode(wire)
			if err != nil {
				return err
			}
			got, err = agent.DecryptMessage(ctx, peerID, in)
			if err != nil {
				return err
			}
			if string(got) != string(reply) {
				return fmt.Errorf("reply round trip mismatch: %q", got)
			}

			fmt.Println("ok")
			return nil
		},
	}
}
