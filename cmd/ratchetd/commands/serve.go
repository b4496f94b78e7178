package commands

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ratchetd/internal/app"
	"ratchetd/internal/store"
	"ratchetd/internal/transport"
)

// serve: run the NATS bridge and the idle-session sweeper until interrupted.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the encrypted messaging bridge",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}

			identity, err := store.NewKeystore(cfg.Home).LoadIdentity(passphrase)
			if err != nil {
				return err
			}
			wire := app.NewWire(cfg, identity, logger)

			bridge, err := transport.Dial(transport.Config{
				URL:             cfg.NATS.URL,
				SubjectPrefix:   cfg.NATS.SubjectPrefix,
				CredentialsFile: cfg.NATS.CredentialsFile,
				ReconnectWait:   time.Duration(cfg.NATS.ReconnectWaitMS) * time.Millisecond,
				MaxReconnects:   cfg.NATS.MaxReconnects,
			}, wire.Service, logger)
			if err != nil {
				return err
			}
			defer bridge.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			go wire.Sweeper.Run(ctx)

			logger.Info().Str("url", cfg.NATS.URL).Msg("ratchetd serving")
			if err := bridge.Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("shutdown complete")
			return nil
		},
	}
}
