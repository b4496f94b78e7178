package commands

import (
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ratchetd/internal/app"
)

var (
	cfgPath    string
	home       string
	passphrase string

	cfg    *app.Config
	logger zerolog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:   "ratchetd",
		Short: "Encrypted session-messaging service for remote agents",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = app.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			if home != "" {
				cfg.Home = home
			}
			if cfg.Home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfg.Home = filepath.Join(dir, ".ratchetd")
			}
			if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
				return err
			}

			level, err := zerolog.ParseLevel(cfg.Log.Level)
			if err != nil {
				level = zerolog.InfoLevel
			}
			zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
			logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(level).
				With().Timestamp().Logger()
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&home, "home", "", "keystore dir (default ~/.ratchetd)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the identity keystore")

	root.AddCommand(keygenCmd(), fingerprintCmd(), serveCmd(), pingCmd())
	return root.Execute()
}
