package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/roomtin/hyprconnect/config"
)

var version = "dev"

type flags struct {
	configPath string
	socketPath string
	logLevel   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	root := &cobra.Command{
		Use:           "hyprconnectd",
		Short:         "KDE Connect companion daemon for Hyprland",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.LoadDotEnv(); err != nil {
				log.Warn().Err(err).Msg("failed to load .env")
			}

			path := f.configPath
			if path == "" {
				path = config.DefaultPath()
			}
			cfg, err := config.Load(path)
			if err != nil {
				log.Error().Err(err).Msg("failed to load configuration")
				return err
			}
			if f.socketPath != "" {
				cfg.SocketPath = f.socketPath
			}
			if f.logLevel != "" {
				cfg.Log.Level = f.logLevel
			}
			setupLogger(cfg.Log)

			if err := run(cmd.Context(), cfg); err != nil {
				log.Error().Err(err).Msg("daemon stopped with error")
				return err
			}
			return nil
		},
	}

	root.Flags().StringVar(&f.configPath, "config", "", "path to config.yaml")
	root.Flags().StringVar(&f.socketPath, "socket", "", "IPC socket path")
	root.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the daemon version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	})

	return root
}

func setupLogger(cfg config.LogConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Format == "json" {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}
