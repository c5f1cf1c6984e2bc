package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/party-relay/internal/app"
	"github.com/vovakirdan/party-relay/internal/config"
	"github.com/vovakirdan/party-relay/internal/log"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var (
		configPath string
		host       string
		port       int
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "party-relay",
		Short: "WebSocket relay for small multiplayer party rooms",
		Long: `party-relay groups WebSocket clients into rooms, elects the earliest
joiner as host and relays input and snapshot messages between peers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var overrides config.Overrides
			flags := cmd.Flags()
			if flags.Changed("host") {
				overrides.Host = &host
			}
			if flags.Changed("port") {
				overrides.Port = &port
			}
			if flags.Changed("log-level") {
				overrides.LogLevel = &logLevel
			}
			if flags.Changed("log-format") {
				overrides.LogFormat = &logFormat
			}
			return run(cmd.Context(), configPath, overrides)
		},
	}

	defaults := config.Default()
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")
	cmd.Flags().StringVar(&host, "host", defaults.Host, "listen host")
	cmd.Flags().IntVarP(&port, "port", "p", defaults.Port, "listen port")
	cmd.Flags().StringVar(&logLevel, "log-level", defaults.LogLevel, "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", defaults.LogFormat, "log format (console or json)")

	cmd.AddCommand(versionCmd())
	return cmd
}

func run(parent context.Context, configPath string, overrides config.Overrides) error {
	if parent == nil {
		parent = context.Background()
	}
	bootstrapLogger := log.New("info", "console")

	cfg, resolvedPath, err := config.Load(bootstrapLogger, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Apply(overrides)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel, cfg.LogFormat)
	logger.Info().
		Str("config_path", resolvedPath).
		Str("addr", cfg.Addr()).
		Int64("max_message_bytes", cfg.MaxMessageBytes).
		Bool("metrics", cfg.MetricsEnabled).
		Msg("config loaded")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func versionCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			if short {
				fmt.Fprintln(out, version)
				return
			}
			fmt.Fprintf(out, "party-relay %s\n", version)
			fmt.Fprintf(out, "  Commit:     %s\n", commit)
			fmt.Fprintf(out, "  Built:      %s\n", date)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only version number")
	return cmd
}
