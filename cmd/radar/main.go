package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kalshiradar/radar/internal/config"
	httpserver "github.com/kalshiradar/radar/internal/interfaces/http"
	"github.com/kalshiradar/radar/internal/kalshi"
	"github.com/kalshiradar/radar/internal/radar"
)

const (
	appName = "Kalshi Radar API"
	version = "3.0.0"
)

var (
	flagConfig  string
	flagPort    int
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Read-only inefficiency radar over Kalshi prediction markets",
	Long: `Kalshi Radar fetches series and market data from the Kalshi trading API,
scores each market's pricing inefficiency from its spread, open interest and
recent volume, and serves the ranked results over a small JSON API.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s\n", appName, version)
		fmt.Println("Use 'radar serve' to start the HTTP API")
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE:  runServe,
}

// serveFlags binds the serve command's flags onto a pflag set.
func serveFlags(fs *pflag.FlagSet) {
	fs.StringVar(&flagConfig, "config", "", "Path to YAML config file (optional)")
	fs.IntVar(&flagPort, "port", 0, "Listening port (overrides config and PORT)")
	fs.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveFlags(serveCmd.Flags())
}

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	if flagVerbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	logger := log.Logger

	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagPort != 0 {
		cfg.Server.Port = flagPort
	}

	auth, err := buildAuth(cfg.Kalshi)
	if err != nil {
		return err
	}

	client := kalshi.NewClient(cfg.Kalshi.ClientConfig(), auth, logger)
	aggregator := radar.NewAggregator(client, cfg.Caps, logger)

	server, err := httpserver.NewServer(httpserver.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeoutSec) * time.Second,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeoutSec) * time.Second,
	}, aggregator, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info().Str("service", appName).Str("version", version).Msg("ready")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildAuth selects the auth strategy from the configured credentials: a
// present private key means signed headers, otherwise session login.
func buildAuth(cfg config.KalshiConfig) (kalshi.Auth, error) {
	if cfg.SignatureAuth() {
		return kalshi.NewSignatureAuth(cfg.APIKeyID, cfg.PrivateKeyPEM)
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = kalshi.DefaultBaseURL
	}
	return kalshi.NewSessionAuth(baseURL, cfg.Email, cfg.Password, nil), nil
}
