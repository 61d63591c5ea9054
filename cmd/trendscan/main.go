package main

import (
	"context"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/schundi365/IndianTradingbot-sub002/config"
)

func main() {
	// Optional .env for TREND_* overrides; absence is fine.
	_ = godotenv.Load()

	ctx := context.Background()
	if err := run(ctx); err != nil {
		log.Error().Err(err).Msg("trendscan failed")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var configPath string

	root := &cobra.Command{
		Use:   "trendscan",
		Short: "Offline multi-signal trend confirmation over candle CSV files",
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.json", "path to JSON config file")

	root.AddCommand(analyzeCmd(&configPath))

	return root.ExecuteContext(ctx)
}

// setupLogger configures the process logger from the logging section.
func setupLogger(cfg config.LoggingConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out *os.File
	switch cfg.Output {
	case "", "stdout":
		out = os.Stdout
	case "stderr":
		out = os.Stderr
	default:
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, err
		}
		out = f
	}

	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(out).With().Timestamp().Logger()
	}
	return logger.Level(level), nil
}
