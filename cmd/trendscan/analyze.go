package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/schundi365/IndianTradingbot-sub002/config"
	"github.com/schundi365/IndianTradingbot-sub002/internal/analysis"
	"github.com/schundi365/IndianTradingbot-sub002/internal/engine"
	"github.com/schundi365/IndianTradingbot-sub002/internal/marketdata"
)

func analyzeCmd(configPath *string) *cobra.Command {
	var (
		dataDir   string
		symbol    string
		timeframe string
		bars      int
		direction string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Run a trend analysis cycle over a symbol's candle file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := setupLogger(cfg.LoggingConfig)
			if err != nil {
				return fmt.Errorf("setup logger: %w", err)
			}

			eng, provider, err := buildEngine(cfg, dataDir, logger)
			if err != nil {
				return err
			}

			s, err := provider.GetHistoricalSeries(cmd.Context(), symbol, timeframe, bars)
			if err != nil {
				return fmt.Errorf("load series for %s %s: %w", symbol, timeframe, err)
			}

			result, err := eng.Analyze(cmd.Context(), s)
			if err != nil {
				return fmt.Errorf("analyze %s: %w", symbol, err)
			}
			log.Info().
				Str("engine_id", eng.ID()).
				Str("symbol", symbol).
				Str("direction", string(result.Direction)).
				Float64("confidence", result.OverallConfidence).
				Msg("trend analysis finished")

			if direction != "" {
				proposed, err := parseDirection(direction)
				if err != nil {
					return err
				}
				ok, confidence, err := eng.ShouldTradeTrend(cmd.Context(), s, proposed)
				if err != nil {
					return fmt.Errorf("trade gate for %s: %w", symbol, err)
				}
				log.Info().
					Str("symbol", symbol).
					Str("proposed", string(proposed)).
					Bool("confirmed", ok).
					Float64("confidence", confidence).
					Msg("trade gate evaluated")
			}

			out, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("encode result: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "data", "directory with <SYMBOL>_<TIMEFRAME>.csv candle files")
	cmd.Flags().StringVar(&symbol, "symbol", "BTCUSDT", "symbol to analyze")
	cmd.Flags().StringVar(&timeframe, "timeframe", "1h", "primary timeframe")
	cmd.Flags().IntVar(&bars, "bars", 200, "number of bars to load")
	cmd.Flags().StringVar(&direction, "direction", "", "optional proposed trade direction: buy|sell")
	return cmd
}

func buildEngine(cfg *config.Config, dataDir string, logger zerolog.Logger) (*engine.Engine, marketdata.SeriesProvider, error) {
	momentum, err := analysis.NewMomentumAnalyzer(cfg.MomentumConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("momentum analyzer: %w", err)
	}
	rangeDir, err := analysis.NewRangeDirectionAnalyzer(cfg.RangeDirectionConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("range direction analyzer: %w", err)
	}
	structure, err := analysis.NewStructureBreakAnalyzer(cfg.StructureConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("structure break analyzer: %w", err)
	}
	divergence, err := analysis.NewDivergenceAnalyzer(cfg.DivergenceConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("divergence analyzer: %w", err)
	}
	timeframe, err := analysis.NewTimeframeAlignmentAnalyzer(cfg.TimeframeConfig, momentum, structure)
	if err != nil {
		return nil, nil, fmt.Errorf("timeframe analyzer: %w", err)
	}

	provider, err := marketdata.NewCSVProvider(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("csv provider: %w", err)
	}

	sources := []analysis.SignalSource{momentum, rangeDir, structure, divergence}
	eng, err := engine.New(cfg.EngineConfig, sources, timeframe, provider, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("engine: %w", err)
	}
	return eng, provider, nil
}

func parseDirection(s string) (analysis.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "long", "bullish":
		return analysis.DirectionBullish, nil
	case "sell", "short", "bearish":
		return analysis.DirectionBearish, nil
	default:
		return analysis.DirectionNeutral, fmt.Errorf("unknown direction %q (want buy or sell)", s)
	}
}
