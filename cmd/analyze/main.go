package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"time"

	"CoeffRisk/internal/di"
	"CoeffRisk/internal/domain/models"
	"CoeffRisk/internal/handler/api"
	"CoeffRisk/internal/usecase"
	"CoeffRisk/pkg/config"
	"CoeffRisk/pkg/metrics"
)

func main() {
	configPath := flag.String("config", "", "config file path (defaults plus environment when empty)")
	benchmark := flag.String("benchmark", "", "benchmark ticker, overrides config")
	timeout := flag.Duration("timeout", time.Minute, "overall deadline")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] TICKER:WEIGHT...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if err := run(*configPath, *benchmark, *timeout, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		os.Exit(1)
	}
}

func run(configPath, benchmark string, timeout time.Duration, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.Log.Output = "stderr"

	holdings, err := parseHoldings(args, cfg.Risk.MaxAssets)
	if err != nil {
		return err
	}

	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	c, err := di.ProvideCache(cfg)
	if err != nil {
		return err
	}
	defer c.Close()
	ch, err := di.ProvideClickHouseClient(cfg)
	if err != nil {
		return err
	}
	if ch != nil {
		defer ch.Close()
	}
	source, err := di.ProvidePriceSource(cfg, ch, c, l)
	if err != nil {
		return err
	}

	analysis := usecase.NewPortfolioAnalysis(source, di.ProvideRiskEngine(cfg), metrics.Nop{}, l,
		usecase.WithLimits(cfg.Risk.Benchmark, cfg.Risk.MaxAssets),
		usecase.WithSingleFlight(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	res, err := analysis.Run(ctx, models.AnalysisRequest{Holdings: holdings, Benchmark: benchmark})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewAnalysisResultDTO(res))
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadWithEnv(path)
	}
	cfg, err := config.Default()
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// parseHoldings reads TICKER:WEIGHT arguments through the same edit rules
// the API applies.
func parseHoldings(args []string, maxAssets int) ([]models.AssetHolding, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no holdings given")
	}
	var hs []models.AssetHolding
	for _, a := range args {
		ticker, w, ok := strings.Cut(a, ":")
		if !ok {
			return nil, fmt.Errorf("holding %q: want TICKER:WEIGHT", a)
		}
		weight, err := strconv.ParseFloat(w, 64)
		if err != nil {
			return nil, fmt.Errorf("holding %q: %w", a, err)
		}
		if hs, err = usecase.AddHolding(hs, models.AssetHolding{Ticker: ticker, Weight: weight}, maxAssets); err != nil {
			return nil, err
		}
	}
	normalized, _, err := usecase.NormalizeHoldings(hs, maxAssets)
	return normalized, err
}
