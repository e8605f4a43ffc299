package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"CoeffRisk/internal/domain/models"
	domrepo "CoeffRisk/internal/domain/repository"
	domsvc "CoeffRisk/internal/domain/service"
	"CoeffRisk/internal/services/risk"
	"CoeffRisk/pkg/logger"
	"CoeffRisk/pkg/util"
)

// ErrBusy is returned by a single-flight analysis while a run is in progress.
var ErrBusy = errors.New("analysis already running")

// PortfolioAnalysis fetches every series a run needs and hands the snapshot
// to the risk engine.
type PortfolioAnalysis struct {
	source    domrepo.PriceSource
	engine    domsvc.RiskEngine
	metrics   domrepo.Metrics
	publisher domrepo.ResultPublisher
	log       *logger.Logger

	benchmark string
	maxAssets int

	singleFlight bool
	running      atomic.Bool
}

type AnalysisOption func(*PortfolioAnalysis)

// WithPublisher emits every completed result through p.
func WithPublisher(p domrepo.ResultPublisher) AnalysisOption {
	return func(a *PortfolioAnalysis) { a.publisher = p }
}

// WithSingleFlight rejects a run while another one is in progress.
func WithSingleFlight() AnalysisOption {
	return func(a *PortfolioAnalysis) { a.singleFlight = true }
}

// WithLimits sets the default benchmark and the holdings cap checked before
// any fetch.
func WithLimits(benchmark string, maxAssets int) AnalysisOption {
	return func(a *PortfolioAnalysis) {
		if benchmark != "" {
			a.benchmark = util.NormalizeTicker(benchmark)
		}
		if maxAssets > 0 {
			a.maxAssets = maxAssets
		}
	}
}

func NewPortfolioAnalysis(source domrepo.PriceSource, engine domsvc.RiskEngine, metrics domrepo.Metrics, log *logger.Logger, opts ...AnalysisOption) *PortfolioAnalysis {
	if log == nil {
		log = logger.Nop()
	}
	a := &PortfolioAnalysis{
		source:    source,
		engine:    engine,
		metrics:   metrics,
		log:       log.With("analysis"),
		benchmark: "SPY",
		maxAssets: risk.DefaultParams().MaxAssets,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run executes one analysis. Holdings are validated before any fetch; a
// failed fetch aborts the whole run.
func (a *PortfolioAnalysis) Run(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	if a.singleFlight {
		if !a.running.CompareAndSwap(false, true) {
			return nil, ErrBusy
		}
		defer a.running.Store(false)
	}

	start := time.Now()
	res, err := a.run(ctx, req)
	a.metrics.RecordLatency("analysis_seconds", time.Since(start).Seconds())
	if err != nil {
		a.metrics.RecordAnalysis("error")
		a.metrics.RecordError(ErrorKind(err))
		a.log.Warn("analysis failed",
			logger.String("request_id", req.RequestID),
			logger.Error(err),
		)
		return nil, err
	}

	a.metrics.RecordAnalysis("ok")
	a.metrics.RecordFragility(res.Benchmark, res.FragilityScore)
	a.log.Info("analysis complete",
		logger.String("request_id", req.RequestID),
		logger.Strings("tickers", res.Tickers),
		logger.String("benchmark", res.Benchmark),
		logger.Int("fragility", res.FragilityScore),
		logger.Float64("beta", res.Beta),
		logger.Int("common_days", res.CommonDays),
		logger.Bool("synthetic", res.Synthetic()),
		logger.Duration("took", time.Since(start)),
	)

	if a.publisher != nil {
		if err := a.publisher.PublishResult(ctx, req.RequestID, res); err != nil {
			a.metrics.RecordError("publish")
			a.log.Error("publish result failed", logger.String("request_id", req.RequestID), logger.Error(err))
		}
	}
	return res, nil
}

func (a *PortfolioAnalysis) run(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error) {
	holdings, err := risk.ValidateHoldings(req.Holdings, a.maxAssets)
	if err != nil {
		return nil, err
	}
	benchmark := util.NormalizeTicker(req.Benchmark)
	if benchmark == "" {
		benchmark = a.benchmark
	}

	tickers := distinctTickers(holdings, benchmark)
	payloads, err := a.fetchAll(ctx, tickers)
	if err != nil {
		return nil, err
	}

	for t, p := range payloads {
		if p.Meta != nil && p.Meta.IsSynthetic {
			a.metrics.RecordSynthetic(t)
		}
	}

	return a.engine.Analyze(models.AnalysisInput{
		Holdings:  holdings,
		Benchmark: benchmark,
		Payloads:  payloads,
	})
}

// fetchAll issues one fetch per ticker concurrently and waits for all of
// them before returning.
func (a *PortfolioAnalysis) fetchAll(ctx context.Context, tickers []string) (map[string]models.Payload, error) {
	var mu sync.Mutex
	payloads := make(map[string]models.Payload, len(tickers))

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tickers {
		g.Go(func() error {
			start := time.Now()
			p, err := a.source.Fetch(gctx, t)
			a.metrics.RecordLatency("fetch_seconds", time.Since(start).Seconds())
			if err != nil {
				a.log.Debug("fetch failed", logger.String("ticker", t), logger.Error(err))
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if errors.Is(err, risk.ErrDataUnavailable) {
					return err
				}
				return &risk.DataUnavailableError{Ticker: t, Err: err}
			}
			mu.Lock()
			payloads[t] = p
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return payloads, nil
}

func distinctTickers(holdings []models.AssetHolding, benchmark string) []string {
	seen := make(map[string]struct{}, len(holdings)+1)
	out := make([]string, 0, len(holdings)+1)
	for _, h := range holdings {
		if _, ok := seen[h.Ticker]; ok {
			continue
		}
		seen[h.Ticker] = struct{}{}
		out = append(out, h.Ticker)
	}
	if _, ok := seen[benchmark]; !ok {
		out = append(out, benchmark)
	}
	return out
}

// ErrorKind maps a run failure onto a short metrics label.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, risk.ErrDataUnavailable):
		return "data_unavailable"
	case errors.Is(err, risk.ErrInsufficientOverlap):
		return "insufficient_overlap"
	case errors.Is(err, risk.ErrDegenerateVolatility):
		return "degenerate_volatility"
	case errors.Is(err, risk.ErrWeightOverflow):
		return "weight_overflow"
	case errors.Is(err, risk.ErrTooManyAssets):
		return "too_many_assets"
	case errors.Is(err, risk.ErrInvalidHolding):
		return "invalid_holding"
	case errors.Is(err, ErrBusy):
		return "busy"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
