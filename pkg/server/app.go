package server

import (
	"context"
	"errors"
	"io"
	"time"

	domrepo "CoeffRisk/internal/domain/repository"
	pkgch "CoeffRisk/pkg/clickhouse"
	"CoeffRisk/pkg/config"
	xhttp "CoeffRisk/pkg/http"
	pkgkafka "CoeffRisk/pkg/kafka"
	applogger "CoeffRisk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	publisher  domrepo.ResultPublisher
	chClient   *pkgch.Client
	closers    []io.Closer
}

// New creates a new App. consumer, kh, publisher and chClient are optional.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	publisher domrepo.ResultPublisher,
	chClient *pkgch.Client,
	closers ...io.Closer,
) *App {
	return &App{
		cfg:        cfg,
		log:        log.With("app"),
		httpServer: httpServer,
		consumer:   consumer,
		kh:         kh,
		publisher:  publisher,
		chClient:   chClient,
		closers:    closers,
	}
}

// Run starts every component and blocks until ctx is done, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("started",
		applogger.String("env", a.cfg.Environment),
		applogger.String("benchmark", a.cfg.Risk.Benchmark),
		applogger.String("source", a.cfg.PriceFeed.Source),
		applogger.Bool("kafka", a.consumer != nil),
	)

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then releases infrastructure.
func (a *App) shutdown() error {
	var errs []error

	timeout := a.httpServer.ShutdownTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("result publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil {
			a.log.Warn("close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}
