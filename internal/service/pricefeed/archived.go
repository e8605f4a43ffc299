package pricefeed

import (
	"context"
	"time"

	"CoeffRisk/internal/domain/models"
	drepo "CoeffRisk/internal/domain/repository"
	"CoeffRisk/pkg/logger"
)

// Archived copies every non-empty fetched history into a HistoryStore
// after the fetch returns. Archive failures are logged only.
type Archived struct {
	next    drepo.PriceSource
	store   drepo.HistoryStore
	timeout time.Duration
	log     *logger.Logger
}

func NewArchived(next drepo.PriceSource, store drepo.HistoryStore, l *logger.Logger) *Archived {
	if l == nil {
		l = logger.Nop()
	}
	return &Archived{next: next, store: store, timeout: 10 * time.Second, log: l.With("pricefeed_archive")}
}

func (a *Archived) Fetch(ctx context.Context, ticker string) (models.Payload, error) {
	p, err := a.next.Fetch(ctx, ticker)
	if err != nil || len(p.History) == 0 {
		return p, err
	}

	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.timeout)
	defer cancel()
	if err := a.store.StoreHistory(actx, ticker, p); err != nil {
		a.log.Warn("archive history failed", logger.String("ticker", ticker), logger.Error(err))
	}
	return p, nil
}

var _ drepo.PriceSource = (*Archived)(nil)
