package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"CoeffRisk/internal/domain/models"
	domrepo "CoeffRisk/internal/domain/repository"
	pkgch "CoeffRisk/pkg/clickhouse"
	applogger "CoeffRisk/pkg/logger"
	"CoeffRisk/pkg/util"
)

// CHPriceSource serves daily closes stored in ClickHouse and archives
// fetched histories into the same table.
type CHPriceSource struct {
	db       *sql.DB
	table    string
	limit    int
	currency string
	l        *applogger.Logger
}

// NewCHPriceSource reads from <database>.daily_prices. limit caps the rows
// returned per ticker.
func NewCHPriceSource(ch *pkgch.Client, database string, limit int, baseCurrency string) *CHPriceSource {
	if limit <= 0 {
		limit = 150
	}
	return &CHPriceSource{
		db:       ch.DB(),
		table:    database + ".daily_prices",
		limit:    limit,
		currency: baseCurrency,
		l:        applogger.Nop(),
	}
}

// SetLogger injects a structured logger.
func (s *CHPriceSource) SetLogger(l *applogger.Logger) {
	if l != nil {
		s.l = l.With("clickhouse_prices")
	}
}

// Schema returns the idempotent DDL for the price table.
func Schema(database string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.daily_prices (
            symbol    LowCardinality(String),
            day       Date,
            close     Float64,
            currency  LowCardinality(String),
            synthetic UInt8,
            ingested  DateTime DEFAULT now()
        ) ENGINE = ReplacingMergeTree(ingested)
        ORDER BY (symbol, day)`, database),
	}
}

type dailyRow struct {
	day       time.Time
	close     float64
	currency  string
	synthetic uint8
}

func (s *CHPriceSource) Fetch(ctx context.Context, ticker string) (models.Payload, error) {
	start := time.Now()
	const qtpl = `
        SELECT day, argMax(close, ingested), argMax(currency, ingested), argMax(synthetic, ingested)
        FROM %s
        WHERE symbol = ?
        GROUP BY day
        ORDER BY day DESC
        LIMIT ?
    `
	q := fmt.Sprintf(qtpl, s.table)
	rows, err := s.db.QueryContext(ctx, q, ticker, s.limit)
	if err != nil {
		s.l.Error("clickhouse daily_prices query error",
			applogger.String("symbol", ticker),
			applogger.Error(err),
		)
		return models.Payload{}, fmt.Errorf("query daily prices: %w", err)
	}
	defer rows.Close()

	out := make([]dailyRow, 0, s.limit)
	for rows.Next() {
		var r dailyRow
		if err := rows.Scan(&r.day, &r.close, &r.currency, &r.synthetic); err != nil {
			return models.Payload{}, fmt.Errorf("scan daily price: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return models.Payload{}, fmt.Errorf("rows: %w", err)
	}

	s.l.Debug("clickhouse daily_prices ok",
		applogger.String("symbol", ticker),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return toPayload(out, s.currency), nil
}

// toPayload expects rows newest first.
func toPayload(rows []dailyRow, baseCurrency string) models.Payload {
	p := models.Payload{Kind: models.KindHistorical, History: make([]models.PriceRecord, 0, len(rows))}
	synthetic := false
	for _, r := range rows {
		p.History = append(p.History, models.PriceRecord{Date: util.FormatDay(r.day), Close: r.close})
		synthetic = synthetic || r.synthetic != 0
	}
	if len(rows) == 0 {
		return p
	}
	currency := rows[0].currency
	if currency == "" {
		currency = baseCurrency
	}
	p.Meta = &models.PayloadMeta{
		CurrentPrice: rows[0].close,
		Currency:     currency,
		IsSynthetic:  synthetic,
	}
	return p
}

// StoreHistory inserts every dated record of p for ticker.
func (s *CHPriceSource) StoreHistory(ctx context.Context, ticker string, p models.Payload) error {
	currency := s.currency
	synthetic := uint8(0)
	if p.Meta != nil {
		if p.Meta.Currency != "" {
			currency = p.Meta.Currency
		}
		if p.Meta.IsSynthetic {
			synthetic = 1
		}
	}

	const chunkSize = 500
	for start := 0; start < len(p.History); start += chunkSize {
		end := start + chunkSize
		if end > len(p.History) {
			end = len(p.History)
		}

		var sb strings.Builder
		sb.WriteString("INSERT INTO ")
		sb.WriteString(s.table)
		sb.WriteString(" (symbol, day, close, currency, synthetic) VALUES ")
		args := make([]any, 0, (end-start)*5)
		n := 0
		for _, rec := range p.History[start:end] {
			day, ok := util.ParseDay(rec.Date)
			if !ok {
				continue
			}
			if n > 0 {
				sb.WriteString(",")
			}
			sb.WriteString("(?, ?, ?, ?, ?)")
			args = append(args, ticker, day, rec.Close, currency, synthetic)
			n++
		}
		if n == 0 {
			continue
		}
		if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
			return fmt.Errorf("insert daily prices: %w", err)
		}
	}
	return nil
}

var (
	_ domrepo.PriceSource  = (*CHPriceSource)(nil)
	_ domrepo.HistoryStore = (*CHPriceSource)(nil)
)
