package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"CoeffRisk/internal/domain/models"
	"CoeffRisk/internal/services/risk"
	"CoeffRisk/internal/usecase"
	"CoeffRisk/pkg/http/middleware"
	"CoeffRisk/pkg/metrics"
	"CoeffRisk/pkg/util"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	payloads map[string]models.Payload
}

func (s stubSource) Fetch(_ context.Context, ticker string) (models.Payload, error) {
	p, ok := s.payloads[ticker]
	if !ok {
		return models.Payload{}, errors.New("404 not found")
	}
	return p, nil
}

func walk(rng *rand.Rand, n int, start float64) models.Payload {
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
	recs := make([]models.PriceRecord, n)
	price := start
	for i := range recs {
		recs[i] = models.PriceRecord{Date: util.FormatDay(end.AddDate(0, 0, -i)), Close: price}
		price *= 1 + rng.NormFloat64()*0.01
	}
	return models.Payload{Kind: models.KindSeries, History: recs}
}

func newTestEcho() *echo.Echo {
	rng := rand.New(rand.NewSource(7))
	src := stubSource{payloads: map[string]models.Payload{
		"AAPL": walk(rng, 120, 190),
		"MSFT": walk(rng, 120, 410),
		"SPY":  walk(rng, 120, 540),
		"SHORT": {Kind: models.KindSeries, History: []models.PriceRecord{
			{Date: "2025-06-30", Close: 1}, {Date: "2025-06-29", Close: 2},
		}},
	}}
	uc := usecase.NewPortfolioAnalysis(src, risk.NewEngine(risk.Params{}), metrics.Nop{}, nil)
	h := NewAnalysisEchoHandler(nil, uc, 10)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func post(t *testing.T, e *echo.Echo, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestAnalyzeOK(t *testing.T) {
	e := newTestEcho()
	rec, env := post(t, e, "/api/analyze", `{"holdings":[{"ticker":"aapl","weight":60},{"ticker":"MSFT","weight":40}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusOK, env.Status)

	var dto AnalysisResultDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, []string{"AAPL", "MSFT"}, dto.Tickers)
	assert.Equal(t, "SPY", dto.Benchmark)
	assert.Equal(t, 100, dto.CommonDays)
	assert.Len(t, dto.Matrix, 2)
	assert.Equal(t, 1.0, dto.Matrix[0][0])
	assert.GreaterOrEqual(t, dto.FragilityScore, 0)
	assert.LessOrEqual(t, dto.FragilityScore, 100)
	require.Len(t, dto.Quotes, 3)
	assert.Equal(t, "AAPL", dto.Quotes[0].Ticker)
	assert.True(t, strings.HasPrefix(dto.Quotes[0].Display, "$"))
}

func TestAnalyzeErrors(t *testing.T) {
	e := newTestEcho()
	cases := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"validation", `{"holdings":[]}`, http.StatusBadRequest, "ERR_MIN"},
		{"weight range", `{"holdings":[{"ticker":"AAPL","weight":120}]}`, http.StatusBadRequest, "ERR_LTE"},
		{"overflow", `{"holdings":[{"ticker":"AAPL","weight":60},{"ticker":"MSFT","weight":50}]}`, http.StatusBadRequest, "ERR_WEIGHT_OVERFLOW"},
		{"unknown ticker", `{"holdings":[{"ticker":"NOPE","weight":10}]}`, http.StatusBadGateway, "ERR_DATA_UNAVAILABLE"},
		{"short history", `{"holdings":[{"ticker":"SHORT","weight":10}]}`, http.StatusUnprocessableEntity, "ERR_INSUFFICIENT_OVERLAP"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec, env := post(t, e, "/api/analyze", tc.body)
			assert.Equal(t, tc.status, rec.Code)
			var errs []map[string]interface{}
			require.NoError(t, json.Unmarshal(env.Data, &errs))
			require.NotEmpty(t, errs)
			assert.Equal(t, tc.code, errs[0]["code"])
		})
	}
}

func TestValidateHoldingsEndpoint(t *testing.T) {
	e := newTestEcho()
	rec, env := post(t, e, "/api/holdings/validate", `{"holdings":[{"ticker":" nvda","weight":33.333},{"ticker":"spy","weight":20}]}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var dto HoldingsDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	assert.Equal(t, "NVDA", dto.Holdings[0].Ticker)
	assert.Equal(t, 53.33, dto.TotalWeight)
	assert.Equal(t, 46.67, dto.Remaining)
}

func TestMapError(t *testing.T) {
	assert.Equal(t, http.StatusConflict, MapError(usecase.ErrBusy).Status)
	assert.Equal(t, http.StatusUnprocessableEntity, MapError(risk.ErrDegenerateVolatility).Status)
	assert.Equal(t, http.StatusBadRequest, MapError(risk.ErrTooManyAssets).Status)
	assert.Equal(t, http.StatusGatewayTimeout, MapError(context.DeadlineExceeded).Status)
	assert.Equal(t, http.StatusInternalServerError, MapError(errors.New("x")).Status)
}

func TestNewAnalysisResultDTO(t *testing.T) {
	res := &models.AnalysisResult{
		Tickers:        []string{"SAP.DE"},
		Weights:        []float64{50},
		Benchmark:      "SPY",
		Matrix:         [][]float64{{0.999999}},
		Beta:           1.23456,
		FragilityScore: 100,
		AvgCorrelation: 1,
		LatestQuotes: map[string]models.Quote{
			"SAP.DE": {Price: 251.456, Currency: "EUR"},
			"SPY":    {Price: 612.5, Currency: "USD"},
			"XYZ":    {Price: 3, Currency: "ZZZ"},
		},
		DataQuality: risk.SyntheticAdvisory,
	}
	dto := NewAnalysisResultDTO(res)
	assert.Equal(t, 1.23, dto.Beta)
	assert.Equal(t, 1.0, dto.Matrix[0][0])
	assert.Equal(t, 0.999999, res.Matrix[0][0])
	require.Len(t, dto.Quotes, 3)
	assert.Equal(t, "SAP.DE", dto.Quotes[0].Ticker)
	assert.Equal(t, 251.46, dto.Quotes[0].Price)
	assert.Contains(t, dto.Quotes[0].Display, "€")
	assert.Equal(t, "$612.50", dto.Quotes[1].Display)
	assert.Equal(t, "3.00 ZZZ", dto.Quotes[2].Display)
	assert.Equal(t, risk.SyntheticAdvisory, dto.DataQuality)
}

type denyAfter struct{ n int }

func (d *denyAfter) Allow(string) bool {
	d.n--
	return d.n >= 0
}

func TestAnalyzeRateLimited(t *testing.T) {
	uc := usecase.NewPortfolioAnalysis(stubSource{}, risk.NewEngine(risk.Params{}), metrics.Nop{}, nil)
	h := NewAnalysisEchoHandler(nil, uc, 10, middleware.RateLimit(&denyAfter{n: 1}, nil))
	e := echo.New()
	h.RegisterRoutes(e)

	rec, _ := post(t, e, "/api/holdings/validate", `{"holdings":[{"ticker":"A","weight":1}]}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, env := post(t, e, "/api/holdings/validate", `{"holdings":[{"ticker":"A","weight":1}]}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, http.StatusTooManyRequests, env.Status)
}
