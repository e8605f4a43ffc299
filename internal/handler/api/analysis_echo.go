package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	models "CoeffRisk/internal/domain/models"
	svcmetrics "CoeffRisk/internal/service/metrics"
	"CoeffRisk/internal/services/risk"
	"CoeffRisk/internal/usecase"
	xhttp "CoeffRisk/pkg/http"
	xlogger "CoeffRisk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler serves the portfolio risk endpoints.
type AnalysisEchoHandler struct {
	logger    *xlogger.Logger
	analysis  *usecase.PortfolioAnalysis
	maxAssets int
	mw        []echo.MiddlewareFunc
}

// NewAnalysisEchoHandler builds the handler; mw wraps every /api route.
func NewAnalysisEchoHandler(logger *xlogger.Logger, analysis *usecase.PortfolioAnalysis, maxAssets int, mw ...echo.MiddlewareFunc) *AnalysisEchoHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	svcmetrics.Register()
	return &AnalysisEchoHandler{logger: logger.With("api"), analysis: analysis, maxAssets: maxAssets, mw: mw}
}

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api", h.mw...)
	g.POST("/analyze", h.Analyze)
	g.POST("/holdings/validate", h.ValidateHoldings)
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	defer func() {
		svcmetrics.APILatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	}()

	req := &models.AnalysisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues("analyze", "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.RequestID == "" {
		req.RequestID = c.Response().Header().Get(echo.HeaderXRequestID)
	}

	res, err := h.analysis.Run(c.Request().Context(), *req)
	if err != nil {
		appErr := MapError(err)
		svcmetrics.APIErrors.WithLabelValues("analyze", appErr.Code).Inc()
		if appErr.Status >= http.StatusInternalServerError {
			h.logger.Error("analyze usecase error", xlogger.Error(err))
		}
		return xhttp.AppErrorResponse(c, appErr)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.SuccessResponse(c, NewAnalysisResultDTO(res))
}

func (h *AnalysisEchoHandler) ValidateHoldings(c echo.Context) error {
	req := &models.HoldingsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	holdings, total, err := usecase.NormalizeHoldings(req.Holdings, h.maxAssets)
	if err != nil {
		appErr := MapError(err)
		svcmetrics.APIErrors.WithLabelValues("holdings_validate", appErr.Code).Inc()
		return xhttp.AppErrorResponse(c, appErr)
	}
	return xhttp.SuccessResponse(c, HoldingsDTO{
		Holdings:    holdings,
		TotalWeight: round2(total),
		Remaining:   round2(100 - total),
	})
}

// MapError converts a run failure into the API error contract.
func MapError(err error) *xhttp.AppError {
	var (
		du *risk.DataUnavailableError
		ov *risk.InsufficientOverlapError
	)
	switch {
	case errors.As(err, &du):
		return xhttp.BadGatewayError("ERR_DATA_UNAVAILABLE", "Could not load price history for "+du.Ticker).
			WithParam("ticker", du.Ticker).WithError(err)
	case errors.Is(err, context.DeadlineExceeded):
		return xhttp.GatewayTimeoutError("ERR_TIMEOUT", "Price data took too long to load").WithError(err)
	case errors.As(err, &ov):
		return xhttp.UnprocessableError("ERR_INSUFFICIENT_OVERLAP", "Not enough common trading days across the selected assets").
			WithParam("have", ov.Have).WithParam("need", ov.Need).WithError(err)
	case errors.Is(err, risk.ErrDegenerateVolatility):
		return xhttp.UnprocessableError("ERR_DEGENERATE_VOLATILITY", "Benchmark shows no price movement over the window").WithError(err)
	case errors.Is(err, risk.ErrWeightOverflow):
		return xhttp.BadRequestError("ERR_WEIGHT_OVERFLOW", "Total allocation exceeds 100%").WithError(err)
	case errors.Is(err, risk.ErrTooManyAssets):
		return xhttp.BadRequestError("ERR_TOO_MANY_ASSETS", "Too many assets in portfolio").WithError(err)
	case errors.Is(err, risk.ErrInvalidHolding):
		return xhttp.BadRequestError("ERR_INVALID_HOLDING", err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrBusy):
		return xhttp.ConflictError("ERR_BUSY", "An analysis is already running").WithError(err)
	default:
		return xhttp.InternalError("Something went wrong").WithError(err)
	}
}
