package http

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoRoutes struct{}

func (echoRoutes) RegisterRoutes(e *echo.Echo) {
	e.POST("/echo", func(c echo.Context) error {
		b, err := io.ReadAll(c.Request().Body)
		if err != nil {
			return err
		}
		return c.String(http.StatusOK, string(b))
	})
	e.GET("/panic", func(echo.Context) error { panic("boom") })
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(echoRoutes{}, WithHost("127.0.0.1"), WithPort(0), WithMetricsPath(""))
	require.NoError(t, s.Start())
	require.NotEmpty(t, s.Addr())

	resp, err := http.Get("http://" + s.Addr() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(echo.HeaderXRequestID))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

func TestServerStartFailsOnTakenPort(t *testing.T) {
	a := NewServer(nil, WithHost("127.0.0.1"), WithPort(0), WithMetricsPath(""))
	require.NoError(t, a.Start())
	defer a.Stop(context.Background())

	_, port, _ := strings.Cut(a.Addr(), ":")
	b := NewServer(nil, WithHost("127.0.0.1"), WithMetricsPath(""))
	n, err := strconv.Atoi(port)
	require.NoError(t, err)
	b.config.Port = n
	assert.Error(t, b.Start())
}

func TestServerBodyLimitAndRecover(t *testing.T) {
	s := NewServer(echoRoutes{}, WithBodyLimit("8B"), WithMetricsPath(""))
	e := s.Echo()

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("0123456789")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("ok")))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestServerCORS(t *testing.T) {
	s := NewServer(nil, WithCORS("https://app.example"), WithMetricsPath(""))
	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)
	req.Header.Set(echo.HeaderOrigin, "https://app.example")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodGet)
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	assert.Equal(t, "https://app.example", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}
