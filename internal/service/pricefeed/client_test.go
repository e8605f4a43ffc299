package pricefeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"CoeffRisk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientProxyMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "BRK.B", r.URL.Query().Get("ticker"))
		_, _ = w.Write([]byte(`{"historical":[{"date":"2025-06-30","close":470.1}],"meta":{"currentPrice":471,"currency":"USD","isSynthetic":false}}`))
	}))
	defer srv.Close()

	c, err := New(WithProxy(srv.URL), WithTimeout(time.Second))
	require.NoError(t, err)
	p, err := c.Fetch(context.Background(), "BRK.B")
	require.NoError(t, err)
	assert.Equal(t, models.KindHistorical, p.Kind)
	require.Len(t, p.History, 1)
	require.NotNil(t, p.Meta)
	assert.Equal(t, 471.0, p.Meta.CurrentPrice)
}

func TestClientFMPMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/historical-price-full/AAPL", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`{"symbol":"AAPL","historical":[{"date":"2025-06-30","close":205.2},{"date":"2025-06-27","close":201}]}`))
	}))
	defer srv.Close()

	c, err := New(WithFMP(srv.URL+"/api/v3/", "secret"))
	require.NoError(t, err)
	p, err := c.Fetch(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Len(t, p.History, 2)
	assert.Nil(t, p.Meta)
}

func TestClientFMPErrorHidesAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c, err := New(WithFMP(base, "SECRETKEY123"))
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "AAPL")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRETKEY123")
	assert.Contains(t, err.Error(), "AAPL")
}

func TestClientUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "limit reached", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := New(WithProxy(srv.URL))
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), "SPY")
	assert.ErrorContains(t, err, "429")
}

func TestNewRequiresMode(t *testing.T) {
	_, err := New()
	assert.Error(t, err)
	_, err = New(WithFMP("https://example.invalid", ""))
	assert.Error(t, err)
}
