package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type line struct {
	Ticker string  `json:"ticker" validate:"required,ticker"`
	Weight float64 `json:"weight" validate:"lte=100"`
}

type basket struct {
	Lines []line `json:"lines" validate:"required,min=1,dive"`
	Note  string `json:"note" default:"none"`
}

func TestValidationErrorsUseJSONPaths(t *testing.T) {
	err := Validate(basket{Lines: []line{{Ticker: "", Weight: 120}}})
	require.Error(t, err)

	errs := toValidationErrors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, "ERR_REQUIRED", errs[0].Code)
	assert.Equal(t, "lines[0].ticker", errs[0].Field)
	assert.Equal(t, "ticker is required", errs[0].Message)
	assert.Equal(t, "ERR_LTE", errs[1].Code)
	assert.Equal(t, "weight must be less than or equal to 100", errs[1].Message)
	assert.Equal(t, "100", errs[1].Params["max"])

	var ve validator.ValidationErrors
	assert.ErrorAs(t, err, &ve)
}

func TestTickerTag(t *testing.T) {
	for _, ok := range []string{"AAPL", "sap.de", "BRK-B", "^GSPC", "EURUSD=X", " spy "} {
		assert.NoError(t, Validate(line{Ticker: ok}), ok)
	}
	for _, bad := range []string{"AA PL", "$AAPL", "A/B", strings.Repeat("X", 21)} {
		err := Validate(line{Ticker: bad})
		require.Error(t, err, bad)
		assert.Equal(t, "ERR_TICKER", toValidationErrors(err)[0].Code)
	}
}

func TestReadAndValidateRequest(t *testing.T) {
	e := echo.New()
	bind := func(body string) (*basket, []ValidationError) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c := e.NewContext(req, httptest.NewRecorder())
		var b basket
		return &b, ReadAndValidateRequest(c, &b)
	}

	b, errs := bind(`{"lines":[{"ticker":"AAPL","weight":10}]}`)
	assert.Nil(t, errs)
	assert.Equal(t, "none", b.Note)

	_, errs = bind(`{"lines":[`)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_MALFORMED_BODY", errs[0].Code)

	_, errs = bind(`{"lines":[]}`)
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_MIN", errs[0].Code)
}
