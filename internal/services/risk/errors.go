package risk

import (
	"errors"
	"fmt"
)

var (
	ErrDataUnavailable      = errors.New("risk: no usable price data")
	ErrInsufficientOverlap  = errors.New("risk: insufficient data overlap")
	ErrDegenerateVolatility = errors.New("risk: benchmark has zero volatility")
	ErrWeightOverflow       = errors.New("risk: total allocation exceeds 100%")
	ErrTooManyAssets        = errors.New("risk: too many assets")
	ErrInvalidHolding       = errors.New("risk: invalid holding")
)

// DataUnavailableError names the ticker that produced no daily records.
// Err is the fetch failure behind it; nil means the source answered with an
// empty or unusable history.
type DataUnavailableError struct {
	Ticker string
	Err    error
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no data for %s: %v", e.Ticker, e.Err)
	}
	return fmt.Sprintf("no data for %s", e.Ticker)
}

func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// InsufficientOverlapError reports how many common days were found.
type InsufficientOverlapError struct {
	Have int
	Need int
}

func (e *InsufficientOverlapError) Error() string {
	return fmt.Sprintf("insufficient data overlap: %d common days, need %d", e.Have, e.Need)
}

func (e *InsufficientOverlapError) Is(target error) bool { return target == ErrInsufficientOverlap }
