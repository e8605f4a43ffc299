package risk

import (
	"testing"

	"CoeffRisk/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatPrices(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 100 + float64(i)
	}
	return out
}

func TestAlignCalendarIntersectsAndSortsDescending(t *testing.T) {
	all := calendarDays(testEnd, 60)
	a := priceSeries("A", all, flatPrices(60))
	b := priceSeries("B", all[5:], flatPrices(55))  // drops the 5 newest
	c := priceSeries("C", all[:50], flatPrices(50)) // drops the 10 oldest

	days, err := AlignCalendar([]models.PriceSeries{a, b, c}, 100, 30)
	require.NoError(t, err)
	assert.Equal(t, all[5:50], days)
	for i := 1; i < len(days); i++ {
		assert.Greater(t, days[i-1], days[i])
	}
}

func TestAlignCalendarOrderIndependent(t *testing.T) {
	all := calendarDays(testEnd, 80)
	a := priceSeries("A", all[:70], flatPrices(70))
	b := priceSeries("B", all[3:], flatPrices(77))
	c := priceSeries("C", append(append([]string{}, all[:20]...), all[25:]...), flatPrices(75))

	abc, err := AlignCalendar([]models.PriceSeries{a, b, c}, 100, 30)
	require.NoError(t, err)
	cab, err := AlignCalendar([]models.PriceSeries{c, a, b}, 100, 30)
	require.NoError(t, err)
	bca, err := AlignCalendar([]models.PriceSeries{b, c, a}, 100, 30)
	require.NoError(t, err)
	assert.Equal(t, abc, cab)
	assert.Equal(t, abc, bca)
}

func TestAlignCalendarTruncatesToLookback(t *testing.T) {
	all := calendarDays(testEnd, 150)
	a := priceSeries("A", all, flatPrices(150))
	b := priceSeries("B", all, flatPrices(150))

	days, err := AlignCalendar([]models.PriceSeries{a, b}, 100, 30)
	require.NoError(t, err)
	assert.Len(t, days, 100)
	assert.Equal(t, all[0], days[0])
	assert.Equal(t, all[99], days[99])
}

func TestAlignCalendarInsufficientOverlap(t *testing.T) {
	all := calendarDays(testEnd, 80)
	a := priceSeries("A", all[:45], flatPrices(45))
	b := priceSeries("B", all[35:], flatPrices(45)) // 10 days in common

	_, err := AlignCalendar([]models.PriceSeries{a, b}, 100, 30)
	var ie *InsufficientOverlapError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 10, ie.Have)
	assert.Equal(t, 30, ie.Need)
	assert.ErrorIs(t, err, ErrInsufficientOverlap)

	_, err = AlignCalendar(nil, 100, 30)
	assert.ErrorIs(t, err, ErrInsufficientOverlap)
}
