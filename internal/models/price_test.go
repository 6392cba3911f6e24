package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_ProviderIntervalAddsOneDay(t *testing.T) {
	tests := []struct {
		start, end time.Time
		wantTo     time.Time
	}{
		{date(2019, 1, 1), date(2021, 12, 31), date(2022, 1, 1)},
		{date(2020, 2, 28), date(2020, 2, 28), date(2020, 2, 29)}, // leap day
		{date(2021, 2, 1), date(2021, 2, 28), date(2021, 3, 1)},
	}

	for _, tt := range tests {
		r := NewDateRange(tt.start, tt.end)
		from, to := r.ProviderInterval()
		assert.Equal(t, tt.start, from)
		assert.Equal(t, tt.wantTo, to)
	}
}

func TestParseDateRange_Valid(t *testing.T) {
	r, err := ParseDateRange("2019-01-01", "2021-12-31")
	require.NoError(t, err)
	assert.Equal(t, date(2019, 1, 1), r.Start)
	assert.Equal(t, date(2021, 12, 31), r.End)
	assert.Equal(t, "2019-01-01..2021-12-31", r.String())
}

func TestParseDateRange_Invalid(t *testing.T) {
	tests := []struct {
		start, end string
		desc       string
	}{
		{"2021-12-31", "2019-01-01", "end before start"},
		{"2019/01/01", "2021-12-31", "bad start layout"},
		{"2019-01-01", "", "missing end"},
	}

	for _, tt := range tests {
		_, err := ParseDateRange(tt.start, tt.end)
		if !errors.Is(err, ErrInvalidRange) {
			t.Errorf("%s: expected ErrInvalidRange, got %v", tt.desc, err)
		}
	}
}

func TestCalendarDate_KeepsLocalDate(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	got := CalendarDate(time.Date(2021, 1, 5, 8, 0, 0, 0, kst))
	assert.Equal(t, date(2021, 1, 5), got)
}

func TestPriceSeries_Head(t *testing.T) {
	s := &PriceSeries{Bars: []PriceBar{{Close: 1}, {Close: 2}, {Close: 3}}}
	assert.Len(t, s.Head(2), 2)
	assert.Len(t, s.Head(10), 3)
	assert.Nil(t, s.Head(0))

	var nilSeries *PriceSeries
	assert.Equal(t, 0, nilSeries.Len())
	assert.Nil(t, nilSeries.Head(5))
}
