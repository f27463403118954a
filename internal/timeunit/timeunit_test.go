package timeunit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	u, err := Parse("yearmonth")
	require.NoError(t, err)
	assert.Equal(t, YearMonth, u)

	_, err = Parse("fortnight")
	assert.ErrorContains(t, err, `unknown time unit "fortnight"`)
}

func TestUnit_Components(t *testing.T) {
	assert.Equal(t, []Unit{Year, Month, Date}, YearMonthDate.Components())
	assert.Equal(t, []Unit{Hours, Minutes}, HoursMinutes.Components())
	assert.Equal(t, []Unit{Day}, Day.Components())
}

func TestUnit_Expr(t *testing.T) {
	f := `datum["date"]`
	tests := []struct {
		unit Unit
		want string
	}{
		{Year, `datetime(year(datum["date"]), 0, 1, 0, 0, 0, 0)`},
		{Month, `datetime(2006, month(datum["date"]), 1, 0, 0, 0, 0)`},
		{Day, `datetime(2006, 0, day(datum["date"])+1, 0, 0, 0, 0)`},
		{YearQuarter, `datetime(year(datum["date"]), (quarter(datum["date"])-1)*3, 1, 0, 0, 0, 0)`},
		{HoursMinutes, `datetime(2006, 0, 1, hours(datum["date"]), minutes(datum["date"]), 0, 0)`},
	}
	for _, tt := range tests {
		t.Run(string(tt.unit), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.unit.Expr(f))
		})
	}
}

func TestUnit_Cyclical(t *testing.T) {
	for _, u := range Units {
		_, ok := u.Lookup()
		assert.Equal(t, u.Cyclical(), ok, "unit %s", u)
	}
}

func TestUnit_LookupMatchesDerivation(t *testing.T) {
	lk, ok := Month.Lookup()
	require.True(t, ok)
	assert.Equal(t, "month", lk.Name)
	assert.Len(t, lk.Values, 12)
	assert.Equal(t, 11, lk.Values[11]["unit"])
	assert.Equal(t, `datetime(2006, datum["unit"], 1, 0, 0, 0, 0)`, lk.Expr)

	lk, ok = Day.Lookup()
	require.True(t, ok)
	assert.Len(t, lk.Values, 7)
	assert.Equal(t, `datetime(2006, 0, datum["unit"]+1, 0, 0, 0, 0)`, lk.Expr)
}

func TestUnit_Format(t *testing.T) {
	for _, u := range Units {
		assert.NotEmpty(t, u.Format(), "unit %s", u)
	}
}
