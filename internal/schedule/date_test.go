package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDate_Arithmetic(t *testing.T) {
	d := NewDate(2024, time.February, 28)
	assert.Equal(t, "2024-02-29", d.AddDays(1).String())
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
	assert.Equal(t, "2024-01-31", d.AddDays(-28).String())
	assert.Equal(t, 2, d.AddDays(2).DaysSince(d))
	assert.Equal(t, -2, d.DaysSince(d.AddDays(2)))
	assert.Equal(t, "2024-02-01", NewDate(2024, time.January, 32).String())
}

func TestDate_DaysSinceAcrossCenturies(t *testing.T) {
	tests := []struct {
		from, to string
		want     int
	}{
		{from: "1500-01-01", to: "2024-01-01", want: 191387},
		{from: "0024-01-01", to: "2024-01-10", want: 730494},
		{from: "2024-01-01", to: "1500-01-01", want: -191387},
	}
	cal := CalendarDays{}
	for _, tt := range tests {
		t.Run(tt.from+".."+tt.to, func(t *testing.T) {
			from, to := day(tt.from), day(tt.to)
			assert.Equal(t, tt.want, to.DaysSince(from))
			if tt.want > 0 {
				span := cal.Span(from, to)
				assert.Equal(t, tt.want+1, span)
				assert.Equal(t, to, cal.EndFor(from, span))
			}
		})
	}
}

func TestDate_Compare(t *testing.T) {
	a := day("2024-01-01")
	b := day("2024-01-02")
	assert.True(t, a.Before(b))
	assert.True(t, b.After(a))
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(day("2024-01-01")))
}

func TestDate_ZeroValue(t *testing.T) {
	var d Date
	assert.True(t, d.IsZero())
	assert.Equal(t, "", d.String())

	var parsed Date
	require.NoError(t, parsed.UnmarshalText(nil))
	assert.True(t, parsed.IsZero())
}

func TestDate_ParseInvalid(t *testing.T) {
	_, err := ParseDate("2024-13-01")
	assert.Error(t, err)
	_, err = ParseDate("yesterday")
	assert.Error(t, err)
}

func TestDate_YAML(t *testing.T) {
	type doc struct {
		Start Date `yaml:"start"`
		End   Date `yaml:"end,omitempty"`
	}
	out, err := yaml.Marshal(doc{Start: day("2024-05-06")})
	require.NoError(t, err)
	assert.Equal(t, "start: \"2024-05-06\"\n", string(out))

	var in doc
	require.NoError(t, yaml.Unmarshal([]byte("start: \"2024-07-08\"\n"), &in))
	assert.Equal(t, day("2024-07-08"), in.Start)
	assert.True(t, in.End.IsZero())
}

func TestCalendarDays(t *testing.T) {
	cal := CalendarDays{}
	start := day("2024-01-01")
	assert.Equal(t, day("2024-01-03"), cal.EndFor(start, 3))
	assert.Equal(t, start, cal.EndFor(start, 0))
	assert.Equal(t, start, cal.StartFor(day("2024-01-03"), 3))
	assert.Equal(t, 3, cal.Span(start, day("2024-01-03")))
	assert.Equal(t, day("2023-12-30"), cal.Shift(start, -2))
}
