package shift

import (
	"testing"
	"time"
)

func TestRecord_InInterval(t *testing.T) {
	aedt := time.FixedZone("AEDT", 11*60*60)

	local := func(loc *time.Location, y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}

	tests := []struct {
		name string
		rec  Record
		iv   Interval
		want bool
	}{
		{
			name: "single-day interval matches its own start date in a positive UTC offset zone",
			rec:  Record{HasDate: true, Date: local(aedt, 2025, time.December, 17)},
			iv:   Interval{Start: local(aedt, 2025, time.December, 17), End: local(aedt, 2025, time.December, 17)},
			want: true,
		},
		{
			name: "interval end date is inclusive in a positive UTC offset zone",
			rec:  Record{HasDate: true, Date: local(aedt, 2025, time.December, 20)},
			iv:   Interval{Start: local(aedt, 2025, time.December, 18), End: local(aedt, 2025, time.December, 20)},
			want: true,
		},
		{
			name: "date one day before the interval start is excluded",
			rec:  Record{HasDate: true, Date: local(aedt, 2025, time.December, 16)},
			iv:   Interval{Start: local(aedt, 2025, time.December, 17), End: local(aedt, 2025, time.December, 17)},
			want: false,
		},
		{
			name: "date one day after the interval end is excluded",
			rec:  Record{HasDate: true, Date: local(aedt, 2025, time.December, 21)},
			iv:   Interval{Start: local(aedt, 2025, time.December, 18), End: local(aedt, 2025, time.December, 20)},
			want: false,
		},
		{
			name: "unparseable record date never matches",
			rec:  Record{HasDate: false, Date: local(aedt, 2025, time.December, 17)},
			iv:   Interval{Start: local(aedt, 2025, time.December, 17), End: local(aedt, 2025, time.December, 17)},
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.rec.InInterval(tc.iv); got != tc.want {
				t.Errorf("InInterval() = %v, want %v", got, tc.want)
			}
		})
	}
}
