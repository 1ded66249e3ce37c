package engine

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestServingYears(t *testing.T) {
	cases := []struct {
		name     string
		joined   time.Time
		asOf     time.Time
		expected int
	}{
		{"anniversary passed", date(2020, time.March, 15), date(2024, time.June, 1), 4},
		{"anniversary not yet reached", date(2020, time.September, 15), date(2024, time.June, 1), 3},
		{"exact anniversary counts", date(2020, time.June, 1), date(2024, time.June, 1), 4},
		{"joined this year", date(2024, time.January, 10), date(2024, time.June, 1), 0},
		{"joined in the future clamps to zero", date(2025, time.January, 1), date(2024, time.June, 1), 0},
		{"day before anniversary", date(2020, time.June, 2), date(2024, time.June, 1), 3},
	}
	for _, tc := range cases {
		if got := ServingYears(tc.joined, tc.asOf); got != tc.expected {
			t.Fatalf("%s: ServingYears = %d, expected %d", tc.name, got, tc.expected)
		}
	}
}
