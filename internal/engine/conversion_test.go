package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversionDelta(t *testing.T) {
	cases := []struct {
		name          string
		count         int
		threshold     int
		perConversion int
		want          int
	}{
		{"first event below threshold", 1, 3, 1, 0},
		{"second event below threshold", 2, 3, 1, 0},
		{"third event crosses threshold", 3, 3, 1, 1},
		{"fourth event starts next cycle", 4, 3, 1, 0},
		{"sixth event crosses again", 6, 3, 1, 1},
		{"threshold one converts every event", 1, 1, 2, 2},
		{"threshold one fifth event", 5, 1, 2, 2},
		{"multi formal yield", 3, 3, 2, 2},
		{"zero count yields nothing", 0, 3, 1, 0},
		{"invalid threshold yields nothing", 2, 0, 1, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ConversionDelta(tc.count, tc.threshold, tc.perConversion))
		})
	}
}

// The sum of per-event deltas must always equal the closed-form total
// floor(n/threshold)*perConversion, no matter the sequence length.
func TestConversionDeltaTotalsMatchClosedForm(t *testing.T) {
	for _, threshold := range []int{1, 2, 3, 5} {
		for _, per := range []int{1, 2, 3} {
			total := 0
			for n := 1; n <= 40; n++ {
				total += ConversionDelta(n, threshold, per)
				assert.Equal(t, (n/threshold)*per, total,
					"n=%d threshold=%d per=%d", n, threshold, per)
			}
		}
	}
}
