package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDynamicThreshold(t *testing.T) {
	tests := []struct {
		base     uint8
		avgVol   uint64
		expected uint8
	}{
		{15, 2000, 19},
		{15, 5000, 25},
		{15, 8000, 31},
		{5, 0, 10},
		{15, 15000, 40},
		{50, 10000, 40},
		{1, 10000, 21},
		{255, math.MaxUint64, 40},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, DynamicThreshold(tt.base, tt.avgVol), "base=%d avg=%d", tt.base, tt.avgVol)
	}
}

func TestAverageVolatility(t *testing.T) {
	assert.Equal(t, uint64(0), AverageVolatility(nil))
	assert.Equal(t, uint64(5000), AverageVolatility([]uint16{2000, 5000, 8000}))
	assert.Equal(t, uint64(3333), AverageVolatility([]uint16{10000, 0, 0}))
	assert.Equal(t, uint64(10000), AverageVolatility([]uint16{10000, 10000}))
}
