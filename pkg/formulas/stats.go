// Package formulas provides descriptive statistics over score series.
package formulas

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a series of values.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// Mean calculates the arithmetic mean of a slice of float64 values
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev calculates the sample standard deviation, 0 for fewer than two values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// Median returns the empirical median of data without modifying it
func Median(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	return stat.Quantile(0.5, stat.Empirical, sorted, nil)
}

// Summarize computes a Summary of data
func Summarize(data []float64) Summary {
	if len(data) == 0 {
		return Summary{}
	}
	s := Summary{
		Count:  len(data),
		Mean:   Mean(data),
		StdDev: StdDev(data),
		Median: Median(data),
		Min:    data[0],
		Max:    data[0],
	}
	for _, v := range data[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s
}

// Uint16s converts integer scores for use with the float statistics above
func Uint16s(values []uint16) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}
