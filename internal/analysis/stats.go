// Package analysis summarizes finished runs: price statistics, a perfect-foresight benchmark
// and trader rankings.
package analysis

import (
	"math"
	"sort"
)

// PriceStats summarizes a price history.
type PriceStats struct {
	Count int `json:"count"`

	First float64 `json:"first"`
	Last  float64 `json:"last"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	P05   float64 `json:"p05"`
	P95   float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`

	// TotalReturn is Last/First - 1.
	TotalReturn float64 `json:"total_return"`
	// Volatility is the sample standard deviation of step-to-step simple returns.
	Volatility float64 `json:"volatility"`
	// FloorHits counts prices at or below floor (zero when floor is not given).
	FloorHits int `json:"floor_hits"`
}

// ComputePriceStats summarizes prices. floor <= 0 skips the floor count.
func ComputePriceStats(prices []float64, floor float64) PriceStats {
	s := PriceStats{}
	if len(prices) == 0 {
		return s
	}
	s.Count = len(prices)
	s.First = prices[0]
	s.Last = prices[len(prices)-1]

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(prices))
	for _, v := range prices {
		vals = append(vals, v)
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
		if floor > 0 && v <= floor {
			s.FloorHits++
		}
	}
	sort.Float64s(vals)
	s.Min = minv
	s.Max = maxv
	s.Mean = sum / float64(len(vals))
	s.P05 = percentileSorted(vals, 0.05)
	s.P95 = percentileSorted(vals, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05

	if s.First != 0 {
		s.TotalReturn = s.Last/s.First - 1
	}
	s.Volatility = returnVolatility(prices)
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func returnVolatility(prices []float64) float64 {
	if len(prices) < 3 {
		return 0
	}
	rets := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		rets = append(rets, prices[i]/prices[i-1]-1)
	}
	if len(rets) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	ss := 0.0
	for _, r := range rets {
		ss += (r - mean) * (r - mean)
	}
	return math.Sqrt(ss / float64(len(rets)-1))
}
