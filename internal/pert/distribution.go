package pert

import (
	"fmt"
	"math"
)

// Distribution approximates the project duration as a normal distribution
// whose mean is the scheduled project duration and whose variance is taken
// from the critical path with the largest variance.
type Distribution struct {
	Mean      float64 `json:"mean"`
	Variance  float64 `json:"variance"`
	StdDev    float64 `json:"std_dev"`
	PathIndex int     `json:"path_index"` // critical path supplying the variance, -1 if none
}

// NewDistribution builds the project distribution from the variance of each
// critical path. Ties keep the first path.
func NewDistribution(mean float64, pathVariances []float64) *Distribution {
	d := &Distribution{Mean: mean, PathIndex: -1}
	for i, v := range pathVariances {
		if d.PathIndex == -1 || v > d.Variance {
			d.Variance = v
			d.PathIndex = i
		}
	}
	d.StdDev = math.Sqrt(d.Variance)
	return d
}

// Probability returns the chance the project finishes within deadline.
func (d *Distribution) Probability(deadline float64) float64 {
	if d.StdDev == 0 {
		if deadline >= d.Mean-1e-9*math.Max(1, math.Abs(d.Mean)) {
			return 1
		}
		return 0
	}
	z := (deadline - d.Mean) / d.StdDev
	return 0.5 * (1 + math.Erf(z/math.Sqrt2))
}

// Quantile returns the duration the project meets with probability p.
func (d *Distribution) Quantile(p float64) (float64, error) {
	if !(p > 0 && p < 1) {
		return 0, fmt.Errorf("confidence %g must be strictly between 0 and 1", p)
	}
	if d.StdDev == 0 {
		return d.Mean, nil
	}
	return d.Mean + d.StdDev*math.Sqrt2*math.Erfinv(2*p-1), nil
}
