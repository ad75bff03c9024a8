package routing

import (
	"math"
	"sync/atomic"
)

// TrafficWeights splits 100 units of traffic across paths in inverse
// proportion to their cost. Zero-cost paths share everything equally.
func TrafficWeights(costs []float64) []int {
	if len(costs) == 0 {
		return nil
	}

	inverse := make([]float64, len(costs))
	var zero int
	for _, c := range costs {
		if c <= 0 {
			zero++
		}
	}
	var total float64
	for i, c := range costs {
		switch {
		case zero > 0 && c <= 0:
			inverse[i] = 1
		case zero > 0:
			inverse[i] = 0
		default:
			inverse[i] = 1 / c
		}
		total += inverse[i]
	}

	weights := make([]int, len(costs))
	assigned := 0
	for i, v := range inverse {
		weights[i] = int(math.Floor(v / total * 100))
		assigned += weights[i]
	}
	// rounding leftovers go to the cheapest path
	best := 0
	for i := range inverse {
		if inverse[i] > inverse[best] {
			best = i
		}
	}
	weights[best] += 100 - assigned
	return weights
}

// WeightedRoundRobin hands out path indexes in proportion to their weights.
// Safe for concurrent use.
type WeightedRoundRobin struct {
	cumulative  []int
	totalWeight int
	current     uint32
}

func NewWeightedRoundRobin(weights []int) *WeightedRoundRobin {
	cumulative := make([]int, len(weights))
	total := 0
	for i, w := range weights {
		if w > 0 {
			total += w
		}
		cumulative[i] = total
	}
	return &WeightedRoundRobin{
		cumulative:  cumulative,
		totalWeight: total,
	}
}

// Next returns the index of the next path, or -1 if no path has weight
func (w *WeightedRoundRobin) Next() int {
	if w.totalWeight == 0 {
		return -1
	}

	n := atomic.AddUint32(&w.current, 1) - 1
	mod := int(n % uint32(w.totalWeight))

	for i, c := range w.cumulative {
		if mod < c {
			return i
		}
	}
	return -1
}
