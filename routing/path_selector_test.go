package routing

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrafficWeights(t *testing.T) {
	testCases := []struct {
		name  string
		costs []float64
		want  []int
	}{
		{"empty", nil, nil},
		{"single path", []float64{10}, []int{100}},
		{"equal costs", []float64{4, 4}, []int{50, 50}},
		{"inverse to cost", []float64{10, 5, 3}, []int{15, 31, 54}},
		{"zero cost wins", []float64{0, 5}, []int{100, 0}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := TrafficWeights(tc.costs)
			assert.Equal(t, tc.want, got)
			if len(got) > 0 {
				sum := 0
				for _, w := range got {
					sum += w
				}
				assert.Equal(t, 100, sum)
			}
		})
	}
}

func TestWeightedRoundRobin(t *testing.T) {
	wrr := NewWeightedRoundRobin([]int{1, 3})
	counts := make([]int, 2)
	for i := 0; i < 400; i++ {
		counts[wrr.Next()]++
	}
	assert.Equal(t, []int{100, 300}, counts)

	assert.Equal(t, -1, NewWeightedRoundRobin(nil).Next())
	assert.Equal(t, -1, NewWeightedRoundRobin([]int{0, 0}).Next())
}

func TestWeightedRoundRobinConcurrent(t *testing.T) {
	wrr := NewWeightedRoundRobin([]int{50, 50})
	var mu sync.Mutex
	counts := make([]int, 2)

	var wg sync.WaitGroup
	for g := 0; g < 10; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				idx := wrr.Next()
				mu.Lock()
				counts[idx]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, []int{500, 500}, counts)
}
