package engine

import (
	"sync"

	"github.com/VividCortex/ewma"

	"github.com/hamed0406/pingboard/internal/domain"
)

// Trend keeps an exponentially weighted latency average per endpoint.
// Unlike the result cache it survives sweeps.
type Trend struct {
	mu   sync.Mutex
	avgs map[domain.EndpointID]ewma.MovingAverage
}

func NewTrend() *Trend {
	return &Trend{avgs: make(map[domain.EndpointID]ewma.MovingAverage)}
}

func (t *Trend) Observe(id domain.EndpointID, ms int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.avgs[id]
	if !ok {
		a = ewma.NewMovingAverage()
		t.avgs[id] = a
	}
	a.Add(float64(ms))
}

func (t *Trend) Value(id domain.EndpointID) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.avgs[id]
	if !ok {
		return 0, false
	}
	return a.Value(), true
}
