// Package mock provides a synthetic device bus so the control surface can
// be exercised without a serial rig attached.
package mock

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/livelab/backend/internal/robot"
)

// Bus simulates an SO-101 arm. Observations sweep each joint through a
// slow sine wave; actions are stored and echoed back blended into the
// sweep, so a mock follower visibly tracks a mock leader.
type Bus struct {
	name      string
	connected bool
	start     time.Time

	mu     sync.Mutex
	action map[string]float64
}

func NewBus(name string) *Bus {
	return &Bus{name: name, start: time.Now()}
}

func (b *Bus) Connect() error {
	b.connected = true
	return nil
}

func (b *Bus) WriteCalibration(cal robot.Calibration) error {
	return nil
}

func (b *Bus) Configure(ctx context.Context) error {
	return nil
}

func (b *Bus) Observation(ctx context.Context) (map[string]float64, error) {
	b.mu.Lock()
	action := b.action
	b.mu.Unlock()

	t := time.Since(b.start).Seconds()
	obs := make(map[string]float64, 6)
	for i, name := range robot.AllMotors() {
		key := robot.ObservationKey(name)
		sweep := 40 * math.Sin(t/3+float64(i))
		if target, ok := action[key]; ok {
			// Track the last commanded position with a little lag.
			obs[key] = target*0.9 + sweep*0.1
		} else {
			obs[key] = sweep
		}
	}
	return obs, nil
}

func (b *Bus) SendAction(ctx context.Context, action map[string]float64) error {
	copied := make(map[string]float64, len(action))
	for k, v := range action {
		copied[k] = v
	}
	b.mu.Lock()
	b.action = copied
	b.mu.Unlock()
	return nil
}

func (b *Bus) Disconnect() error {
	b.connected = false
	return nil
}
