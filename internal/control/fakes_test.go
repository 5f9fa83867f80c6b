package control

import (
	"context"
	"sync"

	"github.com/livelab/backend/internal/dataset"
	"github.com/livelab/backend/internal/robot"
	"github.com/livelab/backend/internal/telemetry"
)

// fakeBus records the call sequence and serves canned positions.
type fakeBus struct {
	mu         sync.Mutex
	calls      []string
	positions  map[string]float64
	lastAction map[string]float64
	connectErr error
}

func newFakeBus() *fakeBus {
	return &fakeBus{
		positions: map[string]float64{
			"shoulder_pan.pos": 10,
			"gripper.pos":      -20,
		},
	}
}

func (f *fakeBus) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeBus) callSequence() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBus) Connect() error {
	f.record("connect")
	return f.connectErr
}

func (f *fakeBus) WriteCalibration(cal robot.Calibration) error {
	f.record("write_calibration")
	return nil
}

func (f *fakeBus) Configure(ctx context.Context) error {
	f.record("configure")
	return nil
}

func (f *fakeBus) Observation(ctx context.Context) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obs := make(map[string]float64, len(f.positions))
	for k, v := range f.positions {
		obs[k] = v
	}
	return obs, nil
}

func (f *fakeBus) SendAction(ctx context.Context, action map[string]float64) error {
	f.mu.Lock()
	f.lastAction = action
	f.mu.Unlock()
	return nil
}

func (f *fakeBus) Disconnect() error {
	f.record("disconnect")
	return nil
}

// capturePub collects published events for assertions.
type capturePub struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (p *capturePub) Publish(ev telemetry.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *capturePub) byType(typ string) []telemetry.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []telemetry.Event
	for _, ev := range p.events {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// fakeSink counts sink operations in memory.
type fakeSink struct {
	mu         sync.Mutex
	begins     int
	frames     int
	ends       int
	discards   int
	finalized  *dataset.Summary
	open       bool
	writeErr   error
	discardErr error
}

func (s *fakeSink) BeginEpisode(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begins++
	s.open = true
	return nil
}

func (s *fakeSink) WriteFrame(f dataset.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	s.frames++
	return nil
}

func (s *fakeSink) EndEpisode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ends++
	s.open = false
	return nil
}

func (s *fakeSink) DiscardEpisode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discards++
	s.open = false
	return s.discardErr
}

func (s *fakeSink) Finalize(sum dataset.Summary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finalized = &sum
	return nil
}

func (s *fakeSink) counts() (begins, frames, ends, discards int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.begins, s.frames, s.ends, s.discards
}
