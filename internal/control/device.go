package control

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/livelab/backend/internal/robot"
	"github.com/livelab/backend/internal/telemetry"
)

// Device pairs a bus with the calibration to install on it.
type Device struct {
	Name        string
	Bus         robot.Bus
	Calibration robot.Calibration
}

// open runs the mandatory bus bring-up sequence: connect, write
// calibration, configure.
func (d Device) open(ctx context.Context) error {
	if err := d.Bus.Connect(); err != nil {
		return fmt.Errorf("connect %s: %w", d.Name, err)
	}
	if err := d.Bus.WriteCalibration(d.Calibration); err != nil {
		d.close()
		return fmt.Errorf("write calibration %s: %w", d.Name, err)
	}
	if err := d.Bus.Configure(ctx); err != nil {
		d.close()
		return fmt.Errorf("configure %s: %w", d.Name, err)
	}
	return nil
}

func (d Device) close() {
	if err := d.Bus.Disconnect(); err != nil {
		log.Printf("disconnect %s: %v", d.Name, err)
	}
}

// TelemetryInterval caps the telemetry cadence at 20 events/second so a
// fast control loop never floods observers.
const TelemetryInterval = 50 * time.Millisecond

// sampler throttles joint telemetry to a fixed cadence, independent of
// the control loop's actuation frequency.
type sampler struct {
	pub      telemetry.Publisher
	interval time.Duration
	last     time.Time
}

func newSampler(pub telemetry.Publisher, interval time.Duration) *sampler {
	if interval <= 0 {
		interval = TelemetryInterval
	}
	return &sampler{pub: pub, interval: interval}
}

// sample publishes a joint update when the cadence allows it, reading the
// follower's observation on demand. Read errors are logged and skipped;
// telemetry never aborts the loop.
func (s *sampler) sample(ctx context.Context, follower Device) map[string]float64 {
	if time.Since(s.last) < s.interval {
		return nil
	}
	obs, err := follower.Bus.Observation(ctx)
	if err != nil {
		log.Printf("telemetry read %s: %v", follower.Name, err)
		return nil
	}
	s.last = time.Now()
	s.pub.Publish(telemetry.JointUpdate(robot.JointPositions(obs)))
	return obs
}
