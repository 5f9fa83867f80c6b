package control

import (
	"context"
	"log"
	"time"

	"github.com/livelab/backend/internal/telemetry"
)

// TeleopConfig configures a teleoperation run.
type TeleopConfig struct {
	// Hz is the actuation frequency. Defaults to 60.
	Hz int
	// TelemetryInterval overrides the joint broadcast cadence.
	TelemetryInterval time.Duration
}

// Teleoperate runs the leader→follower control loop until the inputs
// request a stop or the context is cancelled. It blocks for the whole run
// and must be called from a dedicated worker goroutine.
//
// Both buses are brought up in the connect → write-calibration → configure
// sequence and disconnected on every exit path.
func Teleoperate(ctx context.Context, cfg TeleopConfig, leader, follower Device, inputs Inputs, pub telemetry.Publisher) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}

	if err := leader.open(ctx); err != nil {
		return err
	}
	defer leader.close()

	if err := follower.open(ctx); err != nil {
		return err
	}
	defer follower.close()

	log.Printf("teleoperation started at %d Hz", cfg.Hz)
	defer log.Printf("teleoperation stopped")

	joints := newSampler(pub, cfg.TelemetryInterval)
	ticker := time.NewTicker(time.Second / time.Duration(cfg.Hz))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		action, err := leader.Bus.Observation(ctx)
		if err != nil {
			log.Printf("read %s: %v", leader.Name, err)
			continue
		}
		if err := follower.Bus.SendAction(ctx, action); err != nil {
			log.Printf("write %s: %v", follower.Name, err)
		}

		joints.sample(ctx, follower)

		if inputs.StopRequested() || inputs.ExitEarly() {
			return nil
		}
	}
}
