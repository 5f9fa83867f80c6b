package session

import (
	"context"
	"fmt"
	"time"

	"github.com/livelab/backend/internal/control"
	"github.com/livelab/backend/internal/dataset"
	"github.com/livelab/backend/internal/robot"
	"github.com/livelab/backend/internal/telemetry"
)

// Device names under the calibration store, matching the SO-101
// leader/follower rig layout.
const (
	LeaderDevice   = "so101_leader"
	FollowerDevice = "so101_follower"
)

// RunnerConfig wires the rig runner to the host filesystem.
type RunnerConfig struct {
	// CalibrationSourceDir holds uploaded calibration files; Ensure
	// copies them into the store when absent.
	CalibrationSourceDir string
	DatasetRoot          string
	TeleopHz             int
	TelemetryInterval    time.Duration
}

// BusFactory builds a device bus for a serial port. torque is true for
// the follower arm. Swappable so the mock rig and tests can run without
// hardware.
type BusFactory func(port string, torque bool) robot.Bus

// FeetechFactory is the production BusFactory.
func FeetechFactory(port string, torque bool) robot.Bus {
	return robot.NewFeetechBus(robot.FeetechConfig{Port: port, Torque: torque})
}

// NewRunner builds the RunFunc that resolves calibration, constructs both
// buses and dispatches to the teleoperation or recording routine.
func NewRunner(cfg RunnerConfig, store *robot.CalibrationStore, buses BusFactory, pub telemetry.Publisher) RunFunc {
	if pub == nil {
		pub = telemetry.Discard{}
	}
	return func(ctx context.Context, req StartRequest, events *control.Events) error {
		leader, err := resolveDevice(store, robot.RoleTeleoperator, LeaderDevice, req.LeaderConfig, req.LeaderPort, cfg.CalibrationSourceDir, buses, false)
		if err != nil {
			return err
		}
		follower, err := resolveDevice(store, robot.RoleRobot, FollowerDevice, req.FollowerConfig, req.FollowerPort, cfg.CalibrationSourceDir, buses, true)
		if err != nil {
			return err
		}

		switch req.Kind {
		case Teleoperation:
			return control.Teleoperate(ctx, control.TeleopConfig{
				Hz:                cfg.TeleopHz,
				TelemetryInterval: cfg.TelemetryInterval,
			}, leader, follower, events, pub)

		case Recording:
			sink, err := dataset.NewWriter(cfg.DatasetRoot, req.DatasetRepoID)
			if err != nil {
				return err
			}
			_, err = control.Record(ctx, control.RecordConfig{
				RepoID:            req.DatasetRepoID,
				Task:              req.SingleTask,
				NumEpisodes:       req.NumEpisodes,
				EpisodeTime:       time.Duration(req.EpisodeTimeS) * time.Second,
				ResetTime:         time.Duration(req.ResetTimeS) * time.Second,
				FPS:               req.FPS,
				TelemetryInterval: cfg.TelemetryInterval,
			}, leader, follower, events, pub, sink)
			return err

		default:
			return fmt.Errorf("unknown session kind %q", req.Kind)
		}
	}
}

func resolveDevice(store *robot.CalibrationStore, role robot.DeviceRole, device, file, port, sourceDir string, buses BusFactory, torque bool) (control.Device, error) {
	id, err := store.Ensure(role, device, file, sourceDir)
	if err != nil {
		return control.Device{}, fmt.Errorf("ensure calibration for %s: %w", device, err)
	}
	cal, err := store.Load(role, device, id)
	if err != nil {
		return control.Device{}, fmt.Errorf("load calibration for %s: %w", device, err)
	}
	return control.Device{
		Name:        device,
		Bus:         buses(port, torque),
		Calibration: cal,
	}, nil
}
