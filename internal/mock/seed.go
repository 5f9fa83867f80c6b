package mock

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/livelab/backend/internal/robot"
)

// SeedCalibrations writes a default calibration file for both rig devices
// under the store base dir, so mock mode works on a fresh machine.
// Existing files are left alone.
func SeedCalibrations(base string) error {
	cal := make(map[string]robot.MotorCalibration, 6)
	for i, name := range robot.AllMotors() {
		cal[string(name)] = robot.MotorCalibration{
			ID:       i + 1,
			RangeMin: 0,
			RangeMax: 4095,
		}
	}
	data, err := json.MarshalIndent(cal, "", "  ")
	if err != nil {
		return err
	}

	targets := []string{
		filepath.Join(base, "teleoperators", "so101_leader", "default.json"),
		filepath.Join(base, "robots", "so101_follower", "default.json"),
	}
	for _, target := range targets {
		if _, err := os.Stat(target); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("create calibration dir: %w", err)
		}
		if err := os.WriteFile(target, data, 0644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
	}
	return nil
}
