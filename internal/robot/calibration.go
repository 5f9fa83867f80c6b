package robot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// MotorCalibration holds calibration data for a single motor.
type MotorCalibration struct {
	ID           int `json:"id"`
	DriveMode    int `json:"drive_mode"`
	HomingOffset int `json:"homing_offset"`
	RangeMin     int `json:"range_min"`
	RangeMax     int `json:"range_max"`
}

// Calibration holds calibration data for all motors, keyed by motor name.
type Calibration map[MotorName]MotorCalibration

// LoadCalibration loads calibration data from a JSON file.
func LoadCalibration(path string) (Calibration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read calibration file: %w", err)
	}

	var raw map[string]MotorCalibration
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse calibration JSON: %w", err)
	}

	cal := make(Calibration, len(raw))
	for name, mc := range raw {
		cal[MotorName(name)] = mc
	}

	return cal, nil
}

// Normalize converts a raw servo position to a normalized value in the
// range [-100, 100].
func (c MotorCalibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	return (float64(raw-c.RangeMin)/rangeSize)*200 - 100
}

// Denormalize converts a normalized value [-100, 100] to a raw servo position.
func (c MotorCalibration) Denormalize(norm float64) int {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int((norm+100)/200*rangeSize) + c.RangeMin
}

// MotorIDs returns the servo IDs for all motors in the calibration,
// in canonical motor order.
func (c Calibration) MotorIDs() []int {
	ids := make([]int, 0, len(c))
	for _, name := range AllMotors() {
		if mc, ok := c[name]; ok {
			ids = append(ids, mc.ID)
		}
	}
	return ids
}

// ByID returns motor name and calibration for a given servo ID.
func (c Calibration) ByID(id int) (MotorName, MotorCalibration, bool) {
	for name, mc := range c {
		if mc.ID == id {
			return name, mc, true
		}
	}
	return "", MotorCalibration{}, false
}

// DeviceRole distinguishes the two calibration subtrees used by the rig.
type DeviceRole string

const (
	RoleTeleoperator DeviceRole = "teleoperators"
	RoleRobot        DeviceRole = "robots"
)

// CalibrationStore resolves calibration files on disk, laid out as
// <base>/<role>/<device>/<id>.json.
type CalibrationStore struct {
	base string
}

func NewCalibrationStore(base string) *CalibrationStore {
	return &CalibrationStore{base: base}
}

// PathFor returns the expected location of a calibration file.
func (s *CalibrationStore) PathFor(role DeviceRole, device, id string) string {
	return filepath.Join(s.base, string(role), device, id+".json")
}

// List returns the calibration file names available for a device.
func (s *CalibrationStore) List(role DeviceRole, device string) ([]string, error) {
	pattern := filepath.Join(s.base, string(role), device, "*.json")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("list calibrations: %w", err)
	}
	names := make([]string, 0, len(matches))
	for _, m := range matches {
		names = append(names, filepath.Base(m))
	}
	return names, nil
}

// Load reads the calibration for a device id.
func (s *CalibrationStore) Load(role DeviceRole, device, id string) (Calibration, error) {
	return LoadCalibration(s.PathFor(role, device, id))
}

// Ensure guarantees the calibration for id is present at its expected
// location, copying it from source if absent. Returns the calibration id
// (the file name with its .json extension stripped).
func (s *CalibrationStore) Ensure(role DeviceRole, device, file, sourceDir string) (string, error) {
	id := strings.TrimSuffix(file, ".json")
	target := s.PathFor(role, device, id)

	if _, err := os.Stat(target); err == nil {
		return id, nil
	}
	if sourceDir == "" {
		return "", fmt.Errorf("calibration %s not found at %s", file, target)
	}

	source := filepath.Join(sourceDir, file)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return "", fmt.Errorf("create calibration dir: %w", err)
	}
	if err := copyFile(source, target); err != nil {
		return "", fmt.Errorf("copy calibration %s: %w", file, err)
	}
	return id, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
