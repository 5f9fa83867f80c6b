package robot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func writeCalibrationFile(t *testing.T, path string, cal map[string]MotorCalibration) {
	t.Helper()
	data, err := json.Marshal(cal)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
}

func fullCalibration() map[string]MotorCalibration {
	cal := make(map[string]MotorCalibration, 6)
	for i, name := range AllMotors() {
		cal[string(name)] = MotorCalibration{ID: i + 1, RangeMin: 0, RangeMax: 4095}
	}
	return cal
}

func TestLoadCalibration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.json")
	writeCalibrationFile(t, path, fullCalibration())

	cal, err := LoadCalibration(path)
	if err != nil {
		t.Fatalf("LoadCalibration: %v", err)
	}
	if len(cal) != 6 {
		t.Fatalf("got %d motors, want 6", len(cal))
	}
	if cal[Gripper].ID != 6 {
		t.Errorf("gripper ID = %d, want 6", cal[Gripper].ID)
	}
}

func TestLoadCalibrationErrors(t *testing.T) {
	if _, err := LoadCalibration(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCalibration(path); err == nil {
		t.Error("invalid JSON should fail")
	}
}

func TestNormalizeDenormalize(t *testing.T) {
	mc := MotorCalibration{RangeMin: 1000, RangeMax: 3000}

	tests := []struct {
		raw  int
		norm float64
	}{
		{1000, -100},
		{2000, 0},
		{3000, 100},
		{1500, -50},
	}
	for _, tt := range tests {
		if got := mc.Normalize(tt.raw); got != tt.norm {
			t.Errorf("Normalize(%d) = %v, want %v", tt.raw, got, tt.norm)
		}
		if got := mc.Denormalize(tt.norm); got != tt.raw {
			t.Errorf("Denormalize(%v) = %d, want %d", tt.norm, got, tt.raw)
		}
	}
}

func TestNormalizeZeroRange(t *testing.T) {
	mc := MotorCalibration{RangeMin: 2048, RangeMax: 2048}
	if got := mc.Normalize(2048); got != 0 {
		t.Errorf("Normalize with zero range = %v, want 0", got)
	}
}

func TestMotorIDsCanonicalOrder(t *testing.T) {
	cal := Calibration{
		Gripper:     {ID: 6},
		ShoulderPan: {ID: 1},
		ElbowFlex:   {ID: 3},
	}
	got := cal.MotorIDs()
	want := []int{1, 3, 6}
	if len(got) != len(want) {
		t.Fatalf("MotorIDs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("MotorIDs = %v, want %v", got, want)
		}
	}
}

func TestByID(t *testing.T) {
	cal := Calibration{
		ShoulderPan: {ID: 1, RangeMax: 4095},
		WristRoll:   {ID: 5},
	}

	name, mc, ok := cal.ByID(5)
	if !ok || name != WristRoll {
		t.Errorf("ByID(5) = %q, %v, %v", name, mc, ok)
	}
	if _, _, ok := cal.ByID(9); ok {
		t.Error("ByID(9) should report absence")
	}
}

func TestStorePathForAndList(t *testing.T) {
	s := NewCalibrationStore(t.TempDir())

	writeCalibrationFile(t, s.PathFor(RoleTeleoperator, "so101_leader", "blue"), fullCalibration())
	writeCalibrationFile(t, s.PathFor(RoleTeleoperator, "so101_leader", "green"), fullCalibration())
	writeCalibrationFile(t, s.PathFor(RoleRobot, "so101_follower", "red"), fullCalibration())

	names, err := s.List(RoleTeleoperator, "so101_leader")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("List = %v, want 2 entries", names)
	}

	names, err = s.List(RoleRobot, "so101_follower")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "red.json" {
		t.Errorf("follower List = %v, want [red.json]", names)
	}
}

func TestStoreEnsureCopies(t *testing.T) {
	s := NewCalibrationStore(t.TempDir())
	sourceDir := t.TempDir()
	writeCalibrationFile(t, filepath.Join(sourceDir, "uploaded.json"), fullCalibration())

	id, err := s.Ensure(RoleRobot, "so101_follower", "uploaded.json", sourceDir)
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if id != "uploaded" {
		t.Errorf("id = %q, want uploaded", id)
	}
	if _, err := os.Stat(s.PathFor(RoleRobot, "so101_follower", "uploaded")); err != nil {
		t.Errorf("calibration not copied: %v", err)
	}

	// Second Ensure finds the copy and does not need the source.
	if _, err := s.Ensure(RoleRobot, "so101_follower", "uploaded.json", ""); err != nil {
		t.Errorf("Ensure of present file: %v", err)
	}
}

func TestStoreEnsureMissing(t *testing.T) {
	s := NewCalibrationStore(t.TempDir())

	if _, err := s.Ensure(RoleRobot, "so101_follower", "nope.json", ""); err == nil {
		t.Error("Ensure without source should fail for an absent file")
	}
	if _, err := s.Ensure(RoleRobot, "so101_follower", "nope.json", t.TempDir()); err == nil {
		t.Error("Ensure should fail when the source file is absent too")
	}
}
