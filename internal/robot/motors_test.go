package robot

import (
	"math"
	"testing"
)

func TestObservationKey(t *testing.T) {
	if got := ObservationKey(ShoulderPan); got != "shoulder_pan.pos" {
		t.Errorf("ObservationKey = %q, want shoulder_pan.pos", got)
	}
}

func TestJointPositions(t *testing.T) {
	obs := map[string]float64{
		"shoulder_pan.pos": 90,
		"elbow_flex.pos":   -45,
		"gripper.pos":      10,
	}
	joints := JointPositions(obs)

	tests := []struct {
		joint string
		want  float64
	}{
		{"Rotation", math.Pi / 2},
		{"Elbow", -math.Pi / 4},
		{"Jaw", 10 * math.Pi / 180},
		// Motors absent from the observation report zero.
		{"Pitch", 0},
		{"Wrist_Pitch", 0},
		{"Wrist_Roll", 0},
	}
	for _, tt := range tests {
		got, ok := joints[tt.joint]
		if !ok {
			t.Errorf("joint %q missing", tt.joint)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", tt.joint, got, tt.want)
		}
	}
	if len(joints) != 6 {
		t.Errorf("got %d joints, want 6", len(joints))
	}
}

func TestAllMotorsOrder(t *testing.T) {
	motors := AllMotors()
	if len(motors) != 6 {
		t.Fatalf("got %d motors, want 6", len(motors))
	}
	if motors[0] != ShoulderPan || motors[5] != Gripper {
		t.Errorf("motor order = %v", motors)
	}
}
