// Package robot provides the device bus and calibration handling for
// SO-101 arms.
package robot

import "math"

// MotorName identifies a motor in the arm.
type MotorName string

// Motor names for the SO-101 arm, in servo ID order (1-6).
const (
	ShoulderPan  MotorName = "shoulder_pan"
	ShoulderLift MotorName = "shoulder_lift"
	ElbowFlex    MotorName = "elbow_flex"
	WristFlex    MotorName = "wrist_flex"
	WristRoll    MotorName = "wrist_roll"
	Gripper      MotorName = "gripper"
)

// AllMotors returns all motor names in order (matching servo IDs 1-6).
func AllMotors() []MotorName {
	return []MotorName{
		ShoulderPan,
		ShoulderLift,
		ElbowFlex,
		WristFlex,
		WristRoll,
		Gripper,
	}
}

// urdfJoints maps motor names to the joint names used by the URDF viewer
// on the frontend.
var urdfJoints = map[MotorName]string{
	ShoulderPan:  "Rotation",
	ShoulderLift: "Pitch",
	ElbowFlex:    "Elbow",
	WristFlex:    "Wrist_Pitch",
	WristRoll:    "Wrist_Roll",
	Gripper:      "Jaw",
}

// ObservationKey returns the observation map key for a motor's position.
func ObservationKey(name MotorName) string {
	return string(name) + ".pos"
}

// JointPositions converts a bus observation into URDF joint angles in
// radians. Motors missing from the observation report 0.
func JointPositions(obs map[string]float64) map[string]float64 {
	joints := make(map[string]float64, len(urdfJoints))
	for motor, joint := range urdfJoints {
		deg, ok := obs[ObservationKey(motor)]
		if !ok {
			joints[joint] = 0
			continue
		}
		joints[joint] = deg * math.Pi / 180
	}
	return joints
}
