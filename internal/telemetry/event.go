// Package telemetry defines the events streamed to connected observers.
package telemetry

import "time"

const (
	TypeJointUpdate  = "joint_update"
	TypeSessionError = "session_error"
	TypeSessionEnd   = "session_end"
)

// Event is a single telemetry message. Events are produced inside the
// control loop, handed to the broadcast bridge and discarded after
// delivery; they are never persisted.
type Event struct {
	Type      string             `json:"type"`
	Joints    map[string]float64 `json:"joints,omitempty"`
	Timestamp float64            `json:"timestamp"`
	Message   string             `json:"message,omitempty"`
}

// Publisher accepts events for delivery. Implementations must never block
// the caller; telemetry is best-effort.
type Publisher interface {
	Publish(ev Event)
}

func now() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}

// JointUpdate builds a joint position event from URDF joint angles in radians.
func JointUpdate(joints map[string]float64) Event {
	return Event{Type: TypeJointUpdate, Joints: joints, Timestamp: now()}
}

// SessionError reports a mid-run failure to observers.
func SessionError(msg string) Event {
	return Event{Type: TypeSessionError, Message: msg, Timestamp: now()}
}

// SessionEnd reports that the active session's control loop has exited.
func SessionEnd() Event {
	return Event{Type: TypeSessionEnd, Timestamp: now()}
}

// Discard is a Publisher that drops every event. Useful when no bridge is
// wired, and in tests.
type Discard struct{}

func (Discard) Publish(Event) {}
