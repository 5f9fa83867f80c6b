// Package control implements the blocking control routines and the
// cooperative signal set that substitutes for keyboard input when the rig
// is driven from the web surface.
package control

import "sync/atomic"

// Inputs is the signal source a control routine polls at safe points in
// its loop, in place of a physical keyboard. Cancellation is cooperative
// only: a routine that never polls cannot be interrupted.
type Inputs interface {
	// StopRequested reports whether the whole run should end.
	StopRequested() bool
	// ExitEarly reports whether the current episode should end.
	ExitEarly() bool
	// Rerecord reports whether the current episode should be discarded
	// and recorded again.
	Rerecord() bool
	// ClearEpisodeFlags resets the episode-scoped flags (exit-early and
	// rerecord) once the routine has acted on them. The stop flag is
	// never cleared during a run.
	ClearEpisodeFlags()
}

// Events is the signal set shared between the HTTP surface and the worker
// goroutine running the control loop. One Events is created per session
// and discarded with it; flags only ever transition false→true from the
// outside, and are cleared only by the routine itself between episodes.
type Events struct {
	exitEarly       atomic.Bool
	stopRequested   atomic.Bool
	rerecordEpisode atomic.Bool
}

func NewEvents() *Events {
	return &Events{}
}

// RequestStop asks the routine to end the run. Implies exit-early so a
// recording episode in progress wraps up immediately.
func (e *Events) RequestStop() {
	e.stopRequested.Store(true)
	e.exitEarly.Store(true)
}

// RequestSkip asks the routine to end the current episode and move on.
func (e *Events) RequestSkip() {
	e.exitEarly.Store(true)
}

// RequestRerecord asks the routine to discard the current episode and
// record it again. Implies exit-early.
func (e *Events) RequestRerecord() {
	e.rerecordEpisode.Store(true)
	e.exitEarly.Store(true)
}

func (e *Events) StopRequested() bool { return e.stopRequested.Load() }
func (e *Events) ExitEarly() bool     { return e.exitEarly.Load() }
func (e *Events) Rerecord() bool      { return e.rerecordEpisode.Load() }

func (e *Events) ClearEpisodeFlags() {
	e.exitEarly.Store(false)
	e.rerecordEpisode.Store(false)
}
