package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/livelab/backend/internal/control"
	"github.com/livelab/backend/internal/telemetry"
)

var (
	// ErrAlreadyActive rejects a start while a session is running.
	ErrAlreadyActive = errors.New("session already active")
	// ErrNotActive rejects control calls while no session is running.
	ErrNotActive = errors.New("no active session")
	// ErrNotRecording rejects episode controls on a teleoperation session.
	ErrNotRecording = errors.New("active session is not recording")
)

// StartRequest carries everything needed to launch a run. Recording
// fields are ignored for teleoperation sessions.
type StartRequest struct {
	Kind           Kind   `json:"kind"`
	LeaderPort     string `json:"leader_port"`
	FollowerPort   string `json:"follower_port"`
	LeaderConfig   string `json:"leader_config"`
	FollowerConfig string `json:"follower_config"`

	DatasetRepoID string `json:"dataset_repo_id,omitempty"`
	SingleTask    string `json:"single_task,omitempty"`
	NumEpisodes   int    `json:"num_episodes,omitempty"`
	EpisodeTimeS  int    `json:"episode_time_s,omitempty"`
	ResetTimeS    int    `json:"reset_time_s,omitempty"`
	FPS           int    `json:"fps,omitempty"`
}

// Controls lists which session controls are currently meaningful.
type Controls struct {
	Stop            bool `json:"stop"`
	SkipEpisode     bool `json:"skip_episode"`
	RerecordEpisode bool `json:"rerecord_episode"`
}

// Status is a point-in-time snapshot of the session state.
type Status struct {
	Active            bool       `json:"active"`
	Kind              Kind       `json:"kind"`
	StartedAt         *time.Time `json:"started_at,omitempty"`
	AvailableControls Controls   `json:"available_controls"`
}

// RunFunc executes a blocking control loop run. It is called on the
// worker goroutine with the session's fresh signal set and returns when
// the loop exits.
type RunFunc func(ctx context.Context, req StartRequest, events *control.Events) error

// Controller guarantees at most one control loop runs at a time. Start
// launches the run on a dedicated worker goroutine and returns
// immediately; stop, skip and redo only flip flags on the live signal
// set, so cancellation is cooperative and bounded by the loop's own
// polling interval. There is deliberately no hard-kill timeout: an unresponsive
// loop holds the serial bus, and abandoning it would not free the
// hardware.
type Controller struct {
	run RunFunc
	pub telemetry.Publisher

	mu        sync.Mutex
	active    bool
	kind      Kind
	startedAt time.Time
	events    *control.Events
	cancel    context.CancelFunc
}

func NewController(run RunFunc, pub telemetry.Publisher) *Controller {
	if pub == nil {
		pub = telemetry.Discard{}
	}
	return &Controller{run: run, pub: pub}
}

// Start launches a run. Fails with ErrAlreadyActive if a session exists;
// never blocks on loop completion.
func (c *Controller) Start(req StartRequest) error {
	if req.Kind != Teleoperation && req.Kind != Recording {
		return fmt.Errorf("unknown session kind %q", req.Kind)
	}

	c.mu.Lock()
	if c.active {
		c.mu.Unlock()
		return ErrAlreadyActive
	}

	events := control.NewEvents()
	ctx, cancel := context.WithCancel(context.Background())
	c.active = true
	c.kind = req.Kind
	c.startedAt = time.Now()
	c.events = events
	c.cancel = cancel
	c.mu.Unlock()

	log.Printf("session started: %s", req.Kind)
	go c.worker(ctx, req, events)
	return nil
}

// worker is the only goroutine that runs the control loop. Failures are
// absorbed here: they tear the session down and surface via status and
// the telemetry stream, never via Start's caller. Every exit path,
// panics included, publishes session_end after any session_error.
func (c *Controller) worker(ctx context.Context, req StartRequest, events *control.Events) {
	defer c.teardown()
	defer func() {
		c.pub.Publish(telemetry.SessionEnd())
	}()
	defer func() {
		if r := recover(); r != nil {
			log.Printf("session worker panic: %v", r)
			c.pub.Publish(telemetry.SessionError(fmt.Sprintf("panic: %v", r)))
		}
	}()

	err := c.run(ctx, req, events)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("session run failed: %v", err)
		c.pub.Publish(telemetry.SessionError(err.Error()))
	}
}

func (c *Controller) teardown() {
	c.mu.Lock()
	kind := c.kind
	c.active = false
	c.kind = None
	c.events = nil
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	log.Printf("session ended: %s", kind)
}

// Stop requests the active run to end. The request is cooperative: this
// returns immediately, without waiting for the worker to exit.
func (c *Controller) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrNotActive
	}
	c.events.RequestStop()
	log.Printf("session stop requested")
	return nil
}

// SkipEpisode asks the recording loop to end the current episode early.
func (c *Controller) SkipEpisode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrNotActive
	}
	if c.kind != Recording {
		return ErrNotRecording
	}
	c.events.RequestSkip()
	log.Printf("episode skip requested")
	return nil
}

// RedoEpisode asks the recording loop to discard the current episode and
// record it again.
func (c *Controller) RedoEpisode() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active {
		return ErrNotActive
	}
	if c.kind != Recording {
		return ErrNotRecording
	}
	c.events.RequestRerecord()
	log.Printf("episode re-record requested")
	return nil
}

// Status reports the current session state.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := Status{Active: c.active, Kind: c.kind}
	if c.active {
		t := c.startedAt
		st.StartedAt = &t
		st.AvailableControls = Controls{
			Stop:            true,
			SkipEpisode:     c.kind == Recording,
			RerecordEpisode: c.kind == Recording,
		}
	}
	return st
}

// Shutdown cancels the worker's context during process shutdown. Unlike
// Stop, this also interrupts the run between input polls at the next
// ticker wait.
func (c *Controller) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}
