package control

import (
	"context"
	"log"
	"time"

	"github.com/livelab/backend/internal/dataset"
	"github.com/livelab/backend/internal/telemetry"
)

// RecordConfig configures a recording run.
type RecordConfig struct {
	RepoID      string
	Task        string
	NumEpisodes int
	EpisodeTime time.Duration
	// ResetTime is the pause between episodes, giving the operator time
	// to reset the scene.
	ResetTime time.Duration
	// FPS is the frame capture rate. Defaults to 30.
	FPS int
	// TelemetryInterval overrides the joint broadcast cadence.
	TelemetryInterval time.Duration
}

// Result is the dataset summary a recording run returns.
type Result struct {
	Episodes   int
	Frames     int
	Rerecorded int
}

// Record runs the episode capture loop until all episodes are recorded,
// the inputs request a stop, or the context is cancelled. Skip ends the
// current episode early; rerecord discards it and records the same index
// again. It blocks for the whole run and must be called from a dedicated
// worker goroutine.
func Record(ctx context.Context, cfg RecordConfig, leader, follower Device, inputs Inputs, pub telemetry.Publisher, sink dataset.Sink) (Result, error) {
	if cfg.FPS <= 0 {
		cfg.FPS = 30
	}
	if cfg.NumEpisodes <= 0 {
		cfg.NumEpisodes = 1
	}

	var res Result

	if err := leader.open(ctx); err != nil {
		return res, err
	}
	defer leader.close()

	if err := follower.open(ctx); err != nil {
		return res, err
	}
	defer follower.close()

	log.Printf("recording %q: %d episodes at %d fps", cfg.RepoID, cfg.NumEpisodes, cfg.FPS)

	joints := newSampler(pub, cfg.TelemetryInterval)

	episode := 0
	for episode < cfg.NumEpisodes {
		if err := sink.BeginEpisode(episode); err != nil {
			return res, err
		}

		frames, err := recordEpisode(ctx, cfg, episode, leader, follower, inputs, joints, sink)
		if err != nil {
			if derr := sink.DiscardEpisode(); derr != nil {
				log.Printf("discard episode %d: %v", episode, derr)
			}
			return res, err
		}

		// The loop alone decides how to act on the flag combination:
		// stop wins over rerecord, rerecord repeats the index.
		stop := inputs.StopRequested()
		redo := inputs.Rerecord()
		inputs.ClearEpisodeFlags()

		if redo && !stop {
			log.Printf("re-recording episode %d", episode)
			if err := sink.DiscardEpisode(); err != nil {
				return res, err
			}
			res.Rerecorded++
			continue
		}

		if err := sink.EndEpisode(); err != nil {
			return res, err
		}
		res.Episodes++
		res.Frames += frames
		episode++

		if stop {
			log.Printf("recording stopped after episode %d", episode-1)
			break
		}
		if episode < cfg.NumEpisodes {
			if err := resetPause(ctx, cfg.ResetTime, inputs); err != nil {
				break
			}
			if inputs.StopRequested() {
				break
			}
		}
	}

	summary := dataset.Summary{
		RepoID:     cfg.RepoID,
		Task:       cfg.Task,
		Episodes:   res.Episodes,
		Frames:     res.Frames,
		Rerecorded: res.Rerecorded,
		FPS:        cfg.FPS,
		FinishedAt: time.Now(),
	}
	if err := sink.Finalize(summary); err != nil {
		return res, err
	}

	log.Printf("recording finished: %d episodes, %d frames, %d re-recorded",
		res.Episodes, res.Frames, res.Rerecorded)
	return res, nil
}

// recordEpisode captures frames until the episode time elapses or the
// inputs request an early exit. Returns the number of frames written.
func recordEpisode(ctx context.Context, cfg RecordConfig, episode int, leader, follower Device, inputs Inputs, joints *sampler, sink dataset.Sink) (int, error) {
	ticker := time.NewTicker(time.Second / time.Duration(cfg.FPS))
	defer ticker.Stop()

	deadline := time.Now().Add(cfg.EpisodeTime)
	frames := 0

	for {
		select {
		case <-ctx.Done():
			return frames, ctx.Err()
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

		obs := joints.sample(ctx, follower)
		if obs == nil {
			// Off the telemetry cadence; still read for the frame.
			obs, err = follower.Bus.Observation(ctx)
			if err != nil {
				log.Printf("read %s: %v", follower.Name, err)
				continue
			}
		}

		frame := dataset.Frame{
			Episode:     episode,
			Timestamp:   float64(time.Now().UnixNano()) / 1e9,
			Observation: obs,
			Action:      action,
		}
		if err := sink.WriteFrame(frame); err != nil {
			return frames, err
		}
		frames++

		if inputs.ExitEarly() || inputs.StopRequested() {
			return frames, nil
		}
		if cfg.EpisodeTime > 0 && time.Now().After(deadline) {
			return frames, nil
		}
	}
}

// resetPause waits between episodes, still honoring stop requests and
// context cancellation. A skip request cuts the pause short.
func resetPause(ctx context.Context, d time.Duration, inputs Inputs) error {
	if d <= 0 {
		return nil
	}
	deadline := time.Now().Add(d)
	ticker := time.NewTicker(TelemetryInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if inputs.StopRequested() {
			return nil
		}
		if inputs.ExitEarly() {
			inputs.ClearEpisodeFlags()
			return nil
		}
	}
	return nil
}
