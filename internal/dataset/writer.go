// Package dataset captures recorded episodes as JSONL frame logs on the
// rig's local disk.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Frame is one sampled step of a recorded episode.
type Frame struct {
	Episode     int                `json:"episode"`
	Timestamp   float64            `json:"timestamp"`
	Observation map[string]float64 `json:"observation"`
	Action      map[string]float64 `json:"action"`
}

// Summary describes a completed recording run.
type Summary struct {
	RepoID     string    `json:"repo_id"`
	Task       string    `json:"task"`
	Episodes   int       `json:"episodes"`
	Frames     int       `json:"frames"`
	Rerecorded int       `json:"rerecorded"`
	FPS        int       `json:"fps"`
	FinishedAt time.Time `json:"finished_at"`
}

// Sink receives recorded frames, one episode at a time. A discarded
// episode leaves no trace; Finalize seals the run.
type Sink interface {
	BeginEpisode(index int) error
	WriteFrame(f Frame) error
	EndEpisode() error
	DiscardEpisode() error
	Finalize(s Summary) error
}

// Writer is the JSONL Sink. Episodes land as
// <root>/<repo_id>/episode_<n>.jsonl, with a meta.json summary written on
// Finalize. Re-recorded takes of the same episode index overwrite the
// discarded file.
type Writer struct {
	dir  string
	file *os.File
	buf  *bufio.Writer
	path string
}

func NewWriter(root, repoID string) (*Writer, error) {
	dir := filepath.Join(root, filepath.FromSlash(repoID))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create dataset dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) BeginEpisode(index int) error {
	if w.file != nil {
		return fmt.Errorf("episode already open")
	}
	w.path = filepath.Join(w.dir, fmt.Sprintf("episode_%06d.jsonl", index))
	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("create episode file: %w", err)
	}
	w.file = f
	w.buf = bufio.NewWriter(f)
	return nil
}

func (w *Writer) WriteFrame(f Frame) error {
	if w.file == nil {
		return fmt.Errorf("no open episode")
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	if _, err := w.buf.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

func (w *Writer) EndEpisode() error {
	if w.file == nil {
		return fmt.Errorf("no open episode")
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		w.reset()
		return fmt.Errorf("flush episode: %w", err)
	}
	err := w.file.Close()
	w.reset()
	if err != nil {
		return fmt.Errorf("close episode: %w", err)
	}
	return nil
}

// DiscardEpisode closes and removes the episode in progress.
func (w *Writer) DiscardEpisode() error {
	if w.file == nil {
		return fmt.Errorf("no open episode")
	}
	w.file.Close()
	err := os.Remove(w.path)
	w.reset()
	if err != nil {
		return fmt.Errorf("discard episode: %w", err)
	}
	return nil
}

func (w *Writer) Finalize(s Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	path := filepath.Join(w.dir, "meta.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

func (w *Writer) reset() {
	w.file = nil
	w.buf = nil
	w.path = ""
}
