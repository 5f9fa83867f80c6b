package control

import "testing"

func TestEventsStartClear(t *testing.T) {
	ev := NewEvents()

	if ev.StopRequested() || ev.ExitEarly() || ev.Rerecord() {
		t.Error("fresh signal set should have all flags cleared")
	}
}

func TestRequestStop(t *testing.T) {
	ev := NewEvents()
	ev.RequestStop()

	if !ev.StopRequested() {
		t.Error("StopRequested should be set")
	}
	if !ev.ExitEarly() {
		t.Error("stop should imply exit-early")
	}
	if ev.Rerecord() {
		t.Error("stop should not set rerecord")
	}
}

func TestRequestSkip(t *testing.T) {
	ev := NewEvents()
	ev.RequestSkip()

	if !ev.ExitEarly() {
		t.Error("ExitEarly should be set")
	}
	if ev.StopRequested() {
		t.Error("skip should not set stop")
	}
	if ev.Rerecord() {
		t.Error("skip should not set rerecord")
	}
}

func TestRequestRerecord(t *testing.T) {
	ev := NewEvents()
	ev.RequestRerecord()

	if !ev.Rerecord() {
		t.Error("Rerecord should be set")
	}
	if !ev.ExitEarly() {
		t.Error("rerecord should imply exit-early")
	}
	if ev.StopRequested() {
		t.Error("rerecord should not set stop")
	}
}

func TestClearEpisodeFlagsKeepsStop(t *testing.T) {
	ev := NewEvents()
	ev.RequestRerecord()
	ev.RequestStop()

	ev.ClearEpisodeFlags()

	if ev.ExitEarly() {
		t.Error("ClearEpisodeFlags should clear exit-early")
	}
	if ev.Rerecord() {
		t.Error("ClearEpisodeFlags should clear rerecord")
	}
	if !ev.StopRequested() {
		t.Error("ClearEpisodeFlags must never clear the stop flag")
	}
}

func TestFlagsDoNotRevert(t *testing.T) {
	ev := NewEvents()
	ev.RequestStop()

	// Repeated reads must keep observing the flag.
	for i := 0; i < 3; i++ {
		if !ev.StopRequested() {
			t.Fatalf("read %d: stop flag reverted", i)
		}
	}
}
