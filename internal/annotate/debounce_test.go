package annotate

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestDeferred_BurstCoalescesToOneRun(t *testing.T) {
	d := NewDeferred(20 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int32
	for i := 0; i < 10; i++ {
		d.Schedule(func() { runs.Add(1) })
		time.Sleep(time.Millisecond)
	}

	deadline := time.After(2 * time.Second)
	for runs.Load() == 0 {
		select {
		case <-deadline:
			t.Fatalf("deferred task never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}
	// Quiet period long past; nothing further may fire.
	time.Sleep(60 * time.Millisecond)
	if got := runs.Load(); got != 1 {
		t.Errorf("expected exactly 1 run, got %d", got)
	}
}

func TestDeferred_ScheduleReplacesPendingTask(t *testing.T) {
	d := NewDeferred(20 * time.Millisecond)
	defer d.Stop()

	var first, second atomic.Int32
	d.Schedule(func() { first.Add(1) })
	d.Schedule(func() { second.Add(1) })

	time.Sleep(80 * time.Millisecond)
	if first.Load() != 0 {
		t.Errorf("expected replaced task not to run")
	}
	if second.Load() != 1 {
		t.Errorf("expected replacement task to run once, got %d", second.Load())
	}
}

func TestDeferred_StopIsPermanent(t *testing.T) {
	d := NewDeferred(5 * time.Millisecond)

	var runs atomic.Int32
	d.Schedule(func() { runs.Add(1) })
	d.Stop()

	d.Schedule(func() { runs.Add(1) })
	time.Sleep(40 * time.Millisecond)
	if got := runs.Load(); got != 0 {
		t.Errorf("expected stopped deferred to ignore scheduling, got %d runs", got)
	}
}
