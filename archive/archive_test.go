package archive

import (
	"path/filepath"
	"testing"

	"qecd/stats"
)

func openTestArchive(t *testing.T) *Archive {
	t.Helper()
	a, err := Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestBeginAndFinishRun(t *testing.T) {
	a := openTestArchive(t)

	runID, err := a.BeginRun("deadbeef", 1000, 1700000000)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if runID == 0 {
		t.Fatal("BeginRun returned zero runID")
	}
	if err := a.FinishRun(runID, 1700000050); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
}

func TestRecordAndReadTicksRoundTrip(t *testing.T) {
	a := openTestArchive(t)

	runID, err := a.BeginRun("cafef00d", 500, 1700000000)
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}

	snap := stats.Snapshot{
		ShotsDone: 42,
		CyclesSum: 12345,
		CyclesMin: 10,
		CyclesMax: 900,
		Malformed: 1,
	}
	if err := a.RecordTick(runID, 1700000010, snap); err != nil {
		t.Fatalf("RecordTick: %v", err)
	}

	ticks, err := a.Ticks(runID)
	if err != nil {
		t.Fatalf("Ticks: %v", err)
	}
	if len(ticks) != 1 {
		t.Fatalf("len(ticks) = %d, want 1", len(ticks))
	}
	if ticks[0].Snapshot != snap {
		t.Fatalf("round-tripped snapshot = %+v, want %+v", ticks[0].Snapshot, snap)
	}
	if ticks[0].TickAtUnix != 1700000010 {
		t.Fatalf("TickAtUnix = %d, want 1700000010", ticks[0].TickAtUnix)
	}
}

func TestTicksOrderedByTime(t *testing.T) {
	a := openTestArchive(t)
	runID, _ := a.BeginRun("abc", 1, 0)

	a.RecordTick(runID, 300, stats.Snapshot{})
	a.RecordTick(runID, 100, stats.Snapshot{})
	a.RecordTick(runID, 200, stats.Snapshot{})

	ticks, err := a.Ticks(runID)
	if err != nil {
		t.Fatalf("Ticks: %v", err)
	}
	if len(ticks) != 3 {
		t.Fatalf("len(ticks) = %d, want 3", len(ticks))
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].TickAtUnix < ticks[i-1].TickAtUnix {
			t.Fatalf("ticks not ordered: %+v", ticks)
		}
	}
}
