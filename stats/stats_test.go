package stats

import "testing"

func TestRecordShotTracksMinMaxSumCount(t *testing.T) {
	s := New()
	s.RecordShot(100)
	s.RecordShot(40)
	s.RecordShot(250)

	if got := s.ShotsDone.Load(); got != 3 {
		t.Fatalf("ShotsDone = %d, want 3", got)
	}
	if got := s.CyclesSum.Load(); got != 390 {
		t.Fatalf("CyclesSum = %d, want 390", got)
	}
	if got := s.CyclesMin.Load(); got != 40 {
		t.Fatalf("CyclesMin = %d, want 40", got)
	}
	if got := s.CyclesMax.Load(); got != 250 {
		t.Fatalf("CyclesMax = %d, want 250", got)
	}
}

func TestRecordMalformedIsIndependent(t *testing.T) {
	s := New()
	s.RecordMalformed()
	s.RecordMalformed()

	if got := s.Malformed.Load(); got != 2 {
		t.Fatalf("Malformed = %d, want 2", got)
	}
	if got := s.ShotsDone.Load(); got != 0 {
		t.Fatalf("ShotsDone = %d, want 0", got)
	}
}

func TestResetRestoresSaturatedMin(t *testing.T) {
	s := New()
	s.RecordShot(10)
	s.Reset()

	if got := s.CyclesMin.Load(); got != ^uint64(0) {
		t.Fatalf("CyclesMin after Reset = %d, want saturated", got)
	}
	if got := s.ShotsDone.Load(); got != 0 {
		t.Fatalf("ShotsDone after Reset = %d, want 0", got)
	}
}

func TestAggregateAcrossWorkers(t *testing.T) {
	a, b := New(), New()
	a.RecordShot(100)
	a.RecordShot(200)
	b.RecordShot(50)
	b.RecordMalformed()

	snap := Aggregate([]*Slot{a, b})
	if snap.ShotsDone != 3 {
		t.Fatalf("ShotsDone = %d, want 3", snap.ShotsDone)
	}
	if snap.CyclesMin != 50 {
		t.Fatalf("CyclesMin = %d, want 50", snap.CyclesMin)
	}
	if snap.CyclesMax != 200 {
		t.Fatalf("CyclesMax = %d, want 200", snap.CyclesMax)
	}
	if snap.Malformed != 1 {
		t.Fatalf("Malformed = %d, want 1", snap.Malformed)
	}
	if avg := snap.AvgCycles(); avg < 116 || avg > 117 {
		t.Fatalf("AvgCycles = %v, want ~116.67", avg)
	}
}

func TestAggregateEmptyIsZeroValue(t *testing.T) {
	snap := Aggregate([]*Slot{New(), New()})
	if snap.ShotsDone != 0 || snap.CyclesMin != 0 {
		t.Fatalf("Snapshot = %+v, want zero-valued min/count", snap)
	}
}
