package console

import (
	"strings"
	"testing"

	"qecd/stats"
)

func TestFormatLineFields(t *testing.T) {
	snap := stats.Snapshot{ShotsDone: 200, CyclesSum: 4000, CyclesMin: 10, CyclesMax: 50, Malformed: 1}
	line := FormatLine(20, 7, snap)

	want := "T=20s | Rate: 10/s | Lat: 10/20/50 | Q: 7"
	if line != want {
		t.Fatalf("FormatLine = %q, want %q", line, want)
	}
}

func TestFormatLineZeroShots(t *testing.T) {
	line := FormatLine(5, 0, stats.Snapshot{})
	if !strings.Contains(line, "Rate: 0/s") || !strings.Contains(line, "Lat: 0/0/0") {
		t.Fatalf("FormatLine with no shots = %q", line)
	}
}

func TestFormatLineZeroElapsed(t *testing.T) {
	// Guards the elapsedSecs==0 division: rate must not panic or report NaN/Inf.
	line := FormatLine(0, 0, stats.Snapshot{ShotsDone: 5})
	if !strings.Contains(line, "Rate: 0/s") {
		t.Fatalf("FormatLine with zero elapsed = %q", line)
	}
}

func TestEncodeSnapshotRoundTrips(t *testing.T) {
	snap := stats.Snapshot{ShotsDone: 1, CyclesSum: 2, CyclesMin: 3, CyclesMax: 4, Malformed: 5}
	body, err := EncodeSnapshot(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshot: %v", err)
	}
	for _, field := range []string{"ShotsDone", "CyclesSum", "CyclesMin", "CyclesMax", "Malformed"} {
		if !strings.Contains(string(body), field) {
			t.Fatalf("encoded snapshot missing field %q: %s", field, body)
		}
	}
}
