// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: console.go — stats tick reporting
//
// Purpose:
//   - Formats the producer's periodic stats.Snapshot into the fixed console
//     line the firmware's UART would emit, and a JSON variant for the
//     loopback telemetry listener.
//
// Notes:
//   - FormatLine avoids fmt.Sprintf on the tick path, following debug.go's
//     concatenation style — strconv builds each field, the rest is plain
//     string "+".
// ─────────────────────────────────────────────────────────────────────────────

package console

import (
	"strconv"

	"github.com/sugawarayuuta/sonnet"

	"qecd/stats"
)

// FormatLine renders one console tick line:
//
//	T=<secs>s | Rate: <rate>/s | Lat: <min>/<avg>/<max> | Q: <depth>
//
// elapsedSecs is the wall-clock time since boot; queueDepth is the ring's
// current occupancy (see ring.Ring.Depth). rate is shots decoded per second
// over the run so far, truncated to an integer like the rest of the fields.
func FormatLine(elapsedSecs int64, queueDepth int, snap stats.Snapshot) string {
	rate := int64(0)
	if elapsedSecs > 0 {
		rate = int64(snap.ShotsDone) / elapsedSecs
	}
	min := snap.CyclesMin
	if snap.ShotsDone == 0 {
		min = 0
	}
	avg := int64(snap.AvgCycles())

	return "T=" + strconv.FormatInt(elapsedSecs, 10) + "s" +
		" | Rate: " + strconv.FormatInt(rate, 10) + "/s" +
		" | Lat: " + strconv.FormatUint(min, 10) + "/" + strconv.FormatInt(avg, 10) + "/" + strconv.FormatUint(snap.CyclesMax, 10) +
		" | Q: " + strconv.Itoa(queueDepth)
}

// EncodeSnapshot marshals snap to JSON via sonnet, the teacher's drop-in
// encoding/json replacement, for the telemetry listener.
func EncodeSnapshot(snap stats.Snapshot) ([]byte, error) {
	return sonnet.Marshal(snap)
}
