// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: driver.go — firmware-side driver for the union-find accelerator
//
// Purpose:
//   - Implements dsu.Finder against the RTL contract in rtl.go: drives the
//     machine to completion over the shot-scoped parent array and enforces a
//     MAX_DEPTH bound. A walk that doesn't terminate in time returns
//     ErrHwFindTimeout without touching state; the caller falls back to its
//     software find.
//   - Optional write-back of the discovered root into parent[node] is a
//     constructor flag rather than an assumed default — the RTL performs no
//     compression of its own, and the spec leaves whichever behavior a
//     driver picks as implementation-defined as long as it's documented.
//
// Notes:
//   - Parity is never derived from this path. dsu.Decoder only ever calls
//     Find for a root-equality pre-check inside union(); the parity-bearing
//     result always comes from the software walk alongside it.
// ─────────────────────────────────────────────────────────────────────────────

package hwoffload

import (
	"errors"
	"unsafe"

	"qecd/graph"
)

// ErrHwFindTimeout is returned when the accelerator's walk would need more
// than MAX_DEPTH parent reads without reaching Done — treated as "accelerator absent
// or wedged," not a decode failure.
var ErrHwFindTimeout = errors.New("hwoffload: find did not terminate within MAX_DEPTH")

// Driver drives a Machine against a shot's live parent array.
type Driver struct {
	m         Machine
	writeBack bool
}

// NewDriver returns a Driver. writeBack controls whether a discovered root
// is written back into the caller's parent slice at parent[node] — the
// spec's documented-but-undecided Open Question, resolved here as an
// explicit constructor choice rather than a silent default.
func NewDriver(writeBack bool) *Driver {
	return &Driver{writeBack: writeBack}
}

// Find walks the accelerator against parent starting from x, bounded by
// MAX_DEPTH = len(parent). On timeout it returns ErrHwFindTimeout having
// touched nothing — callers fall back to the software find.
//
// Satisfies dsu.Finder. parent is reinterpreted as the accelerator's
// memory-mapped RAM without copying: DetectorID and uint32 share layout,
// and the accelerator only ever reads it during this call.
func (d *Driver) Find(parent []graph.DetectorID, x graph.DetectorID) (root graph.DetectorID, err error) {
	if len(parent) == 0 {
		return x, nil
	}
	ram := unsafe.Slice((*uint32)(unsafe.Pointer(&parent[0])), len(parent))

	d.m.Init(ram)
	d.m.SetInput(true, uint32(x))

	// Each parent read takes three cycles (ReadReq, ReadWait, Check), plus
	// one cycle to leave Idle and one to latch Done. A walk over a
	// cycle-free parent array reads at most MAX_DEPTH = len(parent) nodes.
	maxDepth := len(parent)
	maxCycles := 3*maxDepth + 2
	for cycles := 0; ; cycles++ {
		d.m.Step()
		if d.m.IsDone() {
			break
		}
		if cycles > maxCycles {
			d.m.Shutdown()
			return 0, ErrHwFindTimeout
		}
	}

	found := graph.DetectorID(d.m.GetRoot())
	d.m.Shutdown()

	if d.writeBack {
		parent[x] = found
	}
	return found, nil
}
