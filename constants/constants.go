// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go — Global decoder tunables & MMIO/ISA layout
//
// Purpose:
//   - Defines core-wide constants for detector capacity, arena sizing, ring
//     depth, and the hardware offload register map.
//   - No runtime logic here — all values must be compile-time resolvable.
//
// Notes:
//   - Tuned for a 4-hart RV64IMAC target (1 producer + 3 workers).
//   - Power-of-two sizing throughout for bit-masking instead of modulo.
// ─────────────────────────────────────────────────────────────────────────────

package constants

// ───────────────────────────── Decoding graph ──────────────────────────────

const (
	// MaxDetectors bounds N_DETECTORS per build; fits a DetectorID in 32 bits
	// with room for the synthetic Boundary node at MaxDetectors.
	MaxDetectors = 1 << 16 // 65,536

	// MaxWords is the largest bit-packed syndrome word count for MaxDetectors.
	MaxWords = MaxDetectors / 64
)

// ───────────────────────────── Bump arena ──────────────────────────────────

const (
	// ArenaAlign is the default alignment for decode-time scratch allocations.
	ArenaAlign = 8

	// WorkerArenaBytes is the per-worker scratch region size. Sized generously
	// above the four DSU arrays (parent+parity+rank+clusterOdd) for
	// MaxDetectors+1 entries, with headroom for alignment padding.
	WorkerArenaBytes = 1 << 20 // 1 MiB per worker
)

// ───────────────────────────── SPMC ring ────────────────────────────────────

const (
	// RingSize is the producer→worker syndrome ring depth. Must be a power of
	// two and, per design note, at least 4x the expected producer burst.
	RingSize = 512

	// SentinelShotID marks the drain/shutdown packet broadcast to every
	// worker once per worker at shutdown.
	SentinelShotID = ^uint32(0)
)

// ───────────────────────────── Stats / console ──────────────────────────────

const (
	// StatsTickCycles is the number of shots the producer pushes between
	// console reports (one producer-loop iteration per shot).
	StatsTickCycles = 10_000_000

	// DefaultWorkerCount is N-1 worker harts for the typical N=4 target.
	DefaultWorkerCount = 3
)

// ───────────────────────── HW offload register map ─────────────────────────

const (
	// MMIOBase is the base address of the union-find accelerator's register
	// file, matching the Verilog module's MMIO base in the source build.
	MMIOBase = 0x1000_0000

	// Register offsets from MMIOBase.
	RegCtrl   = 0x00 // write: bit0 = start
	RegNode   = 0x04 // write: node_in
	RegRoot   = 0x08 // read: root_out
	RegStatus = 0x0C // read: bit0 = done, bit1 = busy

	// CtrlStart is the UF_CTRL start bit.
	CtrlStart = 1 << 0

	// StatusDone and StatusBusy are UF_STATUS bit positions.
	StatusDone = 1 << 0
	StatusBusy = 1 << 1

	// MaxDepth bounds a hardware find walk before the driver aborts to
	// software. Set to MaxDetectors; callers should prefer the graph's
	// actual num_detectors when tighter bounds are available.
	MaxDepth = MaxDetectors
)

// ───────────────────────────── Exit codes ───────────────────────────────────

const (
	ExitClean            = 0
	ExitArenaExhausted   = 1
	ExitMalformedDEM     = 2
	ExitMalformedArchive = 3
)

// ───────────────────────────── DEM binary magic ─────────────────────────────

const (
	// DEMMagic is the little-endian u32 "QECD" magic at the start of graph.dem.
	DEMMagic = 0x51454344

	// DEMVersion is the only supported on-disk DEM layout version.
	DEMVersion = 1
)
