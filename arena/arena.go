// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: arena.go — per-worker bump allocator with LIFO scopes
//
// Purpose:
//   - Hands out byte ranges from a fixed, mmap-backed region with an atomic
//     bump pointer; never frees individual allocations.
//   - One BumpArena per worker hart; workers never share a region, so the
//     CAS loop below never actually contends in steady state — it exists to
//     mirror the allocator contract the RTL's memory model was designed
//     against, not because concurrent callers are expected in practice.
//   - Scopes are strictly LIFO: Scope() snapshots the offset, Release()
//     rewinds to it. Releasing out of order is an InvariantViolation, not a
//     recoverable error — it means a caller is holding a scope across
//     another caller's release, which corrupts every allocation made since.
//
// Notes:
//   - Backed by an anonymous private mmap (golang.org/x/sys/unix) instead of
//     a plain make([]byte, n) so the region's address is stable and its
//     lifetime is explicit — matches the firmware's "pre-allocated, long
//     lived" memory model rather than leaving it to GC discretion.
// ─────────────────────────────────────────────────────────────────────────────

package arena

import (
	"errors"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ErrOutOfArena is returned when an allocation would exceed the region's
// capacity. Not retried by the arena itself — callers propagate it.
var ErrOutOfArena = errors.New("arena: out of memory")

// BumpArena manages one contiguous, mmap-backed memory region via an
// atomically bumped offset.
type BumpArena struct {
	base   []byte
	cap    uintptr
	offset atomic.Uintptr
	scopes []uintptr // LIFO stack of saved offsets; single-owner, not atomic
}

// New mmaps a private anonymous region of size bytes and returns an arena
// over it. The region is released by calling Close.
func New(size int) (*BumpArena, error) {
	region, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, err
	}
	return &BumpArena{base: region, cap: uintptr(size)}, nil
}

// Close unmaps the arena's backing region. Not safe to call while any
// worker may still hold a live allocation from it.
func (a *BumpArena) Close() error {
	return unix.Munmap(a.base)
}

// AllocAligned reserves size bytes aligned to align (a power of two) and
// returns the backing slice. Returns ErrOutOfArena if the region is
// exhausted; the offset is left unchanged on failure.
//
//go:nosplit
func (a *BumpArena) AllocAligned(size, align uintptr) ([]byte, error) {
	for {
		cur := a.offset.Load()
		aligned := (cur + align - 1) &^ (align - 1)
		newOff := aligned + size
		if newOff > a.cap {
			return nil, ErrOutOfArena
		}
		if a.offset.CompareAndSwap(cur, newOff) {
			return a.base[aligned:newOff:newOff], nil
		}
		// Lost the race to a concurrent allocator on this arena; retry.
	}
}

// ScopeHandle records an arena's offset at the moment Scope() was called.
// Release rewinds the arena to that offset, reclaiming everything
// allocated since — not by zeroing, but because the LIFO discipline
// guarantees nothing after the saved offset is still owned by anyone else.
type ScopeHandle struct {
	arena *BumpArena
	saved uintptr
	depth int
}

// Scope opens a new nested scope and returns a handle to it. Scopes may
// nest arbitrarily deep; they must be released in reverse order of opening.
func (a *BumpArena) Scope() ScopeHandle {
	saved := a.offset.Load()
	a.scopes = append(a.scopes, saved)
	return ScopeHandle{arena: a, saved: saved, depth: len(a.scopes)}
}

// Release rewinds the arena to the offset captured by Scope. Panics with an
// InvariantViolation if h is not the innermost open scope — releasing out
// of LIFO order means an outer scope's allocations have already been
// silently invalidated by an inner release that hasn't happened yet.
func (h ScopeHandle) Release() {
	a := h.arena
	if len(a.scopes) != h.depth {
		panic("arena: InvariantViolation — scope released out of LIFO order")
	}
	a.scopes = a.scopes[:len(a.scopes)-1]
	a.offset.Store(h.saved)
}

// Reset fully rewinds the arena and clears any open scopes. Only valid
// between shots, when no scope from the previous shot is still referenced.
func (a *BumpArena) Reset() {
	a.offset.Store(0)
	a.scopes = a.scopes[:0]
}
