// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: dsu.go — per-shot union-find decoder
//
// Purpose:
//   - Implements the union-find decoding algorithm: ingest one shot's fired
//     detectors, grow odd-parity clusters along graph edges until every
//     cluster is resolved, and emit the parity-1 edges of the resulting
//     spanning forest as the correction.
//   - All scratch state (parent, parity-to-root, rank, cluster-odd) lives in
//     one arena scope per shot; the scope is released before Decode returns,
//     on every path including errors.
//
// Notes:
//   - Grounded on the union-by-rank/path-halving shape of
//     qcu_core::dsu::UnionFind, generalized with the per-root cluster_odd
//     growth loop and parity-to-root bookkeeping the decode algorithm needs
//     (the original crate tracks parity only at cluster roots and emits
//     every union unconditionally; this decoder also tracks parity-to-root
//     per node for the find invariant, and filters emitted corrections to
//     edges whose own parity bit is 1).
//   - Path halving, not full compression: halving rewrites parent[x] in the
//     same pass that reads it, so it needs no second walk — the operation
//     the RTL's find would have to mirror if ever extended with a write
//     port.
// ─────────────────────────────────────────────────────────────────────────────

package dsu

import (
	"errors"
	"math"
	"math/bits"
	"unsafe"

	"qecd/arena"
	"qecd/graph"
	"qecd/ring"
)

// ErrMalformedSyndrome is returned when a packet sets bits beyond the
// graph's detector range. Nonfatal: the worker records it in stats and
// skips the shot.
var ErrMalformedSyndrome = errors.New("dsu: malformed syndrome: bit set above NumDetectors")

// ErrInvariantViolation is panicked, never returned, when an odd cluster
// survives residual boundary pairing — a defensive check that should be
// geometrically unreachable given BOUNDARY's infinite rank. Recovered at
// the top of each worker's per-shot loop per the decode core's nonfatal
// error handling contract.
var ErrInvariantViolation = errors.New("dsu: InvariantViolation: odd cluster survived residual pairing")

// Finder is the seam hardware offload plugs into. It must return the root
// of x's set by walking parent only — it carries no parity information, so
// Decode only ever uses it for root-equality pre-checks, never to produce a
// parity-bearing result. See hwoffload.Driver.
type Finder interface {
	Find(parent []graph.DetectorID, x graph.DetectorID) (root graph.DetectorID, err error)
}

// Decoder holds the optional hardware find seam. Zero value decodes
// entirely in software.
type Decoder struct {
	HW Finder
}

// scratch is the per-shot arena-backed state. All four slices are sized
// NumDetectors+1 (the +1 is the Boundary slot).
type scratch struct {
	parent       []graph.DetectorID
	parityToRoot []bool
	rank         []uint8
	clusterOdd   []bool
}

const maxRank = math.MaxUint8

// Decode runs one shot through the union-find decoder. correctionOut is
// filled from index 0; its length must be at least graph's edge count.
// Returns the number of correction edges written.
func (d *Decoder) Decode(pkt ring.SyndromePacket, g *graph.Graph, a *arena.BumpArena, correctionOut []graph.EdgeID) (correctionLen int, err error) {
	boundary := g.Boundary()
	n := int(g.NumDetectors) + 1

	if err := validateSyndrome(pkt, g.NumDetectors); err != nil {
		return 0, err
	}

	scope := a.Scope()
	defer scope.Release()

	s, err := allocScratch(a, n)
	if err != nil {
		return 0, err
	}

	// Step 1: init. The arena never zeroes reclaimed bytes (AllocAligned,
	// Release, and Reset all only move the offset), so a prior shot's
	// parityToRoot/rank/clusterOdd can still be sitting in this scope's
	// freshly-handed-out range. Clear them explicitly; only parent needs an
	// actual value written (each node starts as its own root).
	clear(s.parityToRoot)
	clear(s.rank)
	clear(s.clusterOdd)
	for i := range s.parent {
		s.parent[i] = graph.DetectorID(i)
	}

	// Step 2: detector ingest — flip cluster_odd for every fired detector.
	wordsNeeded := (int(g.NumDetectors) + 63) / 64
	for w := 0; w < wordsNeeded; w++ {
		word := pkt.Bits[w]
		for word != 0 {
			bit := word & (-word) // isolate lowest set bit
			idx := bits.TrailingZeros64(word)
			det := graph.DetectorID(w*64 + idx)
			root, _ := find(s.parent, s.parityToRoot, det)
			if root != boundary {
				s.clusterOdd[root] = !s.clusterOdd[root]
			}
			word ^= bit
		}
	}

	// Step 3: cluster growth.
	correctionLen = d.grow(g, s, boundary, correctionOut)

	// Residual odd roots: pair to BOUNDARY (resolved Open Question, see
	// DESIGN.md). This is a virtual pairing — no graph edge backs it, so
	// nothing is appended to correctionOut.
	for det := graph.DetectorID(0); det < boundary; det++ {
		r, _ := find(s.parent, s.parityToRoot, det)
		if r != boundary && s.clusterOdd[r] {
			pairToBoundary(s, boundary, r)
		}
	}

	// Defensive sanity check: after residual pairing every cluster must be
	// resolved. A violation here means the graph or the growth loop itself
	// is broken, not a recoverable per-shot condition.
	for det := graph.DetectorID(0); det < boundary; det++ {
		r, _ := find(s.parent, s.parityToRoot, det)
		if s.clusterOdd[r] {
			panic(ErrInvariantViolation)
		}
	}

	return correctionLen, nil
}

// grow repeatedly unions every odd root with its graph neighbors until no
// round makes progress. Returns the number of correction edges written.
func (d *Decoder) grow(g *graph.Graph, s *scratch, boundary graph.DetectorID, correctionOut []graph.EdgeID) int {
	n := 0
	for {
		changed := false
		for det := graph.DetectorID(0); det < boundary; det++ {
			root, _ := find(s.parent, s.parityToRoot, det)
			if root == boundary || !s.clusterOdd[root] {
				continue
			}
			// Neighbors(root) is fixed for this pass: every edge in it has
			// root as one of its two endpoints by construction, regardless
			// of whether root is still det's current root by the time we
			// get to it below (union re-resolves roots on each call).
			for _, eid := range g.Neighbors(root) {
				if cur, _ := find(s.parent, s.parityToRoot, det); cur == boundary || !s.clusterOdd[cur] {
					break
				}
				u, v, parity := g.Endpoints(eid)
				neighbor := u
				if u == root {
					neighbor = v
				}
				if d.union(s, boundary, det, neighbor, parity) {
					changed = true
					if parity {
						correctionOut[n] = eid
						n++
					}
				}
			}
		}
		if !changed {
			return n
		}
	}
}

// union merges the sets containing a and b via union-by-rank, with
// Boundary acting as an infinite-rank node that always becomes the parent.
// Returns true if a merge happened (false if a and b were already joined).
func (d *Decoder) union(s *scratch, boundary, a, b graph.DetectorID, edgeParity bool) bool {
	if d.HW != nil {
		// Cheap root-equality pre-check: the hardware walk carries no
		// parity, so it can only ever answer "already joined or not," never
		// contribute to p below. When it confirms a and b share a root,
		// skip the software walk entirely — there is nothing left to do on
		// this path regardless of what the full parity accumulation would
		// have produced.
		ha, errA := d.HW.Find(s.parent, a)
		hb, errB := d.HW.Find(s.parent, b)
		if errA == nil && errB == nil && ha == hb {
			return false
		}
	}

	ra, pa := find(s.parent, s.parityToRoot, a)
	rb, pb := find(s.parent, s.parityToRoot, b)
	if ra == rb {
		return false
	}

	p := xor3(pa, pb, edgeParity)
	rankA, rankB := effectiveRank(s.rank, boundary, ra), effectiveRank(s.rank, boundary, rb)

	switch {
	case rankA < rankB:
		s.parent[ra] = rb
		s.parityToRoot[ra] = p
		if rb != boundary {
			s.clusterOdd[rb] = s.clusterOdd[rb] != s.clusterOdd[ra]
		}
	case rankA > rankB:
		s.parent[rb] = ra
		s.parityToRoot[rb] = p
		if ra != boundary {
			s.clusterOdd[ra] = s.clusterOdd[ra] != s.clusterOdd[rb]
		}
	default:
		s.parent[rb] = ra
		s.parityToRoot[rb] = p
		if ra != boundary {
			if s.rank[ra] < maxRank {
				s.rank[ra]++
			}
			s.clusterOdd[ra] = s.clusterOdd[ra] != s.clusterOdd[rb]
		}
	}
	return true
}

// pairToBoundary force-unions a residual odd root with Boundary with no
// backing graph edge — Boundary absorbs the parity, clusterOdd[boundary]
// is never set (guarded the same way union guards it).
func pairToBoundary(s *scratch, boundary, r graph.DetectorID) {
	s.parent[r] = boundary
	s.parityToRoot[r] = false
	s.clusterOdd[r] = false
}

// find is iterative path halving: at each step parent[x] jumps to its
// grandparent, with parityToRoot[x] updated to match (parity to the new,
// nearer parent) before the jump. This keeps parityToRoot[x] valid for
// whatever parent[x] points to after the call, but for a chain deeper than
// two hops a single call does not land x directly on the true root, so
// parityToRoot[x] alone is not yet the total parity from x to root.
//
// find tracks that total separately as it walks (XORing in each hop's
// freshly halved segment) and returns it alongside the root, so a caller
// never has to assume parityToRoot[x] is fully resolved after one call —
// it reads the accumulated value find already walked out.
//
//go:nosplit
func find(parent []graph.DetectorID, parityToRoot []bool, x graph.DetectorID) (root graph.DetectorID, parityToX bool) {
	var total bool
	for parent[x] != x {
		p := parent[x]
		gp := parent[p]
		parityToRoot[x] = parityToRoot[x] != parityToRoot[p]
		parent[x] = gp
		total = total != parityToRoot[x]
		x = gp
	}
	return x, total
}

func effectiveRank(rank []uint8, boundary, r graph.DetectorID) int {
	if r == boundary {
		return math.MaxInt32
	}
	return int(rank[r])
}

func xor3(a, b, c bool) bool {
	return (a != b) != c
}

func validateSyndrome(pkt ring.SyndromePacket, numDetectors uint32) error {
	firstFullWord := int(numDetectors) / 64
	remBits := int(numDetectors) % 64
	for w := firstFullWord; w < len(pkt.Bits); w++ {
		mask := uint64(0)
		if w == firstFullWord && remBits != 0 {
			mask = ^uint64(0) << remBits
		} else if w > firstFullWord || (w == firstFullWord && remBits == 0) {
			mask = ^uint64(0)
		}
		if pkt.Bits[w]&mask != 0 {
			return ErrMalformedSyndrome
		}
	}
	return nil
}

func allocScratch(a *arena.BumpArena, n int) (*scratch, error) {
	parentBytes, err := a.AllocAligned(uintptr(n*4), 4)
	if err != nil {
		return nil, err
	}
	parityBytes, err := a.AllocAligned(uintptr(n), 1)
	if err != nil {
		return nil, err
	}
	rankBytes, err := a.AllocAligned(uintptr(n), 1)
	if err != nil {
		return nil, err
	}
	clusterOddBytes, err := a.AllocAligned(uintptr(n), 1)
	if err != nil {
		return nil, err
	}

	s := &scratch{
		parent:       bytesToDetectorIDs(parentBytes, n),
		parityToRoot: bytesToBools(parityBytes, n),
		rank:         rankBytes[:n],
		clusterOdd:   bytesToBools(clusterOddBytes, n),
	}
	return s, nil
}

// bytesToDetectorIDs reinterprets a 4-byte-aligned arena allocation as a
// []DetectorID without copying — the arena's bytes are exclusively owned
// for the lifetime of this shot's scope.
func bytesToDetectorIDs(b []byte, n int) []graph.DetectorID {
	return unsafe.Slice((*graph.DetectorID)(unsafe.Pointer(&b[0])), n)
}

// bytesToBools reinterprets a byte-per-element arena allocation as a
// []bool without copying. bool and byte share size and representation.
func bytesToBools(b []byte, n int) []bool {
	return unsafe.Slice((*bool)(unsafe.Pointer(&b[0])), n)
}
