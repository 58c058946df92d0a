// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: graph.go — immutable CSR decoding graph
//
// Purpose:
//   - Holds the detector/edge topology of one error model: an undirected
//     graph whose nodes are detectors plus one synthetic Boundary node, and
//     whose edges carry the parity bit a correction along that edge would
//     flip.
//   - Built once at boot from the embedded DEM blob (see demformat) and
//     never mutated afterward — safe to share by reference across every
//     worker hart without locking.
//
// Notes:
//   - Stored compressed-sparse-row: offsets[d]..offsets[d+1] indexes into
//     adjEdges for detector d's incident edges. Boundary = NumDetectors
//     gets its own offset range like any other node, so find/union never
//     special-case it structurally.
// ─────────────────────────────────────────────────────────────────────────────

package graph

import "fmt"

// DetectorID indexes a detector in [0, NumDetectors]; NumDetectors itself
// names the synthetic Boundary node.
type DetectorID uint32

// EdgeID is a stable index into Graph.Edges.
type EdgeID uint32

// Edge connects two detectors (possibly one being Boundary) with the
// parity flip a correction along it would apply.
type Edge struct {
	U, V   DetectorID
	Parity bool
}

// Graph is the immutable CSR decoding graph.
type Graph struct {
	NumDetectors uint32
	Edges        []Edge
	offsets      []uint32 // len NumDetectors+2
	adjEdges     []EdgeID
}

// Boundary returns the synthetic boundary detector ID for this graph.
func (g *Graph) Boundary() DetectorID {
	return DetectorID(g.NumDetectors)
}

// Neighbors returns the EdgeIDs incident to d.
func (g *Graph) Neighbors(d DetectorID) []EdgeID {
	return g.adjEdges[g.offsets[d]:g.offsets[d+1]]
}

// Endpoints returns the two detectors and parity bit for an edge.
func (g *Graph) Endpoints(e EdgeID) (u, v DetectorID, parity bool) {
	edge := g.Edges[e]
	return edge.U, edge.V, edge.Parity
}

// Build constructs a CSR Graph from a flat edge list, validating the
// build-time invariants spec.md requires: every edge has two distinct
// endpoints, and the resulting CSR ranges are monotonic and fully
// accounted for. Panics on violation — these are build-data bugs, not
// runtime conditions a decode can recover from.
func Build(numDetectors uint32, edges []Edge) *Graph {
	boundary := DetectorID(numDetectors)
	numNodes := numDetectors + 1 // + Boundary

	for i, e := range edges {
		if e.U == e.V {
			panic(fmt.Sprintf("graph: edge %d is a self-loop (%d == %d)", i, e.U, e.V))
		}
		if e.U > boundary || e.V > boundary {
			panic(fmt.Sprintf("graph: edge %d endpoint out of range", i))
		}
	}

	// Boundary never tracks its own adjacency — only the non-boundary side
	// of a boundary edge is recorded, per spec's CSR sizing invariant
	// (total adjacency length is 2*num_edges - boundary_edges).
	degree := make([]uint32, numNodes)
	boundaryEdges := uint32(0)
	for _, e := range edges {
		if e.U != boundary {
			degree[e.U]++
		}
		if e.V != boundary {
			degree[e.V]++
		}
		if e.U == boundary || e.V == boundary {
			boundaryEdges++
		}
	}

	offsets := make([]uint32, numNodes+1)
	for i := uint32(0); i < numNodes; i++ {
		offsets[i+1] = offsets[i] + degree[i]
	}

	adjEdges := make([]EdgeID, offsets[numNodes])
	cursor := make([]uint32, numNodes)
	copy(cursor, offsets[:numNodes])
	for i, e := range edges {
		id := EdgeID(i)
		if e.U != boundary {
			adjEdges[cursor[e.U]] = id
			cursor[e.U]++
		}
		if e.V != boundary {
			adjEdges[cursor[e.V]] = id
			cursor[e.V]++
		}
	}

	for i := uint32(0); i < numNodes; i++ {
		if cursor[i] != offsets[i+1] {
			panic("graph: InvariantViolation — CSR offsets not monotonic/consistent")
		}
	}
	if int(offsets[numNodes]) != 2*len(edges)-int(boundaryEdges) {
		panic("graph: InvariantViolation — adjacency total does not match 2*num_edges - boundary_edges")
	}

	return &Graph{
		NumDetectors: numDetectors,
		Edges:        edges,
		offsets:      offsets,
		adjEdges:     adjEdges,
	}
}
