// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: demformat.go — binary DEM/shots blob reader
//
// Purpose:
//   - Parses the two build-time blobs embedded into firmware: graph.dem
//     (detector error model: node/edge topology) and shots.b8 (packed
//     syndrome shots), both little-endian.
//   - These are build artifacts from an offline tool; this package is a
//     clean-room binary reader for the wire layout, not a generator.
//
// Notes:
//   - ConfigError is fatal at boot — a malformed blob means the firmware
//     build itself is broken, not a condition a running decode can recover
//     from or even observe.
// ─────────────────────────────────────────────────────────────────────────────

package demformat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"qecd/graph"
)

const (
	demMagic   = 0x51454344 // "QECD"
	demVersion = 1
)

// ErrConfig wraps every DEM/shots parsing failure. Callers test with
// errors.Is(err, ErrConfig); the wrapped message carries the specific
// cause for the boot-time diagnostic.
var ErrConfig = errors.New("demformat: malformed blob")

// DEM is the parsed detector error model: detector/edge topology, still in
// flat edge-list form — callers pass it to graph.Build to get the CSR
// structure the decoder actually runs against.
type DEM struct {
	NumDetectors uint32
	Edges        []graph.Edge
}

// demHeader mirrors graph.dem's fixed-size prefix for a single binary.Read.
type demHeader struct {
	Magic        uint32
	Version      uint32
	NumDetectors uint32
	NumEdges     uint32
}

// demEdgeRecord mirrors one on-disk edge record: u, v, parity, then 3 bytes
// of alignment padding the format reserves.
type demEdgeRecord struct {
	U      uint32
	V      uint32
	Parity uint8
	_      [3]byte
}

// ParseDEM reads graph.dem from r. Endpoints are validated against
// [0, NumDetectors] before returning — graph.Build panics on an
// out-of-range endpoint, and a boot-time ConfigError is a cleaner failure
// mode than a panic on a corrupted build artifact.
func ParseDEM(r io.Reader) (DEM, error) {
	var hdr demHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return DEM{}, fmt.Errorf("%w: header: %v", ErrConfig, err)
	}
	if hdr.Magic != demMagic {
		return DEM{}, fmt.Errorf("%w: bad magic %#x", ErrConfig, hdr.Magic)
	}
	if hdr.Version != demVersion {
		return DEM{}, fmt.Errorf("%w: unsupported version %d", ErrConfig, hdr.Version)
	}

	boundary := hdr.NumDetectors
	edges := make([]graph.Edge, hdr.NumEdges)
	for i := uint32(0); i < hdr.NumEdges; i++ {
		var rec demEdgeRecord
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return DEM{}, fmt.Errorf("%w: edge %d: %v", ErrConfig, i, err)
		}
		if rec.U > boundary || rec.V > boundary {
			return DEM{}, fmt.Errorf("%w: edge %d endpoint out of range", ErrConfig, i)
		}
		edges[i] = graph.Edge{
			U:      graph.DetectorID(rec.U),
			V:      graph.DetectorID(rec.V),
			Parity: rec.Parity != 0,
		}
	}

	return DEM{NumDetectors: hdr.NumDetectors, Edges: edges}, nil
}

// ShotArchive is the parsed shots.b8 body: one contiguous byte buffer of
// NumShots * BytesPerShot bytes, little-endian-packed per shot per spec.md
// §3's bit layout.
type ShotArchive struct {
	NumShots     uint32
	BytesPerShot uint32
	Data         []byte
}

type shotsHeader struct {
	NumShots     uint32
	BytesPerShot uint32
}

// ParseShots reads shots.b8 from r.
func ParseShots(r io.Reader) (ShotArchive, error) {
	var hdr shotsHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return ShotArchive{}, fmt.Errorf("%w: header: %v", ErrConfig, err)
	}

	total := uint64(hdr.NumShots) * uint64(hdr.BytesPerShot)
	data := make([]byte, total)
	if _, err := io.ReadFull(r, data); err != nil {
		return ShotArchive{}, fmt.Errorf("%w: body: %v", ErrConfig, err)
	}

	return ShotArchive{
		NumShots:     hdr.NumShots,
		BytesPerShot: hdr.BytesPerShot,
		Data:         data,
	}, nil
}

// Shot returns the raw byte slice for shot i, still in its on-disk
// little-endian packing — the caller (producer hart) reinterprets it into
// a ring.SyndromePacket's word array.
func (a ShotArchive) Shot(i uint32) []byte {
	start := uint64(i) * uint64(a.BytesPerShot)
	return a.Data[start : start+uint64(a.BytesPerShot)]
}
