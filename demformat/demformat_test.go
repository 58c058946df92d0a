package demformat

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func writeDEM(t *testing.T, magic, version, numDetectors uint32, edges [][3]uint32) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, hdr4(magic, version, numDetectors, uint32(len(edges))))
	for _, e := range edges {
		binary.Write(buf, binary.LittleEndian, demEdgeRecord{U: e[0], V: e[1], Parity: uint8(e[2])})
	}
	return buf
}

func hdr4(a, b, c, d uint32) demHeader {
	return demHeader{Magic: a, Version: b, NumDetectors: c, NumEdges: d}
}

func TestParseDEMRoundTrip(t *testing.T) {
	buf := writeDEM(t, demMagic, demVersion, 4, [][3]uint32{
		{0, 1, 1},
		{1, 2, 0},
		{2, 3, 1},
		{3, 4, 1}, // 4 == Boundary
	})

	dem, err := ParseDEM(buf)
	if err != nil {
		t.Fatalf("ParseDEM: %v", err)
	}
	if dem.NumDetectors != 4 {
		t.Fatalf("NumDetectors = %d, want 4", dem.NumDetectors)
	}
	if len(dem.Edges) != 4 {
		t.Fatalf("len(Edges) = %d, want 4", len(dem.Edges))
	}
	if dem.Edges[0].U != 0 || dem.Edges[0].V != 1 || !dem.Edges[0].Parity {
		t.Fatalf("Edges[0] = %+v, want {0,1,true}", dem.Edges[0])
	}
	if dem.Edges[1].Parity {
		t.Fatalf("Edges[1].Parity = true, want false")
	}
}

func TestParseDEMRejectsBadMagic(t *testing.T) {
	buf := writeDEM(t, 0xdeadbeef, demVersion, 1, nil)
	_, err := ParseDEM(buf)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want wrapped ErrConfig", err)
	}
}

func TestParseDEMRejectsBadVersion(t *testing.T) {
	buf := writeDEM(t, demMagic, 99, 1, nil)
	_, err := ParseDEM(buf)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want wrapped ErrConfig", err)
	}
}

func TestParseDEMRejectsOutOfRangeEndpoint(t *testing.T) {
	buf := writeDEM(t, demMagic, demVersion, 2, [][3]uint32{{0, 5, 1}})
	_, err := ParseDEM(buf)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want wrapped ErrConfig", err)
	}
}

func TestParseDEMRejectsTruncatedEdge(t *testing.T) {
	buf := writeDEM(t, demMagic, demVersion, 2, nil)
	// Claim one edge in the header but never write it.
	raw := buf.Bytes()
	binary.LittleEndian.PutUint32(raw[12:], 1) // NumEdges
	_, err := ParseDEM(bytes.NewReader(raw))
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want wrapped ErrConfig", err)
	}
}

func TestParseShotsRoundTrip(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, shotsHeader{NumShots: 2, BytesPerShot: 4})
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00})
	buf.Write([]byte{0x09, 0x00, 0x00, 0x00})

	shots, err := ParseShots(buf)
	if err != nil {
		t.Fatalf("ParseShots: %v", err)
	}
	if shots.NumShots != 2 || shots.BytesPerShot != 4 {
		t.Fatalf("header = %+v, want {2,4}", shots)
	}
	s0 := shots.Shot(0)
	s1 := shots.Shot(1)
	if s0[0] != 0x01 || s1[0] != 0x09 {
		t.Fatalf("shots = %v %v, want [1,...] [9,...]", s0, s1)
	}
}

func TestParseShotsRejectsTruncatedBody(t *testing.T) {
	buf := new(bytes.Buffer)
	binary.Write(buf, binary.LittleEndian, shotsHeader{NumShots: 2, BytesPerShot: 8})
	buf.Write([]byte{0, 1, 2, 3}) // far short of 16 bytes

	_, err := ParseShots(buf)
	if !errors.Is(err, ErrConfig) {
		t.Fatalf("err = %v, want wrapped ErrConfig", err)
	}
}
