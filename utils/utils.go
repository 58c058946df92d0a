// Package utils holds the small set of zero-allocation helpers used by the
// debug package and main: byte/string casts, a raw fd writer, and a
// general-purpose bit mixer used to fingerprint the decoding graph for the
// archive.
package utils

import (
	"syscall"
	"unsafe"
)

///////////////////////////////////////////////////////////////////////////////
// Conversion Utilities — Zero-Alloc Casts
///////////////////////////////////////////////////////////////////////////////

// B2s converts a []byte to a string **without** allocation.
// ⚠️ Caller must ensure the input slice remains valid and unchanged.
// Used for human-readable print paths.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

///////////////////////////////////////////////////////////////////////////////
// Cold-Path Logging Sink
///////////////////////////////////////////////////////////////////////////////

// PrintWarning writes msg directly to stderr (fd 2), bypassing fmt and any
// buffered io.Writer. Used only by debug.DropError/DropMessage — never in the
// decode hot path.
//
//go:nosplit
//go:inline
func PrintWarning(msg string) {
	if len(msg) == 0 {
		return
	}
	b := unsafe.Slice(unsafe.StringData(msg), len(msg))
	_, _ = syscall.Write(2, b)
}

///////////////////////////////////////////////////////////////////////////////
// Hash & Mixers
///////////////////////////////////////////////////////////////////////////////

// Mix64 applies a Murmur3-style avalanche to a 64-bit value. Used by main's
// demHash to fold a graph's detector and edge counts into a fingerprint.
//
//go:nosplit
//go:inline
func Mix64(x uint64) uint64 {
	x ^= x >> 33
	x *= 0xff51afd7ed558ccd
	x ^= x >> 33
	x *= 0xc4ceb9fe1a85ec53
	x ^= x >> 33
	return x
}
