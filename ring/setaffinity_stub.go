//go:build !linux || tinygo

// setaffinity_stub.go
//
// Portable fall-back for non-Linux targets (and TinyGo) where
// sched_setaffinity has no equivalent wired up here. PinnedConsumer still
// runs correctly without a pin — just without the CPU-pinning guarantee.

package ring

func setAffinity(cpu int) {}
