// control.go — Global control flags and activity management for pinned workers
// ============================================================================
// RUN CONTROL
// ============================================================================
//
// Control provides lightweight global signaling for coordinating activity
// state and shutdown across pinned decode-worker harts with nanosecond
// timing and zero-allocation operations.
//
// Architecture overview:
//   • Global hot/stop flags for lock-free inter-hart communication
//   • Nanosecond-precision activity tracking with automatic cooldown
//   • Zero-allocation flag access for hot-path polling
//   • Host-convenience shutdown path, secondary to the sentinel broadcast
//
// Threading model:
//   • The producer hart signals activity via SignalActivity() on every
//     enqueue burst
//   • Worker harts poll Flags() from their PinnedConsumer spin loop
//   • Shutdown() is the host-side stop switch: the signal handler and the
//     producer's fatal-error path both call it. The *primary*
//     shutdown path remains the sentinel packet broadcast through ring,
//     which lets in-flight shots finish; Shutdown() only short-circuits a
//     worker that is idle-spinning with nothing left to pop.
package control

import "time"

// ============================================================================
// GLOBAL STATE
// ============================================================================

var (
	// Global coordination flags - accessed by all worker harts.
	hot  uint32 // Activity indicator: 1 = producer enqueuing shots, 0 = idle
	stop uint32 // Shutdown signal: 1 = stop, 0 = running

	// Activity timing for automatic cooldown management.
	lastHot    int64                    // Nanosecond timestamp of last enqueue
	cooldownNs = int64(1 * time.Second) // Cooldown duration before a worker may cold-spin
)

// ============================================================================
// ACTIVITY SIGNALING (PRODUCER INTEGRATION)
// ============================================================================

// SignalActivity marks the system as active and records precise timing for
// automatic cooldown management. Called from the producer hart after each
// batch of shots is pushed onto the ring.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func SignalActivity() {
	hot = 1
	lastHot = time.Now().UnixNano()
}

// ============================================================================
// COOLDOWN MANAGEMENT
// ============================================================================

// PollCooldown clears the hot flag once cooldownNs has elapsed since the
// last producer activity. Called inline from a worker's spin loop so that a
// quiet producer lets workers fall back to cpuRelax backoff instead of
// burning a full core indefinitely.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func PollCooldown() {
	if hot == 1 && time.Now().UnixNano()-lastHot > cooldownNs {
		hot = 0
	}
}

// ============================================================================
// SYSTEM SHUTDOWN
// ============================================================================

// Shutdown sets the global stop flag. It is the host-convenience path: the
// OS signal handler and the producer's fatal-error path call it so
// an idle worker (no sentinel in flight, nothing left on the ring) exits
// promptly instead of spinning forever. It does not discard queued shots —
// a worker still drains whatever is already published before honoring stop.
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Shutdown() {
	stop = 1
}

// ============================================================================
// FLAG ACCESS (WORKER INTEGRATION)
// ============================================================================

// Flags returns direct pointers to the global coordination flags for
// zero-allocation access from PinnedConsumer. Return order is (*stop, *hot).
//
//go:norace
//go:nocheckptr
//go:nosplit
//go:inline
//go:registerparams
func Flags() (*uint32, *uint32) {
	return &stop, &hot
}
