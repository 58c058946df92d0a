// pinned_consumer.go
//
// Low-latency SPMC worker loop.
//
//   • Dedicated OS thread pinned to `core`.
//   • Stays in **hot-spin** (tight loop, no cpuRelax) while
//       – new work has arrived within hotTimeout, OR
//       – the producer keeps control's hot flag == 1.
//   • After the grace window *and* once hot == 0 it drops to
//     the **cold-spin** path: cpuRelax every iteration. *stop is
//     polled on every empty poll in both modes.
//   • The *primary* shutdown path is the sentinel packet: fn is never
//     invoked for a SyndromePacket whose ShotID is constants.SentinelShotID;
//     the loop exits immediately after draining it, exactly once per hart.
//   • *stop is the *secondary*, host-convenience path: an idle worker with
//     nothing on the ring honors it without waiting for a sentinel.
//
// Rationale: keep nanosecond latency during shot bursts (<15 s gaps) yet
// avoid burning a full core once the producer goes quiet.
//
// All cross-goroutine variables are accessed atomically; no other
// synchronization primitives appear in the hot path.

package ring

import (
	"runtime"
	"sync/atomic"
	"time"

	"qecd/constants"
	"qecd/control"
)

const (
	spinBudget = 256              // wrap point of the cold-spin miss counter
	hotTimeout = 15 * time.Second // hot-spin grace
)

// PinnedConsumer drains r until it observes a sentinel packet, or until
// *stop is set while the ring is empty. fn is invoked once per real
// (non-sentinel) packet.
func PinnedConsumer(
	core int,
	r *Ring,
	stop, hot *uint32,
	fn func(SyndromePacket),
	done chan<- struct{},
) {
	go func() {
		// ── thread & affinity ─────────────────────────────
		runtime.LockOSThread()
		setAffinity(core) // stub on non-Linux
		defer func() {
			runtime.UnlockOSThread()
			close(done)
		}()

		last := time.Now() // last time TryPop delivered
		miss := 0

		// ── main loop ─────────────────────────────────────
		for {
			if pkt, ok := r.TryPop(); ok {
				if pkt.ShotID == constants.SentinelShotID {
					return // primary shutdown path: drained exactly once
				}
				fn(pkt)
				last, miss = time.Now(), 0
				continue
			}

			// secondary shutdown path: idle with nothing queued
			if atomic.LoadUint32(stop) != 0 {
				return
			}

			// let control's hot flag lapse once the producer goes quiet
			control.PollCooldown()

			// ---------- choose spin mode ------------------
			hotSpin := atomic.LoadUint32(hot) != 0 ||
				time.Since(last) <= hotTimeout

			if hotSpin {
				// tight loop: no cpuRelax
				continue
			}

			// cold-spin path: power-friendlier
			if miss++; miss >= spinBudget {
				miss = 0
			}
			cpuRelax()
		}
	}()
}
