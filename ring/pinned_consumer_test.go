// -----------------------------------------------------------------------------
// pinned_consumer_test.go — Unit-tests for the dedicated PinnedConsumer loop
// -----------------------------------------------------------------------------
//
//  Verifies: callback delivery, sentinel-triggered exit, stop-while-idle
//  exit, and hot-window spin behaviour. These tests exercise the worker
//  both with and without concurrent producer activity to ensure the
//  adaptive spin logic never deadlocks or starves.
// -----------------------------------------------------------------------------

package ring

import (
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"qecd/constants"
)

// launch hides the boilerplate for spinning up a PinnedConsumer and returns
// the *stop*/*hot* flags plus the *done* channel.
func launch(r *Ring, fn func(SyndromePacket)) (stop, hot *uint32, done chan struct{}) {
	stop = new(uint32)
	hot = new(uint32)
	done = make(chan struct{})
	PinnedConsumer(0, r, stop, hot, fn, done)
	return
}

func TestPinnedConsumerDeliversItem(t *testing.T) {
	runtime.GOMAXPROCS(2) // ensure at least one spare thread for the worker
	r := New(8)
	want := SyndromePacket{ShotID: 7}
	var got SyndromePacket
	var gotOne atomic.Bool

	stop, hot, done := launch(r, func(p SyndromePacket) { got = p; gotOne.Store(true) })

	atomic.StoreUint32(hot, 1)
	if !r.Push(want) {
		t.Fatal("push failed")
	}
	atomic.StoreUint32(hot, 0)

	wait := time.NewTimer(20 * time.Millisecond)
	for !gotOne.Load() {
		select {
		case <-wait.C:
			t.Fatal("callback never ran")
		default:
			runtime.Gosched()
		}
	}

	atomic.StoreUint32(stop, 1)
	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for consumer exit")
	}

	if got != want {
		t.Fatalf("callback saw %+v, want %+v", got, want)
	}
}

func TestPinnedConsumerExitsOnSentinel(t *testing.T) {
	r := New(4)
	var hits atomic.Uint32
	_, _, done := launch(r, func(_ SyndromePacket) { hits.Add(1) })

	r.Push(SyndromePacket{ShotID: 1})
	r.PushSentinel(1)

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("consumer did not exit after sentinel")
	}
	if v := hits.Load(); v != 1 {
		t.Fatalf("callback count %d, want 1 (sentinel must not be delivered to fn)", v)
	}
}

func TestPinnedConsumerStopsNoWork(t *testing.T) {
	r := New(4)
	stop, _, done := launch(r, func(_ SyndromePacket) {})
	atomic.StoreUint32(stop, 1)
	select {
	case <-done:
	case <-time.After(50 * time.Millisecond):
		t.Fatal("consumer did not exit after stop")
	}
}

func TestPinnedConsumerHotWindow(t *testing.T) {
	r := New(4)
	var hits atomic.Uint32
	stop, hot, done := launch(r, func(_ SyndromePacket) { hits.Add(1) })

	atomic.StoreUint32(hot, 1)
	_ = r.Push(SyndromePacket{ShotID: 9})
	atomic.StoreUint32(hot, 0)

	time.Sleep(1 * time.Second) // < hotTimeout (15 s)
	if v := hits.Load(); v != 1 {
		t.Fatalf("callback count %d, want 1", v)
	}
	select {
	case <-done:
		t.Fatal("consumer exited inside hot window")
	default:
	}
	atomic.StoreUint32(stop, 1)
	<-done
}

func TestPinnedConsumerSentinelShotIDIsAllOnes(t *testing.T) {
	// Defensive: confirms the constant used by fn's callers never collides
	// with a legal shot ID space assumption baked into this test file.
	if constants.SentinelShotID != ^uint32(0) {
		t.Fatal("SentinelShotID must remain the all-ones sentinel value")
	}
}
