// ring.go
//
// Lock-free single-producer/multi-consumer ring buffer tuned for <10 ns
// hand-off latency on modern CPUs. The structure deliberately separates
// producer and consumer fields with full cache-lines to eliminate
// false-sharing, and each slot carries a sequence number so Push/TryPop can
// stay wait-free (Push) or lock-free (TryPop) without extra synchronization
// primitives. Unlike a plain SPSC ring, head is shared across all worker
// harts: a consumer must win a CAS on head before it may claim a slot, so
// two workers racing for the same syndrome never both decode it.

package ring

import (
	"sync/atomic"

	"qecd/constants"
)

// SyndromePacket is the fixed-size payload carried by the ring: one shot's
// packed detector firing bitmap plus its identifying shot number. Passed by
// value so Push/TryPop never touch the heap.
type SyndromePacket struct {
	ShotID uint32
	Bits   [constants.MaxWords]uint64
}

// PacketFromBytes packs one shot's raw little-endian bit bytes (as read
// from a shots.b8 record) into a SyndromePacket. raw may be shorter than
// MaxWords*8 bytes — the remaining words are left zeroed — but never
// longer, since a shot can carry at most MaxWords*8 bytes of packed bits.
func PacketFromBytes(shotID uint32, raw []byte) SyndromePacket {
	var pkt SyndromePacket
	pkt.ShotID = shotID
	for w := 0; w*8 < len(raw); w++ {
		var word uint64
		for b := 0; b < 8 && w*8+b < len(raw); b++ {
			word |= uint64(raw[w*8+b]) << (8 * b)
		}
		pkt.Bits[w] = word
	}
	return pkt
}

// slot couples a payload with its sequence stamp.
type slot struct {
	seq uint64
	pkt SyndromePacket
}

// Ring is a fixed-capacity circular buffer dedicated to one producer and an
// arbitrary number of consumers.
type Ring struct {
	_    [64]byte // producer tail isolated on its own cache-line
	tail uint64
	//lint:ignore U1000 padding to keep tail & head on different cache-lines
	_pad1 [64]byte
	head  uint64 // shared consumer cursor, advanced via CAS
	_pad2 [64]byte
	mask  uint64
	buf   []slot
}

// New allocates a ring whose size must be a power-of-two; otherwise it
// panics so that the bit-masking arithmetic stays valid.
func New(size int) *Ring {
	if size <= 0 || size&(size-1) != 0 {
		panic("ring: size must be >0 and a power of two")
	}
	r := &Ring{
		mask: uint64(size - 1),
		buf:  make([]slot, size),
	}
	for i := range r.buf {
		r.buf[i].seq = uint64(i)
	}
	return r
}

// Push enqueues pkt, returning false if the buffer is full. Only the
// producer hart may call Push; it is not safe for concurrent producers.
//
//go:nosplit
func (r *Ring) Push(pkt SyndromePacket) bool {
	t := r.tail
	s := &r.buf[t&r.mask]
	if loadAcquireUint64(&s.seq) != t {
		return false // a consumer has not yet reclaimed the slot
	}
	s.pkt = pkt
	storeReleaseUint64(&s.seq, t+1)
	r.tail = t + 1
	return true
}

// PushSentinel broadcasts one drain packet per worker hart so that every
// worker observes exactly one sentinel and exits after it, regardless of
// how the ring interleaves real shots among them. Returns false (without
// partially broadcasting) if the ring cannot currently accept all n
// packets back-to-back.
func (r *Ring) PushSentinel(n int) bool {
	// Check every slot the broadcast needs before writing any of them.
	if n > len(r.buf) {
		return false
	}
	t := r.tail
	for i := uint64(0); i < uint64(n); i++ {
		if loadAcquireUint64(&r.buf[(t+i)&r.mask].seq) != t+i {
			return false
		}
	}
	pkt := SyndromePacket{ShotID: constants.SentinelShotID}
	pushed := 0
	for pushed < n {
		if !r.Push(pkt) {
			return false
		}
		pushed++
	}
	return true
}

// TryPop dequeues one packet, or returns ok=false if the ring is empty.
// Safe for any number of concurrent consumers: a CAS on the shared head
// arbitrates which consumer wins a given slot.
//
//go:nosplit
func (r *Ring) TryPop() (pkt SyndromePacket, ok bool) {
	for {
		h := atomic.LoadUint64(&r.head)
		s := &r.buf[h&r.mask]
		if loadAcquireUint64(&s.seq) != h+1 {
			return SyndromePacket{}, false // producer has not yet published
		}
		if atomic.CompareAndSwapUint64(&r.head, h, h+1) {
			pkt = s.pkt
			storeReleaseUint64(&s.seq, h+uint64(len(r.buf)))
			return pkt, true
		}
		// Lost the race to another consumer for this slot; re-read and retry.
	}
}

// Depth returns the ring's current occupancy: packets pushed but not yet
// claimed by a consumer. Reads tail and head independently with no
// synchronization between the two loads, so a console tick may observe a
// slightly stale value under concurrent traffic — acceptable for a
// monitoring figure, never used for flow control.
//
//go:nosplit
func (r *Ring) Depth() int {
	tail := loadAcquireUint64(&r.tail)
	head := loadAcquireUint64(&r.head)
	d := tail - head
	if d > uint64(len(r.buf)) {
		return len(r.buf)
	}
	return int(d)
}

// PopWait busy-spins until a packet becomes available.
func (r *Ring) PopWait() SyndromePacket {
	for {
		if pkt, ok := r.TryPop(); ok {
			return pkt
		}
		cpuRelax()
	}
}
