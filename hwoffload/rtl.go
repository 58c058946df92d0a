// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: rtl.go — cycle-stepped union-find accelerator state machine
//
// Purpose:
//   - Models the union_find.sv RTL contract in software: a 5-state machine
//     that walks a parent-pointer chain one memory read per cycle, with a
//     one-cycle request/response latency on every read, exactly the way the
//     real accelerator's memory port behaves.
//   - Doubles as the cycle-accurate co-simulation ABI (Init/Shutdown/Step/
//     SetInput/GetRoot/IsDone) a Verilator wrapper would expose to host
//     tests — CoSim below is the same machine under that name.
//
// Notes:
//   - No path compression happens here; the machine only ever reports the
//     terminal root. Parity is not and cannot be tracked by this walk — see
//     Driver.Find's doc comment.
// ─────────────────────────────────────────────────────────────────────────────

package hwoffload

type state uint8

const (
	stateIdle state = iota
	stateReadReq
	stateReadWait
	stateCheck
	stateDone
)

// Machine is the 5-state RTL state machine: Idle → ReadReq → ReadWait →
// Check → Done, with a one-cycle memory read latency modeled explicitly —
// the read issued by the Step taken in ReadReq is not visible until the
// Step call after the one that requested it.
type Machine struct {
	st       state
	cycle    uint64
	ram      []uint32
	currNode uint32
	rdataReg uint32
	nodeIn   uint32
	startReq bool

	reqCycle uint64
	reqAddr  uint32

	busy bool
	done bool
	root uint32
}

// CoSim is the same state machine exposed under the host-test ABI name
// that mirrors the Verilator wrapper contract.
type CoSim = Machine

// Init resets the machine and loads the parent RAM it will walk. ram is
// held by reference, not copied — the caller (Driver) owns its lifetime.
func (m *Machine) Init(ram []uint32) {
	*m = Machine{ram: ram}
}

// Shutdown releases the machine's reference to its RAM. Safe to call on an
// already-idle machine.
func (m *Machine) Shutdown() {
	m.ram = nil
}

// SetInput latches a new walk request. Mirrors driving start=1, node_in=node
// on the RTL's input ports for one cycle.
func (m *Machine) SetInput(start bool, node uint32) {
	if start {
		m.startReq = true
		m.nodeIn = node
	}
}

// Step advances the machine by one clock edge.
func (m *Machine) Step() {
	m.cycle++

	switch m.st {
	case stateIdle:
		m.busy = false
		if m.startReq {
			m.currNode = m.nodeIn
			m.startReq = false
			m.busy = true
			m.done = false
			m.st = stateReadReq
		}

	case stateReadReq:
		m.reqAddr = m.currNode
		m.reqCycle = m.cycle
		m.st = stateReadWait

	case stateReadWait:
		// Memory response for a request issued at cycle N is only valid
		// from cycle N+1 onward.
		if m.cycle > m.reqCycle {
			m.rdataReg = m.ram[m.reqAddr]
			m.st = stateCheck
		}

	case stateCheck:
		if m.rdataReg == m.currNode {
			m.st = stateDone
		} else {
			m.currNode = m.rdataReg
			m.st = stateReadReq
		}

	case stateDone:
		m.done = true
		m.busy = false
		m.root = m.currNode
		if m.startReq {
			m.currNode = m.nodeIn
			m.startReq = false
			m.busy = true
			m.done = false
			m.st = stateReadReq
		} else {
			m.st = stateIdle
		}
	}
}

// GetRoot returns the root found by the most recently completed walk.
func (m *Machine) GetRoot() uint32 { return m.root }

// IsDone reports whether the machine is holding a completed result.
func (m *Machine) IsDone() bool { return m.done }

// Busy reports whether a walk is currently in flight.
func (m *Machine) Busy() bool { return m.busy }
