// ════════════════════════════════════════════════════════════════════════════════════════════════
// Quantum Error Correction Decode Core - Main Entry Point
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Component: Main Entry Point & System Orchestration
//
// Description:
//   System orchestration with phased initialization and clean separation of concerns.
//   Bootstrap → Worker Fleet Startup → Production Shot Processing
//
// Architecture:
//   - Phase 0: Load the decoding graph and shot archive, open the local archive db
//   - Phase 1: Allocate per-worker arenas/stats and spawn the pinned worker fleet
//   - Phase 2: Signal handling and telemetry listener startup
//   - Phase 3: Producer loop feeding shots onto the ring, GC disabled
// ════════════════════════════════════════════════════════════════════════════════════════════════

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"runtime"
	rtdebug "runtime/debug"
	"strconv"
	"syscall"
	"time"

	"qecd/arena"
	"qecd/archive"
	"qecd/blobstore"
	"qecd/blobstore/local"
	"qecd/console"
	"qecd/constants"
	"qecd/control"
	"qecd/debug"
	"qecd/demformat"
	"qecd/dsu"
	"qecd/graph"
	"qecd/hwoffload"
	"qecd/ring"
	"qecd/stats"
	"qecd/utils"

	"golang.org/x/sync/errgroup"
)

const (
	dataDir     = "./data"
	demKey      = "graph.dem"
	shotsKey    = "shots.b8"
	archivePath = "qecd.db"
)

// errUnexpectedPanic marks a worker panic the decode core's error handling
// contract does not recognize as a recoverable per-shot condition (see
// dsu.ErrInvariantViolation, the one panic path that is recoverable).
var errUnexpectedPanic = errors.New("main: unexpected decode panic")

func main() {
	// PHASE 0: load build artifacts and open the host-side archive.
	debug.DropMessage("INIT", "loading decoding graph and shot archive")

	store := local.New(dataDir)

	// graph.dem and shots.b8 are independent reads off the same store;
	// fetching them concurrently shaves boot latency on the S3/minio
	// backends where Get is a network round trip.
	var g *graph.Graph
	var numEdges int
	var shots demformat.ShotArchive
	var eg errgroup.Group
	eg.Go(func() error { g, numEdges = loadGraph(store); return nil })
	eg.Go(func() error { shots = loadShots(store); return nil })
	eg.Wait()

	debug.DropMessage("LOADED", itoa(int(g.NumDetectors))+" detectors, "+itoa(numEdges)+" edges, "+itoa(int(shots.NumShots))+" shots")

	arc, err := archive.Open(archivePath)
	if err != nil {
		debug.DropError("ARCHIVE_OPEN", err)
		os.Exit(constants.ExitMalformedArchive)
	}
	runID, err := arc.BeginRun(demHash(g), int(shots.NumShots), time.Now().Unix())
	if err != nil {
		debug.DropError("ARCHIVE_BEGIN", err)
		os.Exit(constants.ExitMalformedArchive)
	}

	// PHASE 1: per-worker arenas/stats and the pinned worker fleet.
	numWorkers := constants.DefaultWorkerCount
	r := ring.New(constants.RingSize)
	slots := make([]*stats.Slot, numWorkers)
	dones := make([]chan struct{}, numWorkers)
	fatal := make(chan error, numWorkers)

	stopFlag, hotFlag := control.Flags()

	for w := 0; w < numWorkers; w++ {
		slot := stats.New()
		slots[w] = slot

		workerArena, err := arena.New(constants.WorkerArenaBytes)
		if err != nil {
			debug.DropError("ARENA_INIT", err)
			os.Exit(constants.ExitArenaExhausted)
		}

		// Every worker routes find-root pre-checks through the accelerator
		// seam. Write-back stays off: the accelerator has no notion of
		// parityToRoot, and writing a compressed parent[x] back without
		// updating parityToRoot to match would desync the two arrays.
		dec := &dsu.Decoder{HW: hwoffload.NewDriver(false)}
		done := make(chan struct{})
		dones[w] = done

		correctionOut := make([]graph.EdgeID, len(g.Edges))

		ring.PinnedConsumer(w, r, stopFlag, hotFlag, func(pkt ring.SyndromePacket) {
			decodeShot(dec, g, workerArena, correctionOut, pkt, slot, fatal)
		}, done)
	}

	debug.DropMessage("READY", itoa(numWorkers)+" worker harts online")

	// PHASE 2: signal handling and telemetry listener.
	setupSignalHandling(arc, runID)

	telemetry, err := console.NewListener(0)
	if err != nil {
		debug.DropError("TELEMETRY_LISTEN", err)
	} else {
		snapshot := func() stats.Snapshot { return stats.Aggregate(slots) }
		go telemetry.Serve(snapshot)
		defer telemetry.Close()
		debug.DropMessage("TELEMETRY", "listening on "+telemetry.Addr().String())
	}

	// PHASE 3: production shot feed, GC disabled, producer pinned to its own core.
	rtdebug.SetGCPercent(-1)
	runtime.LockOSThread()

	bootTime := time.Now()
	tickEvery := uint32(constants.StatsTickCycles)

	for i := uint32(0); i < shots.NumShots; i++ {
		pkt := ring.PacketFromBytes(i, shots.Shot(i))
		for !r.Push(pkt) {
			drainFatal(fatal)
			runtime.Gosched()
		}
		control.SignalActivity()
		drainFatal(fatal)

		if i%tickEvery == 0 {
			emitTick(bootTime, r, slots)
		}
	}

	// Drain: broadcast one sentinel per worker hart and wait for each to exit.
	for !r.PushSentinel(numWorkers) {
		runtime.Gosched()
	}
	for _, done := range dones {
		<-done
	}

	emitTick(bootTime, r, slots)

	if err := arc.FinishRun(runID, time.Now().Unix()); err != nil {
		debug.DropError("ARCHIVE_FINISH", err)
	}
	arc.Close()

	debug.DropMessage("DONE", "all shots decoded, clean shutdown")
	os.Exit(constants.ExitClean)
}

// drainFatal checks for a worker-reported fatal condition without blocking
// the producer loop, and exits the process immediately when one arrives —
// arena exhaustion and unrecovered decode panics are both build/config bugs
// the producer cannot work around.
func drainFatal(fatal <-chan error) {
	select {
	case err := <-fatal:
		debug.DropError("FATAL", err)
		control.Shutdown()
		os.Exit(constants.ExitArenaExhausted)
	default:
	}
}

// decodeShot runs one shot through the decoder. dsu.ErrInvariantViolation is
// the one panic path the decode core treats as nonfatal-per-shot, per the
// error handling contract: it is recovered into a stats increment and a log
// line, and the worker moves on to its next shot. Anything else recovered
// here — or arena.ErrOutOfArena returned directly — escalates to fatal,
// since both indicate a build/config bug rather than a bad shot.
func decodeShot(dec *dsu.Decoder, g *graph.Graph, a *arena.BumpArena, correctionOut []graph.EdgeID, pkt ring.SyndromePacket, slot *stats.Slot, fatal chan<- error) {
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			if err, ok := rec.(error); ok && errors.Is(err, dsu.ErrInvariantViolation) {
				slot.RecordMalformed()
				debug.DropError("INVARIANT_VIOLATION", err)
				return
			}
			debug.DropMessage("PANIC", "unrecovered decode panic, escalating to fatal shutdown")
			select {
			case fatal <- errUnexpectedPanic:
			default:
			}
		}
	}()

	_, err := dec.Decode(pkt, g, a, correctionOut)
	if err != nil {
		if errors.Is(err, arena.ErrOutOfArena) {
			select {
			case fatal <- err:
			default:
			}
			return
		}
		slot.RecordMalformed()
		debug.DropError("MALFORMED_SHOT", err)
		return
	}

	slot.RecordShot(uint64(time.Since(start).Nanoseconds()))
}

func emitTick(bootTime time.Time, r *ring.Ring, slots []*stats.Slot) {
	snap := stats.Aggregate(slots)
	elapsed := int64(time.Since(bootTime).Seconds())
	debug.DropMessage("STATS", console.FormatLine(elapsed, r.Depth(), snap))
}

func loadGraph(store blobstore.Store) (*graph.Graph, int) {
	rc, err := blobstore.Open(context.Background(), store, demKey)
	if err != nil {
		debug.DropError("DEM_OPEN", err)
		os.Exit(constants.ExitMalformedDEM)
	}
	defer rc.Close()

	dem, err := demformat.ParseDEM(rc)
	if err != nil {
		debug.DropError("DEM_PARSE", err)
		os.Exit(constants.ExitMalformedDEM)
	}
	return graph.Build(dem.NumDetectors, dem.Edges), len(dem.Edges)
}

func loadShots(store blobstore.Store) demformat.ShotArchive {
	rc, err := blobstore.Open(context.Background(), store, shotsKey)
	if err != nil {
		debug.DropError("SHOTS_OPEN", err)
		os.Exit(constants.ExitMalformedArchive)
	}
	defer rc.Close()

	shots, err := demformat.ParseShots(rc)
	if err != nil {
		debug.DropError("SHOTS_PARSE", err)
		os.Exit(constants.ExitMalformedArchive)
	}
	return shots
}

// setupSignalHandling configures graceful shutdown coordination, mirroring
// the teacher's signal-driven control.Shutdown handoff.
func setupSignalHandling(arc *archive.Archive, runID int64) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		debug.DropMessage("SIGNAL", "received interrupt, shutting down")
		control.Shutdown()
		arc.FinishRun(runID, time.Now().Unix())
		arc.Close()
		os.Exit(constants.ExitClean)
	}()
}

// demHash fingerprints a built graph's shape for the archive's run record.
// Not a content hash of the original DEM bytes — just enough to tell runs
// against different graphs apart in stats_ticks without re-reading the
// blob store.
func demHash(g *graph.Graph) string {
	h := utils.Mix64(uint64(g.NumDetectors))
	h = utils.Mix64(h ^ uint64(len(g.Edges)))
	return strconv.FormatUint(h, 16)
}

func itoa(n int) string { return strconv.Itoa(n) }
