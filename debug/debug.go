// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — decode-path-safe diagnostic logging (zero-alloc)
//
// Purpose:
//   - Logs infrequent error paths without introducing heap pressure.
//   - Used only in cold paths: boot, config errors, HW-find fallback, the
//     per-shot InvariantViolation recovery boundary.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency.
//   - Uses stackless logging model: no alloc, no interfaces.
//
// ⚠️ Never invoke from inside dsu.Decode's hot loop — only at worker/shot
// boundaries and during boot.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "qecd/utils"

// DropError logs error messages with a custom alloc-free print strategy.
// It writes directly to stderr (fd 2), bypassing heap allocation.
//
//go:nosplit
//go:inline
//go:registerparams
func DropError(prefix string, err error) {
	if err != nil {
		msg := prefix + ": " + err.Error() + "\n"
		utils.PrintWarning(msg)
	} else {
		msg := prefix + "\n"
		utils.PrintWarning(msg)
	}
}

// DropMessage logs debug messages with zero-allocation print strategy.
// Used for cold-path diagnostics: boot sequence, shutdown, stats ticks.
//
//go:nosplit
//go:inline
//go:registerparams
func DropMessage(prefix, message string) {
	msg := prefix + ": " + message + "\n"
	utils.PrintWarning(msg)
}
