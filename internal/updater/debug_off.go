//go:build !updaterdebug

package updater

// debugChecks enables id range assertions on the hot path.
// Build with -tags updaterdebug to turn them on.
const debugChecks = false
