//go:build updaterdebug

package updater

const debugChecks = true
