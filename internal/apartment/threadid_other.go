//go:build !linux && !windows

package apartment

// No portable thread id here. Enter still pins the goroutine to its thread,
// but Check can only verify that the apartment was entered.
func threadID() (uint64, bool) { return 0, false }
