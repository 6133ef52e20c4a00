//go:build !linux && !darwin && !windows

package clip

// New returns an in-memory board; there is no desktop clipboard here.
func New() Platform {
	return &Board{name: "headless (in-memory)"}
}
