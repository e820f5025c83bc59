package shell

// PollStatus is the composite result of draining compositor events: whether the
// process should quit, and whether a frame should be produced this cycle.
type PollStatus uint32

const (
	// PollQuit means the process should exit after cleanup.
	PollQuit PollStatus = 1 << iota
	// PollFrame means a frame should be produced this cycle.
	PollFrame
)

// Has reports whether all bits of flag are set.
//
// Parameters:
//   - flag: the status bits to test for
//
// Returns:
//   - bool: true if every bit in flag is set on s
func (s PollStatus) Has(flag PollStatus) bool {
	return s&flag == flag
}

// with returns s with the bits of flag set.
func (s PollStatus) with(flag PollStatus) PollStatus {
	return s | flag
}

// without returns s with the bits of flag cleared.
func (s PollStatus) without(flag PollStatus) PollStatus {
	return s &^ flag
}
