package core

// MCLKFreq is the main clock the delay counts are expressed in
const MCLKFreq = 4000000

// Clock provides cycle delays and the low-power wait of the main loop.
type Clock interface {
	// DelayCycles busy-waits for roughly n MCLK cycles
	DelayCycles(n uint32)

	// WaitForInterrupt suspends in low-power mode until an interrupt wakes the core
	WaitForInterrupt()

	// Wake is called from interrupt context to leave low-power mode on exit
	Wake()
}

// Global singleton used by core code.
var clock Clock

// SetClock is called by target-specific code to register its clock.
func SetClock(c Clock) {
	clock = c
}

// MustClock returns the configured clock or panics if missing.
func MustClock() Clock {
	if clock == nil {
		panic("Clock not configured")
	}
	return clock
}

// CyclesFromUS converts microseconds to MCLK cycles
func CyclesFromUS(us uint32) uint32 {
	return us * (MCLKFreq / 1000000)
}

// CyclesToUS converts MCLK cycles to microseconds
func CyclesToUS(cycles uint32) uint32 {
	return cycles / (MCLKFreq / 1000000)
}
