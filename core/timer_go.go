//go:build !tinygo

package core

// spinIterations counts SpinDelay loop iterations on regular Go (for testing)
var spinIterations uint64

// SpinDelay burns roughly n cycles. On regular Go it only records the request.
func SpinDelay(n uint32) {
	spinIterations += uint64(n / spinCyclesPerIteration)
}

const spinCyclesPerIteration = 4
