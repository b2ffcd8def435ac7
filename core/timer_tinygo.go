//go:build tinygo

package core

import "device"

// SpinDelay burns roughly n cycles with a nop loop (about four cycles per pass)
func SpinDelay(n uint32) {
	for i := n / spinCyclesPerIteration; i > 0; i-- {
		device.Asm("nop")
	}
}

const spinCyclesPerIteration = 4
