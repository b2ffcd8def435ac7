//go:build rf430

package main

import (
	"device"
	"runtime/volatile"

	"tagpatch/core"
)

// Clock implements core.Clock with cycle spins and a wake flag
type Clock struct {
	woken volatile.Register8
}

func (c *Clock) DelayCycles(n uint32) {
	core.SpinDelay(n)
}

// WaitForInterrupt enables interrupts and idles until an ISR calls Wake.
// TODO: enter LPM3 here once the ISR wrapper can clear the stacked SR bits on exit.
func (c *Clock) WaitForInterrupt() {
	device.Asm("bis.w #8, r2")
	for c.woken.Get() == 0 {
		device.Asm("nop")
	}
	c.woken.Set(0)
}

func (c *Clock) Wake() {
	c.woken.Set(1)
}
