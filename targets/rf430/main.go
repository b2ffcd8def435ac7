//go:build rf430

package main

import (
	"tagpatch/core"
	"tagpatch/protocol"
)

var clock = &Clock{}

func main() {
	core.SetGPIODriver(Port1{})
	core.SetClock(clock)
	core.SetMailbox(RF13M{})
	core.SetConverter(SD14{})
	core.SetCRCDriver(CRCUnit{})
	core.SetI2CController(EUSCIB0{})

	f, err := core.Init(core.DefaultConfig())
	if err != nil {
		// Without a patch table the ROM keeps its own handlers; keep the
		// image valid and idle.
		core.RepairCRC(core.DefaultCRCRegions()...)
		for {
			clock.WaitForInterrupt()
		}
	}
	f.Run()
}

// Entry points referenced by the patch table. The boot ROM calls them with
// no arguments after matching the command code.

//export cmd_a0
func cmdA0() uint16 { return dispatch(protocol.CmdPing) }

//export cmd_a1
func cmdA1() uint16 { return dispatch(protocol.CmdOutputHigh) }

//export cmd_a2
func cmdA2() uint16 { return dispatch(protocol.CmdMeasure) }

//export cmd_a3
func cmdA3() uint16 { return dispatch(protocol.CmdConfigure) }

//export cmd_a4
func cmdA4() uint16 { return dispatch(protocol.CmdOutputLow) }

//export cmd_a5
func cmdA5() uint16 { return dispatch(protocol.CmdBusInit) }

//export cmd_a6
func cmdA6() uint16 { return dispatch(protocol.CmdReadSensor) }

func dispatch(code uint8) uint16 {
	v, _ := core.DispatchCommand(code)
	return v
}
