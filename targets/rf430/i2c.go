//go:build rf430

package main

import (
	"errors"

	"tagpatch/core"
)

// EUSCIB0 implements core.I2CController for eUSCI_B0 on P1.0 (SDA) / P1.1 (SCL)
type EUSCIB0 struct{}

var errZeroDivider = errors.New("I2C clock divider must be non-zero")

func (EUSCIB0) Init(addr core.I2CAddress, divider uint16) error {
	if divider == 0 {
		return errZeroDivider
	}
	p1SEL0.SetBits(0x03)
	p1SEL1.ClearBits(0x03)

	ucb0CTLW0.SetBits(ucSWRST)
	ucb0CTLW0.Set(ucSWRST | ucMODE3 | ucSSELACLK | ucMST)
	ucb0BRW.Set(divider)
	ucb0I2CSA.Set(uint16(addr))
	ucb0CTLW0.ClearBits(ucSWRST)
	ucb0IE.SetBits(ucNACKIFG | ucTXIFG0 | ucRXIFG0)
	return nil
}

func (EUSCIB0) SetSlaveAddress(addr core.I2CAddress) { ucb0I2CSA.Set(uint16(addr)) }
func (EUSCIB0) StopPending() bool                    { return ucb0CTLW0.HasBits(ucTXSTP) }
func (EUSCIB0) StartWrite()                          { ucb0CTLW0.SetBits(ucTR | ucTXSTT) }
func (EUSCIB0) TxReady() bool                        { return ucb0IFG.HasBits(ucTXIFG0) }
func (EUSCIB0) WriteByte(b byte)                     { ucb0TXBUF.Set(uint16(b)) }
func (EUSCIB0) StartPending() bool                   { return ucb0CTLW0.HasBits(ucTXSTT) }
func (EUSCIB0) ClearStart()                          { ucb0CTLW0.ClearBits(ucTXSTT) }
func (EUSCIB0) Stop()                                { ucb0CTLW0.SetBits(ucTXSTP) }
func (EUSCIB0) ReadByte() byte                       { return byte(ucb0RXBUF.Get()) }
func (EUSCIB0) EnableInterrupts()                    { ucb0IE.SetBits(ucNACKIFG | ucTXIFG0 | ucRXIFG0) }
func (EUSCIB0) DisableInterrupts()                   { ucb0IE.Set(0) }
func (EUSCIB0) ClearFlags()                          { ucb0IFG.ClearBits(ucRXIFG0 | ucTXIFG0 | ucNACKIFG) }

func (EUSCIB0) StartRead() {
	ucb0CTLW0.ClearBits(ucTR)
	ucb0CTLW0.SetBits(ucTXSTT)
}

// decodeVector maps the interrupt vector register to a bus event. Reading
// UCB0IV clears the highest pending flag.
func decodeVector(iv uint16) core.I2CEvent {
	switch iv {
	case 0:
		return core.I2CEventNone
	case ucIVNack:
		return core.I2CEventNack
	case ucIVRx0:
		return core.I2CEventRx
	}
	return core.I2CEventOther
}

//export usci_b0_isr
func usciB0ISR() {
	core.HandleBusInterrupt(decodeVector(ucb0IV.Get()))
}
