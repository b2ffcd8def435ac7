//go:build rf430

package main

import (
	"errors"

	"tagpatch/core"
)

// Port1 implements core.GPIODriver for port 1
type Port1 struct{}

var errNoPin = errors.New("port 1 has 8 pins")

func (Port1) ConfigureOutput(pin core.GPIOPin) error {
	if pin > 7 {
		return errNoPin
	}
	bit := uint8(1) << pin
	p1SEL0.ClearBits(bit)
	p1SEL1.ClearBits(bit)
	p1DIR.SetBits(bit)
	return nil
}

func (Port1) SetPin(pin core.GPIOPin, value bool) error {
	if pin > 7 {
		return errNoPin
	}
	bit := uint8(1) << pin
	if value {
		p1OUT.SetBits(bit)
	} else {
		p1OUT.ClearBits(bit)
	}
	return nil
}

func (Port1) GetPin(pin core.GPIOPin) (bool, error) {
	if pin > 7 {
		return false, errNoPin
	}
	return p1OUT.HasBits(uint8(1) << pin), nil
}

// SD14 implements core.Converter
type SD14 struct{}

func (SD14) Config() uint16 { return sd14CTL1.Get() }

func (SD14) Configure(cfg uint16) {
	sd14CTL0.Set(0)
	sd14CTL1.Set(cfg)
}

func (SD14) ClearComplete() { sd14CTL0.ClearBits(sd14IFG) }
func (SD14) Enable()        { sd14CTL0.SetBits(sd14EN | sd14SSELACLK | sd14VIRTGND) }
func (SD14) Start()         { sd14CTL0.SetBits(sd14SC) }
func (SD14) Complete() bool { return sd14CTL0.HasBits(sd14IFG) }
func (SD14) Result() uint16 { return sd14MEM0.Get() }
func (SD14) Abort()         { sd14CTL0.ClearBits(sd14SC) }

// CRCUnit implements core.CRCDriver over the CRC16 module and FRAM
type CRCUnit struct{}

func (CRCUnit) Seed(v uint16)               { crcINIRES.Set(v) }
func (CRCUnit) Feed(w uint16)               { crcDI.Set(w) }
func (CRCUnit) Result() uint16              { return crcINIRES.Get() }
func (CRCUnit) ReadWord(addr uint16) uint16 { return reg16(uintptr(addr)).Get() }
func (CRCUnit) WriteWord(addr, v uint16)    { reg16(uintptr(addr)).Set(v) }

func (CRCUnit) SetValidation(enabled bool) {
	if enabled {
		sysCNFH.SetBits(sysCNFValidation)
	} else {
		sysCNFH.ClearBits(sysCNFValidation)
	}
}

// RF13M implements core.Mailbox over the RF transmit FIFO
type RF13M struct{}

func (RF13M) WriteLength(n uint8) { rf13mTXFL.Set(n) }
func (RF13M) WriteWord(w uint16)  { rf13mTXF.Set(w) }
