package sim

import (
	"errors"

	"tagpatch/core"
)

// Slave is a device on the simulated bus. ok=false makes it NACK.
type Slave interface {
	ReadRegister(reg uint8) (value uint16, ok bool)
}

// BusFault injects controller misbehaviour
type BusFault uint8

const (
	FaultNone        BusFault = iota
	FaultStopStuck            // STOP never clears
	FaultTxStuck              // TX buffer never frees
	FaultStartStuck           // Repeated START never clears
	FaultNoData               // Slave stretches forever, no RX interrupt
	FaultHalfData             // Only the high byte arrives
)

var ErrZeroDivider = errors.New("sim: zero bus clock divider")

// Bus models the eUSCI_B0 controller in I2C master mode with its slaves.
// Interrupts are delivered synchronously to OnEvent while enabled.
type Bus struct {
	OnEvent func(core.I2CEvent)
	Fault   BusFault

	slaves   map[core.I2CAddress]Slave
	master   bool
	divider  uint16
	addr     core.I2CAddress
	enabled  bool
	reg      uint8
	regValid bool
	reading  bool
	nacked   bool
	rx       byte

	Transactions int
	Nacks        int
}

func NewBus() *Bus {
	return &Bus{slaves: make(map[core.I2CAddress]Slave)}
}

// Attach connects a slave at an address
func (b *Bus) Attach(addr core.I2CAddress, s Slave) {
	b.slaves[addr] = s
}

func (b *Bus) deliver(ev core.I2CEvent) {
	if b.enabled && b.OnEvent != nil {
		b.OnEvent(ev)
	}
}

func (b *Bus) nack() {
	b.nacked = true
	b.Nacks++
	b.deliver(core.I2CEventNack)
}

func (b *Bus) Init(addr core.I2CAddress, divider uint16) error {
	if divider == 0 {
		return ErrZeroDivider
	}
	b.master = true
	b.divider = divider
	b.addr = addr
	b.enabled = true
	return nil
}

func (b *Bus) SetSlaveAddress(addr core.I2CAddress) { b.addr = addr }

func (b *Bus) StopPending() bool { return b.Fault == FaultStopStuck }

func (b *Bus) StartWrite() {
	b.nacked = false
	b.regValid = false
	b.reading = false
	b.Transactions++
	if _, ok := b.slaves[b.addr]; !ok || !b.master {
		b.nack()
	}
}

func (b *Bus) TxReady() bool {
	return b.master && !b.nacked && b.Fault != FaultTxStuck
}

func (b *Bus) WriteByte(v byte) {
	b.reg = v
	b.regValid = true
}

func (b *Bus) StartRead() {
	b.reading = !b.nacked && b.regValid
}

func (b *Bus) StartPending() bool { return b.Fault == FaultStartStuck }

func (b *Bus) ClearStart() { b.reading = false }

// Stop ends the transaction. A read armed by the repeated START clocks
// its two bytes out first.
func (b *Bus) Stop() {
	if !b.reading {
		return
	}
	b.reading = false

	v, ok := b.slaves[b.addr].ReadRegister(b.reg)
	if !ok {
		b.nack()
		return
	}
	switch b.Fault {
	case FaultNoData:
		return
	case FaultHalfData:
		b.rx = byte(v >> 8)
		b.deliver(core.I2CEventRx)
		return
	}
	b.rx = byte(v >> 8)
	b.deliver(core.I2CEventRx)
	b.rx = byte(v)
	b.deliver(core.I2CEventRx)
}

func (b *Bus) ReadByte() byte { return b.rx }

func (b *Bus) EnableInterrupts()  { b.enabled = true }
func (b *Bus) DisableInterrupts() { b.enabled = false }
func (b *Bus) ClearFlags()        { b.nacked = false }

// FDC1004 registers the model answers
const (
	FDC1004RegManufacturerID = 0xFE
	FDC1004RegDeviceID       = 0xFF
	FDC1004RegMeas1MSB       = 0x00
	FDC1004RegMeas1LSB       = 0x01
)

// FDC1004 is a capacitance-to-digital converter model with writable
// measurement registers.
type FDC1004 struct {
	Registers map[uint8]uint16
}

func NewFDC1004() *FDC1004 {
	return &FDC1004{Registers: map[uint8]uint16{
		FDC1004RegManufacturerID: core.FDC1004ManufacturerID,
		FDC1004RegDeviceID:       core.FDC1004DeviceID,
		FDC1004RegMeas1MSB:       0,
		FDC1004RegMeas1LSB:       0,
	}}
}

func (d *FDC1004) ReadRegister(reg uint8) (uint16, bool) {
	v, ok := d.Registers[reg]
	return v, ok
}
