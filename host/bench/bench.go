// Package bench reads the tag's sensor directly from a Linux I2C bus, so
// results relayed by the tag can be cross-checked on the bench.
package bench

import (
	"context"
	"encoding/binary"
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"tagpatch/core"
	"tagpatch/host/reader"
)

// FDC1004 identification registers
const (
	RegManufacturerID = 0xFE
	RegDeviceID       = 0xFF
)

// Sensor is a register-addressed device with 16-bit big-endian registers
type Sensor struct {
	dev *i2c.Dev
}

// New wraps a device on an already open bus
func New(bus i2c.Bus, addr uint16) *Sensor {
	return &Sensor{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// Open initialises the host drivers and opens a bus by name ("" = first).
// The returned bus must be closed by the caller.
func Open(busName string, addr uint16) (*Sensor, i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("bench: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, nil, fmt.Errorf("bench: %w", err)
	}
	return New(bus, addr), bus, nil
}

// ReadRegister performs the same write-register, repeated-start, read-two
// transaction the tag's firmware does.
func (s *Sensor) ReadRegister(reg uint8) (uint16, error) {
	r := make([]byte, 2)
	if err := s.dev.Tx([]byte{reg}, r); err != nil {
		return 0, fmt.Errorf("bench: read register 0x%02X: %w", reg, err)
	}
	return binary.BigEndian.Uint16(r), nil
}

// Identify reads the manufacturer and device IDs
func (s *Sensor) Identify() (manufacturer, device uint16, err error) {
	if manufacturer, err = s.ReadRegister(RegManufacturerID); err != nil {
		return 0, 0, err
	}
	if device, err = s.ReadRegister(RegDeviceID); err != nil {
		return 0, 0, err
	}
	return manufacturer, device, nil
}

// Comparison is one register read through the tag and directly
type Comparison struct {
	Register uint8
	ViaTag   uint16
	Direct   uint16
}

// Match reports whether both paths returned the same value
func (c Comparison) Match() bool {
	return c.ViaTag == c.Direct
}

// TagRegister is the register the firmware's read command reads
var TagRegister = core.DefaultConfig().SensorRegister

// Compare reads TagRegister through the tag's I2C patch, then the same
// register directly. The tag's bus must already be initialised.
func Compare(ctx context.Context, tag *reader.Client, s *Sensor) (Comparison, error) {
	c := Comparison{Register: TagRegister}

	v, err := tag.ReadSensor(ctx)
	if err != nil {
		return c, err
	}
	c.ViaTag = v

	if c.Direct, err = s.ReadRegister(c.Register); err != nil {
		return c, err
	}
	return c, nil
}
