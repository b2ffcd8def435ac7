package core

import (
	"errors"

	"tagpatch/protocol"
	"tinygo.org/x/drivers"
)

// RegisterSensor is a device with 16-bit big-endian registers behind a
// one-byte register pointer, such as the FDC1004.
type RegisterSensor struct {
	bus  drivers.I2C
	addr uint16
	w    [1]byte
	r    [2]byte
}

// NewRegisterSensor binds a sensor address on a bus
func NewRegisterSensor(bus drivers.I2C, addr I2CAddress) *RegisterSensor {
	return &RegisterSensor{bus: bus, addr: uint16(addr)}
}

// ReadRegister reads one register
func (s *RegisterSensor) ReadRegister(reg uint8) (uint16, error) {
	s.w[0] = reg
	if err := s.bus.Tx(s.addr, s.w[:], s.r[:]); err != nil {
		return 0, err
	}
	return uint16(s.r[0])<<8 | uint16(s.r[1]), nil
}

// SensorResult turns a read into the reply word: the value itself, or the
// sentinel for the failure.
func SensorResult(v uint16, err error) uint16 {
	switch {
	case err == nil:
		return v
	case errors.Is(err, ErrI2CIncomplete):
		return protocol.ResultNeverCompleted
	}
	return protocol.ResultFailed
}
