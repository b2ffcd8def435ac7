package core

// I2CAddress is a 7-bit I2C device address.
type I2CAddress uint8

// I2CEvent is the decoded cause of a bus controller interrupt.
type I2CEvent uint8

const (
	I2CEventNone I2CEvent = iota
	I2CEventNack          // Slave did not acknowledge
	I2CEventRx            // A byte is waiting in the receive buffer
	I2CEventOther         // Any other cause (TX ready, start, stop, ...)
)

// I2CController is the register-level bus controller the transaction engine
// drives. Each method is one ordered side effect on the peripheral; bit
// fields stay inside the target implementation.
type I2CController interface {
	// Init puts the controller in software reset, selects master mode with
	// the given clock divider, leaves reset and enables the NACK, TX and RX
	// interrupts.
	Init(addr I2CAddress, divider uint16) error

	// SetSlaveAddress selects the target device for the next transaction
	SetSlaveAddress(addr I2CAddress)

	// StopPending reports whether a STOP condition is still being generated
	StopPending() bool

	// StartWrite selects transmitter mode and generates START + address/write
	StartWrite()

	// TxReady reports whether the transmit buffer can take a byte
	TxReady() bool

	// WriteByte loads the transmit buffer
	WriteByte(b byte)

	// StartRead selects receiver mode and generates a repeated START
	StartRead()

	// StartPending reports whether a START condition is still being generated
	StartPending() bool

	// ClearStart cancels a pending START condition
	ClearStart()

	// Stop schedules a STOP condition
	Stop()

	// ReadByte reads the receive buffer
	ReadByte() byte

	// EnableInterrupts enables the NACK, TX and RX interrupts
	EnableInterrupts()

	// DisableInterrupts clears every bus interrupt enable bit
	DisableInterrupts()

	// ClearFlags clears pending RX, TX and NACK interrupt flags
	ClearFlags()
}

// Global singleton used by core code.
var i2cController I2CController

// SetI2CController is called by target-specific code to register its driver.
func SetI2CController(c I2CController) {
	i2cController = c
}

// MustI2C returns the configured controller or panics if missing.
func MustI2C() I2CController {
	if i2cController == nil {
		panic("I2C controller not configured")
	}
	return i2cController
}
