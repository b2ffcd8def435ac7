package core

// CRCDriver bundles the hardware CRC unit, word access to the firmware image
// and the boot ROM validation gate.
type CRCDriver interface {
	// Seed loads the CRC unit's initial value
	Seed(v uint16)

	// Feed accumulates one word
	Feed(w uint16)

	// Result reads the running CRC
	Result() uint16

	// ReadWord reads a word of the firmware image at a byte address
	ReadWord(addr uint16) uint16

	// WriteWord writes a word of the firmware image at a byte address
	WriteWord(addr uint16, v uint16)

	// SetValidation gates the boot ROM's image validation
	SetValidation(enabled bool)
}

// Global singleton used by core code.
var crcDriver CRCDriver

// SetCRCDriver is called by target-specific code to register its driver.
func SetCRCDriver(d CRCDriver) {
	crcDriver = d
}

// MustCRC returns the configured driver or panics if missing.
func MustCRC() CRCDriver {
	if crcDriver == nil {
		panic("CRC driver not configured")
	}
	return crcDriver
}
