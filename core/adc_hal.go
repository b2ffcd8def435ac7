package core

// Converter is the sigma-delta ADC peripheral. The configuration word is the
// peripheral's persistent control register; everything else is a single
// ordered register operation.
type Converter interface {
	// Config returns the configuration register (channel, gain, rate, filter)
	Config() uint16

	// Configure clears the control register and writes the configuration register
	Configure(cfg uint16)

	// ClearComplete clears the conversion complete flag
	ClearComplete()

	// Enable powers the converter with ACLK and the virtual ground reference
	Enable()

	// Start triggers a single conversion
	Start()

	// Complete reports whether the conversion complete flag is set
	Complete() bool

	// Result reads the conversion register
	Result() uint16

	// Abort cancels a conversion that never completed
	Abort()
}

// Global singleton used by core code.
var converter Converter

// SetConverter is called by target-specific code to register its driver.
func SetConverter(c Converter) {
	converter = c
}

// MustConverter returns the configured converter or panics if missing.
func MustConverter() Converter {
	if converter == nil {
		panic("Converter not configured")
	}
	return converter
}
