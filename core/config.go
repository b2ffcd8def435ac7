package core

import "errors"

// Variant selects which commands a firmware image carries
type Variant uint8

const (
	// VariantSigmaDelta carries the converter and output pin commands (A1-A4)
	// and repairs the image CRC on every main loop pass.
	VariantSigmaDelta Variant = iota
	// VariantI2C carries ping, bus init and sensor read (A0, A5, A6)
	VariantI2C
	// VariantCombined carries every command (A0-A6)
	VariantCombined
)

func (v Variant) String() string {
	switch v {
	case VariantSigmaDelta:
		return "sigma-delta"
	case VariantI2C:
		return "i2c"
	case VariantCombined:
		return "combined"
	}
	return "unknown"
}

// ParseVariant maps a variant name back to its value
func ParseVariant(name string) (Variant, error) {
	for _, v := range []Variant{VariantSigmaDelta, VariantI2C, VariantCombined} {
		if v.String() == name {
			return v, nil
		}
	}
	return 0, errors.New("unknown firmware variant: " + name)
}

// RepairsEachLoop reports whether the main loop repairs the CRC every pass
func (v Variant) RepairsEachLoop() bool {
	return v == VariantSigmaDelta
}

// Config holds the build-time firmware parameters
type Config struct {
	Variant Variant

	// OutputPin is the indicator / trigger pin (P1.5)
	OutputPin GPIOPin

	// I2C sensor
	SensorAddress   I2CAddress
	SensorRegister  uint8
	I2CClockDivider uint16

	// Bounded waits, in polls
	PollBudget           int // each initiator step, including the STOP wait
	CompletionBudget     int // waiting for the interrupt handler to finish
	ConversionPollBudget int // waiting for the converter

	// Delays, in MCLK cycles
	SettleCycles uint32 // configure command pin pulse
	PingCycles   uint32 // ping command pin pulse
	BlinkCycles  uint32 // half period of an indicator blink

	// StageBlinks blinks the indicator 1, 2 and 3 times as the initiator
	// passes each bus phase
	StageBlinks bool

	// CRC regions repaired before the boot ROM validates the image
	CRCRegions []CRCRegion
}

// FDC1004 capacitance-to-digital converter defaults
const (
	FDC1004Address        I2CAddress = 0x50
	FDC1004DeviceIDReg    uint8      = 0xFF
	FDC1004DeviceID       uint16     = 0x1004
	FDC1004ManufacturerID uint16     = 0x5449
)

// DefaultConfig returns the configuration of the combined image
func DefaultConfig() Config {
	return Config{
		Variant:              VariantCombined,
		OutputPin:            5,
		SensorAddress:        FDC1004Address,
		SensorRegister:       FDC1004DeviceIDReg,
		I2CClockDivider:      3,
		PollBudget:           1000,
		CompletionBudget:     1000,
		ConversionPollBudget: 20000,
		SettleCycles:         80000,
		PingCycles:           50000,
		BlinkCycles:          120000,
		CRCRegions:           DefaultCRCRegions(),
	}
}

// MaxOutputPin is the highest pin of port 1
const MaxOutputPin GPIOPin = 7

var ErrBadConfig = errors.New("invalid firmware configuration")

// Validate checks the parameters the core relies on
func (c Config) Validate() error {
	if c.PollBudget <= 0 || c.CompletionBudget <= 0 || c.ConversionPollBudget <= 0 {
		return ErrBadConfig
	}
	if c.SensorAddress > 0x7F {
		return ErrBadConfig
	}
	if c.OutputPin > MaxOutputPin {
		return ErrBadConfig
	}
	if c.Variant > VariantCombined {
		return ErrBadConfig
	}
	return nil
}
