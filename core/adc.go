// Sigma-delta (SD14) capture commands
package core

import "tagpatch/protocol"

// Converter configuration word layout
const (
	SD14ChannelMask  = 0x0007
	SD14GainShift    = 3
	SD14GainMask     = 0x0018
	SD14RateShift    = 5
	SD14RateMask     = 0x00E0
	SD14FilterSinc   = 0x0100 // Clear selects the CIC filter
	SD14IntDelayMask = 0x0600
	SD14IntDelay1st  = 0x0000 // Interrupt on the first sample
	SD14IntDelay4th  = 0x0600 // Interrupt on the fourth sample
	SD14Unipolar     = 0x0800
)

// Converter input channels
const (
	SD14ChannelADC0 = 0
	SD14ChannelADC1 = 1
	SD14ChannelADC2 = 2
	SD14ChannelTemp = 3
)

// Decimation rates
const (
	SD14RateCIC32  = 0
	SD14RateCIC64  = 1
	SD14RateCIC128 = 2
	SD14RateCIC256 = 3
)

// Gain settings (x1, x2, x4, x8)
const (
	SD14Gain1 = 0
	SD14Gain2 = 1
	SD14Gain4 = 2
	SD14Gain8 = 3
)

// ConverterConfig is the decoded configuration word
type ConverterConfig struct {
	Channel  uint8
	Gain     uint8
	Rate     uint8
	Sinc     bool
	IntDelay uint16
	Unipolar bool
}

// Word encodes the configuration register value
func (c ConverterConfig) Word() uint16 {
	w := uint16(c.Channel)&SD14ChannelMask |
		uint16(c.Gain)<<SD14GainShift&SD14GainMask |
		uint16(c.Rate)<<SD14RateShift&SD14RateMask |
		c.IntDelay&SD14IntDelayMask
	if c.Sinc {
		w |= SD14FilterSinc
	}
	if c.Unipolar {
		w |= SD14Unipolar
	}
	return w
}

// DecodeConverterConfig splits a configuration register value
func DecodeConverterConfig(w uint16) ConverterConfig {
	return ConverterConfig{
		Channel:  uint8(w & SD14ChannelMask),
		Gain:     uint8(w & SD14GainMask >> SD14GainShift),
		Rate:     uint8(w & SD14RateMask >> SD14RateShift),
		Sinc:     w&SD14FilterSinc != 0,
		IntDelay: w & SD14IntDelayMask,
		Unipolar: w&SD14Unipolar != 0,
	}
}

// GainFactor returns the amplification selected by the gain field
func (c ConverterConfig) GainFactor() int {
	return 1 << c.Gain
}

// MeasurementConfig is the configuration the configure command applies
// and the measure command insists on.
var MeasurementConfig = ConverterConfig{
	Channel:  SD14ChannelADC0,
	Gain:     SD14Gain2,
	Rate:     SD14RateCIC64,
	IntDelay: SD14IntDelay1st,
	Unipolar: true,
}

// ConfigureConverter applies MeasurementConfig. The output pin is raised
// while the converter settles and serves as an external trigger.
func ConfigureConverter(out *OutputPin, settleCycles uint32) uint16 {
	adc := MustConverter()

	out.On()
	adc.Configure(MeasurementConfig.Word())
	MustClock().DelayCycles(settleCycles)
	out.Off()

	return adc.Config()
}

// MeasureConverter runs one conversion on the configured channel. A
// converter set to another channel is refused without touching it.
func MeasureConverter(pollBudget int) uint16 {
	adc := MustConverter()

	if DecodeConverterConfig(adc.Config()).Channel != MeasurementConfig.Channel {
		return protocol.ResultFailed
	}

	adc.ClearComplete()
	adc.Enable()
	adc.Start()

	for n := pollBudget; n > 0; n-- {
		if adc.Complete() {
			sample := adc.Result()
			RecordTrace(TraceConvert, sample)
			return sample
		}
	}

	adc.Abort()
	RecordTrace(TraceConvTimeout, 0)
	return protocol.ResultConversionTimeout
}
