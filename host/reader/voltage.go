package reader

// Converter scale
const (
	ADCMax    = 1<<14 - 1
	Reference = 0.9 // volts at full scale
)

// GainFromConfig extracts the amplifier gain from the configuration word
// echoed by the configure command (bits 3-4 of the low byte).
func GainFromConfig(word uint16) int {
	return 1 << (word & 0xFF >> 3 & 0x3)
}

// Voltage converts a conversion result to volts at the input
func Voltage(adc uint16, gain int) float64 {
	if gain <= 0 {
		gain = 1
	}
	return float64(adc) / ADCMax * Reference / float64(gain)
}
