package core

// OutputPin is the general purpose output used both as trigger output and
// as the visual indicator.
type OutputPin struct {
	gpio   GPIODriver
	clock  Clock
	pin    GPIOPin
	blink  uint32
}

// NewOutputPin wraps a GPIO pin. blinkCycles is the half period of Blink.
func NewOutputPin(gpio GPIODriver, clock Clock, pin GPIOPin, blinkCycles uint32) *OutputPin {
	return &OutputPin{gpio: gpio, clock: clock, pin: pin, blink: blinkCycles}
}

// On selects the GPIO function, makes the pin an output and drives it high
func (o *OutputPin) On() error {
	return o.set(true)
}

// Off drives the pin low
func (o *OutputPin) Off() error {
	return o.set(false)
}

func (o *OutputPin) set(value bool) error {
	if err := o.gpio.ConfigureOutput(o.pin); err != nil {
		return err
	}
	return o.gpio.SetPin(o.pin, value)
}

// Pulse drives the pin high for the given number of cycles, then low
func (o *OutputPin) Pulse(cycles uint32) {
	o.On()
	o.clock.DelayCycles(cycles)
	o.Off()
}

// Blink pulses the pin times times with equal on and off periods
func (o *OutputPin) Blink(times int) {
	for i := 0; i < times; i++ {
		o.On()
		o.clock.DelayCycles(o.blink)
		o.Off()
		o.clock.DelayCycles(o.blink)
	}
}
