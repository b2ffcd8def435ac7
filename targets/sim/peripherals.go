package sim

import (
	"errors"
	"math"
	"time"

	"tagpatch/core"
	"tagpatch/protocol"
)

// Port is port 1 of the tag: GPIO function select, direction and output latch
type Port struct {
	output   map[core.GPIOPin]bool
	isOutput map[core.GPIOPin]bool
	Rises    map[core.GPIOPin]int
}

func NewPort() *Port {
	return &Port{
		output:   make(map[core.GPIOPin]bool),
		isOutput: make(map[core.GPIOPin]bool),
		Rises:    make(map[core.GPIOPin]int),
	}
}

func (p *Port) ConfigureOutput(pin core.GPIOPin) error {
	if pin > 7 {
		return errors.New("sim: port 1 has 8 pins")
	}
	p.isOutput[pin] = true
	return nil
}

func (p *Port) SetPin(pin core.GPIOPin, value bool) error {
	if !p.isOutput[pin] {
		return errors.New("sim: pin is not an output")
	}
	if value && !p.output[pin] {
		p.Rises[pin]++
	}
	p.output[pin] = value
	return nil
}

func (p *Port) GetPin(pin core.GPIOPin) (bool, error) {
	return p.output[pin], nil
}

// Clock counts MCLK cycles instead of spending them
type Clock struct {
	Cycles uint64
	Sleeps int
	Wakes  int
}

func (c *Clock) DelayCycles(n uint32) { c.Cycles += uint64(n) }
func (c *Clock) WaitForInterrupt()    { c.Sleeps++ }
func (c *Clock) Wake()                { c.Wakes++ }

// Elapsed converts the counted cycles to time
func (c *Clock) Elapsed() time.Duration {
	return time.Duration(c.Cycles) * time.Second / core.MCLKFreq
}

// Mailbox captures the last reply written by a command
type Mailbox struct {
	length uint8
	words  []uint16
}

func (m *Mailbox) WriteLength(n uint8) {
	m.length = n
	m.words = m.words[:0]
}

func (m *Mailbox) WriteWord(w uint16) {
	m.words = append(m.words, w)
}

func (m *Mailbox) reset() {
	m.length = 0
	m.words = m.words[:0]
}

// reply returns the echoed code and payload of a complete message
func (m *Mailbox) reply() (code, payload uint16, ok bool) {
	if m.length != protocol.ReplyLength || len(m.words) != protocol.ReplyLength {
		return 0, 0, false
	}
	return m.words[0], m.words[1], true
}

// Full-scale input span of the converter in volts
const ConverterReference = 0.9

// ConverterFullScale is the largest conversion result
const ConverterFullScale = 1<<14 - 1

// Converter models the SD14 sigma-delta ADC with a DC input
type Converter struct {
	config  uint16
	enabled bool
	started bool
	polls   int
	Input   float64 // Volts at the selected input
	Latency int     // Polls until the conversion completes
	Stalled bool    // The conversion never completes
	Samples int
	Writes  int
}

func (c *Converter) Config() uint16 { return c.config }

func (c *Converter) Configure(cfg uint16) {
	c.Writes++
	c.enabled = false
	c.started = false
	c.config = cfg
}

func (c *Converter) ClearComplete() {
	c.Writes++
	c.polls = 0
}

func (c *Converter) Enable() {
	c.Writes++
	c.enabled = true
}

func (c *Converter) Start() {
	c.Writes++
	c.started = c.enabled
}

func (c *Converter) Complete() bool {
	if !c.started || c.Stalled {
		return false
	}
	c.polls++
	return c.polls > c.Latency
}

func (c *Converter) Result() uint16 {
	c.Samples++
	c.started = false
	return c.code()
}

func (c *Converter) Abort() {
	c.Writes++
	c.started = false
}

// code quantises the input with the configured gain
func (c *Converter) code() uint16 {
	gain := float64(core.DecodeConverterConfig(c.config).GainFactor())
	v := c.Input * gain / ConverterReference * ConverterFullScale
	return uint16(math.Max(0, math.Min(ConverterFullScale, math.Round(v))))
}

// Image is the FRAM firmware image with the CRC16 unit and the validation gate
type Image struct {
	unit       protocol.CRC16Unit
	words      map[uint16]uint16
	validation bool
	Repairs    int
}

// NewImage fills the protected regions with deterministic contents
func NewImage(regions []core.CRCRegion) *Image {
	img := &Image{words: make(map[uint16]uint16), validation: true}
	for _, r := range regions {
		for i := uint16(0); i < r.Words; i++ {
			addr := r.Start + 2*i
			img.words[addr] = addr*0x9E37 ^ 0x5A5A
		}
	}
	return img
}

func (img *Image) Seed(v uint16)               { img.unit.Seed(v) }
func (img *Image) Feed(w uint16)               { img.unit.Feed(w) }
func (img *Image) Result() uint16              { return img.unit.Result() }
func (img *Image) ReadWord(addr uint16) uint16 { return img.words[addr] }
func (img *Image) WriteWord(addr, v uint16)    { img.words[addr] = v }

func (img *Image) SetValidation(enabled bool) {
	if !enabled {
		img.Repairs++
	}
	img.validation = enabled
}

// Poke changes an image word, invalidating the covering checksum
func (img *Image) Poke(addr, v uint16) {
	img.words[addr] = v
}

// Valid reports whether the boot ROM would accept the image
func (img *Image) Valid(regions []core.CRCRegion) bool {
	if !img.validation {
		return false
	}
	for _, r := range regions {
		words := make([]uint16, r.Words)
		for i := range words {
			words[i] = img.words[r.Start+2*uint16(i)]
		}
		if img.words[r.ChecksumAddr()] != protocol.CRC16Words(words) {
			return false
		}
	}
	return true
}
