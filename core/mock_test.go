package core

import "tagpatch/protocol"

// MockGPIODriver is a test implementation of GPIODriver
type MockGPIODriver struct {
	pins       map[GPIOPin]bool
	configured map[GPIOPin]bool
	rises      int
	setErr     error // returned by SetPin when set
}

func NewMockGPIODriver() *MockGPIODriver {
	return &MockGPIODriver{
		pins:       make(map[GPIOPin]bool),
		configured: make(map[GPIOPin]bool),
	}
}

func (m *MockGPIODriver) ConfigureOutput(pin GPIOPin) error {
	m.configured[pin] = true
	return nil
}

func (m *MockGPIODriver) SetPin(pin GPIOPin, value bool) error {
	if m.setErr != nil {
		return m.setErr
	}
	if value && !m.pins[pin] {
		m.rises++
	}
	m.pins[pin] = value
	return nil
}

func (m *MockGPIODriver) GetPin(pin GPIOPin) (bool, error) {
	return m.pins[pin], nil
}

// MockClock records delays and wakeups
type MockClock struct {
	cycles uint64
	waits  int
	wakes  int
}

func (c *MockClock) DelayCycles(n uint32) { c.cycles += uint64(n) }
func (c *MockClock) WaitForInterrupt()    { c.waits++ }
func (c *MockClock) Wake()                { c.wakes++ }

// MockMailbox collects reply messages
type MockMailbox struct {
	messages [][]uint16 // length followed by the words
}

func (m *MockMailbox) WriteLength(n uint8) {
	m.messages = append(m.messages, []uint16{uint16(n)})
}

func (m *MockMailbox) WriteWord(w uint16) {
	last := len(m.messages) - 1
	m.messages[last] = append(m.messages[last], w)
}

func (m *MockMailbox) Last() []uint16 {
	if len(m.messages) == 0 {
		return nil
	}
	return m.messages[len(m.messages)-1]
}

// MockConverter is a sigma-delta converter completing after a number of polls
type MockConverter struct {
	config        uint16
	completeAfter int // polls before the flag sets, negative for never
	sample        uint16
	polls         int
	writes        int
	started       bool
	aborted       bool
}

func (c *MockConverter) Config() uint16 { return c.config }

func (c *MockConverter) Configure(cfg uint16) {
	c.writes++
	c.config = cfg
}

func (c *MockConverter) ClearComplete() {
	c.writes++
	c.polls = 0
}

func (c *MockConverter) Enable() { c.writes++ }

func (c *MockConverter) Start() {
	c.writes++
	c.started = true
}

func (c *MockConverter) Complete() bool {
	c.polls++
	return c.started && c.completeAfter >= 0 && c.polls > c.completeAfter
}

func (c *MockConverter) Result() uint16 { return c.sample }

func (c *MockConverter) Abort() {
	c.writes++
	c.aborted = true
	c.started = false
}

// MockCRCDriver keeps the firmware image as a word map
type MockCRCDriver struct {
	unit        protocol.CRC16Unit
	image       map[uint16]uint16
	validation  bool
	disables    int
	writesWhile []bool // validation state at each image write
}

func NewMockCRCDriver() *MockCRCDriver {
	return &MockCRCDriver{image: make(map[uint16]uint16), validation: true}
}

func (d *MockCRCDriver) Seed(v uint16)               { d.unit.Seed(v) }
func (d *MockCRCDriver) Feed(w uint16)               { d.unit.Feed(w) }
func (d *MockCRCDriver) Result() uint16              { return d.unit.Result() }
func (d *MockCRCDriver) ReadWord(addr uint16) uint16 { return d.image[addr] }

func (d *MockCRCDriver) WriteWord(addr uint16, v uint16) {
	d.writesWhile = append(d.writesWhile, d.validation)
	d.image[addr] = v
}

func (d *MockCRCDriver) SetValidation(enabled bool) {
	if !enabled {
		d.disables++
	}
	d.validation = enabled
}

// MockI2C is a scripted bus controller with one slave. Interrupts are
// delivered synchronously through onEvent while enabled.
type MockI2C struct {
	onEvent func(I2CEvent)

	initErr      error
	nack         bool // slave refuses its address
	stopStuck    bool // STOP never clears
	txStuck      bool // transmit buffer never frees
	startStuck   bool // repeated START never clears
	replies      [][]byte
	rxBuf        byte
	enabled      bool
	readArmed    bool
	nacked       bool
	calls        []string
	txReadyPolls int
	stops        int
}

func (m *MockI2C) record(call string) {
	m.calls = append(m.calls, call)
}

func (m *MockI2C) deliver(ev I2CEvent) {
	if m.enabled && m.onEvent != nil {
		m.onEvent(ev)
	}
}

func (m *MockI2C) Init(addr I2CAddress, divider uint16) error {
	m.record("init")
	return m.initErr
}

func (m *MockI2C) SetSlaveAddress(addr I2CAddress) { m.record("address") }

func (m *MockI2C) StopPending() bool { return m.stopStuck }

func (m *MockI2C) StartWrite() {
	m.record("start_write")
	m.nacked = false
	if m.nack {
		m.nacked = true
		m.deliver(I2CEventNack)
	}
}

func (m *MockI2C) TxReady() bool {
	m.txReadyPolls++
	return !m.txStuck && !m.nacked
}

func (m *MockI2C) WriteByte(b byte) { m.record("write") }

func (m *MockI2C) StartRead() {
	m.record("start_read")
	m.readArmed = true
}

func (m *MockI2C) StartPending() bool { return m.startStuck }

func (m *MockI2C) ClearStart() { m.record("clear_start") }

func (m *MockI2C) Stop() {
	m.record("stop")
	m.stops++
	if !m.readArmed {
		return
	}
	m.readArmed = false
	if len(m.replies) == 0 {
		return
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	for _, b := range reply {
		m.rxBuf = b
		m.deliver(I2CEventRx)
	}
}

func (m *MockI2C) ReadByte() byte { return m.rxBuf }

func (m *MockI2C) EnableInterrupts() {
	m.record("enable")
	m.enabled = true
}

func (m *MockI2C) DisableInterrupts() {
	m.record("disable")
	m.enabled = false
}

func (m *MockI2C) ClearFlags() { m.record("clear_flags") }

// mockBoard registers a full set of mock drivers
type mockBoard struct {
	gpio    *MockGPIODriver
	clock   *MockClock
	mailbox *MockMailbox
	adc     *MockConverter
	crc     *MockCRCDriver
	i2c     *MockI2C
}

func newMockBoard() *mockBoard {
	b := &mockBoard{
		gpio:    NewMockGPIODriver(),
		clock:   &MockClock{},
		mailbox: &MockMailbox{},
		adc:     &MockConverter{},
		crc:     NewMockCRCDriver(),
		i2c:     &MockI2C{},
	}
	b.i2c.onEvent = HandleBusInterrupt
	SetGPIODriver(b.gpio)
	SetClock(b.clock)
	SetMailbox(b.mailbox)
	SetConverter(b.adc)
	SetCRCDriver(b.crc)
	SetI2CController(b.i2c)
	return b
}

// testConfig is DefaultConfig with small poll budgets
func testConfig(v Variant) Config {
	cfg := DefaultConfig()
	cfg.Variant = v
	cfg.PollBudget = 50
	cfg.CompletionBudget = 50
	cfg.ConversionPollBudget = 50
	return cfg
}
