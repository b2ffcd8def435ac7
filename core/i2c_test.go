package core

import (
	"errors"
	"testing"

	"tagpatch/protocol"
)

func newTestEngine(t *testing.T, m *MockI2C) (*I2CEngine, *MockGPIODriver) {
	t.Helper()
	gpio := NewMockGPIODriver()
	clk := &MockClock{}
	cfg := testConfig(VariantI2C)
	e := NewI2CEngine(m, NewOutputPin(gpio, clk, cfg.OutputPin, cfg.BlinkCycles), clk, cfg)
	m.onEvent = e.HandleInterrupt
	if err := e.Init(FDC1004Address, cfg.I2CClockDivider); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return e, gpio
}

func checkIdle(t *testing.T, e *I2CEngine) {
	t.Helper()
	if e.Phase() != PhaseIdle {
		t.Errorf("Expected phase idle, got %s", e.Phase())
	}
	if e.Done() {
		t.Error("Expected done=false after ReadRegister")
	}
}

func TestReadRegisterSequential(t *testing.T) {
	m := &MockI2C{replies: [][]byte{{0x12, 0x34}, {0x56, 0x78}}}
	e, _ := newTestEngine(t, m)

	for _, want := range []uint16{0x1234, 0x5678} {
		got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg)
		if got != want {
			t.Errorf("Expected 0x%04X, got 0x%04X", want, got)
		}
		if e.LastOutcome() != OutcomeOK {
			t.Errorf("Expected outcome OK, got %d", e.LastOutcome())
		}
		checkIdle(t, e)
	}
}

func TestReadRegisterNack(t *testing.T) {
	m := &MockI2C{nack: true}
	e, _ := newTestEngine(t, m)

	got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg)
	if got != protocol.ResultFailed {
		t.Errorf("Expected 0xFFFF on NACK, got 0x%04X", got)
	}
	if e.LastOutcome() != OutcomeNack {
		t.Errorf("Expected outcome NACK, got %d", e.LastOutcome())
	}
	// The wait after START ends on the first poll once the NACK is seen
	if m.txReadyPolls != 1 {
		t.Errorf("Expected 1 TX ready poll, got %d", m.txReadyPolls)
	}
	checkIdle(t, e)
}

func TestReadRegisterNeverCompleted(t *testing.T) {
	m := &MockI2C{}
	e, _ := newTestEngine(t, m)

	got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg)
	if got != protocol.ResultNeverCompleted {
		t.Errorf("Expected 0xFFFB, got 0x%04X", got)
	}
	if e.LastOutcome() != OutcomeNeverCompleted {
		t.Errorf("Expected outcome never-completed, got %d", e.LastOutcome())
	}
	if m.stops != 2 {
		t.Errorf("Expected STOP from the initiator and the cleanup, got %d", m.stops)
	}
	if m.enabled {
		t.Error("Bus interrupts left enabled")
	}
	checkIdle(t, e)
}

func TestReadRegisterInitiatorTimeout(t *testing.T) {
	tests := []struct {
		name      string
		mock      *MockI2C
		wantCalls []string
	}{
		{
			name:      "stop stuck",
			mock:      &MockI2C{stopStuck: true},
			wantCalls: []string{"enable", "stop", "disable", "clear_flags"},
		},
		{
			name:      "tx stuck",
			mock:      &MockI2C{txStuck: true},
			wantCalls: []string{"enable", "start_write", "stop", "disable", "clear_flags"},
		},
		{
			name:      "repeated start stuck",
			mock:      &MockI2C{startStuck: true},
			wantCalls: []string{"enable", "start_write", "write", "start_read", "clear_start", "stop", "disable", "clear_flags"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, gpio := newTestEngine(t, tt.mock)
			tt.mock.calls = nil

			got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg)
			if got != protocol.ResultFailed {
				t.Errorf("Expected 0xFFFF, got 0x%04X", got)
			}
			if e.LastOutcome() != OutcomeTimeout {
				t.Errorf("Expected outcome timeout, got %d", e.LastOutcome())
			}
			if gpio.rises != timeoutBlinks {
				t.Errorf("Expected %d blinks, got %d", timeoutBlinks, gpio.rises)
			}

			calls := tt.mock.calls[1:] // skip the address selection
			if len(calls) != len(tt.wantCalls) {
				t.Fatalf("Expected calls %v, got %v", tt.wantCalls, calls)
			}
			for i := range calls {
				if calls[i] != tt.wantCalls[i] {
					t.Errorf("Call %d: expected %s, got %s", i, tt.wantCalls[i], calls[i])
				}
			}
			checkIdle(t, e)
		})
	}
}

func TestReadRegisterAfterPartialRead(t *testing.T) {
	// Only the high byte arrives, leaving the handler half way
	m := &MockI2C{replies: [][]byte{{0xAB}, {0x56, 0x78}}}
	e, _ := newTestEngine(t, m)

	if got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg); got != protocol.ResultNeverCompleted {
		t.Errorf("Expected 0xFFFB, got 0x%04X", got)
	}
	checkIdle(t, e)

	if got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg); got != 0x5678 {
		t.Errorf("Expected 0x5678 after partial read, got 0x%04X", got)
	}
}

func TestResetFromAnyPhase(t *testing.T) {
	phases := []func(e *I2CEngine, m *MockI2C){
		func(e *I2CEngine, m *MockI2C) {},
		func(e *I2CEngine, m *MockI2C) { e.setPhase(PhaseAddressPhaseSent) },
		func(e *I2CEngine, m *MockI2C) { e.setPhase(PhaseRepeatedStartIssued) },
		func(e *I2CEngine, m *MockI2C) {
			m.rxBuf = 0xEE
			e.HandleInterrupt(I2CEventRx)
		},
		func(e *I2CEngine, m *MockI2C) {
			m.rxBuf = 0xEE
			e.HandleInterrupt(I2CEventRx)
			e.HandleInterrupt(I2CEventRx)
		},
		func(e *I2CEngine, m *MockI2C) { e.HandleInterrupt(I2CEventNack) },
		func(e *I2CEngine, m *MockI2C) { e.abort() },
	}

	for i, force := range phases {
		m := &MockI2C{replies: [][]byte{{0x10, 0x04}}}
		e, _ := newTestEngine(t, m)

		force(e, m)
		e.Reset()
		checkIdle(t, e)

		if got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg); got != FDC1004DeviceID {
			t.Errorf("Case %d: expected 0x1004 after reset, got 0x%04X", i, got)
		}
		if e.LastOutcome() != OutcomeOK {
			t.Errorf("Case %d: expected outcome OK, got %d", i, e.LastOutcome())
		}
	}
}

func TestReadRegisterBeforeInit(t *testing.T) {
	m := &MockI2C{replies: [][]byte{{0x12, 0x34}}}
	gpio := NewMockGPIODriver()
	clk := &MockClock{}
	cfg := testConfig(VariantI2C)
	e := NewI2CEngine(m, NewOutputPin(gpio, clk, cfg.OutputPin, cfg.BlinkCycles), clk, cfg)

	if got := e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg); got != protocol.ResultFailed {
		t.Errorf("Expected 0xFFFF before init, got 0x%04X", got)
	}
	if len(m.calls) != 0 {
		t.Errorf("Expected no bus access before init, got %v", m.calls)
	}
}

func TestInitFailure(t *testing.T) {
	m := &MockI2C{initErr: errors.New("reset stuck")}
	gpio := NewMockGPIODriver()
	clk := &MockClock{}
	cfg := testConfig(VariantI2C)
	e := NewI2CEngine(m, NewOutputPin(gpio, clk, cfg.OutputPin, cfg.BlinkCycles), clk, cfg)

	if err := e.Init(FDC1004Address, 3); err == nil {
		t.Error("Expected init error")
	}
	if e.Ready() {
		t.Error("Engine ready after failed init")
	}
}

func TestStageBlinks(t *testing.T) {
	m := &MockI2C{replies: [][]byte{{0x12, 0x34}}}
	gpio := NewMockGPIODriver()
	clk := &MockClock{}
	cfg := testConfig(VariantI2C)
	cfg.StageBlinks = true
	e := NewI2CEngine(m, NewOutputPin(gpio, clk, cfg.OutputPin, cfg.BlinkCycles), clk, cfg)
	m.onEvent = e.HandleInterrupt
	if err := e.Init(FDC1004Address, 3); err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	e.ReadRegister(FDC1004Address, FDC1004DeviceIDReg)
	if gpio.rises != 1+2+3 {
		t.Errorf("Expected 6 stage blinks, got %d", gpio.rises)
	}
	if clk.wakes != 2 {
		t.Errorf("Expected 2 wakeups, got %d", clk.wakes)
	}
}

func TestTx(t *testing.T) {
	m := &MockI2C{replies: [][]byte{{0x54, 0x49}}}
	e, _ := newTestEngine(t, m)

	r := make([]byte, 2)
	if err := e.Tx(uint16(FDC1004Address), []byte{0xFE}, r); err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
	if r[0] != 0x54 || r[1] != 0x49 {
		t.Errorf("Expected 54 49, got % X", r)
	}

	m.nack = true
	if err := e.Tx(uint16(FDC1004Address), []byte{0xFE}, r); !errors.Is(err, ErrI2CNack) {
		t.Errorf("Expected ErrI2CNack, got %v", err)
	}

	m.nack = false
	if err := e.Tx(uint16(FDC1004Address), []byte{0xFE}, r); !errors.Is(err, ErrI2CIncomplete) {
		t.Errorf("Expected ErrI2CIncomplete, got %v", err)
	}

	m.stopStuck = true
	if err := e.Tx(uint16(FDC1004Address), []byte{0xFE}, r); !errors.Is(err, ErrI2CTimeout) {
		t.Errorf("Expected ErrI2CTimeout, got %v", err)
	}
	m.stopStuck = false

	if err := e.Tx(uint16(FDC1004Address), []byte{0xFE, 0x00}, r); !errors.Is(err, ErrI2CUnsupported) {
		t.Errorf("Expected ErrI2CUnsupported, got %v", err)
	}
}
