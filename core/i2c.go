// I2C master transaction engine
// A register read is split between the foreground initiator, which drives
// the address phase, and the bus interrupt handler, which collects the two
// data bytes. done and result are the only fields crossing that boundary.
package core

import (
	"errors"
	"sync/atomic"

	"tagpatch/protocol"
	"tinygo.org/x/drivers"
)

// I2CPhase is the transaction state
type I2CPhase uint32

const (
	PhaseIdle I2CPhase = iota
	PhaseAddressPhaseSent
	PhaseRepeatedStartIssued
	PhaseReading
	PhaseComplete
	PhaseTimedOut
)

func (p I2CPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAddressPhaseSent:
		return "address-sent"
	case PhaseRepeatedStartIssued:
		return "repeated-start"
	case PhaseReading:
		return "reading"
	case PhaseComplete:
		return "complete"
	case PhaseTimedOut:
		return "timed-out"
	}
	return "unknown"
}

// I2COutcome classifies how the last transaction ended
type I2COutcome uint8

const (
	OutcomeNone           I2COutcome = iota
	OutcomeOK                        // Both bytes received
	OutcomeNack                      // Slave refused, reported by the interrupt handler
	OutcomeTimeout                   // An initiator wait was exhausted
	OutcomeNeverCompleted            // The handler never signalled completion
	OutcomeNotReady                  // Bus was never initialised
)

// Timeout blink pattern, distinct from the 1-3 stage blinks
const timeoutBlinks = 4

var (
	ErrI2CNack        = errors.New("i2c: slave did not acknowledge")
	ErrI2CTimeout     = errors.New("i2c: transaction timed out")
	ErrI2CIncomplete  = errors.New("i2c: transaction never completed")
	ErrI2CNotReady    = errors.New("i2c: bus not initialised")
	ErrI2CUnsupported = errors.New("i2c: only one-byte register, two-byte reads are supported")
)

// I2CEngine owns the bus controller for register reads
type I2CEngine struct {
	ctrl  I2CController
	led   *OutputPin
	clock Clock

	pollBudget       int
	completionBudget int
	stageBlinks      bool

	ready bool

	// Foreground-owned up to RepeatedStartIssued, interrupt-owned after
	phase uint32 // atomic I2CPhase

	// Interrupt-owned
	byteIndex   uint8
	accumulated uint16

	// Hand-off: result is stored before done
	result uint32 // atomic uint16
	done   uint32 // atomic bool

	outcome I2COutcome
}

// NewI2CEngine creates an engine in the Idle state
func NewI2CEngine(ctrl I2CController, led *OutputPin, clock Clock, cfg Config) *I2CEngine {
	e := &I2CEngine{
		ctrl:             ctrl,
		led:              led,
		clock:            clock,
		pollBudget:       cfg.PollBudget,
		completionBudget: cfg.CompletionBudget,
		stageBlinks:      cfg.StageBlinks,
	}
	e.resetState()
	return e
}

// Init configures the controller as bus master
func (e *I2CEngine) Init(addr I2CAddress, divider uint16) error {
	if err := e.ctrl.Init(addr, divider); err != nil {
		e.ready = false
		return err
	}
	e.ready = true
	return nil
}

// Ready reports whether Init succeeded
func (e *I2CEngine) Ready() bool {
	return e.ready
}

// ReadRegister reads a big-endian word from a slave register. Failures are
// reported as result sentinels: ResultFailed for a NACK, an exhausted
// initiator wait or an uninitialised bus, ResultNeverCompleted when the
// interrupt handler never finished. The bus and the transaction state are
// back to Idle when it returns.
func (e *I2CEngine) ReadRegister(addr I2CAddress, reg uint8) uint16 {
	if !e.ready {
		e.outcome = OutcomeNotReady
		return protocol.ResultFailed
	}

	e.ctrl.SetSlaveAddress(addr)
	e.startRead(reg)

	result := protocol.ResultNeverCompleted
	for n := e.completionBudget; n > 0; n-- {
		if e.isDone() {
			break
		}
	}
	if e.isDone() {
		result = uint16(atomic.LoadUint32(&e.result))
		if e.outcome == OutcomeNone {
			e.outcome = OutcomeOK
		}
	} else {
		e.outcome = OutcomeNeverCompleted
	}

	RecordTrace(TraceBusResult, result)
	e.release()
	return result
}

// startRead runs the foreground half of a transaction: address phase,
// register byte, repeated START, then schedules STOP and leaves the data
// bytes to the interrupt handler.
func (e *I2CEngine) startRead(reg uint8) {
	e.resetState()
	e.outcome = OutcomeNone
	e.ctrl.EnableInterrupts()
	e.stage(1)

	if !e.await(func() bool { return !e.ctrl.StopPending() }) {
		e.abort()
		return
	}

	e.ctrl.StartWrite()
	if !e.await(e.ctrl.TxReady) {
		e.abort()
		return
	}

	e.ctrl.WriteByte(reg)
	if !e.await(e.ctrl.TxReady) {
		e.abort()
		return
	}
	e.setPhase(PhaseAddressPhaseSent)
	e.stage(2)

	e.ctrl.StartRead()
	if !e.await(func() bool { return !e.ctrl.StartPending() }) {
		e.abort()
		return
	}
	e.setPhase(PhaseRepeatedStartIssued)
	e.stage(3)

	e.ctrl.Stop()
}

// await polls ready up to the poll budget. It gives up early once the
// interrupt handler has finished the transaction (NACK).
func (e *I2CEngine) await(ready func() bool) bool {
	for n := e.pollBudget; n > 0; n-- {
		if ready() {
			return true
		}
		if e.isDone() {
			return false
		}
	}
	return false
}

// abort ends an initiator step that did not complete
func (e *I2CEngine) abort() {
	if e.isDone() {
		// The interrupt handler already reported a NACK
		return
	}
	RecordTrace(TraceBusTimeout, uint16(e.Phase()))
	e.setPhase(PhaseTimedOut)
	atomic.StoreUint32(&e.result, uint32(protocol.ResultFailed))
	atomic.StoreUint32(&e.done, 1)
	e.outcome = OutcomeTimeout
	e.led.Blink(timeoutBlinks)
}

// HandleInterrupt is the bus interrupt handler. It runs to completion before
// the foreground observes done.
func (e *I2CEngine) HandleInterrupt(ev I2CEvent) {
	switch ev {
	case I2CEventNack:
		RecordTrace(TraceBusNack, 0)
		e.led.Off()
		e.byteIndex = 0
		e.setPhase(PhaseComplete)
		e.outcome = OutcomeNack
		atomic.StoreUint32(&e.result, uint32(protocol.ResultFailed))
		atomic.StoreUint32(&e.done, 1)

	case I2CEventRx:
		b := e.ctrl.ReadByte()
		if e.byteIndex == 0 {
			e.accumulated = uint16(b) << 8
			e.byteIndex = 1
			e.setPhase(PhaseReading)
		} else {
			e.accumulated |= uint16(b)
			e.byteIndex = 0
			e.setPhase(PhaseComplete)
			atomic.StoreUint32(&e.result, uint32(e.accumulated))
			atomic.StoreUint32(&e.done, 1)
			e.led.Off()
		}
	}
	e.clock.Wake()
}

// release returns the bus to a clean state whatever the outcome
func (e *I2CEngine) release() {
	if e.ctrl.StartPending() {
		e.ctrl.ClearStart()
	}
	e.ctrl.Stop()
	e.Reset()
}

// Reset disables the bus interrupts, clears their flags and puts the
// transaction back to Idle.
func (e *I2CEngine) Reset() {
	e.ctrl.DisableInterrupts()
	e.ctrl.ClearFlags()
	e.resetState()
}

func (e *I2CEngine) resetState() {
	state := disableInterrupts()
	e.byteIndex = 0
	e.accumulated = 0
	atomic.StoreUint32(&e.result, uint32(protocol.ResultFailed))
	atomic.StoreUint32(&e.done, 0)
	atomic.StoreUint32(&e.phase, uint32(PhaseIdle))
	restoreInterrupts(state)
}

func (e *I2CEngine) setPhase(p I2CPhase) {
	atomic.StoreUint32(&e.phase, uint32(p))
	RecordTrace(TraceBusPhase, uint16(p))
}

func (e *I2CEngine) isDone() bool {
	return atomic.LoadUint32(&e.done) != 0
}

func (e *I2CEngine) stage(n int) {
	if e.stageBlinks {
		e.led.Blink(n)
	}
}

// Phase returns the current transaction phase
func (e *I2CEngine) Phase() I2CPhase {
	return I2CPhase(atomic.LoadUint32(&e.phase))
}

// Done reports whether the current transaction has a result
func (e *I2CEngine) Done() bool {
	return e.isDone()
}

// LastOutcome reports how the previous ReadRegister ended
func (e *I2CEngine) LastOutcome() I2COutcome {
	return e.outcome
}

var _ drivers.I2C = (*I2CEngine)(nil)

// Tx lets TinyGo sensor drivers use the engine for register reads: w holds
// the register number, r receives the big-endian word.
func (e *I2CEngine) Tx(addr uint16, w, r []byte) error {
	if len(w) != 1 || len(r) != 2 || addr > 0x7F {
		return ErrI2CUnsupported
	}

	v := e.ReadRegister(I2CAddress(addr), w[0])
	switch e.LastOutcome() {
	case OutcomeNack:
		return ErrI2CNack
	case OutcomeTimeout:
		return ErrI2CTimeout
	case OutcomeNeverCompleted:
		return ErrI2CIncomplete
	case OutcomeNotReady:
		return ErrI2CNotReady
	}

	r[0] = byte(v >> 8)
	r[1] = byte(v)
	return nil
}
