package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// TraceEvent captures one step of a command for post-mortem analysis
type TraceEvent struct {
	Kind  uint8  // Event kind (Trace*)
	Code  uint8  // Command code being served
	Value uint16 // Context-dependent value
}

// Trace event kinds
const (
	TraceDispatch    = 1 // Command dispatched, Value = slot
	TraceReply       = 2 // Mailbox reply written, Value = payload
	TraceBusPhase    = 3 // I2C phase change, Value = phase
	TraceBusNack     = 4 // NACK interrupt
	TraceBusTimeout  = 5 // Initiator wait exhausted, Value = phase
	TraceBusResult   = 6 // Transaction finished, Value = result
	TraceConvert     = 7 // Conversion finished, Value = sample
	TraceConvTimeout = 8 // Conversion never completed
	TraceCRCRepair   = 9 // Region checksum written, Value = checksum
)

const (
	TraceRingSize = 32 // Keep last 32 events for post-mortem
)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active
	debugEnabled bool = false

	// Trace ring buffer (non-blocking, for post-mortem)
	traceRing     [TraceRingSize]TraceEvent
	traceRingHead uint8
	traceEnabled  bool = true
	traceCode     uint8 // Command currently executing
)

// SetDebugWriter sets the platform-specific debug output function
// This allows platforms to redirect debug output to UART, the simulator, etc.
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// DebugPrintln writes a debug message using the platform-specific writer
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordTrace captures an event in the ring buffer. Safe from interrupt context.
func RecordTrace(kind uint8, value uint16) {
	if !traceEnabled {
		return
	}
	state := disableInterrupts()
	idx := traceRingHead
	traceRing[idx] = TraceEvent{Kind: kind, Code: traceCode, Value: value}
	traceRingHead = (idx + 1) % TraceRingSize
	restoreInterrupts(state)
}

// TraceEvents returns the recorded events from oldest to newest
func TraceEvents() []TraceEvent {
	events := make([]TraceEvent, 0, TraceRingSize)
	start := traceRingHead
	for i := uint8(0); i < TraceRingSize; i++ {
		evt := traceRing[(start+i)%TraceRingSize]
		if evt.Kind != 0 {
			events = append(events, evt)
		}
	}
	return events
}

// DumpTrace outputs the trace ring buffer
func DumpTrace() {
	if debugPrintln == nil {
		return
	}

	debugPrintln("[TRACE] === Trace Ring Dump ===")
	for _, evt := range TraceEvents() {
		debugPrintln("[TRACE] " + traceName(evt.Kind) +
			" cmd=" + hex8(evt.Code) +
			" v=" + hex16(evt.Value))
	}
	debugPrintln("[TRACE] === End Dump ===")
}

func traceName(kind uint8) string {
	switch kind {
	case TraceDispatch:
		return "DISPATCH"
	case TraceReply:
		return "REPLY"
	case TraceBusPhase:
		return "BUS_PHASE"
	case TraceBusNack:
		return "BUS_NACK!"
	case TraceBusTimeout:
		return "BUS_TIMEOUT!"
	case TraceBusResult:
		return "BUS_RESULT"
	case TraceConvert:
		return "CONVERT"
	case TraceConvTimeout:
		return "CONV_TIMEOUT!"
	case TraceCRCRepair:
		return "CRC_REPAIR"
	}
	return "UNKNOWN"
}

// ClearTrace clears the trace buffer
func ClearTrace() {
	for i := range traceRing {
		traceRing[i] = TraceEvent{}
	}
	traceRingHead = 0
}
