// Package protocol implements the wire formats shared by the tag firmware and
// the host reader tools: command codes, result sentinels, ISO15693 custom
// command frames and the framed serial link to the reader bridge.
package protocol

// Version represents the tagpatch firmware version
const Version = "0.1.0"

// Command codes handled by the patch table (ISO15693 custom command range)
const (
	CmdPing        = 0xA0 // Indicator blink, fixed acknowledgement
	CmdOutputHigh  = 0xA1 // Drive the output pin high
	CmdMeasure     = 0xA2 // Sigma-delta single conversion
	CmdConfigure   = 0xA3 // Sigma-delta configuration
	CmdOutputLow   = 0xA4 // Drive the output pin low
	CmdBusInit     = 0xA5 // I2C master initialisation
	CmdReadSensor  = 0xA6 // I2C register read
	CmdFirst       = CmdPing
	CmdLast        = CmdReadSensor
	ReplyLength    = 2 // Words following the length byte in a mailbox reply
	ManufacturerTI = 0x07
)

// Result sentinels. Every failure travels through the same payload word as a
// genuine result, so these values are reserved.
const (
	ResultFailed            uint16 = 0xFFFF // Refused precondition, NACK or initiator timeout
	ResultConversionTimeout uint16 = 0xFFFC // Converter never signalled completion
	ResultNeverCompleted    uint16 = 0xFFFB // Bus transaction never completed
	ResultPingAck           uint16 = 0xFFFA // Fixed acknowledgement for the ping command
	ResultOutputHigh        uint16 = 0x0001
	ResultOutputLow         uint16 = 0x0000
	ResultBusReady          uint16 = 0x0001
)

// IsSentinel reports whether v is one of the reserved failure values.
func IsSentinel(v uint16) bool {
	switch v {
	case ResultFailed, ResultConversionTimeout, ResultNeverCompleted:
		return true
	}
	return false
}

// CommandName returns a short name for a command code
func CommandName(code uint8) string {
	switch code {
	case CmdPing:
		return "ping"
	case CmdOutputHigh:
		return "output_high"
	case CmdMeasure:
		return "measure"
	case CmdConfigure:
		return "configure"
	case CmdOutputLow:
		return "output_low"
	case CmdBusInit:
		return "bus_init"
	case CmdReadSensor:
		return "read_sensor"
	}
	return "unknown"
}
