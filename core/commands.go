package core

import "tagpatch/protocol"

// Command entry point names, as exported by the target image. The table
// resolver maps them to addresses when the patch table is rendered.
const (
	EntryPing       = "cmd_a0"
	EntryOutputHigh = "cmd_a1"
	EntryMeasure    = "cmd_a2"
	EntryConfigure  = "cmd_a3"
	EntryOutputLow  = "cmd_a4"
	EntryBusInit    = "cmd_a5"
	EntryReadSensor = "cmd_a6"
)

type layoutEntry struct {
	slot uint8
	code uint8
}

// Table layouts per variant
var (
	sigmaDeltaLayout = []layoutEntry{
		{9, protocol.CmdOutputLow},
		{11, protocol.CmdConfigure},
		{13, protocol.CmdMeasure},
		{15, protocol.CmdOutputHigh},
	}
	i2cLayout = []layoutEntry{
		{11, protocol.CmdReadSensor},
		{13, protocol.CmdBusInit},
		{15, protocol.CmdPing},
	}
	combinedLayout = []layoutEntry{
		{3, protocol.CmdReadSensor},
		{5, protocol.CmdBusInit},
		{7, protocol.CmdOutputLow},
		{9, protocol.CmdConfigure},
		{11, protocol.CmdMeasure},
		{13, protocol.CmdOutputHigh},
		{15, protocol.CmdPing},
	}
)

func layoutFor(v Variant) []layoutEntry {
	switch v {
	case VariantSigmaDelta:
		return sigmaDeltaLayout
	case VariantI2C:
		return i2cLayout
	}
	return combinedLayout
}

// EntryName returns the exported entry point name of a command
func EntryName(code uint8) string {
	switch code {
	case protocol.CmdPing:
		return EntryPing
	case protocol.CmdOutputHigh:
		return EntryOutputHigh
	case protocol.CmdMeasure:
		return EntryMeasure
	case protocol.CmdConfigure:
		return EntryConfigure
	case protocol.CmdOutputLow:
		return EntryOutputLow
	case protocol.CmdBusInit:
		return EntryBusInit
	case protocol.CmdReadSensor:
		return EntryReadSensor
	}
	return ""
}

// NewFirmwareTable builds the sealed patch table of a variant, binding each
// command to f.
func NewFirmwareTable(f *Firmware) (*PatchTable, error) {
	t := NewPatchTable()
	for _, e := range layoutFor(f.cfg.Variant) {
		if err := t.Place(e.slot, e.code, EntryName(e.code), f.handler(e.code)); err != nil {
			return nil, err
		}
	}
	if err := t.Seal(); err != nil {
		return nil, err
	}
	return t, nil
}

func (f *Firmware) handler(code uint8) CommandHandler {
	switch code {
	case protocol.CmdPing:
		return f.CmdPing
	case protocol.CmdOutputHigh:
		return f.CmdOutputHigh
	case protocol.CmdMeasure:
		return f.CmdMeasure
	case protocol.CmdConfigure:
		return f.CmdConfigure
	case protocol.CmdOutputLow:
		return f.CmdOutputLow
	case protocol.CmdBusInit:
		return f.CmdBusInit
	case protocol.CmdReadSensor:
		return f.CmdReadSensor
	}
	return nil
}

// CmdPing pulses the indicator and acknowledges
func (f *Firmware) CmdPing() uint16 {
	f.out.Pulse(f.cfg.PingCycles)
	Reply(protocol.CmdPing, protocol.ResultPingAck)
	return 0
}

// CmdOutputHigh drives the output pin high
func (f *Firmware) CmdOutputHigh() uint16 {
	result := protocol.ResultOutputHigh
	if err := f.out.On(); err != nil {
		result = protocol.ResultFailed
	}
	Reply(protocol.CmdOutputHigh, result)
	return 0
}

// CmdOutputLow drives the output pin low
func (f *Firmware) CmdOutputLow() uint16 {
	result := protocol.ResultOutputLow
	if err := f.out.Off(); err != nil {
		result = protocol.ResultFailed
	}
	Reply(protocol.CmdOutputLow, result)
	return 0
}

// CmdConfigure applies the measurement configuration and echoes it
func (f *Firmware) CmdConfigure() uint16 {
	Reply(protocol.CmdConfigure, ConfigureConverter(f.out, f.cfg.SettleCycles))
	return 0
}

// CmdMeasure runs one conversion
func (f *Firmware) CmdMeasure() uint16 {
	Reply(protocol.CmdMeasure, MeasureConverter(f.cfg.ConversionPollBudget))
	return 0
}

// CmdBusInit brings up the I2C master
func (f *Firmware) CmdBusInit() uint16 {
	result := protocol.ResultBusReady
	if err := f.bus.Init(f.cfg.SensorAddress, f.cfg.I2CClockDivider); err != nil {
		result = protocol.ResultFailed
	}
	Reply(protocol.CmdBusInit, result)
	return 0
}

// CmdReadSensor reads the configured sensor register
func (f *Firmware) CmdReadSensor() uint16 {
	Reply(protocol.CmdReadSensor, SensorResult(f.sensor.ReadRegister(f.cfg.SensorRegister)))
	return 0
}
