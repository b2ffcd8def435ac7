package core

import (
	"errors"
	"testing"

	"tagpatch/protocol"
)

func TestFirmwareCommands(t *testing.T) {
	b := newMockBoard()
	b.adc.sample = 0x2000
	b.adc.config = SD14ChannelTemp
	b.i2c.replies = [][]byte{{0x10, 0x04}}

	f, err := Init(testConfig(VariantCombined))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	tests := []struct {
		code uint8
		want uint16
	}{
		{protocol.CmdPing, protocol.ResultPingAck},
		{protocol.CmdReadSensor, protocol.ResultFailed}, // bus not initialised yet
		{protocol.CmdMeasure, protocol.ResultFailed},    // converter not configured yet
		{protocol.CmdConfigure, MeasurementConfig.Word()},
		{protocol.CmdOutputHigh, protocol.ResultOutputHigh},
		{protocol.CmdMeasure, 0x2000},
		{protocol.CmdOutputLow, protocol.ResultOutputLow},
		{protocol.CmdBusInit, protocol.ResultBusReady},
		{protocol.CmdReadSensor, FDC1004DeviceID},
		{protocol.CmdReadSensor, protocol.ResultNeverCompleted},
	}

	for i, tt := range tests {
		before := len(b.mailbox.messages)
		if _, ok := f.Dispatch(tt.code); !ok {
			t.Fatalf("Step %d: code 0x%02X not patched", i, tt.code)
		}
		if len(b.mailbox.messages) != before+1 {
			t.Fatalf("Step %d: expected exactly one reply, got %d", i, len(b.mailbox.messages)-before)
		}
		msg := b.mailbox.Last()
		if len(msg) != 3 || msg[0] != protocol.ReplyLength || msg[1] != uint16(tt.code) {
			t.Errorf("Step %d: malformed reply %04X", i, msg)
			continue
		}
		if msg[2] != tt.want {
			t.Errorf("Step %d (%s): expected 0x%04X, got 0x%04X", i, protocol.CommandName(tt.code), tt.want, msg[2])
		}
	}

	if b.adc.config&SD14ChannelMask != SD14ChannelADC0 {
		t.Error("Converter not left on ADC0")
	}
	if b.gpio.pins[f.Config().OutputPin] {
		t.Error("Output pin left high")
	}
}

func TestFirmwareVariants(t *testing.T) {
	tests := []struct {
		variant Variant
		missing uint8
	}{
		{VariantSigmaDelta, protocol.CmdReadSensor},
		{VariantI2C, protocol.CmdMeasure},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			b := newMockBoard()
			f, err := Init(testConfig(tt.variant))
			if err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			if _, ok := f.Dispatch(tt.missing); ok {
				t.Errorf("Code 0x%02X should not be patched", tt.missing)
			}
			if len(b.mailbox.messages) != 0 {
				t.Error("Unpatched code produced a reply")
			}
		})
	}
}

func TestFirmwareStep(t *testing.T) {
	tests := []struct {
		variant     Variant
		wantRepairs int
	}{
		{VariantSigmaDelta, 1 + 3},
		{VariantI2C, 1},
		{VariantCombined, 1},
	}

	for _, tt := range tests {
		t.Run(tt.variant.String(), func(t *testing.T) {
			b := newMockBoard()
			f, err := Init(testConfig(tt.variant))
			if err != nil {
				t.Fatalf("Init failed: %v", err)
			}
			for i := 0; i < 3; i++ {
				f.Step()
			}
			if b.crc.disables != tt.wantRepairs {
				t.Errorf("Expected %d repairs, got %d", tt.wantRepairs, b.crc.disables)
			}
			if b.clock.waits != 3 {
				t.Errorf("Expected 3 low-power waits, got %d", b.clock.waits)
			}
		})
	}
}

func TestInitRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no poll budget", func(c *Config) { c.PollBudget = 0 }},
		{"10-bit sensor address", func(c *Config) { c.SensorAddress = 0x80 }},
		{"output pin beyond port 1", func(c *Config) { c.OutputPin = 9 }},
		{"unknown variant", func(c *Config) { c.Variant = VariantCombined + 1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			newMockBoard()
			cfg := testConfig(VariantCombined)
			tt.mutate(&cfg)
			if _, err := Init(cfg); err != ErrBadConfig {
				t.Errorf("Expected ErrBadConfig, got %v", err)
			}
		})
	}
}

func TestOutputCommandsReportPinFailure(t *testing.T) {
	b := newMockBoard()
	f, err := Init(testConfig(VariantCombined))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}

	b.gpio.setErr = errors.New("pin locked")
	for _, code := range []uint8{protocol.CmdOutputHigh, protocol.CmdOutputLow} {
		f.Dispatch(code)
		if got := b.mailbox.Last()[2]; got != protocol.ResultFailed {
			t.Errorf("%s: expected 0x%04X, got 0x%04X", protocol.CommandName(code), protocol.ResultFailed, got)
		}
	}

	b.gpio.setErr = nil
	f.Dispatch(protocol.CmdOutputHigh)
	if got := b.mailbox.Last()[2]; got != protocol.ResultOutputHigh {
		t.Errorf("Expected 0x%04X after recovery, got 0x%04X", protocol.ResultOutputHigh, got)
	}
	if !b.gpio.pins[f.Config().OutputPin] {
		t.Error("Output pin not driven high after recovery")
	}
}

func TestFirmwareMetadata(t *testing.T) {
	if FirmwareControlByte != 0x7F {
		t.Errorf("Expected control byte 0x7F, got 0x%02X", FirmwareControlByte)
	}
	want := [32]byte{
		0x3d, 0xc7, 0x88, 0x13, 0x01, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x62, 0xc2, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	if EarlyROM != want {
		t.Errorf("Early ROM block changed:\n% X", EarlyROM[:])
	}
}

func TestVariantNames(t *testing.T) {
	for _, v := range []Variant{VariantSigmaDelta, VariantI2C, VariantCombined} {
		parsed, err := ParseVariant(v.String())
		if err != nil || parsed != v {
			t.Errorf("ParseVariant(%q) = %v, %v", v.String(), parsed, err)
		}
	}
	if _, err := ParseVariant("rp2040"); err == nil {
		t.Error("Expected error for unknown variant")
	}
}

func TestTraceRecordsCommands(t *testing.T) {
	newMockBoard()
	f, err := Init(testConfig(VariantCombined))
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	ClearTrace()

	f.Dispatch(protocol.CmdPing)

	events := TraceEvents()
	if len(events) != 2 {
		t.Fatalf("Expected dispatch and reply events, got %d", len(events))
	}
	if events[0].Kind != TraceDispatch || events[0].Code != protocol.CmdPing || events[0].Value != 15 {
		t.Errorf("Unexpected dispatch event %+v", events[0])
	}
	if events[1].Kind != TraceReply || events[1].Value != protocol.ResultPingAck {
		t.Errorf("Unexpected reply event %+v", events[1])
	}

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})
	DumpTrace()
	if len(lines) != 4 {
		t.Errorf("Expected header, two events and footer, got %d lines", len(lines))
	}
}
