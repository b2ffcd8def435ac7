package main

import (
	"strings"
	"testing"

	"tagpatch/core"
	"tagpatch/protocol"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		in   string
		want uint8
		ok   bool
	}{
		{"0xA6", protocol.CmdReadSensor, true},
		{"160", protocol.CmdPing, true},
		{"measure", protocol.CmdMeasure, true},
		{"BUS_INIT", protocol.CmdBusInit, true},
		{"0x1FF", 0, false},
		{"blink", 0, false},
	}

	for _, tt := range tests {
		got, err := parseCode(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("parseCode(%q): unexpected error %v", tt.in, err)
			continue
		}
		if tt.ok && got != tt.want {
			t.Errorf("parseCode(%q) = 0x%02X, want 0x%02X", tt.in, got, tt.want)
		}
	}
}

func TestTableFromSymbols(t *testing.T) {
	table, err := buildTable("i2c")
	if err != nil {
		t.Fatalf("buildTable failed: %v", err)
	}

	symbols := map[string]uint64{
		core.EntryPing:       0xFA00,
		core.EntryBusInit:    0xFA20,
		core.EntryReadSensor: 0xFA60,
	}
	words, err := table.Words(symbolResolver(symbols))
	if err != nil {
		t.Fatalf("Words failed: %v", err)
	}

	want := map[int]uint16{
		11: 0xFA60, 12: protocol.CmdReadSensor,
		13: 0xFA20, 14: protocol.CmdBusInit,
		15: 0xFA00, 16: protocol.CmdPing,
	}
	for i, w := range words {
		exp, ok := want[i]
		if !ok {
			exp = core.PatchSentinel
		}
		if w != exp {
			t.Errorf("Word %d: expected 0x%04X, got 0x%04X", i, exp, w)
		}
	}

	lines := formatTable(table, words)
	if len(lines) != core.PatchTableWords {
		t.Fatalf("Expected %d lines, got %d", core.PatchTableWords, len(lines))
	}
	if !strings.Contains(lines[11], core.EntryReadSensor) || !strings.Contains(lines[12], "code 0xA6") {
		t.Errorf("Unexpected rendering %q / %q", lines[11], lines[12])
	}
}

func TestTableResolverErrors(t *testing.T) {
	table, err := buildTable("sigma-delta")
	if err != nil {
		t.Fatalf("buildTable failed: %v", err)
	}

	if _, err := table.Words(symbolResolver(map[string]uint64{})); err == nil {
		t.Error("Expected error for missing symbols")
	}

	far := map[string]uint64{
		core.EntryOutputLow:  0x1_0000,
		core.EntryConfigure:  0xF900,
		core.EntryMeasure:    0xF920,
		core.EntryOutputHigh: 0xF940,
	}
	if _, err := table.Words(symbolResolver(far)); err == nil {
		t.Error("Expected error for an address beyond 16 bits")
	}
}
