package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestInteractive(t *testing.T) {
	board, err := boot()
	if err != nil {
		t.Fatalf("boot failed: %v", err)
	}

	script := strings.Join([]string{
		"ping",
		"0xA5",
		"read_sensor",
		"fault nodata",
		"read_sensor",
		"absent",
		"ping",
		"bogus",
		"quit",
		"ping",
	}, "\n")
	var out bytes.Buffer
	if err := interactive(board, strings.NewReader(script), &out); err != nil {
		t.Fatalf("interactive failed: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"ping -> 0xFFFA",
		"bus_init -> 0x0001",
		"read_sensor -> 0x1004",
		"read_sensor -> 0xFFFB",
		"RX (no response)",
		`unknown command "bogus"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("Output missing %q:\n%s", want, got)
		}
	}
	if n := strings.Count(got, "ping -> "); n != 1 {
		t.Errorf("Expected one answered ping, got %d", n)
	}
}
