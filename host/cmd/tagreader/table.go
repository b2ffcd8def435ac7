package main

import (
	"debug/elf"
	"fmt"

	"tagpatch/core"
	"tagpatch/targets/sim"
)

// symbolResolver maps entry points to the addresses of their symbols
func symbolResolver(symbols map[string]uint64) core.AddressResolver {
	return func(entry core.PatchEntry) (uint16, error) {
		addr, ok := symbols[entry.Name]
		if !ok {
			return 0, fmt.Errorf("symbol %s not found", entry.Name)
		}
		if addr > 0xFFFF {
			return 0, fmt.Errorf("symbol %s at 0x%X is outside the 16-bit address space", entry.Name, addr)
		}
		return uint16(addr), nil
	}
}

// placeholderResolver is used when no image is given
func placeholderResolver(core.PatchEntry) (uint16, error) {
	return 0, nil
}

// loadSymbols reads the function symbols of a firmware image
func loadSymbols(path string) (map[string]uint64, error) {
	f, err := elf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	syms, err := f.Symbols()
	if err != nil {
		return nil, fmt.Errorf("read symbols: %w", err)
	}
	symbols := make(map[string]uint64, len(syms))
	for _, s := range syms {
		if elf.ST_TYPE(s.Info) == elf.STT_FUNC {
			symbols[s.Name] = s.Value
		}
	}
	return symbols, nil
}

// buildTable boots the variant on a simulated board to obtain its table
func buildTable(name string) (*core.PatchTable, error) {
	v, err := core.ParseVariant(name)
	if err != nil {
		return nil, err
	}
	cfg := core.DefaultConfig()
	cfg.Variant = v
	board, err := sim.NewBoard(cfg)
	if err != nil {
		return nil, err
	}
	return board.Firmware().Table(), nil
}

func runTable(args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("table takes at most one image path")
	}
	table, err := buildTable(*variant)
	if err != nil {
		return err
	}

	resolve := core.AddressResolver(placeholderResolver)
	if len(args) == 1 {
		symbols, err := loadSymbols(args[0])
		if err != nil {
			return err
		}
		resolve = symbolResolver(symbols)
	}

	words, err := table.Words(resolve)
	if err != nil {
		return err
	}

	fmt.Printf("Firmware control byte 0x%02X\n", core.FirmwareControlByte)
	fmt.Printf("Early ROM % X\n", core.EarlyROM[:])
	fmt.Printf("Patch table, %s variant, %d commands\n", *variant, table.Count())
	for _, line := range formatTable(table, words) {
		fmt.Println(line)
	}
	return nil
}

// formatTable renders one line per table word
func formatTable(table *core.PatchTable, words [core.PatchTableWords]uint16) []string {
	names := make(map[uint8]string)
	for _, e := range table.Entries() {
		names[e.Slot] = e.Name
		names[e.Slot+1] = fmt.Sprintf("code 0x%02X", e.Code)
	}

	lines := make([]string, 0, len(words))
	for i, w := range words {
		note := names[uint8(i)]
		if note == "" && w == core.PatchSentinel {
			note = "-"
		}
		lines = append(lines, fmt.Sprintf("  [%2d] 0x%04X  %s", i, w, note))
	}
	return lines
}
