package main

import (
	"context"
	"fmt"

	"tagpatch/host/bench"
	"tagpatch/host/config"
)

func runBench(ctx context.Context, cfg *config.Config) error {
	sensor, bus, err := bench.Open(cfg.Bench.Bus, cfg.Bench.Address)
	if err != nil {
		return err
	}
	defer bus.Close()

	mfg, dev, err := sensor.Identify()
	if err != nil {
		return err
	}
	fmt.Printf("Direct: manufacturer 0x%04X, device 0x%04X on %s\n", mfg, dev, bus)

	client, closeFn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := client.InitBus(ctx); err != nil {
		return err
	}
	c, err := bench.Compare(ctx, client, sensor)
	if err != nil {
		return err
	}

	status := "match"
	if !c.Match() {
		status = "MISMATCH"
	}
	fmt.Printf("Register 0x%02X: tag 0x%04X, direct 0x%04X (%s)\n", c.Register, c.ViaTag, c.Direct, status)
	if !c.Match() {
		return fmt.Errorf("tag and direct reads differ")
	}
	return nil
}
