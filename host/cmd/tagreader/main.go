package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/golang/glog"

	"tagpatch/core"
	"tagpatch/host/config"
	"tagpatch/host/reader"
	"tagpatch/host/serial"
	"tagpatch/protocol"
	"tagpatch/targets/sim"
)

var (
	configPath = flag.String("config", "", "YAML configuration file")
	device     = flag.String("device", "", "Reader bridge serial device (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (overrides config)")
	samples    = flag.Int("samples", -1, "Conversions to take, 0 = until interrupted (overrides config)")
	interval   = flag.Duration("interval", -1, "Delay between conversions (overrides config)")
	csvPath    = flag.String("csv", "", "CSV export path (overrides config)")
	broker     = flag.String("broker", "", "MQTT broker URL (overrides config)")
	simulate   = flag.Bool("sim", false, "Talk to a simulated tag instead of a reader bridge")
	variant    = flag.String("variant", core.VariantCombined.String(), "Firmware variant for -sim and table")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	defer glog.Flush()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := flag.Args()
	switch args[0] {
	case "measure":
		err = runMeasure(ctx, cfg)
	case "send":
		err = runSend(ctx, cfg, args[1:])
	case "bench":
		err = runBench(ctx, cfg)
	case "table":
		err = runTable(args[1:])
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
		usage()
		os.Exit(2)
	}
	if err != nil {
		glog.Errorf("%s: %v", args[0], err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		glog.Flush()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: tagreader [flags] <command> [args]")
	fmt.Fprintln(os.Stderr, "\nCommands:")
	fmt.Fprintln(os.Stderr, "  measure          Run a sigma-delta measurement session")
	fmt.Fprintln(os.Stderr, "  send <code>      Send one custom command (0xA0-0xA6 or its name)")
	fmt.Fprintln(os.Stderr, "  bench            Compare the tag's sensor read with a direct i2c-dev read")
	fmt.Fprintln(os.Stderr, "  table [elf]      Print the patch table of a variant, resolved from an image")
	fmt.Fprintln(os.Stderr, "\nFlags:")
	flag.PrintDefaults()
}

// loadConfig reads the YAML file, if any, and applies the flag overrides
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}

	if *device != "" {
		cfg.Serial.Device = *device
	}
	if *baud > 0 {
		cfg.Serial.Baud = *baud
	}
	if *samples >= 0 {
		cfg.Session.Samples = *samples
	}
	if *interval >= 0 {
		cfg.Session.IntervalMs = int(*interval / time.Millisecond)
	}
	if *csvPath != "" {
		cfg.Output.CSV = *csvPath
	}
	if *broker != "" {
		cfg.MQTT.Broker = *broker
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// connect opens the reader bridge link, or boots a simulated tag
func connect(cfg *config.Config) (*reader.Client, func(), error) {
	var (
		tx      reader.Transceiver
		closeFn = func() {}
	)

	if *simulate {
		v, err := core.ParseVariant(*variant)
		if err != nil {
			return nil, nil, err
		}
		fw := core.DefaultConfig()
		fw.Variant = v
		board, err := sim.NewBoard(fw)
		if err != nil {
			return nil, nil, fmt.Errorf("boot simulated tag: %w", err)
		}
		glog.Infof("simulated %s tag ready", v)
		tx = board
	} else {
		port, err := serial.Open(&cfg.Serial)
		if err != nil {
			return nil, nil, err
		}
		if err := port.Flush(); err != nil {
			glog.Warningf("flush %s: %v", cfg.Serial.Device, err)
		}
		link := protocol.NewLink(port)
		link.Timeout = time.Duration(cfg.Link.TimeoutMs) * time.Millisecond
		glog.Infof("connected to reader bridge on %s at %d baud", cfg.Serial.Device, cfg.Serial.Baud)
		tx = link
		closeFn = func() {
			link.Close()
			if n := link.Discarded(); n > 0 {
				glog.Warningf("%d corrupt blocks discarded", n)
			}
		}
	}

	client := reader.NewClient(tx)
	client.FrameCRC = cfg.Link.FrameCRC
	client.Retries = cfg.Link.Retries
	return client, closeFn, nil
}

// parseCode accepts a command code in any integer base or a command name
func parseCode(s string) (uint8, error) {
	for code := protocol.CmdFirst; code <= protocol.CmdLast; code++ {
		if strings.EqualFold(s, protocol.CommandName(uint8(code))) {
			return uint8(code), nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid command code %q", s)
	}
	return uint8(v), nil
}

func runSend(ctx context.Context, cfg *config.Config, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("send takes exactly one command code")
	}
	code, err := parseCode(args[0])
	if err != nil {
		return err
	}

	client, closeFn, err := connect(cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	payload, err := client.Send(ctx, code)
	if err != nil {
		return err
	}
	fmt.Printf("%s (0x%02X): 0x%04X", protocol.CommandName(code), code, payload)
	if err := reader.Classify(code, payload); err != nil {
		fmt.Printf(" [%v]", err)
	}
	fmt.Println()
	return nil
}
