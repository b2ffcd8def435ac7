package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"

	"tagpatch/core"
	"tagpatch/host/serial"
	"tagpatch/protocol"
	"tagpatch/targets/sim"
)

var (
	device  = flag.String("device", "", "Serve the bridge protocol on this serial device (e.g. one end of a pty pair)")
	baud    = flag.Int("baud", serial.DefaultBaud, "Baud rate")
	variant = flag.String("variant", core.VariantCombined.String(), "Firmware variant")
	input   = flag.Float64("input", 0.25, "Converter input in volts")
	fault   = flag.String("fault", "none", "I2C fault: none, stop, tx, start, nodata, halfdata")
	trace   = flag.Bool("trace", false, "Log firmware debug output and dump the trace ring after each command")
)

var faults = map[string]sim.BusFault{
	"none":     sim.FaultNone,
	"stop":     sim.FaultStopStuck,
	"tx":       sim.FaultTxStuck,
	"start":    sim.FaultStartStuck,
	"nodata":   sim.FaultNoData,
	"halfdata": sim.FaultHalfData,
}

func main() {
	flag.Parse()
	defer glog.Flush()

	board, err := boot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *device != "" {
		err = serve(board)
	} else {
		err = interactive(board, os.Stdin, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		glog.Flush()
		os.Exit(1)
	}
}

func boot() (*sim.Board, error) {
	v, err := core.ParseVariant(*variant)
	if err != nil {
		return nil, err
	}
	f, ok := faults[*fault]
	if !ok {
		return nil, fmt.Errorf("unknown fault %q", *fault)
	}

	if *trace {
		core.SetDebugWriter(func(s string) { glog.Info(s) })
		core.SetDebugEnabled(true)
	}

	cfg := core.DefaultConfig()
	cfg.Variant = v
	board, err := sim.NewBoard(cfg)
	if err != nil {
		return nil, err
	}
	board.Converter.Input = *input
	board.Bus.Fault = f

	glog.Infof("tag booted: %s variant, %d commands, image valid %v", v, board.Firmware().Table().Count(), board.ImageValid())
	return board, nil
}

// serve answers bridge requests on a serial device until it fails
func serve(board *sim.Board) error {
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	defer port.Close()

	fmt.Printf("Serving simulated tag on %s\n", *device)
	return board.Serve(port)
}

// interactive reads commands from in and prints the frames exchanged
func interactive(board *sim.Board, in io.Reader, out io.Writer) error {
	fmt.Fprintln(out, "Simulated tag. Commands: <code|name>, absent, present, input <volts>, fault <name>, trace, quit")
	scanner := bufio.NewScanner(in)

	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}

		switch parts[0] {
		case "quit", "exit", "q":
			return nil
		case "absent":
			board.SetPresent(false)
		case "present":
			board.SetPresent(true)
		case "trace":
			core.SetDebugWriter(func(s string) { fmt.Fprintln(out, s) })
			core.DumpTrace()
		case "input":
			if len(parts) != 2 {
				fmt.Fprintln(out, "usage: input <volts>")
				continue
			}
			v, err := strconv.ParseFloat(parts[1], 64)
			if err != nil {
				fmt.Fprintf(out, "invalid voltage: %v\n", err)
				continue
			}
			board.Converter.Input = v
		case "fault":
			f, ok := faults[strings.Join(parts[1:], "")]
			if !ok {
				fmt.Fprintln(out, "usage: fault none|stop|tx|start|nodata|halfdata")
				continue
			}
			board.Bus.Fault = f
		default:
			code, err := parseCode(parts[0])
			if err != nil {
				fmt.Fprintln(out, err)
				continue
			}
			exchange(board, code, out)
		}
	}
	return scanner.Err()
}

// exchange sends one request and prints both frames and the decoded reply
func exchange(board *sim.Board, code uint8, out io.Writer) {
	req := protocol.NewRequest(code).Encode(true)
	fmt.Fprintf(out, "TX % X\n", req)

	reply := board.Handle(req)
	if reply == nil {
		fmt.Fprintln(out, "RX (no response)")
		return
	}
	fmt.Fprintf(out, "RX % X\n", reply)

	resp, err := protocol.DecodeResponse(reply)
	if err != nil {
		fmt.Fprintf(out, "   %v\n", err)
		return
	}
	fmt.Fprintf(out, "   %s -> 0x%04X\n", protocol.CommandName(uint8(resp.Code)), resp.Payload)
}

func parseCode(s string) (uint8, error) {
	for code := protocol.CmdFirst; code <= protocol.CmdLast; code++ {
		if strings.EqualFold(s, protocol.CommandName(uint8(code))) {
			return uint8(code), nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown command %q", s)
	}
	return uint8(v), nil
}
