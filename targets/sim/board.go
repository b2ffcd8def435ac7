// Package sim runs the firmware core against simulated tag peripherals. The
// core keeps its drivers in package-level singletons, so only the most
// recently created Board is live.
package sim

import (
	"context"
	"io"
	"sync"

	"tagpatch/core"
	"tagpatch/protocol"
)

// ISO15693 error code for an unknown custom command
const ErrorCommandNotSupported = 0x01

// Board is a simulated tag with its firmware initialised
type Board struct {
	mu sync.Mutex

	Port      *Port
	Clock     *Clock
	Mailbox   *Mailbox
	Converter *Converter
	Image     *Image
	Bus       *Bus
	Sensor    *FDC1004

	firmware *core.Firmware
	cfg      core.Config
	absent   bool
}

// NewBoard registers the simulated drivers and initialises the firmware
func NewBoard(cfg core.Config) (*Board, error) {
	b := &Board{
		Port:      NewPort(),
		Clock:     &Clock{},
		Mailbox:   &Mailbox{},
		Converter: &Converter{Latency: 2},
		Image:     NewImage(cfg.CRCRegions),
		Bus:       NewBus(),
		Sensor:    NewFDC1004(),
		cfg:       cfg,
	}
	b.Bus.Attach(cfg.SensorAddress, b.Sensor)
	b.Bus.OnEvent = core.HandleBusInterrupt

	core.SetGPIODriver(b.Port)
	core.SetClock(b.Clock)
	core.SetMailbox(b.Mailbox)
	core.SetConverter(b.Converter)
	core.SetCRCDriver(b.Image)
	core.SetI2CController(b.Bus)

	f, err := core.Init(cfg)
	if err != nil {
		return nil, err
	}
	b.firmware = f
	return b, nil
}

// Firmware returns the running firmware
func (b *Board) Firmware() *core.Firmware {
	return b.firmware
}

// SetPresent moves the tag into or out of the reader field
func (b *Board) SetPresent(present bool) {
	b.mu.Lock()
	b.absent = !present
	b.mu.Unlock()
}

// Handle processes one ISO15693 request frame the way the tag's RF stack
// and boot ROM do. nil means the tag stayed silent.
func (b *Board) Handle(frame []byte) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.absent {
		return nil
	}
	req, err := protocol.DecodeRequest(frame)
	if err != nil || req.Manufacturer != protocol.ManufacturerTI {
		return nil
	}

	b.Mailbox.reset()
	if _, ok := b.firmware.Dispatch(req.Code); !ok {
		return []byte{protocol.FlagError, ErrorCommandNotSupported}
	}
	// The interrupt that woke the main loop returns it to sleep
	b.firmware.Step()

	code, payload, ok := b.Mailbox.reply()
	if !ok {
		return nil
	}
	return protocol.Response{Code: code, Payload: payload}.Encode()
}

// Transceive answers a request frame directly, without a serial link
func (b *Board) Transceive(ctx context.Context, frame []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reply := b.Handle(frame)
	if reply == nil {
		return nil, protocol.ErrNoTag
	}
	return reply, nil
}

// Serve runs the bridge end of a serial link with the tag in the field
func (b *Board) Serve(rw io.ReadWriter) error {
	return protocol.Serve(rw, b.Handle)
}

// ImageValid reports whether the boot ROM would accept the firmware image
func (b *Board) ImageValid() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Image.Valid(b.cfg.CRCRegions)
}

// Output reports the level of the indicator / trigger pin
func (b *Board) Output() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, _ := b.Port.GetPin(b.cfg.OutputPin)
	return v
}
