// Package reader talks to the tag's patched commands through a reader
// bridge: it builds the custom command frames, classifies the result
// sentinels and runs measurement sessions.
package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"

	"tagpatch/protocol"
)

// Transceiver exchanges one ISO15693 frame with the tag. *protocol.Link and
// the simulator both implement it.
type Transceiver interface {
	Transceive(ctx context.Context, frame []byte) ([]byte, error)
}

var (
	ErrRefused           = errors.New("tag refused the command")
	ErrNeverCompleted    = errors.New("sensor transaction never completed")
	ErrConversionTimeout = errors.New("conversion never completed")
	ErrUnexpected        = errors.New("unexpected result")
)

// Client sends patched commands to one tag
type Client struct {
	tx Transceiver

	// FrameCRC appends the ISO15693 CRC to every request
	FrameCRC bool

	// Retries is the number of extra attempts after ErrNoTag
	Retries int
}

// NewClient wraps a transceiver
func NewClient(tx Transceiver) *Client {
	return &Client{tx: tx}
}

// Send issues a custom command and returns the raw payload word. Only
// transport and framing failures are errors; sentinels are left to Classify.
func (c *Client) Send(ctx context.Context, code uint8) (uint16, error) {
	frame := protocol.NewRequest(code).Encode(c.FrameCRC)

	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if glog.V(2) {
			glog.Infof("TX %s % X", protocol.CommandName(code), frame)
		}
		reply, err := c.tx.Transceive(ctx, frame)
		if err != nil {
			lastErr = err
			if errors.Is(err, protocol.ErrNoTag) && ctx.Err() == nil {
				glog.V(1).Infof("%s: no tag, attempt %d", protocol.CommandName(code), attempt+1)
				continue
			}
			return 0, fmt.Errorf("%s: %w", protocol.CommandName(code), err)
		}
		glog.V(2).Infof("RX %s % X", protocol.CommandName(code), reply)

		resp, err := protocol.DecodeResponse(reply)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", protocol.CommandName(code), err)
		}
		if err := resp.Expect(code); err != nil {
			return 0, fmt.Errorf("%s: %w", protocol.CommandName(code), err)
		}
		return resp.Payload, nil
	}
	return 0, fmt.Errorf("%s: %w", protocol.CommandName(code), lastErr)
}

// Classify maps a payload to the failure it encodes for the given command
func Classify(code uint8, payload uint16) error {
	switch code {
	case protocol.CmdPing:
		if payload != protocol.ResultPingAck {
			return ErrUnexpected
		}
		return nil
	case protocol.CmdOutputHigh:
		if payload != protocol.ResultOutputHigh {
			return ErrUnexpected
		}
		return nil
	case protocol.CmdOutputLow:
		if payload != protocol.ResultOutputLow {
			return ErrUnexpected
		}
		return nil
	case protocol.CmdBusInit:
		switch payload {
		case protocol.ResultBusReady:
			return nil
		case protocol.ResultFailed:
			return ErrRefused
		}
		return ErrUnexpected
	}

	switch payload {
	case protocol.ResultFailed:
		return ErrRefused
	case protocol.ResultNeverCompleted:
		return ErrNeverCompleted
	case protocol.ResultConversionTimeout:
		return ErrConversionTimeout
	}
	return nil
}

// Do sends a command and classifies its payload
func (c *Client) Do(ctx context.Context, code uint8) (uint16, error) {
	payload, err := c.Send(ctx, code)
	if err != nil {
		return 0, err
	}
	if err := Classify(code, payload); err != nil {
		return payload, fmt.Errorf("%s: 0x%04X: %w", protocol.CommandName(code), payload, err)
	}
	return payload, nil
}

// Ping blinks the tag's indicator
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Do(ctx, protocol.CmdPing)
	return err
}

// SetOutput drives the tag's output pin
func (c *Client) SetOutput(ctx context.Context, high bool) error {
	code := uint8(protocol.CmdOutputLow)
	if high {
		code = protocol.CmdOutputHigh
	}
	_, err := c.Do(ctx, code)
	return err
}

// Configure applies the measurement configuration and returns the
// converter configuration word the tag echoed.
func (c *Client) Configure(ctx context.Context) (uint16, error) {
	return c.Do(ctx, protocol.CmdConfigure)
}

// Measure runs one conversion
func (c *Client) Measure(ctx context.Context) (uint16, error) {
	return c.Do(ctx, protocol.CmdMeasure)
}

// InitBus brings up the tag's I2C master
func (c *Client) InitBus(ctx context.Context) error {
	_, err := c.Do(ctx, protocol.CmdBusInit)
	return err
}

// ReadSensor reads the sensor register over the tag's I2C bus
func (c *Client) ReadSensor(ctx context.Context) (uint16, error) {
	return c.Do(ctx, protocol.CmdReadSensor)
}
