package reader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"
)

// Sample is one conversion of a session
type Sample struct {
	Index   int
	Elapsed time.Duration // since the first measure command
	Raw     uint16
	Gain    int
	Voltage float64
}

// Sink receives the samples of a session as they arrive
type Sink interface {
	Write(s Sample) error
}

// SinkFunc adapts a function to Sink
type SinkFunc func(s Sample) error

func (f SinkFunc) Write(s Sample) error { return f(s) }

// Session configures the converter, powers the external circuit through the
// output pin, takes Samples conversions (0 = until ctx is cancelled) and
// powers it down again.
type Session struct {
	Client   *Client
	Samples  int
	Interval time.Duration
	Sink     Sink

	// now is replaced in tests
	now func() time.Time
}

// Stats summarises a finished session
type Stats struct {
	Gain     int
	Taken    int // conversions with a valid result
	Rejected int // conversions answered with a sentinel
}

// Run executes the session. The output pin is driven low before returning
// whenever it was driven high, even when the session fails.
func (s *Session) Run(ctx context.Context) (Stats, error) {
	var stats Stats
	now := s.now
	if now == nil {
		now = time.Now
	}

	word, err := s.Client.Configure(ctx)
	if err != nil {
		return stats, fmt.Errorf("configure: %w", err)
	}
	stats.Gain = GainFromConfig(word)
	glog.Infof("converter configured: 0x%04X, gain %dx", word, stats.Gain)

	if err := s.Client.SetOutput(ctx, true); err != nil {
		return stats, fmt.Errorf("power on: %w", err)
	}
	defer func() {
		// The session context may already be cancelled
		offCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.Client.SetOutput(offCtx, false); err != nil {
			glog.Warningf("power off: %v", err)
		}
	}()

	start := now()
	for i := 0; s.Samples == 0 || i < s.Samples; i++ {
		if ctx.Err() != nil {
			break
		}

		raw, err := s.Client.Measure(ctx)
		switch {
		case err == nil:
			sample := Sample{
				Index:   i,
				Elapsed: now().Sub(start),
				Raw:     raw,
				Gain:    stats.Gain,
				Voltage: Voltage(raw, stats.Gain),
			}
			stats.Taken++
			if s.Sink != nil {
				if err := s.Sink.Write(sample); err != nil {
					return stats, fmt.Errorf("sink: %w", err)
				}
			}
		case errors.Is(err, ErrRefused), errors.Is(err, ErrConversionTimeout):
			stats.Rejected++
			glog.V(1).Infof("sample %d rejected: %v", i, err)
		case ctx.Err() != nil:
			return stats, nil
		default:
			return stats, fmt.Errorf("measure: %w", err)
		}

		if s.Interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.Interval):
			}
		}
	}
	return stats, nil
}
