// Package sink stores and forwards measurement session samples.
package sink

import (
	"encoding/csv"
	"fmt"
	"io"

	"tagpatch/host/reader"
)

// CSVHeader is the first row of an exported session
var CSVHeader = []string{"Time (ms)", "Voltage (V)"}

// CSV writes samples as "elapsed milliseconds, volts" rows
type CSV struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSV creates a CSV sink writing to w
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

// Write implements reader.Sink. Each row is flushed so a session killed
// half way still leaves a readable file.
func (c *CSV) Write(s reader.Sample) error {
	if !c.wroteHeader {
		if err := c.w.Write(CSVHeader); err != nil {
			return err
		}
		c.wroteHeader = true
	}
	ms := float64(s.Elapsed.Microseconds()) / 1000
	row := []string{
		fmt.Sprintf("%.0f", ms),
		fmt.Sprintf("%.4f", s.Voltage),
	}
	if err := c.w.Write(row); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}
