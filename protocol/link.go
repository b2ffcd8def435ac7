package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrLinkClosed = errors.New("link closed")
	ErrNoTag      = errors.New("no tag response")
)

// DefaultLinkTimeout bounds a single request/reply exchange
const DefaultLinkTimeout = 2 * time.Second

// Link is the host end of the serial link to a reader bridge. Each request
// payload is a raw ISO15693 frame; the bridge answers with a block carrying
// the same sequence number and the tag's response frame (empty when no tag
// answered).
type Link struct {
	port io.ReadWriteCloser

	// Sequence tracking (0x10-0x1F)
	currentSeq uint32 // atomic uint8 stored as uint32

	input   *FifoBuffer
	scanner BlockScanner
	replies chan Block

	// Timeout applies when the caller's context has no deadline
	Timeout time.Duration

	writeMutex sync.Mutex
	txMutex    sync.Mutex

	stopChan  chan struct{}
	doneChan  chan struct{}
	closeOnce sync.Once
}

// NewLink wraps a port and starts the background reader
func NewLink(port io.ReadWriteCloser) *Link {
	l := &Link{
		port:       port,
		currentSeq: MessageDest,
		input:      NewFifoBuffer(512),
		replies:    make(chan Block, 4),
		Timeout:    DefaultLinkTimeout,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// Transceive sends one request frame and waits for the matching reply
func (l *Link) Transceive(ctx context.Context, frame []byte) ([]byte, error) {
	l.txMutex.Lock()
	defer l.txMutex.Unlock()

	if _, ok := ctx.Deadline(); !ok && l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	seq := uint8(atomic.LoadUint32(&l.currentSeq))
	msg, err := EncodeBlock(seq, frame)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if err := l.writeMessage(msg); err != nil {
		return nil, fmt.Errorf("failed to write request: %w", err)
	}

	for {
		select {
		case reply := <-l.replies:
			if reply.Sequence != seq {
				// Stale reply to an earlier, timed out request
				continue
			}
			atomic.StoreUint32(&l.currentSeq, uint32(NextSequence(seq)))
			if len(reply.Payload) == 0 {
				return nil, ErrNoTag
			}
			return reply.Payload, nil

		case <-ctx.Done():
			// Skip the sequence so a late reply cannot be taken for the next request
			atomic.StoreUint32(&l.currentSeq, uint32(NextSequence(seq)))
			return nil, fmt.Errorf("reply timeout for seq 0x%02x: %w", seq, ctx.Err())

		case <-l.stopChan:
			return nil, ErrLinkClosed
		}
	}
}

// writeMessage sends a block to the port
func (l *Link) writeMessage(msg []byte) error {
	l.writeMutex.Lock()
	defer l.writeMutex.Unlock()

	n, err := l.port.Write(msg)
	if err != nil {
		return err
	}
	if n != len(msg) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(msg))
	}
	return nil
}

// readLoop continuously reads from the port and queues reply blocks
func (l *Link) readLoop() {
	defer close(l.doneChan)

	buffer := make([]byte, 256)
	for {
		n, err := l.port.Read(buffer)
		if n > 0 {
			l.input.Write(buffer[:n])
			l.dispatch()
		}
		if err != nil {
			select {
			case <-l.stopChan:
				return
			default:
			}
			if errors.Is(err, io.ErrClosedPipe) || errors.Is(err, os.ErrClosed) {
				return
			}
			// Serial ports with a read timeout report io.EOF on an idle line
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (l *Link) dispatch() {
	blocks, consumed := l.scanner.Scan(l.input.Data())
	l.input.Pop(consumed)

	for _, b := range blocks {
		select {
		case l.replies <- b:
		default:
			// Reply channel full, drop the oldest
			select {
			case <-l.replies:
			default:
			}
			l.replies <- b
		}
	}
}

// Discarded returns the number of corrupt blocks seen so far
func (l *Link) Discarded() int {
	return l.scanner.Discarded
}

// Close stops the link and closes the port
func (l *Link) Close() error {
	var err error
	l.closeOnce.Do(func() {
		close(l.stopChan)
		err = l.port.Close()
		<-l.doneChan
	})
	return err
}

// FrameHandler produces the reply payload for one request payload
type FrameHandler func(frame []byte) []byte

// Serve runs the bridge end of the link until rw fails: every valid block is
// answered with a block carrying the same sequence number.
func Serve(rw io.ReadWriter, handle FrameHandler) error {
	var scanner BlockScanner
	input := NewFifoBuffer(512)
	buffer := make([]byte, 256)

	for {
		n, err := rw.Read(buffer)
		if n > 0 {
			input.Write(buffer[:n])
			blocks, consumed := scanner.Scan(input.Data())
			input.Pop(consumed)

			for _, b := range blocks {
				reply, encErr := EncodeBlock(b.Sequence, handle(b.Payload))
				if encErr != nil {
					return encErr
				}
				if _, werr := rw.Write(reply); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
