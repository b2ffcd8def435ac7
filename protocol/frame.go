package protocol

import (
	"encoding/binary"
	"errors"
)

// ISO15693 request flags used by the reader
const (
	FlagHighDataRate = 0x02
	FlagError        = 0x01

	RequestSize  = 3 // flags, command, manufacturer code
	ResponseSize = 5 // flags, echoed command (word), payload (word)
	CRCSize      = 2
)

var (
	ErrShortFrame   = errors.New("frame too short")
	ErrFrameCRC     = errors.New("frame CRC mismatch")
	ErrTagError     = errors.New("tag reported error flag")
	ErrCodeMismatch = errors.New("response echoes a different command")
)

// Request is a custom command addressed to the tag
type Request struct {
	Flags        uint8
	Code         uint8
	Manufacturer uint8
}

// NewRequest builds a high data rate custom command for the given code
func NewRequest(code uint8) Request {
	return Request{
		Flags:        FlagHighDataRate,
		Code:         code,
		Manufacturer: ManufacturerTI,
	}
}

// Encode returns the request bytes, optionally with the ISO15693 CRC
func (r Request) Encode(withCRC bool) []byte {
	frame := []byte{r.Flags, r.Code, r.Manufacturer}
	if withCRC {
		frame = binary.LittleEndian.AppendUint16(frame, ISO15693CRC(frame))
	}
	return frame
}

// DecodeRequest parses a request frame. A trailing CRC is verified when present.
func DecodeRequest(frame []byte) (Request, error) {
	if len(frame) < RequestSize {
		return Request{}, ErrShortFrame
	}
	if len(frame) >= RequestSize+CRCSize {
		got := binary.LittleEndian.Uint16(frame[RequestSize:])
		if got != ISO15693CRC(frame[:RequestSize]) {
			return Request{}, ErrFrameCRC
		}
	}
	return Request{Flags: frame[0], Code: frame[1], Manufacturer: frame[2]}, nil
}

// Response is what the reader receives after a mailbox reply:
// the echoed command word and the payload word, both little-endian.
type Response struct {
	Flags   uint8
	Code    uint16
	Payload uint16
}

// Encode returns the response bytes without CRC
func (r Response) Encode() []byte {
	frame := make([]byte, 1, ResponseSize)
	frame[0] = r.Flags
	frame = binary.LittleEndian.AppendUint16(frame, r.Code)
	frame = binary.LittleEndian.AppendUint16(frame, r.Payload)
	return frame
}

// DecodeResponse parses a response frame. Bytes beyond the payload are ignored.
func DecodeResponse(frame []byte) (Response, error) {
	if len(frame) > 0 && frame[0]&FlagError != 0 {
		return Response{Flags: frame[0]}, ErrTagError
	}
	if len(frame) < ResponseSize {
		return Response{}, ErrShortFrame
	}
	return Response{
		Flags:   frame[0],
		Code:    binary.LittleEndian.Uint16(frame[1:]),
		Payload: binary.LittleEndian.Uint16(frame[3:]),
	}, nil
}

// Expect checks that the response echoes the given command code
func (r Response) Expect(code uint8) error {
	if r.Code&0xFF != uint16(code) {
		return ErrCodeMismatch
	}
	return nil
}
