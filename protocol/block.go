package protocol

import "fmt"

// Serial link framing between the host and the reader bridge:
//
//	[len][seq][payload ...][crc hi][crc lo][0x7E]
//
// len counts the whole block. The CRC covers header and payload.
const (
	MessageHeaderSize  = 2
	MessageTrailerSize = 3
	MessageLengthMin   = MessageHeaderSize + MessageTrailerSize
	MessageLengthMax   = 64
	MessagePayloadMax  = MessageLengthMax - MessageLengthMin
	MessagePositionLen = 0
	MessagePositionSeq = 1
	MessageTrailerCRC  = 3
	MessageTrailerSync = 1
	MessageValueSync   = 0x7E
	MessageDest        = 0x10
	MessageSeqMask     = 0x0F
)

// Block is one framed message on the serial link
type Block struct {
	Sequence uint8
	Payload  []byte
}

// NextSequence returns the sequence number following seq (0x10-0x1F, wrapping)
func NextSequence(seq uint8) uint8 {
	return ((seq + 1) & MessageSeqMask) | MessageDest
}

// EncodeBlock frames a payload
func EncodeBlock(seq uint8, payload []byte) ([]byte, error) {
	msgLen := MessageLengthMin + len(payload)
	if msgLen > MessageLengthMax {
		return nil, fmt.Errorf("message too long: %d bytes (max %d)", msgLen, MessageLengthMax)
	}

	msg := make([]byte, 0, msgLen)
	msg = append(msg, uint8(msgLen), seq)
	msg = append(msg, payload...)

	crc := CRC16(msg)
	msg = append(msg, uint8(crc>>8), uint8(crc), MessageValueSync)
	return msg, nil
}

// BlockScanner extracts blocks from a byte stream, resynchronising on the
// sync byte after any framing or CRC error.
type BlockScanner struct {
	lost bool

	// Discarded counts blocks rejected for length, sync or CRC errors
	Discarded int
}

// Scan parses as many complete blocks as data holds. consumed is the number
// of leading bytes that may be dropped from the input.
func (s *BlockScanner) Scan(data []byte) (blocks []Block, consumed int) {
	total := len(data)

	for len(data) > 0 {
		if s.lost {
			syncPos := -1
			for i, b := range data {
				if b == MessageValueSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			s.lost = false
			continue
		}

		// Skip leading sync bytes
		if data[0] == MessageValueSync {
			data = data[1:]
			continue
		}

		if len(data) < MessageLengthMin {
			break
		}

		msgLen := int(data[MessagePositionLen])
		if msgLen < MessageLengthMin || msgLen > MessageLengthMax {
			s.desync()
			continue
		}

		// Wait for the full block
		if len(data) < msgLen {
			break
		}

		if data[msgLen-MessageTrailerSync] != MessageValueSync {
			s.desync()
			continue
		}

		frameCRC := uint16(data[msgLen-MessageTrailerCRC])<<8 |
			uint16(data[msgLen-MessageTrailerCRC+1])
		if frameCRC != CRC16(data[:msgLen-MessageTrailerSize]) {
			s.desync()
			continue
		}

		payload := make([]byte, msgLen-MessageLengthMin)
		copy(payload, data[MessageHeaderSize:msgLen-MessageTrailerSize])
		blocks = append(blocks, Block{
			Sequence: data[MessagePositionSeq],
			Payload:  payload,
		})
		data = data[msgLen:]
	}

	return blocks, total - len(data)
}

func (s *BlockScanner) desync() {
	s.lost = true
	s.Discarded++
}
