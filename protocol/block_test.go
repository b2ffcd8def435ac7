package protocol

import (
	"bytes"
	"testing"
)

func TestEncodeBlock(t *testing.T) {
	msg, err := EncodeBlock(MessageDest, []byte{0x02, 0xA2, 0x07})
	if err != nil {
		t.Fatalf("EncodeBlock failed: %v", err)
	}

	if len(msg) != 8 {
		t.Fatalf("Expected 8 byte block, got %d", len(msg))
	}
	if msg[MessagePositionLen] != 8 || msg[MessagePositionSeq] != MessageDest {
		t.Errorf("Bad header: % X", msg[:2])
	}
	if msg[len(msg)-1] != MessageValueSync {
		t.Errorf("Missing sync byte: % X", msg)
	}
	crc := CRC16(msg[:5])
	if msg[5] != uint8(crc>>8) || msg[6] != uint8(crc) {
		t.Errorf("CRC mismatch in % X, want %04X", msg, crc)
	}
}

func TestEncodeBlockTooLong(t *testing.T) {
	if _, err := EncodeBlock(MessageDest, make([]byte, MessagePayloadMax+1)); err == nil {
		t.Error("Expected error for oversized payload")
	}
	if _, err := EncodeBlock(MessageDest, make([]byte, MessagePayloadMax)); err != nil {
		t.Errorf("Max payload rejected: %v", err)
	}
}

func TestBlockScannerRoundTrip(t *testing.T) {
	first, _ := EncodeBlock(0x10, []byte{1, 2, 3})
	second, _ := EncodeBlock(0x11, nil)

	var s BlockScanner
	stream := append(append([]byte{}, first...), second...)
	blocks, consumed := s.Scan(stream)

	if consumed != len(stream) {
		t.Errorf("Expected %d consumed, got %d", len(stream), consumed)
	}
	if len(blocks) != 2 {
		t.Fatalf("Expected 2 blocks, got %d", len(blocks))
	}
	if blocks[0].Sequence != 0x10 || !bytes.Equal(blocks[0].Payload, []byte{1, 2, 3}) {
		t.Errorf("First block mismatch: %+v", blocks[0])
	}
	if blocks[1].Sequence != 0x11 || len(blocks[1].Payload) != 0 {
		t.Errorf("Second block mismatch: %+v", blocks[1])
	}
}

func TestBlockScannerPartial(t *testing.T) {
	msg, _ := EncodeBlock(0x12, []byte{0xAA, 0xBB})

	var s BlockScanner
	blocks, consumed := s.Scan(msg[:4])
	if len(blocks) != 0 || consumed != 0 {
		t.Fatalf("Partial block parsed: %d blocks, %d consumed", len(blocks), consumed)
	}

	blocks, consumed = s.Scan(msg)
	if len(blocks) != 1 || consumed != len(msg) {
		t.Fatalf("Complete block not parsed: %d blocks, %d consumed", len(blocks), consumed)
	}
}

func TestBlockScannerResync(t *testing.T) {
	good, _ := EncodeBlock(0x13, []byte{0x42})
	bad := append([]byte{}, good...)
	bad[2] ^= 0xFF // corrupt payload, CRC no longer matches

	var s BlockScanner
	stream := append(append([]byte{0x01, 0x02}, bad...), good...)
	blocks, _ := s.Scan(stream)

	if len(blocks) != 1 {
		t.Fatalf("Expected 1 good block after resync, got %d", len(blocks))
	}
	if blocks[0].Payload[0] != 0x42 {
		t.Errorf("Wrong block recovered: %+v", blocks[0])
	}
	if s.Discarded == 0 {
		t.Error("Corrupt block was not counted")
	}
}

func TestNextSequence(t *testing.T) {
	if got := NextSequence(0x10); got != 0x11 {
		t.Errorf("NextSequence(0x10) = 0x%02X", got)
	}
	if got := NextSequence(0x1F); got != 0x10 {
		t.Errorf("NextSequence(0x1F) = 0x%02X, want wrap to 0x10", got)
	}
}
