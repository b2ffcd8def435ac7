package protocol

// CRC16 calculates the CRC16 checksum used by the serial link framing.
// This is the reflected CCITT polynomial seeded with 0xFFFF (MCRF4XX), the
// same register arithmetic as the tag's CRC16 unit fed through CRCDI.
func CRC16(data []byte) uint16 {
	crc := uint16(0xFFFF)
	for _, b := range data {
		crc = CRC16Update(crc, b)
	}
	return crc
}

// CRC16Update folds one byte into a running CRC16
func CRC16Update(crc uint16, b byte) uint16 {
	b = b ^ uint8(crc&0xFF)
	b = b ^ (b << 4)
	b16 := uint16(b)
	return (b16<<8 | crc>>8) ^ (b16 >> 4) ^ (b16 << 3)
}

// CRC16Words accumulates 16-bit words the way the CRC16 unit does when each
// word is written to its data-in register: low byte first.
func CRC16Words(words []uint16) uint16 {
	var unit CRC16Unit
	unit.Seed(0xFFFF)
	for _, w := range words {
		unit.Feed(w)
	}
	return unit.Result()
}

// ISO15693CRC returns the frame check sequence appended to ISO15693 frames
// (transmitted low byte first).
func ISO15693CRC(data []byte) uint16 {
	return ^CRC16(data)
}

// CRC16Unit is a software model of the word-wide hardware CRC unit.
type CRC16Unit struct {
	crc uint16
}

// Seed loads the initial value (CRCINIRES write)
func (u *CRC16Unit) Seed(v uint16) {
	u.crc = v
}

// Feed accumulates one word (CRCDI write)
func (u *CRC16Unit) Feed(w uint16) {
	u.crc = CRC16Update(u.crc, uint8(w))
	u.crc = CRC16Update(u.crc, uint8(w>>8))
}

// Result returns the running value (CRCINIRES read)
func (u *CRC16Unit) Result() uint16 {
	return u.crc
}
