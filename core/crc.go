package core

// CRCSeed is the CRC unit's initial value for a region checksum
const CRCSeed = 0xFFFF

// CRCRegion is a block of the firmware image covered by a checksum word. The
// checksum word sits immediately before the block.
type CRCRegion struct {
	Start uint16 // Byte address of the first covered word
	Words uint16 // Number of covered words
}

// ChecksumAddr returns the byte address of the region's checksum word
func (r CRCRegion) ChecksumAddr() uint16 {
	return r.Start - 2
}

// DefaultCRCRegions returns the two configuration blocks the boot ROM checks
// before honouring the patch table.
func DefaultCRCRegions() []CRCRegion {
	return []CRCRegion{
		{Start: 0xF85A, Words: 0x0B},
		{Start: 0xF872, Words: 0x93},
	}
}

// CalculateCRC runs a region through the CRC unit
func CalculateCRC(d CRCDriver, r CRCRegion) uint16 {
	d.Seed(CRCSeed)
	for i := uint16(0); i < r.Words; i++ {
		d.Feed(d.ReadWord(r.Start + 2*i))
	}
	return d.Result()
}

// RepairCRC recomputes and stores the checksum of every region. Validation
// is suspended while the checksum words are rewritten. Running it again
// without changes to the image writes the same values.
func RepairCRC(regions ...CRCRegion) {
	d := MustCRC()

	d.SetValidation(false)
	for _, r := range regions {
		sum := CalculateCRC(d, r)
		d.WriteWord(r.ChecksumAddr(), sum)
		RecordTrace(TraceCRCRepair, sum)
	}
	d.SetValidation(true)
}
