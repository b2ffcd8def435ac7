package core

import (
	"errors"
	"sort"
)

// Patch table geometry expected by the boot ROM
const (
	PatchTableWords = 0x12   // Table size in words, fixed
	PatchSentinel   = 0xCECE // Word value the ROM reads as "no patch"
)

var (
	ErrDuplicateCode = errors.New("command code already patched")
	ErrSlotRange     = errors.New("patch entry outside the table")
	ErrSlotOverlap   = errors.New("patch entry overlaps another entry")
	ErrNilHandler    = errors.New("patch entry without handler")
	ErrTableSealed   = errors.New("patch table is sealed")
)

// CommandHandler is invoked by the ROM with no arguments. It writes exactly
// one mailbox reply and returns a status word the ROM ignores.
type CommandHandler func() uint16

// PatchEntry is one live (entry point, command code) pair. It occupies the
// two table words starting at Slot.
type PatchEntry struct {
	Slot    uint8
	Code    uint8
	Name    string // Exported symbol of the entry point
	Handler CommandHandler
}

// PatchTable is the fixed-size table the ROM consults for command codes
type PatchTable struct {
	entries []PatchEntry
	byCode  map[uint8]int
	sealed  bool
}

// NewPatchTable creates an empty table (every word a sentinel)
func NewPatchTable() *PatchTable {
	return &PatchTable{
		byCode: make(map[uint8]int),
	}
}

// Place installs an entry at a word offset
func (t *PatchTable) Place(slot, code uint8, name string, handler CommandHandler) error {
	if t.sealed {
		return ErrTableSealed
	}
	entry := PatchEntry{Slot: slot, Code: code, Name: name, Handler: handler}
	if err := t.check(entry, t.entries); err != nil {
		return err
	}

	t.byCode[code] = len(t.entries)
	t.entries = append(t.entries, entry)
	return nil
}

// check validates one entry against the others
func (t *PatchTable) check(entry PatchEntry, others []PatchEntry) error {
	if entry.Handler == nil {
		return ErrNilHandler
	}
	if int(entry.Slot)+2 > PatchTableWords {
		return ErrSlotRange
	}
	for _, other := range others {
		if other.Code == entry.Code {
			return ErrDuplicateCode
		}
		if entry.Slot+1 >= other.Slot && entry.Slot <= other.Slot+1 {
			return ErrSlotOverlap
		}
	}
	return nil
}

// Validate re-checks every entry against every other one
func (t *PatchTable) Validate() error {
	for i, entry := range t.entries {
		if err := t.check(entry, t.entries[:i]); err != nil {
			return err
		}
	}
	return nil
}

// Seal validates the table and forbids further changes
func (t *PatchTable) Seal() error {
	if err := t.Validate(); err != nil {
		return err
	}
	t.sealed = true
	return nil
}

// Lookup finds the entry for a command code
func (t *PatchTable) Lookup(code uint8) (PatchEntry, bool) {
	idx, ok := t.byCode[code]
	if !ok {
		return PatchEntry{}, false
	}
	return t.entries[idx], true
}

// Dispatch invokes the handler patched for code, the way the ROM does.
// Unknown codes invoke nothing.
func (t *PatchTable) Dispatch(code uint8) (uint16, bool) {
	entry, ok := t.Lookup(code)
	if !ok {
		return 0, false
	}
	traceCode = code
	RecordTrace(TraceDispatch, uint16(entry.Slot))
	return entry.Handler(), true
}

// Count returns the number of live entries
func (t *PatchTable) Count() int {
	return len(t.entries)
}

// Entries returns the live entries ordered by slot
func (t *PatchTable) Entries() []PatchEntry {
	entries := make([]PatchEntry, len(t.entries))
	copy(entries, t.entries)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Slot < entries[j].Slot })
	return entries
}

// AddressResolver maps an entry to the address of its entry point
type AddressResolver func(entry PatchEntry) (uint16, error)

// Words renders the ROM image of the table
func (t *PatchTable) Words(resolve AddressResolver) ([PatchTableWords]uint16, error) {
	var words [PatchTableWords]uint16
	for i := range words {
		words[i] = PatchSentinel
	}
	for _, entry := range t.entries {
		addr, err := resolve(entry)
		if err != nil {
			return words, err
		}
		words[entry.Slot] = addr
		words[entry.Slot+1] = uint16(entry.Code)
	}
	return words, nil
}

var globalTable = NewPatchTable()

// DispatchCommand is a convenience function using the global table
func DispatchCommand(code uint8) (uint16, bool) {
	return globalTable.Dispatch(code)
}
