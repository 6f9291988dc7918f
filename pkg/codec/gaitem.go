package codec

import (
	"fmt"

	"github.com/pkg/errors"
)

// Handle type nibbles (the top four bits of a gaitem handle).
const (
	HandleTypeMask      uint32 = 0xF0000000
	HandleTypeWeapon    uint32 = 0x80000000
	HandleTypeArmor     uint32 = 0x90000000
	HandleTypeAccessory uint32 = 0xA0000000
	HandleTypeItem      uint32 = 0xB0000000
	HandleTypeAoW       uint32 = 0xC0000000
)

// Item-handle table lengths per save version.
const (
	LegacyHandleCount  = 0x13FE // version <= 81
	CurrentHandleCount = 0x1400
	LegacyVersionLimit = 81
)

// HandleKind is the discriminant that decides an entry's encoded size.
type HandleKind uint8

const (
	// KindEmpty is a zero handle: 8 bytes.
	KindEmpty HandleKind = iota
	// KindCompact is an ash-of-war handle: 8 bytes.
	KindCompact
	// KindExtended is armor, accessory or goods: 16 bytes.
	KindExtended
	// KindWeapon carries an ash-of-war reference: 21 bytes.
	KindWeapon
)

// KindOf classifies a handle.
func KindOf(handle uint32) HandleKind {
	switch {
	case handle == 0:
		return KindEmpty
	case handle&HandleTypeMask == HandleTypeAoW:
		return KindCompact
	case handle&HandleTypeMask == HandleTypeWeapon:
		return KindWeapon
	default:
		return KindExtended
	}
}

// Size returns the encoded size of an entry of this kind
func (k HandleKind) Size() int {
	switch k {
	case KindExtended:
		return 16
	case KindWeapon:
		return 21
	default:
		return 8
	}
}

func (k HandleKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindCompact:
		return "compact"
	case KindExtended:
		return "extended"
	case KindWeapon:
		return "weapon"
	}
	return fmt.Sprintf("HandleKind(%d)", uint8(k))
}

// ItemHandle is one gaitem entry. Fields beyond ItemID are only encoded when
// the handle's kind carries them.
type ItemHandle struct {
	Handle    uint32
	ItemID    uint32
	Unk2      int32
	Unk3      int32
	AoWHandle uint32
	Unk5      uint8
}

// Kind returns the entry's discriminant
func (h ItemHandle) Kind() HandleKind { return KindOf(h.Handle) }

// Size returns the encoded size of the entry
func (h ItemHandle) Size() int { return h.Kind().Size() }

// ItemHandleTable is the variable-length gaitem map of a character slot.
type ItemHandleTable struct {
	Entries []ItemHandle
}

// HandleCount returns the number of table entries for a save version
func HandleCount(version uint32) int {
	if version <= LegacyVersionLimit {
		return LegacyHandleCount
	}
	return CurrentHandleCount
}

// DecodeItemHandleTable reads HandleCount(version) entries starting at the cursor.
func DecodeItemHandleTable(c *Cursor, version uint32) (*ItemHandleTable, error) {
	count := HandleCount(version)
	t := &ItemHandleTable{Entries: make([]ItemHandle, count)}
	for i := range t.Entries {
		e, err := decodeItemHandle(c)
		if err != nil {
			return nil, errors.Wrapf(err, "gaitem entry %d", i)
		}
		t.Entries[i] = e
	}
	return t, nil
}

func decodeItemHandle(c *Cursor) (ItemHandle, error) {
	var e ItemHandle
	var err error
	if e.Handle, err = c.U32(); err != nil {
		return e, err
	}
	if e.ItemID, err = c.U32(); err != nil {
		return e, err
	}
	kind := e.Kind()
	if kind == KindExtended || kind == KindWeapon {
		if e.Unk2, err = c.I32(); err != nil {
			return e, err
		}
		if e.Unk3, err = c.I32(); err != nil {
			return e, err
		}
	}
	if kind == KindWeapon {
		if e.AoWHandle, err = c.U32(); err != nil {
			return e, err
		}
		if e.Unk5, err = c.U8(); err != nil {
			return e, err
		}
	}
	return e, nil
}

// Encode writes every entry at the cursor using each entry's own layout
func (t *ItemHandleTable) Encode(c *Cursor) error {
	for i, e := range t.Entries {
		if err := encodeItemHandle(c, e); err != nil {
			return errors.Wrapf(err, "gaitem entry %d", i)
		}
	}
	return nil
}

func encodeItemHandle(c *Cursor, e ItemHandle) error {
	if err := c.PutU32(e.Handle); err != nil {
		return err
	}
	if err := c.PutU32(e.ItemID); err != nil {
		return err
	}
	kind := e.Kind()
	if kind == KindExtended || kind == KindWeapon {
		if err := c.PutI32(e.Unk2); err != nil {
			return err
		}
		if err := c.PutI32(e.Unk3); err != nil {
			return err
		}
	}
	if kind == KindWeapon {
		if err := c.PutU32(e.AoWHandle); err != nil {
			return err
		}
		if err := c.PutU8(e.Unk5); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the encoded byte length of the table
func (t *ItemHandleTable) Size() int {
	n := 0
	for _, e := range t.Entries {
		n += e.Size()
	}
	return n
}

// Lookup returns the entry holding handle, if any
func (t *ItemHandleTable) Lookup(handle uint32) (ItemHandle, bool) {
	if handle == 0 {
		return ItemHandle{}, false
	}
	for _, e := range t.Entries {
		if e.Handle == handle {
			return e, true
		}
	}
	return ItemHandle{}, false
}

// Occupied counts non-empty entries
func (t *ItemHandleTable) Occupied() int {
	n := 0
	for _, e := range t.Entries {
		if e.Handle != 0 {
			n++
		}
	}
	return n
}
