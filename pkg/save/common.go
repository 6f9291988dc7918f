package save

import (
	"github.com/ssargent/ersave/pkg/codec"
)

// Common section field offsets, relative to its data start.
const (
	commonVersion        = 0x0
	commonSteamID        = 0x4
	ProfileSummaryOffset = 0x1954
	ProfileEntrySize     = 0x24C

	profileName    = 0x00
	profileLevel   = 0x22
	profileSeconds = 0x26
)

// Profile is the menu summary the game shows for a slot.
type Profile struct {
	Name          string
	Level         uint32
	SecondsPlayed int32
}

// CommonSection is the data shared by every slot.
type CommonSection struct {
	Version  uint32
	SteamID  uint64
	Active   [SlotCount]bool
	Profiles [SlotCount]Profile

	data []byte
	base int
}

func decodeCommon(data []byte, base int) (*CommonSection, error) {
	cs := &CommonSection{data: data, base: base}
	fail := func(structure string, c *codec.Cursor, err error) error {
		return &DecodeError{Slot: CommonSlot, Structure: structure, Offset: base + c.Pos(), Err: err}
	}

	c := codec.NewCursorAt(data, commonVersion)
	var err error
	if cs.Version, err = c.U32(); err != nil {
		return nil, fail("Version", c, err)
	}
	if cs.SteamID, err = c.U64(); err != nil {
		return nil, fail("SteamID", c, err)
	}

	if err := c.Seek(ProfileSummaryOffset); err != nil {
		return nil, fail("ProfileSummary", c, err)
	}
	for i := range cs.Active {
		b, err := c.U8()
		if err != nil {
			return nil, fail("ProfileSummary", c, err)
		}
		cs.Active[i] = b == 1
	}

	for i := range cs.Profiles {
		entry := ProfileSummaryOffset + SlotCount + i*ProfileEntrySize + profileName
		p := &cs.Profiles[i]
		if p.Name, err = c.UTF16(NameCapacity); err != nil {
			return nil, fail("ProfileData", c, err)
		}
		if err := c.Seek(entry + profileLevel); err != nil {
			return nil, fail("ProfileData", c, err)
		}
		if p.Level, err = c.U32(); err != nil {
			return nil, fail("ProfileData", c, err)
		}
		if err := c.Seek(entry + profileSeconds); err != nil {
			return nil, fail("ProfileData", c, err)
		}
		if p.SecondsPlayed, err = c.I32(); err != nil {
			return nil, fail("ProfileData", c, err)
		}
		if err := c.Seek(entry + ProfileEntrySize); err != nil {
			return nil, fail("ProfileData", c, err)
		}
	}
	return cs, nil
}

// SecondsPlayed returns the playtime counter of slot i
func (cs *CommonSection) SecondsPlayed(i int) int32 {
	if i < 0 || i >= SlotCount {
		return 0
	}
	return cs.Profiles[i].SecondsPlayed
}

// encode writes the interpreted scalar fields back. Profile entries are read-only.
func (cs *CommonSection) encode() error {
	c := codec.NewCursorAt(cs.data, commonVersion)
	if err := c.PutU32(cs.Version); err != nil {
		return err
	}
	return c.PutU64(cs.SteamID)
}
