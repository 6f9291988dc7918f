package save

import (
	"github.com/ssargent/ersave/pkg/codec"
)

// PlayerGameData sizes and field offsets.
const (
	PlayerGameDataSize = 0x1B0
	NameCapacity       = 16

	pgdHP          = 0x08
	pgdFP          = 0x14
	pgdSP          = 0x24
	pgdAttributes  = 0x34
	pgdLevel       = 0x60
	pgdRunes       = 0x64
	pgdRunesMemory = 0x68
	pgdName        = 0x94
	pgdGender      = 0xB6
	pgdArchetype   = 0xB7
	pgdVoice       = 0xBA
	pgdGift        = 0xBB
	pgdTalismans   = 0xBE
	pgdSpiritLevel = 0xBF
	pgdCrimson     = 0xF9
	pgdCerulean    = 0xFA
)

// Gauge is a current/max/base triple (hp, fp or stamina).
type Gauge struct {
	Current uint32
	Max     uint32
	Base    uint32
}

// Attributes are the eight levelable stats.
type Attributes struct {
	Vigor        uint32
	Mind         uint32
	Endurance    uint32
	Strength     uint32
	Dexterity    uint32
	Intelligence uint32
	Faith        uint32
	Arcane       uint32
}

// Sum adds all attributes
func (a Attributes) Sum() uint32 {
	return a.Vigor + a.Mind + a.Endurance + a.Strength + a.Dexterity + a.Intelligence + a.Faith + a.Arcane
}

// PlayerGameData is the character sheet. Only the fields below are
// interpreted; the remaining bytes of the 0x1B0 block are left untouched.
type PlayerGameData struct {
	HP           Gauge
	FP           Gauge
	Stamina      Gauge
	Attributes   Attributes
	Level        uint32
	Runes        uint32
	RunesMemory  uint32
	Name         string
	Gender       uint8
	Archetype    uint8
	VoiceType    uint8
	Gift         uint8
	Talismans    uint8
	SpiritLevel  uint8
	Crimson      uint8 // max crimson flasks
	Cerulean     uint8 // max cerulean flasks

	origName string
	rawName  [NameCapacity * 2]byte
}

func readGauge(c *codec.Cursor) (Gauge, error) {
	var g Gauge
	var err error
	if g.Current, err = c.U32(); err != nil {
		return g, err
	}
	if g.Max, err = c.U32(); err != nil {
		return g, err
	}
	g.Base, err = c.U32()
	return g, err
}

func writeGauge(c *codec.Cursor, g Gauge) error {
	for _, v := range []uint32{g.Current, g.Max, g.Base} {
		if err := c.PutU32(v); err != nil {
			return err
		}
	}
	return nil
}

// decodePlayerGameData reads the block starting at base.
func decodePlayerGameData(buf []byte, base int) (PlayerGameData, error) {
	var p PlayerGameData
	var err error
	if base+PlayerGameDataSize > len(buf) {
		return p, &codec.BoundsError{Op: "read", Offset: base, Need: PlayerGameDataSize, Len: len(buf)}
	}

	c := codec.NewCursorAt(buf, base+pgdHP)
	if p.HP, err = readGauge(c); err != nil {
		return p, err
	}
	if err = c.Seek(base + pgdFP); err != nil {
		return p, err
	}
	if p.FP, err = readGauge(c); err != nil {
		return p, err
	}
	if err = c.Seek(base + pgdSP); err != nil {
		return p, err
	}
	if p.Stamina, err = readGauge(c); err != nil {
		return p, err
	}

	if err = c.Seek(base + pgdAttributes); err != nil {
		return p, err
	}
	attrs := []*uint32{
		&p.Attributes.Vigor, &p.Attributes.Mind, &p.Attributes.Endurance, &p.Attributes.Strength,
		&p.Attributes.Dexterity, &p.Attributes.Intelligence, &p.Attributes.Faith, &p.Attributes.Arcane,
	}
	for _, a := range attrs {
		if *a, err = c.U32(); err != nil {
			return p, err
		}
	}

	if err = c.Seek(base + pgdLevel); err != nil {
		return p, err
	}
	for _, v := range []*uint32{&p.Level, &p.Runes, &p.RunesMemory} {
		if *v, err = c.U32(); err != nil {
			return p, err
		}
	}

	copy(p.rawName[:], buf[base+pgdName:base+pgdName+NameCapacity*2])
	if p.Name, err = codec.DecodeUTF16(p.rawName[:]); err != nil {
		return p, err
	}
	p.origName = p.Name

	bytesAt := map[int]*uint8{
		pgdGender:      &p.Gender,
		pgdArchetype:   &p.Archetype,
		pgdVoice:       &p.VoiceType,
		pgdGift:        &p.Gift,
		pgdTalismans:   &p.Talismans,
		pgdSpiritLevel: &p.SpiritLevel,
		pgdCrimson:     &p.Crimson,
		pgdCerulean:    &p.Cerulean,
	}
	for off, dst := range bytesAt {
		*dst = buf[base+off]
	}
	return p, nil
}

// encode writes the interpreted fields back at base. The name field is
// rewritten only when it changed, so unusual padding survives a round trip.
func (p *PlayerGameData) encode(buf []byte, base int) error {
	if base+PlayerGameDataSize > len(buf) {
		return &codec.BoundsError{Op: "write", Offset: base, Need: PlayerGameDataSize, Len: len(buf)}
	}

	c := codec.NewCursorAt(buf, base+pgdHP)
	if err := writeGauge(c, p.HP); err != nil {
		return err
	}
	if err := c.Seek(base + pgdFP); err != nil {
		return err
	}
	if err := writeGauge(c, p.FP); err != nil {
		return err
	}
	if err := c.Seek(base + pgdSP); err != nil {
		return err
	}
	if err := writeGauge(c, p.Stamina); err != nil {
		return err
	}

	if err := c.Seek(base + pgdAttributes); err != nil {
		return err
	}
	a := p.Attributes
	for _, v := range []uint32{a.Vigor, a.Mind, a.Endurance, a.Strength, a.Dexterity, a.Intelligence, a.Faith, a.Arcane} {
		if err := c.PutU32(v); err != nil {
			return err
		}
	}

	if err := c.Seek(base + pgdLevel); err != nil {
		return err
	}
	for _, v := range []uint32{p.Level, p.Runes, p.RunesMemory} {
		if err := c.PutU32(v); err != nil {
			return err
		}
	}

	if err := c.Seek(base + pgdName); err != nil {
		return err
	}
	if p.Name == p.origName {
		if err := c.PutBytes(p.rawName[:]); err != nil {
			return err
		}
	} else if err := c.PutUTF16(p.Name, NameCapacity); err != nil {
		return err
	}

	buf[base+pgdGender] = p.Gender
	buf[base+pgdArchetype] = p.Archetype
	buf[base+pgdVoice] = p.VoiceType
	buf[base+pgdGift] = p.Gift
	buf[base+pgdTalismans] = p.Talismans
	buf[base+pgdSpiritLevel] = p.SpiritLevel
	buf[base+pgdCrimson] = p.Crimson
	buf[base+pgdCerulean] = p.Cerulean
	return nil
}
