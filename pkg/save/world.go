package save

import (
	"fmt"

	"github.com/ssargent/ersave/pkg/codec"
	"github.com/ssargent/ersave/pkg/locator"
)

// PlayerCoordinatesSize is the encoded size of the player position block.
const PlayerCoordinatesSize = 0x3D

// PlayerCoordinates is the player's saved position.
type PlayerCoordinates struct {
	Position      codec.Vec3
	MapID         MapID
	Angle         codec.Vec4
	Unk           uint8
	SavedPosition codec.Vec3
	SavedAngle    codec.Vec4
}

func decodePlayerCoordinates(c *codec.Cursor) (PlayerCoordinates, error) {
	var p PlayerCoordinates
	var err error
	if p.Position, err = c.Vec3(); err != nil {
		return p, err
	}
	raw, err := c.Bytes(4)
	if err != nil {
		return p, err
	}
	copy(p.MapID[:], raw)
	if p.Angle, err = c.Vec4(); err != nil {
		return p, err
	}
	if p.Unk, err = c.U8(); err != nil {
		return p, err
	}
	if p.SavedPosition, err = c.Vec3(); err != nil {
		return p, err
	}
	p.SavedAngle, err = c.Vec4()
	return p, err
}

func (p *PlayerCoordinates) encode(c *codec.Cursor) error {
	if err := c.PutVec3(p.Position); err != nil {
		return err
	}
	if err := c.PutBytes(p.MapID[:]); err != nil {
		return err
	}
	if err := c.PutVec4(p.Angle); err != nil {
		return err
	}
	if err := c.PutU8(p.Unk); err != nil {
		return err
	}
	if err := c.PutVec3(p.SavedPosition); err != nil {
		return err
	}
	return c.PutVec4(p.SavedAngle)
}

// World-tail field offsets, relative to the tail start.
const (
	TailWeatherOffset     = 0x00
	TailTimeOffset        = 0x0C
	TailBaseVersionOffset = 0x18
	TailSteamIDOffset     = 0x28
)

// Weather is the area weather state.
type Weather struct {
	AreaID uint16
	Type   uint16
	Timer  uint32
	Unk    uint32
}

// AreaTime is the in-area clock.
type AreaTime struct {
	Hours   uint32
	Minutes uint32
	Seconds uint32
}

// IsZero reports 00:00:00
func (t AreaTime) IsZero() bool {
	return t.Hours == 0 && t.Minutes == 0 && t.Seconds == 0
}

func (t AreaTime) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hours, t.Minutes, t.Seconds)
}

// AreaTimeFromSeconds splits a playtime counter into hours, minutes and seconds.
func AreaTimeFromSeconds(total uint32) AreaTime {
	return AreaTime{Hours: total / 3600, Minutes: total % 3600 / 60, Seconds: total % 60}
}

// BaseVersion holds the game build that last wrote the slot, stored twice.
type BaseVersion struct {
	Copy     int32
	Version  int32
	IsLatest uint32
	Unk      uint32
}

// IsZero reports an all-zero version triple
func (b BaseVersion) IsZero() bool {
	return b.Copy == 0 && b.Version == 0 && b.IsLatest == 0
}

// WorldTail is the block after the network manager. Its offset is found by
// the locator, so it carries its own position.
type WorldTail struct {
	Offset      int // relative to slot data start
	Weather     Weather
	Time        AreaTime
	BaseVersion BaseVersion
	SteamID     uint64
	Tier        locator.Tier
}

func decodeWorldTail(c *codec.Cursor) (WorldTail, error) {
	t := WorldTail{Offset: c.Pos()}
	var err error
	if t.Weather.AreaID, err = c.U16(); err != nil {
		return t, err
	}
	if t.Weather.Type, err = c.U16(); err != nil {
		return t, err
	}
	if t.Weather.Timer, err = c.U32(); err != nil {
		return t, err
	}
	if t.Weather.Unk, err = c.U32(); err != nil {
		return t, err
	}
	for _, v := range []*uint32{&t.Time.Hours, &t.Time.Minutes, &t.Time.Seconds} {
		if *v, err = c.U32(); err != nil {
			return t, err
		}
	}
	if t.BaseVersion.Copy, err = c.I32(); err != nil {
		return t, err
	}
	if t.BaseVersion.Version, err = c.I32(); err != nil {
		return t, err
	}
	if t.BaseVersion.IsLatest, err = c.U32(); err != nil {
		return t, err
	}
	if t.BaseVersion.Unk, err = c.U32(); err != nil {
		return t, err
	}
	t.SteamID, err = c.U64()
	return t, err
}

func (t *WorldTail) encode(c *codec.Cursor) error {
	if err := c.Seek(t.Offset); err != nil {
		return err
	}
	if err := c.PutU16(t.Weather.AreaID); err != nil {
		return err
	}
	if err := c.PutU16(t.Weather.Type); err != nil {
		return err
	}
	for _, v := range []uint32{t.Weather.Timer, t.Weather.Unk, t.Time.Hours, t.Time.Minutes, t.Time.Seconds} {
		if err := c.PutU32(v); err != nil {
			return err
		}
	}
	if err := c.PutI32(t.BaseVersion.Copy); err != nil {
		return err
	}
	if err := c.PutI32(t.BaseVersion.Version); err != nil {
		return err
	}
	if err := c.PutU32(t.BaseVersion.IsLatest); err != nil {
		return err
	}
	if err := c.PutU32(t.BaseVersion.Unk); err != nil {
		return err
	}
	return c.PutU64(t.SteamID)
}
