// Package savetest builds synthetic save containers for tests.
package savetest

import (
	"crypto/md5"

	"github.com/ssargent/ersave/pkg/codec"
	"github.com/ssargent/ersave/pkg/save"
)

// AreaFill is written into the inline-sized areas. As float32 it is tiny, so
// it never looks like a plausible coordinate.
const AreaFill = 0xAB

// Slot describes one character to write.
type Slot struct {
	Version       uint32
	Name          string
	Level         uint32
	MapID         save.MapID
	Items         []codec.ItemHandle
	MountHP       uint32
	MountState    save.MountState
	Position      codec.Vec3
	PositionMap   save.MapID
	Regions       []uint32
	AreaSizes     [5]int32
	Weather       save.Weather
	Time          save.AreaTime
	BaseVersion   save.BaseVersion
	SteamID       uint64
	SecondsPlayed int32

	// Corrupt writes a negative inline area size so the slot fails to decode.
	Corrupt bool
}

// Healthy returns a character with a consistent world tail standing in Limgrave.
func Healthy(name string) *Slot {
	return &Slot{
		Version:     160,
		Name:        name,
		Level:       42,
		MapID:       save.MapLimgrave,
		Items:       DefaultItems(),
		MountHP:     1200,
		MountState:  save.MountActive,
		Position:    codec.Vec3{X: -100.25, Y: 50.5, Z: 200.75},
		PositionMap: save.MapLimgrave,
		Regions:     []uint32{6100000, 6100001, 6100002},
		AreaSizes:   [5]int32{0x100, 0x80, 0x40, 0x40, 0x20},
		Weather:     save.Weather{AreaID: 60, Type: 2, Timer: 1200},
		Time:        save.AreaTime{Hours: 3, Minutes: 25, Seconds: 9},
		BaseVersion: save.BaseVersion{Copy: 150, Version: 150, IsLatest: 1},
		SteamID:     76561198000000001,

		SecondsPlayed: 12309,
	}
}

// DefaultItems covers every item-handle kind.
func DefaultItems() []codec.ItemHandle {
	return []codec.ItemHandle{
		{Handle: 0x80800001, ItemID: 0x000F4240, Unk2: -1, Unk3: 0, AoWHandle: 0xC0000002, Unk5: 0},
		{Handle: 0xC0000002, ItemID: 0x80002710},
		{Handle: 0x90000003, ItemID: 0x10000064, Unk2: 0, Unk3: 0},
		{Handle: 0xA0000004, ItemID: 0x20000FA0, Unk2: 1, Unk3: 2},
		{Handle: 0xB0000005, ItemID: 0x40000BB8, Unk2: 0, Unk3: 0},
	}
}

// Positions are slot-relative offsets of the structures written by WriteSlot.
type Positions struct {
	Items       int
	Player      int
	Mount       int
	Coordinates int
	Tail        int
}

// File describes a whole container.
type File struct {
	Console        bool
	Version        uint32
	SteamID        uint64
	Slots          [save.SlotCount]*Slot
	RegulationSize int
}

// Fixture is a built container.
type Fixture struct {
	Bytes     []byte
	Layout    save.Layout
	Positions [save.SlotCount]Positions
}

// SlotBase returns the absolute offset of slot i's data
func (f *Fixture) SlotBase(i int) int { return f.Layout.SlotDataOffset(i) }

// Build writes the container and, on PC, valid digests.
func Build(f File) *Fixture {
	layout := save.PCLayout
	magic := save.MagicBND4
	if f.Console {
		layout = save.ConsoleLayout
		magic = save.MagicConsole
	}
	if f.RegulationSize == 0 {
		f.RegulationSize = 0x100
	}

	fx := &Fixture{Bytes: make([]byte, layout.MinLength()+f.RegulationSize), Layout: layout}
	buf := fx.Bytes
	copy(buf, magic[:])
	for i := 4; i < layout.HeaderSize; i++ {
		buf[i] = byte(i)
	}
	for i := layout.RegulationOffset(); i < len(buf); i++ {
		buf[i] = byte(i * 7)
	}

	for i, s := range f.Slots {
		if s == nil {
			continue
		}
		start := layout.SlotDataOffset(i)
		fx.Positions[i] = WriteSlot(buf[start:start+save.SlotDataSize], s)
	}

	writeCommon(buf[layout.CommonDataOffset():layout.RegulationOffset()], f)

	if layout.HasChecksums() {
		for i := 0; i < save.SlotCount; i++ {
			start := layout.SlotDataOffset(i)
			sum := md5.Sum(buf[start : start+save.SlotDataSize])
			copy(buf[layout.SlotOffset(i):], sum[:])
		}
		sum := md5.Sum(buf[layout.CommonDataOffset():layout.RegulationOffset()])
		copy(buf[layout.CommonOffset():], sum[:])
	}
	return fx
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// WriteSlot lays out one character in data and returns where the
// interpreted structures landed.
func WriteSlot(data []byte, s *Slot) Positions {
	var pos Positions
	c := codec.NewCursor(data)

	must(c.PutU32(s.Version))
	must(c.PutBytes(s.MapID[:]))
	must(c.Skip(24))

	pos.Items = c.Pos()
	table := &codec.ItemHandleTable{Entries: make([]codec.ItemHandle, codec.HandleCount(s.Version))}
	copy(table.Entries, s.Items)
	must(table.Encode(c))

	pos.Player = c.Pos()
	writePlayer(data, pos.Player, s)
	must(c.Skip(save.PlayerGameDataSize))

	must(c.Skip(save.SpEffectsSize + save.EquipIndexSize + save.ActiveWeaponSlotsSize + save.EquipItemIDsSize + save.EquipGaitemsSize))
	writeInventory(c, save.HeldCommonCapacity, save.HeldKeyCapacity)
	must(c.Skip(save.EquippedSpellsSize + save.EquippedItemsSize + save.EquippedGesturesSize))
	must(c.PutU32(0))
	must(c.Skip(save.ProjectilesSize - 4))
	must(c.Skip(save.EquippedArmamentsSize + save.EquippedPhysicsSize + save.FaceDataSize))
	writeInventory(c, save.StorageCommonCapacity, save.StorageKeyCapacity)
	must(c.Skip(save.GesturesSize))

	must(c.PutU32(uint32(len(s.Regions))))
	for _, r := range s.Regions {
		must(c.PutU32(r))
	}

	pos.Mount = c.Pos()
	must(c.PutVec3(codec.Vec3{X: -90, Y: 48, Z: 210}))
	must(c.PutBytes(s.PositionMap[:]))
	must(c.PutVec4(codec.Vec4{Y: 0.5, W: 0.5}))
	must(c.PutU32(s.MountHP))
	must(c.PutU32(uint32(s.MountState)))

	must(c.PutU8(1))
	must(c.Skip(save.BloodStainSize + 8 + save.MenuProfileSize + save.TrophyEquipSize))
	must(c.PutU32(0))
	must(c.Skip(save.GaitemGameDataCount*save.GaitemGameDataEntry + save.TutorialDataSize + save.GameManSize))
	must(c.Skip(save.EventFlagsSize + 1))

	for i, size := range s.AreaSizes {
		if s.Corrupt && i == 2 {
			must(c.PutI32(-8))
			continue
		}
		must(c.PutI32(size))
		for j := int32(0); j < size; j++ {
			must(c.PutU8(AreaFill))
		}
	}

	pos.Coordinates = c.Pos()
	must(c.PutVec3(s.Position))
	must(c.PutBytes(s.PositionMap[:]))
	must(c.PutVec4(codec.Vec4{Y: 0.7071, W: 0.7071}))
	must(c.PutU8(0))
	must(c.PutVec3(s.Position))
	must(c.PutVec4(codec.Vec4{Y: 0.7071, W: 0.7071}))

	must(c.Skip(2))
	must(c.PutU32(1042))
	must(c.PutU32(0))
	if s.Version >= save.TempSpawnVersion {
		must(c.PutU32(0))
	}
	if s.Version >= save.GatedByteVersion {
		must(c.PutU8(0))
	}
	must(c.Skip(save.NetManSize))

	pos.Tail = c.Pos()
	must(c.PutU16(s.Weather.AreaID))
	must(c.PutU16(s.Weather.Type))
	must(c.PutU32(s.Weather.Timer))
	must(c.PutU32(s.Weather.Unk))
	must(c.PutU32(s.Time.Hours))
	must(c.PutU32(s.Time.Minutes))
	must(c.PutU32(s.Time.Seconds))
	must(c.PutI32(s.BaseVersion.Copy))
	must(c.PutI32(s.BaseVersion.Version))
	must(c.PutU32(s.BaseVersion.IsLatest))
	must(c.PutU32(s.BaseVersion.Unk))
	must(c.PutU64(s.SteamID))
	return pos
}

func writePlayer(data []byte, base int, s *Slot) {
	c := codec.NewCursorAt(data, base+0x08)
	for _, v := range []uint32{560, 560, 560, 90, 90, 90} {
		must(c.PutU32(v))
	}
	must(c.Seek(base + 0x24))
	for _, v := range []uint32{110, 110, 110} {
		must(c.PutU32(v))
	}
	must(c.Seek(base + 0x34))
	for _, v := range []uint32{14, 9, 12, 16, 10, 9, 7, 9} {
		must(c.PutU32(v))
	}
	must(c.Seek(base + 0x60))
	must(c.PutU32(s.Level))
	must(c.PutU32(5000))
	must(c.PutU32(25000))
	must(c.Seek(base + 0x94))
	must(c.PutUTF16(s.Name, save.NameCapacity))
	data[base+0xB6] = 1
	data[base+0xB7] = 3
	data[base+0xF9] = 4
	data[base+0xFA] = 2
}

func writeInventory(c *codec.Cursor, common, key int) {
	must(c.PutU32(0))
	must(c.Skip(common * save.InventoryItemSize))
	must(c.PutU32(0))
	must(c.Skip(key * save.InventoryItemSize))
	must(c.PutU32(0))
	must(c.PutU32(0))
}

func writeCommon(data []byte, f File) {
	c := codec.NewCursor(data)
	must(c.PutU32(f.Version))
	must(c.PutU64(f.SteamID))

	must(c.Seek(save.ProfileSummaryOffset))
	for _, s := range f.Slots {
		var active uint8
		if s != nil && s.Version != 0 {
			active = 1
		}
		must(c.PutU8(active))
	}
	for i, s := range f.Slots {
		entry := save.ProfileSummaryOffset + save.SlotCount + i*save.ProfileEntrySize
		if s == nil {
			continue
		}
		must(c.Seek(entry))
		must(c.PutUTF16(s.Name, save.NameCapacity))
		must(c.Seek(entry + 0x22))
		must(c.PutU32(s.Level))
		must(c.PutI32(s.SecondsPlayed))
	}
}
