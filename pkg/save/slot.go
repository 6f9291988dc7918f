package save

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"

	"github.com/ssargent/ersave/pkg/codec"
	"github.com/ssargent/ersave/pkg/locator"
)

// Fixed sub-structure sizes of a character slot, in walk order.
const (
	SlotHeaderSize        = 4 + 4 + 8 + 16
	SpEffectsSize         = 13 * 0x10
	EquipIndexSize        = 0x58
	ActiveWeaponSlotsSize = 0x1C
	EquipItemIDsSize      = 0x58
	EquipGaitemsSize      = 0x58
	InventoryItemSize     = 12
	HeldCommonCapacity    = 0xA80
	HeldKeyCapacity       = 0x180
	StorageCommonCapacity = 0x780
	StorageKeyCapacity    = 0x80
	EquippedSpellsSize    = 0x74
	EquippedItemsSize     = 0x8C
	EquippedGesturesSize  = 0x18
	ProjectilesSize       = 0x7CC
	MaxProjectiles        = (ProjectilesSize - 4) / 8
	EquippedArmamentsSize = 0x9C
	EquippedPhysicsSize   = 0xC
	FaceDataSize          = 0x12F
	GesturesSize          = 0x100
	BloodStainSize        = 0x44
	MenuProfileSize       = 0x1008
	TrophyEquipSize       = 0x34
	GaitemGameDataCount   = 7000
	GaitemGameDataEntry   = 12
	TutorialDataSize      = 0x408
	GameManSize           = 3 + 4 + 4 + 1 + 4 + 4 + 1 + 4 + 4
	EventFlagsSize        = 0x1BF99F
	NetManSize            = 0x20004

	// Version thresholds for the gated fields after the player coordinates.
	TempSpawnVersion = 65
	GatedByteVersion = 66

	// Window searched for the world tail when no hint is available.
	LegacyTailWindowStart = 0x214000
	LegacyTailWindowEnd   = 0x21C000
)

// Region is an opaque byte range inside a slot, relative to the slot data start.
type Region struct {
	Name   string
	Offset int
	Length int
}

// End is the first offset after the region
func (r Region) End() int { return r.Offset + r.Length }

// Offsets records where the interpreted structures start, relative to the
// slot data start.
type Offsets struct {
	Items       int
	Player      int
	Mount       int
	EventFlags  int
	Coordinates int
	NetMan      int
	TailHint    int // first byte after the network manager
}

// TailOptions controls how the world tail is located.
type TailOptions struct {
	Thresholds   locator.Thresholds
	WindowRadius int // zero selects the legacy fixed window
}

// DefaultTailOptions returns the stock locator settings
func DefaultTailOptions() TailOptions {
	return TailOptions{Thresholds: locator.DefaultThresholds(), WindowRadius: 0x4000}
}

// Slot is one decoded character record. It owns the byte window of its data
// region and writes mutations only inside it.
type Slot struct {
	Index       int
	Version     uint32
	MapID       MapID
	Player      PlayerGameData
	Items       *codec.ItemHandleTable
	Mount       Mount
	Coordinates PlayerCoordinates
	Offsets     Offsets
	Regions     []Region

	data   []byte // slot data window, SlotDataSize bytes
	base   int    // absolute offset of data in the container
	tailOnce sync.Once
	tail   *WorldTail
	tailEr error
	opts   TailOptions
	loc    *locator.Locator
	logger *slog.Logger
}

// walker decodes sequential structures and names the one that failed.
type walker struct {
	slot int
	base int
	c    *codec.Cursor
	s    *Slot
	err  error
}

func (w *walker) fail(structure string, err error) {
	if w.err == nil {
		w.err = &DecodeError{Slot: w.slot, Structure: structure, Offset: w.base + w.c.Pos(), Err: err}
	}
}

// opaque skips a fixed-size region and records it.
func (w *walker) opaque(name string, n int) {
	if w.err != nil {
		return
	}
	start := w.c.Pos()
	if err := w.c.Skip(n); err != nil {
		w.fail(name, err)
		return
	}
	w.s.Regions = append(w.s.Regions, Region{Name: name, Offset: start, Length: n})
}

func (w *walker) u32(name string) uint32 {
	if w.err != nil {
		return 0
	}
	v, err := w.c.U32()
	if err != nil {
		w.fail(name, err)
	}
	return v
}

// inventory skips a counted inventory block: count, common items, key count,
// key items and two trailing counters.
func (w *walker) inventory(name string, common, key int) {
	start := w.c.Pos()
	w.u32(name)
	w.skipRaw(name, common*InventoryItemSize)
	w.u32(name)
	w.skipRaw(name, key*InventoryItemSize)
	w.u32(name)
	w.u32(name)
	if w.err == nil {
		w.s.Regions = append(w.s.Regions, Region{Name: name, Offset: start, Length: w.c.Pos() - start})
	}
}

func (w *walker) skipRaw(name string, n int) {
	if w.err != nil {
		return
	}
	if err := w.c.Skip(n); err != nil {
		w.fail(name, err)
	}
}

// sized skips a region whose length is stored in a leading i32.
func (w *walker) sized(name string) {
	if w.err != nil {
		return
	}
	start := w.c.Pos()
	size, err := w.c.I32()
	if err != nil {
		w.fail(name, err)
		return
	}
	if size < 0 {
		w.fail(name, errors.Errorf("negative inline size %d", size))
		return
	}
	w.skipRaw(name, int(size))
	if w.err == nil {
		w.s.Regions = append(w.s.Regions, Region{Name: name, Offset: start, Length: w.c.Pos() - start})
	}
}

// decodeSlot walks the slot's data window in field order.
func decodeSlot(index int, data []byte, base int, opts TailOptions, loc *locator.Locator, logger *slog.Logger) (*Slot, error) {
	s := &Slot{Index: index, data: data, base: base, opts: opts, loc: loc, logger: logger}
	w := &walker{slot: index, base: base, c: codec.NewCursor(data), s: s}

	// header
	s.Version = w.u32("SlotHeader")
	if w.err == nil {
		raw, err := w.c.Bytes(4)
		if err != nil {
			w.fail("SlotHeader", err)
		} else {
			copy(s.MapID[:], raw)
		}
	}
	w.opaque("SlotHeaderUnk", 8+16)

	// item-handle table
	if w.err == nil {
		s.Offsets.Items = w.c.Pos()
		items, err := codec.DecodeItemHandleTable(w.c, s.Version)
		if err != nil {
			w.fail("ItemHandleTable", err)
		}
		s.Items = items
	}

	// character sheet
	if w.err == nil {
		s.Offsets.Player = w.c.Pos()
		p, err := decodePlayerGameData(data, s.Offsets.Player)
		if err != nil {
			w.fail("PlayerGameData", err)
		}
		s.Player = p
		w.skipRaw("PlayerGameData", PlayerGameDataSize)
	}

	w.opaque("SpEffects", SpEffectsSize)
	w.opaque("EquipIndex", EquipIndexSize)
	w.opaque("ActiveWeaponSlots", ActiveWeaponSlotsSize)
	w.opaque("EquipItemIDs", EquipItemIDsSize)
	w.opaque("EquipGaitemHandles", EquipGaitemsSize)
	w.inventory("HeldInventory", HeldCommonCapacity, HeldKeyCapacity)
	w.opaque("EquippedSpells", EquippedSpellsSize)
	w.opaque("EquippedItems", EquippedItemsSize)
	w.opaque("EquippedGestures", EquippedGesturesSize)

	if w.err == nil {
		start := w.c.Pos()
		count := w.u32("AcquiredProjectiles")
		if w.err == nil && count > MaxProjectiles {
			w.fail("AcquiredProjectiles", errors.Errorf("count %d exceeds capacity %d", count, MaxProjectiles))
		}
		w.skipRaw("AcquiredProjectiles", ProjectilesSize-4)
		if w.err == nil {
			s.Regions = append(s.Regions, Region{Name: "AcquiredProjectiles", Offset: start, Length: ProjectilesSize})
		}
	}

	w.opaque("EquippedArmamentsAndItems", EquippedArmamentsSize)
	w.opaque("EquippedPhysics", EquippedPhysicsSize)
	w.opaque("FaceData", FaceDataSize)
	w.inventory("StorageInventory", StorageCommonCapacity, StorageKeyCapacity)
	w.opaque("Gestures", GesturesSize)

	if w.err == nil {
		start := w.c.Pos()
		count := w.u32("UnlockedRegions")
		if w.err == nil && int(count) > w.c.Remaining()/4 {
			w.fail("UnlockedRegions", errors.Errorf("count %d exceeds remaining data", count))
		}
		w.skipRaw("UnlockedRegions", int(count)*4)
		if w.err == nil {
			s.Regions = append(s.Regions, Region{Name: "UnlockedRegions", Offset: start, Length: w.c.Pos() - start})
		}
	}

	if w.err == nil {
		s.Offsets.Mount = w.c.Pos()
		m, err := decodeMount(w.c)
		if err != nil {
			w.fail("Mount", err)
		}
		s.Mount = m
	}

	w.opaque("ControlByte", 1)
	w.opaque("BloodStain", BloodStainSize)
	w.opaque("MenuUnk", 8)
	w.opaque("MenuProfile", MenuProfileSize)
	w.opaque("TrophyEquip", TrophyEquipSize)
	w.opaque("GaitemGameData", 4+GaitemGameDataCount*GaitemGameDataEntry)
	w.opaque("TutorialData", TutorialDataSize)
	w.opaque("GameMan", GameManSize)

	if w.err == nil {
		s.Offsets.EventFlags = w.c.Pos()
	}
	w.opaque("EventFlags", EventFlagsSize+1)

	for _, name := range []string{"FieldArea", "WorldArea", "WorldGeomMan", "WorldGeomMan2", "RendMan"} {
		w.sized(name)
	}

	if w.err == nil {
		s.Offsets.Coordinates = w.c.Pos()
		pc, err := decodePlayerCoordinates(w.c)
		if err != nil {
			w.fail("PlayerCoordinates", err)
		}
		s.Coordinates = pc
	}
	w.opaque("SpawnPoint", 2+4+4)
	if s.Version >= TempSpawnVersion {
		w.opaque("TempSpawnPoint", 4)
	}
	if s.Version >= GatedByteVersion {
		w.opaque("GameManUnk", 1)
	}

	if w.err == nil {
		s.Offsets.NetMan = w.c.Pos()
	}
	w.opaque("NetMan", NetManSize)
	if w.err == nil {
		s.Offsets.TailHint = w.c.Pos()
	}

	if w.err != nil {
		return nil, w.err
	}
	return s, nil
}

// CoordsDistance is the gap between the player coordinates and the world tail.
func (s *Slot) CoordsDistance() int {
	return s.Offsets.TailHint - s.Offsets.Coordinates
}

// TailWindow is the range searched for the world tail
func (s *Slot) TailWindow() locator.Window {
	if s.opts.WindowRadius <= 0 || s.Offsets.TailHint == 0 {
		return locator.Window{Start: LegacyTailWindowStart, End: LegacyTailWindowEnd}
	}
	return locator.Window{
		Start: s.Offsets.TailHint - s.opts.WindowRadius,
		End:   s.Offsets.TailHint + s.opts.WindowRadius,
		Hint:  s.Offsets.TailHint,
	}
}

// WorldTail locates and decodes the world tail on first use and memoizes
// the outcome. It is safe for concurrent use. The error wraps
// locator.ErrNotFound when no candidate qualified.
func (s *Slot) WorldTail() (*WorldTail, error) {
	s.tailOnce.Do(s.locateTail)
	return s.tail, s.tailEr
}

func (s *Slot) locateTail() {
	window := s.TailWindow()
	probe := locator.NewWorldTailProbe(s.opts.Thresholds, s.CoordsDistance())
	res, err := s.loc.Search(s.data, window, probe)
	if err != nil {
		s.tailEr = &DecodeError{Slot: s.Index, Structure: "WorldTail", Offset: s.base + window.Start, Err: err}
		return
	}

	t, err := decodeWorldTail(codec.NewCursorAt(s.data, res.Offset))
	if err != nil {
		s.tailEr = &DecodeError{Slot: s.Index, Structure: "WorldTail", Offset: s.base + res.Offset, Err: err}
		return
	}
	t.Tier = res.Tier
	s.tail = &t
	s.logger.Debug("decode.world_tail",
		slog.Int("slot", s.Index),
		slog.Int("offset", res.Offset),
		slog.Int("hint", s.Offsets.TailHint),
		slog.String("tier", res.Tier.String()),
	)
}

// Name returns the character name
func (s *Slot) Name() string { return s.Player.Name }

// Base returns the absolute offset of the slot data in the container
func (s *Slot) Base() int { return s.base }

// ReadAt copies n bytes at a slot-relative offset.
func (s *Slot) ReadAt(off, n int) ([]byte, error) {
	b, err := codec.NewCursorAt(s.data, off).Bytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

// Encode writes every interpreted structure back into the slot window.
// Opaque regions are never written.
func (s *Slot) Encode() error {
	c := codec.NewCursor(s.data)
	if err := c.PutU32(s.Version); err != nil {
		return s.encodeErr("SlotHeader", err)
	}
	if err := c.PutBytes(s.MapID[:]); err != nil {
		return s.encodeErr("SlotHeader", err)
	}

	if err := c.Seek(s.Offsets.Items); err != nil {
		return s.encodeErr("ItemHandleTable", err)
	}
	if err := s.Items.Encode(c); err != nil {
		return s.encodeErr("ItemHandleTable", err)
	}
	if c.Pos() != s.Offsets.Player {
		return s.encodeErr("ItemHandleTable", errors.Errorf("table size changed: ends at 0x%X, expected 0x%X", c.Pos(), s.Offsets.Player))
	}

	if err := s.Player.encode(s.data, s.Offsets.Player); err != nil {
		return s.encodeErr("PlayerGameData", err)
	}

	if err := c.Seek(s.Offsets.Mount); err != nil {
		return s.encodeErr("Mount", err)
	}
	if err := s.Mount.encode(c); err != nil {
		return s.encodeErr("Mount", err)
	}

	if err := c.Seek(s.Offsets.Coordinates); err != nil {
		return s.encodeErr("PlayerCoordinates", err)
	}
	if err := s.Coordinates.encode(c); err != nil {
		return s.encodeErr("PlayerCoordinates", err)
	}

	if s.tail != nil {
		if err := s.tail.encode(c); err != nil {
			return s.encodeErr("WorldTail", err)
		}
	}
	return nil
}

func (s *Slot) encodeErr(structure string, err error) error {
	return &DecodeError{Slot: s.Index, Structure: "encode " + structure, Offset: s.base, Err: err}
}
