package repair

import (
	"encoding/binary"
	"fmt"

	"github.com/ssargent/ersave/pkg/save"
)

// Field offsets touched by the rules.
const (
	slotMapIDOffset  = 0x4
	mountStateOffset = 0x24
)

// Context is what a rule sees of one slot.
type Context struct {
	Slot    *save.Slot
	Common  *save.CommonSection // nil when the common section failed to decode
	Tail    *save.WorldTail     // nil when the tail could not be located
	Options Options

	// Destination overrides Options.Destination for the DLC rule.
	Destination *Destination
}

func (ctx *Context) abs(rel int) int { return ctx.Slot.Base() + rel }

// Rule detects one failure signature and fixes it. Apply must leave the
// slot in a state where Detect is false, so a second run is a no-op.
type Rule interface {
	Kind() IssueKind
	NeedsTail() bool
	Detect(ctx *Context) bool
	Apply(ctx *Context) ([]RepairAction, error)
}

func u16(v uint16) []byte { return binary.LittleEndian.AppendUint16(nil, v) }
func u32(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
func u64(v uint64) []byte { return binary.LittleEndian.AppendUint64(nil, v) }

func timeBytes(t save.AreaTime) []byte {
	return append(append(u32(t.Hours), u32(t.Minutes)...), u32(t.Seconds)...)
}

func versionBytes(b save.BaseVersion) []byte {
	return append(append(u32(uint32(b.Copy)), u32(uint32(b.Version))...), u32(b.IsLatest)...)
}

type mountRule struct{}

func (mountRule) Kind() IssueKind { return IssueMountStuckLoading }
func (mountRule) NeedsTail() bool { return false }

func (mountRule) Detect(ctx *Context) bool { return ctx.Slot.Mount.StuckLoading() }

func (r mountRule) Apply(ctx *Context) ([]RepairAction, error) {
	m := &ctx.Slot.Mount
	old := m.State
	m.State = save.MountDead
	return []RepairAction{{
		Kind:        r.Kind(),
		Slot:        ctx.Slot.Index,
		Offset:      ctx.abs(ctx.Slot.Offsets.Mount + mountStateOffset),
		Old:         u32(uint32(old)),
		New:         u32(uint32(m.State)),
		Description: fmt.Sprintf("Torrent state: %s -> %s (HP %d)", old, m.State, m.HP),
	}}, nil
}

type dlcRule struct{}

func (dlcRule) Kind() IssueKind { return IssueDLCAreaStall }
func (dlcRule) NeedsTail() bool { return false }

func (dlcRule) Detect(ctx *Context) bool { return ctx.Slot.MapID.IsDLC() }

func (r dlcRule) Apply(ctx *Context) ([]RepairAction, error) {
	dest := ctx.Options.Destination
	if ctx.Destination != nil {
		dest = *ctx.Destination
	}
	return []RepairAction{teleport(ctx, r.Kind(), dest)}, nil
}

// teleport rewrites the slot header map id.
func teleport(ctx *Context, kind IssueKind, dest Destination) RepairAction {
	old := ctx.Slot.MapID
	ctx.Slot.MapID = dest.MapID
	return RepairAction{
		Kind:        kind,
		Slot:        ctx.Slot.Index,
		Offset:      ctx.abs(slotMapIDOffset),
		Old:         append([]byte(nil), old[:]...),
		New:         append([]byte(nil), dest.MapID[:]...),
		Description: fmt.Sprintf("MapID: %s -> %s", old, dest.MapID),
		Target:      dest.Name,
	}
}

type steamIDRule struct{}

func (steamIDRule) Kind() IssueKind { return IssueSteamIDDesync }
func (steamIDRule) NeedsTail() bool { return true }

func (steamIDRule) Detect(ctx *Context) bool {
	return ctx.Tail != nil && ctx.Common != nil && ctx.Tail.SteamID == 0 && ctx.Common.SteamID != 0
}

func (r steamIDRule) Apply(ctx *Context) ([]RepairAction, error) {
	t := ctx.Tail
	old := t.SteamID
	t.SteamID = ctx.Common.SteamID
	return []RepairAction{{
		Kind:        r.Kind(),
		Slot:        ctx.Slot.Index,
		Offset:      ctx.abs(t.Offset + save.TailSteamIDOffset),
		Old:         u64(old),
		New:         u64(t.SteamID),
		Description: fmt.Sprintf("SteamId: %d -> %d", old, t.SteamID),
	}}, nil
}

type timeRule struct{}

func (timeRule) Kind() IssueKind { return IssueTimeDesync }
func (timeRule) NeedsTail() bool { return true }

func (timeRule) Detect(ctx *Context) bool {
	return ctx.Tail != nil && ctx.Common != nil && ctx.Tail.Time.IsZero() && ctx.Common.SecondsPlayed(ctx.Slot.Index) > 0
}

func (r timeRule) Apply(ctx *Context) ([]RepairAction, error) {
	t := ctx.Tail
	old := t.Time
	t.Time = save.AreaTimeFromSeconds(uint32(ctx.Common.SecondsPlayed(ctx.Slot.Index)))
	return []RepairAction{{
		Kind:        r.Kind(),
		Slot:        ctx.Slot.Index,
		Offset:      ctx.abs(t.Offset + save.TailTimeOffset),
		Old:         timeBytes(old),
		New:         timeBytes(t.Time),
		Description: fmt.Sprintf("WorldAreaTime: %s -> %s", old, t.Time),
	}}, nil
}

type weatherRule struct{}

func (weatherRule) Kind() IssueKind { return IssueWeatherDesync }
func (weatherRule) NeedsTail() bool { return true }

func (weatherRule) Detect(ctx *Context) bool {
	return ctx.Tail != nil && ctx.Tail.Weather.AreaID == 0 && ctx.Slot.MapID.Area() != 0
}

func (r weatherRule) Apply(ctx *Context) ([]RepairAction, error) {
	t := ctx.Tail
	old := t.Weather.AreaID
	t.Weather.AreaID = uint16(ctx.Slot.MapID.Area())
	return []RepairAction{{
		Kind:        r.Kind(),
		Slot:        ctx.Slot.Index,
		Offset:      ctx.abs(t.Offset),
		Old:         u16(old),
		New:         u16(t.Weather.AreaID),
		Description: fmt.Sprintf("WorldAreaWeather AreaId: %d -> %d", old, t.Weather.AreaID),
	}}, nil
}

type baseVersionRule struct{}

func (baseVersionRule) Kind() IssueKind { return IssueBaseVersionZeroed }
func (baseVersionRule) NeedsTail() bool { return true }

func (baseVersionRule) Detect(ctx *Context) bool {
	return ctx.Tail != nil && ctx.Tail.BaseVersion.IsZero()
}

func (r baseVersionRule) Apply(ctx *Context) ([]RepairAction, error) {
	t := ctx.Tail
	old := t.BaseVersion
	build := ctx.Options.KnownGoodBuild
	t.BaseVersion.Copy = build
	t.BaseVersion.Version = build
	t.BaseVersion.IsLatest = 1
	return []RepairAction{{
		Kind:        r.Kind(),
		Slot:        ctx.Slot.Index,
		Offset:      ctx.abs(t.Offset + save.TailBaseVersionOffset),
		Old:         versionBytes(old),
		New:         versionBytes(t.BaseVersion),
		Description: fmt.Sprintf("BaseVersion: %d -> %d", old.Version, build),
	}}, nil
}

// DefaultRules returns the rule set in application order. Map changes run
// last so the other rules see the map the character was saved in.
func DefaultRules() []Rule {
	return []Rule{
		mountRule{},
		steamIDRule{},
		timeRule{},
		weatherRule{},
		baseVersionRule{},
		dlcRule{},
	}
}
