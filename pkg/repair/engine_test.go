package repair_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ersave/pkg/codec"
	"github.com/ssargent/ersave/pkg/repair"
	"github.com/ssargent/ersave/pkg/save"
	"github.com/ssargent/ersave/pkg/save/savetest"
)

const commonSteamID = 76561198000000777

func load(t *testing.T, slots map[int]*savetest.Slot) (*savetest.Fixture, *save.Container) {
	t.Helper()
	f := savetest.File{SteamID: commonSteamID}
	for i, s := range slots {
		f.Slots[i] = s
	}
	fx := savetest.Build(f)
	c, err := save.Decode(append([]byte(nil), fx.Bytes...))
	require.NoError(t, err)
	return fx, c
}

func with(mut func(s *savetest.Slot)) *savetest.Slot {
	s := savetest.Healthy("Tarnished")
	mut(s)
	return s
}

func engine() *repair.Engine { return repair.NewEngine(repair.DefaultOptions(), nil) }

func TestDetect_HealthySlotHasNoIssues(t *testing.T) {
	_, c := load(t, map[int]*savetest.Slot{0: savetest.Healthy("Tarnished")})

	r, err := engine().Detect(c, 0)
	require.NoError(t, err)
	assert.Empty(t, r.Issues)
	assert.Empty(t, r.Unavailable)
	assert.NoError(t, r.TailErr)
}

func TestDetect_EachSignature(t *testing.T) {
	tests := []struct {
		name string
		slot *savetest.Slot
		want repair.IssueKind
	}{
		{"mount", with(func(s *savetest.Slot) { s.MountHP = 0 }), repair.IssueMountStuckLoading},
		{"dlc", with(func(s *savetest.Slot) { s.MapID = save.MapID{0x00, 0x10, 0x20, 0x1E} }), repair.IssueDLCAreaStall},
		{"steam id", with(func(s *savetest.Slot) { s.SteamID = 0 }), repair.IssueSteamIDDesync},
		{"time", with(func(s *savetest.Slot) { s.Time = save.AreaTime{} }), repair.IssueTimeDesync},
		{"weather", with(func(s *savetest.Slot) { s.Weather.AreaID = 0 }), repair.IssueWeatherDesync},
		{"base version", with(func(s *savetest.Slot) { s.BaseVersion = save.BaseVersion{} }), repair.IssueBaseVersionZeroed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := load(t, map[int]*savetest.Slot{0: tt.slot})
			r, err := engine().Detect(c, 0)
			require.NoError(t, err)
			assert.Equal(t, []repair.IssueKind{tt.want}, r.Issues)
		})
	}
}

func TestDetect_DeadMountWithNoHPIsNotFlagged(t *testing.T) {
	_, c := load(t, map[int]*savetest.Slot{0: with(func(s *savetest.Slot) {
		s.MountHP = 0
		s.MountState = save.MountDead
	})})

	r, err := engine().Detect(c, 0)
	require.NoError(t, err)
	assert.False(t, r.Has(repair.IssueMountStuckLoading))
}

func TestDetect_TimeNeedsPlaytime(t *testing.T) {
	_, c := load(t, map[int]*savetest.Slot{0: with(func(s *savetest.Slot) {
		s.Time = save.AreaTime{}
		s.SecondsPlayed = 0
	})})

	r, err := engine().Detect(c, 0)
	require.NoError(t, err)
	assert.False(t, r.Has(repair.IssueTimeDesync))
}

func TestDetect_MissingTailMarksChecksUnavailable(t *testing.T) {
	_, c := load(t, map[int]*savetest.Slot{0: with(func(s *savetest.Slot) {
		s.Position = codec.Vec3{}
		s.MountHP = 0
	})})

	r, err := engine().Detect(c, 0)
	require.NoError(t, err)
	assert.Equal(t, []repair.IssueKind{repair.IssueMountStuckLoading}, r.Issues)
	assert.ElementsMatch(t, []repair.IssueKind{
		repair.IssueSteamIDDesync, repair.IssueTimeDesync, repair.IssueWeatherDesync, repair.IssueBaseVersionZeroed,
	}, r.Unavailable)
	assert.True(t, errors.Is(r.TailErr, save.ErrTailNotFound))

	_, err = engine().Apply(c, 0, []repair.IssueKind{repair.IssueMountStuckLoading, repair.IssueTimeDesync}, nil)
	require.Error(t, err)
	assert.Equal(t, save.MountActive, c.Slot(0).Mount.State, "nothing is applied when a selected check is unavailable")
}

func TestApply_UnavailableSlot(t *testing.T) {
	broken := savetest.Healthy("Broken")
	broken.Corrupt = true
	_, c := load(t, map[int]*savetest.Slot{1: broken})

	for _, slot := range []int{0, 1} {
		_, err := engine().Apply(c, slot, repair.AllIssues(), nil)
		assert.True(t, errors.Is(err, repair.ErrSlotUnavailable), "slot %d", slot)
	}
	_, err := engine().Detect(c, save.SlotCount)
	assert.Error(t, err)
}

func TestApply_MountKeepsHP(t *testing.T) {
	fx, c := load(t, map[int]*savetest.Slot{0: with(func(s *savetest.Slot) { s.MountHP = 0 })})

	actions, err := engine().Apply(c, 0, []repair.IssueKind{repair.IssueMountStuckLoading}, nil)
	require.NoError(t, err)
	require.Len(t, actions, 1)

	a := actions[0]
	assert.Equal(t, repair.IssueMountStuckLoading, a.Kind)
	assert.Equal(t, fx.SlotBase(0)+fx.Positions[0].Mount+0x24, a.Offset)
	assert.Equal(t, []byte{13, 0, 0, 0}, a.Old)
	assert.Equal(t, []byte{3, 0, 0, 0}, a.New)

	out, err := c.Encode()
	require.NoError(t, err)
	assert.Equal(t, a.New, out[a.Offset:a.Offset+4])

	again, err := save.Decode(out)
	require.NoError(t, err)
	assert.Equal(t, save.MountDead, again.Slot(0).Mount.State)
	assert.Equal(t, uint32(0), again.Slot(0).Mount.HP)
}

func TestApply_TailRules(t *testing.T) {
	s := with(func(s *savetest.Slot) {
		s.SteamID = 0
		s.Time = save.AreaTime{}
		s.Weather.AreaID = 0
	})
	_, c := load(t, map[int]*savetest.Slot{2: s})

	e := engine()
	r, err := e.Detect(c, 2)
	require.NoError(t, err)
	require.Len(t, r.Issues, 3)

	actions, err := e.Apply(c, 2, r.Issues, nil)
	require.NoError(t, err)
	require.Len(t, actions, 3)
	assert.Equal(t, "SteamId: 0 -> 76561198000000777", actions[0].Description)
	assert.Equal(t, "WorldAreaTime: 00:00:00 -> 03:25:09", actions[1].Description)
	assert.Equal(t, "WorldAreaWeather AreaId: 0 -> 60", actions[2].Description)

	out, err := c.Encode()
	require.NoError(t, err)
	again, err := save.Decode(out)
	require.NoError(t, err)
	tail, err := again.Slot(2).WorldTail()
	require.NoError(t, err)
	assert.Equal(t, uint64(commonSteamID), tail.SteamID)
	assert.Equal(t, save.AreaTime{Hours: 3, Minutes: 25, Seconds: 9}, tail.Time)
	assert.Equal(t, uint16(60), tail.Weather.AreaID)
}

func TestApply_BaseVersion(t *testing.T) {
	_, c := load(t, map[int]*savetest.Slot{0: with(func(s *savetest.Slot) { s.BaseVersion = save.BaseVersion{} })})

	e := repair.NewEngine(repair.Options{KnownGoodBuild: 170}, nil)
	actions, err := e.Apply(c, 0, []repair.IssueKind{repair.IssueBaseVersionZeroed}, nil)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "BaseVersion: 0 -> 170", actions[0].Description)

	tail, err := c.Slot(0).WorldTail()
	require.NoError(t, err)
	assert.Equal(t, save.BaseVersion{Copy: 170, Version: 170, IsLatest: 1}, tail.BaseVersion)
}

func TestApply_ExplicitTeleportWithoutIssue(t *testing.T) {
	_, c := load(t, map[int]*savetest.Slot{0: savetest.Healthy("Tarnished")})

	dest := repair.Roundtable
	actions, err := engine().Apply(c, 0, nil, &dest)
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, repair.KindTeleport, actions[0].Kind)
	assert.Equal(t, "teleport:roundtable", actions[0].Token())
	assert.Equal(t, save.MapRoundtable, c.Slot(0).MapID)
}

func TestApply_DLCUsesRequestedDestination(t *testing.T) {
	_, c := load(t, map[int]*savetest.Slot{0: with(func(s *savetest.Slot) { s.MapID = save.MapID{0, 0, 0, 0x3D} })})

	dest := repair.Roundtable
	actions, err := engine().Apply(c, 0, []repair.IssueKind{repair.IssueDLCAreaStall}, &dest)
	require.NoError(t, err)
	require.Len(t, actions, 1, "the requested destination is applied once")
	assert.Equal(t, repair.IssueDLCAreaStall, actions[0].Kind)
	assert.Equal(t, save.MapRoundtable, c.Slot(0).MapID)
}

func TestApply_IsIdempotent(t *testing.T) {
	broken := map[repair.IssueKind]*savetest.Slot{
		repair.IssueMountStuckLoading: with(func(s *savetest.Slot) { s.MountHP = 0 }),
		repair.IssueDLCAreaStall:      with(func(s *savetest.Slot) { s.MapID = save.MapID{0, 0, 0, 0x20} }),
		repair.IssueSteamIDDesync:     with(func(s *savetest.Slot) { s.SteamID = 0 }),
		repair.IssueTimeDesync:        with(func(s *savetest.Slot) { s.Time = save.AreaTime{} }),
		repair.IssueWeatherDesync:     with(func(s *savetest.Slot) { s.Weather.AreaID = 0 }),
		repair.IssueBaseVersionZeroed: with(func(s *savetest.Slot) { s.BaseVersion = save.BaseVersion{} }),
	}
	for kind, slot := range broken {
		t.Run(string(kind), func(t *testing.T) {
			_, c := load(t, map[int]*savetest.Slot{0: slot})
			e := engine()

			first, err := e.Apply(c, 0, []repair.IssueKind{kind}, nil)
			require.NoError(t, err)
			require.Len(t, first, 1)
			once, err := c.Encode()
			require.NoError(t, err)

			second, err := e.Apply(c, 0, []repair.IssueKind{kind}, nil)
			require.NoError(t, err)
			assert.Empty(t, second)
			twice, err := c.Encode()
			require.NoError(t, err)
			assert.True(t, bytes.Equal(once, twice))
		})
	}
}

func TestEndToEnd_DLCAndMount(t *testing.T) {
	fx, c := load(t, map[int]*savetest.Slot{
		0: with(func(s *savetest.Slot) {
			s.MountHP = 0
			s.MapID = save.MapID{0x00, 0x01, 0x02, 0x1E}
		}),
		1: savetest.Healthy("Bystander"),
	})

	e := engine()
	r, err := e.Detect(c, 0)
	require.NoError(t, err)
	assert.Equal(t, []repair.IssueKind{repair.IssueMountStuckLoading, repair.IssueDLCAreaStall}, r.Issues)

	actions, err := e.Apply(c, 0, r.Issues, nil)
	require.NoError(t, err)
	assert.Len(t, actions, 2)

	out, err := c.Encode()
	require.NoError(t, err)
	assert.Equal(t, len(fx.Bytes), len(out))

	again, err := save.Decode(out)
	require.NoError(t, err)
	s := again.Slot(0)
	assert.Equal(t, save.MountDead, s.Mount.State)
	assert.Equal(t, save.MapID{0x00, 0x24, 0x2A, 0x3C}, s.MapID)

	start, end := fx.SlotBase(1), fx.SlotBase(1)+save.SlotDataSize
	assert.True(t, bytes.Equal(fx.Bytes[start:end], out[start:end]), "other slots are untouched")
}

func TestParse(t *testing.T) {
	d, err := repair.ParseDestination("Limgrave")
	require.NoError(t, err)
	assert.Equal(t, save.MapLimgrave, d.MapID)
	_, err = repair.ParseDestination("farum azula")
	assert.Error(t, err)

	k, err := repair.ParseIssueKind("time_desync")
	require.NoError(t, err)
	assert.Equal(t, repair.IssueTimeDesync, k)
	_, err = repair.ParseIssueKind("teleport")
	assert.Error(t, err)
}

func TestAction_Token(t *testing.T) {
	a := repair.RepairAction{Kind: repair.IssueSteamIDDesync, Description: "SteamId: 0 -> 1"}
	assert.Equal(t, "corruption:SteamId: 0 -> 1", a.Token())
	a = repair.RepairAction{Kind: repair.IssueMountStuckLoading, Description: "x"}
	assert.Equal(t, "torrent:x", a.Token())
}
