package save_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ersave/pkg/save"
	"github.com/ssargent/ersave/pkg/save/savetest"
)

func twoCharacters() *savetest.Fixture {
	var f savetest.File
	f.Version = 7
	f.SteamID = 76561198000000001
	f.Slots[0] = savetest.Healthy("Tarnished")
	f.Slots[3] = savetest.Healthy("Melina")
	f.Slots[3].Level = 150
	return savetest.Build(f)
}

func decode(t *testing.T, fx *savetest.Fixture) *save.Container {
	t.Helper()
	c, err := save.Decode(append([]byte(nil), fx.Bytes...))
	require.NoError(t, err)
	return c
}

func TestDecode_RoundTripIsByteIdentical(t *testing.T) {
	fx := twoCharacters()
	c := decode(t, fx)

	out, err := c.Encode()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(fx.Bytes, out), "unmodified container must encode to its input")

	// resolving the world tail must not change the output either
	_, err = c.Slot(0).WorldTail()
	require.NoError(t, err)
	out, err = c.Encode()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(fx.Bytes, out))
}

func TestDecode_EncodeReturnsCopy(t *testing.T) {
	c := decode(t, twoCharacters())
	out, err := c.Encode()
	require.NoError(t, err)
	out[save.PCHeaderSize] ^= 0xFF

	again, err := c.Encode()
	require.NoError(t, err)
	assert.NotEqual(t, out[save.PCHeaderSize], again[save.PCHeaderSize])
}

func TestDecode_AllSlotsEmpty(t *testing.T) {
	c := decode(t, savetest.Build(savetest.File{}))

	assert.Empty(t, c.ActiveSlotIndices())
	assert.Empty(t, c.SlotErrors())
	for i := 0; i < save.SlotCount; i++ {
		assert.Nil(t, c.Slot(i))
	}
	require.NotNil(t, c.Common())
	assert.Equal(t, [save.SlotCount]bool{}, c.Common().Active)
}

func TestDecode_ActiveSlots(t *testing.T) {
	c := decode(t, twoCharacters())
	assert.Equal(t, []int{0, 3}, c.ActiveSlotIndices())
	assert.Equal(t, save.PlatformPC, c.Layout.Platform)
	assert.Nil(t, c.Slot(-1))
	assert.Nil(t, c.Slot(save.SlotCount))
}

func TestDecode_UnknownMagic(t *testing.T) {
	fx := twoCharacters()
	copy(fx.Bytes, "NOPE")

	_, err := save.Decode(fx.Bytes)
	var ferr *save.FormatError
	require.True(t, errors.As(err, &ferr))
	assert.Equal(t, [4]byte{'N', 'O', 'P', 'E'}, ferr.Magic)
	assert.Equal(t, "unknown magic", ferr.Reason)
}

func TestDecode_TooShort(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
	}{
		{"empty", nil},
		{"magic only", []byte("BND4")},
		{"missing common section", append([]byte("BND4"), make([]byte, save.PCLayout.CommonOffset())...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := save.Decode(tt.buf)
			var ferr *save.FormatError
			require.True(t, errors.As(err, &ferr))
			assert.Equal(t, len(tt.buf), ferr.Length)
		})
	}
}

func TestDecode_ShortRegulationIsAccepted(t *testing.T) {
	fx := twoCharacters()
	c, err := save.Decode(fx.Bytes[:save.PCLayout.MinLength()])
	require.NoError(t, err)
	assert.Empty(t, c.Regulation())
}

func TestDecode_CorruptSlotIsIsolated(t *testing.T) {
	var f savetest.File
	f.Slots[0] = savetest.Healthy("First")
	f.Slots[1] = savetest.Healthy("Broken")
	f.Slots[1].Corrupt = true
	f.Slots[2] = savetest.Healthy("Third")
	fx := savetest.Build(f)

	c, err := save.Decode(fx.Bytes)
	require.NoError(t, err)

	assert.Equal(t, []int{0, 2}, c.ActiveSlotIndices())
	assert.Nil(t, c.Slot(1))

	var derr *save.DecodeError
	require.True(t, errors.As(c.SlotError(1), &derr))
	assert.Equal(t, 1, derr.Slot)
	assert.Equal(t, "WorldGeomMan", derr.Structure)
	assert.Greater(t, derr.Offset, fx.SlotBase(1))
	assert.Less(t, derr.Offset, fx.SlotBase(2))
	assert.Contains(t, derr.Error(), "slot 2: WorldGeomMan")

	assert.Equal(t, "First", c.Slot(0).Name())
	assert.Equal(t, "Third", c.Slot(2).Name())
	assert.Len(t, c.SlotErrors(), 1)
}

func TestDecode_CorruptSlotSurvivesRoundTrip(t *testing.T) {
	var f savetest.File
	f.Slots[0] = savetest.Healthy("Broken")
	f.Slots[0].Corrupt = true
	fx := savetest.Build(f)

	c := decode(t, fx)
	out, err := c.Encode()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(fx.Bytes, out))
}

func TestDecode_ConsoleContainer(t *testing.T) {
	var f savetest.File
	f.Console = true
	f.Slots[5] = savetest.Healthy("Ranni")
	fx := savetest.Build(f)

	c := decode(t, fx)
	assert.Equal(t, save.PlatformConsole, c.Layout.Platform)
	assert.False(t, c.Layout.HasChecksums())
	assert.Equal(t, []int{5}, c.ActiveSlotIndices())
	assert.Equal(t, "Ranni", c.Slot(5).Name())
	assert.Equal(t, [save.ChecksumSize]byte{}, c.SlotChecksum(5))
}

func TestContainer_HeaderAndRegulation(t *testing.T) {
	fx := twoCharacters()
	c := decode(t, fx)

	assert.Equal(t, fx.Bytes[:save.PCHeaderSize], c.Header())
	assert.Equal(t, fx.Bytes[save.PCLayout.RegulationOffset():], c.Regulation())
	assert.Equal(t, len(fx.Bytes), c.Len())
}

func TestContainer_Checksums(t *testing.T) {
	fx := twoCharacters()
	c := decode(t, fx)

	stored := c.SlotChecksum(3)
	assert.Equal(t, fx.Bytes[save.PCLayout.SlotOffset(3):save.PCLayout.SlotDataOffset(3)], stored[:])

	var sum [save.ChecksumSize]byte
	sum[0] = 0x42
	c.SetSlotChecksum(3, sum)
	c.SetCommonChecksum(sum)
	assert.Equal(t, sum, c.SlotChecksum(3))
	assert.Equal(t, sum, c.CommonChecksum())
	assert.Equal(t, stored, decode(t, fx).SlotChecksum(3), "fixture buffer must stay untouched")
}

func TestContainer_Common(t *testing.T) {
	c := decode(t, twoCharacters())
	cs := c.Common()
	require.NotNil(t, cs)
	require.NoError(t, c.CommonError())

	assert.Equal(t, uint32(7), cs.Version)
	assert.Equal(t, uint64(76561198000000001), cs.SteamID)
	assert.True(t, cs.Active[0])
	assert.True(t, cs.Active[3])
	assert.False(t, cs.Active[1])
	assert.Equal(t, "Melina", cs.Profiles[3].Name)
	assert.Equal(t, uint32(150), cs.Profiles[3].Level)
	assert.Equal(t, int32(12309), cs.SecondsPlayed(0))
	assert.Equal(t, int32(0), cs.SecondsPlayed(42))
}

func TestContainer_RestoreSlotData(t *testing.T) {
	fx := twoCharacters()
	c := decode(t, fx)
	pre := append([]byte(nil), c.SlotData(0)...)

	c.Slot(0).Mount.HP = 0
	require.NoError(t, c.Flush())
	assert.NotEqual(t, pre, c.SlotData(0))

	require.NoError(t, c.RestoreSlotData(0, pre))
	assert.Equal(t, uint32(1200), c.Slot(0).Mount.HP)
	out, err := c.Encode()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(fx.Bytes, out))

	assert.Error(t, c.RestoreSlotData(0, pre[:10]))
	assert.Error(t, c.RestoreSlotData(save.SlotCount, pre))

	require.NoError(t, c.RestoreSlotData(0, make([]byte, save.SlotDataSize)))
	assert.Nil(t, c.Slot(0))
	assert.Equal(t, []int{3}, c.ActiveSlotIndices())
}
