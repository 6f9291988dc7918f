package journal

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/segmentio/ksuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/ersave/pkg/repair"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndGet(t *testing.T) {
	j := openTemp(t)

	pre := bytes.Repeat([]byte{0, 0, 0, 0, 0xAB}, 0x10000)
	action := repair.RepairAction{Kind: repair.IssueMountStuckLoading, Slot: 2, Offset: 0x1234, Old: []byte{13, 0, 0, 0}, New: []byte{3, 0, 0, 0}}

	id, err := j.Record(Entry{SavePath: "/saves/ER0000.sl2", Slot: 2, Name: "Tarnished", Actions: []repair.RepairAction{action}}, pre)
	require.NoError(t, err)
	assert.NotEqual(t, ksuid.Nil, id)

	e, err := j.Get(id)
	require.NoError(t, err)
	assert.Equal(t, id, e.ID)
	assert.Equal(t, 2, e.Slot)
	assert.Equal(t, "Tarnished", e.Name)
	assert.Equal(t, len(pre), e.PreImageSize)
	assert.Less(t, e.PreImageCompressed, e.PreImageSize)
	require.Len(t, e.Actions, 1)
	assert.Equal(t, action, e.Actions[0])
	assert.False(t, e.CreatedAt.IsZero())

	got, err := j.PreImage(id)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(pre, got))
}

func TestJournal_ListIsOrdered(t *testing.T) {
	j := openTemp(t)

	var ids []ksuid.KSUID
	for slot := 0; slot < 3; slot++ {
		id, err := j.Record(Entry{Slot: slot}, []byte{byte(slot)})
		require.NoError(t, err)
		ids = append(ids, id)
	}

	entries, err := j.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	got := make([]ksuid.KSUID, len(entries))
	for i, e := range entries {
		got[i] = e.ID
	}
	want := append([]ksuid.KSUID(nil), ids...)
	ksuid.Sort(want)
	assert.Equal(t, want, got)
}

func TestJournal_NotFoundAndDelete(t *testing.T) {
	j := openTemp(t)

	_, err := j.Get(ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = j.PreImage(ksuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	id, err := j.Record(Entry{Slot: 1}, []byte("slot"))
	require.NoError(t, err)
	require.NoError(t, j.Delete(id))

	_, err = j.Get(id)
	assert.ErrorIs(t, err, ErrNotFound)
	entries, err := j.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestJournal_Reopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")
	j, err := Open(dir, nil)
	require.NoError(t, err)
	id, err := j.Record(Entry{Slot: 4}, []byte("before"))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j, err = Open(dir, nil)
	require.NoError(t, err)
	defer j.Close()
	e, err := j.Get(id)
	require.NoError(t, err)
	assert.Equal(t, 4, e.Slot)
}
