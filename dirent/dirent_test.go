package dirent_test

import (
	"testing"

	"github.com/dalci22/minifs/dirent"
	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	blocks map[uint][]byte
	next   uint
}

func newMemStore() *memStore {
	return &memStore{blocks: map[uint][]byte{}, next: layout.DataBlockStart}
}

func (m *memStore) ReadBlock(n uint) ([]byte, error) {
	if buf, ok := m.blocks[n]; ok {
		cp := make([]byte, len(buf))
		copy(cp, buf)
		return cp, nil
	}
	return make([]byte, layout.BlockSize), nil
}

func (m *memStore) WriteBlock(n uint, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	m.blocks[n] = cp
	return nil
}

func (m *memStore) Allocate() (uint, error) {
	b := m.next
	m.next++
	return b, nil
}

func TestInsertThenFind(t *testing.T) {
	store := newMemStore()
	var blocks [layout.MaxDirectPointers]uint32

	blocks, grew, err := dirent.Insert(store, store, blocks, 7, "report.txt")
	require.NoError(t, err)
	assert.EqualValues(t, layout.DirentSize, grew)

	entry, err := dirent.Find(store, blocks, "report.txt")
	require.NoError(t, err)
	assert.EqualValues(t, 7, entry.Inum)
}

func TestFindMissing(t *testing.T) {
	store := newMemStore()
	var blocks [layout.MaxDirectPointers]uint32

	_, err := dirent.Find(store, blocks, "nope")
	assert.ErrorIs(t, err, minifserrors.ErrNotFound)
}

func TestRemoveLeavesBlockAllocated(t *testing.T) {
	store := newMemStore()
	var blocks [layout.MaxDirectPointers]uint32

	blocks, _, err := dirent.Insert(store, store, blocks, 3, "a")
	require.NoError(t, err)

	shrank, err := dirent.Remove(store, blocks, "a")
	require.NoError(t, err)
	assert.EqualValues(t, layout.DirentSize, shrank)

	empty, err := dirent.IsEmpty(store, blocks)
	require.NoError(t, err)
	assert.True(t, empty)
	assert.NotZero(t, blocks[0], "the data block itself should remain allocated")
}

func TestInsertDirectoryFull(t *testing.T) {
	store := newMemStore()
	var blocks [layout.MaxDirectPointers]uint32

	for i := 0; i < layout.MaxDirectoryEntries; i++ {
		var err error
		blocks, _, err = dirent.Insert(store, store, blocks, uint32(i+1), nameFor(i))
		require.NoError(t, err)
	}

	_, _, err := dirent.Insert(store, store, blocks, 9999, "overflow")
	assert.ErrorIs(t, err, minifserrors.ErrNoSpace)
}

func nameFor(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz0123456789"
	b := make([]byte, 4)
	for j := range b {
		b[j] = letters[(i+j)%len(letters)]
	}
	return string(b)
}

func TestListOrderIsBlockThenSlot(t *testing.T) {
	store := newMemStore()
	var blocks [layout.MaxDirectPointers]uint32

	blocks, _, err := dirent.Insert(store, store, blocks, 1, "first")
	require.NoError(t, err)
	blocks, _, err = dirent.Insert(store, store, blocks, 2, "second")
	require.NoError(t, err)

	entries, err := dirent.List(store, blocks)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "first", entries[0].Name)
	assert.Equal(t, "second", entries[1].Name)
}
