package bitmap_test

import (
	"testing"

	"github.com/dalci22/minifs/bitmap"
	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/layout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	blocks map[uint][]byte
}

func newMemStore() *memStore {
	return &memStore{blocks: map[uint][]byte{}}
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

func TestAllocateIsLowestIndexFirst(t *testing.T) {
	store := newMemStore()
	alloc := bitmap.New(store)
	require.NoError(t, alloc.Load())

	first, err := alloc.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, layout.DataBlockStart, first)

	second, err := alloc.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, layout.DataBlockStart+1, second)

	require.NoError(t, alloc.Free(first))

	third, err := alloc.Allocate()
	require.NoError(t, err)
	assert.EqualValues(t, first, third, "freed block should be reused before a new one")
}

func TestAllocateExhaustion(t *testing.T) {
	store := newMemStore()
	alloc := bitmap.New(store)
	require.NoError(t, alloc.Load())

	for i := 0; i < layout.DataBlockCount; i++ {
		_, err := alloc.Allocate()
		require.NoError(t, err)
	}

	_, err := alloc.Allocate()
	assert.ErrorIs(t, err, minifserrors.ErrNoSpace)
}

func TestIsFreeOutOfRange(t *testing.T) {
	store := newMemStore()
	alloc := bitmap.New(store)
	require.NoError(t, alloc.Load())

	_, err := alloc.IsFree(layout.DataBlockStart - 1)
	assert.Error(t, err)

	_, err = alloc.IsFree(layout.BlockCount)
	assert.Error(t, err)
}

func TestPersistsAcrossLoad(t *testing.T) {
	store := newMemStore()
	alloc := bitmap.New(store)
	require.NoError(t, alloc.Load())

	bnum, err := alloc.Allocate()
	require.NoError(t, err)

	reloaded := bitmap.New(store)
	require.NoError(t, reloaded.Load())

	free, err := reloaded.IsFree(bnum)
	require.NoError(t, err)
	assert.False(t, free, "allocation should have been persisted")
}
