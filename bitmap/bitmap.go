// Package bitmap implements the in-memory shadow of the data-block free
// bitmap (spec.md §4.2). It is grounded on the teacher's
// drivers/common/allocatormap.go, which wraps github.com/boljen/go-bitmap
// the same way: lowest-index-first allocation, with every Allocate and
// Free persisted immediately so there's no deferred flush to reason about.
// MarkUsed and MarkFree change only the shadow; Save persists it.
package bitmap

import (
	"fmt"

	"github.com/boljen/go-bitmap"
	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/layout"
)

// Store is the subset of blockdev.Device that the allocator needs to load
// and save its shadow. Declared as an interface so bitmap can be tested
// without depending on the blockdev package.
type Store interface {
	ReadBlock(n uint) ([]byte, error)
	WriteBlock(n uint, data []byte) error
}

// Allocator is the in-memory shadow of block 1, the data-block bitmap.
// Bit i corresponds to data block layout.DataBlockStart+i.
type Allocator struct {
	shadow bitmap.Bitmap
	store  Store
}

// New creates an Allocator over an all-zero (fully-free) shadow. Callers
// that are opening an existing device must call Load immediately after.
func New(store Store) *Allocator {
	return &Allocator{
		shadow: bitmap.New(layout.DataBlockCount),
		store:  store,
	}
}

// Load reads block 1 from the store into the shadow.
func (a *Allocator) Load() error {
	data, err := a.store.ReadBlock(layout.BitmapBlock)
	if err != nil {
		return minifserrors.ErrIOError.Wrap(err)
	}
	a.shadow = bitmap.Bitmap(data)
	return nil
}

// Save writes the shadow back to block 1.
func (a *Allocator) Save() error {
	buf := make([]byte, layout.BlockSize)
	copy(buf, a.shadow)
	if err := a.store.WriteBlock(layout.BitmapBlock, buf); err != nil {
		return minifserrors.ErrIOError.Wrap(err)
	}
	return nil
}

func bitIndex(bnum uint) (int, error) {
	if bnum < layout.DataBlockStart || bnum >= layout.BlockCount {
		return 0, minifserrors.ErrOutOfRange.WithMessage(
			fmt.Sprintf("block %d not in range [%d, %d)", bnum, layout.DataBlockStart, layout.BlockCount))
	}
	return int(bnum - layout.DataBlockStart), nil
}

// IsFree reports whether bnum is currently unallocated.
func (a *Allocator) IsFree(bnum uint) (bool, error) {
	bit, err := bitIndex(bnum)
	if err != nil {
		return false, err
	}
	return !a.shadow.Get(bit), nil
}

// MarkUsed sets bnum's bit without persisting. Exposed for callers that
// want to rebuild the shadow from scratch; nothing in this module calls it.
func (a *Allocator) MarkUsed(bnum uint) error {
	bit, err := bitIndex(bnum)
	if err != nil {
		return err
	}
	a.shadow.Set(bit, true)
	return nil
}

// MarkFree clears bnum's bit without persisting.
func (a *Allocator) MarkFree(bnum uint) error {
	bit, err := bitIndex(bnum)
	if err != nil {
		return err
	}
	a.shadow.Set(bit, false)
	return nil
}

// Allocate scans [0, DataBlockCount) in ascending order for the first
// free bit, marks it used, persists the bitmap, and returns its block
// number. Returns minifserrors.ErrNoSpace if the device is full.
func (a *Allocator) Allocate() (uint, error) {
	for i := 0; i < layout.DataBlockCount; i++ {
		if !a.shadow.Get(i) {
			a.shadow.Set(i, true)
			bnum := uint(i) + layout.DataBlockStart
			if err := a.Save(); err != nil {
				return 0, err
			}
			return bnum, nil
		}
	}
	return 0, minifserrors.ErrNoSpace.WithMessage("data block bitmap is full")
}

// Free marks bnum free and persists the bitmap.
func (a *Allocator) Free(bnum uint) error {
	if err := a.MarkFree(bnum); err != nil {
		return err
	}
	return a.Save()
}

// Snapshot returns a copy of the shadow's raw bytes. Nothing in this
// module calls it; the consistency checker queries bits through IsFree.
func (a *Allocator) Snapshot() []byte {
	out := make([]byte, len(a.shadow))
	copy(out, a.shadow)
	return out
}
