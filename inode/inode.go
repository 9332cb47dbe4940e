// Package inode implements the fixed-count inode table (spec.md §4.3):
// blocks layout.InodeStart..layout.InodeStart+layout.InodeBlocks, packed
// row-major with layout.InodesPerBlock() records per block. It is
// grounded on the original fs.c's read_inode/write_inode/allocate_inode/
// free_inode, generalized from global functions operating on a single
// package-level device handle into methods on a Table bound to a Store.
package inode

import (
	"encoding/binary"
	"fmt"

	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/layout"
)

// Store is the subset of blockdev.Device the table needs.
type Store interface {
	ReadBlock(n uint) ([]byte, error)
	WriteBlock(n uint, data []byte) error
}

// Inode is the decoded, in-memory form of one 24-byte on-disk record.
type Inode struct {
	Size         uint32
	DirectBlocks [layout.MaxDirectPointers]uint32
	IsValid      bool
	IsDirectory  bool
}

// Table is the inode table, bound to a backing Store.
type Table struct {
	store Store
}

// NewTable binds a Table to store. The table holds no state of its own;
// every call reads or writes the store directly, matching the original's
// lack of an inode cache.
func NewTable(store Store) *Table {
	return &Table{store: store}
}

func locate(idx int) (block uint, slot int, err error) {
	if idx < 0 || idx >= layout.InodeCount {
		return 0, 0, minifserrors.ErrOutOfRange.WithMessage(
			fmt.Sprintf("inode index %d not in range [0, %d)", idx, layout.InodeCount))
	}
	perBlock := layout.InodesPerBlock()
	block = layout.InodeStart + uint(idx/perBlock)
	slot = idx % perBlock
	return block, slot, nil
}

func encode(in Inode) []byte {
	buf := make([]byte, layout.InodeSize)
	binary.LittleEndian.PutUint32(buf[0:4], in.Size)
	for i, b := range in.DirectBlocks {
		binary.LittleEndian.PutUint32(buf[4+i*4:8+i*4], b)
	}
	if in.IsValid {
		buf[20] = 1
	}
	if in.IsDirectory {
		buf[21] = 1
	}
	// buf[22:24] is the zero padding field.
	return buf
}

func decode(buf []byte) Inode {
	var in Inode
	in.Size = binary.LittleEndian.Uint32(buf[0:4])
	for i := range in.DirectBlocks {
		in.DirectBlocks[i] = binary.LittleEndian.Uint32(buf[4+i*4 : 8+i*4])
	}
	in.IsValid = buf[20] != 0
	in.IsDirectory = buf[21] != 0
	return in
}

// Read returns the inode at idx.
func (t *Table) Read(idx int) (Inode, error) {
	block, slot, err := locate(idx)
	if err != nil {
		return Inode{}, err
	}

	raw, err := t.store.ReadBlock(block)
	if err != nil {
		return Inode{}, minifserrors.ErrIOError.Wrap(err)
	}

	offset := slot * layout.InodeSize
	return decode(raw[offset : offset+layout.InodeSize]), nil
}

// Write stores in at idx, read-modify-writing the host block so the
// other InodesPerBlock()-1 slots in that block are preserved.
func (t *Table) Write(idx int, in Inode) error {
	block, slot, err := locate(idx)
	if err != nil {
		return err
	}

	raw, err := t.store.ReadBlock(block)
	if err != nil {
		return minifserrors.ErrIOError.Wrap(err)
	}

	offset := slot * layout.InodeSize
	copy(raw[offset:offset+layout.InodeSize], encode(in))

	if err := t.store.WriteBlock(block, raw); err != nil {
		return minifserrors.ErrIOError.Wrap(err)
	}
	return nil
}

// Allocate scans ascending for the lowest-index free (is_valid=0) inode,
// initializes it as an empty regular file, persists it, and returns its
// index. Returns minifserrors.ErrNoInodes if the table is full.
func (t *Table) Allocate() (int, error) {
	for i := 0; i < layout.InodeCount; i++ {
		in, err := t.Read(i)
		if err != nil {
			return 0, err
		}
		if !in.IsValid {
			fresh := Inode{IsValid: true, IsDirectory: false, Size: 0}
			if err := t.Write(i, fresh); err != nil {
				return 0, err
			}
			return i, nil
		}
	}
	return 0, minifserrors.ErrNoInodes
}

// Free marks idx as unused. It does not free the inode's data blocks;
// callers must free them first via the bitmap allocator.
func (t *Table) Free(idx int) error {
	in, err := t.Read(idx)
	if err != nil {
		return err
	}
	in.IsValid = false
	return t.Write(idx, in)
}
