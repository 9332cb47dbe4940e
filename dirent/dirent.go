// Package dirent implements the directory encoding (spec.md §4.5): a
// directory inode's data blocks hold a packed array of fixed-size
// (inum, name) entries. It is grounded on the original fs.c's
// find_dir_entry and the entry-insertion loop inlined in mkdir_fs, pulled
// out into reusable Insert/Remove/Find operations shared by every
// directory-mutating operation in the minifs package.
package dirent

import (
	"encoding/binary"

	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/layout"
)

// Entry is the decoded form of one 32-byte on-disk directory entry.
type Entry struct {
	Inum uint32
	Name string
}

// BlockAllocator is the subset of bitmap.Allocator that Insert needs in
// order to grow a directory by one block.
type BlockAllocator interface {
	Allocate() (uint, error)
}

// Store is the subset of blockdev.Device that dirent operations need.
type Store interface {
	ReadBlock(n uint) ([]byte, error)
	WriteBlock(n uint, data []byte) error
}

func encode(e Entry) []byte {
	buf := make([]byte, layout.DirentSize)
	binary.LittleEndian.PutUint32(buf[0:4], e.Inum)
	copy(buf[4:4+layout.DirentNameSize-1], e.Name) // leaves room for the null terminator and any zero padding
	return buf
}

func decode(buf []byte) Entry {
	inum := binary.LittleEndian.Uint32(buf[0:4])
	nameBytes := buf[4 : 4+layout.DirentNameSize]
	nul := len(nameBytes)
	for i, b := range nameBytes {
		if b == 0 {
			nul = i
			break
		}
	}
	return Entry{Inum: inum, Name: string(nameBytes[:nul])}
}

// Find scans directBlocks in order, and within each block scans entries
// in order, returning the first live entry (inum != 0) whose name
// matches byte-for-byte. Returns minifserrors.ErrNotFound if absent.
func Find(store Store, directBlocks [layout.MaxDirectPointers]uint32, name string) (Entry, error) {
	for _, blockNum := range directBlocks {
		if blockNum == 0 {
			continue
		}

		raw, err := store.ReadBlock(uint(blockNum))
		if err != nil {
			return Entry{}, minifserrors.ErrIOError.Wrap(err)
		}

		for slot := 0; slot < layout.DirentsPerBlock(); slot++ {
			off := slot * layout.DirentSize
			e := decode(raw[off : off+layout.DirentSize])
			if e.Inum != 0 && e.Name == name {
				return e, nil
			}
		}
	}
	return Entry{}, minifserrors.ErrNotFound
}

// List returns every live entry across directBlocks, in block-index then
// slot-index order (spec.md §4.6 ls).
func List(store Store, directBlocks [layout.MaxDirectPointers]uint32) ([]Entry, error) {
	var out []Entry
	for _, blockNum := range directBlocks {
		if blockNum == 0 {
			continue
		}

		raw, err := store.ReadBlock(uint(blockNum))
		if err != nil {
			return nil, minifserrors.ErrIOError.Wrap(err)
		}

		for slot := 0; slot < layout.DirentsPerBlock(); slot++ {
			off := slot * layout.DirentSize
			e := decode(raw[off : off+layout.DirentSize])
			if e.Inum != 0 {
				out = append(out, e)
			}
		}
	}
	return out, nil
}

// IsEmpty reports whether directBlocks contains no live entries.
func IsEmpty(store Store, directBlocks [layout.MaxDirectPointers]uint32) (bool, error) {
	entries, err := List(store, directBlocks)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

// Insert adds (inum, name) to the directory described by directBlocks,
// allocating a new block via alloc when an existing slot's block is
// exhausted or missing. It returns the updated direct block array (with
// any newly allocated block recorded) and the number of bytes the
// directory's inode size should grow by, or
// minifserrors.ErrNoSpace if all MaxDirectoryEntries slots are full.
func Insert(
	store Store,
	alloc BlockAllocator,
	directBlocks [layout.MaxDirectPointers]uint32,
	inum uint32,
	name string,
) ([layout.MaxDirectPointers]uint32, uint32, error) {
	if len(name) == 0 || len(name) > layout.MaxFilenameLen {
		return directBlocks, 0, minifserrors.ErrInvalidPath.WithMessage("entry name length out of bounds")
	}

	for i, blockNum := range directBlocks {
		var raw []byte
		var err error

		if blockNum == 0 {
			newBlock, allocErr := alloc.Allocate()
			if allocErr != nil {
				return directBlocks, 0, allocErr
			}
			blockNum = uint32(newBlock)
			directBlocks[i] = blockNum
			raw = make([]byte, layout.BlockSize)
		} else {
			raw, err = store.ReadBlock(uint(blockNum))
			if err != nil {
				return directBlocks, 0, minifserrors.ErrIOError.Wrap(err)
			}
		}

		for slot := 0; slot < layout.DirentsPerBlock(); slot++ {
			off := slot * layout.DirentSize
			existing := decode(raw[off : off+layout.DirentSize])
			if existing.Inum == 0 {
				copy(raw[off:off+layout.DirentSize], encode(Entry{Inum: inum, Name: name}))
				if err := store.WriteBlock(uint(blockNum), raw); err != nil {
					return directBlocks, 0, minifserrors.ErrIOError.Wrap(err)
				}
				return directBlocks, layout.DirentSize, nil
			}
		}
	}

	return directBlocks, 0, minifserrors.ErrNoSpace.WithMessage("directory has no free entry slots")
}

// Remove clears the entry named name, leaving its data block allocated
// (the block is not reclaimed even if it becomes entirely empty; this is
// permitted slack per spec.md §4.5). Returns the number of bytes the
// directory's inode size should shrink by.
func Remove(store Store, directBlocks [layout.MaxDirectPointers]uint32, name string) (uint32, error) {
	for _, blockNum := range directBlocks {
		if blockNum == 0 {
			continue
		}

		raw, err := store.ReadBlock(uint(blockNum))
		if err != nil {
			return 0, minifserrors.ErrIOError.Wrap(err)
		}

		for slot := 0; slot < layout.DirentsPerBlock(); slot++ {
			off := slot * layout.DirentSize
			e := decode(raw[off : off+layout.DirentSize])
			if e.Inum != 0 && e.Name == name {
				clear(raw[off : off+layout.DirentSize])
				if err := store.WriteBlock(uint(blockNum), raw); err != nil {
					return 0, minifserrors.ErrIOError.Wrap(err)
				}
				return layout.DirentSize, nil
			}
		}
	}
	return 0, minifserrors.ErrNotFound
}
