// Package minifs ties the superblock, bitmap, inode table, directory
// encoding, and path resolver together into the public operations
// (spec.md §4.6-4.8): mkfs, init/cleanup, create, write, read, delete,
// mkdir, rmdir, ls. It is grounded on the original fs.c, which keeps the
// same pieces as module-level globals manipulated by free functions; here
// they're fields owned by a single FileSystem value constructed by Mkfs
// or Init and released by Close, per spec.md §9's "process-wide bitmap
// shadow" design note.
package minifs

import (
	"github.com/dalci22/minifs/bitmap"
	"github.com/dalci22/minifs/blockdev"
	"github.com/dalci22/minifs/dirent"
	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/inode"
	"github.com/dalci22/minifs/layout"
	"github.com/dalci22/minifs/pathresolve"
	"github.com/dalci22/minifs/superblock"
)

// Entry is one (inum, name) pair as returned by List.
type Entry struct {
	Inum uint32
	Name string
}

// FileSystem is a live, mounted MiniFS: a device, its superblock, and the
// bitmap shadow loaded from it, together with an inode table bound to
// the same device. There is no operation queue or lock — per spec.md §5,
// every public method runs to completion before the next call begins.
type FileSystem struct {
	device *blockdev.Device
	super  superblock.SuperBlock
	bitmap *bitmap.Allocator
	inodes *inode.Table
}

// Mkfs formats path as a fresh MiniFS device (spec.md §4.7): zero-fill,
// fresh superblock, zero bitmap, zero inode table, and an initialized
// root inode. It returns a FileSystem already mounted on the freshly
// formatted device, so callers don't need a separate Init call.
func Mkfs(path string) (*FileSystem, error) {
	device, err := blockdev.CreateZeroed(path)
	if err != nil {
		return nil, minifserrors.ErrIOError.Wrap(err)
	}
	return mkfsOnDevice(device)
}

// MkfsMemory formats an in-memory device, for tests that don't want to
// touch the host filesystem.
func MkfsMemory() (*FileSystem, error) {
	return mkfsOnDevice(blockdev.NewMemoryDevice())
}

func mkfsOnDevice(device *blockdev.Device) (*FileSystem, error) {
	if err := superblock.WriteFresh(device); err != nil {
		device.Close()
		return nil, err
	}

	alloc := bitmap.New(device)
	if err := alloc.Save(); err != nil {
		device.Close()
		return nil, err
	}

	table := inode.NewTable(device)
	for b := uint(layout.InodeStart); b < layout.InodeStart+layout.InodeBlocks; b++ {
		if err := device.WriteBlock(b, make([]byte, layout.BlockSize)); err != nil {
			device.Close()
			return nil, minifserrors.ErrIOError.Wrap(err)
		}
	}

	root := inode.Inode{IsValid: true, IsDirectory: true}
	if err := table.Write(layout.RootInode, root); err != nil {
		device.Close()
		return nil, err
	}

	super, err := superblock.ReadAndValidate(device)
	if err != nil {
		device.Close()
		return nil, err
	}

	return &FileSystem{device: device, super: super, bitmap: alloc, inodes: table}, nil
}

// Init opens an existing device at path, validates its superblock, and
// loads the bitmap shadow (spec.md §4.8). Returns ErrNotFormatted (via
// the wrapped ErrBadMagic/ErrBadGeometry) when path does not hold a
// valid MiniFS image.
func Init(path string) (*FileSystem, error) {
	device, err := blockdev.OpenFile(path)
	if err != nil {
		return nil, minifserrors.ErrNotFormatted.Wrap(err)
	}

	super, err := superblock.ReadAndValidate(device)
	if err != nil {
		device.Close()
		return nil, minifserrors.ErrNotFormatted.Wrap(err)
	}

	alloc := bitmap.New(device)
	if err := alloc.Load(); err != nil {
		device.Close()
		return nil, err
	}

	table := inode.NewTable(device)
	return &FileSystem{device: device, super: super, bitmap: alloc, inodes: table}, nil
}

// Close releases the underlying device (spec.md §4.8's cleanup).
func (fs *FileSystem) Close() error {
	return fs.device.Close()
}

// Superblock returns the geometry read and validated at Mkfs/Init.
func (fs *FileSystem) Superblock() superblock.SuperBlock {
	return fs.super
}

// Mkdir creates an empty directory at path (spec.md §4.6).
func (fs *FileSystem) Mkdir(path string) error {
	return fs.createEntry(path, true)
}

// Create creates an empty regular file at path (spec.md §4.6).
func (fs *FileSystem) Create(path string) error {
	return fs.createEntry(path, false)
}

func (fs *FileSystem) createEntry(path string, isDirectory bool) error {
	parentIdx, err := pathresolve.Resolve(fs.device, fs.inodes, path, true)
	if err != nil {
		return err
	}
	name, err := pathresolve.Basename(path)
	if err != nil {
		return err
	}

	parent, err := fs.inodes.Read(int(parentIdx))
	if err != nil {
		return err
	}
	if !parent.IsValid || !parent.IsDirectory {
		return minifserrors.ErrNotADirectory
	}

	if _, err := dirent.Find(fs.device, parent.DirectBlocks, name); err == nil {
		return minifserrors.ErrAlreadyExists
	}

	newIdx, err := fs.inodes.Allocate()
	if err != nil {
		return err
	}
	fresh, err := fs.inodes.Read(newIdx)
	if err != nil {
		return err
	}
	fresh.IsDirectory = isDirectory
	if err := fs.inodes.Write(newIdx, fresh); err != nil {
		return err
	}

	newBlocks, grew, err := dirent.Insert(fs.device, fs.bitmap, parent.DirectBlocks, uint32(newIdx), name)
	if err != nil {
		return err
	}
	parent.DirectBlocks = newBlocks
	parent.Size += grew
	return fs.inodes.Write(int(parentIdx), parent)
}

// Write overwrites path's contents with data (spec.md §4.6): the file's
// existing direct blocks are freed, then a fresh chain is allocated and
// written. Returns ErrTooLarge if len(data) exceeds layout.MaxWriteSize.
func (fs *FileSystem) Write(path string, data []byte) (int, error) {
	if len(data) > layout.MaxWriteSize {
		return 0, minifserrors.ErrTooLarge
	}

	idx, err := pathresolve.Resolve(fs.device, fs.inodes, path, false)
	if err != nil {
		return 0, err
	}
	in, err := fs.inodes.Read(int(idx))
	if err != nil {
		return 0, err
	}
	if !in.IsValid || in.IsDirectory {
		return 0, minifserrors.ErrIsADirectory
	}

	for i, b := range in.DirectBlocks {
		if b != 0 {
			if err := fs.bitmap.Free(uint(b)); err != nil {
				return 0, err
			}
			in.DirectBlocks[i] = 0
		}
	}

	remaining := len(data)
	offset := 0
	for k := 0; remaining > 0; k++ {
		bnum, err := fs.bitmap.Allocate()
		if err != nil {
			// Partial chain left in place; §7 accepts this as a
			// documented limitation rather than rolling back.
			fs.inodes.Write(int(idx), in)
			return 0, err
		}

		chunk := make([]byte, layout.BlockSize)
		n := copy(chunk, data[offset:])
		if err := fs.device.WriteBlock(bnum, chunk); err != nil {
			return 0, minifserrors.ErrIOError.Wrap(err)
		}
		in.DirectBlocks[k] = uint32(bnum)
		offset += n
		remaining -= n
	}

	in.Size = uint32(len(data))
	if err := fs.inodes.Write(int(idx), in); err != nil {
		return 0, err
	}
	return len(data), nil
}

// Read fills buf with up to len(buf) bytes of path's contents (spec.md
// §4.6), stopping early at an unallocated direct block slot. It returns
// the number of bytes actually delivered.
func (fs *FileSystem) Read(path string, buf []byte) (int, error) {
	idx, err := pathresolve.Resolve(fs.device, fs.inodes, path, false)
	if err != nil {
		return 0, err
	}
	in, err := fs.inodes.Read(int(idx))
	if err != nil {
		return 0, err
	}
	if !in.IsValid || in.IsDirectory {
		return 0, minifserrors.ErrIsADirectory
	}

	want := len(buf)
	if int(in.Size) < want {
		want = int(in.Size)
	}

	delivered := 0
	for _, b := range in.DirectBlocks {
		if delivered >= want {
			break
		}
		if b == 0 {
			break
		}
		raw, err := fs.device.ReadBlock(uint(b))
		if err != nil {
			return delivered, minifserrors.ErrIOError.Wrap(err)
		}
		n := copy(buf[delivered:want], raw)
		delivered += n
	}
	return delivered, nil
}

// Delete removes the regular file at path (spec.md §4.6). Calling it on
// a directory fails IsADirectory; use Rmdir instead.
func (fs *FileSystem) Delete(path string) error {
	return fs.remove(path, false)
}

// Rmdir removes the empty directory at path (spec.md §4.6). Fails
// ErrNotEmpty if the directory has any live entry, and ErrInvalidPath
// for "/" since split_path("/") yields zero components.
func (fs *FileSystem) Rmdir(path string) error {
	return fs.remove(path, true)
}

func (fs *FileSystem) remove(path string, wantDirectory bool) error {
	parentIdx, err := pathresolve.Resolve(fs.device, fs.inodes, path, true)
	if err != nil {
		return err
	}
	name, err := pathresolve.Basename(path)
	if err != nil {
		return err
	}

	parent, err := fs.inodes.Read(int(parentIdx))
	if err != nil {
		return err
	}

	targetIdx, err := pathresolve.Resolve(fs.device, fs.inodes, path, false)
	if err != nil {
		return err
	}
	target, err := fs.inodes.Read(int(targetIdx))
	if err != nil {
		return err
	}
	if !target.IsValid {
		return minifserrors.ErrNotFound
	}
	if wantDirectory && !target.IsDirectory {
		return minifserrors.ErrNotADirectory
	}
	if !wantDirectory && target.IsDirectory {
		return minifserrors.ErrIsADirectory
	}

	if target.IsDirectory {
		empty, err := dirent.IsEmpty(fs.device, target.DirectBlocks)
		if err != nil {
			return err
		}
		if !empty {
			return minifserrors.ErrNotEmpty
		}
	}

	for i, b := range target.DirectBlocks {
		if b != 0 {
			if err := fs.bitmap.Free(uint(b)); err != nil {
				return err
			}
			target.DirectBlocks[i] = 0
		}
	}
	target.IsValid = false
	if err := fs.inodes.Write(int(targetIdx), target); err != nil {
		return err
	}

	shrank, err := dirent.Remove(fs.device, parent.DirectBlocks, name)
	if err != nil {
		return err
	}
	parent.Size -= shrank
	return fs.inodes.Write(int(parentIdx), parent)
}

// List returns path's directory entries in block-then-slot order
// (spec.md §4.6 ls).
func (fs *FileSystem) List(path string) ([]Entry, error) {
	idx, err := pathresolve.Resolve(fs.device, fs.inodes, path, false)
	if err != nil {
		return nil, err
	}
	in, err := fs.inodes.Read(int(idx))
	if err != nil {
		return nil, err
	}
	if !in.IsValid || !in.IsDirectory {
		return nil, minifserrors.ErrNotADirectory
	}

	raw, err := dirent.List(fs.device, in.DirectBlocks)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, len(raw))
	for i, e := range raw {
		out[i] = Entry{Inum: e.Inum, Name: e.Name}
	}
	return out, nil
}
