// Package layout holds the compiled-in geometry constants that define
// MiniFS's on-disk contract. Nothing here is read from a config file or
// environment variable: the layout is fixed, exactly as the original
// fs.h compiled it in as preprocessor defines.
package layout

const (
	// BlockSize is the length of a block, in bytes.
	BlockSize = 1024
	// BlockCount is the total number of blocks on a MiniFS device.
	BlockCount = 1024

	// Magic identifies a block 0 as holding a valid MiniFS superblock.
	Magic uint32 = 0xF00DBEEF

	// BitmapBlock is the block holding the free/used bitmap for data blocks.
	BitmapBlock = 1

	// InodeStart is the first block of the inode table.
	InodeStart = 2
	// InodeBlocks is the number of blocks occupied by the inode table.
	InodeBlocks = 9
	// InodeCount is the total number of inodes the table holds.
	InodeCount = 128

	// DataBlockStart is the first block number available for allocation.
	DataBlockStart = InodeStart + InodeBlocks // 2 + 9 = 11
	// DataBlockCount is the number of data blocks available for allocation.
	DataBlockCount = BlockCount - DataBlockStart

	// MaxDirectPointers is the number of direct block pointers per inode.
	MaxDirectPointers = 4
	// MaxFilenameLen is the maximum length of a filename, excluding the
	// null terminator.
	MaxFilenameLen = 27

	// MaxPathComponents bounds the number of components split_path will
	// accept in a single path.
	MaxPathComponents = 64

	// RootInode is the inode number of the file system root; it is always
	// valid and always a directory.
	RootInode = 0

	// MaxWriteSize is the largest number of bytes write() will accept,
	// derived from MaxDirectPointers * BlockSize.
	MaxWriteSize = MaxDirectPointers * BlockSize

	// MaxDirectoryEntries is the maximum number of live entries a single
	// directory can hold: one full block of entries per direct pointer.
	MaxDirectoryEntries = MaxDirectPointers * (BlockSize / DirentSize)

	// InodeSize is the packed, on-disk size of a single inode record:
	// size(4) + direct_blocks[4](16) + is_valid(1) + is_directory(1) + padding(2).
	InodeSize = 24

	// DirentSize is the packed, on-disk size of a single directory entry:
	// inum(4) + name(28).
	DirentSize = 32
	// DirentNameSize is the width of the name field in a directory entry,
	// including its null terminator (MaxFilenameLen + 1).
	DirentNameSize = MaxFilenameLen + 1
)

// InodesPerBlock is recomputed from BlockSize and InodeSize rather than
// hardcoded, per the on-disk contract's requirement that implementations
// not bake in the value 42.
func InodesPerBlock() int {
	return BlockSize / InodeSize
}

// DirentsPerBlock is recomputed from BlockSize and DirentSize.
func DirentsPerBlock() int {
	return BlockSize / DirentSize
}
