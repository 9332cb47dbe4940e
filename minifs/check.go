package minifs

import (
	"fmt"

	"github.com/dalci22/minifs/dirent"
	"github.com/dalci22/minifs/layout"
	"github.com/hashicorp/go-multierror"
)

// Check walks the full inode table and data-block bitmap and reports every
// violation of the quantified invariants in spec.md §8 it can find: each
// violation is appended to a *multierror.Error rather than stopping at the
// first one, so a single Check call surfaces the whole picture of an
// on-disk image instead of one invariant at a time. It does not mutate
// anything; this is not an fsck repair tool, only a diagnostic.
func (fs *FileSystem) Check() error {
	var result *multierror.Error

	root, err := fs.inodes.Read(layout.RootInode)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("reading root inode: %w", err))
	} else {
		if !root.IsValid {
			result = multierror.Append(result, fmt.Errorf("root inode is not valid"))
		}
		if !root.IsDirectory {
			result = multierror.Append(result, fmt.Errorf("root inode is not a directory"))
		}
	}

	owner := make(map[uint32]int) // data block -> owning inode index
	for idx := 0; idx < layout.InodeCount; idx++ {
		in, err := fs.inodes.Read(idx)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("reading inode %d: %w", idx, err))
			continue
		}
		if !in.IsValid {
			continue
		}

		seenInThisInode := make(map[uint32]bool)
		for slot, b := range in.DirectBlocks {
			if b == 0 {
				continue
			}
			if b < layout.DataBlockStart || b >= layout.BlockCount {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d direct_blocks[%d]=%d out of range [%d, %d)",
					idx, slot, b, layout.DataBlockStart, layout.BlockCount))
				continue
			}
			if seenInThisInode[b] {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d references block %d twice", idx, b))
			}
			seenInThisInode[b] = true

			if prevIdx, taken := owner[b]; taken && prevIdx != idx {
				result = multierror.Append(result, fmt.Errorf(
					"data block %d claimed by both inode %d and inode %d", b, prevIdx, idx))
			}
			owner[b] = idx

			free, err := fs.bitmap.IsFree(uint(b))
			if err != nil {
				result = multierror.Append(result, err)
			} else if free {
				result = multierror.Append(result, fmt.Errorf(
					"inode %d references block %d but its bitmap bit is clear", idx, b))
			}
		}

		if in.IsDirectory {
			entries, err := dirent.List(fs.device, in.DirectBlocks)
			if err != nil {
				result = multierror.Append(result, fmt.Errorf("listing inode %d: %w", idx, err))
			} else {
				seenNames := make(map[string]bool)
				for _, e := range entries {
					if e.Name == "" || len(e.Name) > layout.MaxFilenameLen {
						result = multierror.Append(result, fmt.Errorf(
							"inode %d has entry with invalid name length %q", idx, e.Name))
					}
					if seenNames[e.Name] {
						result = multierror.Append(result, fmt.Errorf(
							"inode %d has duplicate entry name %q", idx, e.Name))
					}
					seenNames[e.Name] = true

					target, err := fs.inodes.Read(int(e.Inum))
					if err != nil || !target.IsValid {
						result = multierror.Append(result, fmt.Errorf(
							"inode %d entry %q points to invalid inode %d", idx, e.Name, e.Inum))
					}
				}
			}
		}
	}

	for bnum := uint(layout.DataBlockStart); bnum < layout.BlockCount; bnum++ {
		free, err := fs.bitmap.IsFree(bnum)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		if !free {
			if _, claimed := owner[uint32(bnum)]; !claimed {
				result = multierror.Append(result, fmt.Errorf(
					"block %d is marked used but no inode references it", bnum))
			}
		}
	}

	return result.ErrorOrNil()
}
