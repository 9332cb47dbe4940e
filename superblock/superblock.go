// Package superblock implements the codec for block 0 (spec.md §4.1): it
// serializes and validates the fixed header that identifies a device as a
// MiniFS image. Fields are written field-by-field with encoding/binary
// in little-endian order rather than relying on native struct layout,
// per the on-disk contract's packed-structure requirement.
package superblock

import (
	"bytes"
	"encoding/binary"

	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/layout"
	"github.com/noxer/bytewriter"
)

// Store is the subset of blockdev.Device the codec needs.
type Store interface {
	ReadBlock(n uint) ([]byte, error)
	WriteBlock(n uint, data []byte) error
}

// SuperBlock is the decoded form of block 0.
type SuperBlock struct {
	Magic        uint32
	BlockSize    uint32
	FSSizeBlocks uint32
	InodeStart   uint32
	InodeCount   uint32
	DataStart    uint32
}

// Fresh returns the superblock a newly formatted device should carry.
func Fresh() SuperBlock {
	return SuperBlock{
		Magic:        layout.Magic,
		BlockSize:    layout.BlockSize,
		FSSizeBlocks: layout.BlockCount,
		InodeStart:   layout.InodeStart,
		InodeCount:   layout.InodeCount,
		DataStart:    layout.DataBlockStart,
	}
}

// encode packs sb into a full-block buffer, zero-padded after the 24
// used bytes. It writes through a bytewriter.Writer so each field is
// bounds-checked against the fixed block buffer as it's written, unlike
// the on-disk inode and directory codecs, which write at manual byte
// offsets.
func encode(sb SuperBlock) ([]byte, error) {
	buf := make([]byte, layout.BlockSize)
	w := bytewriter.New(buf)

	for _, field := range []uint32{
		sb.Magic, sb.BlockSize, sb.FSSizeBlocks, sb.InodeStart, sb.InodeCount, sb.DataStart,
	} {
		if err := binary.Write(w, binary.LittleEndian, field); err != nil {
			return nil, minifserrors.ErrIOError.Wrap(err)
		}
	}
	return buf, nil
}

func decode(buf []byte) (SuperBlock, error) {
	r := bytes.NewReader(buf)
	var sb SuperBlock
	for _, field := range []*uint32{
		&sb.Magic, &sb.BlockSize, &sb.FSSizeBlocks, &sb.InodeStart, &sb.InodeCount, &sb.DataStart,
	} {
		if err := binary.Read(r, binary.LittleEndian, field); err != nil {
			return SuperBlock{}, minifserrors.ErrIOError.Wrap(err)
		}
	}
	return sb, nil
}

// WriteFresh writes a fresh superblock to block 0 (spec.md §4.1, §4.7
// step 3).
func WriteFresh(store Store) error {
	buf, err := encode(Fresh())
	if err != nil {
		return err
	}
	if err := store.WriteBlock(0, buf); err != nil {
		return minifserrors.ErrIOError.Wrap(err)
	}
	return nil
}

// ReadAndValidate reads block 0 and checks that its magic number and
// geometry constants match the ones compiled into this binary.
func ReadAndValidate(store Store) (SuperBlock, error) {
	raw, err := store.ReadBlock(0)
	if err != nil {
		return SuperBlock{}, minifserrors.ErrIOError.Wrap(err)
	}

	sb, err := decode(raw)
	if err != nil {
		return SuperBlock{}, err
	}

	if sb.Magic != layout.Magic {
		return SuperBlock{}, minifserrors.ErrBadMagic
	}

	want := Fresh()
	if sb.BlockSize != want.BlockSize ||
		sb.FSSizeBlocks != want.FSSizeBlocks ||
		sb.InodeStart != want.InodeStart ||
		sb.InodeCount != want.InodeCount ||
		sb.DataStart != want.DataStart {
		return SuperBlock{}, minifserrors.ErrBadGeometry
	}

	return sb, nil
}
