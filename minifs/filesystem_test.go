package minifs_test

import (
	"bytes"
	"path/filepath"
	"testing"

	minifserrors "github.com/dalci22/minifs/errors"
	"github.com/dalci22/minifs/layout"
	"github.com/dalci22/minifs/minifs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freshFS(t *testing.T) *minifs.FileSystem {
	fs, err := minifs.MkfsMemory()
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })
	return fs
}

// S1 - empty root.
func TestEmptyRoot(t *testing.T) {
	fs := freshFS(t)

	entries, err := fs.List("/")
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.ErrorIs(t, fs.Rmdir("/"), minifserrors.ErrInvalidPath)
	assert.ErrorIs(t, fs.Delete("/"), minifserrors.ErrInvalidPath)
}

// S2 - create/read.
func TestCreateWriteRead(t *testing.T) {
	fs := freshFS(t)

	require.NoError(t, fs.Mkdir("/docs"))
	require.NoError(t, fs.Create("/docs/report.txt"))

	payload := []byte("This is a test file written to MiniFS!")
	n, err := fs.Write("/docs/report.txt", payload)
	require.NoError(t, err)
	assert.Equal(t, 38, n)
	assert.Len(t, payload, 38)

	buf := make([]byte, 1024)
	n, err = fs.Read("/docs/report.txt", buf)
	require.NoError(t, err)
	assert.Equal(t, 38, n)
	assert.True(t, bytes.Equal(buf[:n], payload))

	root, err := fs.List("/")
	require.NoError(t, err)
	require.Len(t, root, 1)
	assert.EqualValues(t, 1, root[0].Inum)
	assert.Equal(t, "docs", root[0].Name)

	docs, err := fs.List("/docs")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.EqualValues(t, 2, docs[0].Inum)
	assert.Equal(t, "report.txt", docs[0].Name)
}

// S3 - duplicate rejection.
func TestDuplicateRejection(t *testing.T) {
	fs := freshFS(t)
	require.NoError(t, fs.Mkdir("/docs"))
	require.NoError(t, fs.Create("/docs/report.txt"))

	assert.ErrorIs(t, fs.Create("/docs/report.txt"), minifserrors.ErrAlreadyExists)
	assert.ErrorIs(t, fs.Mkdir("/docs"), minifserrors.ErrAlreadyExists)
}

// S4 - rmdir non-empty.
func TestRmdirNonEmpty(t *testing.T) {
	fs := freshFS(t)
	require.NoError(t, fs.Mkdir("/docs"))
	require.NoError(t, fs.Create("/docs/report.txt"))

	assert.ErrorIs(t, fs.Rmdir("/docs"), minifserrors.ErrNotEmpty)

	require.NoError(t, fs.Delete("/docs/report.txt"))
	require.NoError(t, fs.Rmdir("/docs"))

	entries, err := fs.List("/")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// S5 - size limit.
func TestWriteSizeLimit(t *testing.T) {
	fs := freshFS(t)
	require.NoError(t, fs.Create("/big"))

	zeros := make([]byte, layout.MaxWriteSize+1)
	_, err := fs.Write("/big", zeros)
	assert.ErrorIs(t, err, minifserrors.ErrTooLarge)

	zeros = zeros[:layout.MaxWriteSize]
	n, err := fs.Write("/big", zeros)
	require.NoError(t, err)
	assert.Equal(t, layout.MaxWriteSize, n)

	buf := make([]byte, layout.MaxWriteSize)
	n, err = fs.Read("/big", buf)
	require.NoError(t, err)
	assert.Equal(t, layout.MaxWriteSize, n)
	assert.True(t, bytes.Equal(buf, zeros))
}

// S6 - exhaustion.
func TestInodeExhaustion(t *testing.T) {
	fs := freshFS(t)

	created := 0
	for i := 0; ; i++ {
		name := "/f" + string(rune('a'+i%26)) + string(rune('0'+i/26))
		if err := fs.Create(name); err != nil {
			assert.ErrorIs(t, err, minifserrors.ErrNoInodes)
			break
		}
		created++
	}
	assert.Equal(t, layout.InodeCount-1, created)
}

func TestReopenPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")
	fs, err := minifs.Mkfs(path)
	require.NoError(t, err)
	require.NoError(t, fs.Mkdir("/docs"))
	require.NoError(t, fs.Create("/docs/a.txt"))
	_, err = fs.Write("/docs/a.txt", []byte("hello"))
	require.NoError(t, err)
	require.NoError(t, fs.Close())

	fs, err = minifs.Init(path)
	require.NoError(t, err)
	t.Cleanup(func() { fs.Close() })

	entries, err := fs.List("/docs")
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCheckFindsNoViolationsOnFreshTree(t *testing.T) {
	fs := freshFS(t)
	require.NoError(t, fs.Mkdir("/docs"))
	require.NoError(t, fs.Create("/docs/a.txt"))
	_, err := fs.Write("/docs/a.txt", []byte("hello"))
	require.NoError(t, err)

	assert.NoError(t, fs.Check())
}

func TestListDirectoryCSV(t *testing.T) {
	fs := freshFS(t)
	require.NoError(t, fs.Mkdir("/docs"))

	out, err := fs.ListDirectoryCSV("/")
	require.NoError(t, err)
	assert.Contains(t, out, "inum")
	assert.Contains(t, out, "docs")
}
