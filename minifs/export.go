package minifs

import (
	"github.com/gocarina/gocsv"
)

// listingRow is the CSV-tagged projection of an Entry, grounded on the
// teacher's disks.DiskGeometry pattern of driving gocsv off a struct of
// `csv:"..."`-tagged fields rather than hand-joining strings.
type listingRow struct {
	Inum uint32 `csv:"inum"`
	Name string `csv:"name"`
}

// ListDirectoryCSV lists path (spec.md §4.6 ls) and renders the result as
// CSV with an "inum,name" header, for tooling that wants a stable,
// parseable ls output alongside the CLI's human-readable one.
func (fs *FileSystem) ListDirectoryCSV(path string) (string, error) {
	entries, err := fs.List(path)
	if err != nil {
		return "", err
	}

	rows := make([]*listingRow, len(entries))
	for i, e := range entries {
		rows[i] = &listingRow{Inum: e.Inum, Name: e.Name}
	}

	return gocsv.MarshalString(rows)
}
