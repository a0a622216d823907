// Reader opens a fresh file handle per lookup. Stateless apart from
// the directory path, so it tolerates compaction deleting old generation
// files between calls — there is nothing cached to go stale.
package store

import (
	"io"
	"os"

	"github.com/jptalukdar/kvs/internal/index"
	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/jptalukdar/kvs/internal/record"
)

// Reader reads a single Set record out of a generation file at a known
// offset. It holds no file handles between calls.
type Reader struct {
	dir string
}

// NewReader returns a reader rooted at dir.
func NewReader(dir string) *Reader {
	return &Reader{dir: dir}
}

// Get opens loc's generation file, seeks to loc.Offset, decodes exactly
// one record, and returns its value. It is an error for that record to be
// anything but a Set — an index entry only ever points at one.
func (r *Reader) Get(loc index.Location) (string, error) {
	path := generationPath(r.dir, loc.Generation)
	f, err := os.Open(path)
	if err != nil {
		return "", kvserr.Io("open generation file", err)
	}
	defer f.Close()

	if _, err := f.Seek(loc.Offset, io.SeekStart); err != nil {
		return "", kvserr.Io("seek generation file", err)
	}

	return record.DecodeSetAt(f)
}
