package store

import (
	"os"
	"sync"

	"github.com/jptalukdar/kvs/internal/index"
	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/jptalukdar/kvs/internal/record"
)

// CompactionThreshold is the uncompacted-byte watermark that triggers a
// synchronous compaction pass at the end of a Set or Remove.
const CompactionThreshold = 4 * 1024 * 1024

// writerState is the single serialized writer shared by every clone of a
// Store. All mutation — Set, Remove, and compaction — happens under mu,
// so the store never has more than one writer in flight. Readers never
// take this lock.
type writerState struct {
	mu sync.Mutex

	dir    string
	idx    *index.Index
	reader *Reader

	file *os.File
	gen  uint64

	offset      int64
	uncompacted uint64
}

func openWriter(dir string, idx *index.Index, reader *Reader, gen uint64, offset int64, uncompacted uint64) (*writerState, error) {
	f, err := os.OpenFile(generationPath(dir, gen), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, kvserr.Io("open writer generation file", err)
	}
	return &writerState{
		dir:         dir,
		idx:         idx,
		reader:      reader,
		file:        f,
		gen:         gen,
		offset:      offset,
		uncompacted: uncompacted,
	}, nil
}

// set appends a Set record, updates the index, and compacts if the
// append pushed uncompacted bytes past the threshold.
//
// The record is written with a single os.File.Write: Go does no
// application-level buffering here, so the write syscall itself is what
// makes the bytes visible to any other file descriptor open on the same
// generation file — there is no separate flush step to get wrong.
func (w *writerState) set(key, value string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf, err := record.Encode(record.Set(key, value))
	if err != nil {
		return err
	}

	n, err := w.file.Write(buf)
	if err != nil {
		return kvserr.Io("append set record", err)
	}

	loc := index.Location{Generation: w.gen, Offset: w.offset}
	w.idx.Set(key, loc)

	w.offset += int64(n)
	w.uncompacted += uint64(n)

	if w.uncompacted >= CompactionThreshold {
		return w.compact()
	}
	return nil
}

// remove appends a Remove record and deletes key from the index. It is an
// error to remove a key that is not currently live.
func (w *writerState) remove(key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.idx.Has(key) {
		return kvserr.ErrKeyNotFound
	}

	buf, err := record.Encode(record.Remove(key))
	if err != nil {
		return err
	}

	n, err := w.file.Write(buf)
	if err != nil {
		return kvserr.Io("append remove record", err)
	}

	w.idx.Delete(key)

	w.offset += int64(n)
	w.uncompacted += uint64(n)

	if w.uncompacted >= CompactionThreshold {
		return w.compact()
	}
	return nil
}

func (w *writerState) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.file.Close(); err != nil {
		return kvserr.Io("close writer generation file", err)
	}
	return nil
}
