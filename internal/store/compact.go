package store

import (
	"os"

	"github.com/jptalukdar/kvs/internal/index"
	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/jptalukdar/kvs/internal/logger"
	"github.com/jptalukdar/kvs/internal/record"
)

// compact rewrites every live index entry into a new generation file and
// deletes the generations it rewrote out of. Callers must hold w.mu.
//
// Each rewritten record is written and its index entry updated before the
// loop moves to the next one, so a concurrent reader either sees a key's
// old, still-valid location or its new one — never a location whose bytes
// haven't reached the new file yet. Deletion of the superseded generation
// files happens only after every entry has been rewritten and repointed.
func (w *writerState) compact() error {
	compactionGen := w.gen + 1

	cFile, err := os.OpenFile(generationPath(w.dir, compactionGen), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return kvserr.Io("create compaction generation file", err)
	}

	snapshot := w.idx.Snapshot()
	toDelete := make(map[uint64]struct{}, len(snapshot))
	var compactionOffset int64

	for _, e := range snapshot {
		value, err := w.reader.Get(e.Loc)
		if err != nil {
			cFile.Close()
			return err
		}
		toDelete[e.Loc.Generation] = struct{}{}

		buf, err := record.Encode(record.Set(e.Key, value))
		if err != nil {
			cFile.Close()
			return err
		}

		n, err := cFile.Write(buf)
		if err != nil {
			cFile.Close()
			return kvserr.Io("write compaction record", err)
		}

		w.idx.Set(e.Key, index.Location{Generation: compactionGen, Offset: compactionOffset})
		compactionOffset += int64(n)
	}

	if err := cFile.Close(); err != nil {
		return kvserr.Io("close compaction generation file", err)
	}

	// The old writer file is replaced regardless of whether its generation
	// ends up in toDelete, so it must be closed here either way.
	if err := w.file.Close(); err != nil {
		return kvserr.Io("close old writer generation file", err)
	}

	delete(toDelete, compactionGen)
	for gen := range toDelete {
		if err := os.Remove(generationPath(w.dir, gen)); err != nil && !os.IsNotExist(err) {
			logger.Error("compaction: remove stale generation %d: %v", gen, err)
		}
	}

	newGen := compactionGen + 1
	newFile, err := os.OpenFile(generationPath(w.dir, newGen), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return kvserr.Io("create new writer generation file", err)
	}

	w.file = newFile
	w.gen = newGen
	w.offset = 0
	w.uncompacted = 0

	logger.Info("compaction: rewrote %d live keys into generation %d, writer moved to generation %d", len(snapshot), compactionGen, newGen)
	return nil
}
