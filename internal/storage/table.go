package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/hailam/chessthink/internal/board"
	"github.com/hailam/chessthink/internal/engine"
)

const (
	tablePrefix  = "table/"
	keyTableMeta = tablePrefix + "meta"

	entrySize       = 16
	entriesPerChunk = 1 << 14
)

// tableMeta describes a saved snapshot.
type tableMeta struct {
	Entries int `json:"entries"`
	Chunks  int `json:"chunks"`
}

func chunkKey(i int) []byte {
	return []byte(fmt.Sprintf("%schunk/%06d", tablePrefix, i))
}

// Entry layout, little-endian:
// [0:8]   key
// [8:12]  best move
// [12:14] score
// [14]    depth
// [15]    flag
func encodeEntries(entries []engine.TTEntry) []byte {
	buf := make([]byte, len(entries)*entrySize)
	for i, e := range entries {
		b := buf[i*entrySize:]
		binary.LittleEndian.PutUint64(b[0:8], e.Key)
		binary.LittleEndian.PutUint32(b[8:12], uint32(e.BestMove))
		binary.LittleEndian.PutUint16(b[12:14], uint16(e.Score))
		b[14] = byte(e.Depth)
		b[15] = byte(e.Flag)
	}
	return buf
}

func decodeEntries(buf []byte) ([]engine.TTEntry, error) {
	if len(buf)%entrySize != 0 {
		return nil, errors.Errorf("table chunk of %d bytes is not a multiple of %d", len(buf), entrySize)
	}
	out := make([]engine.TTEntry, len(buf)/entrySize)
	for i := range out {
		b := buf[i*entrySize:]
		out[i] = engine.TTEntry{
			Key:      binary.LittleEndian.Uint64(b[0:8]),
			BestMove: board.Move(binary.LittleEndian.Uint32(b[8:12])),
			Score:    int16(binary.LittleEndian.Uint16(b[12:14])),
			Depth:    int8(b[14]),
			Flag:     engine.TTFlag(b[15]),
		}
	}
	return out, nil
}

// SaveTable replaces any saved snapshot with entries. Entries are written
// in zstd-compressed chunks.
func (s *Store) SaveTable(entries []engine.TTEntry) error {
	if err := s.db.DropPrefix([]byte(tablePrefix)); err != nil {
		return errors.Wrap(err, "drop old table")
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return errors.Wrap(err, "create zstd encoder")
	}
	defer enc.Close()

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()

	chunks := 0
	for start := 0; start < len(entries); start += entriesPerChunk {
		end := min(start+entriesPerChunk, len(entries))
		data := enc.EncodeAll(encodeEntries(entries[start:end]), nil)
		if err := wb.Set(chunkKey(chunks), data); err != nil {
			return errors.Wrapf(err, "write chunk %d", chunks)
		}
		chunks++
	}

	meta, err := json.Marshal(tableMeta{Entries: len(entries), Chunks: chunks})
	if err != nil {
		return errors.Wrap(err, "encode table meta")
	}
	if err := wb.Set([]byte(keyTableMeta), meta); err != nil {
		return errors.Wrap(err, "write table meta")
	}

	return errors.Wrap(wb.Flush(), "flush table")
}

// LoadTable returns the saved snapshot, or ErrNotFound if there is none.
func (s *Store) LoadTable() ([]engine.TTEntry, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "create zstd decoder")
	}
	defer dec.Close()

	var entries []engine.TTEntry
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyTableMeta))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		var meta tableMeta
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		}); err != nil {
			return errors.Wrap(err, "decode table meta")
		}

		entries = make([]engine.TTEntry, 0, meta.Entries)
		for i := 0; i < meta.Chunks; i++ {
			item, err := txn.Get(chunkKey(i))
			if err != nil {
				return errors.Wrapf(err, "read chunk %d", i)
			}
			compressed, err := item.ValueCopy(nil)
			if err != nil {
				return errors.Wrapf(err, "read chunk %d", i)
			}
			raw, err := dec.DecodeAll(compressed, nil)
			if err != nil {
				return errors.Wrapf(err, "decompress chunk %d", i)
			}
			chunk, err := decodeEntries(raw)
			if err != nil {
				return err
			}
			entries = append(entries, chunk...)
		}

		if len(entries) != meta.Entries {
			return errors.Errorf("table snapshot has %d entries, meta says %d", len(entries), meta.Entries)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return entries, nil
}

// SaveEngineTable snapshots the transposition table of e.
func (s *Store) SaveEngineTable(e *engine.Engine) error {
	return s.SaveTable(e.Table().Snapshot())
}

// LoadEngineTable restores a saved snapshot into the table of e. It returns
// the number of entries restored; a missing snapshot restores nothing.
func (s *Store) LoadEngineTable(e *engine.Engine) (int, error) {
	entries, err := s.LoadTable()
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	e.Table().Restore(entries)
	return len(entries), nil
}
