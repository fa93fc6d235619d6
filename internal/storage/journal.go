package storage

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hailam/chessthink/internal/engine"
)

const decisionPrefix = "decision/"

var _ engine.Recorder = (*Store)(nil)

func decisionKey(hash uint64, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%016x/%s", decisionPrefix, hash, id))
}

func positionPrefix(hash uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x/", decisionPrefix, hash))
}

// RecordDecision appends d to the decision journal. A zero ID or time is
// filled in.
func (s *Store) RecordDecision(d engine.Decision) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.At.IsZero() {
		d.At = time.Now()
	}

	data, err := json.Marshal(d)
	if err != nil {
		return errors.Wrap(err, "encode decision")
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(decisionKey(d.Hash, d.ID), data)
	})
	return errors.Wrapf(err, "record decision %s", d.ID)
}

// Decisions returns every journalled decision for the position with the
// given fingerprint, oldest first.
func (s *Store) Decisions(hash uint64) ([]engine.Decision, error) {
	var out []engine.Decision

	err := s.db.View(func(txn *badger.Txn) error {
		prefix := positionPrefix(hash)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var d engine.Decision
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &d)
			})
			if err != nil {
				return errors.Wrapf(err, "decode %s", it.Item().Key())
			}
			out = append(out, d)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(out, func(a, b engine.Decision) int {
		return a.At.Compare(b.At)
	})
	return out, nil
}

// DecisionCount returns the total number of journalled decisions.
func (s *Store) DecisionCount() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(decisionPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}
