package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateLedger is returned when a ledger name is added twice.
	ErrDuplicateLedger = errors.New("ledger is already in the dump")
	// ErrDuplicateKey is returned when a storage key is written twice.
	ErrDuplicateKey = errors.New("storage key is already in the dump")
	// ErrEmptyLedger is returned by Flush for a ledger without storage items.
	ErrEmptyLedger = errors.New("ledger has no storage items")
)

// Creator collects ledger snapshots into a single dump:
//
//	'<label>-<height>-ledgers.json': JSON array of ledger summaries
//	'<label>-<height>-storage.csv': CSV of 'name,key,value' storage items
//
// Keys and values are base64-encoded. Every summary records the number of
// storage items written for the ledger, so a truncated or extended dump is
// detected by the Reader.
type Creator struct {
	dumpStreams

	csv     *csv.Writer
	ledgers []*StorageWriter
}

// NewCreator prepares a dump with the given ID in dir. It fails if such a dump
// already exists. The Creator must be closed after use.
func NewCreator(dir string, id ID) (*Creator, error) {
	if id.Label == "" || strings.Contains(id.Label, sep) {
		return nil, fmt.Errorf("invalid dump label %q", id.Label)
	}

	c := new(Creator)
	if err := initDumpStreams(&c.dumpStreams, dir, id, false); err != nil {
		return nil, err
	}
	c.csv = csv.NewWriter(c.dumpStreams.storageItems)
	return c, nil
}

// AddLedger validates the summary of the named ledger and returns the writer
// for its storage items.
func (x *Creator) AddLedger(name string, s Summary) (*StorageWriter, error) {
	if name == "" {
		return nil, errors.New("empty ledger name")
	}
	for _, w := range x.ledgers {
		if w.name == name {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateLedger, name)
		}
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", name, err)
	}

	w := &StorageWriter{
		name:    name,
		summary: s,
		csv:     x.csv,
		keys:    make(map[string]struct{}),
	}
	x.ledgers = append(x.ledgers, w)
	return w, nil
}

// Flush writes summaries with the counted storage items and flushes the
// storage CSV.
func (x *Creator) Flush() error {
	states := make([]dumpLedgerState, 0, len(x.ledgers))
	for _, w := range x.ledgers {
		if len(w.keys) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyLedger, w.name)
		}
		s := w.summary
		s.Items = len(w.keys)
		states = append(states, dumpLedgerState{Name: w.name, Summary: s})
	}

	enc := json.NewEncoder(x.dumpStreams.ledgers)
	enc.SetIndent("", " ")
	if err := enc.Encode(states); err != nil {
		return fmt.Errorf("encode ledger summaries to JSON: %w", err)
	}

	x.csv.Flush()
	if err := x.csv.Error(); err != nil {
		return fmt.Errorf("flush CSV data: %w", err)
	}
	return nil
}

// Close releases the dump files.
func (x *Creator) Close() {
	x.close()
}

// StorageWriter writes storage items of a single ledger.
type StorageWriter struct {
	name    string
	summary Summary
	csv     *csv.Writer
	keys    map[string]struct{}
}

// Write adds the storage item. Every key is written once.
func (x *StorageWriter) Write(key, value []byte) error {
	if len(key) == 0 {
		return errors.New("empty storage key")
	}
	if _, ok := x.keys[string(key)]; ok {
		return fmt.Errorf("%w: %x", ErrDuplicateKey, key)
	}

	err := x.csv.Write([]string{
		x.name,
		_encoding.EncodeToString(key),
		_encoding.EncodeToString(value),
	})
	if err != nil {
		return fmt.Errorf("write storage item as CSV data: %w", err)
	}
	x.keys[string(key)] = struct{}{}
	return nil
}
