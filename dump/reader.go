package dump

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
)

// IterateDumps iterates over all dumps collected by the Creator model in the
// specified directory, and passes ID and Reader of each dump into f. An error
// returned by f stops the iteration.
func IterateDumps(dir string, f func(ID, *Reader) error) error {
	var id ID

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, e error) error {
		if errors.Is(e, fs.ErrNotExist) {
			return nil
		}
		if e != nil {
			return e
		}

		if d.IsDir() {
			return nil
		}

		name := d.Name()
		if !strings.HasSuffix(name, statesFileSuffix) {
			return nil
		}

		err := id.decodeString(name)
		if err != nil {
			return fmt.Errorf("decode dump ID from file name '%s': %w", d.Name(), err)
		}

		r, err := Open(filepath.Dir(path), id)
		if err != nil {
			return fmt.Errorf("open dump ('%s'): %w", name, err)
		}

		return f(id, r)
	})
}

// Open reads the dump with the given ID from the directory.
func Open(dir string, id ID) (*Reader, error) {
	var streams dumpStreams

	err := initDumpStreams(&streams, dir, id, true)
	if err != nil {
		return nil, fmt.Errorf("init dump streams: %w", err)
	}
	defer streams.close()

	var r Reader
	err = r.fromDumpStreams(streams.ledgers, streams.storageItems)
	if err != nil {
		return nil, fmt.Errorf("init dump reader: %w", err)
	}
	return &r, nil
}

type kv struct{ k, v []byte }

// Reader reads ledgers collected in the superior dump.
type Reader struct {
	states   []dumpLedgerState
	mStorage map[string][]kv
}

func (x *Reader) fromDumpStreams(rLedgers, rStorageItems io.Reader) error {
	err := json.NewDecoder(rLedgers).Decode(&x.states)
	if err != nil {
		return fmt.Errorf("decode ledger summaries from JSON: %w", err)
	}

	var rec []string
	var _kv kv

	_csv := csv.NewReader(rStorageItems)
	_csv.FieldsPerRecord = 3
	_csv.ReuseRecord = true

	x.mStorage = make(map[string][]kv)

	for {
		rec, err = _csv.Read()
		if err != nil {
			if err == io.EOF {
				return x.checkItems()
			}
			return fmt.Errorf("read next CSV record: %w", err)
		}

		// out-of-range safety guaranteed by csv settings
		_kv.k, err = _encoding.DecodeString(rec[1])
		if err != nil {
			return fmt.Errorf("decode storage item key: %w", err)
		}

		_kv.v, err = _encoding.DecodeString(rec[2])
		if err != nil {
			return fmt.Errorf("decode storage item value: %w", err)
		}

		x.mStorage[rec[0]] = append(x.mStorage[rec[0]], _kv)
	}
}

// checkItems makes sure every ledger has exactly the storage items its
// summary counts.
func (x *Reader) checkItems() error {
	for i := range x.states {
		name := x.states[i].Name
		if n := len(x.mStorage[name]); n != x.states[i].Summary.Items {
			return fmt.Errorf("ledger %s: %d storage items, summary counts %d",
				name, n, x.states[i].Summary.Items)
		}
	}
	for name := range x.mStorage {
		if _, ok := x.Summary(name); !ok {
			return fmt.Errorf("storage items of unknown ledger %s", name)
		}
	}
	return nil
}

// Summary returns summary of the named ledger.
func (x *Reader) Summary(name string) (Summary, bool) {
	for i := range x.states {
		if x.states[i].Name == name {
			return x.states[i].Summary, true
		}
	}
	return Summary{}, false
}

// IterateLedgers iterates over all ledgers from the superior dump and passes
// their summaries into f.
func (x *Reader) IterateLedgers(f func(name string, s Summary)) {
	for i := range x.states {
		f(x.states[i].Name, x.states[i].Summary)
	}
}

// IterateStorage passes storage items of the named ledger into f in the
// order they were written.
func (x *Reader) IterateStorage(name string, f func(key, value []byte) error) error {
	kvs := x.mStorage[name]
	for i := range kvs {
		if err := f(kvs[i].k, kvs[i].v); err != nil {
			return err
		}
	}
	return nil
}
