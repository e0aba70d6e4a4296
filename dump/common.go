package dump

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/big"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ID is a unique identifier of the dump prepared according to the model
// described in the current package.
type ID struct {
	// Label of the dump source (e.g. staging, production). Must not contain
	// hyphens.
	Label string
	// Ledger height at which the state was pulled.
	Height uint32
}

// String returns hyphen-separated ID fields.
func (x ID) String() string {
	return x.Label + sep + strconv.FormatUint(uint64(x.Height), 10)
}

// decodes ID fields from the hyphen-separated string.
func (x *ID) decodeString(s string) error {
	ss := strings.Split(s, sep)
	if len(ss) < 2 {
		return fmt.Errorf("expected '%s'-separated string with at least 2 items", sep)
	}

	n, err := strconv.ParseUint(ss[1], 10, 32)
	if err != nil {
		return fmt.Errorf("decode height from '%s': %w", ss[1], err)
	}

	x.Label = ss[0]
	x.Height = uint32(n)

	return nil
}

// global encoding of binary values.
var _encoding = base64.StdEncoding

// Summary is a JSON-encoded description of the dumped ledger.
type Summary struct {
	// Hash is the LE script hash the ledger emits notifications from.
	Hash string `json:"hash"`
	// Version is the storage schema version.
	Version int `json:"version"`
	// StateHash is the digest the restored state must match.
	StateHash string `json:"stateHash"`

	TotalSupply             string `json:"totalSupply"`
	RebasingCredits         string `json:"rebasingCredits"`
	RebasingCreditsPerToken string `json:"rebasingCreditsPerToken"`
	NonRebasingSupply       string `json:"nonRebasingSupply"`
	Accounts                int    `json:"accounts"`
	// Items is the number of dumped storage items. It is set by Creator.
	Items int `json:"items"`
}

// ErrInvalidSummary is returned for summaries that can't describe a ledger.
var ErrInvalidSummary = errors.New("invalid ledger summary")

func (s Summary) validate() error {
	if s.Hash == "" || s.StateHash == "" {
		return fmt.Errorf("%w: missing hash", ErrInvalidSummary)
	}
	if s.Accounts < 0 {
		return fmt.Errorf("%w: negative accounts number", ErrInvalidSummary)
	}
	for _, f := range []struct{ name, value string }{
		{"total supply", s.TotalSupply},
		{"rebasing credits", s.RebasingCredits},
		{"rebasing credits per token", s.RebasingCreditsPerToken},
		{"non-rebasing supply", s.NonRebasingSupply},
	} {
		v, ok := new(big.Int).SetString(f.value, 10)
		if !ok || v.Sign() < 0 {
			return fmt.Errorf("%w: %s %q", ErrInvalidSummary, f.name, f.value)
		}
	}
	return nil
}

// dumpLedgerState is a JSON-encoded information about the dumped ledger.
type dumpLedgerState struct {
	Name    string  `json:"name"`
	Summary Summary `json:"summary"`
}

// dumpStreams groups data streams for ledgers' summaries and storages.
type dumpStreams struct {
	ledgers, storageItems io.ReadWriteCloser
}

// close closes all streams.
func (x *dumpStreams) close() {
	_ = x.storageItems.Close()
	_ = x.ledgers.Close()
}

const (
	// word separator used in dump file naming
	sep = "-"
	// suffix of file with ledgers' summaries
	statesFileSuffix = "ledgers.json"
	// suffix of file with storage items
	storageFileSuffix = "storage.csv"
)

// initDumpStreams opens data streams for the dump files located in the
// specified directory. If read flag is set, streams are read-only. Otherwise,
// files must not exist, and streams are write only.
func initDumpStreams(d *dumpStreams, dir string, id ID, read bool) error {
	var err error

	pathStorage := filepath.Join(dir, strings.Join([]string{id.String(), storageFileSuffix}, sep))
	pathLedgers := filepath.Join(dir, strings.Join([]string{id.String(), statesFileSuffix}, sep))
	if !read {
		if err = checkFileNotExists(pathStorage); err != nil {
			return err
		}
		if err = checkFileNotExists(pathLedgers); err != nil {
			return err
		}
	}

	var flag int
	var perm os.FileMode

	if read {
		flag = os.O_RDONLY
	} else {
		flag = os.O_CREATE | os.O_WRONLY
		perm = 0600
	}

	d.storageItems, err = os.OpenFile(pathStorage, flag, perm)
	if err != nil {
		return fmt.Errorf("open file with storage items: %w", err)
	}

	d.ledgers, err = os.OpenFile(pathLedgers, flag, perm)
	if err != nil {
		_ = d.storageItems.Close()
		return fmt.Errorf("open file with ledger summaries: %w", err)
	}

	return nil
}

// checkFileNotExists makes sure nothing is overwritten at the path.
func checkFileNotExists(p string) error {
	_, err := os.Stat(p)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil
	case err == nil:
		return fmt.Errorf("file '%s' absence check failed: %w", p, fs.ErrExist)
	default:
		return fmt.Errorf("file '%s' absence check failed: %w", p, err)
	}
}
