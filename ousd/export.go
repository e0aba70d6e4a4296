package ousd

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/dump"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"go.uber.org/zap"
)

// exportPrefixes lists the prefixes written to dumps.
var exportPrefixes = append([]byte{heightKey}, statePrefixes...)

// Export adds the committed ledger state to the dump under the given name.
func (l *Ledger) Export(c *dump.Creator, name string) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	v, err := l.begin()
	if err != nil {
		return err
	}
	if err := v.requireInitialized(); err != nil {
		return err
	}
	digest, err := stateHash(l.store)
	if err != nil {
		return err
	}
	accounts := seekAll(l.store, accountPrefix)

	w, err := c.AddLedger(name, dump.Summary{
		Hash:                    l.hash.StringLE(),
		Version:                 common.Version,
		StateHash:               digest,
		TotalSupply:             v.globals.TotalSupply.String(),
		RebasingCredits:         v.globals.RebasingCredits.String(),
		RebasingCreditsPerToken: v.globals.RebasingCreditsPerToken.String(),
		NonRebasingSupply:       v.globals.NonRebasingSupply.String(),
		Accounts:                len(accounts),
	})
	if err != nil {
		return err
	}
	for _, p := range exportPrefixes {
		for _, it := range seekAll(l.store, p) {
			if err := w.Write(it.key, it.value); err != nil {
				return err
			}
		}
	}

	l.log.Info("ledger exported",
		zap.String("name", name),
		zap.String("state hash", digest),
		zap.Int("accounts", len(accounts)))
	return nil
}

// Restore loads the named ledger from the dump into an empty store and opens
// it. The dumped state is staged in memory first: it must pass
// CheckInvariants and match the dumped digest before anything reaches st.
func Restore(r *dump.Reader, name string, st storage.Store, opts Options) (*Ledger, error) {
	summary, ok := r.Summary(name)
	if !ok {
		return nil, fmt.Errorf("ledger %q is missing in the dump", name)
	}
	if err := common.CheckVersion(summary.Version); err != nil {
		return nil, err
	}

	_, err := st.Get([]byte{globalsKey})
	if err == nil {
		return nil, ErrAlreadyInitialized
	}
	if !errors.Is(err, storage.ErrKeyNotFound) {
		return nil, err
	}

	var items []kv
	err = r.IterateStorage(name, func(key, value []byte) error {
		if len(key) == 0 {
			return errors.New("empty storage key")
		}
		items = append(items, kv{key: key, value: value})
		return nil
	})
	if err != nil {
		return nil, err
	}

	staged := storage.NewMemoryStore()
	if err := putItems(staged, items); err != nil {
		return nil, fmt.Errorf("can't stage restored state: %w", err)
	}
	digest, err := verifyRestored(staged, summary, opts)
	if err != nil {
		return nil, err
	}

	if err := putItems(st, items); err != nil {
		return nil, fmt.Errorf("can't persist restored state: %w", err)
	}
	l, err := New(st, opts)
	if err != nil {
		return nil, err
	}

	l.log.Info("ledger restored",
		zap.String("name", name),
		zap.String("state hash", digest),
		zap.String("version", common.VersionString(summary.Version)))
	return l, nil
}

// verifyRestored opens a ledger over the staged state and checks it against
// the dump summary. It returns the state digest.
func verifyRestored(staged storage.Store, summary dump.Summary, opts Options) (string, error) {
	opts.Logger = zap.NewNop()
	l, err := New(staged, opts)
	if err != nil {
		return "", err
	}
	if err := l.CheckInvariants(); err != nil {
		return "", err
	}
	digest, err := l.StateHash()
	if err != nil {
		return "", err
	}
	if summary.Version == common.Version && digest != summary.StateHash {
		return "", fmt.Errorf("%w: state hash %s, dumped %s", ErrInvariantViolation, digest, summary.StateHash)
	}
	total, err := l.TotalSupply()
	if err != nil {
		return "", err
	}
	if expected, ok := new(big.Int).SetString(summary.TotalSupply, 10); !ok || expected.Cmp(total) != 0 {
		return "", fmt.Errorf("%w: total supply %s, dumped %s", ErrInvariantViolation, total, summary.TotalSupply)
	}
	return digest, nil
}

func putItems(st storage.Store, items []kv) error {
	cache := storage.NewMemCachedStore(st)
	for _, it := range items {
		cache.Put(it.key, it.value)
	}
	_, err := cache.PersistSync()
	return err
}

// storedVersion returns the schema version record.
func storedVersion(st common.Getter) (int, error) {
	data, err := st.Get([]byte{versionKey})
	if err != nil {
		return 0, err
	}
	return int(bigint.FromBytes(data).Int64()), nil
}
