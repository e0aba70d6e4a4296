package ousd

import (
	"bytes"
	"fmt"
	"math/big"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/hash"
	"github.com/nspcc-dev/neo-go/pkg/io"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

type kv struct {
	key, value []byte
}

// Accounts calls f for every stored account in key order until f returns
// false.
func (l *Ledger) Accounts(f func(util.Uint160, Account) bool) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	accounts, err := l.loadAccounts()
	if err != nil {
		return err
	}
	for _, a := range accounts {
		if !f(a.hash, a.acc) {
			break
		}
	}
	return nil
}

type storedAccount struct {
	hash util.Uint160
	acc  Account
}

func (l *Ledger) loadAccounts() ([]storedAccount, error) {
	items := seekAll(l.store, accountPrefix)
	res := make([]storedAccount, 0, len(items))
	for _, it := range items {
		h, err := util.Uint160DecodeBytesBE(it.key[1:])
		if err != nil {
			return nil, fmt.Errorf("invalid account key %x: %w", it.key, err)
		}
		item, err := stackitem.Deserialize(it.value)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", h.StringLE(), err)
		}
		acc := newAccount()
		if err := acc.FromStackItem(item); err != nil {
			return nil, fmt.Errorf("account %s: %w", h.StringLE(), err)
		}
		res = append(res, storedAccount{hash: h, acc: *acc})
	}
	return res, nil
}

// CheckInvariants audits the committed state. Every accounting identity must
// hold exactly except the total supply, which may differ from the value
// derived from credits by rounding dust of at most one unit per account.
// A delegation target whose balance fell below its source credits after a
// rebase is reported too: such a pair can't transfer or undelegate.
func (l *Ledger) CheckInvariants() error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	v, err := l.begin()
	if err != nil {
		return err
	}
	if err := v.requireInitialized(); err != nil {
		return err
	}
	accounts, err := l.loadAccounts()
	if err != nil {
		return err
	}

	var (
		g                 = v.globals
		byHash            = make(map[util.Uint160]Account, len(accounts))
		rebasingCredits   = new(big.Int)
		nonRebasingSupply = new(big.Int)
	)
	for _, a := range accounts {
		byHash[a.hash] = a.acc
	}
	if g.RebasingCreditsPerToken.Cmp(scale) < 0 {
		return fmt.Errorf("%w: rebasing credits per token %s", ErrInvariantViolation, g.RebasingCreditsPerToken)
	}

	for _, a := range accounts {
		acc := a.acc
		if acc.Credits.Sign() < 0 || acc.CreditsPerToken.Sign() < 0 {
			return fmt.Errorf("%w: account %s has negative credits", ErrInvariantViolation, a.hash.StringLE())
		}

		switch s := acc.State.(type) {
		case DelegationSource:
			target, ok := byHash[s.Target]
			if !ok {
				return fmt.Errorf("%w: missing delegation target of %s", ErrInvariantViolation, a.hash.StringLE())
			}
			if ts, ok := target.State.(DelegationTarget); !ok || !ts.Source.Equals(a.hash) {
				return fmt.Errorf("%w: asymmetric delegation of %s", ErrInvariantViolation, a.hash.StringLE())
			}
			if !acc.IsNonRebasing() {
				return fmt.Errorf("%w: delegation source %s is rebasing", ErrInvariantViolation, a.hash.StringLE())
			}
			continue
		case DelegationTarget:
			source, ok := byHash[s.Source]
			if !ok {
				return fmt.Errorf("%w: missing delegation source of %s", ErrInvariantViolation, a.hash.StringLE())
			}
			if ss, ok := source.State.(DelegationSource); !ok || !ss.Target.Equals(a.hash) {
				return fmt.Errorf("%w: asymmetric delegation of %s", ErrInvariantViolation, a.hash.StringLE())
			}
			if acc.IsNonRebasing() {
				return fmt.Errorf("%w: delegation target %s is not rebasing", ErrInvariantViolation, a.hash.StringLE())
			}
			if toBalance(acc.Credits, g.RebasingCreditsPerToken).Cmp(source.Credits) < 0 {
				return fmt.Errorf("%w: delegation target %s holds less than its source",
					ErrInvariantViolation, a.hash.StringLE())
			}
		}

		if acc.IsNonRebasing() {
			nonRebasingSupply.Add(nonRebasingSupply, toBalance(acc.Credits, acc.CreditsPerToken))
		} else {
			rebasingCredits.Add(rebasingCredits, acc.Credits)
		}
	}

	if rebasingCredits.Cmp(g.RebasingCredits) != 0 {
		return fmt.Errorf("%w: rebasing credits %s, accounts hold %s",
			ErrInvariantViolation, g.RebasingCredits, rebasingCredits)
	}
	if nonRebasingSupply.Cmp(g.NonRebasingSupply) != 0 {
		return fmt.Errorf("%w: non-rebasing supply %s, accounts hold %s",
			ErrInvariantViolation, g.NonRebasingSupply, nonRebasingSupply)
	}

	derived := add(toBalance(g.RebasingCredits, g.RebasingCreditsPerToken), g.NonRebasingSupply)
	diff := new(big.Int).Abs(sub(g.TotalSupply, derived))
	dust := big.NewInt(int64(len(accounts) + 1))
	if diff.Cmp(dust) > 0 {
		return fmt.Errorf("%w: total supply %s, derived %s", ErrInvariantViolation, g.TotalSupply, derived)
	}
	return nil
}

// StateHash returns a digest of the committed accounts, allowances, globals
// and schema version. Executions that change no state keep it intact.
func (l *Ledger) StateHash() (string, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return stateHash(l.store)
}

func stateHash(st storage.Store) (string, error) {
	w := io.NewBufBinWriter()
	for _, p := range statePrefixes {
		for _, it := range seekAll(st, p) {
			w.WriteVarBytes(it.key)
			w.WriteVarBytes(it.value)
		}
	}
	if w.Err != nil {
		return "", w.Err
	}
	h := hash.Sha256(w.Bytes())
	return base58.Encode(h.BytesBE()), nil
}

// seekAll returns copies of all items with the prefix sorted by full key.
func seekAll(st storage.Store, prefix byte) []kv {
	var (
		res []kv
		pfx = []byte{prefix}
	)
	st.Seek(storage.SeekRange{Prefix: pfx}, func(k, v []byte) bool {
		key := bytes.Clone(k)
		if !bytes.HasPrefix(key, pfx) {
			key = append(pfx, key...)
		}
		res = append(res, kv{
			key:   key,
			value: bytes.Clone(v),
		})
		return true
	})
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].key, res[j].key) < 0
	})
	return res
}
