package ousd

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// view is a single operation over the ledger. Writes are cached and reach the
// backing store only on commit.
type view struct {
	l  *Ledger
	st *storage.MemCachedStore

	globals      *Globals
	globalsDirty bool
	versionDirty bool

	accounts   map[util.Uint160]*Account
	dirty      map[util.Uint160]struct{}
	allowances map[allowanceKey]*big.Int
	events     []state.NotificationEvent
}

type allowanceKey struct {
	owner, spender util.Uint160
}

func (l *Ledger) begin() (*view, error) {
	v := &view{
		l:          l,
		st:         storage.NewMemCachedStore(l.store),
		accounts:   make(map[util.Uint160]*Account),
		dirty:      make(map[util.Uint160]struct{}),
		allowances: make(map[allowanceKey]*big.Int),
	}

	g := new(Globals)
	ok, err := common.GetSerialized(v.st, []byte{globalsKey}, g)
	if err != nil {
		return nil, fmt.Errorf("can't load globals: %w", err)
	}
	if ok {
		v.globals = g
	}
	return v, nil
}

func (v *view) requireInitialized() error {
	if v.globals == nil {
		return ErrNotInitialized
	}
	return nil
}

func accountKey(h util.Uint160) []byte {
	return append([]byte{accountPrefix}, h.BytesBE()...)
}

func (k allowanceKey) bytes() []byte {
	key := make([]byte, 0, 1+2*util.Uint160Size)
	key = append(key, allowancePrefix)
	key = append(key, k.owner.BytesBE()...)
	return append(key, k.spender.BytesBE()...)
}

// account returns the cached account, loading it on first access. Missing
// accounts are zero-valued Unset accounts.
func (v *view) account(h util.Uint160) (*Account, error) {
	if acc, ok := v.accounts[h]; ok {
		return acc, nil
	}

	acc := newAccount()
	if _, err := common.GetSerialized(v.st, accountKey(h), acc); err != nil {
		return nil, fmt.Errorf("can't load account %s: %w", h.StringLE(), err)
	}
	v.accounts[h] = acc
	return acc, nil
}

// touch marks the account as modified.
func (v *view) touch(h util.Uint160) {
	v.accounts[h].Upgraded = true
	v.dirty[h] = struct{}{}
}

// creditsPerToken returns the rate the account balance is computed at.
func (v *view) creditsPerToken(acc *Account) *big.Int {
	if acc.IsNonRebasing() {
		return acc.CreditsPerToken
	}
	return v.globals.RebasingCreditsPerToken
}

// balanceOf computes the displayed balance of an account.
func (v *view) balanceOf(h util.Uint160) (*big.Int, error) {
	acc, err := v.account(h)
	if err != nil {
		return nil, err
	}

	switch s := acc.State.(type) {
	case DelegationSource:
		return new(big.Int).Set(acc.Credits), nil
	case DelegationTarget:
		src, err := v.account(s.Source)
		if err != nil {
			return nil, err
		}
		base := toBalance(acc.Credits, v.creditsPerToken(acc))
		base.Sub(base, src.Credits)
		if base.Sign() < 0 {
			return nil, fmt.Errorf("%w: delegation target %s balance is below its source",
				ErrInvariantViolation, h.StringLE())
		}
		return base, nil
	default:
		return toBalance(acc.Credits, v.creditsPerToken(acc)), nil
	}
}

func (v *view) allowance(owner, spender util.Uint160) (*big.Int, error) {
	k := allowanceKey{owner: owner, spender: spender}
	if amount, ok := v.allowances[k]; ok {
		return new(big.Int).Set(amount), nil
	}

	data, err := v.st.Get(k.bytes())
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return new(big.Int), nil
		}
		return nil, err
	}
	return bigint.FromBytes(data), nil
}

func (v *view) setAllowance(owner, spender util.Uint160, amount *big.Int) {
	v.allowances[allowanceKey{owner: owner, spender: spender}] = new(big.Int).Set(amount)
}

func (v *view) setGlobals(g *Globals) {
	v.globals = g
	v.globalsDirty = true
	v.versionDirty = true
}

// adjustGlobals applies deltas to the rebasing credits and the non-rebasing
// supply.
func (v *view) adjustGlobals(rebasingCredits, nonRebasingSupply *big.Int) error {
	rc := add(v.globals.RebasingCredits, rebasingCredits)
	nrs := add(v.globals.NonRebasingSupply, nonRebasingSupply)
	if rc.Sign() < 0 || nrs.Sign() < 0 {
		return fmt.Errorf("%w: negative global accounting (rebasing credits %s, non-rebasing supply %s)",
			ErrInvariantViolation, rc, nrs)
	}
	v.globals.RebasingCredits = rc
	v.globals.NonRebasingSupply = nrs
	v.globalsDirty = true
	return nil
}

// notify records a notification emitted on commit. Zero accounts are
// encoded as Null.
func (v *view) notify(name string, args ...any) {
	items := make([]stackitem.Item, len(args))
	for i, arg := range args {
		switch a := arg.(type) {
		case util.Uint160:
			if a.Equals(util.Uint160{}) {
				items[i] = stackitem.Null{}
			} else {
				items[i] = stackitem.NewByteArray(a.BytesBE())
			}
		case *big.Int:
			items[i] = stackitem.NewBigInteger(a)
		default:
			items[i] = stackitem.Make(a)
		}
	}
	v.events = append(v.events, state.NotificationEvent{
		ScriptHash: v.l.hash,
		Name:       name,
		Item:       stackitem.NewArray(items),
	})
}

// commit writes the modified records and persists them. It returns the new
// execution height.
func (v *view) commit() (uint32, error) {
	for h := range v.dirty {
		if err := common.SetSerialized(v.st, accountKey(h), v.accounts[h]); err != nil {
			return 0, fmt.Errorf("account %s: %w", h.StringLE(), err)
		}
	}
	if v.globalsDirty {
		if err := common.SetSerialized(v.st, []byte{globalsKey}, v.globals); err != nil {
			return 0, fmt.Errorf("globals: %w", err)
		}
	}
	if v.versionDirty {
		v.st.Put([]byte{versionKey}, bigint.ToBytes(big.NewInt(common.Version)))
	}
	for k, amount := range v.allowances {
		if amount.Sign() == 0 {
			v.st.Delete(k.bytes())
		} else {
			v.st.Put(k.bytes(), bigint.ToBytes(amount))
		}
	}

	height, err := readHeight(v.st)
	if err != nil {
		return 0, err
	}
	height++
	raw := make([]byte, 4)
	binary.LittleEndian.PutUint32(raw, height)
	v.st.Put([]byte{heightKey}, raw)

	if _, err := v.st.PersistSync(); err != nil {
		return 0, err
	}
	return height, nil
}
