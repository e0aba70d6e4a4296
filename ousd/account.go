package ousd

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

type (
	// RebaseState is the classification of an account. It is one of Unset,
	// Rebasing, NonRebasing, DelegationSource or DelegationTarget.
	RebaseState interface {
		Kind() StateKind
		fmt.Stringer
	}

	// StateKind is the stored discriminator of RebaseState.
	StateKind byte

	// Unset is the state of an account that never chose. It rebases unless it
	// is a contract and gets materialized.
	Unset struct{}
	// Rebasing is the state of an account that explicitly opted in.
	Rebasing struct{}
	// NonRebasing is the state of an account holding a fixed balance.
	NonRebasing struct{}
	// DelegationSource is the state of an account whose yield goes to Target.
	DelegationSource struct {
		Target util.Uint160
	}
	// DelegationTarget is the state of an account receiving the yield of
	// Source.
	DelegationTarget struct {
		Source util.Uint160
	}

	// Account is a stored ledger account.
	Account struct {
		// Credits owned (for delegation sources: the frozen balance).
		Credits *big.Int
		// State is the rebase classification.
		State RebaseState
		// CreditsPerToken is the per-account rate, zero means the global rate.
		CreditsPerToken *big.Int
		// Upgraded marks high resolution accounts.
		Upgraded bool
	}
)

// Stored discriminators.
const (
	KindUnset StateKind = iota
	KindRebasing
	KindNonRebasing
	KindDelegationSource
	KindDelegationTarget
)

const accountFields = 5

func (Unset) Kind() StateKind            { return KindUnset }
func (Rebasing) Kind() StateKind         { return KindRebasing }
func (NonRebasing) Kind() StateKind      { return KindNonRebasing }
func (DelegationSource) Kind() StateKind { return KindDelegationSource }
func (DelegationTarget) Kind() StateKind { return KindDelegationTarget }

func (Unset) String() string       { return "NotSet" }
func (Rebasing) String() string    { return "StdRebasing" }
func (NonRebasing) String() string { return "StdNonRebasing" }

func (s DelegationSource) String() string {
	return "YieldDelegationSource(" + s.Target.StringLE() + ")"
}

func (s DelegationTarget) String() string {
	return "YieldDelegationTarget(" + s.Source.StringLE() + ")"
}

func newAccount() *Account {
	return &Account{
		Credits:         new(big.Int),
		State:           Unset{},
		CreditsPerToken: new(big.Int),
	}
}

// Copy returns a deep copy of a.
func (a *Account) Copy() Account {
	return Account{
		Credits:         new(big.Int).Set(a.Credits),
		State:           a.State,
		CreditsPerToken: new(big.Int).Set(a.CreditsPerToken),
		Upgraded:        a.Upgraded,
	}
}

// IsNonRebasing returns true if the account has its own fixed rate.
func (a *Account) IsNonRebasing() bool {
	return a.CreditsPerToken.Sign() > 0
}

// ToStackItem implements stackitem.Convertible.
func (a *Account) ToStackItem() (stackitem.Item, error) {
	var partner stackitem.Item = stackitem.Null{}
	switch s := a.State.(type) {
	case DelegationSource:
		partner = stackitem.NewByteArray(s.Target.BytesBE())
	case DelegationTarget:
		partner = stackitem.NewByteArray(s.Source.BytesBE())
	case nil:
		return nil, errors.New("nil rebase state")
	}

	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBigInteger(a.Credits),
		stackitem.NewBigInteger(big.NewInt(int64(a.State.Kind()))),
		partner,
		stackitem.NewBigInteger(a.CreditsPerToken),
		stackitem.NewBool(a.Upgraded),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (a *Account) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not a struct")
	}
	if len(arr) != accountFields {
		return errors.New("wrong number of structure elements")
	}

	var (
		index = -1
		err   error
	)
	index++
	a.Credits, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field Credits: %w", err)
	}

	index++
	kind, err := arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field State: %w", err)
	}

	index++
	var partner util.Uint160
	if _, null := arr[index].(stackitem.Null); !null {
		b, err := arr[index].TryBytes()
		if err != nil {
			return fmt.Errorf("field Partner: %w", err)
		}
		partner, err = util.Uint160DecodeBytesBE(b)
		if err != nil {
			return fmt.Errorf("field Partner: %w", err)
		}
	}

	switch StateKind(kind.Int64()) {
	case KindUnset:
		a.State = Unset{}
	case KindRebasing:
		a.State = Rebasing{}
	case KindNonRebasing:
		a.State = NonRebasing{}
	case KindDelegationSource:
		a.State = DelegationSource{Target: partner}
	case KindDelegationTarget:
		a.State = DelegationTarget{Source: partner}
	default:
		return fmt.Errorf("field State: unknown kind %d", kind)
	}

	index++
	a.CreditsPerToken, err = arr[index].TryInteger()
	if err != nil {
		return fmt.Errorf("field CreditsPerToken: %w", err)
	}

	index++
	a.Upgraded, err = arr[index].TryBool()
	if err != nil {
		return fmt.Errorf("field Upgraded: %w", err)
	}
	return nil
}

// Globals are the ledger-wide accounting values.
type Globals struct {
	TotalSupply             *big.Int
	RebasingCredits         *big.Int
	RebasingCreditsPerToken *big.Int
	NonRebasingSupply       *big.Int
}

const globalsFields = 4

// Copy returns a deep copy of g.
func (g *Globals) Copy() Globals {
	return Globals{
		TotalSupply:             new(big.Int).Set(g.TotalSupply),
		RebasingCredits:         new(big.Int).Set(g.RebasingCredits),
		RebasingCreditsPerToken: new(big.Int).Set(g.RebasingCreditsPerToken),
		NonRebasingSupply:       new(big.Int).Set(g.NonRebasingSupply),
	}
}

// ToStackItem implements stackitem.Convertible.
func (g *Globals) ToStackItem() (stackitem.Item, error) {
	return stackitem.NewStruct([]stackitem.Item{
		stackitem.NewBigInteger(g.TotalSupply),
		stackitem.NewBigInteger(g.RebasingCredits),
		stackitem.NewBigInteger(g.RebasingCreditsPerToken),
		stackitem.NewBigInteger(g.NonRebasingSupply),
	}), nil
}

// FromStackItem implements stackitem.Convertible.
func (g *Globals) FromStackItem(item stackitem.Item) error {
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return errors.New("not a struct")
	}
	if len(arr) != globalsFields {
		return errors.New("wrong number of structure elements")
	}

	fields := []struct {
		name string
		dst  **big.Int
	}{
		{"TotalSupply", &g.TotalSupply},
		{"RebasingCredits", &g.RebasingCredits},
		{"RebasingCreditsPerToken", &g.RebasingCreditsPerToken},
		{"NonRebasingSupply", &g.NonRebasingSupply},
	}
	for i, f := range fields {
		v, err := arr[i].TryInteger()
		if err != nil {
			return fmt.Errorf("field %s: %w", f.name, err)
		}
		*f.dst = v
	}
	return nil
}
