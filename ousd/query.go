package ousd

import (
	"math/big"

	"github.com/nspcc-dev/neo-go/pkg/util"
)

// BalanceOf returns the displayed balance of the account.
func (l *Ledger) BalanceOf(account util.Uint160) (*big.Int, error) {
	var res *big.Int
	err := l.read(func(v *view) error {
		var err error
		res, err = v.balanceOf(account)
		return err
	})
	return res, err
}

// Allowance returns the amount spender may transfer from owner.
func (l *Ledger) Allowance(owner, spender util.Uint160) (*big.Int, error) {
	var res *big.Int
	err := l.read(func(v *view) error {
		var err error
		res, err = v.allowance(owner, spender)
		return err
	})
	return res, err
}

// Globals returns a copy of the ledger-wide accounting values.
func (l *Ledger) Globals() (Globals, error) {
	var res Globals
	err := l.read(func(v *view) error {
		res = v.globals.Copy()
		return nil
	})
	return res, err
}

// TotalSupply returns the total supply.
func (l *Ledger) TotalSupply() (*big.Int, error) {
	g, err := l.Globals()
	return g.TotalSupply, err
}

// NonRebasingSupply returns the sum of non-rebasing balances.
func (l *Ledger) NonRebasingSupply() (*big.Int, error) {
	g, err := l.Globals()
	return g.NonRebasingSupply, err
}

// RebasingCreditsHighres returns the sum of rebasing credits.
func (l *Ledger) RebasingCreditsHighres() (*big.Int, error) {
	g, err := l.Globals()
	return g.RebasingCredits, err
}

// RebasingCredits returns the sum of rebasing credits in low resolution.
func (l *Ledger) RebasingCredits() (*big.Int, error) {
	g, err := l.Globals()
	if err != nil {
		return nil, err
	}
	return g.RebasingCredits.Quo(g.RebasingCredits, resolutionIncrease), nil
}

// RebasingCreditsPerTokenHighres returns the global rebasing rate.
func (l *Ledger) RebasingCreditsPerTokenHighres() (*big.Int, error) {
	g, err := l.Globals()
	return g.RebasingCreditsPerToken, err
}

// RebasingCreditsPerToken returns the global rebasing rate in low resolution.
func (l *Ledger) RebasingCreditsPerToken() (*big.Int, error) {
	g, err := l.Globals()
	if err != nil {
		return nil, err
	}
	return g.RebasingCreditsPerToken.Quo(g.RebasingCreditsPerToken, resolutionIncrease), nil
}

// Account returns a copy of the stored account. Accounts never written are
// returned zero-valued.
func (l *Ledger) Account(account util.Uint160) (Account, error) {
	var res Account
	err := l.read(func(v *view) error {
		acc, err := v.account(account)
		if err != nil {
			return err
		}
		res = acc.Copy()
		return nil
	})
	return res, err
}

// RebaseState returns the classification of the account.
func (l *Ledger) RebaseState(account util.Uint160) (RebaseState, error) {
	acc, err := l.Account(account)
	if err != nil {
		return nil, err
	}
	return acc.State, nil
}

// YieldTo returns the delegation target of the account, if any.
func (l *Ledger) YieldTo(account util.Uint160) (util.Uint160, bool, error) {
	acc, err := l.Account(account)
	if err != nil {
		return util.Uint160{}, false, err
	}
	s, ok := acc.State.(DelegationSource)
	return s.Target, ok, nil
}

// YieldFrom returns the delegation source of the account, if any.
func (l *Ledger) YieldFrom(account util.Uint160) (util.Uint160, bool, error) {
	acc, err := l.Account(account)
	if err != nil {
		return util.Uint160{}, false, err
	}
	s, ok := acc.State.(DelegationTarget)
	return s.Source, ok, nil
}

// CreditsBalanceOfHighres returns the account credits, the rate they are
// valued at and the high resolution marker.
func (l *Ledger) CreditsBalanceOfHighres(account util.Uint160) (*big.Int, *big.Int, bool, error) {
	var (
		credits, rate *big.Int
		upgraded      bool
	)
	err := l.read(func(v *view) error {
		acc, err := v.account(account)
		if err != nil {
			return err
		}
		credits = new(big.Int).Set(acc.Credits)
		rate = new(big.Int).Set(v.creditsPerToken(acc))
		upgraded = acc.Upgraded
		return nil
	})
	return credits, rate, upgraded, err
}

// CreditsBalanceOf returns the low resolution view of the account credits.
// Accounts valued at exactly the initial high resolution rate are returned as
// is, others are scaled down.
func (l *Ledger) CreditsBalanceOf(account util.Uint160) (*big.Int, *big.Int, error) {
	credits, rate, _, err := l.CreditsBalanceOfHighres(account)
	if err != nil {
		return nil, nil, err
	}
	if rate.Cmp(highresRate) == 0 {
		return credits, rate, nil
	}
	return credits.Quo(credits, resolutionIncrease), rate.Quo(rate, resolutionIncrease), nil
}

// NonRebasingCreditsPerToken returns the own rate of the account, zero for
// rebasing accounts.
func (l *Ledger) NonRebasingCreditsPerToken(account util.Uint160) (*big.Int, error) {
	acc, err := l.Account(account)
	if err != nil {
		return nil, err
	}
	return acc.CreditsPerToken, nil
}
