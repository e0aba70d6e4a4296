package ousd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd/ousdconst"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Transfer moves value from caller to the given account.
func (l *Ledger) Transfer(ctx context.Context, caller, to util.Uint160, value *big.Int) error {
	return l.execute(ctx, "transfer", func(v *view) error {
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(caller, to); err != nil {
			return err
		}
		if err := checkAmount(value); err != nil {
			return err
		}
		return v.transfer(caller, to, value)
	})
}

// TransferFrom moves value from the given account using the allowance
// approved to caller.
func (l *Ledger) TransferFrom(ctx context.Context, caller, from, to util.Uint160, value *big.Int) error {
	return l.execute(ctx, "transferFrom", func(v *view) error {
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(from, to); err != nil {
			return err
		}
		if err := checkAmount(value); err != nil {
			return err
		}

		allowed, err := v.allowance(from, caller)
		if err != nil {
			return err
		}
		if allowed.Cmp(value) < 0 {
			return fmt.Errorf("%w: %s allowed, %s requested", ErrAllowanceExceeded, allowed, value)
		}
		v.setAllowance(from, caller, allowed.Sub(allowed, value))
		return v.transfer(from, to, value)
	})
}

// Approve sets the amount spender may transfer from caller.
func (l *Ledger) Approve(ctx context.Context, caller, spender util.Uint160, value *big.Int) error {
	return l.execute(ctx, "approve", func(v *view) error {
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(caller); err != nil {
			return err
		}
		if err := checkAmount(value); err != nil {
			return err
		}
		v.setAllowance(caller, spender, value)
		v.notify(ousdconst.ApprovalNotification, caller, spender, new(big.Int).Set(value))
		return nil
	})
}

func (v *view) transfer(from, to util.Uint160, value *big.Int) error {
	if from.Equals(to) {
		v.notify(ousdconst.TransferNotification, from, to, new(big.Int).Set(value))
		return nil
	}

	fromRebasing, fromNonRebasing, err := v.adjustAccount(from, neg(value))
	if err != nil {
		return err
	}
	toRebasing, toNonRebasing, err := v.adjustAccount(to, value)
	if err != nil {
		return err
	}
	if err := v.adjustGlobals(add(fromRebasing, toRebasing), add(fromNonRebasing, toNonRebasing)); err != nil {
		return err
	}

	v.notify(ousdconst.TransferNotification, from, to, new(big.Int).Set(value))
	return nil
}

// adjustAccount applies a balance delta to the account and returns the
// resulting changes of the rebasing credits and the non-rebasing supply.
// The caller is responsible for applying them with adjustGlobals.
func (v *view) adjustAccount(h util.Uint160, delta *big.Int) (*big.Int, *big.Int, error) {
	if err := v.materialize(h); err != nil {
		return nil, nil, err
	}

	acc, err := v.account(h)
	if err != nil {
		return nil, nil, err
	}
	balance, err := v.balanceOf(h)
	if err != nil {
		return nil, nil, err
	}
	newBalance := add(balance, delta)
	if newBalance.Sign() < 0 {
		return nil, nil, fmt.Errorf("%w: %s available, %s requested",
			ErrInsufficientBalance, balance, neg(delta))
	}

	var (
		rebasingCredits   = new(big.Int)
		nonRebasingSupply = new(big.Int)
	)
	switch s := acc.State.(type) {
	case DelegationSource:
		target, err := v.account(s.Target)
		if err != nil {
			return nil, nil, err
		}
		targetBalance, err := v.balanceOf(s.Target)
		if err != nil {
			return nil, nil, err
		}
		newTargetCredits := toCredits(add(newBalance, targetBalance), v.globals.RebasingCreditsPerToken)
		rebasingCredits = sub(newTargetCredits, target.Credits)

		acc.Credits = newBalance
		target.Credits = newTargetCredits
		v.touch(h)
		v.touch(s.Target)
	case DelegationTarget:
		source, err := v.account(s.Source)
		if err != nil {
			return nil, nil, err
		}
		newCredits := toCredits(add(newBalance, source.Credits), v.globals.RebasingCreditsPerToken)
		rebasingCredits = sub(newCredits, acc.Credits)

		acc.Credits = newCredits
		v.touch(h)
	default:
		if acc.IsNonRebasing() {
			nonRebasingSupply = delta
			acc.CreditsPerToken = new(big.Int).Set(scale)
			acc.Credits = newBalance
		} else {
			newCredits := toCredits(newBalance, v.globals.RebasingCreditsPerToken)
			rebasingCredits = sub(newCredits, acc.Credits)
			acc.Credits = newCredits
		}
		v.touch(h)
	}
	return rebasingCredits, nonRebasingSupply, nil
}

func checkAccounts(hs ...util.Uint160) error {
	for i := range hs {
		if hs[i].Equals(util.Uint160{}) {
			return fmt.Errorf("%w: zero account", ErrInvalidAccount)
		}
	}
	return nil
}

func checkAmount(v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, v)
	}
	return nil
}
