package ousd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd/ousdconst"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

// RebaseOptIn makes caller's balance follow rebases.
func (l *Ledger) RebaseOptIn(ctx context.Context, caller util.Uint160) error {
	return l.execute(ctx, "rebaseOptIn", func(v *view) error {
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(caller); err != nil {
			return err
		}
		return v.rebaseOptIn(caller)
	})
}

// GovernanceRebaseOptIn opts the account in on its behalf.
func (l *Ledger) GovernanceRebaseOptIn(ctx context.Context, caller, account util.Uint160) error {
	return l.execute(ctx, "governanceRebaseOptIn", func(v *view) error {
		if err := common.CheckRole(v.l.auth, caller, common.RoleGovernor); err != nil {
			return err
		}
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(account); err != nil {
			return err
		}
		return v.rebaseOptIn(account)
	})
}

// RebaseOptOut freezes caller's balance at its current value.
func (l *Ledger) RebaseOptOut(ctx context.Context, caller util.Uint160) error {
	return l.execute(ctx, "rebaseOptOut", func(v *view) error {
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(caller); err != nil {
			return err
		}
		return v.rebaseOptOut(caller)
	})
}

// Materialize performs the pending classification of an Unset contract
// account: it is made non-rebasing at its current balance. Other accounts are
// left as is.
func (l *Ledger) Materialize(ctx context.Context, account util.Uint160) error {
	return l.execute(ctx, "materialize", func(v *view) error {
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(account); err != nil {
			return err
		}
		return v.materialize(account)
	})
}

func (v *view) materialize(h util.Uint160) error {
	if !v.l.contracts.IsContract(h) {
		return nil
	}
	acc, err := v.account(h)
	if err != nil {
		return err
	}
	if _, unset := acc.State.(Unset); !unset || acc.IsNonRebasing() {
		return nil
	}

	v.l.log.Debug("materializing contract account",
		zap.String("account", h.StringLE()))
	return v.rebaseOptOut(h)
}

func (v *view) rebaseOptIn(h util.Uint160) error {
	acc, err := v.account(h)
	if err != nil {
		return err
	}
	if !acc.IsNonRebasing() && acc.Credits.Sign() != 0 {
		return fmt.Errorf("%w: account must be non-rebasing", ErrInvalidRebaseState)
	}
	switch acc.State.(type) {
	case Unset, NonRebasing:
	default:
		return fmt.Errorf("%w: only standard non-rebasing accounts can opt in, got %s",
			ErrInvalidRebaseState, acc.State)
	}

	balance, err := v.balanceOf(h)
	if err != nil {
		return err
	}
	newCredits := toCredits(balance, v.globals.RebasingCreditsPerToken)

	acc.State = Rebasing{}
	acc.CreditsPerToken = new(big.Int)
	acc.Credits = newCredits
	v.touch(h)

	if err := v.adjustGlobals(newCredits, neg(balance)); err != nil {
		return err
	}
	v.notify(ousdconst.AccountRebasingEnabledNotification, h)
	return nil
}

func (v *view) rebaseOptOut(h util.Uint160) error {
	acc, err := v.account(h)
	if err != nil {
		return err
	}
	if acc.IsNonRebasing() {
		return fmt.Errorf("%w: account must be rebasing", ErrInvalidRebaseState)
	}
	switch acc.State.(type) {
	case Unset, Rebasing:
	default:
		return fmt.Errorf("%w: only standard rebasing accounts can opt out, got %s",
			ErrInvalidRebaseState, acc.State)
	}

	oldCredits := acc.Credits
	balance, err := v.balanceOf(h)
	if err != nil {
		return err
	}

	acc.State = NonRebasing{}
	acc.CreditsPerToken = new(big.Int).Set(scale)
	acc.Credits = balance
	v.touch(h)

	if err := v.adjustGlobals(neg(oldCredits), balance); err != nil {
		return err
	}
	v.notify(ousdconst.AccountRebasingDisabledNotification, h)
	return nil
}
