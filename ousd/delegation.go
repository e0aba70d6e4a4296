package ousd

import (
	"context"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd/ousdconst"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// DelegateYield links from to to: from keeps a fixed balance and the yield
// it would have earned accrues to the target.
func (l *Ledger) DelegateYield(ctx context.Context, caller, from, to util.Uint160) error {
	return l.execute(ctx, "delegateYield", func(v *view) error {
		if err := common.CheckRole(v.l.auth, caller, common.RoleGovernor); err != nil {
			return err
		}
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(from, to); err != nil {
			return err
		}
		if from.Equals(to) {
			return fmt.Errorf("%w: cannot delegate to self", ErrDelegationConflict)
		}
		return v.delegateYield(from, to)
	})
}

// UndelegateYield removes the delegation link of from.
func (l *Ledger) UndelegateYield(ctx context.Context, caller, from util.Uint160) error {
	return l.execute(ctx, "undelegateYield", func(v *view) error {
		if err := common.CheckRole(v.l.auth, caller, common.RoleGovernor); err != nil {
			return err
		}
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(from); err != nil {
			return err
		}
		return v.undelegateYield(from)
	})
}

func (v *view) delegateYield(from, to util.Uint160) error {
	fromAcc, err := v.account(from)
	if err != nil {
		return err
	}
	toAcc, err := v.account(to)
	if err != nil {
		return err
	}
	if isDelegating(fromAcc) || isDelegating(toAcc) {
		return fmt.Errorf("%w: blocked by existing yield delegation", ErrDelegationConflict)
	}

	if !fromAcc.IsNonRebasing() {
		if err := v.rebaseOptOut(from); err != nil {
			return err
		}
	}
	if toAcc.IsNonRebasing() {
		if err := v.rebaseOptIn(to); err != nil {
			return err
		}
	}

	fromBalance, err := v.balanceOf(from)
	if err != nil {
		return err
	}
	targetBalance, err := v.balanceOf(to)
	if err != nil {
		return err
	}
	oldToCredits := toAcc.Credits
	newToCredits := toCredits(add(fromBalance, targetBalance), v.globals.RebasingCreditsPerToken)

	fromAcc.State = DelegationSource{Target: to}
	fromAcc.CreditsPerToken = new(big.Int).Set(scale)
	fromAcc.Credits = fromBalance
	toAcc.State = DelegationTarget{Source: from}
	toAcc.Credits = newToCredits
	v.touch(from)
	v.touch(to)

	if err := v.adjustGlobals(sub(newToCredits, oldToCredits), neg(fromBalance)); err != nil {
		return err
	}
	v.notify(ousdconst.YieldDelegatedNotification, from, to)
	return nil
}

func (v *view) undelegateYield(from util.Uint160) error {
	fromAcc, err := v.account(from)
	if err != nil {
		return err
	}
	link, ok := fromAcc.State.(DelegationSource)
	if !ok {
		return fmt.Errorf("%w: no yield delegation", ErrDelegationConflict)
	}
	to := link.Target
	toAcc, err := v.account(to)
	if err != nil {
		return err
	}

	fromBalance, err := v.balanceOf(from)
	if err != nil {
		return err
	}
	targetBalance, err := v.balanceOf(to)
	if err != nil {
		return err
	}
	oldToCredits := toAcc.Credits
	newToCredits := toCredits(targetBalance, v.globals.RebasingCreditsPerToken)

	fromAcc.State = NonRebasing{}
	fromAcc.Credits = fromBalance
	toAcc.State = Rebasing{}
	toAcc.Credits = newToCredits
	v.touch(from)
	v.touch(to)

	if err := v.adjustGlobals(sub(newToCredits, oldToCredits), fromBalance); err != nil {
		return err
	}
	v.notify(ousdconst.YieldUndelegatedNotification, from, to)
	return nil
}

func isDelegating(acc *Account) bool {
	switch acc.State.(type) {
	case DelegationSource, DelegationTarget:
		return true
	}
	return false
}
