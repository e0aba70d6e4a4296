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

// Initialize sets up an empty ledger with the given rebasing rate. Use
// DefaultCreditsPerToken for a high resolution ledger.
func (l *Ledger) Initialize(ctx context.Context, caller util.Uint160, initialCreditsPerToken *big.Int) error {
	return l.execute(ctx, "initialize", func(v *view) error {
		if err := common.CheckRole(v.l.auth, caller, common.RoleGovernor); err != nil {
			return err
		}
		if v.globals != nil {
			return ErrAlreadyInitialized
		}
		if initialCreditsPerToken == nil || initialCreditsPerToken.Cmp(scale) < 0 {
			return fmt.Errorf("%w: credits per token must be at least %s", ErrInvalidAmount, scale)
		}

		v.setGlobals(&Globals{
			TotalSupply:             new(big.Int),
			RebasingCredits:         new(big.Int),
			RebasingCreditsPerToken: new(big.Int).Set(initialCreditsPerToken),
			NonRebasingSupply:       new(big.Int),
		})
		v.l.log.Info("ledger initialized",
			zap.Stringer("credits per token", initialCreditsPerToken))
		return nil
	})
}

// Mint issues amount to the account.
func (l *Ledger) Mint(ctx context.Context, caller, account util.Uint160, amount *big.Int) error {
	return l.execute(ctx, "mint", func(v *view) error {
		if err := common.CheckRole(v.l.auth, caller, common.RoleVault); err != nil {
			return err
		}
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(account); err != nil {
			return fmt.Errorf("mint to the zero address: %w", err)
		}
		if err := checkAmount(amount); err != nil {
			return err
		}

		rebasingCredits, nonRebasingSupply, err := v.adjustAccount(account, amount)
		if err != nil {
			return err
		}
		if err := v.adjustGlobals(rebasingCredits, nonRebasingSupply); err != nil {
			return err
		}

		v.globals.TotalSupply = add(v.globals.TotalSupply, amount)
		if v.globals.TotalSupply.Cmp(maxSupply) >= 0 {
			return ErrMaxSupply
		}

		v.notify(ousdconst.TransferNotification, util.Uint160{}, account, new(big.Int).Set(amount))
		v.notifySupply()
		return nil
	})
}

// Burn destroys amount from the account. Burning zero is a no-op.
func (l *Ledger) Burn(ctx context.Context, caller, account util.Uint160, amount *big.Int) error {
	return l.execute(ctx, "burn", func(v *view) error {
		if err := common.CheckRole(v.l.auth, caller, common.RoleVault); err != nil {
			return err
		}
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAccounts(account); err != nil {
			return fmt.Errorf("burn from the zero address: %w", err)
		}
		if err := checkAmount(amount); err != nil {
			return err
		}
		if amount.Sign() == 0 {
			return nil
		}

		rebasingCredits, nonRebasingSupply, err := v.adjustAccount(account, neg(amount))
		if err != nil {
			return err
		}
		if err := v.adjustGlobals(rebasingCredits, nonRebasingSupply); err != nil {
			return err
		}

		v.globals.TotalSupply = sub(v.globals.TotalSupply, amount)
		if v.globals.TotalSupply.Sign() < 0 {
			return fmt.Errorf("%w: negative total supply", ErrInvariantViolation)
		}

		v.notify(ousdconst.TransferNotification, account, util.Uint160{}, new(big.Int).Set(amount))
		v.notifySupply()
		return nil
	})
}

// ChangeSupply rebases the ledger so that the total supply becomes
// newTotalSupply (clamped to MaxSupply). Only rebasing balances change. The
// resulting supply is re-derived from the new rate and may differ from the
// requested one by rounding. The rate never drops below Scale, otherwise
// rounding of credits would inflate balances.
func (l *Ledger) ChangeSupply(ctx context.Context, caller util.Uint160, newTotalSupply *big.Int) error {
	return l.execute(ctx, "changeSupply", func(v *view) error {
		if err := common.CheckRole(v.l.auth, caller, common.RoleVault); err != nil {
			return err
		}
		if err := v.requireInitialized(); err != nil {
			return err
		}
		if err := checkAmount(newTotalSupply); err != nil {
			return err
		}
		if v.globals.TotalSupply.Sign() == 0 {
			return ErrEmptySupply
		}
		if v.globals.TotalSupply.Cmp(newTotalSupply) == 0 {
			v.notifySupply()
			return nil
		}

		clamped := newTotalSupply
		if clamped.Cmp(maxSupply) > 0 {
			clamped = maxSupply
		}
		rebasingSupply := sub(clamped, v.globals.NonRebasingSupply)
		if rebasingSupply.Sign() <= 0 {
			return fmt.Errorf("%w: rebasing supply %s is not positive", ErrInvariantViolation, rebasingSupply)
		}

		rate := new(big.Int).Mul(v.globals.RebasingCredits, scale)
		rate.Quo(rate, rebasingSupply)
		if rate.Cmp(scale) < 0 {
			return fmt.Errorf("%w: invalid change in supply, credits per token %s is below %s",
				ErrInvariantViolation, rate, scale)
		}

		total := add(toBalance(v.globals.RebasingCredits, rate), v.globals.NonRebasingSupply)
		v.globals.RebasingCreditsPerToken = rate
		v.globals.TotalSupply = total
		v.globalsDirty = true

		v.notifySupply()
		return nil
	})
}

func (v *view) notifySupply() {
	v.notify(ousdconst.TotalSupplyUpdatedHighresNotification,
		new(big.Int).Set(v.globals.TotalSupply),
		new(big.Int).Set(v.globals.RebasingCredits),
		new(big.Int).Set(v.globals.RebasingCreditsPerToken))
}
