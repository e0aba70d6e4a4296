package ousd

import (
	"context"
	"testing"

	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
)

func TestDelegateYield(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b, c := newAccountHash(t), newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(100))
	tl.mint(b, tokens(50))
	tl.mint(c, tokens(50))

	require.ErrorIs(t, tl.DelegateYield(ctx, tl.vault, a, b), ErrAuthorizationDenied)
	require.ErrorIs(t, tl.DelegateYield(ctx, tl.governor, a, a), ErrDelegationConflict)
	require.ErrorIs(t, tl.DelegateYield(ctx, tl.governor, a, util.Uint160{}), ErrInvalidAccount)

	require.NoError(t, tl.DelegateYield(ctx, tl.governor, a, b))
	tl.requireBalance(a, tokens(100))
	tl.requireBalance(b, tokens(50))
	tl.requireInvariants()

	to, ok, err := tl.YieldTo(a)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, b, to)
	from, ok, err := tl.YieldFrom(b)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, a, from)
	_, ok, err = tl.YieldTo(b)
	require.NoError(t, err)
	require.False(t, ok)

	s, err := tl.RebaseState(a)
	require.NoError(t, err)
	require.Equal(t, DelegationSource{Target: b}, s)
	s, err = tl.RebaseState(b)
	require.NoError(t, err)
	require.Equal(t, DelegationTarget{Source: a}, s)

	tl.changeSupply(tokens(400))
	tl.requireBalance(a, tokens(100))
	tl.requireBalance(b, tokens(200))
	tl.requireBalance(c, tokens(100))
	tl.requireInvariants()

	require.NoError(t, tl.UndelegateYield(ctx, tl.governor, a))
	tl.requireBalance(a, tokens(100))
	tl.requireBalance(b, tokens(200))
	tl.requireInvariants()

	s, err = tl.RebaseState(a)
	require.NoError(t, err)
	require.Equal(t, NonRebasing{}, s)
	s, err = tl.RebaseState(b)
	require.NoError(t, err)
	require.Equal(t, Rebasing{}, s)

	g := tl.requireGlobals()
	require.Equal(t, tokens(400), g.TotalSupply)
	require.Equal(t, tokens(100), g.NonRebasingSupply)
}

func TestDelegationConflicts(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b, c := newAccountHash(t), newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(10))
	tl.mint(b, tokens(10))
	tl.mint(c, tokens(10))

	require.ErrorIs(t, tl.UndelegateYield(ctx, tl.governor, a), ErrDelegationConflict)
	require.NoError(t, tl.DelegateYield(ctx, tl.governor, a, b))

	digest := tl.stateHash()
	for _, pair := range [][2]util.Uint160{{a, c}, {c, a}, {b, c}, {c, b}, {b, a}} {
		require.ErrorIs(t, tl.DelegateYield(ctx, tl.governor, pair[0], pair[1]), ErrDelegationConflict)
	}
	require.ErrorIs(t, tl.UndelegateYield(ctx, tl.governor, b), ErrDelegationConflict)
	require.ErrorIs(t, tl.RebaseOptIn(ctx, a), ErrInvalidRebaseState)
	require.ErrorIs(t, tl.RebaseOptOut(ctx, b), ErrInvalidRebaseState)
	require.Equal(t, digest, tl.stateHash())
}

func TestDelegationNonRebasingParties(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b := newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(30))
	tl.mint(b, tokens(70))
	require.NoError(t, tl.RebaseOptOut(ctx, a))
	require.NoError(t, tl.RebaseOptOut(ctx, b))

	require.NoError(t, tl.DelegateYield(ctx, tl.governor, a, b))
	tl.requireBalance(a, tokens(30))
	tl.requireBalance(b, tokens(70))
	tl.requireInvariants()

	g := tl.requireGlobals()
	require.Zero(t, g.NonRebasingSupply.Sign())

	tl.changeSupply(tokens(200))
	tl.requireBalance(a, tokens(30))
	tl.requireBalance(b, tokens(170))
	tl.requireInvariants()
}

func TestDelegationTransfers(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b, c := newAccountHash(t), newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(100))
	tl.mint(b, tokens(100))
	require.NoError(t, tl.DelegateYield(ctx, tl.governor, a, b))

	require.NoError(t, tl.Transfer(ctx, a, c, tokens(40)))
	tl.requireBalance(a, tokens(60))
	tl.requireBalance(b, tokens(100))
	tl.requireBalance(c, tokens(40))
	tl.requireInvariants()

	require.NoError(t, tl.Transfer(ctx, b, a, tokens(25)))
	tl.requireBalance(a, tokens(85))
	tl.requireBalance(b, tokens(75))
	tl.requireInvariants()

	require.NoError(t, tl.Transfer(ctx, c, b, tokens(10)))
	tl.requireBalance(b, tokens(85))
	tl.requireBalance(c, tokens(30))
	tl.requireInvariants()

	require.ErrorIs(t, tl.Transfer(ctx, b, c, tokens(86)), ErrInsufficientBalance)
	require.ErrorIs(t, tl.Transfer(ctx, a, c, tokens(86)), ErrInsufficientBalance)

	require.NoError(t, tl.Burn(ctx, tl.vault, a, tokens(5)))
	require.NoError(t, tl.Mint(ctx, tl.vault, b, tokens(15)))
	tl.requireBalance(a, tokens(80))
	tl.requireBalance(b, tokens(100))
	require.Equal(t, tokens(210), tl.requireGlobals().TotalSupply)
	tl.requireInvariants()
}

func TestDelegationTargetBelowSource(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b, c := newAccountHash(t), newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(100))
	tl.mint(b, tokens(100))
	require.NoError(t, tl.DelegateYield(ctx, tl.governor, a, b))

	tl.changeSupply(tokens(50))
	require.ErrorIs(t, tl.CheckInvariants(), ErrInvariantViolation)

	_, err := tl.BalanceOf(b)
	require.ErrorIs(t, err, ErrInvariantViolation)
	require.ErrorIs(t, tl.UndelegateYield(ctx, tl.governor, a), ErrInvariantViolation)
	require.ErrorIs(t, tl.Transfer(ctx, a, c, tokens(1)), ErrInvariantViolation)

	tl.changeSupply(tokens(200))
	tl.requireInvariants()
	tl.requireBalance(a, tokens(100))
	tl.requireBalance(b, tokens(100))
	require.NoError(t, tl.UndelegateYield(ctx, tl.governor, a))
	tl.requireInvariants()
}
