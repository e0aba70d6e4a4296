package ousd

import (
	"context"
	"math/big"
	"testing"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd/ousdconst"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type testLedger struct {
	*Ledger
	t        testing.TB
	store    storage.Store
	governor util.Uint160
	vault    util.Uint160
	contract util.Uint160
}

func newAccountHash(t testing.TB) util.Uint160 {
	k, err := keys.NewPrivateKey()
	require.NoError(t, err)
	return k.GetScriptHash()
}

func newUninitializedLedger(t testing.TB) *testLedger {
	tl := &testLedger{
		t:        t,
		store:    storage.NewMemoryStore(),
		governor: newAccountHash(t),
		vault:    newAccountHash(t),
		contract: newAccountHash(t),
	}

	var err error
	tl.Ledger, err = New(tl.store, tl.options())
	require.NoError(t, err)
	return tl
}

func (tl *testLedger) options() Options {
	return Options{
		Logger: zaptest.NewLogger(tl.t),
		Hash:   util.Uint160{1, 2, 3},
		Authorizer: common.Roles{
			Governors: []util.Uint160{tl.governor},
			Vaults:    []util.Uint160{tl.vault},
		},
		Contracts: NewContractSet(tl.contract),
	}
}

func newTestLedger(t testing.TB) *testLedger {
	tl := newUninitializedLedger(t)
	require.NoError(t, tl.Initialize(context.Background(), tl.governor, DefaultCreditsPerToken()))
	return tl
}

// tokens returns n whole tokens.
func tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), scale)
}

func (tl *testLedger) mint(h util.Uint160, amount *big.Int) {
	require.NoError(tl.t, tl.Mint(context.Background(), tl.vault, h, amount))
}

func (tl *testLedger) changeSupply(total *big.Int) {
	require.NoError(tl.t, tl.ChangeSupply(context.Background(), tl.vault, total))
}

func (tl *testLedger) requireBalance(h util.Uint160, expected *big.Int) {
	actual, err := tl.BalanceOf(h)
	require.NoError(tl.t, err)
	require.Equal(tl.t, expected.String(), actual.String())
}

func (tl *testLedger) requireGlobals() Globals {
	g, err := tl.Globals()
	require.NoError(tl.t, err)
	return g
}

func (tl *testLedger) requireInvariants() {
	require.NoError(tl.t, tl.CheckInvariants())
}

func (tl *testLedger) stateHash() string {
	h, err := tl.StateHash()
	require.NoError(tl.t, err)
	return h
}

func TestInitialize(t *testing.T) {
	ctx := context.Background()
	tl := newUninitializedLedger(t)

	ok, err := tl.IsInitialized()
	require.NoError(t, err)
	require.False(t, ok)

	_, err = tl.BalanceOf(tl.governor)
	require.ErrorIs(t, err, ErrNotInitialized)
	require.ErrorIs(t, tl.Transfer(ctx, tl.governor, tl.vault, big.NewInt(1)), ErrNotInitialized)
	require.ErrorIs(t, tl.Mint(ctx, tl.vault, tl.governor, big.NewInt(1)), ErrNotInitialized)

	require.ErrorIs(t, tl.Initialize(ctx, tl.vault, DefaultCreditsPerToken()), ErrAuthorizationDenied)
	require.ErrorIs(t, tl.Initialize(ctx, tl.governor, big.NewInt(0)), ErrInvalidAmount)
	require.ErrorIs(t, tl.Initialize(ctx, tl.governor, big.NewInt(1_000_000_000)), ErrInvalidAmount)
	require.ErrorIs(t, tl.Initialize(ctx, tl.governor, sub(Scale(), one)), ErrInvalidAmount)
	require.NoError(t, tl.Initialize(ctx, tl.governor, DefaultCreditsPerToken()))
	require.ErrorIs(t, tl.Initialize(ctx, tl.governor, DefaultCreditsPerToken()), ErrAlreadyInitialized)

	g := tl.requireGlobals()
	require.Equal(t, "1000000000000000000000000000", g.RebasingCreditsPerToken.String())
	require.Zero(t, g.TotalSupply.Sign())
	require.Zero(t, g.RebasingCredits.Sign())
	require.Zero(t, g.NonRebasingSupply.Sign())

	version, err := storedVersion(tl.store)
	require.NoError(t, err)
	require.Equal(t, common.Version, version)
}

func TestReopen(t *testing.T) {
	tl := newTestLedger(t)
	a := newAccountHash(t)
	tl.mint(a, tokens(10))
	digest := tl.stateHash()

	reopened, err := New(tl.store, tl.options())
	require.NoError(t, err)
	h, err := reopened.StateHash()
	require.NoError(t, err)
	require.Equal(t, digest, h)

	balance, err := reopened.BalanceOf(a)
	require.NoError(t, err)
	require.Equal(t, tokens(10), balance)

	height, err := reopened.Height()
	require.NoError(t, err)
	require.Equal(t, uint32(2), height)
}

func TestVersionMismatch(t *testing.T) {
	tl := newTestLedger(t)

	cache := storage.NewMemCachedStore(tl.store)
	cache.Put([]byte{versionKey}, []byte{0x01})
	_, err := cache.PersistSync()
	require.NoError(t, err)

	_, err = New(tl.store, tl.options())
	require.ErrorIs(t, err, ErrVersionMismatch)
}

func TestMintBurn(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a := newAccountHash(t)

	require.ErrorIs(t, tl.Mint(ctx, tl.governor, a, tokens(1)), ErrAuthorizationDenied)
	require.ErrorIs(t, tl.Mint(ctx, tl.vault, util.Uint160{}, tokens(1)), ErrInvalidAccount)
	require.ErrorIs(t, tl.Mint(ctx, tl.vault, a, big.NewInt(-1)), ErrInvalidAmount)

	tl.mint(a, tokens(100))
	tl.requireBalance(a, tokens(100))

	g := tl.requireGlobals()
	require.Equal(t, tokens(100), g.TotalSupply)
	require.Equal(t, "100000000000000000000000000000", g.RebasingCredits.String())

	require.ErrorIs(t, tl.Burn(ctx, tl.vault, a, tokens(101)), ErrInsufficientBalance)
	require.ErrorIs(t, tl.Burn(ctx, tl.governor, a, tokens(1)), ErrAuthorizationDenied)

	digest := tl.stateHash()
	require.NoError(t, tl.Burn(ctx, tl.vault, a, big.NewInt(0)))
	require.Equal(t, digest, tl.stateHash())

	require.NoError(t, tl.Burn(ctx, tl.vault, a, tokens(40)))
	tl.requireBalance(a, tokens(60))
	require.Equal(t, tokens(60), tl.requireGlobals().TotalSupply)
	tl.requireInvariants()
}

func TestMintMaxSupply(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a := newAccountHash(t)

	limit := MaxSupply()
	require.ErrorIs(t, tl.Mint(ctx, tl.vault, a, limit), ErrMaxSupply)

	tl.mint(a, sub(limit, one))
	require.ErrorIs(t, tl.Mint(ctx, tl.vault, a, one), ErrMaxSupply)
	tl.requireInvariants()
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b := newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(100))

	require.ErrorIs(t, tl.Transfer(ctx, a, util.Uint160{}, tokens(1)), ErrInvalidAccount)
	require.ErrorIs(t, tl.Transfer(ctx, a, b, big.NewInt(-1)), ErrInvalidAmount)
	require.ErrorIs(t, tl.Transfer(ctx, a, b, tokens(101)), ErrInsufficientBalance)

	require.NoError(t, tl.Transfer(ctx, a, b, tokens(30)))
	tl.requireBalance(a, tokens(70))
	tl.requireBalance(b, tokens(30))
	require.Equal(t, tokens(100), tl.requireGlobals().TotalSupply)
	tl.requireInvariants()
}

func TestTransferFailureLeavesState(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b := newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(10))
	require.NoError(t, tl.RebaseOptOut(ctx, b))

	digest := tl.stateHash()
	require.ErrorIs(t, tl.Transfer(ctx, a, b, tokens(11)), ErrInsufficientBalance)
	require.Equal(t, digest, tl.stateHash())
}

func TestSelfTransfer(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a := newAccountHash(t)
	tl.mint(a, tokens(10))

	var events []Execution
	tl.AddListener(func(_ context.Context, e Execution) {
		events = append(events, e)
	})

	digest := tl.stateHash()
	require.NoError(t, tl.Transfer(ctx, a, a, tokens(10)))
	require.Equal(t, digest, tl.stateHash())
	tl.requireBalance(a, tokens(10))

	require.NoError(t, tl.Transfer(ctx, a, a, tokens(11)))
	require.Equal(t, digest, tl.stateHash())
	tl.requireBalance(a, tokens(10))

	b := newAccountHash(t)
	require.NoError(t, tl.Transfer(ctx, b, b, tokens(1)))
	require.Equal(t, digest, tl.stateHash())
	tl.requireBalance(b, new(big.Int))

	require.Len(t, events, 3)
	for _, e := range events {
		require.Len(t, e.Events, 1)
		require.Equal(t, ousdconst.TransferNotification, e.Events[0].Name)
	}
	tl.requireInvariants()
}

func TestAllowance(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	owner, spender, to := newAccountHash(t), newAccountHash(t), newAccountHash(t)
	tl.mint(owner, tokens(50))

	require.NoError(t, tl.Approve(ctx, owner, spender, tokens(20)))
	allowed, err := tl.Allowance(owner, spender)
	require.NoError(t, err)
	require.Equal(t, tokens(20), allowed)

	require.ErrorIs(t, tl.TransferFrom(ctx, spender, owner, to, tokens(21)), ErrAllowanceExceeded)
	require.NoError(t, tl.TransferFrom(ctx, spender, owner, to, tokens(15)))
	tl.requireBalance(owner, tokens(35))
	tl.requireBalance(to, tokens(15))

	allowed, err = tl.Allowance(owner, spender)
	require.NoError(t, err)
	require.Equal(t, tokens(5), allowed)

	require.NoError(t, tl.TransferFrom(ctx, spender, owner, to, tokens(5)))
	allowed, err = tl.Allowance(owner, spender)
	require.NoError(t, err)
	require.Zero(t, allowed.Sign())

	require.NoError(t, tl.Approve(ctx, owner, spender, tokens(100)))
	digest := tl.stateHash()
	require.ErrorIs(t, tl.TransferFrom(ctx, spender, owner, to, tokens(31)), ErrInsufficientBalance)
	require.Equal(t, digest, tl.stateHash())
	tl.requireInvariants()
}

func TestChangeSupply(t *testing.T) {
	ctx := context.Background()

	t.Run("empty", func(t *testing.T) {
		tl := newTestLedger(t)
		require.ErrorIs(t, tl.ChangeSupply(ctx, tl.vault, tokens(1)), ErrEmptySupply)
	})

	t.Run("authorization", func(t *testing.T) {
		tl := newTestLedger(t)
		tl.mint(newAccountHash(t), tokens(1))
		require.ErrorIs(t, tl.ChangeSupply(ctx, tl.governor, tokens(2)), ErrAuthorizationDenied)
	})

	t.Run("rebasing and non-rebasing", func(t *testing.T) {
		tl := newTestLedger(t)
		a, b := newAccountHash(t), newAccountHash(t)
		tl.mint(a, tokens(1000))
		tl.mint(b, tokens(1000))
		require.NoError(t, tl.RebaseOptOut(ctx, b))

		tl.changeSupply(tokens(3000))
		tl.requireBalance(a, tokens(2000))
		tl.requireBalance(b, tokens(1000))

		g := tl.requireGlobals()
		require.Equal(t, tokens(3000), g.TotalSupply)
		require.Equal(t, "500000000000000000000000000", g.RebasingCreditsPerToken.String())
		tl.requireInvariants()
	})

	t.Run("scaling", func(t *testing.T) {
		tl := newTestLedger(t)
		a, c := newAccountHash(t), newAccountHash(t)
		tl.mint(a, tokens(100))
		tl.mint(c, tokens(300))

		tl.changeSupply(tokens(800))
		tl.requireBalance(a, tokens(200))
		tl.requireBalance(c, tokens(600))
		tl.requireInvariants()
	})

	t.Run("unchanged", func(t *testing.T) {
		tl := newTestLedger(t)
		tl.mint(newAccountHash(t), tokens(5))

		var n int
		tl.AddListener(func(_ context.Context, e Execution) {
			n += len(e.Events)
		})
		digest := tl.stateHash()
		tl.changeSupply(tokens(5))
		require.Equal(t, digest, tl.stateHash())
		require.Equal(t, 1, n)
	})

	t.Run("clamped", func(t *testing.T) {
		tl := newTestLedger(t)
		tl.mint(newAccountHash(t), new(big.Int).Lsh(one, 127))
		tl.changeSupply(new(big.Int).Lsh(one, 200))

		g := tl.requireGlobals()
		require.True(t, g.TotalSupply.Cmp(sub(MaxSupply(), tokens(1))) > 0)
		require.True(t, g.RebasingCreditsPerToken.Cmp(scale) >= 0)
		tl.requireInvariants()
	})

	t.Run("rate below scale", func(t *testing.T) {
		tl := newTestLedger(t)
		a, b := newAccountHash(t), newAccountHash(t)
		tl.mint(a, big.NewInt(1000))

		digest := tl.stateHash()
		require.ErrorIs(t, tl.ChangeSupply(ctx, tl.vault, big.NewInt(100_000_000_000_000)), ErrInvariantViolation)
		require.ErrorIs(t, tl.ChangeSupply(ctx, tl.vault, big.NewInt(1_000_000_000_001)), ErrInvariantViolation)
		require.Equal(t, digest, tl.stateHash())

		tl.changeSupply(big.NewInt(1_000_000_000_000))
		g := tl.requireGlobals()
		require.Equal(t, scale.String(), g.RebasingCreditsPerToken.String())
		tl.requireBalance(a, big.NewInt(1_000_000_000_000))

		require.NoError(t, tl.Transfer(ctx, a, b, big.NewInt(1)))
		tl.requireBalance(a, big.NewInt(999_999_999_999))
		tl.requireBalance(b, big.NewInt(1))
		require.ErrorIs(t, tl.Transfer(ctx, b, a, big.NewInt(2)), ErrInsufficientBalance)
		tl.requireInvariants()
	})

	t.Run("only non-rebasing", func(t *testing.T) {
		tl := newTestLedger(t)
		a := newAccountHash(t)
		tl.mint(a, tokens(5))
		require.NoError(t, tl.RebaseOptOut(ctx, a))

		digest := tl.stateHash()
		require.ErrorIs(t, tl.ChangeSupply(ctx, tl.vault, tokens(4)), ErrInvariantViolation)
		require.ErrorIs(t, tl.ChangeSupply(ctx, tl.vault, tokens(6)), ErrInvariantViolation)
		require.Equal(t, digest, tl.stateHash())
	})
}

func TestCreditsViews(t *testing.T) {
	ctx := context.Background()
	tl := newTestLedger(t)
	a, b := newAccountHash(t), newAccountHash(t)
	tl.mint(a, tokens(2))
	tl.mint(b, tokens(2))
	require.NoError(t, tl.RebaseOptOut(ctx, b))

	credits, rate, upgraded, err := tl.CreditsBalanceOfHighres(a)
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000000000000", credits.String())
	require.Equal(t, DefaultCreditsPerToken(), rate)
	require.True(t, upgraded)

	credits, rate, err = tl.CreditsBalanceOf(a)
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000000000000", credits.String())
	require.Equal(t, DefaultCreditsPerToken(), rate)

	tl.changeSupply(tokens(6))
	credits, rate, err = tl.CreditsBalanceOf(a)
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000", credits.String())
	require.Equal(t, "500000000000000000", rate.String())

	rc, err := tl.RebasingCredits()
	require.NoError(t, err)
	require.Equal(t, "2000000000000000000", rc.String())
	rcpt, err := tl.RebasingCreditsPerToken()
	require.NoError(t, err)
	require.Equal(t, "500000000000000000", rcpt.String())

	cpt, err := tl.NonRebasingCreditsPerToken(b)
	require.NoError(t, err)
	require.Equal(t, Scale(), cpt)
	cpt, err = tl.NonRebasingCreditsPerToken(a)
	require.NoError(t, err)
	require.Zero(t, cpt.Sign())

	nrs, err := tl.NonRebasingSupply()
	require.NoError(t, err)
	require.Equal(t, tokens(2), nrs)
}
