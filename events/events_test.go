package events

import (
	"context"
	"math/big"
	"testing"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd/ousdconst"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/crypto/keys"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newHash(t *testing.T) util.Uint160 {
	k, err := keys.NewPrivateKey()
	require.NoError(t, err)
	return k.GetScriptHash()
}

func TestLedgerEvents(t *testing.T) {
	ctx := context.Background()
	gov, vault, a, b := newHash(t), newHash(t), newHash(t), newHash(t)

	l, err := ousd.New(storage.NewMemoryStore(), ousd.Options{
		Logger:     zaptest.NewLogger(t),
		Authorizer: common.Roles{Governors: []util.Uint160{gov}, Vaults: []util.Uint160{vault}},
	})
	require.NoError(t, err)

	var ns []state.NotificationEvent
	l.AddListener(func(_ context.Context, e ousd.Execution) {
		ns = append(ns, e.Events...)
	})

	amount := big.NewInt(1_000_000)
	require.NoError(t, l.Initialize(ctx, gov, ousd.DefaultCreditsPerToken()))
	require.NoError(t, l.Mint(ctx, vault, a, amount))
	require.NoError(t, l.Approve(ctx, a, b, amount))
	require.NoError(t, l.Transfer(ctx, a, b, big.NewInt(10)))
	require.NoError(t, l.ChangeSupply(ctx, vault, big.NewInt(2_000_000)))
	require.NoError(t, l.DelegateYield(ctx, gov, a, b))
	require.NoError(t, l.UndelegateYield(ctx, gov, a))
	require.NoError(t, l.RebaseOptIn(ctx, a))

	transfers, err := TransferEventsFromNotifications(ns)
	require.NoError(t, err)
	require.Equal(t, []*TransferEvent{
		{From: util.Uint160{}, To: a, Amount: amount},
		{From: a, To: b, Amount: big.NewInt(10)},
	}, transfers)

	approvals, err := ApprovalEventsFromNotifications(ns)
	require.NoError(t, err)
	require.Equal(t, []*ApprovalEvent{{Owner: a, Spender: b, Amount: amount}}, approvals)

	supply, err := TotalSupplyUpdatedHighresEventsFromNotifications(ns)
	require.NoError(t, err)
	require.Len(t, supply, 2)
	require.Equal(t, amount, supply[0].TotalSupply)
	require.Equal(t, ousd.DefaultCreditsPerToken(), supply[0].RebasingCreditsPerToken)
	require.Equal(t, big.NewInt(2_000_000), supply[1].TotalSupply)

	rebasing, err := AccountRebasingEventsFromNotifications(ns)
	require.NoError(t, err)
	require.Equal(t, []*AccountRebasingEvent{
		{Enabled: false, Account: a},
		{Enabled: true, Account: a},
	}, rebasing)

	delegation, err := YieldDelegationEventsFromNotifications(ns)
	require.NoError(t, err)
	require.Equal(t, []*YieldDelegationEvent{
		{Delegated: true, Source: a, Target: b},
		{Delegated: false, Source: a, Target: b},
	}, delegation)
}

func TestDecodeErrors(t *testing.T) {
	var e TransferEvent
	require.EqualError(t, e.FromStackItem(nil), "nil item")
	require.EqualError(t, e.FromStackItem(stackitem.NewArray(nil)), "wrong number of structure elements")

	_, err := TransferEventsFromNotifications([]state.NotificationEvent{{
		Name: ousdconst.TransferNotification,
		Item: stackitem.NewArray([]stackitem.Item{
			stackitem.NewByteArray([]byte{1, 2, 3}),
			stackitem.Null{},
			stackitem.Make(1),
		}),
	}})
	require.Error(t, err)

	ns, err := ApprovalEventsFromNotifications([]state.NotificationEvent{{
		Name: ousdconst.TransferNotification,
		Item: stackitem.NewArray(nil),
	}})
	require.NoError(t, err)
	require.Empty(t, ns)
}
