// Package events contains typed decoders of ledger notifications.
package events

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd/ousdconst"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
)

// TransferEvent represents "Transfer" event emitted by the ledger.
type TransferEvent struct {
	From   util.Uint160
	To     util.Uint160
	Amount *big.Int
}

// ApprovalEvent represents "Approval" event emitted by the ledger.
type ApprovalEvent struct {
	Owner   util.Uint160
	Spender util.Uint160
	Amount  *big.Int
}

// TotalSupplyUpdatedHighresEvent represents "TotalSupplyUpdatedHighres" event
// emitted by the ledger.
type TotalSupplyUpdatedHighresEvent struct {
	TotalSupply             *big.Int
	RebasingCredits         *big.Int
	RebasingCreditsPerToken *big.Int
}

// AccountRebasingEvent represents "AccountRebasingEnabled" and
// "AccountRebasingDisabled" events emitted by the ledger.
type AccountRebasingEvent struct {
	Enabled bool
	Account util.Uint160
}

// YieldDelegationEvent represents "YieldDelegated" and "YieldUndelegated"
// events emitted by the ledger.
type YieldDelegationEvent struct {
	Delegated bool
	Source    util.Uint160
	Target    util.Uint160
}

// TransferEventsFromNotifications retrieves a set of all emitted events
// with "Transfer" name from the provided notifications.
func TransferEventsFromNotifications(ns []state.NotificationEvent) ([]*TransferEvent, error) {
	return collect(ns, func(name string) (*TransferEvent, bool) {
		return new(TransferEvent), name == ousdconst.TransferNotification
	})
}

// ApprovalEventsFromNotifications retrieves a set of all emitted events
// with "Approval" name from the provided notifications.
func ApprovalEventsFromNotifications(ns []state.NotificationEvent) ([]*ApprovalEvent, error) {
	return collect(ns, func(name string) (*ApprovalEvent, bool) {
		return new(ApprovalEvent), name == ousdconst.ApprovalNotification
	})
}

// TotalSupplyUpdatedHighresEventsFromNotifications retrieves a set of all
// emitted events with "TotalSupplyUpdatedHighres" name from the provided
// notifications.
func TotalSupplyUpdatedHighresEventsFromNotifications(ns []state.NotificationEvent) ([]*TotalSupplyUpdatedHighresEvent, error) {
	return collect(ns, func(name string) (*TotalSupplyUpdatedHighresEvent, bool) {
		return new(TotalSupplyUpdatedHighresEvent), name == ousdconst.TotalSupplyUpdatedHighresNotification
	})
}

// AccountRebasingEventsFromNotifications retrieves a set of all emitted
// rebase opt-in and opt-out events from the provided notifications.
func AccountRebasingEventsFromNotifications(ns []state.NotificationEvent) ([]*AccountRebasingEvent, error) {
	return collect(ns, func(name string) (*AccountRebasingEvent, bool) {
		switch name {
		case ousdconst.AccountRebasingEnabledNotification:
			return &AccountRebasingEvent{Enabled: true}, true
		case ousdconst.AccountRebasingDisabledNotification:
			return &AccountRebasingEvent{}, true
		}
		return nil, false
	})
}

// YieldDelegationEventsFromNotifications retrieves a set of all emitted
// delegation and undelegation events from the provided notifications.
func YieldDelegationEventsFromNotifications(ns []state.NotificationEvent) ([]*YieldDelegationEvent, error) {
	return collect(ns, func(name string) (*YieldDelegationEvent, bool) {
		switch name {
		case ousdconst.YieldDelegatedNotification:
			return &YieldDelegationEvent{Delegated: true}, true
		case ousdconst.YieldUndelegatedNotification:
			return &YieldDelegationEvent{}, true
		}
		return nil, false
	})
}

type fromStackItem interface {
	FromStackItem(*stackitem.Array) error
}

func collect[T fromStackItem](ns []state.NotificationEvent, match func(name string) (T, bool)) ([]T, error) {
	var res []T
	for i, e := range ns {
		event, ok := match(e.Name)
		if !ok {
			continue
		}
		err := event.FromStackItem(e.Item)
		if err != nil {
			return nil, fmt.Errorf("failed to deserialize %s from stackitem (event #%d): %w", e.Name, i, err)
		}
		res = append(res, event)
	}
	return res, nil
}

// FromStackItem converts provided [stackitem.Array] to TransferEvent or
// returns an error if it's not possible to do to so.
func (e *TransferEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 3)
	if err != nil {
		return err
	}

	e.From, err = hashOrNull(arr[0])
	if err != nil {
		return fmt.Errorf("field From: %w", err)
	}
	e.To, err = hashOrNull(arr[1])
	if err != nil {
		return fmt.Errorf("field To: %w", err)
	}
	e.Amount, err = arr[2].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to ApprovalEvent or
// returns an error if it's not possible to do to so.
func (e *ApprovalEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 3)
	if err != nil {
		return err
	}

	e.Owner, err = hashOrNull(arr[0])
	if err != nil {
		return fmt.Errorf("field Owner: %w", err)
	}
	e.Spender, err = hashOrNull(arr[1])
	if err != nil {
		return fmt.Errorf("field Spender: %w", err)
	}
	e.Amount, err = arr[2].TryInteger()
	if err != nil {
		return fmt.Errorf("field Amount: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to
// TotalSupplyUpdatedHighresEvent or returns an error if it's not possible to
// do to so.
func (e *TotalSupplyUpdatedHighresEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 3)
	if err != nil {
		return err
	}

	e.TotalSupply, err = arr[0].TryInteger()
	if err != nil {
		return fmt.Errorf("field TotalSupply: %w", err)
	}
	e.RebasingCredits, err = arr[1].TryInteger()
	if err != nil {
		return fmt.Errorf("field RebasingCredits: %w", err)
	}
	e.RebasingCreditsPerToken, err = arr[2].TryInteger()
	if err != nil {
		return fmt.Errorf("field RebasingCreditsPerToken: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to AccountRebasingEvent
// or returns an error if it's not possible to do to so.
func (e *AccountRebasingEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 1)
	if err != nil {
		return err
	}

	e.Account, err = hashOrNull(arr[0])
	if err != nil {
		return fmt.Errorf("field Account: %w", err)
	}
	return nil
}

// FromStackItem converts provided [stackitem.Array] to YieldDelegationEvent
// or returns an error if it's not possible to do to so.
func (e *YieldDelegationEvent) FromStackItem(item *stackitem.Array) error {
	arr, err := fields(item, 2)
	if err != nil {
		return err
	}

	e.Source, err = hashOrNull(arr[0])
	if err != nil {
		return fmt.Errorf("field Source: %w", err)
	}
	e.Target, err = hashOrNull(arr[1])
	if err != nil {
		return fmt.Errorf("field Target: %w", err)
	}
	return nil
}

func fields(item *stackitem.Array, n int) ([]stackitem.Item, error) {
	if item == nil {
		return nil, errors.New("nil item")
	}
	arr, ok := item.Value().([]stackitem.Item)
	if !ok {
		return nil, errors.New("not an array")
	}
	if len(arr) != n {
		return nil, errors.New("wrong number of structure elements")
	}
	return arr, nil
}

func hashOrNull(item stackitem.Item) (util.Uint160, error) {
	if _, null := item.(stackitem.Null); null {
		return util.Uint160{}, nil
	}
	b, err := item.TryBytes()
	if err != nil {
		return util.Uint160{}, err
	}
	return util.Uint160DecodeBytesBE(b)
}
