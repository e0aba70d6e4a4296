package ousd

import (
	"errors"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
)

var (
	// ErrInsufficientBalance is returned when an account balance does not cover
	// the debited amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidAccount is returned for the zero account where a real one is
	// required.
	ErrInvalidAccount = errors.New("invalid account")
	// ErrInvalidAmount is returned for negative amounts and rates.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrAlreadyInitialized is returned by a repeated Initialize.
	ErrAlreadyInitialized = errors.New("already initialized")
	// ErrNotInitialized is returned by any operation on a ledger that was not
	// initialized.
	ErrNotInitialized = errors.New("not initialized")
	// ErrInvariantViolation signals an arithmetic or accounting state that
	// must never be reached.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrDelegationConflict is returned when yield delegation links do not
	// allow the operation.
	ErrDelegationConflict = errors.New("yield delegation conflict")
	// ErrInvalidRebaseState is returned when the account classification does
	// not allow the operation.
	ErrInvalidRebaseState = errors.New("invalid rebase state")
	// ErrMaxSupply is returned when minting would reach the supply cap.
	ErrMaxSupply = errors.New("max supply exceeded")
	// ErrEmptySupply is returned when the supply is changed while nothing is
	// issued.
	ErrEmptySupply = errors.New("cannot increase 0 supply")
	// ErrAllowanceExceeded is returned by TransferFrom above the approved
	// amount.
	ErrAllowanceExceeded = errors.New("allowance exceeded")
	// ErrReentrantCall is returned when a mutating operation is called from a
	// notification listener.
	ErrReentrantCall = errors.New("reentrant call")

	// ErrAuthorizationDenied is returned when the caller lacks the required
	// role.
	ErrAuthorizationDenied = common.ErrAuthorizationDenied
	// ErrVersionMismatch is returned when the store was written by an
	// incompatible version.
	ErrVersionMismatch = common.ErrVersionMismatch
)
