package ousdconst

// Notification names emitted by the ledger.
const (
	TransferNotification                  = "Transfer"
	ApprovalNotification                  = "Approval"
	TotalSupplyUpdatedHighresNotification = "TotalSupplyUpdatedHighres"
	AccountRebasingEnabledNotification    = "AccountRebasingEnabled"
	AccountRebasingDisabledNotification   = "AccountRebasingDisabled"
	YieldDelegatedNotification            = "YieldDelegated"
	YieldUndelegatedNotification          = "YieldUndelegated"
)

const (
	// Symbol is the token ticker.
	Symbol = "OUSD"
	// Decimals is the number of decimals of token amounts.
	Decimals = 18
)
