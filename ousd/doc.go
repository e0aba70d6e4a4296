/*
Package ousd implements an elastic supply token ledger.

Balances are stored as credits. A rebasing account's balance is its credits
divided by the global rebasing credits per token rate, so changing the rate
rebases all such balances at once. Non-rebasing accounts keep their own fixed
rate and hold a constant balance. Yield delegation lets a non-rebasing source
account pass the yield its balance would have earned to a rebasing target.

Ledger keeps its state in a neo-go storage.Store. Every mutating operation runs
over a MemCachedStore on top of it and is persisted only if it succeeds, so a
failed operation leaves the ledger untouched. Mutations are serialized, queries
run concurrently and never change state.

Contract accounts that never chose a rebase mode are made non-rebasing when
their balance is first changed, or explicitly with Materialize.

Ledger notifications

Transfer notification. This is NEP-17 standard notification. Zero accounts
(mint and burn) are Null.

  Transfer:
    - name: from
      type: Hash160
    - name: to
      type: Hash160
    - name: amount
      type: Integer

Approval notification. This notification is produced when allowance is set.

  Approval:
    - name: owner
      type: Hash160
    - name: spender
      type: Hash160
    - name: amount
      type: Integer

TotalSupplyUpdatedHighres notification. This notification is produced on
rebase, mint and burn.

  TotalSupplyUpdatedHighres:
    - name: totalSupply
      type: Integer
    - name: rebasingCredits
      type: Integer
    - name: rebasingCreditsPerToken
      type: Integer

AccountRebasingEnabled and AccountRebasingDisabled notifications. These
notifications are produced when an account opts in or out of rebasing.

  AccountRebasingEnabled:
    - name: account
      type: Hash160

  AccountRebasingDisabled:
    - name: account
      type: Hash160

YieldDelegated and YieldUndelegated notifications. These notifications are
produced when a delegation link is created or removed.

  YieldDelegated:
    - name: source
      type: Hash160
    - name: target
      type: Hash160

  YieldUndelegated:
    - name: source
      type: Hash160
    - name: target
      type: Hash160
*/
package ousd
