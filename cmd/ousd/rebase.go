package main

import (
	"context"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/config"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/spf13/cobra"
)

func newOptInCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "opt-in",
		Short: "Opt the caller in to rebasing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.RebaseOptIn(ctx, caller)
			})
		},
	}
}

func newOptOutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "opt-out",
		Short: "Opt the caller out of rebasing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.RebaseOptOut(ctx, caller)
			})
		},
	}
}

func newGovernanceOptInCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "governance-opt-in <account>",
		Short: "Opt the account in to rebasing on its behalf",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			account, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.GovernanceRebaseOptIn(ctx, caller, account)
			})
		},
	}
}

func newMaterializeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "materialize <account>",
		Short: "Classify the account if it is still unset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.Materialize(ctx, account)
			})
		},
	}
}

func newDelegateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delegate <from> <to>",
		Short: "Delegate yield of one account to another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			from, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			to, err := common.ParseAccount(args[1])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.DelegateYield(ctx, caller, from, to)
			})
		},
	}
}

func newUndelegateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "undelegate <from>",
		Short: "Stop yield delegation of the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			from, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.UndelegateYield(ctx, caller, from)
			})
		},
	}
}
