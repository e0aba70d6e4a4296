package main

import (
	"context"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/config"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/spf13/cobra"
)

func newTransferCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer <to> <amount>",
		Short: "Transfer tokens from the caller",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			to, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.Transfer(ctx, caller, to, amount)
			})
		},
	}
}

func newApproveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "approve <spender> <amount>",
		Short: "Allow the spender to transfer caller tokens",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			spender, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.Approve(ctx, caller, spender, amount)
			})
		},
	}
}

func newTransferFromCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "transfer-from <from> <to> <amount>",
		Short: "Transfer tokens using the caller allowance",
		Args:  cobra.ExactArgs(3),
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
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.TransferFrom(ctx, caller, from, to, amount)
			})
		},
	}
}
