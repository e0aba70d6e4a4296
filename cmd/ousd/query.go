package main

import (
	"context"
	"fmt"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/config"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/spf13/cobra"
)

func newBalanceCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "balance <account>",
		Short: "Print token balance of the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(_ context.Context, l *ousd.Ledger, _ config.Config) error {
				b, err := l.BalanceOf(account)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), formatAmount(b))
				return nil
			})
		},
	}
}

func newAccountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "account <account>",
		Short: "Print accounting details of the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			account, err := common.ParseAccount(args[0])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(_ context.Context, l *ousd.Ledger, _ config.Config) error {
				b, err := l.BalanceOf(account)
				if err != nil {
					return err
				}
				acc, err := l.Account(account)
				if err != nil {
					return err
				}
				credits, cpt, upgraded, err := l.CreditsBalanceOfHighres(account)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Address:           %s\n", address.Uint160ToString(account))
				fmt.Fprintf(w, "Balance:           %s\n", formatAmount(b))
				fmt.Fprintf(w, "State:             %s\n", acc.State)
				fmt.Fprintf(w, "Credits:           %s\n", credits)
				fmt.Fprintf(w, "Credits per token: %s\n", cpt)
				fmt.Fprintf(w, "Upgraded:          %t\n", upgraded)
				return nil
			})
		},
	}
}

func newStateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state",
		Short: "Print global ledger state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLedger(cmd, func(_ context.Context, l *ousd.Ledger, _ config.Config) error {
				g, err := l.Globals()
				if err != nil {
					return err
				}
				h, err := l.Height()
				if err != nil {
					return err
				}
				digest, err := l.StateHash()
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				fmt.Fprintf(w, "Height:                     %d\n", h)
				fmt.Fprintf(w, "State hash:                 %s\n", digest)
				fmt.Fprintf(w, "Total supply:               %s\n", formatAmount(g.TotalSupply))
				fmt.Fprintf(w, "Non-rebasing supply:        %s\n", formatAmount(g.NonRebasingSupply))
				fmt.Fprintf(w, "Rebasing credits:           %s\n", g.RebasingCredits)
				fmt.Fprintf(w, "Rebasing credits per token: %s\n", g.RebasingCreditsPerToken)
				return nil
			})
		},
	}
}

func newCheckCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify ledger invariants over all stored accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLedger(cmd, func(_ context.Context, l *ousd.Ledger, _ config.Config) error {
				if err := l.CheckInvariants(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "OK")
				return nil
			})
		},
	}
}
