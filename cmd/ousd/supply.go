package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/config"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/spf13/cobra"
)

func newInitCommand(opts *RootOptions) *cobra.Command {
	var rate string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the ledger",
		Long:  "Sets the initial rebasing credits per token. The rate is taken from the configuration unless --rate is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, cfg config.Config) error {
				cpt, err := cfg.InitialCreditsPerToken()
				if err != nil {
					return err
				}
				if rate != "" {
					var ok bool
					if cpt, ok = new(big.Int).SetString(rate, 10); !ok {
						return fmt.Errorf("invalid rate %q", rate)
					}
				}
				return l.Initialize(ctx, caller, cpt)
			})
		},
	}
	cmd.Flags().StringVar(&rate, "rate", "", "initial rebasing credits per token")
	return cmd
}

func newMintCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mint <account> <amount>",
		Short: "Mint tokens to the account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.supplyChange(cmd, args, (*ousd.Ledger).Mint)
		},
	}
}

func newBurnCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "burn <account> <amount>",
		Short: "Burn tokens from the account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.supplyChange(cmd, args, (*ousd.Ledger).Burn)
		},
	}
}

type accountAmountOp func(*ousd.Ledger, context.Context, util.Uint160, util.Uint160, *big.Int) error

func (o *RootOptions) supplyChange(cmd *cobra.Command, args []string, op accountAmountOp) error {
	caller, err := o.caller()
	if err != nil {
		return err
	}
	account, err := common.ParseAccount(args[0])
	if err != nil {
		return err
	}
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}
	return o.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
		return op(l, ctx, caller, account, amount)
	})
}

func newChangeSupplyCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "change-supply <total>",
		Short: "Rebase the ledger to the new total supply",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			caller, err := opts.caller()
			if err != nil {
				return err
			}
			total, err := parseAmount(args[0])
			if err != nil {
				return err
			}
			return opts.withLedger(cmd, func(ctx context.Context, l *ousd.Ledger, _ config.Config) error {
				return l.ChangeSupply(ctx, caller, total)
			})
		},
	}
}
