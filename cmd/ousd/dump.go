package main

import (
	"context"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/config"
	"github.com/OriginProtocol/yolo-spike-ousd-token/dump"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/spf13/cobra"
)

const defaultLedgerName = "ousd"

type dumpOptions struct {
	dir    string
	label  string
	name   string
	height uint32
}

func (o *dumpOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.dir, "dir", ".", "directory the dump files are located in")
	cmd.Flags().StringVar(&o.label, "label", "", "dump label, must not contain hyphens")
	cmd.Flags().StringVar(&o.name, "name", defaultLedgerName, "ledger name inside the dump")
	_ = cmd.MarkFlagRequired("label")
}

func newDumpCommand(opts *RootOptions) *cobra.Command {
	var d dumpOptions

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Dump committed ledger state to the directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return opts.withLedger(cmd, func(_ context.Context, l *ousd.Ledger, _ config.Config) error {
				h, err := l.Height()
				if err != nil {
					return err
				}
				id := dump.ID{Label: d.label, Height: h}

				c, err := dump.NewCreator(d.dir, id)
				if err != nil {
					return fmt.Errorf("init local dumper: %w", err)
				}
				defer c.Close()

				if err := l.Export(c, d.name); err != nil {
					return err
				}
				if err := c.Flush(); err != nil {
					return fmt.Errorf("flush dump: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), id)
				return nil
			})
		},
	}
	d.bind(cmd)
	return cmd
}

func newRestoreCommand(opts *RootOptions) *cobra.Command {
	var d dumpOptions

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore ledger state from the dump into the configured empty storage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, st, log, err := opts.openStore()
			if err != nil {
				return err
			}
			defer func() {
				_ = st.Close()
				_ = log.Sync()
			}()

			lopts, err := cfg.Options(log)
			if err != nil {
				return err
			}
			r, err := dump.Open(d.dir, dump.ID{Label: d.label, Height: d.height})
			if err != nil {
				return err
			}
			l, err := ousd.Restore(r, d.name, st, lopts)
			if err != nil {
				return err
			}
			digest, err := l.StateHash()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), digest)
			return nil
		},
	}
	d.bind(cmd)
	cmd.Flags().Uint32Var(&d.height, "height", 0, "ledger height of the dump")
	return cmd
}

func newDumpsCommand(_ *RootOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "dumps",
		Short: "List dumps and the ledgers they contain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			return dump.IterateDumps(dir, func(id dump.ID, r *dump.Reader) error {
				r.IterateLedgers(func(name string, s dump.Summary) {
					total, ok := new(big.Int).SetString(s.TotalSupply, 10)
					if !ok {
						total = new(big.Int)
					}
					fmt.Fprintf(w, "%s\t%s\taccounts %d\titems %d\ttotal supply %s\tstate hash %s\n",
						id, name, s.Accounts, s.Items, formatAmount(total), s.StateHash)
				})
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", ".", "directory the dump files are located in")
	return cmd
}
