package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/config"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd/ousdconst"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/fixedn"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Config string
	Caller string
}

// NewRootCommand creates the root command of the ledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "ousd",
		Short:         "Elastic supply token ledger",
		Long:          "Runs single operations against a persistent " + ousdconst.Symbol + " ledger.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.Config, "config", "c", "", "path to the YAML configuration, required by ledger commands")
	cmd.PersistentFlags().StringVar(&opts.Caller, "caller", "", "account the operation is performed by")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newMintCommand(opts))
	cmd.AddCommand(newBurnCommand(opts))
	cmd.AddCommand(newChangeSupplyCommand(opts))
	cmd.AddCommand(newTransferCommand(opts))
	cmd.AddCommand(newApproveCommand(opts))
	cmd.AddCommand(newTransferFromCommand(opts))
	cmd.AddCommand(newOptInCommand(opts))
	cmd.AddCommand(newOptOutCommand(opts))
	cmd.AddCommand(newGovernanceOptInCommand(opts))
	cmd.AddCommand(newMaterializeCommand(opts))
	cmd.AddCommand(newDelegateCommand(opts))
	cmd.AddCommand(newUndelegateCommand(opts))
	cmd.AddCommand(newBalanceCommand(opts))
	cmd.AddCommand(newAccountCommand(opts))
	cmd.AddCommand(newStateCommand(opts))
	cmd.AddCommand(newCheckCommand(opts))
	cmd.AddCommand(newDumpCommand(opts))
	cmd.AddCommand(newRestoreCommand(opts))
	cmd.AddCommand(newDumpsCommand(opts))

	return cmd
}

// errNoConfig is returned by commands opening a ledger without --config.
var errNoConfig = errors.New("--config is required")

func (o *RootOptions) loadConfig() (config.Config, error) {
	if o.Config == "" {
		return config.Config{}, errNoConfig
	}
	return config.Load(o.Config)
}

func (o *RootOptions) caller() (util.Uint160, error) {
	if o.Caller == "" {
		return util.Uint160{}, errors.New("--caller is required")
	}
	return common.ParseAccount(o.Caller)
}

// openStore opens the configured storage backend.
func (o *RootOptions) openStore() (config.Config, storage.Store, *zap.Logger, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return config.Config{}, nil, nil, err
	}
	log, err := cfg.BuildLogger()
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("can't build logger: %w", err)
	}
	st, err := storage.NewStore(cfg.Storage)
	if err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("can't open storage: %w", err)
	}
	return cfg, st, log, nil
}

// withLedger opens the configured ledger, runs f and closes the storage.
// Committed executions are printed to the command output.
func (o *RootOptions) withLedger(cmd *cobra.Command, f func(ctx context.Context, l *ousd.Ledger, cfg config.Config) error) error {
	cfg, st, log, err := o.openStore()
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
	l, err := ousd.New(st, lopts)
	if err != nil {
		return err
	}
	l.AddListener(func(_ context.Context, e ousd.Execution) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: height %d, id %s\n", e.Method, e.Height, e.ID)
		for _, n := range e.Events {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", n.Name)
		}
	})

	return f(cmd.Context(), l, cfg)
}

func parseAmount(s string) (*big.Int, error) {
	v, err := fixedn.FromString(s, ousdconst.Decimals)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

func formatAmount(v *big.Int) string {
	return fixedn.ToString(v, ousdconst.Decimals)
}
