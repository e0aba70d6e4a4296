// Package config loads ledger node configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/OriginProtocol/yolo-spike-ousd-token/ousd"
	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Storage backend types.
const (
	InMemoryDB = "inmemory"
	BoltDB     = "boltdb"
	LevelDB    = "leveldb"
)

type (
	// Config is the top level configuration.
	Config struct {
		Ledger    Ledger                   `yaml:"Ledger"`
		Storage   dbconfig.DBConfiguration `yaml:"Storage"`
		Roles     Roles                    `yaml:"Roles"`
		Contracts []string                 `yaml:"Contracts"`
		Logger    Logger                   `yaml:"Logger"`
	}

	// Ledger configures ledger parameters.
	Ledger struct {
		// InitialCreditsPerToken is a decimal rate used by Initialize.
		InitialCreditsPerToken string `yaml:"InitialCreditsPerToken"`
		// Hash is the LE script hash notifications are emitted from.
		Hash string `yaml:"Hash"`
	}

	// Roles lists privileged accounts. Each entry is a Neo address, a hex
	// public key or a LE script hash.
	Roles struct {
		Governors []string `yaml:"Governors"`
		Vaults    []string `yaml:"Vaults"`
	}

	// Logger configures logging.
	Logger struct {
		Level    string `yaml:"Level"`
		Encoding string `yaml:"Encoding"`
	}
)

// Default returns configuration of an in-memory ledger.
func Default() Config {
	return Config{
		Ledger: Ledger{
			InitialCreditsPerToken: ousd.DefaultCreditsPerToken().String(),
		},
		Storage: dbconfig.DBConfiguration{
			Type: InMemoryDB,
		},
		Logger: Logger{
			Level:    "info",
			Encoding: "console",
		},
	}
}

// Load reads configuration from the YAML file at path. Missing values are
// taken from Default.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("can't read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and validates it.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("can't decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks all configured values.
func (c Config) Validate() error {
	if _, err := c.InitialCreditsPerToken(); err != nil {
		return err
	}
	if _, err := c.ScriptHash(); err != nil {
		return err
	}
	if _, err := c.Authorizer(); err != nil {
		return err
	}
	if _, err := c.ContractSet(); err != nil {
		return err
	}

	switch c.Storage.Type {
	case InMemoryDB:
	case BoltDB:
		if c.Storage.BoltDBOptions.FilePath == "" {
			return errors.New("storage: BoltDB file path is required")
		}
	case LevelDB:
		if c.Storage.LevelDBOptions.DataDirectoryPath == "" {
			return errors.New("storage: LevelDB data directory is required")
		}
	default:
		return fmt.Errorf("storage: unknown type %q", c.Storage.Type)
	}

	if _, err := zap.ParseAtomicLevel(c.Logger.Level); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	switch c.Logger.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("logger: unknown encoding %q", c.Logger.Encoding)
	}
	return nil
}

// InitialCreditsPerToken returns the configured initial rate. It must not be
// below ousd.Scale.
func (c Config) InitialCreditsPerToken() (*big.Int, error) {
	v, ok := new(big.Int).SetString(c.Ledger.InitialCreditsPerToken, 10)
	if !ok || v.Cmp(ousd.Scale()) < 0 {
		return nil, fmt.Errorf("ledger: invalid InitialCreditsPerToken %q", c.Ledger.InitialCreditsPerToken)
	}
	return v, nil
}

// ScriptHash returns the configured ledger hash, zero if not set.
func (c Config) ScriptHash() (util.Uint160, error) {
	if c.Ledger.Hash == "" {
		return util.Uint160{}, nil
	}
	h, err := common.ParseAccount(c.Ledger.Hash)
	if err != nil {
		return util.Uint160{}, fmt.Errorf("ledger: %w", err)
	}
	return h, nil
}

// Authorizer returns the configured roles.
func (c Config) Authorizer() (common.Roles, error) {
	var (
		r   common.Roles
		err error
	)
	r.Governors, err = parseAccounts(c.Roles.Governors)
	if err != nil {
		return r, fmt.Errorf("roles: governors: %w", err)
	}
	r.Vaults, err = parseAccounts(c.Roles.Vaults)
	if err != nil {
		return r, fmt.Errorf("roles: vaults: %w", err)
	}
	return r, nil
}

// ContractSet returns accounts configured as contracts.
func (c Config) ContractSet() (ousd.ContractSet, error) {
	hs, err := parseAccounts(c.Contracts)
	if err != nil {
		return nil, fmt.Errorf("contracts: %w", err)
	}
	return ousd.NewContractSet(hs...), nil
}

// BuildLogger creates a logger according to Logger section.
func (c Config) BuildLogger() (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(c.Logger.Level)
	if err != nil {
		return nil, err
	}

	zc := zap.NewProductionConfig()
	zc.Level = lvl
	zc.Encoding = c.Logger.Encoding
	zc.Sampling = nil
	if c.Logger.Encoding == "console" {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	return zc.Build()
}

// Options returns ledger options from the configuration.
func (c Config) Options(log *zap.Logger) (ousd.Options, error) {
	h, err := c.ScriptHash()
	if err != nil {
		return ousd.Options{}, err
	}
	auth, err := c.Authorizer()
	if err != nil {
		return ousd.Options{}, err
	}
	contracts, err := c.ContractSet()
	if err != nil {
		return ousd.Options{}, err
	}
	return ousd.Options{
		Logger:     log,
		Hash:       h,
		Authorizer: auth,
		Contracts:  contracts,
	}, nil
}

func parseAccounts(ss []string) ([]util.Uint160, error) {
	res := make([]util.Uint160, 0, len(ss))
	for _, s := range ss {
		h, err := common.ParseAccount(s)
		if err != nil {
			return nil, err
		}
		res = append(res, h)
	}
	return res, nil
}
