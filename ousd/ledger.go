package ousd

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/OriginProtocol/yolo-spike-ousd-token/common"
	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/core/storage"
	"github.com/nspcc-dev/neo-go/pkg/encoding/bigint"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"go.uber.org/zap"
)

type (
	// Ledger is an elastic supply token ledger. All mutations are serialized
	// and either commit completely or leave the store untouched.
	Ledger struct {
		mtx   sync.RWMutex
		store storage.Store

		hash      util.Uint160
		auth      common.Authorizer
		contracts ContractOracle
		log       *zap.Logger

		lmtx        sync.RWMutex
		listeners   []Listener
		subscribers map[chan<- Execution]struct{}
	}

	// Options are optional Ledger parameters.
	Options struct {
		// Logger is used for execution and audit logs. Nop logger by default.
		Logger *zap.Logger
		// Hash is the script hash notifications are emitted from.
		Hash util.Uint160
		// Authorizer checks governor and vault roles. Nil denies everything.
		Authorizer common.Authorizer
		// Contracts tells contract accounts from the rest. Nil means there
		// are no contracts.
		Contracts ContractOracle
	}

	// ContractOracle tells whether an account is a contract.
	ContractOracle interface {
		IsContract(util.Uint160) bool
	}

	// ContractSet is a static ContractOracle.
	ContractSet map[util.Uint160]struct{}

	// Execution is a committed ledger operation with the notifications it
	// produced.
	Execution struct {
		ID     uuid.UUID
		Height uint32
		Method string
		Events []state.NotificationEvent
	}

	// Listener is called for every committed execution. The context passed
	// rejects mutating calls with ErrReentrantCall.
	Listener func(ctx context.Context, e Execution)
)

// Storage key prefixes.
const (
	accountPrefix   = 'a'
	globalsKey      = 'g'
	allowancePrefix = 'l'
	versionKey      = 'v'
	heightKey       = 'h'
)

// statePrefixes lists the prefixes covered by the state digest.
var statePrefixes = []byte{accountPrefix, allowancePrefix, globalsKey, versionKey}

type emissionKey struct{}

// NewContractSet returns ContractSet containing the given accounts.
func NewContractSet(hs ...util.Uint160) ContractSet {
	s := make(ContractSet, len(hs))
	for i := range hs {
		s[hs[i]] = struct{}{}
	}
	return s
}

// IsContract implements ContractOracle.
func (s ContractSet) IsContract(h util.Uint160) bool {
	_, ok := s[h]
	return ok
}

// New opens a ledger over st. It checks the schema version of an initialized
// store and upgrades its version record if needed.
func New(st storage.Store, opts Options) (*Ledger, error) {
	if st == nil {
		return nil, errors.New("nil store")
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Contracts == nil {
		opts.Contracts = ContractSet(nil)
	}

	l := &Ledger{
		store:       st,
		hash:        opts.Hash,
		auth:        opts.Authorizer,
		contracts:   opts.Contracts,
		log:         opts.Logger,
		subscribers: make(map[chan<- Execution]struct{}),
	}

	from, err := storedVersion(st)
	switch {
	case errors.Is(err, storage.ErrKeyNotFound):
		return l, nil
	case err != nil:
		return nil, fmt.Errorf("can't read version: %w", err)
	}

	if err := common.CheckVersion(from); err != nil {
		return nil, err
	}
	if from < common.Version {
		cache := storage.NewMemCachedStore(st)
		cache.Put([]byte{versionKey}, bigint.ToBytes(big.NewInt(common.Version)))
		if _, err := cache.PersistSync(); err != nil {
			return nil, fmt.Errorf("can't update version: %w", err)
		}
		l.log.Info("ledger schema updated",
			zap.String("from", common.VersionString(from)),
			zap.String("to", common.VersionString(common.Version)))
	}
	return l, nil
}

// Hash returns the script hash notifications are emitted from.
func (l *Ledger) Hash() util.Uint160 {
	return l.hash
}

// Height returns the number of committed executions.
func (l *Ledger) Height() (uint32, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	return readHeight(l.store)
}

// IsInitialized returns true once Initialize has committed.
func (l *Ledger) IsInitialized() (bool, error) {
	l.mtx.RLock()
	defer l.mtx.RUnlock()
	v, err := l.begin()
	if err != nil {
		return false, err
	}
	return v.globals != nil, nil
}

// AddListener registers a synchronous listener of committed executions.
func (l *Ledger) AddListener(f Listener) {
	l.lmtx.Lock()
	l.listeners = append(l.listeners, f)
	l.lmtx.Unlock()
}

// Subscribe registers a channel receiving committed executions. Sends never
// block: a subscriber that is not ready misses the execution.
func (l *Ledger) Subscribe(ch chan<- Execution) {
	l.lmtx.Lock()
	l.subscribers[ch] = struct{}{}
	l.lmtx.Unlock()
}

// Unsubscribe removes a channel registered with Subscribe.
func (l *Ledger) Unsubscribe(ch chan<- Execution) {
	l.lmtx.Lock()
	delete(l.subscribers, ch)
	l.lmtx.Unlock()
}

// execute runs f over a fresh view under the write lock and commits the view
// if f succeeds.
func (l *Ledger) execute(ctx context.Context, method string, f func(v *view) error) error {
	if inEmission(ctx) {
		return fmt.Errorf("%s: %w", method, ErrReentrantCall)
	}

	exec, err := l.commitLocked(method, f)
	if err != nil {
		if errors.Is(err, ErrInvariantViolation) {
			l.log.Error("ledger invariant violated",
				zap.String("method", method),
				zap.Error(err))
		}
		return err
	}

	l.log.Debug("execution committed",
		zap.Stringer("id", exec.ID),
		zap.String("method", method),
		zap.Uint32("height", exec.Height),
		zap.Int("events", len(exec.Events)))
	l.emit(ctx, exec)
	return nil
}

func (l *Ledger) commitLocked(method string, f func(v *view) error) (Execution, error) {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	v, err := l.begin()
	if err != nil {
		return Execution{}, err
	}
	if err := f(v); err != nil {
		return Execution{}, err
	}
	height, err := v.commit()
	if err != nil {
		return Execution{}, fmt.Errorf("%s: can't persist: %w", method, err)
	}
	return Execution{
		ID:     uuid.New(),
		Height: height,
		Method: method,
		Events: v.events,
	}, nil
}

// read runs f over a view of the committed state under the read lock.
func (l *Ledger) read(f func(v *view) error) error {
	l.mtx.RLock()
	defer l.mtx.RUnlock()

	v, err := l.begin()
	if err != nil {
		return err
	}
	if err := v.requireInitialized(); err != nil {
		return err
	}
	return f(v)
}

func (l *Ledger) emit(ctx context.Context, e Execution) {
	l.lmtx.RLock()
	listeners := make([]Listener, len(l.listeners))
	copy(listeners, l.listeners)
	subscribers := make([]chan<- Execution, 0, len(l.subscribers))
	for ch := range l.subscribers {
		subscribers = append(subscribers, ch)
	}
	l.lmtx.RUnlock()

	ctx = context.WithValue(ctx, emissionKey{}, true)
	for _, f := range listeners {
		f(ctx, e)
	}
	for _, ch := range subscribers {
		select {
		case ch <- e:
		default:
			l.log.Warn("subscriber is not ready, execution dropped",
				zap.Stringer("id", e.ID))
		}
	}
}

func inEmission(ctx context.Context) bool {
	v, _ := ctx.Value(emissionKey{}).(bool)
	return v
}

func readHeight(st common.Getter) (uint32, error) {
	data, err := st.Get([]byte{heightKey})
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return 0, nil
		}
		return 0, err
	}
	if len(data) != 4 {
		return 0, fmt.Errorf("invalid height record length %d", len(data))
	}
	return binary.LittleEndian.Uint32(data), nil
}
