// Package engine wires the account store, the rate table, the notification
// bus, the transaction queue, the worker pool and the rate updater into one
// ledger with a Running, Draining, Stopped lifecycle.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kylycht/ledger/metrics"
	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/service"
	"github.com/kylycht/ledger/service/notify"
	"github.com/kylycht/ledger/service/pool"
	"github.com/kylycht/ledger/service/queue"
	"github.com/kylycht/ledger/service/updater"
	"github.com/kylycht/ledger/storage"
	"github.com/kylycht/ledger/storage/accounts"
	"github.com/kylycht/ledger/storage/cache"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const (
	DefaultTickInterval   = time.Second
	DefaultUpdaterTimeout = 2 * time.Second
	DefaultDrainTimeout   = 5 * time.Second
)

// Options configures an Engine. Zero values fall back to defaults.
type Options struct {
	Base           string              // base currency, pinned at 1.0
	Seeder         storage.Seeder      // initial rates, model.DefaultRates when nil
	TickInterval   time.Duration       // rate updater period
	UpdaterTimeout time.Duration       // bound on waiting for the updater to stop
	DrainTimeout   time.Duration       // bound on waiting for workers to drain the queue
	Metrics        *metrics.Metrics    // optional, a private registry is created when nil
	Random         func() float64      // rate drift source, math/rand when nil
	Observers      []service.Observer  // registered before start
	TickHook       func(time.Duration) // optional, called after every tick
}

func (o *Options) defaults() {
	if o.Base == "" {
		o.Base = model.DefaultBase
	}
	if o.Seeder == nil {
		o.Seeder = storage.Static(model.DefaultRates())
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.UpdaterTimeout <= 0 {
		o.UpdaterTimeout = DefaultUpdaterTimeout
	}
	if o.DrainTimeout <= 0 {
		o.DrainTimeout = DefaultDrainTimeout
	}
	if o.Metrics == nil {
		o.Metrics = metrics.New("ledger")
	}
}

type job struct {
	tx      model.Transaction
	receipt *Receipt
}

// Engine is a concurrent in-memory ledger
type Engine struct {
	opts     Options
	rates    *cache.RateTable
	accounts *accounts.Store
	bus      *notify.Bus
	queue    *queue.Queue[*job]
	pool     atomic.Pointer[pool.Pool[*job]] // set once by Start
	updater  *updater.Updater
	metrics  *metrics.Metrics

	state     atomic.Int32
	lock      sync.Mutex // serializes Start against Shutdown
	startedAt time.Time

	shutdownOnce sync.Once
	report       Report
	shutdownErr  error
}

func New(opts Options) *Engine {
	opts.defaults()

	e := &Engine{
		opts:    opts,
		rates:   cache.New(opts.Base),
		bus:     notify.New(opts.Observers...),
		queue:   queue.New[*job](),
		metrics: opts.Metrics,
	}

	e.accounts = accounts.New(e.rates)
	e.updater = updater.New(e.rates, e, opts.TickInterval,
		updater.WithRandom(opts.Random),
		updater.WithTickHook(e.onTick),
	)

	return e
}

// Start seeds the rate table, then launches the rate updater and
// numWorkers workers. Transactions submitted before Start stay queued.
// ctx bounds seeding only; workers and the updater run until Shutdown.
func (e *Engine) Start(ctx context.Context, numWorkers int) error {
	if numWorkers <= 0 {
		return fmt.Errorf("%d: %w", numWorkers, model.ErrInvalidWorkers)
	}

	e.lock.Lock()
	defer e.lock.Unlock()

	switch e.State() {
	case Idle:
	case Running:
		return model.ErrEngineStarted
	default:
		return model.ErrEngineStopped
	}

	entries, err := e.opts.Seeder.Load(ctx)
	if err != nil {
		return fmt.Errorf("unable to load rates: %w", err)
	}
	e.rates.Seed(entries)

	runCtx := context.WithoutCancel(ctx)

	p := pool.New("ledger", numWorkers, e.queue, e.handle)
	if err := p.Start(runCtx); err != nil {
		return err
	}
	e.pool.Store(p)
	e.updater.Start(runCtx)

	e.startedAt = time.Now()
	e.state.Store(int32(Running))

	log.Info().
		Int("workers", numWorkers).
		Str("base", e.rates.Base()).
		Strs("currencies", e.rates.Currencies()).
		Msg("ledger engine started")

	return nil
}

// RegisterAccount creates an account. Ids are caller chosen.
func (e *Engine) RegisterAccount(id int, balance decimal.Decimal, currency string) error {
	if e.State() == Stopped {
		return model.ErrEngineStopped
	}

	if err := e.accounts.Register(id, balance, currency); err != nil {
		return err
	}

	log.Debug().Int("id", id).Str("balance", balance.String()).Str("currency", currency).Msg("account registered")
	return nil
}

// RegisterObserver adds an observer for every later notification
func (e *Engine) RegisterObserver(o service.Observer) {
	e.bus.Register(o)
}

// Submit validates tx and enqueues it. It never blocks on processing;
// the returned receipt resolves once a worker applied tx or shutdown
// abandoned it.
func (e *Engine) Submit(tx model.Transaction) (*Receipt, error) {
	if err := model.Validate(tx); err != nil {
		return nil, err
	}

	switch e.State() {
	case Idle, Running:
	default:
		return nil, model.ErrEngineStopped
	}

	r := newReceipt(uuid.New(), tx.Kind())
	if err := e.queue.Push(&job{tx: tx, receipt: r}); err != nil {
		// lost the race against Shutdown closing the queue
		return nil, model.ErrEngineStopped
	}

	e.metrics.RecordSubmit(string(tx.Kind()), e.queue.Len())
	return r, nil
}

// Snapshot returns a consistent view of one account
func (e *Engine) Snapshot(id int) (model.Snapshot, error) {
	return e.accounts.Get(id)
}

// Accounts returns a snapshot of every account ordered by id
func (e *Engine) Accounts() []model.Snapshot {
	return e.accounts.Snapshots()
}

// Total returns the sum of every balance regardless of currency
func (e *Engine) Total() decimal.Decimal {
	return e.accounts.Total()
}

// Rates returns the current rate of every currency, sorted by code
func (e *Engine) Rates() []model.RateEntry {
	return e.rates.Snapshot()
}

// RateTable exposes the live table for cross-rate lookups
func (e *Engine) RateTable() *cache.RateTable {
	return e.rates
}

// Metrics returns the metrics the engine records into
func (e *Engine) Metrics() *metrics.Metrics {
	return e.metrics
}

// Stats returns worker pool statistics
func (e *Engine) Stats() pool.Stats {
	p := e.pool.Load()
	if p == nil {
		return pool.Stats{Name: "ledger", Pending: e.queue.Len()}
	}

	st := p.Stats()
	e.metrics.UpdatePool(st.Active, st.Pending)
	return st
}

// Publish implements service.Publisher over the engine's bus,
// counting failed deliveries
func (e *Engine) Publish(message string) int {
	failed := e.bus.Publish(message)
	e.metrics.RecordNotificationFailures(failed)
	return failed
}

func (e *Engine) onTick(d time.Duration) {
	e.metrics.RecordTick(d)
	if e.opts.TickHook != nil {
		e.opts.TickHook(d)
	}
}
