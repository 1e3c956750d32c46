package updater

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/go-resiliency/deadline"
	"github.com/kylycht/ledger/service"
	"github.com/kylycht/ledger/storage"
	"github.com/rs/zerolog/log"
)

const (
	defaultInterval = time.Second
	maxDrift        = 0.01 // +/- 1% per tick
)

var ErrStopTimeout = errors.New("rate updater did not stop in time")

// Updater drifts every non-base rate by a random factor once per interval.
// Entries are updated one by one, so readers may observe a table that is
// partly from the previous tick.
type Updater struct {
	table     storage.Rates     // rate table to perturb
	publisher service.Publisher // receives one summary per tick
	interval  time.Duration     // tick period
	random    func() float64    // uniform source in [0, 1)
	onTick    func(time.Duration)

	ticks    int64        // completed ticks
	lastTick atomic.Int64 // unix nano of the last completed tick

	started  atomic.Bool
	once     sync.Once
	stopOnce sync.Once
	stopC    chan struct{} // closed by Stop to cancel the schedule
	doneC    chan struct{} // closed when the loop returned
}

// Option configures an Updater
type Option func(*Updater)

// WithRandom replaces the random source, mainly for tests
func WithRandom(fn func() float64) Option {
	return func(u *Updater) {
		if fn != nil {
			u.random = fn
		}
	}
}

// WithTickHook registers fn to be called with the duration of every tick
func WithTickHook(fn func(time.Duration)) Option {
	return func(u *Updater) {
		u.onTick = fn
	}
}

func New(table storage.Rates, publisher service.Publisher, interval time.Duration, opts ...Option) *Updater {
	if interval <= 0 {
		interval = defaultInterval
	}

	u := &Updater{
		table:     table,
		publisher: publisher,
		interval:  interval,
		random:    rand.Float64,
		stopC:     make(chan struct{}),
		doneC:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(u)
	}

	return u
}

// Start runs the first tick immediately and then one per interval
// until ctx is done or Stop is called
func (u *Updater) Start(ctx context.Context) {
	u.once.Do(func() {
		u.started.Store(true)

		go func() {
			defer close(u.doneC)

			ticker := time.NewTicker(u.interval)
			defer ticker.Stop()

			u.safeTick()

			for {
				select {
				case <-ctx.Done():
					return
				case <-u.stopC:
					return
				case <-ticker.C:
					u.safeTick()
				}
			}
		}()

		log.Debug().Dur("interval", u.interval).Msg("rate updater started")
	})
}

// Stop cancels the schedule and waits up to timeout for the running
// tick to finish. Past the timeout the loop is abandoned and
// ErrStopTimeout is returned.
func (u *Updater) Stop(timeout time.Duration) error {
	u.stopOnce.Do(func() {
		close(u.stopC)
	})

	if !u.started.Load() {
		return nil
	}

	err := deadline.New(timeout).Run(func(stopper <-chan struct{}) error {
		select {
		case <-u.doneC:
		case <-stopper:
		}
		return nil
	})
	if errors.Is(err, deadline.ErrTimedOut) {
		log.Error().Dur("timeout", timeout).Msg("rate updater stop timed out, abandoning tick")
		return fmt.Errorf("after %s: %w", timeout, ErrStopTimeout)
	}

	return err
}

// Tick applies one perturbation pass and publishes the new table
func (u *Updater) Tick() {
	start := time.Now()

	for _, entry := range u.table.Snapshot() {
		factor := 1 + (u.random()-0.5)*2*maxDrift
		u.table.Update(entry.Currency, func(rate float64) float64 {
			return rate * factor
		})
	}

	atomic.AddInt64(&u.ticks, 1)
	u.lastTick.Store(time.Now().UnixNano())

	if u.publisher != nil {
		u.publisher.Publish(u.summary())
	}

	if u.onTick != nil {
		u.onTick(time.Since(start))
	}
}

// Ticks returns the number of completed ticks
func (u *Updater) Ticks() int64 {
	return atomic.LoadInt64(&u.ticks)
}

// LastTick returns the completion time of the last tick
func (u *Updater) LastTick() time.Time {
	nano := u.lastTick.Load()
	if nano == 0 {
		return time.Time{}
	}
	return time.Unix(0, nano)
}

func (u *Updater) safeTick() {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("panic", fmt.Sprint(r)).Msg("rate updater tick panicked")
		}
	}()

	u.Tick()
}

func (u *Updater) summary() string {
	var b strings.Builder
	b.WriteString("Exchange rates updated:")

	for _, entry := range u.table.Snapshot() {
		fmt.Fprintf(&b, " %s=%.4f", entry.Currency, entry.Rate)
	}

	return b.String()
}
