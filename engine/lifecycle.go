package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kylycht/ledger/model"
	"github.com/rs/zerolog/log"
)

// Report summarizes a shutdown
type Report struct {
	Processed       int64         `json:"processed"`         // transactions applied
	Failed          int64         `json:"failed"`            // transactions rejected
	Abandoned       int           `json:"abandoned"`         // queued transactions cancelled by a forced stop
	UpdaterTimedOut bool          `json:"updater_timed_out"` // rate updater was abandoned
	WorkersTimedOut bool          `json:"workers_timed_out"` // workers were force-terminated
	Duration        time.Duration `json:"duration"`          // time spent shutting down
}

// Shutdown stops the engine:
//
//  1. stop the rate updater, waiting at most UpdaterTimeout
//  2. move to Draining and close the queue to new submissions
//  3. wait at most DrainTimeout for workers to finish the queue;
//     past it, terminate them and cancel whatever is left
//  4. move to Stopped
//
// Timeouts are reported in the returned error and Report, never by panic.
// Later calls return the first call's result. ctx can only shorten the
// configured timeouts.
func (e *Engine) Shutdown(ctx context.Context) (Report, error) {
	e.shutdownOnce.Do(func() {
		e.report, e.shutdownErr = e.shutdown(ctx)
	})

	return e.report, e.shutdownErr
}

func (e *Engine) shutdown(ctx context.Context) (Report, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	var (
		start  = time.Now()
		report Report
		errs   []error
	)

	log.Info().Str("state", e.State().String()).Msg("ledger engine shutting down")

	if err := e.updater.Stop(bound(ctx, e.opts.UpdaterTimeout)); err != nil {
		report.UpdaterTimedOut = true
		e.metrics.RecordShutdownTimeout("updater")
		log.Warn().Err(err).Msg("rate updater abandoned")
		errs = append(errs, err)
	}

	e.state.Store(int32(Draining))
	e.queue.Close()

	p := e.pool.Load()
	if p != nil {
		if err := p.Wait(bound(ctx, e.opts.DrainTimeout)); err != nil {
			report.WorkersTimedOut = true
			e.metrics.RecordShutdownTimeout("drain")
			errs = append(errs, err)
			p.Terminate()
		}
	}

	// empty unless workers were terminated or never started
	leftovers := e.queue.Drain()
	for _, j := range leftovers {
		j.receipt.resolve(-1, model.ErrCancelled, 0)
	}

	if n := len(leftovers); n > 0 {
		report.Abandoned = n
		e.metrics.RecordAbandoned(n)
		log.Warn().Int("abandoned", n).Msg("queued transactions cancelled")
		errs = append(errs, fmt.Errorf("%d queued transactions: %w", n, model.ErrCancelled))
	}

	if p != nil {
		st := e.Stats()
		report.Processed = st.Completed
		report.Failed = st.Failed
	}

	e.state.Store(int32(Stopped))
	report.Duration = time.Since(start)

	log.Info().
		Int64("processed", report.Processed).
		Int64("failed", report.Failed).
		Int("abandoned", report.Abandoned).
		Dur("took", report.Duration).
		Msg("ledger engine stopped")

	return report, errors.Join(errs...)
}

// bound returns d shortened to ctx's deadline
func bound(ctx context.Context, d time.Duration) time.Duration {
	if ctx.Err() != nil {
		return 0
	}

	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < d {
			return left
		}
	}

	return d
}
