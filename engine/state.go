package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kylycht/ledger/model"
)

// State is the engine lifecycle phase
type State int32

const (
	Idle     State = iota // created, not started
	Running               // accepting and processing transactions
	Draining              // no new transactions, workers finishing the queue
	Stopped               // terminal
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Draining:
		return "DRAINING"
	case Stopped:
		return "STOPPED"
	}

	return "UNKNOWN"
}

// State returns the current lifecycle phase
func (e *Engine) State() State {
	return State(e.state.Load())
}

// Receipt is the future outcome of one submitted transaction
type Receipt struct {
	ID   uuid.UUID  // id assigned on submission
	Kind model.Kind // variant of the submitted transaction

	once   sync.Once
	doneC  chan struct{}
	result model.Result
}

func newReceipt(id uuid.UUID, kind model.Kind) *Receipt {
	return &Receipt{
		ID:    id,
		Kind:  kind,
		doneC: make(chan struct{}),
	}
}

// Done is closed once the result is available
func (r *Receipt) Done() <-chan struct{} {
	return r.doneC
}

// Wait blocks until the transaction was applied, rejected or
// abandoned, or until ctx is done
func (r *Receipt) Wait(ctx context.Context) (model.Result, error) {
	select {
	case <-r.doneC:
		return r.result, nil
	case <-ctx.Done():
		return model.Result{}, ctx.Err()
	}
}

// resolve sets the result. Only the first call has an effect.
func (r *Receipt) resolve(workerID int, err error, d time.Duration) {
	r.once.Do(func() {
		r.result = model.Result{
			TxID:     r.ID,
			Kind:     r.Kind,
			Err:      err,
			Duration: d,
			WorkerID: workerID,
		}
		if err != nil {
			r.result.Error = err.Error()
		}
		close(r.doneC)
	})
}
