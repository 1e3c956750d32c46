package notify

import (
	"fmt"
	"sync"

	"github.com/kylycht/ledger/service"
	"github.com/rs/zerolog/log"
)

var _ service.Publisher = (*Bus)(nil)

// Bus fans messages out to observers synchronously, in registration
// order, on the caller's goroutine. A slow observer therefore stalls the
// worker or updater that published; observers must return quickly.
// A panicking observer is logged and skipped, the rest still receive the message.
type Bus struct {
	lock      sync.RWMutex       // rw lock guards observers
	observers []service.Observer // in registration order
}

func New(observers ...service.Observer) *Bus {
	b := &Bus{}
	for _, o := range observers {
		b.Register(o)
	}
	return b
}

// Register appends observer to the delivery list
func (b *Bus) Register(observer service.Observer) {
	if observer == nil {
		return
	}

	b.lock.Lock()
	b.observers = append(b.observers, observer)
	b.lock.Unlock()
}

// Len returns the number of registered observers
func (b *Bus) Len() int {
	b.lock.RLock()
	defer b.lock.RUnlock()
	return len(b.observers)
}

// Publish implements service.Publisher.
func (b *Bus) Publish(message string) int {
	b.lock.RLock()
	observers := make([]service.Observer, len(b.observers))
	copy(observers, b.observers)
	b.lock.RUnlock()

	failed := 0
	for i, o := range observers {
		if err := deliver(o, message); err != nil {
			failed++
			log.Error().Err(err).Int("observer", i).Str("message", message).Msg("observer failed")
		}
	}

	return failed
}

func deliver(o service.Observer, message string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("observer panic: %v", r)
		}
	}()

	o.Notify(message)
	return nil
}

// LogObserver writes every message to the global logger
type LogObserver struct{}

// Notify implements service.Observer.
func (LogObserver) Notify(message string) {
	log.Info().Str("component", "notify").Msg(message)
}
