package service

import (
	"context"

	"github.com/kylycht/ledger/model"
)

// Observer receives notification messages.
// Notify runs on the publishing goroutine.
type Observer interface {
	Notify(message string)
}

// ObserverFunc adapts a plain callback to Observer
type ObserverFunc func(message string)

// Notify implements Observer.
func (fn ObserverFunc) Notify(message string) {
	fn(message)
}

// Publisher interface describes the notification
// channel used by workers and the rate updater
type Publisher interface {
	// Publish delivers message to every registered
	// observer and returns the number of failed deliveries
	Publish(message string) int
}

// Exchange interface describes
// methods specs for obtaining exchange rates
type Exchange interface {
	// GetRate returns exchange rate
	// for specified pair
	GetRate(ctx context.Context, from, to string) (model.ExchangeRate, error)

	// GetAllRates returns the rate of every target
	// currency relative to base
	GetAllRates(ctx context.Context, base string, targets []string) ([]model.RateEntry, error)
}
