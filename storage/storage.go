package storage

import (
	"context"

	"github.com/kylycht/ledger/model"
	"github.com/shopspring/decimal"
)

// Seeder interface describes a source
// of initial exchange rates
type Seeder interface {
	// Load returns the rates the table
	// is initialized with on start
	Load(ctx context.Context) ([]model.RateEntry, error)
}

// Rates interface describes the exchange rate
// table shared by workers and the rate updater
type Rates interface {
	// Get returns the rate of code relative
	// to the base currency
	Get(code string) (float64, bool)

	// Update replaces the rate of code with fn(old)
	// under the entry's lock
	Update(code string, fn func(float64) float64) bool

	// Snapshot returns every entry sorted by code.
	// Entries are read one at a time, not as a unit.
	Snapshot() []model.RateEntry

	// Base returns the base currency code
	Base() string
}

// Accounts interface describes the account store
type Accounts interface {
	// Register creates a new account
	Register(id int, balance decimal.Decimal, currency string) error

	// Get returns a snapshot of an account
	Get(id int) (model.Snapshot, error)

	Deposit(id int, amount decimal.Decimal) error
	Withdraw(id int, amount decimal.Decimal) error
	Transfer(fromID, toID int, amount decimal.Decimal) error
	Exchange(id int, from, to string, amount decimal.Decimal) error
}

// Static is a Seeder backed by a fixed list of rates
type Static []model.RateEntry

// Load implements Seeder.
func (s Static) Load(ctx context.Context) ([]model.RateEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]model.RateEntry, len(s))
	copy(out, s)
	return out, nil
}
