package model

import "errors"

var (
	// ErrNotFound is returned when an account id is not registered
	ErrNotFound = errors.New("account not found")

	// ErrInsufficientFunds is returned when a withdrawal, transfer or exchange
	// asks for more than the account balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrCurrencyMismatch is returned when an exchange names a source currency
	// other than the account's current currency
	ErrCurrencyMismatch = errors.New("currency mismatch")

	// ErrUnknownCurrency is returned when the rate table has no entry for a currency
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrCancelled is returned for transactions abandoned during forced shutdown
	ErrCancelled = errors.New("transaction cancelled")

	ErrInvalidAmount  = errors.New("amount must not be negative")
	ErrNilTransaction = errors.New("transaction must not be nil")
	ErrAccountExists  = errors.New("account already registered")
	ErrSelfTransfer   = errors.New("transfer cannot have the same source and destination account")
	ErrEngineStopped  = errors.New("engine is not accepting transactions")
	ErrEngineStarted  = errors.New("engine already started")
	ErrInvalidWorkers = errors.New("number of workers must be positive")
)
