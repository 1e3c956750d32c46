package model

import "github.com/shopspring/decimal"

// Account is a ledger record holding
// balance and currency for one client
type Account struct {
	ID       int             // Client identifier
	Balance  decimal.Decimal // Current balance, never negative
	Currency string          // Currency the balance is denominated in
}

// Snapshot is a point-in-time copy of an account
// taken under the account's lock
type Snapshot struct {
	ID       int             `json:"id"`
	Balance  decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}
