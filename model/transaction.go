package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// unexported type to disable any new kinds
type kind string

const (
	KindDeposit    kind = kind("DEPOSIT")    // KindDeposit credits one account
	KindWithdrawal kind = kind("WITHDRAWAL") // KindWithdrawal debits one account
	KindTransfer   kind = kind("TRANSFER")   // KindTransfer moves funds between two accounts
	KindExchange   kind = kind("EXCHANGE")   // KindExchange converts an account to another currency
)

// Kind is the tag of a transaction variant
type Kind = kind

// Transaction is the closed set of commands accepted by the engine.
// Only the variants declared in this file implement it.
type Transaction interface {
	Kind() Kind
	ClientID() int
	String() string
	sealed()
}

// Deposit credits Amount to AccountID
type Deposit struct {
	AccountID int
	Amount    decimal.Decimal
}

// Withdrawal debits Amount from AccountID
type Withdrawal struct {
	AccountID int
	Amount    decimal.Decimal
}

// Transfer moves Amount from FromID to ToID.
// The amount is moved as-is, without conversion.
type Transfer struct {
	FromID int
	ToID   int
	Amount decimal.Decimal
}

// Exchange converts Amount of the account's balance from From to To
// and switches the account currency to To
type Exchange struct {
	AccountID int
	From      string
	To        string
	Amount    decimal.Decimal
}

func (Deposit) Kind() Kind    { return KindDeposit }
func (Withdrawal) Kind() Kind { return KindWithdrawal }
func (Transfer) Kind() Kind   { return KindTransfer }
func (Exchange) Kind() Kind   { return KindExchange }

func (d Deposit) ClientID() int    { return d.AccountID }
func (w Withdrawal) ClientID() int { return w.AccountID }
func (t Transfer) ClientID() int   { return t.FromID }
func (e Exchange) ClientID() int   { return e.AccountID }

func (Deposit) sealed()    {}
func (Withdrawal) sealed() {}
func (Transfer) sealed()   {}
func (Exchange) sealed()   {}

func (d Deposit) String() string {
	return fmt.Sprintf("Deposit: client #%d deposited %s", d.AccountID, d.Amount)
}

func (w Withdrawal) String() string {
	return fmt.Sprintf("Withdrawal: client #%d withdrew %s", w.AccountID, w.Amount)
}

func (t Transfer) String() string {
	return fmt.Sprintf("Transfer: client #%d sent %s to client #%d", t.FromID, t.Amount, t.ToID)
}

func (e Exchange) String() string {
	return fmt.Sprintf("Exchange: client #%d exchanged %s %s to %s", e.AccountID, e.Amount, e.From, e.To)
}

// Validate rejects nil transactions, self transfers and negative amounts
func Validate(tx Transaction) error {
	var amount decimal.Decimal

	switch tx := tx.(type) {
	case Deposit:
		amount = tx.Amount
	case Withdrawal:
		amount = tx.Amount
	case Transfer:
		if tx.FromID == tx.ToID {
			return ErrSelfTransfer
		}
		amount = tx.Amount
	case Exchange:
		amount = tx.Amount
	case nil:
		return ErrNilTransaction
	}

	if amount.IsNegative() {
		return fmt.Errorf("%s %s: %w", tx.Kind(), amount, ErrInvalidAmount)
	}

	return nil
}

// Result is the outcome of one submitted transaction
type Result struct {
	TxID     uuid.UUID     `json:"tx_id"`               // Id assigned at submission
	Kind     Kind          `json:"kind"`                // Variant of the transaction
	Err      error         `json:"-"`                   // Nil on success
	Error    string        `json:"error,omitempty"`     // Err rendered for transport
	Duration time.Duration `json:"duration"`            // Time spent applying
	WorkerID int           `json:"worker_id,omitempty"` // Worker that applied it, -1 if abandoned
}

// OK reports whether the transaction was applied
func (r Result) OK() bool {
	return r.Err == nil
}
