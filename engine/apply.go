package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/kylycht/ledger/model"
	"github.com/rs/zerolog/log"
)

// handle is the worker pool handler. The receipt is resolved on
// every path, including a panic inside apply.
func (e *Engine) handle(workerID int, j *job) (err error) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic applying %s: %v", j.tx.Kind(), r)
			log.Error().Int("worker", workerID).Str("tx", j.receipt.ID.String()).Err(err).Msg("transaction panicked")
		}

		d := time.Since(start)
		j.receipt.resolve(workerID, err, d)
		e.metrics.RecordTransaction(string(j.tx.Kind()), reason(err), d)
	}()

	err = e.apply(j.tx)
	if err != nil {
		log.Debug().Int("worker", workerID).Str("tx", j.receipt.ID.String()).Err(err).Msg("transaction rejected")
		e.Publish(failureMessage(j.tx, err))
		return err
	}

	e.Publish(j.tx.String())
	return nil
}

func (e *Engine) apply(tx model.Transaction) error {
	switch tx := tx.(type) {
	case model.Deposit:
		return e.accounts.Deposit(tx.AccountID, tx.Amount)
	case model.Withdrawal:
		return e.accounts.Withdraw(tx.AccountID, tx.Amount)
	case model.Transfer:
		return e.accounts.Transfer(tx.FromID, tx.ToID, tx.Amount)
	case model.Exchange:
		return e.accounts.Exchange(tx.AccountID, tx.From, tx.To, tx.Amount)
	}

	return fmt.Errorf("unsupported transaction %T", tx)
}

func failureMessage(tx model.Transaction, err error) string {
	switch {
	case errors.Is(err, model.ErrInsufficientFunds):
		return fmt.Sprintf("Error: insufficient funds for client #%d", tx.ClientID())
	case errors.Is(err, model.ErrCurrencyMismatch):
		return fmt.Sprintf("Error: client #%d currency does not match the source currency", tx.ClientID())
	case errors.Is(err, model.ErrUnknownCurrency):
		return fmt.Sprintf("Error: unknown currency in %s", tx)
	}

	return fmt.Sprintf("Error: %s failed for client #%d: %v", tx.Kind(), tx.ClientID(), err)
}

// reason maps an outcome to a metrics label, empty on success
func reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, model.ErrCurrencyMismatch):
		return "currency_mismatch"
	case errors.Is(err, model.ErrUnknownCurrency):
		return "unknown_currency"
	case errors.Is(err, model.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, model.ErrSelfTransfer):
		return "self_transfer"
	case errors.Is(err, model.ErrNilTransaction):
		return "nil_transaction"
	}

	return "internal"
}
