package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kylycht/ledger/engine"
	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/service"
	"github.com/kylycht/ledger/service/notify"
	"github.com/kylycht/ledger/storage"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const demoProducers = 2

type demoAccount struct {
	id       int
	balance  int64
	currency string
}

var (
	demoAccounts = []demoAccount{
		{id: 1, balance: 1000, currency: "USD"},
		{id: 2, balance: 2000, currency: "EUR"},
	}

	demoTransactions = []model.Transaction{
		model.Deposit{AccountID: 1, Amount: decimal.NewFromInt(500)},
		model.Withdrawal{AccountID: 2, Amount: decimal.NewFromInt(300)},
		model.Exchange{AccountID: 1, From: "USD", To: "RUB", Amount: decimal.NewFromInt(100)},
		model.Transfer{FromID: 1, ToID: 2, Amount: decimal.NewFromInt(200)},
	}
)

// lockedWriter serializes writes from workers and the rate updater
type lockedWriter struct {
	lock sync.Mutex
	w    io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.lock.Lock()
	defer l.lock.Unlock()
	return l.w.Write(p)
}

// runDemo registers two accounts, submits a fixed batch of transactions
// from a small set of producers, waits for every result and prints the
// balances before shutting down
func runDemo(ctx context.Context, cfg Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	out = &lockedWriter{w: out}

	e := engine.New(engine.Options{
		Base:           cfg.Base,
		Seeder:         storage.Static(cfg.SeedRates()),
		TickInterval:   cfg.TickInterval,
		UpdaterTimeout: cfg.UpdaterTimeout,
		DrainTimeout:   cfg.DrainTimeout,
		Observers: []service.Observer{
			notify.LogObserver{},
			service.ObserverFunc(func(message string) {
				fmt.Fprintln(out, message)
			}),
		},
	})

	if err := e.Start(ctx, cfg.Workers); err != nil {
		return err
	}

	for _, a := range demoAccounts {
		if err := e.RegisterAccount(a.id, decimal.NewFromInt(a.balance), a.currency); err != nil {
			e.Shutdown(ctx)
			return err
		}
	}

	var (
		g   errgroup.Group
		sem = semaphore.NewWeighted(demoProducers)
	)

	for _, tx := range demoTransactions {
		tx := tx
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			receipt, err := e.Submit(tx)
			if err != nil {
				return err
			}

			res, err := receipt.Wait(ctx)
			if err != nil {
				return err
			}
			if !res.OK() {
				log.Info().Str("tx", tx.String()).Str("error", res.Error).Msg("demo transaction rejected")
			}
			return nil
		})
	}

	waitErr := g.Wait()

	for _, snap := range e.Accounts() {
		fmt.Fprintf(out, "Client %d: %s %s\n", snap.ID, snap.Balance.StringFixed(2), snap.Currency)
	}

	report, err := e.Shutdown(ctx)
	fmt.Fprintf(out, "Done. processed=%d failed=%d abandoned=%d\n", report.Processed, report.Failed, report.Abandoned)

	if waitErr != nil {
		return waitErr
	}
	return err
}
