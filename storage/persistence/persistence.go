package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/storage"
	"github.com/rs/zerolog/log"
)

const loadQuery = `SELECT symbol, rate
				 FROM currency
				 WHERE is_available=true`

// Persistence seeds the rate table from the currency table.
// Ledger state itself is never written back.
type Persistence struct {
	dbConn  *sql.DB          // underlying persistence connection
	retrier *retrier.Retrier // retries transient connection failures
}

func New(dbConn *sql.DB) storage.Seeder {
	return &Persistence{
		dbConn:  dbConn,
		retrier: retrier.New(retrier.ExponentialBackoff(3, 100*time.Millisecond), nil),
	}
}

// DSN builds a lib/pq connection string
func DSN(username, password, host, port, name string) string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=disable",
		username,
		password,
		host,
		port,
		name,
	)
}

// Load implements storage.Seeder.
func (p *Persistence) Load(ctx context.Context) ([]model.RateEntry, error) {
	var entries []model.RateEntry

	err := p.retrier.RunCtx(ctx, func(ctx context.Context) error {
		var err error
		entries, err = p.load(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("unable to load rates, retrying")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("unable to load rates from db: %w", err)
	}

	log.Debug().Int("count", len(entries)).Msg("rates loaded from db")
	return entries, nil
}

func (p *Persistence) load(ctx context.Context) ([]model.RateEntry, error) {
	rows, err := p.dbConn.QueryContext(ctx, loadQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.RateEntry

	for rows.Next() {
		e := model.RateEntry{}

		if err := rows.Scan(&e.Currency, &e.Rate); err != nil {
			return nil, err
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
