package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/kylycht/ledger/controller/converter"
	"github.com/kylycht/ledger/controller/ledger"
	_ "github.com/kylycht/ledger/docs"
	"github.com/kylycht/ledger/engine"
	"github.com/kylycht/ledger/service"
	"github.com/kylycht/ledger/service/forex"
	"github.com/kylycht/ledger/service/notify"
	"github.com/kylycht/ledger/storage"
	"github.com/kylycht/ledger/storage/persistence"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

//	@title			Ledger
//	@version		1.0
//	@description	Concurrent multi-currency transaction ledger

// @host		localhost:3000
func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string

	root := &cobra.Command{
		Use:           "ledger",
		Short:         "Concurrent multi-currency transaction ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (defaults are used when empty)")

	load := func() (Config, error) {
		cfg := DefaultConfig()
		if cfgFile != "" {
			var err error
			if cfg, err = LoadConfig(cfgFile); err != nil {
				return Config{}, err
			}
		}

		level, _ := zerolog.ParseLevel(cfg.LogLevel)
		zerolog.SetGlobalLevel(level)
		return cfg, nil
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the ledger behind the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return New(cfg)
			},
		},
		&cobra.Command{
			Use:   "demo",
			Short: "Replay a fixed set of transactions and print the balances",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := load()
				if err != nil {
					return err
				}
				return runDemo(cmd.Context(), cfg, cmd.OutOrStdout())
			},
		},
	)

	return root
}

func New(cfg Config) error {
	a := Application{cfg: cfg}
	return a.init()
}

type Application struct {
	cfg            Config           // application configuration
	fiberApp       *fiber.App       // underlying fiber application
	engine         *engine.Engine   // ledger engine
	dbConn         *sql.DB          // underlying persistence connection, nil unless rates come from db
	exchangeClient service.Exchange // exchange rates provider, nil unless rates come from forex
	stopC          chan os.Signal   // handle interrupt for clean up(close connections, etc)
}

func (a *Application) init() error {
	a.fiberApp = fiber.New(fiber.Config{DisableStartupMessage: true})
	a.stopC = make(chan os.Signal, 1)
	signal.Notify(a.stopC, os.Interrupt, syscall.SIGTERM)

	seeder, err := a.seeder()
	if err != nil {
		log.Error().Err(err).Msg("unable to create rate seeder")
		return err
	}

	a.engine = engine.New(engine.Options{
		Base:           a.cfg.Base,
		Seeder:         seeder,
		TickInterval:   a.cfg.TickInterval,
		UpdaterTimeout: a.cfg.UpdaterTimeout,
		DrainTimeout:   a.cfg.DrainTimeout,
		Observers:      []service.Observer{notify.LogObserver{}},
	})

	if err := a.engine.Start(context.Background(), a.cfg.Workers); err != nil {
		log.Error().Err(err).Msg("unable to start ledger engine")
		a.closeDB()
		return err
	}

	a.buildRoutes()

	errC := make(chan error, 1)
	go func() {
		log.Debug().Str("port", a.cfg.HTTPPort).Msg("preparing fiber http server")
		errC <- a.fiberApp.Listen(a.cfg.HTTPPort)
	}()

	select {
	case <-a.stopC:
		log.Info().Msg("interrupt received")
	case err = <-errC:
		log.Error().Err(err).Msg("unable to start http server")
	}

	return a.stop(err)
}

func (a *Application) seeder() (storage.Seeder, error) {
	switch a.cfg.RateSource {
	case sourceDB:
		connStr := persistence.DSN(
			a.cfg.DBUsername,
			a.cfg.DBPassword,
			a.cfg.DBHost,
			a.cfg.DBPort,
			a.cfg.DBName,
		)
		log.Debug().Str("host", a.cfg.DBHost).Str("db", a.cfg.DBName).Msg("initialize db connection")

		dbConn, err := sql.Open("postgres", connStr)
		if err != nil {
			return nil, fmt.Errorf("unable to connect to db: %w", err)
		}

		a.dbConn = dbConn
		return persistence.New(dbConn), nil

	case sourceForex:
		exchangeClient, err := forex.New(a.cfg.ExchangeAPIKey)
		if err != nil {
			return nil, fmt.Errorf("unable to create exchange client: %w", err)
		}

		a.exchangeClient = exchangeClient
		return forex.NewSeeder(exchangeClient, a.cfg.Base, a.cfg.Targets()), nil
	}

	return storage.Static(a.cfg.SeedRates()), nil
}

func (a *Application) buildRoutes() {
	a.fiberApp.Get("/swagger/*", swagger.HandlerDefault)
	a.fiberApp.Get("/convert", converter.New(a.engine.RateTable()).Convert)
	a.fiberApp.Get("/metrics", adaptor.HTTPHandler(a.engine.Metrics().Handler()))
	ledger.New(a.engine).Register(a.fiberApp)
}

// stop shuts the http server first so no new submissions arrive,
// then drains the engine
func (a *Application) stop(cause error) error {
	if err := a.fiberApp.Shutdown(); err != nil {
		log.Error().Err(err).Msg("unable to stop http server")
	}

	report, err := a.engine.Shutdown(context.Background())
	if err != nil {
		log.Warn().Err(err).Interface("report", report).Msg("ledger engine stopped with errors")
	}

	a.closeDB()

	if cause != nil {
		return cause
	}
	return err
}

func (a *Application) closeDB() {
	if a.dbConn != nil {
		a.dbConn.Close()
	}
}
