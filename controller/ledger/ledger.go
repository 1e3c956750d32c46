package ledger

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kylycht/ledger/engine"
	"github.com/kylycht/ledger/model"
	"github.com/kylycht/ledger/service/pool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

const defaultWait = 5 * time.Second

// Ledger is the engine surface exposed over HTTP
type Ledger interface {
	RegisterAccount(id int, balance decimal.Decimal, currency string) error
	Submit(tx model.Transaction) (*engine.Receipt, error)
	Snapshot(id int) (model.Snapshot, error)
	Accounts() []model.Snapshot
	Rates() []model.RateEntry
	Stats() pool.Stats
}

func New(ledger Ledger) *Controller {
	return &Controller{ledger: ledger}
}

type Controller struct {
	ledger Ledger
}

// AccountRequest opens an account
type AccountRequest struct {
	ID       int             `json:"id" example:"1"`
	Balance  decimal.Decimal `json:"balance" swaggertype:"string" example:"1000"`
	Currency string          `json:"currency" example:"USD"`
}

// TransactionRequest describes any transaction variant.
// Fields not used by the kind are ignored.
type TransactionRequest struct {
	Kind      string          `json:"kind" example:"DEPOSIT"`
	AccountID int             `json:"account_id" example:"1"`
	ToID      int             `json:"to_id,omitempty" example:"2"`
	From      string          `json:"from,omitempty" example:"USD"`
	To        string          `json:"to,omitempty" example:"RUB"`
	Amount    decimal.Decimal `json:"amount" swaggertype:"string" example:"500"`
	Wait      bool            `json:"wait,omitempty"` // block until applied
}

// Transaction converts the request into a typed transaction
func (r TransactionRequest) Transaction() (model.Transaction, error) {
	switch model.Kind(strings.ToUpper(r.Kind)) {
	case model.KindDeposit:
		return model.Deposit{AccountID: r.AccountID, Amount: r.Amount}, nil
	case model.KindWithdrawal:
		return model.Withdrawal{AccountID: r.AccountID, Amount: r.Amount}, nil
	case model.KindTransfer:
		return model.Transfer{FromID: r.AccountID, ToID: r.ToID, Amount: r.Amount}, nil
	case model.KindExchange:
		return model.Exchange{AccountID: r.AccountID, From: r.From, To: r.To, Amount: r.Amount}, nil
	}

	return nil, errors.New("unknown transaction kind: " + r.Kind)
}

// SubmitResponse acknowledges a queued transaction
type SubmitResponse struct {
	TxID string `json:"tx_id"`
	Kind string `json:"kind"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Register wires the routes on router
func (c *Controller) Register(router fiber.Router) {
	router.Post("/accounts", c.CreateAccount)
	router.Get("/accounts", c.ListAccounts)
	router.Get("/accounts/:id", c.GetAccount)
	router.Post("/transactions", c.SubmitTransaction)
	router.Get("/rates", c.ListRates)
	router.Get("/stats", c.GetStats)
}

// CreateAccount godoc
//
//	@Summary		Open an account
//	@Tags			accounts
//	@Accept			json
//	@Produce		json
//	@Param			account	body		AccountRequest	true	"Account"
//	@Success		201		{object}	model.Snapshot
//	@Failure		400		{object}	errorResponse
//	@Failure		409		{object}	errorResponse
//	@Router			/accounts [post]
func (c *Controller) CreateAccount(ctx *fiber.Ctx) error {
	var req AccountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fail(ctx, http.StatusBadRequest, err)
	}

	if err := c.ledger.RegisterAccount(req.ID, req.Balance, req.Currency); err != nil {
		return fail(ctx, status(err), err)
	}

	snap, err := c.ledger.Snapshot(req.ID)
	if err != nil {
		return fail(ctx, status(err), err)
	}

	return ctx.Status(http.StatusCreated).JSON(snap)
}

// ListAccounts godoc
//
//	@Summary	List accounts
//	@Tags		accounts
//	@Produce	json
//	@Success	200	{array}	model.Snapshot
//	@Router		/accounts [get]
func (c *Controller) ListAccounts(ctx *fiber.Ctx) error {
	return ctx.JSON(c.ledger.Accounts())
}

// GetAccount godoc
//
//	@Summary	Account balance and currency
//	@Tags		accounts
//	@Produce	json
//	@Param		id	path		int	true	"Account id"
//	@Success	200	{object}	model.Snapshot
//	@Failure	404	{object}	errorResponse
//	@Router		/accounts/{id} [get]
func (c *Controller) GetAccount(ctx *fiber.Ctx) error {
	id, err := ctx.ParamsInt("id")
	if err != nil {
		return fail(ctx, http.StatusBadRequest, err)
	}

	snap, err := c.ledger.Snapshot(id)
	if err != nil {
		return fail(ctx, status(err), err)
	}

	return ctx.JSON(snap)
}

// SubmitTransaction godoc
//
//	@Summary		Submit a transaction
//	@Description	queue a deposit, withdrawal, transfer or exchange; with wait=true the response carries the result
//	@Tags			transactions
//	@Accept			json
//	@Produce		json
//	@Param			transaction	body		TransactionRequest	true	"Transaction"
//	@Success		200			{object}	model.Result
//	@Success		202			{object}	SubmitResponse
//	@Failure		400			{object}	errorResponse
//	@Failure		503			{object}	errorResponse
//	@Router			/transactions [post]
func (c *Controller) SubmitTransaction(ctx *fiber.Ctx) error {
	var req TransactionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fail(ctx, http.StatusBadRequest, err)
	}

	tx, err := req.Transaction()
	if err != nil {
		return fail(ctx, http.StatusBadRequest, err)
	}

	receipt, err := c.ledger.Submit(tx)
	if err != nil {
		return fail(ctx, status(err), err)
	}

	log.Debug().Str("tx", receipt.ID.String()).Str("kind", string(tx.Kind())).Msg("transaction submitted")

	if !req.Wait {
		return ctx.Status(http.StatusAccepted).JSON(SubmitResponse{
			TxID: receipt.ID.String(),
			Kind: string(receipt.Kind),
		})
	}

	waitCtx, cancel := context.WithTimeout(ctx.UserContext(), defaultWait)
	defer cancel()

	res, err := receipt.Wait(waitCtx)
	if err != nil {
		return fail(ctx, http.StatusGatewayTimeout, err)
	}

	if !res.OK() {
		return ctx.Status(status(res.Err)).JSON(res)
	}

	return ctx.JSON(res)
}

// ListRates godoc
//
//	@Summary	Current exchange rates relative to the base currency
//	@Tags		rates
//	@Produce	json
//	@Success	200	{array}	model.RateEntry
//	@Router		/rates [get]
func (c *Controller) ListRates(ctx *fiber.Ctx) error {
	return ctx.JSON(c.ledger.Rates())
}

// GetStats godoc
//
//	@Summary	Worker pool statistics
//	@Tags		stats
//	@Produce	json
//	@Success	200	{object}	pool.Stats
//	@Router		/stats [get]
func (c *Controller) GetStats(ctx *fiber.Ctx) error {
	return ctx.JSON(c.ledger.Stats())
}

func fail(ctx *fiber.Ctx, code int, err error) error {
	return ctx.Status(code).JSON(errorResponse{Error: err.Error()})
}

func status(err error) int {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrAccountExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrEngineStopped):
		return http.StatusServiceUnavailable
	case errors.Is(err, model.ErrInsufficientFunds),
		errors.Is(err, model.ErrCurrencyMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrCancelled):
		return http.StatusServiceUnavailable
	}

	return http.StatusBadRequest
}
