package converter

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/kylycht/ledger/model"
	"github.com/rs/zerolog/log"
)

// Pairs resolves cross rates between two currencies
type Pairs interface {
	Pair(from, to string) (model.ExchangeRate, error)
}

func New(rates Pairs) *Converter {
	return &Converter{rates: rates}
}

type Converter struct {
	rates Pairs
}

// Convert godoc
//
//	@Summary		Convert an amount at the current rates
//	@Description	convert between any two currencies of the rate table
//	@Tags			converter
//	@Param			from	query	string	true	"From Currency" example(USD)
//	@Param			to		query	string	true	"To Currency"   example(RUB)
//	@Param			amount	query	number	false	"Amount"        example(3.1)
//	@Success		200	{string}	string "232.500000"
//	@Failure		400	{string}	string "invalid conversion for pair CNY/EUR: unknown currency"
//	@Router			/convert [get]
func (c *Converter) Convert(ctx *fiber.Ctx) error {
	from := ctx.Query("from")
	to := ctx.Query("to")
	amount := ctx.QueryFloat("amount", 1)

	rateInfo, err := c.rates.Pair(from, to)
	if err != nil {
		return ctx.Status(http.StatusBadRequest).SendString(err.Error())
	}

	log.Debug().Str(rateInfo.Base, rateInfo.Target).Float64("amount", amount).Msg("converting")

	result := amount * rateInfo.Rate
	_, err = ctx.WriteString(fmt.Sprintf("%f", result))
	if err != nil {
		log.Error().Err(err).Msg("error occurred during result write op")
		return err
	}

	return nil
}
