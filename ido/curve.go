package ido

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/reflektlabs/reflekt-go/math"
	"github.com/reflektlabs/reflekt-go/shared"
)

// Curve is a step-wise linear bonding curve: price rises by slope once per
// whole scaling unit sold, not continuously.
type Curve struct {
	BasePrice   *big.Int
	Slope       *big.Int
	ScalingUnit *big.Int
}

// PriceAt is basePrice + slope * floor(sold / scalingUnit).
func (c Curve) PriceAt(sold *big.Int) (*big.Int, error) {
	steps, err := math.Div(sold, c.ScalingUnit)
	if err != nil {
		return nil, err
	}
	increase := math.Mul(c.Slope, steps)
	if err := math.BoundSigned(increase); err != nil {
		return nil, err
	}
	return math.Add(c.BasePrice, increase), nil
}

// TokensFor converts a payment into tokens at the current step price:
// payment * scalingUnit / price.
func (c Curve) TokensFor(payment, sold *big.Int) (*big.Int, error) {
	price, err := c.PriceAt(sold)
	if err != nil {
		return nil, err
	}
	return math.MulDiv(payment, c.ScalingUnit, price, shared.RoundingDown)
}

// PriceDecimal renders the current step price in quote-currency units for
// display surfaces.
func (c Curve) PriceDecimal(sold *big.Int, quoteDecimals int32) (decimal.Decimal, error) {
	price, err := c.PriceAt(sold)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromBigInt(price, -quoteDecimals), nil
}
