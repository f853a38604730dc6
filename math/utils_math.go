package math

import (
	"errors"
	"math/big"

	"github.com/reflektlabs/reflekt-go/shared"
)

func MulDiv(x, y, denominator *big.Int, rounding shared.Rounding) (*big.Int, error) {
	if denominator.Sign() == 0 {
		return nil, errors.New("MulDiv: division by zero")
	}
	if denominator.Cmp(big.NewInt(1)) == 0 || x.Sign() == 0 || y.Sign() == 0 {
		return new(big.Int).Mul(x, y), nil
	}
	prod := new(big.Int).Mul(x, y)
	if rounding == shared.RoundingUp {
		numerator := new(big.Int).Add(prod, new(big.Int).Sub(denominator, big.NewInt(1)))
		return new(big.Int).Div(numerator, denominator), nil
	}
	return new(big.Int).Div(prod, denominator), nil
}

func MulShr(x, y *big.Int, offset uint) *big.Int {
	if offset == 0 || x.Sign() == 0 || y.Sign() == 0 {
		return new(big.Int).Mul(x, y)
	}
	prod := new(big.Int).Mul(x, y)
	return new(big.Int).Rsh(prod, offset)
}

// BpsOf computes amount * bps / 10_000.
func BpsOf(amount *big.Int, bps int64, rounding shared.Rounding) (*big.Int, error) {
	return MulDiv(amount, big.NewInt(bps), big.NewInt(shared.MaxBasisPoint), rounding)
}

// CheckedSignedMul multiplies a non-negative magnitude by the magnified
// per-share accumulator and verifies the product stays inside the signed
// range the correction term is stored in.
func CheckedSignedMul(a, b *big.Int) (*big.Int, error) {
	prod := new(big.Int).Mul(a, b)
	if err := BoundSigned(prod); err != nil {
		return nil, err
	}
	return prod, nil
}

// BoundSigned rejects values outside ±MaxCorrection.
func BoundSigned(v *big.Int) error {
	if new(big.Int).Abs(v).Cmp(shared.MaxCorrection) > 0 {
		return shared.ErrCorrectionOverflow
	}
	return nil
}
