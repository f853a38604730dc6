package shared

import (
	"math/big"
)

const (
	// MagnitudeBits scales the cumulative per-share accumulator so integer
	// division keeps fractional precision per token unit.
	MagnitudeBits = 128

	MaxBasisPoint = 10_000

	MaxFeeBps      = 2_000
	MaxSnipeFeeBps = 4_900

	MaxSlippageBps = 5_000

	SecondsPerDay = 86_400

	MaxClaimCooldownSeconds = SecondsPerDay
	MaxTxDelaySeconds       = 300
	MaxSwapCooldownSeconds  = 3_600

	// DefaultSweepBudget bounds one automatic payout pass when the caller
	// does not supply its own budget.
	DefaultSweepBudget = 64
)

// Magnitude is 2^MagnitudeBits.
var Magnitude = new(big.Int).Lsh(big.NewInt(1), MagnitudeBits)

// MaxUint128 masks the fractional part of a magnified value.
var MaxUint128 = new(big.Int).Sub(Magnitude, big.NewInt(1))

// MaxCorrection bounds the signed correction term to the i256 range.
var MaxCorrection = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))

type Rounding uint8

const (
	RoundingDown Rounding = 0
	RoundingUp   Rounding = 1
)

type SaleState uint8

const (
	SaleNotStarted SaleState = 0
	SaleActive     SaleState = 1
	SaleSucceeded  SaleState = 2
	SaleRefunding  SaleState = 3
)

func (s SaleState) String() string {
	switch s {
	case SaleNotStarted:
		return "not_started"
	case SaleActive:
		return "active"
	case SaleSucceeded:
		return "succeeded"
	case SaleRefunding:
		return "refunding"
	}
	return "unknown"
}

// Capability flags checked by the access policy before privileged or
// exempted operations.
type Capability uint8

const (
	CapAdmin Capability = 1 << iota
	CapFeeExempt
	CapLimitExempt
	CapTradeBeforeLaunch
)
