package reward

import (
	"math/big"

	binary "github.com/gagliardetto/binary"

	"github.com/reflektlabs/reflekt-go/shared"
	"github.com/reflektlabs/reflekt-go/u128"
)

// Snapshot is a point-in-time view of the accumulator for reporting. The
// magnified per-share value is split into its whole-unit part and the
// 128-bit fractional remainder so consumers never handle arbitrary-width
// integers.
type Snapshot struct {
	PerShareWhole    *big.Int
	PerShareFraction binary.Uint128
	TotalDeposited   *big.Int
	EligibleHolders  int
}

func (l *Ledger) Snapshot() (Snapshot, error) {
	frac, err := u128.FromBig(new(big.Int).And(l.perShare, shared.MaxUint128))
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		PerShareWhole:    new(big.Int).Rsh(l.perShare, shared.MagnitudeBits),
		PerShareFraction: frac,
		TotalDeposited:   new(big.Int).Set(l.totalDeposited),
		EligibleHolders:  l.registry.Len(),
	}, nil
}
