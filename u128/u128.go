package u128

import (
	"errors"
	"fmt"
	"math/big"

	binary "github.com/gagliardetto/binary"
)

type Uint128 binary.Uint128

func (u *Uint128) Scan(s fmt.ScanState, ch rune) error {
	i := new(big.Int)
	if err := i.Scan(s, ch); err != nil {
		return err
	} else if i.Sign() < 0 {
		return errors.New("value cannot be negative")
	} else if i.BitLen() > 128 {
		return errors.New("value overflows Uint128")
	}
	u.Lo = i.Uint64()
	u.Hi = i.Rsh(i, 64).Uint64()
	return nil
}

// FromBig truncates a non-negative big.Int into a little-endian Uint128.
// Snapshot surfaces use it to encode the fractional part of the magnified
// per-share accumulator, which by construction fits 128 bits.
func FromBig(v *big.Int) (binary.Uint128, error) {
	if v.Sign() < 0 {
		return binary.Uint128{}, errors.New("value cannot be negative")
	}
	if v.BitLen() > 128 {
		return binary.Uint128{}, errors.New("value overflows Uint128")
	}
	u := binary.NewUint128LittleEndian()
	u.Lo = v.Uint64()
	u.Hi = new(big.Int).Rsh(v, 64).Uint64()
	return *u, nil
}

func ToBig(v binary.Uint128) *big.Int {
	return v.BigInt()
}

func FromString(num string) (binary.Uint128, error) {
	u := binary.NewUint128LittleEndian()
	if _, err := fmt.Sscan(num, (*Uint128)(u)); err != nil {
		return binary.Uint128{}, err
	}
	return *u, nil
}
