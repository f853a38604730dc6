package math

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/reflektlabs/reflekt-go/shared"
)

func TestMulDivRounding(t *testing.T) {
	down, err := MulDiv(big.NewInt(7), big.NewInt(3), big.NewInt(2), shared.RoundingDown)
	require.NoError(t, err)
	require.Equal(t, int64(10), down.Int64())

	up, err := MulDiv(big.NewInt(7), big.NewInt(3), big.NewInt(2), shared.RoundingUp)
	require.NoError(t, err)
	require.Equal(t, int64(11), up.Int64())

	_, err = MulDiv(big.NewInt(1), big.NewInt(1), big.NewInt(0), shared.RoundingDown)
	require.Error(t, err)
}

func TestMulShr(t *testing.T) {
	// 3 * 2^130 >> 128 = 12.
	x := new(big.Int).Lsh(big.NewInt(3), 130)
	require.Equal(t, int64(12), MulShr(x, big.NewInt(1), 128).Int64())
	require.Equal(t, int64(6), MulShr(big.NewInt(2), big.NewInt(3), 0).Int64())
}

func TestBpsOf(t *testing.T) {
	v, err := BpsOf(big.NewInt(10_000), 250, shared.RoundingDown)
	require.NoError(t, err)
	require.Equal(t, int64(250), v.Int64())

	// 99 * 50 / 10_000 floors to zero.
	v, err = BpsOf(big.NewInt(99), 50, shared.RoundingDown)
	require.NoError(t, err)
	require.Zero(t, v.Sign())
}

func TestCheckedSignedMulBounds(t *testing.T) {
	in, err := CheckedSignedMul(big.NewInt(1), shared.MaxCorrection)
	require.NoError(t, err)
	require.Zero(t, in.Cmp(shared.MaxCorrection))

	over := new(big.Int).Add(shared.MaxCorrection, big.NewInt(1))
	_, err = CheckedSignedMul(big.NewInt(1), over)
	require.ErrorIs(t, err, shared.ErrCorrectionOverflow)

	neg := new(big.Int).Neg(over)
	require.ErrorIs(t, BoundSigned(neg), shared.ErrCorrectionOverflow)
}
