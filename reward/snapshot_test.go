package reward

import (
	"math/big"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/reflektlabs/reflekt-go/u128"
)

func TestSnapshotSplitsAccumulator(t *testing.T) {
	l, _, _ := newTestLedger(t, 1<<20)
	holder := solana.NewWallet().PublicKey()
	require.NoError(t, l.UpdateBalance(holder, big.NewInt(1<<17)))

	// 2^10 over a 2^20 supply magnifies to exactly 2^118.
	require.NoError(t, l.Deposit(big.NewInt(1<<10)))

	snap, err := l.Snapshot()
	require.NoError(t, err)
	require.Zero(t, snap.PerShareWhole.Sign())
	want := new(big.Int).Lsh(big.NewInt(1), 118)
	require.Zero(t, u128.ToBig(snap.PerShareFraction).Cmp(want))
	require.Equal(t, int64(1<<10), snap.TotalDeposited.Int64())
	require.Equal(t, 1, snap.EligibleHolders)
}
