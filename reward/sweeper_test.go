package reward

import (
	"math/big"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/reflektlabs/reflekt-go/shared"
)

func TestSweepEmptySet(t *testing.T) {
	l, _, _ := newTestLedger(t, 1_000_000)
	res, err := l.Sweep(10)
	require.NoError(t, err)
	require.Zero(t, res.Visited)
	require.Zero(t, res.Paid)
	require.Zero(t, res.Cursor)
}

func TestSweepPaysEligibleHolders(t *testing.T) {
	l, payer, _ := newTestLedger(t, 1_000_000)
	holders := make([]solana.PublicKey, 5)
	for i := range holders {
		holders[i] = solana.NewWallet().PublicKey()
		require.NoError(t, l.UpdateBalance(holders[i], big.NewInt(200_000)))
	}
	require.NoError(t, l.Deposit(big.NewInt(100_000)))

	res, err := l.Sweep(len(holders))
	require.NoError(t, err)
	require.Equal(t, len(holders), res.Visited)
	require.Equal(t, len(holders), res.Paid)
	for _, h := range holders {
		require.Positive(t, payer.paid[h].Sign())
	}
}

func TestSweepRoundRobinVisitsEveryoneWithSmallBudget(t *testing.T) {
	l, payer, _ := newTestLedger(t, 1_000_000)
	const n = 7
	holders := make([]solana.PublicKey, n)
	for i := range holders {
		holders[i] = solana.NewWallet().PublicKey()
		require.NoError(t, l.UpdateBalance(holders[i], big.NewInt(100_000)))
	}
	require.NoError(t, l.Deposit(big.NewInt(700_000)))

	// Budget of 2 per call: four calls cover all seven holders, and the
	// cursor always advances mod the set size.
	prevCursor := l.SweepCursor()
	for call := 0; call < 4; call++ {
		res, err := l.Sweep(2)
		require.NoError(t, err)
		require.Positive(t, res.Visited)
		require.NotEqual(t, prevCursor, res.Cursor)
		prevCursor = res.Cursor
	}
	for _, h := range holders {
		require.Positive(t, payer.paid[h].Sign(), "holder %s never paid", h)
	}
}

func TestSweepSkipsCooldownAndSmallPayouts(t *testing.T) {
	l, _, clock := newTestLedger(t, 1_000_000)
	require.NoError(t, l.SetMinPayout(big.NewInt(50)))

	rich := solana.NewWallet().PublicKey()
	poor := solana.NewWallet().PublicKey()
	require.NoError(t, l.UpdateBalance(rich, big.NewInt(500_000)))
	require.NoError(t, l.UpdateBalance(poor, big.NewInt(1)))
	require.NoError(t, l.Deposit(big.NewInt(100_000)))

	res, err := l.Sweep(2)
	require.NoError(t, err)
	require.Equal(t, 2, res.Visited)
	require.Equal(t, 1, res.Paid) // poor's share is below the minimum payout

	// Just paid: the cooldown keeps rich unpaid on the next pass.
	res, err = l.Sweep(2)
	require.NoError(t, err)
	require.Zero(t, res.Paid)

	clock.Advance(2 * time.Hour)
	require.NoError(t, l.Deposit(big.NewInt(100_000)))
	res, err = l.Sweep(2)
	require.NoError(t, err)
	require.Equal(t, 1, res.Paid)
}

func TestSweepAbortsOnPayoutFailureKeepingCursor(t *testing.T) {
	l, payer, _ := newTestLedger(t, 1_000_000)
	holders := make([]solana.PublicKey, 3)
	for i := range holders {
		holders[i] = solana.NewWallet().PublicKey()
		require.NoError(t, l.UpdateBalance(holders[i], big.NewInt(100_000)))
	}
	require.NoError(t, l.Deposit(big.NewInt(30_000)))

	payer.fail = true
	res, err := l.Sweep(3)
	require.ErrorIs(t, err, shared.ErrPayoutTransferFailed)
	require.Equal(t, 1, res.Visited)
	require.Zero(t, res.Paid)
	// Advance-before-pay: the cursor moved past the failed account.
	require.Equal(t, 1, res.Cursor)
	require.Equal(t, 1, l.SweepCursor())

	// The failed claim rolled back its cooldown, so a retry pays everyone.
	payer.fail = false
	res, err = l.Sweep(3)
	require.NoError(t, err)
	require.Equal(t, 3, res.Visited)
	require.Equal(t, 3, res.Paid)
}
