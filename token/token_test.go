package token

import (
	"math/big"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/reflektlabs/reflekt-go/fees"
	"github.com/reflektlabs/reflekt-go/reward"
	"github.com/reflektlabs/reflekt-go/shared"
)

type nullExchange struct{}

func (nullExchange) Quote(amountIn *big.Int) (*big.Int, error) {
	return new(big.Int).Set(amountIn), nil
}

func (nullExchange) SwapForCurrency(amountIn, minOut *big.Int, recipient solana.PublicKey) (*big.Int, error) {
	return new(big.Int).Set(amountIn), nil
}

type nullPayer struct{}

func (nullPayer) Pay(account solana.PublicKey, amount *big.Int) error { return nil }

type tokenFixture struct {
	tok   *Token
	clock *clockwork.FakeClock

	admin solana.PublicKey
	pair  solana.PublicKey
	alice solana.PublicKey
	bob   solana.PublicKey
}

func newTokenFixture(t *testing.T) *tokenFixture {
	t.Helper()
	f := &tokenFixture{
		clock: clockwork.NewFakeClock(),
		admin: solana.NewWallet().PublicKey(),
		pair:  solana.NewWallet().PublicKey(),
		alice: solana.NewWallet().PublicKey(),
		bob:   solana.NewWallet().PublicKey(),
	}
	cfg := Config{
		Admin:         f.admin,
		Pair:          f.pair,
		FeeVault:      solana.NewWallet().PublicKey(),
		LiqVault:      solana.NewWallet().PublicKey(),
		InitialSupply: big.NewInt(1_000_000_000),
		Pipeline: fees.Params{
			ReflectionFeeBps:  200,
			LiquidityFeeBps:   100,
			SnipeFeeBps:       2_500,
			SnipeThresholdBps: 5_000,
			MaxSellsPerWindow: 3,
			AntiBotWindow:     5 * time.Minute,
			MaxTxAmount:       big.NewInt(100_000_000),
			MaxWalletAmount:   big.NewInt(500_000_000),
			TxDelay:           30 * time.Second,
			SwapThreshold:     big.NewInt(1_000_000_000), // idle in these tests
			SwapCooldown:      time.Minute,
			SlippageBps:       500,
		},
		Ledger: reward.Params{
			MinEligibleBalance: big.NewInt(1),
			MinPayout:          big.NewInt(1),
			ClaimCooldown:      time.Hour,
		},
	}
	f.tok = New(cfg, nullExchange{}, nullPayer{}, f.clock, nil)
	return f
}

func TestGenesisSupplyMintedToAdmin(t *testing.T) {
	f := newTokenFixture(t)
	require.Equal(t, int64(1_000_000_000), f.tok.BalanceOf(f.admin).Int64())
	require.Equal(t, int64(1_000_000_000), f.tok.TotalSupply().Int64())
}

func TestTransferRunsPipeline(t *testing.T) {
	f := newTokenFixture(t)

	// Admin can distribute before launch and pays no fees.
	require.NoError(t, f.tok.Transfer(f.admin, f.alice, big.NewInt(100_000_000)))
	require.Equal(t, int64(100_000_000), f.tok.BalanceOf(f.alice).Int64())

	// Public transfers are rejected until trading is enabled.
	err := f.tok.Transfer(f.alice, f.bob, big.NewInt(1_000_000))
	require.ErrorIs(t, err, shared.ErrTradingDisabled)

	require.ErrorIs(t, f.tok.EnableTrading(f.alice), shared.ErrUnauthorized)
	require.NoError(t, f.tok.EnableTrading(f.admin))

	require.NoError(t, f.tok.Transfer(f.alice, f.bob, big.NewInt(1_000_000)))
	// 2% reflection then 1% liquidity on the remainder.
	require.Equal(t, int64(970_200), f.tok.BalanceOf(f.bob).Int64())
}

func TestRewardsFlowEndToEnd(t *testing.T) {
	f := newTokenFixture(t)
	require.NoError(t, f.tok.Transfer(f.admin, f.alice, big.NewInt(100_000_000)))
	require.NoError(t, f.tok.Transfer(f.admin, f.bob, big.NewInt(300_000_000)))

	require.NoError(t, f.tok.Deposit(big.NewInt(1_000_000)))

	wa, err := f.tok.Withdrawable(f.alice)
	require.NoError(t, err)
	wb, err := f.tok.Withdrawable(f.bob)
	require.NoError(t, err)
	// alice holds 10%, bob 30% of total supply.
	require.InDelta(t, 100_000, float64(wa.Int64()), 1)
	require.InDelta(t, 300_000, float64(wb.Int64()), 1)

	paid, err := f.tok.Claim(f.alice)
	require.NoError(t, err)
	require.Zero(t, paid.Cmp(wa))
}

func TestSetExcludedResyncsOnReinclusion(t *testing.T) {
	f := newTokenFixture(t)
	require.NoError(t, f.tok.Transfer(f.admin, f.alice, big.NewInt(100_000_000)))
	require.NoError(t, f.tok.Deposit(big.NewInt(1_000_000)))

	require.ErrorIs(t, f.tok.SetExcluded(f.alice, f.alice, true), shared.ErrUnauthorized)
	require.NoError(t, f.tok.SetExcluded(f.admin, f.alice, true))

	w, err := f.tok.Withdrawable(f.alice)
	require.NoError(t, err)
	require.Zero(t, w.Sign())

	// Re-inclusion re-reads the live balance, so new deposits accrue again.
	require.NoError(t, f.tok.SetExcluded(f.admin, f.alice, false))
	require.NoError(t, f.tok.Deposit(big.NewInt(1_000_000)))
	w, err = f.tok.Withdrawable(f.alice)
	require.NoError(t, err)
	require.Positive(t, w.Sign())
}

func TestAdminSettersRequireAdmin(t *testing.T) {
	f := newTokenFixture(t)
	require.ErrorIs(t, f.tok.SetReflectionFeeBps(f.alice, 100), shared.ErrUnauthorized)
	require.ErrorIs(t, f.tok.SetMaxTxAmount(f.alice, big.NewInt(1)), shared.ErrUnauthorized)
	require.ErrorIs(t, f.tok.SetClaimCooldown(f.alice, time.Minute), shared.ErrUnauthorized)

	require.NoError(t, f.tok.SetReflectionFeeBps(f.admin, 100))
	require.ErrorIs(t, f.tok.SetReflectionFeeBps(f.admin, shared.MaxFeeBps+1), shared.ErrParamOutOfRange)
	require.NoError(t, f.tok.SetSwapThreshold(f.admin, big.NewInt(1_000)))
	require.NoError(t, f.tok.SetSwapCooldown(f.admin, time.Minute))
}

func TestSweepThroughToken(t *testing.T) {
	f := newTokenFixture(t)
	require.NoError(t, f.tok.Transfer(f.admin, f.alice, big.NewInt(100_000_000)))
	require.NoError(t, f.tok.Transfer(f.admin, f.bob, big.NewInt(100_000_000)))
	require.NoError(t, f.tok.Deposit(big.NewInt(1_000_000)))

	res, err := f.tok.Sweep(shared.DefaultSweepBudget)
	require.NoError(t, err)
	require.Equal(t, 2, res.Visited)
	require.Equal(t, 2, res.Paid)
}
