package config

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/reflektlabs/reflekt-go/shared"
)

func sampleDoc(reflectionBps int64) []byte {
	pk := func() string { return solana.NewWallet().PublicKey().String() }
	return fmt.Appendf(nil, `{
		"token": {
			"admin": %q,
			"pair": %q,
			"fee_vault": %q,
			"liquidity_vault": %q,
			"initial_supply": "1000000000000000"
		},
		"fees": {
			"reflection_bps": %d,
			"liquidity_bps": 100,
			"snipe_bps": 2500,
			"snipe_threshold_bps": 5000,
			"max_sells_per_window": 3,
			"anti_bot_window_seconds": 300,
			"max_tx_amount": "10000000000000",
			"max_wallet_amount": "20000000000000",
			"tx_delay_seconds": 30,
			"swap_threshold": "500000000000",
			"swap_cooldown_seconds": 300,
			"slippage_bps": 500
		},
		"rewards": {
			"min_eligible_balance": "1000000000",
			"min_payout": "100000",
			"claim_cooldown_seconds": 3600
		},
		"sale": {
			"base_price": "540540540540",
			"slope": "10",
			"scaling_unit": "1000000000",
			"soft_cap": "1000000000000",
			"hard_cap": "10000000000000",
			"min_contribution": "100000000",
			"max_contribution": "5000000000000",
			"liquidity_share_bps": 7000,
			"vault": %q,
			"escrow": %q,
			"liquidity_dest": %q,
			"project_dest": %q
		}
	}`, pk(), pk(), pk(), pk(), reflectionBps, pk(), pk(), pk(), pk())
}

func TestLoadValidDocument(t *testing.T) {
	cfg, err := Load(sampleDoc(200))
	require.NoError(t, err)

	require.Equal(t, int64(200), cfg.Token.Pipeline.ReflectionFeeBps)
	require.Equal(t, uint64(3), cfg.Token.Pipeline.MaxSellsPerWindow)
	require.Equal(t, 5*time.Minute, cfg.Token.Pipeline.AntiBotWindow)
	require.Equal(t, "1000000000000000", cfg.Token.InitialSupply.String())
	require.Equal(t, time.Hour, cfg.Token.Ledger.ClaimCooldown)
	require.Equal(t, "540540540540", cfg.Sale.Curve.BasePrice.String())
	require.Equal(t, int64(7000), cfg.Sale.LiquidityShareBps)
	require.False(t, cfg.SaleVault.IsZero())
}

func TestLoadRejectsInvalidJSON(t *testing.T) {
	_, err := Load([]byte("{not json"))
	require.Error(t, err)
}

func TestLoadRejectsFeeOutOfRange(t *testing.T) {
	_, err := Load(sampleDoc(shared.MaxFeeBps + 1))
	require.ErrorIs(t, err, shared.ErrParamOutOfRange)
}

func TestLoadRejectsMissingField(t *testing.T) {
	_, err := Load([]byte(`{"token": {}}`))
	require.Error(t, err)
	require.Contains(t, err.Error(), "token.admin")
}

func TestLoadRejectsBadAmount(t *testing.T) {
	doc := strings.Replace(string(sampleDoc(200)), `"1000000000000000"`, `"one million"`, 1)
	_, err := Load([]byte(doc))
	require.Error(t, err)
}
