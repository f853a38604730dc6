package config

import (
	"fmt"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/tidwall/gjson"

	"github.com/reflektlabs/reflekt-go/ido"
	"github.com/reflektlabs/reflekt-go/shared"
	"github.com/reflektlabs/reflekt-go/token"
)

// Config is the full engine parameter document.
type Config struct {
	Token token.Config
	Sale  ido.Params

	SaleVault  solana.PublicKey
	SaleEscrow solana.PublicKey
	LiquidityD solana.PublicKey
	ProjectD   solana.PublicKey
}

// Load parses and validates a JSON engine-parameters document.
func Load(data []byte) (*Config, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("config: invalid json")
	}
	doc := gjson.ParseBytes(data)

	cfg := &Config{}
	var err error

	if cfg.Token.Admin, err = pubkey(doc, "token.admin"); err != nil {
		return nil, err
	}
	if cfg.Token.Pair, err = pubkey(doc, "token.pair"); err != nil {
		return nil, err
	}
	if cfg.Token.FeeVault, err = pubkey(doc, "token.fee_vault"); err != nil {
		return nil, err
	}
	if cfg.Token.LiqVault, err = pubkey(doc, "token.liquidity_vault"); err != nil {
		return nil, err
	}
	if cfg.Token.InitialSupply, err = amount(doc, "token.initial_supply"); err != nil {
		return nil, err
	}

	f := &cfg.Token.Pipeline
	f.ReflectionFeeBps = doc.Get("fees.reflection_bps").Int()
	f.LiquidityFeeBps = doc.Get("fees.liquidity_bps").Int()
	f.SnipeFeeBps = doc.Get("fees.snipe_bps").Int()
	f.SnipeThresholdBps = doc.Get("fees.snipe_threshold_bps").Int()
	f.MaxSellsPerWindow = doc.Get("fees.max_sells_per_window").Uint()
	f.AntiBotWindow = seconds(doc, "fees.anti_bot_window_seconds")
	if f.MaxTxAmount, err = amount(doc, "fees.max_tx_amount"); err != nil {
		return nil, err
	}
	if f.MaxWalletAmount, err = amount(doc, "fees.max_wallet_amount"); err != nil {
		return nil, err
	}
	f.TxDelay = seconds(doc, "fees.tx_delay_seconds")
	if f.SwapThreshold, err = amount(doc, "fees.swap_threshold"); err != nil {
		return nil, err
	}
	f.SwapCooldown = seconds(doc, "fees.swap_cooldown_seconds")
	f.SlippageBps = doc.Get("fees.slippage_bps").Int()

	r := &cfg.Token.Ledger
	if r.MinEligibleBalance, err = amount(doc, "rewards.min_eligible_balance"); err != nil {
		return nil, err
	}
	if r.MinPayout, err = amount(doc, "rewards.min_payout"); err != nil {
		return nil, err
	}
	r.ClaimCooldown = seconds(doc, "rewards.claim_cooldown_seconds")

	s := &cfg.Sale
	if s.Curve.BasePrice, err = amount(doc, "sale.base_price"); err != nil {
		return nil, err
	}
	if s.Curve.Slope, err = amount(doc, "sale.slope"); err != nil {
		return nil, err
	}
	if s.Curve.ScalingUnit, err = amount(doc, "sale.scaling_unit"); err != nil {
		return nil, err
	}
	if s.SoftCap, err = amount(doc, "sale.soft_cap"); err != nil {
		return nil, err
	}
	if s.HardCap, err = amount(doc, "sale.hard_cap"); err != nil {
		return nil, err
	}
	if s.MinContribution, err = amount(doc, "sale.min_contribution"); err != nil {
		return nil, err
	}
	if s.MaxContribution, err = amount(doc, "sale.max_contribution"); err != nil {
		return nil, err
	}
	s.LiquidityShareBps = doc.Get("sale.liquidity_share_bps").Int()

	if cfg.SaleVault, err = pubkey(doc, "sale.vault"); err != nil {
		return nil, err
	}
	if cfg.SaleEscrow, err = pubkey(doc, "sale.escrow"); err != nil {
		return nil, err
	}
	if cfg.LiquidityD, err = pubkey(doc, "sale.liquidity_dest"); err != nil {
		return nil, err
	}
	if cfg.ProjectD, err = pubkey(doc, "sale.project_dest"); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	f := c.Token.Pipeline
	for name, check := range map[string]bool{
		"fees.reflection_bps":      f.ReflectionFeeBps >= 0 && f.ReflectionFeeBps <= shared.MaxFeeBps,
		"fees.liquidity_bps":       f.LiquidityFeeBps >= 0 && f.LiquidityFeeBps <= shared.MaxFeeBps,
		"fees.snipe_bps":           f.SnipeFeeBps >= 0 && f.SnipeFeeBps <= shared.MaxSnipeFeeBps,
		"fees.snipe_threshold_bps": f.SnipeThresholdBps >= 0 && f.SnipeThresholdBps <= shared.MaxBasisPoint,
		"fees.slippage_bps":        f.SlippageBps >= 0 && f.SlippageBps <= shared.MaxSlippageBps,
		"fees.tx_delay_seconds":    f.TxDelay >= 0 && f.TxDelay <= shared.MaxTxDelaySeconds*time.Second,
		"sale.liquidity_share_bps": c.Sale.LiquidityShareBps >= 0 && c.Sale.LiquidityShareBps <= shared.MaxBasisPoint,
		"sale.soft_cap_le_hard":    c.Sale.SoftCap.Cmp(c.Sale.HardCap) <= 0,
		"rewards.claim_cooldown":   c.Token.Ledger.ClaimCooldown >= 0 && c.Token.Ledger.ClaimCooldown <= shared.MaxClaimCooldownSeconds*time.Second,
	} {
		if !check {
			return fmt.Errorf("config: %s: %w", name, shared.ErrParamOutOfRange)
		}
	}
	return nil
}

func pubkey(doc gjson.Result, path string) (solana.PublicKey, error) {
	v := doc.Get(path)
	if !v.Exists() {
		return solana.PublicKey{}, fmt.Errorf("config: missing %s", path)
	}
	pk, err := solana.PublicKeyFromBase58(v.String())
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return pk, nil
}

// amount parses a decimal string (or number) into a non-negative big.Int.
// Amounts travel as strings so 64-bit JSON number limits never truncate.
func amount(doc gjson.Result, path string) (*big.Int, error) {
	v := doc.Get(path)
	if !v.Exists() {
		return nil, fmt.Errorf("config: missing %s", path)
	}
	n, ok := new(big.Int).SetString(v.String(), 10)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("config: %s: %w", path, shared.ErrParamOutOfRange)
	}
	return n, nil
}

func seconds(doc gjson.Result, path string) time.Duration {
	return time.Duration(doc.Get(path).Int()) * time.Second
}
