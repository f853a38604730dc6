// Package reflekt wires the reflection-token accounting engine: the fee
// pipeline, the fixed-point dividend ledger with its holder registry and
// payout sweeper, and the bonding-curve bootstrap sale.
package reflekt

import (
	"io"
	"log/slog"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/reflektlabs/reflekt-go/config"
	"github.com/reflektlabs/reflekt-go/fees"
	"github.com/reflektlabs/reflekt-go/ido"
	"github.com/reflektlabs/reflekt-go/metrics"
	"github.com/reflektlabs/reflekt-go/reward"
	"github.com/reflektlabs/reflekt-go/shared"
	"github.com/reflektlabs/reflekt-go/token"
)

// Engine is the composed system. All entrypoints delegate to the settlement
// component or the sale funnel and keep the metrics surface current.
type Engine struct {
	Token *token.Token
	Sale  *ido.Sale

	log *slog.Logger
	m   *metrics.Metrics
}

func NewEngine(cfg *config.Config, ex fees.Exchange, payer reward.Payer, bank ido.Bank, clock clockwork.Clock, log *slog.Logger, m *metrics.Metrics) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	t := token.New(cfg.Token, ex, payer, clock, log)

	// The sale vault is infrastructure: free to receive its reserve before
	// launch and never a dividend holder.
	t.Policy().Grant(cfg.SaleVault, shared.CapFeeExempt|shared.CapLimitExempt|shared.CapTradeBeforeLaunch)
	_ = t.Ledger().SetExcluded(cfg.SaleVault, true)

	s := ido.NewSale(t.Book(), bank, t.Ledger(), clock, log,
		cfg.SaleVault, cfg.SaleEscrow, cfg.LiquidityD, cfg.ProjectD, cfg.Sale)

	if m != nil {
		t.Pipeline().OnSnipe(m.SnipesDetected.Inc)
		t.Pipeline().Swapper().OnSwap(m.SwapsTotal.Inc)
	}
	return &Engine{Token: t, Sale: s, log: log, m: m}
}

func (e *Engine) Transfer(from, to solana.PublicKey, amount *big.Int) error {
	return e.Token.Transfer(from, to, amount)
}

func (e *Engine) Deposit(amount *big.Int) error {
	if err := e.Token.Deposit(amount); err != nil {
		return err
	}
	if e.m != nil {
		e.m.DepositsTotal.Inc()
	}
	return nil
}

func (e *Engine) Claim(account solana.PublicKey) (*big.Int, error) {
	paid, err := e.Token.Claim(account)
	if err == nil && e.m != nil {
		e.m.ClaimsTotal.Inc()
	}
	return paid, err
}

func (e *Engine) Sweep(budget int) (reward.SweepResult, error) {
	res, err := e.Token.Sweep(budget)
	if e.m != nil {
		e.m.SweepVisits.Add(float64(res.Visited))
		e.m.SweepPayouts.Add(float64(res.Paid))
		e.m.EligibleCount.Set(float64(e.Token.Ledger().EligibleCount()))
	}
	return res, err
}

// StartSale opens the bootstrap sale. Admin only.
func (e *Engine) StartSale(caller solana.PublicKey) error {
	if err := e.Token.Policy().RequireAdmin(caller); err != nil {
		return err
	}
	return e.Token.Locked(e.Sale.Start)
}

// The sale settles against the token book directly, so its entrypoints take
// the same lock as transfers, claims, and sweeps.

func (e *Engine) Contribute(from solana.PublicKey, payment *big.Int) (*big.Int, error) {
	var tokens *big.Int
	err := e.Token.Locked(func() error {
		var err error
		tokens, err = e.Sale.Contribute(from, payment)
		return err
	})
	return tokens, err
}

func (e *Engine) Finalize() error {
	return e.Token.Locked(e.Sale.Finalize)
}

func (e *Engine) ClaimRefund(from solana.PublicKey) (*big.Int, error) {
	var refund *big.Int
	err := e.Token.Locked(func() error {
		var err error
		refund, err = e.Sale.ClaimRefund(from)
		return err
	})
	return refund, err
}
