package token

import (
	"io"
	"log/slog"
	"math/big"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/reflektlabs/reflekt-go/fees"
	"github.com/reflektlabs/reflekt-go/reward"
	"github.com/reflektlabs/reflekt-go/shared"
)

// Config gathers everything the settlement component needs at construction.
type Config struct {
	Admin    solana.PublicKey
	Pair     solana.PublicKey
	FeeVault solana.PublicKey
	LiqVault solana.PublicKey

	InitialSupply *big.Int

	Pipeline fees.Params
	Ledger   reward.Params
}

// Token is the settlement component. It composes the balance book, the fee
// pipeline, and the dividend ledger; it does not subclass any of them. The
// mutex serializes entrypoints the way the host ledger totally orders
// transactions.
type Token struct {
	mu sync.Mutex

	clock  clockwork.Clock
	log    *slog.Logger
	book   *Book
	policy *AccessPolicy

	pipeline *fees.Pipeline
	ledger   *reward.Ledger
}

func New(cfg Config, ex fees.Exchange, payer reward.Payer, clock clockwork.Clock, log *slog.Logger) *Token {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	book := NewBook()
	book.Mint(cfg.Admin, cfg.InitialSupply)

	policy := NewAccessPolicy(cfg.Admin)
	policy.Grant(cfg.Pair, shared.CapLimitExempt)
	policy.Grant(cfg.FeeVault, shared.CapFeeExempt|shared.CapLimitExempt)
	policy.Grant(cfg.LiqVault, shared.CapFeeExempt|shared.CapLimitExempt)

	ledger := reward.NewLedger(book.TotalSupply, payer, clock, log, cfg.Ledger)

	// Infrastructure accounts never accrue rewards.
	for _, addr := range []solana.PublicKey{cfg.Pair, cfg.FeeVault, cfg.LiqVault, cfg.Admin} {
		_ = ledger.SetExcluded(addr, true)
	}

	pipeline := fees.NewPipeline(book, ledger, policy, ex, clock, log, cfg.Pair, cfg.FeeVault, cfg.LiqVault, cfg.Pipeline)

	return &Token{
		clock:    clock,
		log:      log,
		book:     book,
		policy:   policy,
		pipeline: pipeline,
		ledger:   ledger,
	}
}

// Transfer is the single value-moving entrypoint; every transfer runs the
// full fee pipeline.
func (t *Token) Transfer(from, to solana.PublicKey, amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pipeline.Transfer(from, to, amount)
}

// Claim pays the caller its withdrawable rewards.
func (t *Token) Claim(account solana.PublicKey) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Claim(account, false)
}

// Sweep runs one bounded automatic payout pass.
func (t *Token) Sweep(budget int) (reward.SweepResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Sweep(budget)
}

// Deposit credits external reward currency straight into the ledger.
func (t *Token) Deposit(amount *big.Int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Deposit(amount)
}

func (t *Token) BalanceOf(addr solana.PublicKey) *big.Int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.book.BalanceOf(addr)
}

func (t *Token) TotalSupply() *big.Int {
	return t.book.TotalSupply()
}

func (t *Token) Withdrawable(addr solana.PublicKey) (*big.Int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ledger.Withdrawable(addr)
}

// Book exposes the raw balance store to sibling components (the sale funnel
// settles against it directly).
func (t *Token) Book() *Book {
	return t.book
}

// Ledger exposes the dividend ledger to sibling components.
func (t *Token) Ledger() *reward.Ledger {
	return t.ledger
}

// Policy exposes the capability policy.
func (t *Token) Policy() *AccessPolicy {
	return t.policy
}

// Pipeline exposes the fee pipeline, mainly so observers can hook its
// settlement events.
func (t *Token) Pipeline() *fees.Pipeline {
	return t.pipeline
}

// Locked runs fn under the settlement order. Sibling components that settle
// against the book directly (the sale funnel) go through here so their
// mutations serialize with transfers, claims, and sweeps.
func (t *Token) Locked(fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn()
}

// EnableTrading opens transfers to the public. Admin only, irreversible.
func (t *Token) EnableTrading(caller solana.PublicKey) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.policy.RequireAdmin(caller); err != nil {
		return err
	}
	t.pipeline.EnableTrading()
	return nil
}

// SetExcluded flips reward exclusion for an account and re-syncs its ledger
// balance on re-inclusion.
func (t *Token) SetExcluded(caller, account solana.PublicKey, excluded bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.policy.RequireAdmin(caller); err != nil {
		return err
	}
	if err := t.ledger.SetExcluded(account, excluded); err != nil {
		return err
	}
	if !excluded {
		return t.ledger.UpdateBalance(account, t.book.BalanceOf(account))
	}
	return nil
}

// Admin setters. Each validates its range before committing.

func (t *Token) SetReflectionFeeBps(caller solana.PublicKey, v int64) error {
	return t.adminDo(caller, func() error { return t.pipeline.SetReflectionFeeBps(v) })
}

func (t *Token) SetLiquidityFeeBps(caller solana.PublicKey, v int64) error {
	return t.adminDo(caller, func() error { return t.pipeline.SetLiquidityFeeBps(v) })
}

func (t *Token) SetSnipeFeeBps(caller solana.PublicKey, v int64) error {
	return t.adminDo(caller, func() error { return t.pipeline.SetSnipeFeeBps(v) })
}

func (t *Token) SetMaxTxAmount(caller solana.PublicKey, v *big.Int) error {
	return t.adminDo(caller, func() error { return t.pipeline.SetMaxTxAmount(v) })
}

func (t *Token) SetMaxWalletAmount(caller solana.PublicKey, v *big.Int) error {
	return t.adminDo(caller, func() error { return t.pipeline.SetMaxWalletAmount(v) })
}

func (t *Token) SetTxDelay(caller solana.PublicKey, d time.Duration) error {
	return t.adminDo(caller, func() error { return t.pipeline.SetTxDelay(d) })
}

func (t *Token) SetClaimCooldown(caller solana.PublicKey, d time.Duration) error {
	return t.adminDo(caller, func() error { return t.ledger.SetClaimCooldown(d) })
}

func (t *Token) SetMinPayout(caller solana.PublicKey, v *big.Int) error {
	return t.adminDo(caller, func() error { return t.ledger.SetMinPayout(v) })
}

func (t *Token) SetMinEligibleBalance(caller solana.PublicKey, v *big.Int) error {
	return t.adminDo(caller, func() error { return t.ledger.SetMinEligibleBalance(v) })
}

func (t *Token) SetSwapThreshold(caller solana.PublicKey, v *big.Int) error {
	return t.adminDo(caller, func() error { return t.pipeline.Swapper().SetThreshold(v) })
}

func (t *Token) SetSwapCooldown(caller solana.PublicKey, d time.Duration) error {
	return t.adminDo(caller, func() error { return t.pipeline.Swapper().SetCooldown(d) })
}

// ForceSwap drains the fee vault through the exchange immediately.
func (t *Token) ForceSwap(caller solana.PublicKey) error {
	return t.adminDo(caller, func() error { return t.pipeline.Swapper().ForceSwap() })
}

func (t *Token) adminDo(caller solana.PublicKey, fn func() error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.policy.RequireAdmin(caller); err != nil {
		return err
	}
	return fn()
}
