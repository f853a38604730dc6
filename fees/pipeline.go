package fees

import (
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/reflektlabs/reflekt-go/math"
	"github.com/reflektlabs/reflekt-go/shared"
)

// Book is the balance store the pipeline settles against. Move applies a raw
// balance delta with no fee logic of its own.
type Book interface {
	BalanceOf(addr solana.PublicKey) *big.Int
	Move(from, to solana.PublicKey, amount *big.Int) error
}

// RewardSink is the slice of the dividend ledger the pipeline drives.
type RewardSink interface {
	UpdateBalance(addr solana.PublicKey, newBalance *big.Int) error
	Deposit(amount *big.Int) error
}

// Policy answers capability checks for exemptions and launch gating.
type Policy interface {
	Has(principal solana.PublicKey, cap shared.Capability) bool
}

type Params struct {
	ReflectionFeeBps  int64
	LiquidityFeeBps   int64
	SnipeFeeBps       int64
	SnipeThresholdBps int64
	MaxSellsPerWindow uint64
	AntiBotWindow     time.Duration

	MaxTxAmount     *big.Int
	MaxWalletAmount *big.Int
	TxDelay         time.Duration

	SwapThreshold *big.Int
	SwapCooldown  time.Duration
	SlippageBps   int64
}

// Pipeline applies the transfer-time fee stages in a fixed order: gross
// admission, anti-bot snipe fee, reflection fee, liquidity fee, net
// admission, settlement. Fee amounts are computed first and only applied
// once every admission check has passed, so a rejected transfer mutates
// nothing.
type Pipeline struct {
	clock  clockwork.Clock
	log    *slog.Logger
	book   Book
	ledger RewardSink
	policy Policy

	params Params

	pair     solana.PublicKey
	feeVault solana.PublicKey
	liqVault solana.PublicKey

	tradingEnabled bool
	launchTime     time.Time

	sellCount map[solana.PublicKey]uint64
	lastTx    map[solana.PublicKey]time.Time

	swapper *Swapper
	onSnipe func()
}

func NewPipeline(book Book, ledger RewardSink, policy Policy, ex Exchange, clock clockwork.Clock, log *slog.Logger, pair, feeVault, liqVault solana.PublicKey, params Params) *Pipeline {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Pipeline{
		clock:     clock,
		log:       log,
		book:      book,
		ledger:    ledger,
		policy:    policy,
		params:    params,
		pair:      pair,
		feeVault:  feeVault,
		liqVault:  liqVault,
		sellCount: make(map[solana.PublicKey]uint64),
		lastTx:    make(map[solana.PublicKey]time.Time),
	}
	p.swapper = NewSwapper(ex, ledger, book, clock, log, feeVault, pair, params.SwapThreshold, params.SwapCooldown, params.SlippageBps)
	return p
}

// EnableTrading opens the pipeline to non-exempt accounts and starts the
// anti-bot window.
func (p *Pipeline) EnableTrading() {
	if p.tradingEnabled {
		return
	}
	p.tradingEnabled = true
	p.launchTime = p.clock.Now()
	p.log.Info("trading enabled", "launch", p.launchTime)
}

func (p *Pipeline) TradingEnabled() bool {
	return p.tradingEnabled
}

// plan holds the fee amounts computed for one transfer before settlement.
type plan struct {
	gross      *big.Int
	snipeFee   *big.Int
	reflectFee *big.Int
	liqFee     *big.Int
	net        *big.Int

	countSell bool
	sniped    bool
	recordTx  bool
}

// Transfer runs the full stage sequence for one value transfer.
func (p *Pipeline) Transfer(from, to solana.PublicKey, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return shared.ErrParamOutOfRange
	}
	pl, err := p.admit(from, to, amount)
	if err != nil {
		return err
	}
	return p.settle(from, to, pl)
}

// admit runs stages 1 through 7 without touching any state.
func (p *Pipeline) admit(from, to solana.PublicKey, amount *big.Int) (*plan, error) {
	now := p.clock.Now()

	// Stage 1: gross-amount admission.
	if !p.tradingEnabled {
		if !p.policy.Has(from, shared.CapTradeBeforeLaunch) && !p.policy.Has(to, shared.CapTradeBeforeLaunch) {
			return nil, shared.ErrTradingDisabled
		}
	}
	if !p.policy.Has(from, shared.CapLimitExempt) && amount.Cmp(p.params.MaxTxAmount) > 0 {
		return nil, shared.ErrGrossLimitExceeded
	}
	if p.book.BalanceOf(from).Cmp(amount) < 0 {
		return nil, shared.ErrInsufficientBalance
	}

	pl := &plan{
		gross:      new(big.Int).Set(amount),
		snipeFee:   big.NewInt(0),
		reflectFee: big.NewInt(0),
		liqFee:     big.NewInt(0),
	}
	remaining := new(big.Int).Set(amount)

	// Stage 2: anti-bot snipe fee on sells inside the launch window.
	if p.tradingEnabled && to == p.pair && now.Before(p.launchTime.Add(p.params.AntiBotWindow)) {
		pl.countSell = true
		threshold, err := math.BpsOf(p.params.MaxTxAmount, p.params.SnipeThresholdBps, shared.RoundingDown)
		if err != nil {
			return nil, err
		}
		if amount.Cmp(threshold) > 0 || p.sellCount[from]+1 > p.params.MaxSellsPerWindow {
			fee, err := math.BpsOf(remaining, p.params.SnipeFeeBps, shared.RoundingDown)
			if err != nil {
				return nil, err
			}
			if fee.Cmp(remaining) >= 0 {
				return nil, shared.ErrSnipeFeeExceedsAmount
			}
			pl.snipeFee = fee
			pl.sniped = true
			remaining.Sub(remaining, fee)
		}
	}

	// Stage 3: zero-amount short-circuit settles a bookkeeping-only
	// transfer with no fees and no net-amount checks.
	if remaining.Sign() == 0 {
		pl.net = remaining
		return pl, nil
	}

	// Stage 4: fee exemption skips the reflection and liquidity stages.
	feeExempt := p.policy.Has(from, shared.CapFeeExempt) || p.policy.Has(to, shared.CapFeeExempt)

	if !feeExempt {
		// Stage 5: reflection fee, never rounded down to zero.
		if p.params.ReflectionFeeBps > 0 {
			fee, err := math.BpsOf(remaining, p.params.ReflectionFeeBps, shared.RoundingDown)
			if err != nil {
				return nil, err
			}
			if fee.Sign() == 0 {
				fee = big.NewInt(1)
			}
			pl.reflectFee = fee
			remaining.Sub(remaining, fee)
		}

		// Stage 6: liquidity fee on the already-reduced amount.
		if p.params.LiquidityFeeBps > 0 {
			fee, err := math.BpsOf(remaining, p.params.LiquidityFeeBps, shared.RoundingDown)
			if err != nil {
				return nil, err
			}
			pl.liqFee = fee
			remaining.Sub(remaining, fee)
		}
	}
	pl.net = remaining

	// Stage 7: net-amount admission.
	if !p.policy.Has(to, shared.CapLimitExempt) {
		next := math.Add(p.book.BalanceOf(to), remaining)
		if next.Cmp(p.params.MaxWalletAmount) > 0 {
			return nil, shared.ErrWalletLimitExceeded
		}
	}
	if to == p.pair && !p.policy.Has(from, shared.CapLimitExempt) {
		if last, ok := p.lastTx[from]; ok && now.Before(last.Add(p.params.TxDelay)) {
			return nil, shared.ErrCooldownActive
		}
		pl.recordTx = true
	}
	return pl, nil
}

// settle applies the planned balance deltas, notifies the reward ledger for
// every touched account, and finally gives the fee swapper a chance to
// convert the accumulated reflection fees.
func (p *Pipeline) settle(from, to solana.PublicKey, pl *plan) error {
	now := p.clock.Now()

	if pl.countSell {
		p.sellCount[from]++
	}
	if pl.sniped {
		p.log.Warn("snipe fee applied", "seller", from, "gross", pl.gross, "fee", pl.snipeFee, "sells", p.sellCount[from])
		if p.onSnipe != nil {
			p.onSnipe()
		}
	}
	if pl.recordTx {
		p.lastTx[from] = now
	}

	contractFees := math.Add(pl.snipeFee, pl.reflectFee)
	if contractFees.Sign() > 0 {
		if err := p.book.Move(from, p.feeVault, contractFees); err != nil {
			return err
		}
	}
	if pl.liqFee.Sign() > 0 {
		if err := p.book.Move(from, p.liqVault, pl.liqFee); err != nil {
			return err
		}
	}
	if err := p.book.Move(from, to, pl.net); err != nil {
		return err
	}

	for _, addr := range []solana.PublicKey{from, to, p.feeVault, p.liqVault} {
		if err := p.ledger.UpdateBalance(addr, p.book.BalanceOf(addr)); err != nil {
			return err
		}
	}

	// The swap converts the fee vault balance accumulated so far, including
	// this transfer's reflection fee. A failed attempt is logged and retried
	// on a later transfer; it does not unwind the settled transfer.
	if pl.reflectFee.Sign() > 0 {
		if err := p.swapper.MaybeSwap(); err != nil {
			p.log.Error("fee swap failed", "err", err)
		}
	}
	return nil
}

// SellCount reports the lifetime sell counter used by the anti-bot stage.
func (p *Pipeline) SellCount(addr solana.PublicKey) uint64 {
	return p.sellCount[addr]
}

// Swapper exposes the throttled fee converter, mainly for the admin surface.
func (p *Pipeline) Swapper() *Swapper {
	return p.swapper
}

// OnSnipe registers a callback invoked each time the anti-bot fee is applied.
func (p *Pipeline) OnSnipe(fn func()) {
	p.onSnipe = fn
}

func (p *Pipeline) SetReflectionFeeBps(v int64) error {
	if v < 0 || v > shared.MaxFeeBps {
		return shared.ErrParamOutOfRange
	}
	p.params.ReflectionFeeBps = v
	return nil
}

func (p *Pipeline) SetLiquidityFeeBps(v int64) error {
	if v < 0 || v > shared.MaxFeeBps {
		return shared.ErrParamOutOfRange
	}
	p.params.LiquidityFeeBps = v
	return nil
}

func (p *Pipeline) SetSnipeFeeBps(v int64) error {
	if v < 0 || v > shared.MaxSnipeFeeBps {
		return shared.ErrParamOutOfRange
	}
	p.params.SnipeFeeBps = v
	return nil
}

func (p *Pipeline) SetMaxTxAmount(v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return shared.ErrParamOutOfRange
	}
	p.params.MaxTxAmount = new(big.Int).Set(v)
	return nil
}

func (p *Pipeline) SetMaxWalletAmount(v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return shared.ErrParamOutOfRange
	}
	p.params.MaxWalletAmount = new(big.Int).Set(v)
	return nil
}

func (p *Pipeline) SetTxDelay(d time.Duration) error {
	if d < 0 || d > shared.MaxTxDelaySeconds*time.Second {
		return shared.ErrParamOutOfRange
	}
	p.params.TxDelay = d
	return nil
}
