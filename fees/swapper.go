package fees

import (
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/reflektlabs/reflekt-go/math"
	"github.com/reflektlabs/reflekt-go/shared"
)

// Exchange is the external swap collaborator. Quote estimates the reward
// currency received for amountIn fee tokens; SwapForCurrency executes the
// conversion and reports the realized amount.
type Exchange interface {
	Quote(amountIn *big.Int) (*big.Int, error)
	SwapForCurrency(amountIn, minOut *big.Int, recipient solana.PublicKey) (*big.Int, error)
}

// Swapper converts the accumulated fee-vault balance into reward currency
// and deposits the proceeds into the dividend ledger. Conversions are
// single-flight and cooldown gated.
type Swapper struct {
	ex     Exchange
	ledger RewardSink
	book   Book
	clock  clockwork.Clock
	log    *slog.Logger

	feeVault solana.PublicKey
	pair     solana.PublicKey

	threshold   *big.Int
	cooldown    time.Duration
	slippageBps int64

	inFlight bool
	lastSwap time.Time
	onSwap   func()
}

func NewSwapper(ex Exchange, ledger RewardSink, book Book, clock clockwork.Clock, log *slog.Logger, feeVault, pair solana.PublicKey, threshold *big.Int, cooldown time.Duration, slippageBps int64) *Swapper {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if threshold == nil {
		threshold = big.NewInt(0)
	}
	return &Swapper{
		ex:          ex,
		ledger:      ledger,
		book:        book,
		clock:       clock,
		log:         log,
		feeVault:    feeVault,
		pair:        pair,
		threshold:   threshold,
		cooldown:    cooldown,
		slippageBps: slippageBps,
	}
}

// MaybeSwap converts the fee vault balance if it has reached the threshold,
// no swap is in flight, and the cooldown since the last swap has elapsed.
// Returning nil with no side effect is the normal idle path.
func (s *Swapper) MaybeSwap() error {
	if s.inFlight {
		return nil
	}
	now := s.clock.Now()
	if !s.lastSwap.IsZero() && now.Sub(s.lastSwap) < s.cooldown {
		return nil
	}
	balance := s.book.BalanceOf(s.feeVault)
	if s.threshold.Sign() == 0 || balance.Cmp(s.threshold) < 0 {
		return nil
	}
	return s.swap(balance)
}

// ForceSwap converts the current vault balance regardless of threshold and
// cooldown. Admin surface only.
func (s *Swapper) ForceSwap() error {
	if s.inFlight {
		return shared.ErrSwapInFlight
	}
	balance := s.book.BalanceOf(s.feeVault)
	if balance.Sign() == 0 {
		return nil
	}
	return s.swap(balance)
}

func (s *Swapper) swap(amountIn *big.Int) error {
	s.inFlight = true
	defer func() { s.inFlight = false }()

	quoted, err := s.ex.Quote(amountIn)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrQuoteFailed, err)
	}
	minOut, err := math.BpsOf(quoted, shared.MaxBasisPoint-s.slippageBps, shared.RoundingDown)
	if err != nil {
		return err
	}
	out, err := s.ex.SwapForCurrency(amountIn, minOut, s.feeVault)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrSwapFailed, err)
	}

	// The exchange consumed the vault's fee tokens against the pair.
	if err := s.book.Move(s.feeVault, s.pair, amountIn); err != nil {
		return err
	}
	for _, addr := range []solana.PublicKey{s.feeVault, s.pair} {
		if err := s.ledger.UpdateBalance(addr, s.book.BalanceOf(addr)); err != nil {
			return err
		}
	}
	if err := s.ledger.Deposit(out); err != nil {
		return err
	}
	s.lastSwap = s.clock.Now()
	s.log.Info("fees swapped and deposited", "amount_in", amountIn, "amount_out", out)
	if s.onSwap != nil {
		s.onSwap()
	}
	return nil
}

// OnSwap registers a callback invoked after each completed conversion.
func (s *Swapper) OnSwap(fn func()) {
	s.onSwap = fn
}

func (s *Swapper) SetThreshold(v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return shared.ErrParamOutOfRange
	}
	s.threshold = new(big.Int).Set(v)
	return nil
}

func (s *Swapper) SetCooldown(d time.Duration) error {
	if d < 0 || d > shared.MaxSwapCooldownSeconds*time.Second {
		return shared.ErrParamOutOfRange
	}
	s.cooldown = d
	return nil
}

func (s *Swapper) SetSlippageBps(v int64) error {
	if v < 0 || v > shared.MaxSlippageBps {
		return shared.ErrParamOutOfRange
	}
	s.slippageBps = v
	return nil
}
