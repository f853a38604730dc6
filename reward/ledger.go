package reward

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

// Payer moves reward currency out of the distributor to a holder. It is the
// external half of a claim; the ledger commits its bookkeeping first and
// rolls it back if Pay fails.
type Payer interface {
	Pay(account solana.PublicKey, amount *big.Int) error
}

// SupplySource reports the dividend-bearing total supply at deposit time.
type SupplySource func() *big.Int

type Params struct {
	MinEligibleBalance *big.Int
	MinPayout          *big.Int
	ClaimCooldown      time.Duration
}

type account struct {
	balance    *big.Int
	correction *big.Int
	withdrawn  *big.Int
	lastClaim  time.Time
	excluded   bool
}

// Ledger implements magnified cumulative-per-share dividend accounting.
// Deposits advance a single global accumulator; each balance change costs one
// O(1) correction-term update, so no operation ever iterates the holder set.
//
// The ledger is not goroutine safe. The host executes operations in a total
// order; callers running it concurrently must hold their own lock.
type Ledger struct {
	clock  clockwork.Clock
	log    *slog.Logger
	supply SupplySource
	payer  Payer

	perShare       *big.Int
	totalDeposited *big.Int

	accounts map[solana.PublicKey]*account
	registry *Registry
	cursor   int

	minEligibleBalance *big.Int
	minPayout          *big.Int
	claimCooldown      time.Duration

	paying        bool
	lastSweepPaid bool
}

func NewLedger(supply SupplySource, payer Payer, clock clockwork.Clock, log *slog.Logger, params Params) *Ledger {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	minBalance := params.MinEligibleBalance
	if minBalance == nil {
		minBalance = big.NewInt(1)
	}
	minPayout := params.MinPayout
	if minPayout == nil {
		minPayout = big.NewInt(1)
	}
	return &Ledger{
		clock:              clock,
		log:                log,
		supply:             supply,
		payer:              payer,
		perShare:           big.NewInt(0),
		totalDeposited:     big.NewInt(0),
		accounts:           make(map[solana.PublicKey]*account),
		registry:           NewRegistry(),
		minEligibleBalance: minBalance,
		minPayout:          minPayout,
		claimCooldown:      params.ClaimCooldown,
	}
}

func (l *Ledger) getAccount(addr solana.PublicKey) *account {
	acc, ok := l.accounts[addr]
	if !ok {
		acc = &account{
			balance:    big.NewInt(0),
			correction: big.NewInt(0),
			withdrawn:  big.NewInt(0),
		}
		l.accounts[addr] = acc
	}
	return acc
}

// Deposit distributes amount across all current holders by advancing the
// magnified per-share accumulator. With zero total supply the funds are
// dropped: nothing is credited and totalDeposited does not move. That
// mirrors the source system, where such deposits strand in the distributor.
func (l *Ledger) Deposit(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("deposit amount must be positive")
	}
	supply := l.supply()
	if supply.Sign() == 0 {
		l.log.Debug("deposit dropped, zero dividend supply", "amount", amount)
		return nil
	}
	increment, err := math.Div(math.Shl(amount, shared.MagnitudeBits), supply)
	if err != nil {
		return err
	}
	l.perShare = math.Add(l.perShare, increment)
	l.totalDeposited = math.Add(l.totalDeposited, amount)
	l.log.Debug("reward deposited", "amount", amount, "total", l.totalDeposited)
	return nil
}

// AccumulativeReward is the lifetime reward the account has earned, claimed
// or not. Excluded accounts always read zero.
func (l *Ledger) AccumulativeReward(addr solana.PublicKey) (*big.Int, error) {
	acc, ok := l.accounts[addr]
	if !ok {
		return big.NewInt(0), nil
	}
	return l.accumulative(acc)
}

func (l *Ledger) accumulative(acc *account) (*big.Int, error) {
	if acc.excluded {
		return big.NewInt(0), nil
	}
	signed, err := math.CheckedSignedMul(acc.balance, l.perShare)
	if err != nil {
		return nil, err
	}
	signed.Add(signed, acc.correction)
	if signed.Sign() < 0 {
		return nil, shared.ErrArithmeticInvariant
	}
	return signed.Rsh(signed, shared.MagnitudeBits), nil
}

// Withdrawable is the portion of AccumulativeReward not yet paid out.
func (l *Ledger) Withdrawable(addr solana.PublicKey) (*big.Int, error) {
	acc, ok := l.accounts[addr]
	if !ok {
		return big.NewInt(0), nil
	}
	return l.withdrawable(acc)
}

func (l *Ledger) withdrawable(acc *account) (*big.Int, error) {
	total, err := l.accumulative(acc)
	if err != nil {
		return nil, err
	}
	if acc.excluded {
		return big.NewInt(0), nil
	}
	return math.Sub(total, acc.withdrawn)
}

// Withdrawn reports the cumulative amount already paid to the account.
func (l *Ledger) Withdrawn(addr solana.PublicKey) *big.Int {
	acc, ok := l.accounts[addr]
	if !ok {
		return big.NewInt(0)
	}
	return new(big.Int).Set(acc.withdrawn)
}

// TotalDeposited reports the lifetime sum of all credited deposits.
func (l *Ledger) TotalDeposited() *big.Int {
	return new(big.Int).Set(l.totalDeposited)
}

// PerShare exposes the magnified accumulator for snapshot surfaces.
func (l *Ledger) PerShare() *big.Int {
	return new(big.Int).Set(l.perShare)
}

// UpdateBalance must be called once per observed balance change with the
// account's final balance. The correction term absorbs the balance delta so
// the change is reward-neutral: new holders start from zero accrual, and a
// holder's accrual is unchanged at the instant of any change, including
// re-entry after the tracked balance was pinned at zero.
func (l *Ledger) UpdateBalance(addr solana.PublicKey, newBalance *big.Int) error {
	acc := l.getAccount(addr)

	if acc.excluded {
		return l.zeroBalance(addr, acc)
	}

	if newBalance.Cmp(l.minEligibleBalance) >= 0 {
		oldPart, err := math.CheckedSignedMul(acc.balance, l.perShare)
		if err != nil {
			return err
		}
		newPart, err := math.CheckedSignedMul(newBalance, l.perShare)
		if err != nil {
			return err
		}
		diff := newPart.Sub(newPart, oldPart)
		acc.correction = new(big.Int).Sub(acc.correction, diff)
		if err := math.BoundSigned(acc.correction); err != nil {
			return err
		}
		acc.balance = new(big.Int).Set(newBalance)
		l.registry.Add(addr)
		return nil
	}

	return l.zeroBalance(addr, acc)
}

// zeroBalance pins the ledger balance at zero while keeping the account's
// accrual intact via the compensating correction.
func (l *Ledger) zeroBalance(addr solana.PublicKey, acc *account) error {
	if acc.balance.Sign() > 0 {
		comp, err := math.CheckedSignedMul(acc.balance, l.perShare)
		if err != nil {
			return err
		}
		acc.correction = new(big.Int).Add(acc.correction, comp)
		if err := math.BoundSigned(acc.correction); err != nil {
			return err
		}
		acc.balance = big.NewInt(0)
	}
	l.removeFromRegistry(addr)
	return nil
}

// removeFromRegistry drops the address from the eligible set and keeps the
// sweep cursor inside the shrunken bounds.
func (l *Ledger) removeFromRegistry(addr solana.PublicKey) {
	if !l.registry.Remove(addr) {
		return
	}
	if n := l.registry.Len(); n == 0 || l.cursor >= n {
		l.cursor = 0
	}
}

// SetExcluded flips reward exclusion for the account. Excluding zeroes the
// tracked balance; re-including only clears the flag, so the owner must
// follow up with UpdateBalance to restore the account's live balance.
func (l *Ledger) SetExcluded(addr solana.PublicKey, excluded bool) error {
	acc := l.getAccount(addr)
	if acc.excluded == excluded {
		return nil
	}
	if excluded {
		acc.excluded = true
		return l.zeroBalance(addr, acc)
	}
	acc.excluded = false
	return nil
}

// IsExcluded reports whether the account is excluded from rewards.
func (l *Ledger) IsExcluded(addr solana.PublicKey) bool {
	acc, ok := l.accounts[addr]
	return ok && acc.excluded
}

// Claim pays the account its full withdrawable amount. Bookkeeping commits
// before the external transfer and is rolled back if the transfer fails, so
// the claim is atomic from the caller's point of view.
func (l *Ledger) Claim(addr solana.PublicKey, automatic bool) (*big.Int, error) {
	if l.paying {
		return nil, shared.ErrReentrantCall
	}
	l.paying = true
	defer func() { l.paying = false }()

	acc := l.getAccount(addr)
	if acc.excluded {
		return nil, shared.ErrExcluded
	}
	now := l.clock.Now()
	if !acc.lastClaim.IsZero() && now.Sub(acc.lastClaim) < l.claimCooldown {
		return nil, shared.ErrClaimCooldownActive
	}
	amount, err := l.withdrawable(acc)
	if err != nil {
		return nil, err
	}
	if amount.Cmp(l.minPayout) < 0 {
		return nil, shared.ErrBelowMinimumPayout
	}

	prevWithdrawn := acc.withdrawn
	prevClaim := acc.lastClaim
	acc.withdrawn = math.Add(acc.withdrawn, amount)
	acc.lastClaim = now

	if err := l.payer.Pay(addr, amount); err != nil {
		acc.withdrawn = prevWithdrawn
		acc.lastClaim = prevClaim
		return nil, fmt.Errorf("%w: %v", shared.ErrPayoutTransferFailed, err)
	}
	l.log.Debug("reward claimed", "account", addr, "amount", amount, "automatic", automatic)
	return amount, nil
}

// SetMinEligibleBalance tunes the eligibility threshold. Existing registry
// membership is re-evaluated lazily at each account's next balance update.
func (l *Ledger) SetMinEligibleBalance(v *big.Int) error {
	if v == nil || v.Sign() <= 0 {
		return shared.ErrParamOutOfRange
	}
	l.minEligibleBalance = new(big.Int).Set(v)
	return nil
}

func (l *Ledger) SetMinPayout(v *big.Int) error {
	if v == nil || v.Sign() < 0 {
		return shared.ErrParamOutOfRange
	}
	l.minPayout = new(big.Int).Set(v)
	return nil
}

func (l *Ledger) SetClaimCooldown(d time.Duration) error {
	if d < 0 || d > shared.MaxClaimCooldownSeconds*time.Second {
		return shared.ErrParamOutOfRange
	}
	l.claimCooldown = d
	return nil
}

// EligibleCount reports the current automatic-sweep candidate count.
func (l *Ledger) EligibleCount() int {
	return l.registry.Len()
}
