package reward

import (
	"errors"

	"github.com/gagliardetto/solana-go"

	"github.com/reflektlabs/reflekt-go/shared"
)

// SweepResult reports one bounded automatic-payout pass.
type SweepResult struct {
	Visited int
	Paid    int
	Cursor  int
}

// Sweep walks the eligible set round-robin from the persisted cursor, paying
// every account whose cooldown has elapsed and whose withdrawable amount
// meets the minimum payout. The cursor advances before each payout, so a
// failed transfer aborts the pass without losing the progress already made.
// One pass visits at most budget accounts and never revisits an account.
func (l *Ledger) Sweep(budget int) (SweepResult, error) {
	res := SweepResult{Cursor: l.cursor}
	size := l.registry.Len()
	if size == 0 || budget <= 0 {
		return res, nil
	}
	if budget > size {
		budget = size
	}
	if l.cursor >= size {
		l.cursor = 0
	}

	for res.Visited < budget {
		addr := l.registry.At(l.cursor)
		l.cursor = (l.cursor + 1) % l.registry.Len()
		res.Visited++

		if err := l.sweepOne(addr); err != nil {
			res.Cursor = l.cursor
			return res, err
		} else if l.lastSweepPaid {
			res.Paid++
		}

		// Paying can shrink the registry if the payout side effects drop a
		// holder below the minimum; re-clamp before the next read.
		if l.registry.Len() == 0 {
			break
		}
		if l.cursor >= l.registry.Len() {
			l.cursor = 0
		}
	}
	res.Cursor = l.cursor
	return res, nil
}

// sweepOne attempts one automatic claim, distinguishing "not payable right
// now" (skip) from a genuine payout failure (abort the sweep).
func (l *Ledger) sweepOne(addr solana.PublicKey) error {
	l.lastSweepPaid = false
	_, err := l.Claim(addr, true)
	switch {
	case err == nil:
		l.lastSweepPaid = true
		return nil
	case errors.Is(err, shared.ErrExcluded),
		errors.Is(err, shared.ErrClaimCooldownActive),
		errors.Is(err, shared.ErrBelowMinimumPayout):
		return nil
	default:
		return err
	}
}

// SweepCursor exposes the persisted resumption point.
func (l *Ledger) SweepCursor() int {
	return l.cursor
}
