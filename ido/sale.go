package ido

import (
	"io"
	"log/slog"
	"math/big"

	"github.com/gagliardetto/solana-go"
	"github.com/jonboulle/clockwork"

	"github.com/reflektlabs/reflekt-go/math"
	"github.com/reflektlabs/reflekt-go/shared"
)

// TokenBook is the slice of the settlement book the sale needs.
type TokenBook interface {
	BalanceOf(addr solana.PublicKey) *big.Int
	Move(from, to solana.PublicKey, amount *big.Int) error
}

// Bank moves the sale's quote currency (contributions, refunds, the
// finalize split). Supplied by the host environment.
type Bank interface {
	Transfer(from, to solana.PublicKey, amount *big.Int) error
}

// RewardSink receives balance-update notifications for purchasers.
type RewardSink interface {
	UpdateBalance(addr solana.PublicKey, newBalance *big.Int) error
}

type Params struct {
	Curve Curve

	SoftCap *big.Int
	HardCap *big.Int

	MinContribution *big.Int
	MaxContribution *big.Int

	// LiquidityShareBps of the raise goes to liquidity on success; the
	// remainder goes to the project wallet.
	LiquidityShareBps int64
}

type contributor struct {
	contributed *big.Int
	purchased   *big.Int
}

// Sale is the bootstrap intake funnel: bonding-curve priced contributions,
// soft/hard caps, and a one-way finalize-or-refund state machine.
type Sale struct {
	clock clockwork.Clock
	log   *slog.Logger

	book   TokenBook
	bank   Bank
	ledger RewardSink

	vault         solana.PublicKey
	escrow        solana.PublicKey
	liquidityDest solana.PublicKey
	projectDest   solana.PublicKey

	params Params

	state          shared.SaleState
	tokensSold     *big.Int
	currencyRaised *big.Int
	contributors   map[solana.PublicKey]*contributor
}

func NewSale(book TokenBook, bank Bank, ledger RewardSink, clock clockwork.Clock, log *slog.Logger, vault, escrow, liquidityDest, projectDest solana.PublicKey, params Params) *Sale {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Sale{
		clock:          clock,
		log:            log,
		book:           book,
		bank:           bank,
		ledger:         ledger,
		vault:          vault,
		escrow:         escrow,
		liquidityDest:  liquidityDest,
		projectDest:    projectDest,
		params:         params,
		state:          shared.SaleNotStarted,
		tokensSold:     big.NewInt(0),
		currencyRaised: big.NewInt(0),
		contributors:   make(map[solana.PublicKey]*contributor),
	}
}

func (s *Sale) State() shared.SaleState {
	return s.state
}

func (s *Sale) TokensSold() *big.Int {
	return new(big.Int).Set(s.tokensSold)
}

func (s *Sale) CurrencyRaised() *big.Int {
	return new(big.Int).Set(s.currencyRaised)
}

// CurrentPrice is the live step price of the bonding curve.
func (s *Sale) CurrentPrice() (*big.Int, error) {
	return s.params.Curve.PriceAt(s.tokensSold)
}

// Start opens the sale. One-way.
func (s *Sale) Start() error {
	if s.state != shared.SaleNotStarted {
		return shared.ErrAlreadyFinalized
	}
	s.state = shared.SaleActive
	s.log.Info("sale started", "soft_cap", s.params.SoftCap, "hard_cap", s.params.HardCap)
	return nil
}

// Contribute takes payment at the current curve price, enforces all limits
// and caps, delivers tokens, and notifies the dividend ledger.
func (s *Sale) Contribute(from solana.PublicKey, payment *big.Int) (*big.Int, error) {
	if s.state != shared.SaleActive {
		return nil, shared.ErrSaleNotActive
	}
	if payment == nil || payment.Cmp(s.params.MinContribution) < 0 {
		return nil, shared.ErrContributionTooSmall
	}
	rec := s.contributors[from]
	if rec == nil {
		rec = &contributor{contributed: big.NewInt(0), purchased: big.NewInt(0)}
	}
	if math.Add(rec.contributed, payment).Cmp(s.params.MaxContribution) > 0 {
		return nil, shared.ErrContributionCapExceeded
	}
	if math.Add(s.currencyRaised, payment).Cmp(s.params.HardCap) > 0 {
		return nil, shared.ErrHardCapExceeded
	}
	tokensOut, err := s.params.Curve.TokensFor(payment, s.tokensSold)
	if err != nil {
		return nil, err
	}
	if tokensOut.Sign() == 0 {
		return nil, shared.ErrContributionTooSmall
	}
	if s.book.BalanceOf(s.vault).Cmp(tokensOut) < 0 {
		return nil, shared.ErrSoldOut
	}

	if err := s.bank.Transfer(from, s.escrow, payment); err != nil {
		return nil, err
	}
	if err := s.book.Move(s.vault, from, tokensOut); err != nil {
		// Give the payment back; the token leg never happened.
		_ = s.bank.Transfer(s.escrow, from, payment)
		return nil, err
	}

	rec.contributed = math.Add(rec.contributed, payment)
	rec.purchased = math.Add(rec.purchased, tokensOut)
	s.contributors[from] = rec
	s.tokensSold = math.Add(s.tokensSold, tokensOut)
	s.currencyRaised = math.Add(s.currencyRaised, payment)

	for _, addr := range []solana.PublicKey{from, s.vault} {
		if err := s.ledger.UpdateBalance(addr, s.book.BalanceOf(addr)); err != nil {
			return nil, err
		}
	}
	s.log.Debug("contribution accepted", "from", from, "payment", payment, "tokens", tokensOut)
	return tokensOut, nil
}

// Finalize decides the sale's fate once: soft cap met distributes the raise
// between liquidity and the project wallet, otherwise refunds open. The
// decision is irreversible.
func (s *Sale) Finalize() error {
	if s.state != shared.SaleActive {
		if s.state == shared.SaleNotStarted {
			return shared.ErrSaleNotActive
		}
		return shared.ErrAlreadyFinalized
	}
	if s.currencyRaised.Cmp(s.params.SoftCap) >= 0 {
		liq, err := math.BpsOf(s.currencyRaised, s.params.LiquidityShareBps, shared.RoundingDown)
		if err != nil {
			return err
		}
		rest, err := math.Sub(s.currencyRaised, liq)
		if err != nil {
			return err
		}
		if err := s.bank.Transfer(s.escrow, s.liquidityDest, liq); err != nil {
			return err
		}
		if err := s.bank.Transfer(s.escrow, s.projectDest, rest); err != nil {
			return err
		}
		s.state = shared.SaleSucceeded
		s.log.Info("sale finalized", "raised", s.currencyRaised, "liquidity", liq, "project", rest)
		return nil
	}
	s.state = shared.SaleRefunding
	s.log.Info("sale finalized below soft cap, refunds enabled", "raised", s.currencyRaised)
	return nil
}

// ClaimRefund returns a contributor's full payment in exchange for the full
// purchased token balance. Partial refunds are not a thing: a contributor
// who moved any purchased tokens away cannot claim.
func (s *Sale) ClaimRefund(from solana.PublicKey) (*big.Int, error) {
	if s.state != shared.SaleRefunding {
		return nil, shared.ErrRefundNotAvailable
	}
	rec := s.contributors[from]
	if rec == nil || rec.contributed.Sign() == 0 {
		return nil, shared.ErrNoContributionFound
	}
	if s.book.BalanceOf(from).Cmp(rec.purchased) < 0 {
		return nil, shared.ErrRefundBalanceShort
	}

	purchased := rec.purchased
	contributed := rec.contributed
	rec.contributed = big.NewInt(0)
	rec.purchased = big.NewInt(0)

	if err := s.book.Move(from, s.vault, purchased); err != nil {
		rec.contributed = contributed
		rec.purchased = purchased
		return nil, err
	}
	if err := s.bank.Transfer(s.escrow, from, contributed); err != nil {
		// Unwind the token leg so the failed refund leaves no trace.
		_ = s.book.Move(s.vault, from, purchased)
		rec.contributed = contributed
		rec.purchased = purchased
		return nil, err
	}

	for _, addr := range []solana.PublicKey{from, s.vault} {
		if err := s.ledger.UpdateBalance(addr, s.book.BalanceOf(addr)); err != nil {
			return nil, err
		}
	}
	s.log.Debug("refund claimed", "from", from, "amount", contributed)
	return contributed, nil
}

// Contributed reports the live contribution record for an address.
func (s *Sale) Contributed(addr solana.PublicKey) (payment, tokens *big.Int) {
	rec := s.contributors[addr]
	if rec == nil {
		return big.NewInt(0), big.NewInt(0)
	}
	return new(big.Int).Set(rec.contributed), new(big.Int).Set(rec.purchased)
}
