package token

import (
	"math/big"

	"github.com/gagliardetto/solana-go"

	"github.com/reflektlabs/reflekt-go/math"
	"github.com/reflektlabs/reflekt-go/shared"
)

// Book is the fungible-token balance store. It owns balances and total
// supply; every mutation goes through Mint or Move so supply stays the sum
// of all balances.
type Book struct {
	balances    map[solana.PublicKey]*big.Int
	totalSupply *big.Int
}

func NewBook() *Book {
	return &Book{
		balances:    make(map[solana.PublicKey]*big.Int),
		totalSupply: big.NewInt(0),
	}
}

// Mint credits freshly created supply to addr. Genesis only; the engine
// never mints after construction.
func (b *Book) Mint(addr solana.PublicKey, amount *big.Int) {
	if amount.Sign() <= 0 {
		return
	}
	b.balances[addr] = math.Add(b.BalanceOf(addr), amount)
	b.totalSupply = math.Add(b.totalSupply, amount)
}

func (b *Book) BalanceOf(addr solana.PublicKey) *big.Int {
	if v, ok := b.balances[addr]; ok {
		return new(big.Int).Set(v)
	}
	return big.NewInt(0)
}

func (b *Book) TotalSupply() *big.Int {
	return new(big.Int).Set(b.totalSupply)
}

// Move applies a raw balance transfer with no fee logic.
func (b *Book) Move(from, to solana.PublicKey, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	if amount.Sign() < 0 {
		return shared.ErrParamOutOfRange
	}
	src := b.BalanceOf(from)
	if src.Cmp(amount) < 0 {
		return shared.ErrInsufficientBalance
	}
	b.balances[from] = src.Sub(src, amount)
	b.balances[to] = math.Add(b.BalanceOf(to), amount)
	return nil
}
