package reward

import (
	"github.com/gagliardetto/solana-go"
)

// Registry is the insertion-ordered index map backing the eligible set: a
// key slice for deterministic iteration plus an address→index map for O(1)
// membership. Removal swaps the victim with the last key so both operations
// stay O(1) and the sweep cursor stays meaningful.
type Registry struct {
	index map[solana.PublicKey]int
	keys  []solana.PublicKey
}

func NewRegistry() *Registry {
	return &Registry{index: make(map[solana.PublicKey]int)}
}

func (r *Registry) Add(addr solana.PublicKey) {
	if _, ok := r.index[addr]; ok {
		return
	}
	r.index[addr] = len(r.keys)
	r.keys = append(r.keys, addr)
}

func (r *Registry) Remove(addr solana.PublicKey) bool {
	i, ok := r.index[addr]
	if !ok {
		return false
	}
	last := len(r.keys) - 1
	if i != last {
		moved := r.keys[last]
		r.keys[i] = moved
		r.index[moved] = i
	}
	r.keys = r.keys[:last]
	delete(r.index, addr)
	return true
}

func (r *Registry) Contains(addr solana.PublicKey) bool {
	_, ok := r.index[addr]
	return ok
}

func (r *Registry) Len() int {
	return len(r.keys)
}

func (r *Registry) At(i int) solana.PublicKey {
	return r.keys[i]
}

// Keys returns a copy of the iteration order.
func (r *Registry) Keys() []solana.PublicKey {
	out := make([]solana.PublicKey, len(r.keys))
	copy(out, r.keys)
	return out
}
