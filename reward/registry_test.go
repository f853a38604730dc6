package reward

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	a := solana.NewWallet().PublicKey()
	b := solana.NewWallet().PublicKey()
	c := solana.NewWallet().PublicKey()

	r.Add(a)
	r.Add(b)
	r.Add(c)
	r.Add(b) // duplicate add is a no-op
	require.Equal(t, 3, r.Len())
	require.True(t, r.Contains(b))

	// Removing the middle key swaps the last key into its slot.
	require.True(t, r.Remove(b))
	require.Equal(t, 2, r.Len())
	require.False(t, r.Contains(b))
	require.Equal(t, a, r.At(0))
	require.Equal(t, c, r.At(1))

	require.False(t, r.Remove(b))

	require.True(t, r.Remove(a))
	require.True(t, r.Remove(c))
	require.Equal(t, 0, r.Len())
}

func TestRegistryIterationOrderIsInsertionOrder(t *testing.T) {
	r := NewRegistry()
	keys := make([]solana.PublicKey, 5)
	for i := range keys {
		keys[i] = solana.NewWallet().PublicKey()
		r.Add(keys[i])
	}
	require.Equal(t, keys, r.Keys())
}
