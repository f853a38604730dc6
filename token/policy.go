package token

import (
	"github.com/gagliardetto/solana-go"

	"github.com/reflektlabs/reflekt-go/shared"
)

// AccessPolicy holds per-principal capability flags. There is no ambient
// authorization: every privileged call names its caller and the capability
// it needs.
type AccessPolicy struct {
	caps map[solana.PublicKey]shared.Capability
}

func NewAccessPolicy(admin solana.PublicKey) *AccessPolicy {
	p := &AccessPolicy{caps: make(map[solana.PublicKey]shared.Capability)}
	p.Grant(admin, shared.CapAdmin|shared.CapFeeExempt|shared.CapLimitExempt|shared.CapTradeBeforeLaunch)
	return p
}

func (p *AccessPolicy) Grant(principal solana.PublicKey, cap shared.Capability) {
	p.caps[principal] |= cap
}

func (p *AccessPolicy) Revoke(principal solana.PublicKey, cap shared.Capability) {
	p.caps[principal] &^= cap
}

func (p *AccessPolicy) Has(principal solana.PublicKey, cap shared.Capability) bool {
	return p.caps[principal]&cap != 0
}

// RequireAdmin gates the admin surface.
func (p *AccessPolicy) RequireAdmin(principal solana.PublicKey) error {
	if !p.Has(principal, shared.CapAdmin) {
		return shared.ErrUnauthorized
	}
	return nil
}
