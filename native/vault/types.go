package vault

import "math/big"

// State is the singleton treasury and governance record. It is created once
// at a fixed key and only mutated through the admin-gated operations or the
// two in-transaction accounting calls.
type State struct {
	VaultWallet       [20]byte `json:"vaultWallet"`
	Admin             [20]byte `json:"admin"`
	FeeBps            uint64   `json:"feeBps"`
	SponsorshipAmount uint64   `json:"sponsorshipAmount"`
	TotalCollected    *big.Int `json:"totalCollected"`
	TotalSponsored    *big.Int `json:"totalSponsored"`
	Initialized       bool     `json:"initialized"`
}

// Clone returns a deep copy of the vault state.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	clone := *s
	if s.TotalCollected != nil {
		clone.TotalCollected = new(big.Int).Set(s.TotalCollected)
	}
	if s.TotalSponsored != nil {
		clone.TotalSponsored = new(big.Int).Set(s.TotalSponsored)
	}
	return &clone
}
