package sponsor

// SponsoredUserRecord tracks the one-shot sponsorship state for a user. The
// Sponsored flag transitions false to true exactly once; no operation resets
// it.
type SponsoredUserRecord struct {
	User        [20]byte `json:"user"`
	Sponsored   bool     `json:"sponsored"`
	SponsoredAt uint64   `json:"sponsoredAt"`
	Amount      uint64   `json:"amount"`
}

// Clone returns a copy of the record.
func (r *SponsoredUserRecord) Clone() *SponsoredUserRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}
