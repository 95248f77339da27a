package slot

import "time"

// Pricing holds the fixed per-slot fee rule. Both the quote shown to a
// resident and the ledger's authoritative charge run through the same
// computation, so it must stay pure and integer-only: any divergence is
// rejected by the ledger as a fee mismatch.
type Pricing struct {
	Granularity time.Duration
	FeePerSlot  int64
}

// Fee charges one FeePerSlot per started granularity unit:
// ceil(duration / granularity) * feePerSlot.
func (p Pricing) Fee(iv Interval) int64 {
	d := iv.Duration()
	slots := int64(d / p.Granularity)
	if d%p.Granularity != 0 {
		slots++
	}
	return slots * p.FeePerSlot
}
