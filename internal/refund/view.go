package refund

import (
	"context"

	"courtbook/internal/ledger"
	"courtbook/internal/logger"
	"courtbook/internal/projection"
)

// View exposes the refundable balance per requester. The projection's
// number is an optimistic cache derived from cancellation events; the
// ledger's number is ground truth and wins whenever they disagree.
type View struct {
	index   *projection.Index
	backend ledger.Backend
}

func NewView(index *projection.Index, backend ledger.Backend) *View {
	return &View{index: index, backend: backend}
}

// Amount is the locally derived refundable balance: zero for anyone
// with no cancellations, reset to zero once the ledger confirms a
// refund. It never decrements speculatively.
func (v *View) Amount(requester string) int64 {
	return v.index.Refundable(requester)
}

// VerifiedAmount asks the ledger and reports drift against the local
// view. Drift means the feed is lagging, not that either side is wrong.
func (v *View) VerifiedAmount(ctx context.Context, requester string) (int64, error) {
	authoritative, err := v.backend.RefundableAmount(ctx, requester)
	if err != nil {
		return 0, err
	}
	if local := v.index.Refundable(requester); local != authoritative {
		logger.Infof("refundable drift for %s: local=%d ledger=%d", requester, local, authoritative)
	}
	return authoritative, nil
}

// Issue pays out the requester's whole refundable pot through the
// ledger. The local view resets when the refund_issued event folds in.
func (v *View) Issue(ctx context.Context, requester string) (int64, error) {
	return v.backend.IssueRefund(ctx, requester)
}
