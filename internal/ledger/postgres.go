package ledger

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"courtbook/internal/slot"
)

// Postgres is the ledger backend. The events table is append-only; the
// bookings and accounts tables are the transactional state that decides
// races before an event is ever emitted.
type Postgres struct {
	db      *sqlx.DB
	pricing slot.Pricing
}

func NewPostgres(db *sqlx.DB, pricing slot.Pricing) *Postgres {
	return &Postgres{db: db, pricing: pricing}
}

func (p *Postgres) SubmitBooking(ctx context.Context, requester string, iv slot.Interval, facility string, fee int64, waiveFee bool) (*Event, error) {
	want := p.pricing.Fee(iv)
	if waiveFee {
		want = 0
	}
	if fee != want {
		return nil, ErrFeeMismatch
	}

	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}
	defer tx.Rollback()

	// The pot row lock serializes all bookings on one facility, so the
	// conflict check below cannot race a concurrent insert.
	if err := lockPot(ctx, tx, facility); err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}

	var taken bool
	err = tx.GetContext(ctx, &taken, `
		SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE facility = $1 AND status = 'booked'
			  AND start_time < $2 AND end_time > $3
		)
	`, facility, iv.End, iv.Start)
	if err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}
	if taken {
		return nil, NewSubmissionError(ReasonSlotTaken, nil)
	}

	if !waiveFee {
		if err := debitAccount(ctx, tx, requester, fee); err != nil {
			return nil, err
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE facility_pots SET pot_cents = pot_cents + $1 WHERE facility = $2
		`, fee, facility)
		if err != nil {
			return nil, NewSubmissionError(ReasonUnavailable, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO bookings (requester, facility, start_time, end_time, fee_cents, status)
		VALUES ($1, $2, $3, $4, $5, 'booked')
	`, requester, facility, iv.Start, iv.End, fee)
	if err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}

	event, err := appendEvent(ctx, tx, KindBookingCreated, requester, facility, iv, fee)
	if err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}
	return event, nil
}

func (p *Postgres) SubmitCancellation(ctx context.Context, requester string, iv slot.Interval, facility string) (*Event, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}
	defer tx.Rollback()

	if err := lockPot(ctx, tx, facility); err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}

	// Cancellation is by value: any booked interval of this requester
	// overlapping the given one goes, same as the on-chain original.
	var fees []int64
	err = tx.SelectContext(ctx, &fees, `
		UPDATE bookings SET status = 'cancelled'
		WHERE requester = $1 AND facility = $2 AND status = 'booked'
		  AND start_time < $3 AND end_time > $4
		RETURNING fee_cents
	`, requester, facility, iv.End, iv.Start)
	if err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}
	if len(fees) == 0 {
		return nil, NewSubmissionError(ReasonBookingNotFound, nil)
	}

	var refund int64
	for _, f := range fees {
		refund += f
	}
	if refund > 0 {
		if err := creditRefundable(ctx, tx, requester, refund); err != nil {
			return nil, NewSubmissionError(ReasonUnavailable, err)
		}
	}

	event, err := appendEvent(ctx, tx, KindBookingCancelled, requester, facility, iv, 0)
	if err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, NewSubmissionError(ReasonUnavailable, err)
	}
	return event, nil
}

func (p *Postgres) EventsSince(ctx context.Context, after int64) ([]Event, error) {
	var rows []eventRow
	err := p.db.SelectContext(ctx, &rows, `
		SELECT id, kind, requester, facility, start_time, end_time, fee_paid, created_at
		FROM facility_events
		WHERE id > $1
		ORDER BY id ASC
	`, after)
	if err != nil {
		return nil, err
	}

	events := make([]Event, 0, len(rows))
	for _, r := range rows {
		events = append(events, r.toEvent())
	}
	return events, nil
}

func (p *Postgres) RefundableAmount(ctx context.Context, requester string) (int64, error) {
	var amount int64
	err := p.db.GetContext(ctx, &amount, `
		SELECT refundable_cents FROM accounts WHERE address = $1
	`, requester)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return amount, err
}

func (p *Postgres) IssueRefund(ctx context.Context, requester string) (int64, error) {
	tx, err := p.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var acct struct {
		Balance    int64 `db:"balance_cents"`
		Refundable int64 `db:"refundable_cents"`
	}
	err = tx.GetContext(ctx, &acct, `
		SELECT balance_cents, refundable_cents FROM accounts
		WHERE address = $1 FOR UPDATE
	`, requester)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if acct.Refundable == 0 {
		return 0, nil
	}

	amount := acct.Refundable
	_, err = tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance_cents = balance_cents + $1, refundable_cents = 0, updated_at = NOW()
		WHERE address = $2
	`, amount, requester)
	if err != nil {
		return 0, err
	}

	// The refunded money leaves the facility pot.
	_, err = tx.ExecContext(ctx, `
		UPDATE facility_pots SET pot_cents = pot_cents - $1
	`, amount)
	if err != nil {
		return 0, err
	}

	if _, err := appendEvent(ctx, tx, KindRefundIssued, requester, "", slot.Interval{}, amount); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return amount, nil
}

func (p *Postgres) CurrentBalance(ctx context.Context, facility string) (int64, error) {
	var pot int64
	err := p.db.GetContext(ctx, &pot, `
		SELECT pot_cents FROM facility_pots WHERE facility = $1
	`, facility)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return pot, err
}

func (p *Postgres) TopUp(ctx context.Context, requester string, amount int64) error {
	if amount <= 0 {
		return errors.New("top up amount must be positive")
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO accounts (address, balance_cents)
		VALUES ($1, $2)
		ON CONFLICT (address)
		DO UPDATE SET balance_cents = accounts.balance_cents + $2, updated_at = NOW()
	`, requester, amount)
	return err
}

func (p *Postgres) FundsBalance(ctx context.Context, requester string) (int64, error) {
	var balance int64
	err := p.db.GetContext(ctx, &balance, `
		SELECT balance_cents FROM accounts WHERE address = $1
	`, requester)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return balance, err
}

func lockPot(ctx context.Context, tx *sqlx.Tx, facility string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO facility_pots (facility, pot_cents)
		VALUES ($1, 0)
		ON CONFLICT (facility) DO NOTHING
	`, facility)
	if err != nil {
		return err
	}
	var pot int64
	return tx.GetContext(ctx, &pot, `
		SELECT pot_cents FROM facility_pots WHERE facility = $1 FOR UPDATE
	`, facility)
}

func debitAccount(ctx context.Context, tx *sqlx.Tx, requester string, fee int64) error {
	var balance int64
	err := tx.GetContext(ctx, &balance, `
		SELECT balance_cents FROM accounts WHERE address = $1 FOR UPDATE
	`, requester)
	if errors.Is(err, sql.ErrNoRows) {
		return NewSubmissionError(ReasonInsufficientFunds, nil)
	}
	if err != nil {
		return NewSubmissionError(ReasonUnavailable, err)
	}
	if balance < fee {
		return NewSubmissionError(ReasonInsufficientFunds, nil)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE accounts SET balance_cents = balance_cents - $1, updated_at = NOW()
		WHERE address = $2
	`, fee, requester)
	if err != nil {
		return NewSubmissionError(ReasonUnavailable, err)
	}
	return nil
}

func creditRefundable(ctx context.Context, tx *sqlx.Tx, requester string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts (address, refundable_cents)
		VALUES ($1, $2)
		ON CONFLICT (address)
		DO UPDATE SET refundable_cents = accounts.refundable_cents + $2, updated_at = NOW()
	`, requester, amount)
	return err
}

func appendEvent(ctx context.Context, tx *sqlx.Tx, kind EventKind, requester, facility string, iv slot.Interval, fee int64) (*Event, error) {
	var row eventRow
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO facility_events (kind, requester, facility, start_time, end_time, fee_paid)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, kind, requester, facility, start_time, end_time, fee_paid, created_at
	`, string(kind), requester, facility, iv.Start, iv.End, fee).StructScan(&row)
	if err != nil {
		return nil, err
	}
	event := row.toEvent()
	return &event, nil
}
