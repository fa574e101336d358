package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avishkar-events/registration-engine/internal/apperr"
	"github.com/avishkar-events/registration-engine/internal/model"
)

// RegistrationStore handles persistence for registrations.
//
// Every mutation that can change the active-registration count of an
// event runs inside a transaction that first acquires a row-level lock
// on the event with SELECT ... FOR UPDATE. Concurrent admissions for
// the same event serialize on that lock, so the duplicate check, the
// capacity check, and the insert always observe one consistent
// snapshot. A naive read-count-then-insert would let two requests both
// see a free slot and overshoot capacity.
type RegistrationStore struct {
	db *pgxpool.Pool
}

// NewRegistrationStore constructs a RegistrationStore.
func NewRegistrationStore(db *pgxpool.Pool) *RegistrationStore {
	return &RegistrationStore{db: db}
}

func (s *RegistrationStore) Admit(ctx context.Context, reg *model.Registration) (_ *model.Registration, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// Lock the event row. Capacity is re-derived from the
	// registration set under this lock rather than kept as a separate
	// counter that could drift.
	var slots *int
	err = tx.QueryRow(ctx,
		`SELECT slots FROM events WHERE id = $1 FOR UPDATE`,
		reg.EventID,
	).Scan(&slots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeEventNotFound, "event not found")
		}
		return nil, fmt.Errorf("lock event row: %w", err)
	}

	var dupCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND user_id = $2`,
		reg.EventID, reg.UserID,
	).Scan(&dupCount)
	if err != nil {
		return nil, fmt.Errorf("check duplicate: %w", err)
	}
	if dupCount > 0 {
		return nil, apperr.New(apperr.CodeDuplicateRegistration, "already registered for this event")
	}

	if slots != nil {
		var active int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status != 'rejected'`,
			reg.EventID,
		).Scan(&active)
		if err != nil {
			return nil, fmt.Errorf("count active registrations: %w", err)
		}
		if active >= *slots {
			return nil, apperr.New(apperr.CodeCapacityExceeded, "event is fully booked")
		}
	}

	stored := *reg
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO registrations (id, user_id, event_id, name, email, mobile, department,
		                            status, paper_status, payment_proof_handle, paper_handle, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		stored.ID, stored.UserID, stored.EventID, stored.Name, stored.Email, stored.Mobile,
		stored.Department, stored.Status, stored.PaperStatus, stored.PaymentProofHandle,
		stored.PaperHandle, stored.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &stored, nil
}

func (s *RegistrationStore) GetByID(ctx context.Context, id string) (*model.Registration, error) {
	reg, err := scanRegistration(s.db.QueryRow(ctx, selectRegistration+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeRegistrationNotFound, "registration not found")
		}
		return nil, fmt.Errorf("get registration: %w", err)
	}
	return reg, nil
}

func (s *RegistrationStore) ListByEvent(ctx context.Context, eventID string) ([]model.Registration, error) {
	return s.list(ctx, selectRegistration+` WHERE event_id = $1 ORDER BY created_at ASC`, eventID)
}

func (s *RegistrationStore) ListByUser(ctx context.Context, userID string) ([]model.Registration, error) {
	return s.list(ctx, selectRegistration+` WHERE user_id = $1 ORDER BY created_at ASC`, userID)
}

func (s *RegistrationStore) list(ctx context.Context, query string, arg any) ([]model.Registration, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

func (s *RegistrationStore) UpdateStatus(ctx context.Context, id string, target model.Status) (_ *model.Registration, changed bool, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	reg, err := lockRegistration(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if reg.Status == target {
		if err = tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("commit transaction: %w", err)
		}
		return reg, false, nil
	}
	if !reg.Status.CanTransitionTo(target) {
		return nil, false, apperr.Newf(apperr.CodeInvalidTransition,
			"cannot transition registration from %s to %s", reg.Status, target)
	}
	if !reg.Status.Active() && target.Active() {
		if err = checkCapacity(ctx, tx, reg.EventID); err != nil {
			return nil, false, err
		}
	}

	_, err = tx.Exec(ctx, `UPDATE registrations SET status = $2 WHERE id = $1`, id, target)
	if err != nil {
		return nil, false, fmt.Errorf("update status: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}
	reg.Status = target
	return reg, true, nil
}

func (s *RegistrationStore) UpdatePaperStatus(ctx context.Context, id string, target model.PaperStatus) (_ *model.Registration, changed bool, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	reg, err := lockRegistration(ctx, tx, id)
	if err != nil {
		return nil, false, err
	}
	if reg.PaperStatus == target {
		if err = tx.Commit(ctx); err != nil {
			return nil, false, fmt.Errorf("commit transaction: %w", err)
		}
		return reg, false, nil
	}
	if !reg.PaperStatus.CanTransitionTo(target) {
		return nil, false, apperr.Newf(apperr.CodeInvalidTransition,
			"cannot transition paper review from %s to %s", reg.PaperStatus, target)
	}

	_, err = tx.Exec(ctx, `UPDATE registrations SET paper_status = $2 WHERE id = $1`, id, target)
	if err != nil {
		return nil, false, fmt.Errorf("update paper status: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit transaction: %w", err)
	}
	reg.PaperStatus = target
	return reg, true, nil
}

func (s *RegistrationStore) UpdatePaymentProof(ctx context.Context, id, handle string) (_ *model.Registration, err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	reg, err := lockRegistration(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !reg.Status.Active() {
		if err = checkCapacity(ctx, tx, reg.EventID); err != nil {
			return nil, err
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE registrations SET payment_proof_handle = $2, status = 'pending' WHERE id = $1`,
		id, handle,
	)
	if err != nil {
		return nil, fmt.Errorf("update payment proof: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	reg.PaymentProofHandle = handle
	reg.Status = model.StatusPending
	return reg, nil
}

// lockRegistration loads a registration under FOR UPDATE so the
// transition decision and the write happen on one snapshot.
func lockRegistration(ctx context.Context, tx pgx.Tx, id string) (*model.Registration, error) {
	reg, err := scanRegistration(tx.QueryRow(ctx, selectRegistration+` WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.New(apperr.CodeRegistrationNotFound, "registration not found")
		}
		return nil, fmt.Errorf("lock registration row: %w", err)
	}
	return reg, nil
}

// checkCapacity re-validates event capacity before a rejected
// registration turns active again. Locks the event row to serialize
// with Admit.
func checkCapacity(ctx context.Context, tx pgx.Tx, eventID string) error {
	var slots *int
	err := tx.QueryRow(ctx, `SELECT slots FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&slots)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.New(apperr.CodeEventNotFound, "event not found")
		}
		return fmt.Errorf("lock event row: %w", err)
	}
	if slots == nil {
		return nil
	}
	var active int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status != 'rejected'`,
		eventID,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("count active registrations: %w", err)
	}
	if active >= *slots {
		return apperr.New(apperr.CodeCapacityExceeded, "event is fully booked")
	}
	return nil
}

const selectRegistration = `SELECT id, user_id, event_id, name, email, mobile, department,
                                   status, paper_status, payment_proof_handle, paper_handle, created_at
                            FROM registrations`

func scanRegistration(row pgx.Row) (*model.Registration, error) {
	var r model.Registration
	err := row.Scan(&r.ID, &r.UserID, &r.EventID, &r.Name, &r.Email, &r.Mobile,
		&r.Department, &r.Status, &r.PaperStatus, &r.PaymentProofHandle,
		&r.PaperHandle, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
