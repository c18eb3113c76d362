package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/courtly/courtly/internal/models"
)

const reservationColumns = `id, court_id, date, start_min, end_min, user_id,
	price_cents, status, hold_expires_at, payment_ref, release_cause, created_at`

// CreateReservation inserts a reservation and sets its id and creation
// timestamp.
func (db *DB) CreateReservation(ctx context.Context, r *models.Reservation) error {
	now := time.Now().UTC()
	result, err := db.q.ExecContext(ctx, `
		INSERT INTO reservations (court_id, date, start_min, end_min, user_id,
		                          price_cents, status, hold_expires_at, payment_ref,
		                          release_cause, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CourtID, r.Date, r.StartMin, r.EndMin, r.UserID,
		r.PriceCents, string(r.Status), r.HoldExpiresAt, nullString(r.PaymentRef),
		r.ReleaseCause, now,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	r.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reservation id: %w", err)
	}
	r.CreatedAt = now
	return nil
}

// GetReservation returns a reservation by id.
func (db *DB) GetReservation(ctx context.Context, id int64) (*models.Reservation, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	return scanReservation(row)
}

// GetReservationByPaymentRef returns the reservation bound to a payment
// reference.
func (db *DB) GetReservationByPaymentRef(ctx context.Context, ref string) (*models.Reservation, error) {
	row := db.q.QueryRowContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE payment_ref = ?`, ref)
	return scanReservation(row)
}

// FindOverlapping returns the first blocking reservation on (court, date)
// that overlaps the half-open interval [startMin, endMin). Blocking means
// confirmed, or pending with an unexpired hold; expired pending rows read
// as free even before the sweeper releases them.
func (db *DB) FindOverlapping(ctx context.Context, courtID int64, date string, startMin, endMin int, now time.Time) (*models.Reservation, error) {
	row := db.q.QueryRowContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE court_id = ? AND date = ?
		  AND start_min < ? AND ? < end_min
		  AND (status = 'confirmed' OR (status = 'pending' AND hold_expires_at > ?))
		ORDER BY start_min
		LIMIT 1`,
		courtID, date, endMin, startMin, now.UTC(),
	)
	r, err := scanReservation(row)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return r, err
}

// ListBlocking returns every blocking reservation for (court, date),
// ordered by start time.
func (db *DB) ListBlocking(ctx context.Context, courtID int64, date string, now time.Time) ([]models.Reservation, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT `+reservationColumns+`
		FROM reservations
		WHERE court_id = ? AND date = ?
		  AND (status = 'confirmed' OR (status = 'pending' AND hold_expires_at > ?))
		ORDER BY start_min`,
		courtID, date, now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list blocking reservations: %w", err)
	}
	defer rows.Close()

	var out []models.Reservation
	for rows.Next() {
		r, err := scanReservationRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// ConfirmReservation is the guarded pending -> confirmed transition. It
// only fires on a pending row whose hold is still live, stamping the
// payment reference. The returned count is 0 when the guard rejected the
// update.
func (db *DB) ConfirmReservation(ctx context.Context, id int64, paymentRef string, now time.Time) (int64, error) {
	result, err := db.q.ExecContext(ctx, `
		UPDATE reservations
		SET status = 'confirmed', hold_expires_at = NULL, payment_ref = ?
		WHERE id = ? AND status = 'pending' AND hold_expires_at > ?`,
		paymentRef, id, now.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("confirm reservation %d: %w", id, err)
	}
	return result.RowsAffected()
}

// ReleaseReservation is the guarded pending -> released transition,
// recording the cause. Expired holds release like any other pending row.
func (db *DB) ReleaseReservation(ctx context.Context, id int64, cause string) (int64, error) {
	result, err := db.q.ExecContext(ctx, `
		UPDATE reservations
		SET status = 'released', hold_expires_at = NULL, release_cause = ?
		WHERE id = ? AND status = 'pending'`,
		cause, id,
	)
	if err != nil {
		return 0, fmt.Errorf("release reservation %d: %w", id, err)
	}
	return result.RowsAffected()
}

// SetPaymentRef stamps the gateway session reference on a reservation.
func (db *DB) SetPaymentRef(ctx context.Context, id int64, ref string) error {
	_, err := db.q.ExecContext(ctx,
		`UPDATE reservations SET payment_ref = ? WHERE id = ?`, ref, id)
	if err != nil {
		return fmt.Errorf("set payment ref: %w", err)
	}
	return nil
}

// ListExpiredHoldIDs returns the ids of pending reservations whose hold
// deadline has passed.
func (db *DB) ListExpiredHoldIDs(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := db.q.QueryContext(ctx, `
		SELECT id FROM reservations
		WHERE status = 'pending' AND hold_expires_at <= ?
		ORDER BY id`,
		now.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list expired holds: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired hold id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row *sql.Row) (*models.Reservation, error) {
	r, err := scanReservationFrom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func scanReservationRows(rows *sql.Rows) (*models.Reservation, error) {
	return scanReservationFrom(rows)
}

func scanReservationFrom(s rowScanner) (*models.Reservation, error) {
	var r models.Reservation
	var status string
	var holdExpiresAt sql.NullTime
	var paymentRef sql.NullString
	err := s.Scan(
		&r.ID, &r.CourtID, &r.Date, &r.StartMin, &r.EndMin, &r.UserID,
		&r.PriceCents, &status, &holdExpiresAt, &paymentRef, &r.ReleaseCause, &r.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan reservation: %w", err)
	}
	r.Status = models.Status(status)
	if holdExpiresAt.Valid {
		t := holdExpiresAt.Time
		r.HoldExpiresAt = &t
	}
	if paymentRef.Valid {
		r.PaymentRef = paymentRef.String
	}
	return &r, nil
}

func nullString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}
