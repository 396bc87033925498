// Package registration persists event registrations in PostgreSQL.
package registration

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"registripe/pkg/models"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no registration has the requested ID.
	ErrNotFound = errors.New("registration not found")
	// ErrInvalidTransition is returned when a registration is not in the
	// status a transition starts from.
	ErrInvalidTransition = errors.New("invalid status transition")
)

const selectColumns = "SELECT id, event_id, name, email, status, created, updated FROM event_registrations"

// Store reads and writes the event_registrations table.
type Store struct {
	DB  *sql.DB
	Now func() time.Time
}

// NewStore creates a new Store.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db, Now: time.Now}
}

// Create inserts a new registration in Unsubmitted status.
func (s *Store) Create(ctx context.Context, req models.CreateRegistrationRequest) (*models.Registration, error) {
	now := s.Now().UTC()
	reg := &models.Registration{
		ID:      uuid.New().String(),
		EventID: req.EventID,
		Name:    req.Name,
		Email:   req.Email,
		Status:  models.StatusUnsubmitted,
		Created: now,
		Updated: now,
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO event_registrations (id, event_id, name, email, status, created, updated)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		reg.ID, reg.EventID, reg.Name, reg.Email, string(reg.Status), reg.Created, reg.Updated,
	)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Get returns a single registration.
func (s *Store) Get(ctx context.Context, id string) (*models.Registration, error) {
	row := s.DB.QueryRowContext(ctx, selectColumns+" WHERE id = $1", id)

	reg, err := scanRegistration(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// List returns registrations newest first. An empty status lists all of them.
func (s *Store) List(ctx context.Context, status models.RegistrationStatus) ([]models.Registration, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = s.DB.QueryContext(ctx, selectColumns+" ORDER BY created DESC")
	} else {
		rows, err = s.DB.QueryContext(ctx, selectColumns+" WHERE status = $1 ORDER BY created DESC", string(status))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	regs := []models.Registration{}
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		regs = append(regs, *reg)
	}
	return regs, rows.Err()
}

// CountByStatus returns the number of registrations per status. Every known
// status is present in the result, with zero when no rows have it.
func (s *Store) CountByStatus(ctx context.Context) (map[models.RegistrationStatus]int64, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT status, COUNT(*) FROM event_registrations GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.RegistrationStatus]int64, len(models.Statuses))
	for _, st := range models.Statuses {
		counts[st] = 0
	}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[models.RegistrationStatus(status)] = n
	}
	return counts, rows.Err()
}

// Transition moves a registration from one status to another. The update only
// applies while the row is still in the from status.
func (s *Store) Transition(ctx context.Context, id string, from, to models.RegistrationStatus) (*models.Registration, error) {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE event_registrations SET status = $1, updated = $2 WHERE id = $3 AND status = $4",
		string(to), s.Now().UTC(), id, string(from),
	)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}

	reg, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrInvalidTransition
	}
	return reg, nil
}

// Backdate overwrites the creation time of a registration.
func (s *Store) Backdate(ctx context.Context, id string, created time.Time) error {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE event_registrations SET created = $1 WHERE id = $2",
		created.UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteStale removes every registration in status created at or before the cutoff.
func (s *Store) DeleteStale(ctx context.Context, status models.RegistrationStatus, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		"DELETE FROM event_registrations WHERE status = $1 AND created <= $2",
		string(status), before.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CancelStale marks every Unconfirmed registration created at or before the
// cutoff as Cancelled.
func (s *Store) CancelStale(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		"UPDATE event_registrations SET status = $1, updated = $2 WHERE status = $3 AND created <= $4",
		string(models.StatusCancelled), s.Now().UTC(), string(models.StatusUnconfirmed), before.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountStale counts registrations in status created at or before the cutoff.
func (s *Store) CountStale(ctx context.Context, status models.RegistrationStatus, before time.Time) (int64, error) {
	var n int64
	err := s.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM event_registrations WHERE status = $1 AND created <= $2",
		string(status), before.UTC(),
	).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner) (*models.Registration, error) {
	var reg models.Registration
	var status string
	if err := row.Scan(&reg.ID, &reg.EventID, &reg.Name, &reg.Email, &status, &reg.Created, &reg.Updated); err != nil {
		return nil, err
	}
	reg.Status = models.RegistrationStatus(status)
	return &reg, nil
}
