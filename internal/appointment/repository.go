package appointment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for appointments
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new appointment repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const appointmentColumns = `
	id, client_id, program_id, scheduled_at, status, notes, external_ref,
	created_at, updated_at`

// Create inserts a new appointment
func (r *Repository) Create(ctx context.Context, a *Appointment) error {
	query := `
		INSERT INTO appointments (
			id, client_id, program_id, scheduled_at, status, notes, external_ref,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		a.ID, a.ClientID, a.ProgramID, a.ScheduledAt, a.Status, a.Notes, a.ExternalRef,
		a.CreatedAt, a.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("appointment with this external reference already exists")
		}
		if strings.Contains(err.Error(), "foreign key") {
			return errors.BadRequest("referenced client or program does not exist")
		}
		return errors.Wrap(err, "failed to create appointment")
	}

	return nil
}

// Get retrieves an appointment by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id = $1`, appointmentColumns)

	a := &Appointment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(appointmentScanTargets(a)...)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("appointment", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get appointment")
	}

	return a, nil
}

// UpdateStatus changes the status of an appointment
func (r *Repository) UpdateStatus(ctx context.Context, id types.ID, status string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`,
		id, status,
	)
	if err != nil {
		return errors.Wrap(err, "failed to update appointment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("appointment", id.String())
	}

	return nil
}

// Delete removes an appointment by ID
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete appointment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("appointment", id.String())
	}

	return nil
}

// List lists appointments with optional filters
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Appointment, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.ClientID != nil {
		conditions = append(conditions, fmt.Sprintf("client_id = $%d", argNum))
		args = append(args, *filter.ClientID)
		argNum++
	}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at >= $%d", argNum))
		args = append(args, *filter.From)
		argNum++
	}

	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("scheduled_at < $%d", argNum))
		args = append(args, *filter.To)
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM appointments %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count appointments")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 200 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		%s
		ORDER BY scheduled_at
		LIMIT $%d OFFSET $%d`, appointmentColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list appointments")
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(appointmentScanTargets(&a)...); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan appointment")
		}
		appointments = append(appointments, a)
	}

	return appointments, total, nil
}

// ListUpcoming returns scheduled appointments from now onward, soonest first
func (r *Repository) ListUpcoming(ctx context.Context, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 10
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM appointments
		WHERE scheduled_at >= $1 AND status = $2
		ORDER BY scheduled_at
		LIMIT $3`, appointmentColumns)

	rows, err := r.pool.Query(ctx, query, time.Now(), StatusScheduled, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list upcoming appointments")
	}
	defer rows.Close()

	var appointments []Appointment
	for rows.Next() {
		var a Appointment
		if err := rows.Scan(appointmentScanTargets(&a)...); err != nil {
			return nil, errors.Wrap(err, "failed to scan appointment")
		}
		appointments = append(appointments, a)
	}

	return appointments, nil
}

// ExistsByExternalRef reports whether an appointment with the given
// external reference is already present. Used by the HIS importer to
// skip visits it has already pulled in.
func (r *Repository) ExistsByExternalRef(ctx context.Context, ref string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM appointments WHERE external_ref = $1)`, ref,
	).Scan(&exists)
	if err != nil {
		return false, errors.Wrap(err, "failed to check external reference")
	}
	return exists, nil
}

// appointmentScanTargets returns scan destinations in appointmentColumns order
func appointmentScanTargets(a *Appointment) []interface{} {
	return []interface{}{
		&a.ID, &a.ClientID, &a.ProgramID, &a.ScheduledAt, &a.Status, &a.Notes, &a.ExternalRef,
		&a.CreatedAt, &a.UpdatedAt,
	}
}
