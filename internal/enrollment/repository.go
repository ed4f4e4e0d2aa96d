package enrollment

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthreach/platform/internal/client"
	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPageSize is the roster page size
const DefaultPageSize = 10

// pageBounds converts a 1-indexed page into a SQL limit and offset.
// Pages below 1 read the first page; a non-positive size falls back
// to DefaultPageSize. A page past the end yields an offset beyond the
// row count, so the query returns an empty page.
func pageBounds(page, pageSize int) (limit, offset int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return pageSize, (page - 1) * pageSize
}

// Repository provides database operations for enrollments
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new enrollment repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBatch inserts a batch of enrollments in one transaction.
// Any constraint violation aborts the entire batch; there is no
// row-by-row fallback.
func (r *Repository) CreateBatch(ctx context.Context, enrollments []Enrollment) error {
	if len(enrollments) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO enrollments (id, client_id, program_id, enrollment_date, status, last_visit)
		VALUES ($1, $2, $3, $4, $5, $6)`

	for _, e := range enrollments {
		_, err := tx.Exec(ctx, query,
			e.ID, e.ClientID, e.ProgramID, e.EnrollmentDate, e.Status, e.LastVisit,
		)
		if err != nil {
			if strings.Contains(err.Error(), "duplicate key") {
				return errors.Conflict("client is already enrolled in this program")
			}
			if strings.Contains(err.Error(), "foreign key") {
				return errors.BadRequest("enrollment references a missing client or program")
			}
			return errors.Wrap(err, "failed to create enrollment")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Wrap(err, "failed to commit enrollment batch")
	}

	return nil
}

// Get retrieves an enrollment by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Enrollment, error) {
	query := `
		SELECT id, client_id, program_id, enrollment_date, status, last_visit
		FROM enrollments
		WHERE id = $1`

	e := &Enrollment{}
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.ClientID, &e.ProgramID, &e.EnrollmentDate, &e.Status, &e.LastVisit,
	)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("enrollment", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get enrollment")
	}

	return e, nil
}

// Delete removes an enrollment by ID
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM enrollments WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete enrollment")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("enrollment", id.String())
	}

	return nil
}

// RemoveByPair deletes the enrollment binding a client to a program.
// An already-absent row is treated as success, so the removal is
// idempotent.
func (r *Repository) RemoveByPair(ctx context.Context, programID, clientID types.ID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM enrollments WHERE program_id = $1 AND client_id = $2`,
		programID, clientID,
	)
	if err != nil {
		return errors.Wrap(err, "failed to remove enrollment")
	}

	return nil
}

// ListEnrollees returns one page of clients enrolled in a program,
// newest enrollment first, plus the total roster size. Pages are
// 1-indexed; a page past the end returns an empty page.
func (r *Repository) ListEnrollees(ctx context.Context, programID types.ID, page, pageSize int) ([]client.Client, int, error) {
	limit, offset := pageBounds(page, pageSize)

	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE program_id = $1`,
		programID,
	).Scan(&total)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to count enrollees")
	}

	query := `
		SELECT c.id, c.first_name, c.last_name, c.date_of_birth, c.gender, c.pronouns,
			c.phone, c.email, c.address,
			c.emergency_name, c.emergency_relationship, c.emergency_phone,
			c.blood_type, c.allergies, c.conditions, c.medications,
			c.marital_status, c.occupation, c.language,
			c.status, c.registered_at, c.updated_at
		FROM enrollments e
		JOIN clients c ON c.id = e.client_id
		WHERE e.program_id = $1
		ORDER BY e.enrollment_date DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, programID, limit, offset)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list enrollees")
	}
	defer rows.Close()

	var enrollees []client.Client
	for rows.Next() {
		var c client.Client
		err := rows.Scan(
			&c.ID, &c.Name.First, &c.Name.Last, &c.DateOfBirth, &c.Gender, &c.Pronouns,
			&c.Contact.Phone, &c.Contact.Email, &c.Contact.Address,
			&c.Contact.Emergency.Name, &c.Contact.Emergency.Relationship, &c.Contact.Emergency.Phone,
			&c.Medical.BloodType, &c.Medical.Allergies, &c.Medical.Conditions, &c.Medical.Medications,
			&c.Demographics.MaritalStatus, &c.Demographics.Occupation, &c.Demographics.Language,
			&c.Status, &c.RegisteredAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan enrollee")
		}
		enrollees = append(enrollees, c)
	}

	return enrollees, total, nil
}

const viewColumns = `
	e.id, e.enrollment_date, e.status,
	c.id, c.first_name, c.last_name,
	p.id, p.name`

// List lists enrollment views (joined with client and program) with
// optional filters, newest first
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]View, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.ProgramID != nil {
		conditions = append(conditions, fmt.Sprintf("e.program_id = $%d", argNum))
		args = append(args, *filter.ProgramID)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"((c.first_name || ' ' || c.last_name) ILIKE $%d OR p.name ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	fromClause := `
		FROM enrollments e
		JOIN clients c ON c.id = e.client_id
		JOIN programs p ON p.id = e.program_id`

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s %s", fromClause, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count enrollments")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 200 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		%s
		%s
		ORDER BY e.enrollment_date DESC
		LIMIT $%d OFFSET $%d`, viewColumns, fromClause, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list enrollments")
	}
	defer rows.Close()

	views, err := scanViews(rows)
	if err != nil {
		return nil, 0, err
	}

	return views, total, nil
}

// ListRecent returns the most recently created enrollment views,
// newest first, for the activity feed
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]View, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM enrollments e
		JOIN clients c ON c.id = e.client_id
		JOIN programs p ON p.id = e.program_id
		ORDER BY e.enrollment_date DESC
		LIMIT $1`, viewColumns)

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list recent enrollments")
	}
	defer rows.Close()

	return scanViews(rows)
}

// ListAll returns every enrollment, used by the dashboard aggregations
func (r *Repository) ListAll(ctx context.Context) ([]Enrollment, error) {
	query := `
		SELECT id, client_id, program_id, enrollment_date, status, last_visit
		FROM enrollments
		ORDER BY enrollment_date DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list enrollments")
	}
	defer rows.Close()

	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.ClientID, &e.ProgramID, &e.EnrollmentDate, &e.Status, &e.LastVisit); err != nil {
			return nil, errors.Wrap(err, "failed to scan enrollment")
		}
		enrollments = append(enrollments, e)
	}

	return enrollments, nil
}

func scanViews(rows pgx.Rows) ([]View, error) {
	var views []View
	for rows.Next() {
		var v View
		err := rows.Scan(
			&v.ID, &v.EnrollmentDate, &v.Status,
			&v.Client.ID, &v.Client.FirstName, &v.Client.LastName,
			&v.Program.ID, &v.Program.Name,
		)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan enrollment view")
		}
		views = append(views, v)
	}
	return views, nil
}
