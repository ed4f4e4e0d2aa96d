package program

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for programs
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new program repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const programColumns = `
	id, code, name, description, category,
	target_population, conditions, interventions,
	protocols, responsible_staff, locations,
	start_date, end_date, status,
	created_at, updated_at`

// Create inserts a new program
func (r *Repository) Create(ctx context.Context, p *Program) error {
	query := `
		INSERT INTO programs (
			id, code, name, description, category,
			target_population, conditions, interventions,
			protocols, responsible_staff, locations,
			start_date, end_date, status,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16
		)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Code, p.Name, p.Description, p.Category,
		p.TargetPopulation, p.Conditions, p.Interventions,
		p.Protocols, p.ResponsibleStaff, p.Locations,
		p.StartDate, p.EndDate, p.Status,
		p.CreatedAt, p.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("program with this code already exists")
		}
		return errors.Wrap(err, "failed to create program")
	}

	return nil
}

// Get retrieves a program by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Program, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs WHERE id = $1`, programColumns)

	p := &Program{}
	err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(p)...)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("program", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get program")
	}

	return p, nil
}

// GetByCode retrieves a program by its human-facing code
func (r *Repository) GetByCode(ctx context.Context, code string) (*Program, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs WHERE code = $1`, programColumns)

	p := &Program{}
	err := r.pool.QueryRow(ctx, query, code).Scan(scanTargets(p)...)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("program", code)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get program by code")
	}

	return p, nil
}

// Update replaces the mutable fields of a program
func (r *Repository) Update(ctx context.Context, p *Program) error {
	query := `
		UPDATE programs SET
			code = $2, name = $3, description = $4, category = $5,
			target_population = $6, conditions = $7, interventions = $8,
			protocols = $9, responsible_staff = $10, locations = $11,
			start_date = $12, end_date = $13, status = $14,
			updated_at = $15
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		p.ID, p.Code, p.Name, p.Description, p.Category,
		p.TargetPopulation, p.Conditions, p.Interventions,
		p.Protocols, p.ResponsibleStaff, p.Locations,
		p.StartDate, p.EndDate, p.Status,
		p.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("program with this code already exists")
		}
		return errors.Wrap(err, "failed to update program")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("program", p.ID.String())
	}

	return nil
}

// Delete removes a program by ID
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM programs WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete program")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("program", id.String())
	}

	return nil
}

// List lists programs with optional filters
func (r *Repository) List(ctx context.Context, filter ListProgramsFilter) ([]Program, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.Category != nil {
		conditions = append(conditions, fmt.Sprintf("category = $%d", argNum))
		args = append(args, *filter.Category)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR code ILIKE $%d)", argNum, argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM programs %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count programs")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 200 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM programs
		%s
		ORDER BY name
		LIMIT $%d OFFSET $%d`, programColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list programs")
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(scanTargets(&p)...); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan program")
		}
		programs = append(programs, p)
	}

	return programs, total, nil
}

// ListAll returns every program, used by the dashboard aggregations
func (r *Repository) ListAll(ctx context.Context) ([]Program, error) {
	query := fmt.Sprintf(`SELECT %s FROM programs ORDER BY name`, programColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list programs")
	}
	defer rows.Close()

	var programs []Program
	for rows.Next() {
		var p Program
		if err := rows.Scan(scanTargets(&p)...); err != nil {
			return nil, errors.Wrap(err, "failed to scan program")
		}
		programs = append(programs, p)
	}

	return programs, nil
}

// scanTargets returns scan destinations in programColumns order
func scanTargets(p *Program) []interface{} {
	return []interface{}{
		&p.ID, &p.Code, &p.Name, &p.Description, &p.Category,
		&p.TargetPopulation, &p.Conditions, &p.Interventions,
		&p.Protocols, &p.ResponsibleStaff, &p.Locations,
		&p.StartDate, &p.EndDate, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	}
}
