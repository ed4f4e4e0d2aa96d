package client

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthreach/platform/internal/shared/errors"
	"github.com/healthreach/platform/internal/shared/types"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides database operations for clients.
// The nested API shape is flattened into snake_case columns here;
// set-valued fields map to text[] columns.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new client repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const clientColumns = `
	id, first_name, last_name, date_of_birth, gender, pronouns,
	phone, email, address,
	emergency_name, emergency_relationship, emergency_phone,
	blood_type, allergies, conditions, medications,
	marital_status, occupation, language,
	status, registered_at, updated_at`

// Create inserts a new client
func (r *Repository) Create(ctx context.Context, c *Client) error {
	query := `
		INSERT INTO clients (
			id, first_name, last_name, date_of_birth, gender, pronouns,
			phone, email, address,
			emergency_name, emergency_relationship, emergency_phone,
			blood_type, allergies, conditions, medications,
			marital_status, occupation, language,
			status, registered_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11, $12,
			$13, $14, $15, $16, $17, $18,
			$19, $20, $21, $22
		)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Name.First, c.Name.Last, c.DateOfBirth, c.Gender, c.Pronouns,
		c.Contact.Phone, c.Contact.Email, c.Contact.Address,
		c.Contact.Emergency.Name, c.Contact.Emergency.Relationship, c.Contact.Emergency.Phone,
		c.Medical.BloodType, c.Medical.Allergies, c.Medical.Conditions, c.Medical.Medications,
		c.Demographics.MaritalStatus, c.Demographics.Occupation, c.Demographics.Language,
		c.Status, c.RegisteredAt, c.UpdatedAt,
	)

	if err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			return errors.Conflict("client already exists")
		}
		return errors.Wrap(err, "failed to create client")
	}

	return nil
}

// Get retrieves a client by ID
func (r *Repository) Get(ctx context.Context, id types.ID) (*Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients WHERE id = $1`, clientColumns)

	c := &Client{}
	err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(c)...)

	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("client", id.String())
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get client")
	}

	return c, nil
}

// Update replaces all mutable fields of a client
func (r *Repository) Update(ctx context.Context, c *Client) error {
	query := `
		UPDATE clients SET
			first_name = $2, last_name = $3, date_of_birth = $4,
			gender = $5, pronouns = $6,
			phone = $7, email = $8, address = $9,
			emergency_name = $10, emergency_relationship = $11, emergency_phone = $12,
			blood_type = $13, allergies = $14, conditions = $15, medications = $16,
			marital_status = $17, occupation = $18, language = $19,
			status = $20, updated_at = $21
		WHERE id = $1`

	result, err := r.pool.Exec(ctx, query,
		c.ID, c.Name.First, c.Name.Last, c.DateOfBirth,
		c.Gender, c.Pronouns,
		c.Contact.Phone, c.Contact.Email, c.Contact.Address,
		c.Contact.Emergency.Name, c.Contact.Emergency.Relationship, c.Contact.Emergency.Phone,
		c.Medical.BloodType, c.Medical.Allergies, c.Medical.Conditions, c.Medical.Medications,
		c.Demographics.MaritalStatus, c.Demographics.Occupation, c.Demographics.Language,
		c.Status, c.UpdatedAt,
	)

	if err != nil {
		return errors.Wrap(err, "failed to update client")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("client", c.ID.String())
	}

	return nil
}

// Delete removes a client by ID
func (r *Repository) Delete(ctx context.Context, id types.ID) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "failed to delete client")
	}

	if result.RowsAffected() == 0 {
		return errors.NotFound("client", id.String())
	}

	return nil
}

// List lists clients with optional filters
func (r *Repository) List(ctx context.Context, filter ListClientsFilter) ([]Client, int, error) {
	var conditions []string
	var args []interface{}
	argNum := 1

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argNum))
		args = append(args, *filter.Status)
		argNum++
	}

	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(first_name || ' ' || last_name) ILIKE $%d", argNum))
		args = append(args, "%"+filter.Search+"%")
		argNum++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Get total count
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients %s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, "failed to count clients")
	}

	limit := 50
	if filter.Limit > 0 && filter.Limit <= 200 {
		limit = filter.Limit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM clients
		%s
		ORDER BY last_name, first_name
		LIMIT $%d OFFSET $%d`, clientColumns, whereClause, argNum, argNum+1)

	args = append(args, limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, "failed to list clients")
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(scanTargets(&c)...); err != nil {
			return nil, 0, errors.Wrap(err, "failed to scan client")
		}
		clients = append(clients, c)
	}

	return clients, total, nil
}

// ListAll returns every client, used by the dashboard aggregations
func (r *Repository) ListAll(ctx context.Context) ([]Client, error) {
	query := fmt.Sprintf(`SELECT %s FROM clients ORDER BY registered_at DESC`, clientColumns)

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list clients")
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(scanTargets(&c)...); err != nil {
			return nil, errors.Wrap(err, "failed to scan client")
		}
		clients = append(clients, c)
	}

	return clients, nil
}

// scanTargets returns scan destinations in clientColumns order
func scanTargets(c *Client) []interface{} {
	return []interface{}{
		&c.ID, &c.Name.First, &c.Name.Last, &c.DateOfBirth, &c.Gender, &c.Pronouns,
		&c.Contact.Phone, &c.Contact.Email, &c.Contact.Address,
		&c.Contact.Emergency.Name, &c.Contact.Emergency.Relationship, &c.Contact.Emergency.Phone,
		&c.Medical.BloodType, &c.Medical.Allergies, &c.Medical.Conditions, &c.Medical.Medications,
		&c.Demographics.MaritalStatus, &c.Demographics.Occupation, &c.Demographics.Language,
		&c.Status, &c.RegisteredAt, &c.UpdatedAt,
	}
}
