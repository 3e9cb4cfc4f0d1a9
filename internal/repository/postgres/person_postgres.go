package postgres

import (
	"context"
	"database/sql"
	"errors"

	"personapi/internal/model"
	"personapi/internal/repository"
)

// PersonPostgres is a PostgreSQL implementation of repository.PersonRepository.
// It uses database/sql with parameterized queries and contains no business logic.
// Listing order follows the seq column, which is assigned once on first insert.
type PersonPostgres struct {
	db *sql.DB
}

// NewPersonPostgres creates a new PersonPostgres repository.
func NewPersonPostgres(db *sql.DB) *PersonPostgres {
	return &PersonPostgres{db: db}
}

var _ repository.PersonRepository = (*PersonPostgres)(nil)

// Save upserts a person row keyed by first_name and returns the stored record.
func (r *PersonPostgres) Save(ctx context.Context, p *model.Person) (*model.Person, error) {
	const q = `
		INSERT INTO people (first_name, last_name, age)
		VALUES ($1, $2, $3)
		ON CONFLICT (first_name) DO UPDATE
		SET last_name = EXCLUDED.last_name, age = EXCLUDED.age
		RETURNING first_name, last_name, age
	`
	row := r.db.QueryRowContext(ctx, q, p.FirstName, p.LastName, p.Age)
	var out model.Person
	if err := row.Scan(&out.FirstName, &out.LastName, &out.Age); err != nil {
		return nil, err
	}
	return &out, nil
}

// FindByFirstName fetches a single person by key.
func (r *PersonPostgres) FindByFirstName(ctx context.Context, firstName string) (*model.Person, error) {
	const q = `
		SELECT first_name, last_name, age
		FROM people
		WHERE first_name = $1
	`
	var p model.Person
	if err := r.db.QueryRowContext(ctx, q, firstName).Scan(&p.FirstName, &p.LastName, &p.Age); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns all people in insertion order.
func (r *PersonPostgres) List(ctx context.Context) ([]model.Person, error) {
	const q = `
		SELECT first_name, last_name, age
		FROM people
		ORDER BY seq ASC
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Person, 0)
	for rows.Next() {
		var p model.Person
		if err := rows.Scan(&p.FirstName, &p.LastName, &p.Age); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
