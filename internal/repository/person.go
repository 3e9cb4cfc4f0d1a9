package repository

import (
	"context"
	"errors"

	"personapi/internal/model"
)

// ErrNotFound is returned by FindByFirstName when no person is stored under the key.
var ErrNotFound = errors.New("person not found")

// PersonRepository stores people keyed by first name.
// Implementations hold no business rules.
type PersonRepository interface {
	// Save upserts p under p.FirstName. An existing entry is replaced and keeps
	// its position in the listing order. Returns the stored value.
	Save(ctx context.Context, p *model.Person) (*model.Person, error)

	// FindByFirstName returns the person stored under firstName or ErrNotFound.
	FindByFirstName(ctx context.Context, firstName string) (*model.Person, error)

	// List returns every stored person in first-insertion order.
	List(ctx context.Context) ([]model.Person, error)
}
