package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"personapi/internal/async"
	"personapi/internal/model"
	"personapi/internal/repository"
)

var (
	// ErrPersonRequired is returned by Create when the source resolves to nil.
	ErrPersonRequired = errors.New("person is required")
	// ErrNotFound marks a lookup that found nothing. Get itself reports absence
	// with a false flag; callers that need an error use this one.
	ErrNotFound = errors.New("person not found")
)

// PersonService defines the use cases for the people collection.
type PersonService interface {
	// List returns every stored person in insertion order.
	List(ctx context.Context) ([]model.Person, error)

	// Get returns the person stored under firstName. Absence is reported by
	// ok == false with a nil error.
	Get(ctx context.Context, firstName string) (p *model.Person, ok bool, err error)

	// Create awaits src and stores the resolved person under its first name,
	// replacing any previous entry. Errors from src are returned unchanged.
	Create(ctx context.Context, src async.Source[*model.Person]) (*model.Person, error)
}

type personService struct {
	repo   repository.PersonRepository
	tracer trace.Tracer
}

// NewPersonService constructs a new PersonService.
func NewPersonService(repo repository.PersonRepository) PersonService {
	return &personService{
		repo:   repo,
		tracer: otel.Tracer("personapi/service"),
	}
}

func (s *personService) List(ctx context.Context) ([]model.Person, error) {
	ctx, span := s.tracer.Start(ctx, "PersonService.List")
	defer span.End()

	people, err := s.repo.List(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	span.SetAttributes(attribute.Int("people.count", len(people)))
	return people, nil
}

func (s *personService) Get(ctx context.Context, firstName string) (*model.Person, bool, error) {
	ctx, span := s.tracer.Start(ctx, "PersonService.Get", trace.WithAttributes(
		attribute.String("person.first_name", firstName),
	))
	defer span.End()

	p, err := s.repo.FindByFirstName(ctx, firstName)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			span.SetAttributes(attribute.Bool("person.found", false))
			return nil, false, nil
		}
		return nil, false, fail(span, err)
	}
	span.SetAttributes(attribute.Bool("person.found", true))
	return p, true, nil
}

func (s *personService) Create(ctx context.Context, src async.Source[*model.Person]) (*model.Person, error) {
	ctx, span := s.tracer.Start(ctx, "PersonService.Create")
	defer span.End()

	p, err := src.Await(ctx)
	if err != nil {
		return nil, fail(span, err)
	}
	if p == nil {
		return nil, fail(span, ErrPersonRequired)
	}
	span.SetAttributes(attribute.String("person.first_name", p.FirstName))

	stored, err := s.repo.Save(ctx, p)
	if err != nil {
		return nil, fail(span, err)
	}
	return stored, nil
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
