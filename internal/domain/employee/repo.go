package employee

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Repository provides access to stored employees.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Employee, error)
	List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Employee, int, error)
	ListAll(ctx context.Context) ([]*Employee, error)
	Create(ctx context.Context, e *Employee) error
	Update(ctx context.Context, e *Employee) error
	Deactivate(ctx context.Context, id string) error
}

type storeRepo struct {
	store  docstore.Store
	logger zerolog.Logger
}

// NewRepository returns a Repository backed by the given record store.
func NewRepository(store docstore.Store, logger zerolog.Logger) Repository {
	return &storeRepo{store: store, logger: logger}
}

func (r *storeRepo) decode(rec *docstore.Record) *Employee {
	e := FromRecord(rec)
	if len(e.ParseFailures) > 0 {
		r.logger.Warn().
			Str("collection", string(docstore.Employees)).
			Str("id", rec.ID).
			Strs("fields", e.ParseFailures).
			Msg("document fields could not be decoded")
	}
	return e
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*Employee, error) {
	rec, err := r.store.Get(ctx, docstore.Employees, id)
	if err != nil {
		return nil, err
	}
	return r.decode(rec), nil
}

func (r *storeRepo) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Employee, int, error) {
	records, total, err := r.store.List(ctx, docstore.Employees, onlyActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	employees := make([]*Employee, 0, len(records))
	for _, rec := range records {
		employees = append(employees, r.decode(rec))
	}
	return employees, total, nil
}

// ListAll fetches every employee regardless of lifecycle state. Billing uses
// it to seed the physician lookup cache for a run.
func (r *storeRepo) ListAll(ctx context.Context) ([]*Employee, error) {
	var out []*Employee
	offset := 0
	for {
		records, total, err := r.store.List(ctx, docstore.Employees, false, 100, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			out = append(out, r.decode(rec))
		}
		offset += len(records)
		if len(records) == 0 || offset >= total {
			return out, nil
		}
	}
}

func (r *storeRepo) Create(ctx context.Context, e *Employee) error {
	doc, err := e.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Create(ctx, docstore.Employees, doc)
	if err != nil {
		return err
	}
	e.ID = rec.ID
	e.Active = rec.Active
	return nil
}

func (r *storeRepo) Update(ctx context.Context, e *Employee) error {
	doc, err := e.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Update(ctx, docstore.Employees, e.ID, doc)
	if err != nil {
		return err
	}
	e.Active = rec.Active
	return nil
}

func (r *storeRepo) Deactivate(ctx context.Context, id string) error {
	return r.store.Deactivate(ctx, docstore.Employees, id)
}
