package patient

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Repository provides access to stored patients.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Patient, error)
	List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Patient, int, error)
	Create(ctx context.Context, p *Patient) error
	Update(ctx context.Context, p *Patient) error
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

func (r *storeRepo) decode(rec *docstore.Record) *Patient {
	p := FromRecord(rec)
	if len(p.ParseFailures) > 0 {
		r.logger.Warn().
			Str("collection", string(docstore.Patients)).
			Str("id", rec.ID).
			Strs("fields", p.ParseFailures).
			Msg("document fields could not be decoded")
	}
	return p
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*Patient, error) {
	rec, err := r.store.Get(ctx, docstore.Patients, id)
	if err != nil {
		return nil, err
	}
	return r.decode(rec), nil
}

func (r *storeRepo) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Patient, int, error) {
	records, total, err := r.store.List(ctx, docstore.Patients, onlyActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	patients := make([]*Patient, 0, len(records))
	for _, rec := range records {
		patients = append(patients, r.decode(rec))
	}
	return patients, total, nil
}

func (r *storeRepo) Create(ctx context.Context, p *Patient) error {
	doc, err := p.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Create(ctx, docstore.Patients, doc)
	if err != nil {
		return err
	}
	p.ID = rec.ID
	p.Active = rec.Active
	return nil
}

func (r *storeRepo) Update(ctx context.Context, p *Patient) error {
	doc, err := p.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Update(ctx, docstore.Patients, p.ID, doc)
	if err != nil {
		return err
	}
	p.Active = rec.Active
	return nil
}

func (r *storeRepo) Deactivate(ctx context.Context, id string) error {
	return r.store.Deactivate(ctx, docstore.Patients, id)
}
