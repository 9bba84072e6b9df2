package procedure

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Repository provides access to the procedure catalog.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Procedure, error)
	List(ctx context.Context, limit, offset int) ([]*Procedure, int, error)
	ListAll(ctx context.Context) ([]*Procedure, error)
	Create(ctx context.Context, p *Procedure) error
	Update(ctx context.Context, p *Procedure) error
}

type storeRepo struct {
	store  docstore.Store
	logger zerolog.Logger
}

// NewRepository returns a Repository backed by the given record store.
func NewRepository(store docstore.Store, logger zerolog.Logger) Repository {
	return &storeRepo{store: store, logger: logger}
}

func (r *storeRepo) decode(rec *docstore.Record) *Procedure {
	p := FromRecord(rec)
	if len(p.ParseFailures) > 0 {
		r.logger.Warn().
			Str("collection", string(docstore.Procedures)).
			Str("id", rec.ID).
			Strs("fields", p.ParseFailures).
			Msg("document fields could not be decoded")
	}
	return p
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*Procedure, error) {
	rec, err := r.store.Get(ctx, docstore.Procedures, id)
	if err != nil {
		return nil, err
	}
	return r.decode(rec), nil
}

func (r *storeRepo) List(ctx context.Context, limit, offset int) ([]*Procedure, int, error) {
	records, total, err := r.store.List(ctx, docstore.Procedures, false, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	procedures := make([]*Procedure, 0, len(records))
	for _, rec := range records {
		procedures = append(procedures, r.decode(rec))
	}
	return procedures, total, nil
}

// ListAll fetches the complete procedure catalog. Billing uses it to seed
// the CUPS lookup cache for a run.
func (r *storeRepo) ListAll(ctx context.Context) ([]*Procedure, error) {
	var out []*Procedure
	offset := 0
	for {
		records, total, err := r.store.List(ctx, docstore.Procedures, false, 100, offset)
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

func (r *storeRepo) Create(ctx context.Context, p *Procedure) error {
	doc, err := p.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Create(ctx, docstore.Procedures, doc)
	if err != nil {
		return err
	}
	p.ID = rec.ID
	return nil
}

func (r *storeRepo) Update(ctx context.Context, p *Procedure) error {
	doc, err := p.Document()
	if err != nil {
		return err
	}
	_, err = r.store.Update(ctx, docstore.Procedures, p.ID, doc)
	return err
}
