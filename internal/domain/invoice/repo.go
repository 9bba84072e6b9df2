package invoice

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Repository is the persist capability for invoices. Drafts never reach it;
// only issued invoices and payment updates are written.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Invoice, error)
	List(ctx context.Context, limit, offset int) ([]*Invoice, int, error)
	Create(ctx context.Context, inv *Invoice) error
	Update(ctx context.Context, inv *Invoice) error
}

type storeRepo struct {
	store  docstore.Store
	logger zerolog.Logger
}

// NewRepository returns a Repository backed by the given record store.
func NewRepository(store docstore.Store, logger zerolog.Logger) Repository {
	return &storeRepo{store: store, logger: logger}
}

func (r *storeRepo) decode(rec *docstore.Record) *Invoice {
	inv := FromRecord(rec)
	if len(inv.ParseFailures) > 0 {
		r.logger.Warn().
			Str("collection", string(docstore.Invoices)).
			Str("id", rec.ID).
			Strs("fields", inv.ParseFailures).
			Msg("document fields could not be decoded")
	}
	return inv
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*Invoice, error) {
	rec, err := r.store.Get(ctx, docstore.Invoices, id)
	if err != nil {
		return nil, err
	}
	return r.decode(rec), nil
}

func (r *storeRepo) List(ctx context.Context, limit, offset int) ([]*Invoice, int, error) {
	records, total, err := r.store.List(ctx, docstore.Invoices, false, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	invoices := make([]*Invoice, 0, len(records))
	for _, rec := range records {
		invoices = append(invoices, r.decode(rec))
	}
	return invoices, total, nil
}

func (r *storeRepo) Create(ctx context.Context, inv *Invoice) error {
	doc, err := inv.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Create(ctx, docstore.Invoices, doc)
	if err != nil {
		return err
	}
	inv.ID = rec.ID
	return nil
}

func (r *storeRepo) Update(ctx context.Context, inv *Invoice) error {
	doc, err := inv.Document()
	if err != nil {
		return err
	}
	_, err = r.store.Update(ctx, docstore.Invoices, inv.ID, doc)
	return err
}
