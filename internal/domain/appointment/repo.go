package appointment

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clinadmin/clinadmin/internal/platform/docstore"
)

// Repository provides access to stored appointments.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Appointment, error)
	List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Appointment, int, error)
	ListAttended(ctx context.Context) ([]*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
	Update(ctx context.Context, a *Appointment) error
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

func (r *storeRepo) decode(rec *docstore.Record) *Appointment {
	a := FromRecord(rec)
	if len(a.ParseFailures) > 0 {
		r.logger.Warn().
			Str("collection", string(docstore.Appointments)).
			Str("id", rec.ID).
			Strs("fields", a.ParseFailures).
			Msg("document fields could not be decoded")
	}
	return a
}

func (r *storeRepo) GetByID(ctx context.Context, id string) (*Appointment, error) {
	rec, err := r.store.Get(ctx, docstore.Appointments, id)
	if err != nil {
		return nil, err
	}
	return r.decode(rec), nil
}

func (r *storeRepo) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Appointment, int, error) {
	records, total, err := r.store.List(ctx, docstore.Appointments, onlyActive, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	appointments := make([]*Appointment, 0, len(records))
	for _, rec := range records {
		appointments = append(appointments, r.decode(rec))
	}
	return appointments, total, nil
}

// ListAttended returns every active appointment in ATTENDED state. The store
// cannot filter on document contents, so filtering happens after decoding.
func (r *storeRepo) ListAttended(ctx context.Context) ([]*Appointment, error) {
	var out []*Appointment
	offset := 0
	for {
		records, total, err := r.store.List(ctx, docstore.Appointments, true, 100, offset)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			a := r.decode(rec)
			if a.Billable() {
				out = append(out, a)
			}
		}
		offset += len(records)
		if len(records) == 0 || offset >= total {
			return out, nil
		}
	}
}

func (r *storeRepo) Create(ctx context.Context, a *Appointment) error {
	doc, err := a.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Create(ctx, docstore.Appointments, doc)
	if err != nil {
		return err
	}
	a.ID = rec.ID
	a.Active = rec.Active
	return nil
}

func (r *storeRepo) Update(ctx context.Context, a *Appointment) error {
	doc, err := a.Document()
	if err != nil {
		return err
	}
	rec, err := r.store.Update(ctx, docstore.Appointments, a.ID, doc)
	if err != nil {
		return err
	}
	a.Active = rec.Active
	return nil
}

func (r *storeRepo) Deactivate(ctx context.Context, id string) error {
	return r.store.Deactivate(ctx, docstore.Appointments, id)
}
