package appointment

import (
	"context"
	"fmt"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, a *Appointment) error {
	if a.PacienteID == "" {
		return fmt.Errorf("pacienteId is required")
	}
	if a.CodigoCups == "" {
		return fmt.Errorf("codigoCups is required")
	}
	if a.Estado == "" {
		a.Estado = StatusScheduled
	}
	if !a.Estado.Valid() {
		return fmt.Errorf("invalid appointment status: %s", a.Estado)
	}
	return s.repo.Create(ctx, a)
}

func (s *Service) Get(ctx context.Context, id string) (*Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.List(ctx, onlyActive, limit, offset)
}

// ListAttended returns the billing-eligible appointments.
func (s *Service) ListAttended(ctx context.Context) ([]*Appointment, error) {
	return s.repo.ListAttended(ctx)
}

// ListByStatus returns every active appointment in the given state. The store
// cannot filter on document contents, so pages are scanned and filtered here.
func (s *Service) ListByStatus(ctx context.Context, estado Status) ([]*Appointment, error) {
	if !estado.Valid() {
		return nil, fmt.Errorf("invalid appointment status: %s", estado)
	}
	var out []*Appointment
	offset := 0
	for {
		page, total, err := s.repo.List(ctx, true, 100, offset)
		if err != nil {
			return nil, err
		}
		for _, a := range page {
			if a.Estado == estado {
				out = append(out, a)
			}
		}
		offset += len(page)
		if len(page) == 0 || offset >= total {
			return out, nil
		}
	}
}

// UpdateStatus moves an appointment to the given state.
func (s *Service) UpdateStatus(ctx context.Context, id string, estado Status) (*Appointment, error) {
	if !estado.Valid() {
		return nil, fmt.Errorf("invalid appointment status: %s", estado)
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Estado = estado
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) Update(ctx context.Context, a *Appointment) error {
	if a.ID == "" {
		return fmt.Errorf("id is required")
	}
	if !a.Estado.Valid() {
		return fmt.Errorf("invalid appointment status: %s", a.Estado)
	}
	return s.repo.Update(ctx, a)
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}
