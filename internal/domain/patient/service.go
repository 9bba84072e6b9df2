package patient

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

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if p.NumeroDocumento == "" {
		return fmt.Errorf("numeroDocumento is required")
	}
	if p.Nombres == "" && p.Apellidos == "" {
		return fmt.Errorf("patient name is required")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id string) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, onlyActive, limit, offset)
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.NumeroDocumento == "" {
		return fmt.Errorf("numeroDocumento is required")
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}
