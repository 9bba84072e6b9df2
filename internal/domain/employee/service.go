package employee

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

func (s *Service) Create(ctx context.Context, e *Employee) error {
	if e.NumeroDocumento == "" {
		return fmt.Errorf("numeroDocumento is required")
	}
	if e.Nombres == "" && e.Apellidos == "" {
		return fmt.Errorf("employee name is required")
	}
	return s.repo.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, id string) (*Employee, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, onlyActive bool, limit, offset int) ([]*Employee, int, error) {
	return s.repo.List(ctx, onlyActive, limit, offset)
}

func (s *Service) Update(ctx context.Context, e *Employee) error {
	if e.ID == "" {
		return fmt.Errorf("id is required")
	}
	if e.NumeroDocumento == "" {
		return fmt.Errorf("numeroDocumento is required")
	}
	return s.repo.Update(ctx, e)
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.Deactivate(ctx, id)
}
