package procedure

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

func (s *Service) Create(ctx context.Context, p *Procedure) error {
	if p.CodigoCups == "" {
		return fmt.Errorf("codigoCups is required")
	}
	if p.Nombre == "" {
		return fmt.Errorf("nombre is required")
	}
	if p.ValorDefinido && p.Valor < 0 {
		return fmt.Errorf("valor must not be negative")
	}
	return s.repo.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id string) (*Procedure, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Procedure, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, p *Procedure) error {
	if p.ID == "" {
		return fmt.Errorf("id is required")
	}
	if p.CodigoCups == "" {
		return fmt.Errorf("codigoCups is required")
	}
	if p.ValorDefinido && p.Valor < 0 {
		return fmt.Errorf("valor must not be negative")
	}
	return s.repo.Update(ctx, p)
}
