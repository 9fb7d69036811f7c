package inquiry

import "context"

type Service interface {
	GetAll(ctx context.Context) ([]*Inquiry, error)
	GetByID(ctx context.Context, id uint64) (*Inquiry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetAll(ctx context.Context) ([]*Inquiry, error) {
	return s.repo.GetAll(ctx)
}

func (s *service) GetByID(ctx context.Context, id uint64) (*Inquiry, error) {
	return s.repo.GetByID(ctx, id)
}
