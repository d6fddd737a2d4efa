package activity

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

type Service interface {
	GetByID(ctx context.Context, id string) (*Activity, error)
	List(ctx context.Context, filter Filter) ([]*Activity, int, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*Activity, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Activity, int, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, 0, ErrInvalidTimeRange
	}
	return s.repo.List(ctx, filter)
}
