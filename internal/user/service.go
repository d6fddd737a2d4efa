package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Service defines business logic related to users.
type Service interface {
	// GetByID returns an active user. Unknown, malformed and inactive IDs all yield ErrNotFound.
	GetByID(ctx context.Context, id string) (*User, error)
}

type service struct {
	repo Repository
}

// NewService creates a new user Service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	id = strings.TrimSpace(id)
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}

	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, fmt.Errorf("%w: %w", ErrNotFound, ErrInactiveUser)
	}
	if !u.Tier.Valid() {
		return nil, fmt.Errorf("%w: user %s tier %q", ErrInvalidTier, u.ID, u.Tier)
	}
	return u, nil
}
