package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
)

type fakeRepo struct {
	getByIDFn func(ctx context.Context, id string) (*User, error)
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*User, error) {
	if f.getByIDFn == nil {
		panic("GetByID not configured")
	}
	return f.getByIDFn(ctx, id)
}

const validID = "6f1c1d2e-5b1a-4a53-9f5e-0c7f1a2b3c4d"

func TestService_GetByID(t *testing.T) {
	t.Run("returns active user", func(t *testing.T) {
		svc := NewService(&fakeRepo{getByIDFn: func(_ context.Context, id string) (*User, error) {
			return &User{ID: id, Tier: membership.TierOnceAWeek, IsActive: true}, nil
		}})

		u, err := svc.GetByID(context.Background(), " "+validID+" ")
		require.NoError(t, err)
		assert.Equal(t, validID, u.ID)
	})

	t.Run("malformed id is not found without a lookup", func(t *testing.T) {
		svc := NewService(&fakeRepo{})
		_, err := svc.GetByID(context.Background(), "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("inactive user is not found", func(t *testing.T) {
		svc := NewService(&fakeRepo{getByIDFn: func(_ context.Context, id string) (*User, error) {
			return &User{ID: id, Tier: membership.TierAdHoc, IsActive: false}, nil
		}})
		_, err := svc.GetByID(context.Background(), validID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, ErrInactiveUser)
	})

	t.Run("invalid tier is reported as ErrInvalidTier", func(t *testing.T) {
		svc := NewService(&fakeRepo{getByIDFn: func(_ context.Context, id string) (*User, error) {
			return &User{ID: id, Tier: "gold", IsActive: true}, nil
		}})
		_, err := svc.GetByID(context.Background(), validID)
		require.ErrorIs(t, err, ErrInvalidTier)
		assert.ErrorIs(t, err, membership.ErrInvalidTier)
		assert.NotErrorIs(t, err, ErrNotFound)
	})

	t.Run("store error propagates", func(t *testing.T) {
		boom := errors.New("connection reset")
		svc := NewService(&fakeRepo{getByIDFn: func(context.Context, string) (*User, error) {
			return nil, boom
		}})
		_, err := svc.GetByID(context.Background(), validID)
		assert.ErrorIs(t, err, boom)
	})
}
