package activity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
)

const validID = "0b8e5d7a-3c1f-4e2a-9d6b-7f8a9b0c1d2e"

type fakeRepo struct {
	getCalls  int
	listCalls int
	act       *Activity
}

func (f *fakeRepo) GetByID(_ context.Context, id string) (*Activity, error) {
	f.getCalls++
	if f.act == nil || f.act.ID != id {
		return nil, ErrNotFound
	}
	return f.act, nil
}

func (f *fakeRepo) List(context.Context, Filter) ([]*Activity, int, error) {
	f.listCalls++
	if f.act == nil {
		return nil, 0, nil
	}
	return []*Activity{f.act}, 1, nil
}

func TestService_GetByID(t *testing.T) {
	repo := &fakeRepo{act: &Activity{ID: validID, Capacity: 3}}
	svc := NewService(repo)

	got, err := svc.GetByID(context.Background(), " "+validID+" ")
	require.NoError(t, err)
	assert.Equal(t, validID, got.ID)

	_, err = svc.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 1, repo.getCalls, "malformed IDs never reach the store")
}

func TestService_List_RejectsInvertedRange(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	from := time.Date(2026, 10, 20, 12, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)

	_, _, err := svc.List(context.Background(), Filter{From: &from, To: &to})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)

	_, _, err = svc.List(context.Background(), Filter{From: &from, To: &from})
	assert.ErrorIs(t, err, ErrInvalidTimeRange)
	assert.Zero(t, repo.listCalls)

	_, total, err := svc.List(context.Background(), Filter{From: &to, To: &from})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestActivity_Remaining(t *testing.T) {
	assert.Equal(t, 2, (&Activity{Capacity: 5, ConfirmedCount: 3}).Remaining())
	assert.Equal(t, 0, (&Activity{Capacity: 2, ConfirmedCount: 2}).Remaining())
	assert.Equal(t, 0, (&Activity{Capacity: 2, ConfirmedCount: 4}).Remaining())
}

func TestActivity_IsOpenTo(t *testing.T) {
	open := &Activity{}
	assert.True(t, open.IsOpenTo(membership.TierAdHoc))

	restricted := &Activity{AllowedTiers: []membership.Tier{membership.TierOnceAWeek}}
	assert.True(t, restricted.IsOpenTo(membership.TierOnceAWeek))
	assert.False(t, restricted.IsOpenTo(membership.TierAdHoc))
}
