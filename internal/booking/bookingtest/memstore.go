// Package bookingtest provides an in-memory store for exercising the booking
// service without a database.
package bookingtest

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/activity"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/booking"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/pkg/timerange"
	"github.com/nekogravitycat/volunteer-booking-backend/internal/user"
)

// Operation names passed to a failure hook.
const (
	OpGetUser            = "GetUser"
	OpGetActivity        = "GetActivity"
	OpGetBooking         = "GetBooking"
	OpListBookings       = "ListBookings"
	OpInsert             = "Insert"
	OpFindUserBookings   = "FindConfirmedBookingsForUser"
	OpCountActivity      = "CountConfirmedBookings"
	OpCountWeekly        = "CountConfirmedBookingsInWindow"
	OpAcquireBookingLock = "WithinBookingLock"
)

// Store keeps users, activities and bookings in memory. Its booking locks
// are keyed like the Postgres advisory locks, so bookings for unrelated
// users and activities proceed in parallel.
type Store struct {
	mu         sync.RWMutex
	users      map[string]*user.User
	activities map[string]*activity.Activity
	bookings   []*booking.Booking

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	fail func(op string) error
}

func NewStore() *Store {
	return &Store{
		users:      make(map[string]*user.User),
		activities: make(map[string]*activity.Activity),
		locks:      make(map[string]*sync.Mutex),
	}
}

// FailWith makes every operation consult hook; a non-nil result is returned as the operation's error.
func (s *Store) FailWith(hook func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = hook
}

func (s *Store) check(op string) error {
	s.mu.RLock()
	hook := s.fail
	s.mu.RUnlock()
	if hook == nil {
		return nil
	}
	return hook(op)
}

// AddUser stores u, assigning an ID when empty.
func (s *Store) AddUser(u user.User) *user.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
	return &u
}

// AddActivity stores a, assigning an ID when empty.
func (s *Store) AddActivity(a activity.Activity) *activity.Activity {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[a.ID] = &a
	return &a
}

// AddBooking stores b directly, bypassing admission checks.
func (s *Store) AddBooking(b booking.Booking) *booking.Booking {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Status == "" {
		b.Status = booking.StatusConfirmed
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = append(s.bookings, &b)
	return &b
}

// Bookings returns a snapshot of all stored bookings.
func (s *Store) Bookings() []booking.Booking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]booking.Booking, 0, len(s.bookings))
	for _, b := range s.bookings {
		out = append(out, *b)
	}
	return out
}

// Users exposes the store as a user.Repository.
func (s *Store) Users() user.Repository { return userRepo{s} }

// Activities exposes the store as an activity.Repository.
func (s *Store) Activities() activity.Repository { return activityRepo{s} }

func (s *Store) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	if err := s.check(OpGetBooking); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bookings {
		if b.ID == id {
			return s.withActivity(*b), nil
		}
	}
	return nil, booking.ErrNotFound
}

func (s *Store) withActivity(b booking.Booking) *booking.Booking {
	if a, ok := s.activities[b.ActivityID]; ok {
		b.ActivityTitle = a.Title
		b.StartTime = a.StartTime
		b.EndTime = a.EndTime
	}
	return &b
}

func (s *Store) List(ctx context.Context, filter booking.Filter) ([]*booking.Booking, int, error) {
	if err := s.check(OpListBookings); err != nil {
		return nil, 0, err
	}
	s.mu.RLock()
	var matched []*booking.Booking
	for _, b := range s.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.ActivityID != "" && b.ActivityID != filter.ActivityID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		matched = append(matched, s.withActivity(*b))
	}
	s.mu.RUnlock()

	desc := filter.SortOrder != "asc" && filter.SortOrder != "ASC"
	sort.SliceStable(matched, func(i, j int) bool {
		ki, kj := matched[i].StartTime, matched[j].StartTime
		if filter.SortBy == "created_at" {
			ki, kj = matched[i].Timestamp, matched[j].Timestamp
		}
		if desc {
			return ki.After(kj)
		}
		return ki.Before(kj)
	})
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func (s *Store) Insert(ctx context.Context, b *booking.Booking) error {
	if err := s.check(OpInsert); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	for _, existing := range s.bookings {
		if existing.ID == b.ID {
			return booking.ErrDuplicateID
		}
	}
	stored := *b
	s.bookings = append(s.bookings, &stored)
	return nil
}

func (s *Store) FindConfirmedBookingsForUser(ctx context.Context, userID string) ([]booking.ScheduledBooking, error) {
	if err := s.check(OpFindUserBookings); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.users[userID]; !ok {
		return nil, user.ErrNotFound
	}
	var out []booking.ScheduledBooking
	for _, b := range s.bookings {
		if b.UserID != userID || b.Status != booking.StatusConfirmed {
			continue
		}
		a, ok := s.activities[b.ActivityID]
		if !ok {
			continue
		}
		out = append(out, booking.ScheduledBooking{
			BookingID:  b.ID,
			ActivityID: a.ID,
			StartTime:  a.StartTime,
			EndTime:    a.EndTime,
			Timestamp:  b.Timestamp,
		})
	}
	return out, nil
}

func (s *Store) CountConfirmedBookings(ctx context.Context, activityID string) (int, error) {
	if err := s.check(OpCountActivity); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.confirmedFor(activityID), nil
}

func (s *Store) confirmedFor(activityID string) int {
	n := 0
	for _, b := range s.bookings {
		if b.ActivityID == activityID && b.Status == booking.StatusConfirmed {
			n++
		}
	}
	return n
}

func (s *Store) CountConfirmedBookingsInWindow(ctx context.Context, userID string, start, end time.Time) (int, error) {
	if err := s.check(OpCountWeekly); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, b := range s.bookings {
		if b.UserID != userID || b.Status != booking.StatusConfirmed {
			continue
		}
		if timerange.Contains(start, end, b.Timestamp) {
			n++
		}
	}
	return n, nil
}

// WithinBookingLock takes the activity lock then the user lock. Bookings
// inserted by fn are removed again if fn fails.
func (s *Store) WithinBookingLock(ctx context.Context, userID, activityID string, fn func(ctx context.Context, repo booking.Repository) error) error {
	if err := s.check(OpAcquireBookingLock); err != nil {
		return err
	}

	for _, key := range []string{"activity:" + activityID, "user:" + userID} {
		m := s.lockFor(key)
		m.Lock()
		defer m.Unlock()
	}

	tx := &txStore{Store: s}
	if err := fn(ctx, tx); err != nil {
		s.rollback(tx.inserted)
		return err
	}
	return nil
}

func (s *Store) lockFor(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	m, ok := s.locks[key]
	if !ok {
		m = &sync.Mutex{}
		s.locks[key] = m
	}
	return m
}

func (s *Store) rollback(ids []string) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bookings = slices.DeleteFunc(s.bookings, func(b *booking.Booking) bool {
		return slices.Contains(ids, b.ID)
	})
}

// txStore is the repository handed to a WithinBookingLock callback.
type txStore struct {
	*Store
	inserted []string
}

func (t *txStore) Insert(ctx context.Context, b *booking.Booking) error {
	if err := t.Store.Insert(ctx, b); err != nil {
		return err
	}
	t.inserted = append(t.inserted, b.ID)
	return nil
}

func (t *txStore) WithinBookingLock(ctx context.Context, userID, activityID string, fn func(ctx context.Context, repo booking.Repository) error) error {
	return fn(ctx, t)
}

type userRepo struct{ s *Store }

func (r userRepo) GetByID(ctx context.Context, id string) (*user.User, error) {
	if err := r.s.check(OpGetUser); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type activityRepo struct{ s *Store }

func (r activityRepo) GetByID(ctx context.Context, id string) (*activity.Activity, error) {
	if err := r.s.check(OpGetActivity); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.activities[id]
	if !ok {
		return nil, activity.ErrNotFound
	}
	cp := *a
	cp.ConfirmedCount = r.s.confirmedFor(a.ID)
	return &cp, nil
}

func (r activityRepo) List(ctx context.Context, filter activity.Filter) ([]*activity.Activity, int, error) {
	if err := r.s.check(OpGetActivity); err != nil {
		return nil, 0, err
	}
	r.s.mu.RLock()
	var matched []*activity.Activity
	for _, a := range r.s.activities {
		if filter.From != nil && !a.EndTime.After(*filter.From) {
			continue
		}
		if filter.To != nil && !a.StartTime.Before(*filter.To) {
			continue
		}
		if filter.Tier != "" && !a.IsOpenTo(filter.Tier) {
			continue
		}
		cp := *a
		cp.ConfirmedCount = r.s.confirmedFor(a.ID)
		matched = append(matched, &cp)
	}
	r.s.mu.RUnlock()

	desc := filter.SortOrder == "desc" || filter.SortOrder == "DESC"
	sort.Slice(matched, func(i, j int) bool {
		if desc {
			return matched[i].StartTime.After(matched[j].StartTime)
		}
		return matched[i].StartTime.Before(matched[j].StartTime)
	})
	return paginate(matched, filter.Page, filter.PageSize), len(matched), nil
}

func paginate[T any](items []T, page, size int) []T {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	start := (page - 1) * size
	if start >= len(items) {
		return nil
	}
	end := min(start+size, len(items))
	return items[start:end]
}
