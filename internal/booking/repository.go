package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/user"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)

	// Insert stores b. When b.ID is empty the store assigns one.
	// Returns ErrDuplicateID if b.ID is already taken.
	Insert(ctx context.Context, b *Booking) error

	// FindConfirmedBookingsForUser returns the user's confirmed bookings with
	// their activity windows. Returns user.ErrNotFound if the user does not exist.
	FindConfirmedBookingsForUser(ctx context.Context, userID string) ([]ScheduledBooking, error)

	// CountConfirmedBookings counts confirmed bookings for an activity.
	CountConfirmedBookings(ctx context.Context, activityID string) (int, error)

	// CountConfirmedBookingsInWindow counts the user's confirmed bookings whose
	// timestamp lies within [start, end].
	CountConfirmedBookingsInWindow(ctx context.Context, userID string, start, end time.Time) (int, error)

	// WithinBookingLock runs fn while holding exclusive locks on the activity
	// and the user. Reads and writes made through the repo passed to fn are
	// committed together when fn returns nil and discarded otherwise.
	WithinBookingLock(ctx context.Context, userID, activityID string, fn func(ctx context.Context, repo Repository) error) error
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type pgxRepository struct {
	pool *pgxpool.Pool
	db   querier
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool, db: pool}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

func (r *pgxRepository) selectColumns() squirrel.SelectBuilder {
	return psql.Select(
		"b.id", "b.user_id", "b.activity_id", "b.status", "b.created_at",
		"a.title", "a.start_time", "a.end_time",
	).
		From("public.bookings b").
		Join("public.activities a ON b.activity_id = a.id")
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	query, args, err := r.selectColumns().
		Where(squirrel.Eq{"b.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get booking query failed: %w", err)
	}

	var b Booking
	if err := r.db.QueryRow(ctx, query, args...).Scan(
		&b.ID, &b.UserID, &b.ActivityID, &b.Status, &b.Timestamp,
		&b.ActivityTitle, &b.StartTime, &b.EndTime,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	query := r.selectColumns().Column("count(*) OVER() AS total_count")

	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"b.user_id": filter.UserID})
	}
	if filter.ActivityID != "" {
		query = query.Where(squirrel.Eq{"b.activity_id": filter.ActivityID})
	}
	if filter.Status != "" {
		query = query.Where(squirrel.Eq{"b.status": filter.Status})
	}

	orderBy := "a.start_time"
	switch filter.SortBy {
	case "created_at":
		orderBy = "b.created_at"
	case "start_time":
		orderBy = "a.start_time"
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}
	defer rows.Close()

	var bookings []*Booking
	var total int
	for rows.Next() {
		var b Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ActivityID, &b.Status, &b.Timestamp,
			&b.ActivityTitle, &b.StartTime, &b.EndTime, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking failed: %w", err)
		}
		bookings = append(bookings, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list bookings failed: %w", err)
	}

	return bookings, total, nil
}

func (r *pgxRepository) Insert(ctx context.Context, b *Booking) error {
	cols := []string{"user_id", "activity_id", "status", "created_at"}
	vals := []any{b.UserID, b.ActivityID, b.Status, b.Timestamp}
	if b.ID != "" {
		cols = append([]string{"id"}, cols...)
		vals = append([]any{b.ID}, vals...)
	}

	query, args, err := psql.Insert("public.bookings").
		Columns(cols...).
		Values(vals...).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert booking query failed: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&b.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation && pgErr.ConstraintName == "bookings_pkey" {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) FindConfirmedBookingsForUser(ctx context.Context, userID string) ([]ScheduledBooking, error) {
	// Driving from users distinguishes "no such user" from "no bookings".
	query, args, err := psql.Select("b.id", "b.activity_id", "a.start_time", "a.end_time", "b.created_at").
		From("public.users u").
		LeftJoin("public.bookings b ON b.user_id = u.id AND b.status = ?", StatusConfirmed).
		LeftJoin("public.activities a ON a.id = b.activity_id").
		Where(squirrel.Eq{"u.id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find user bookings query failed: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find user bookings failed: %w", err)
	}
	defer rows.Close()

	userFound := false
	var out []ScheduledBooking
	for rows.Next() {
		userFound = true
		var (
			bookingID, activityID *string
			start, end, ts        *time.Time
		)
		if err := rows.Scan(&bookingID, &activityID, &start, &end, &ts); err != nil {
			return nil, fmt.Errorf("scan user booking failed: %w", err)
		}
		if bookingID == nil || start == nil || end == nil {
			continue
		}
		out = append(out, ScheduledBooking{
			BookingID:  *bookingID,
			ActivityID: *activityID,
			StartTime:  *start,
			EndTime:    *end,
			Timestamp:  *ts,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find user bookings failed: %w", err)
	}
	if !userFound {
		return nil, user.ErrNotFound
	}
	return out, nil
}

func (r *pgxRepository) CountConfirmedBookings(ctx context.Context, activityID string) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("public.bookings").
		Where(squirrel.Eq{"activity_id": activityID, "status": StatusConfirmed}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count bookings query failed: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings failed: %w", err)
	}
	return n, nil
}

func (r *pgxRepository) CountConfirmedBookingsInWindow(ctx context.Context, userID string, start, end time.Time) (int, error) {
	query, args, err := psql.Select("count(*)").
		From("public.bookings").
		Where(squirrel.Eq{"user_id": userID, "status": StatusConfirmed}).
		Where(squirrel.GtOrEq{"created_at": start}).
		Where(squirrel.LtOrEq{"created_at": end}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count weekly bookings query failed: %w", err)
	}

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count weekly bookings failed: %w", err)
	}
	return n, nil
}

// Lock keys share one namespace, so activities and users are prefixed.
// Activity is always taken first to keep the acquisition order fixed.
const lockSQL = "SELECT pg_advisory_xact_lock(hashtext($1))"

func (r *pgxRepository) WithinBookingLock(ctx context.Context, userID, activityID string, fn func(ctx context.Context, repo Repository) error) error {
	if _, nested := r.db.(pgx.Tx); nested {
		return fn(ctx, r)
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, lockSQL, "activity:"+activityID); err != nil {
			return fmt.Errorf("lock activity failed: %w", err)
		}
		if _, err := tx.Exec(ctx, lockSQL, "user:"+userID); err != nil {
			return fmt.Errorf("lock user failed: %w", err)
		}
		return fn(ctx, &pgxRepository{pool: r.pool, db: tx})
	})
}
