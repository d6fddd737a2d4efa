package activity

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nekogravitycat/volunteer-booking-backend/internal/membership"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Activity, error)
	List(ctx context.Context, filter Filter) ([]*Activity, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const confirmedCountExpr = "(SELECT count(*) FROM public.bookings b WHERE b.activity_id = a.id AND b.status = 'confirmed')"

func (r *pgxRepository) selectColumns() squirrel.SelectBuilder {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	return psql.Select(
		"a.id", "a.title", "a.location", "a.start_time", "a.end_time",
		"a.capacity", "a.allowed_tiers", "a.created_at",
		confirmedCountExpr+" AS confirmed_count",
	).From("public.activities a")
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Activity, error) {
	query, args, err := r.selectColumns().
		Where(squirrel.Eq{"a.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get activity query failed: %w", err)
	}

	var a Activity
	var tiers []string
	if err := r.pool.QueryRow(ctx, query, args...).Scan(
		&a.ID, &a.Title, &a.Location, &a.StartTime, &a.EndTime,
		&a.Capacity, &tiers, &a.CreatedAt, &a.ConfirmedCount,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get activity failed: %w", err)
	}
	a.AllowedTiers = toTiers(tiers)
	return &a, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Activity, int, error) {
	query := r.selectColumns().Column("count(*) OVER() AS total_count")

	// Date range filtering (intersection logic)
	if filter.From != nil {
		query = query.Where(squirrel.Gt{"a.end_time": *filter.From})
	}
	if filter.To != nil {
		query = query.Where(squirrel.Lt{"a.start_time": *filter.To})
	}
	if filter.Tier != "" {
		query = query.Where("(cardinality(a.allowed_tiers) = 0 OR ? = ANY(a.allowed_tiers))", string(filter.Tier))
	}

	orderBy := "a.start_time"
	if filter.SortBy != "" {
		orderBy = "a." + filter.SortBy
	}
	orderDir := "ASC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	// Pagination
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
		return nil, 0, fmt.Errorf("build list activities query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list activities failed: %w", err)
	}
	defer rows.Close()

	var result []*Activity
	var total int

	for rows.Next() {
		var a Activity
		var tiers []string
		if err := rows.Scan(
			&a.ID, &a.Title, &a.Location, &a.StartTime, &a.EndTime,
			&a.Capacity, &tiers, &a.CreatedAt, &a.ConfirmedCount, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan activity failed: %w", err)
		}
		a.AllowedTiers = toTiers(tiers)
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate activities failed: %w", err)
	}

	return result, total, nil
}

func toTiers(raw []string) []membership.Tier {
	if len(raw) == 0 {
		return nil
	}
	tiers := make([]membership.Tier, len(raw))
	for i, s := range raw {
		tiers[i] = membership.Tier(s)
	}
	return tiers
}
