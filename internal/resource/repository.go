package resource

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orsched/or-scheduling-backend/internal/pkg/store"
)

type Repository interface {
	Create(ctx context.Context, res *Resource) error
	GetByID(ctx context.Context, id string) (*Resource, error)
	List(ctx context.Context, filter Filter) ([]*Resource, int, error)
}

type pgxRepository struct {
	pool          *pgxpool.Pool
	retryAttempts int
}

func NewPgxRepository(pool *pgxpool.Pool, retryAttempts int) Repository {
	return &pgxRepository{pool: pool, retryAttempts: retryAttempts}
}

func (r *pgxRepository) Create(ctx context.Context, res *Resource) error {
	return store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("begin create resource tx failed: %w", err)
		}
		defer tx.Rollback(ctx)

		const insertResource = `
			INSERT INTO public.resources (kind, name)
			VALUES ($1, $2)
			RETURNING id, created_at
		`
		if err := tx.QueryRow(ctx, insertResource, res.Kind, res.Name).
			Scan(&res.ID, &res.CreatedAt); err != nil {
			return fmt.Errorf("create resource failed: %w", err)
		}

		const insertHours = `
			INSERT INTO public.operating_hours (resource_id, weekday, open_minute, close_minute)
			VALUES ($1, $2, $3, $4)
		`
		for weekday, ranges := range res.Hours {
			for _, hr := range ranges {
				if _, err := tx.Exec(ctx, insertHours, res.ID, int(weekday), hr.Open, hr.Close); err != nil {
					return fmt.Errorf("create operating hours failed: %w", err)
				}
			}
		}

		return tx.Commit(ctx)
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Resource, error) {
	var res *Resource
	err := store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		const query = `
			SELECT id, kind, name, created_at
			FROM public.resources
			WHERE id = $1
		`
		var got Resource
		if err := r.pool.QueryRow(ctx, query, id).
			Scan(&got.ID, &got.Kind, &got.Name, &got.CreatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get resource failed: %w", err)
		}

		hours, err := r.loadHours(ctx, []string{got.ID})
		if err != nil {
			return err
		}
		got.Hours = hours[got.ID]
		if got.Hours == nil {
			got.Hours = WeeklyHours{}
		}

		res = &got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Resource, int, error) {
	var result []*Resource
	var total int

	err := store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
		query := psql.Select("id", "kind", "name", "created_at", "count(*) OVER() as total_count").
			From("public.resources")

		if filter.Kind != "" {
			query = query.Where(squirrel.Eq{"kind": filter.Kind})
		}

		query = query.OrderBy("name ASC", "id ASC")

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
			return fmt.Errorf("build list resources query failed: %w", err)
		}

		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("list resources failed: %w", err)
		}
		defer rows.Close()

		result = result[:0]
		ids := make([]string, 0)
		for rows.Next() {
			var res Resource
			if err := rows.Scan(&res.ID, &res.Kind, &res.Name, &res.CreatedAt, &total); err != nil {
				return fmt.Errorf("scan resource failed: %w", err)
			}
			result = append(result, &res)
			ids = append(ids, res.ID)
		}
		if err := rows.Err(); err != nil {
			return fmt.Errorf("list resources failed: %w", err)
		}

		hours, err := r.loadHours(ctx, ids)
		if err != nil {
			return err
		}
		for _, res := range result {
			res.Hours = hours[res.ID]
			if res.Hours == nil {
				res.Hours = WeeklyHours{}
			}
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// loadHours fetches the weekly templates for a set of resource ids in one query.
func (r *pgxRepository) loadHours(ctx context.Context, ids []string) (map[string]WeeklyHours, error) {
	out := make(map[string]WeeklyHours, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	const query = `
		SELECT resource_id, weekday, open_minute, close_minute
		FROM public.operating_hours
		WHERE resource_id = ANY($1)
		ORDER BY resource_id, weekday, open_minute
	`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("load operating hours failed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var resourceID string
		var weekday int
		var hr HoursRange
		if err := rows.Scan(&resourceID, &weekday, &hr.Open, &hr.Close); err != nil {
			return nil, fmt.Errorf("scan operating hours failed: %w", err)
		}
		if out[resourceID] == nil {
			out[resourceID] = WeeklyHours{}
		}
		day := time.Weekday(weekday)
		out[resourceID][day] = append(out[resourceID][day], hr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load operating hours failed: %w", err)
	}
	return out, nil
}
