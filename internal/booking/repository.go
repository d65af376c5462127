package booking

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

const bookingColumns = "id, patient_id, procedure_name, room_id, surgeon_id, anesthesiologist_id, " +
	"scheduled_start, duration_minutes, status, cancellation_reason, outcome_notes, created_at, updated_at"

type Repository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	List(ctx context.Context, filter Filter) ([]*Booking, int, error)
	Update(ctx context.Context, b *Booking) error

	// ListActive returns Scheduled bookings that reference any of the given
	// resource ids and whose interval overlaps [from, to).
	ListActive(ctx context.Context, resourceIDs []string, from, to time.Time) ([]*Booking, error)
}

type pgxRepository struct {
	pool          *pgxpool.Pool
	retryAttempts int
}

func NewPgxRepository(pool *pgxpool.Pool, retryAttempts int) Repository {
	return &pgxRepository{pool: pool, retryAttempts: retryAttempts}
}

func (r *pgxRepository) Create(ctx context.Context, b *Booking) error {
	return store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
		query, args, err := psql.Insert("public.bookings").
			Columns("patient_id", "procedure_name", "room_id", "surgeon_id", "anesthesiologist_id",
				"scheduled_start", "duration_minutes", "status").
			Values(b.PatientID, b.Procedure, b.RoomID, b.SurgeonID, b.AnesthesiologistID,
				b.ScheduledStart, b.DurationMinutes, b.Status).
			Suffix("RETURNING id, created_at, updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build create booking query failed: %w", err)
		}

		if err := r.pool.QueryRow(ctx, query, args...).
			Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return fmt.Errorf("create booking failed: %w", err)
		}
		return nil
	})
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Booking, error) {
	var b *Booking
	err := store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		query := "SELECT " + bookingColumns + " FROM public.bookings WHERE id = $1"

		got, err := scanBooking(r.pool.QueryRow(ctx, query, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("get booking failed: %w", err)
		}
		b = got
		return nil
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Booking, int, error) {
	var bookings []*Booking
	var total int

	err := store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
		query := psql.Select(bookingColumns, "count(*) OVER() as total_count").
			From("public.bookings")

		if filter.Status != "" {
			query = query.Where(squirrel.Eq{"status": filter.Status})
		}
		if filter.SurgeonID != "" {
			query = query.Where(squirrel.Eq{"surgeon_id": filter.SurgeonID})
		}
		if filter.From != nil {
			query = query.Where(squirrel.GtOrEq{"scheduled_start": *filter.From})
		}
		if filter.To != nil {
			query = query.Where(squirrel.LtOrEq{"scheduled_start": *filter.To})
		}

		// Stable ordering: ascending start, id breaks ties.
		query = query.OrderBy("scheduled_start ASC", "id ASC")

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
			return fmt.Errorf("build list bookings query failed: %w", err)
		}

		rows, err := r.pool.Query(ctx, sql, args...)
		if err != nil {
			return fmt.Errorf("list bookings failed: %w", err)
		}
		defer rows.Close()

		bookings = bookings[:0]
		for rows.Next() {
			var b Booking
			if err := rows.Scan(
				&b.ID, &b.PatientID, &b.Procedure, &b.RoomID, &b.SurgeonID, &b.AnesthesiologistID,
				&b.ScheduledStart, &b.DurationMinutes, &b.Status, &b.CancellationReason, &b.OutcomeNotes,
				&b.CreatedAt, &b.UpdatedAt, &total,
			); err != nil {
				return fmt.Errorf("scan booking failed: %w", err)
			}
			bookings = append(bookings, &b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

func (r *pgxRepository) Update(ctx context.Context, b *Booking) error {
	return store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
		query, args, err := psql.Update("public.bookings").
			Set("patient_id", b.PatientID).
			Set("procedure_name", b.Procedure).
			Set("room_id", b.RoomID).
			Set("surgeon_id", b.SurgeonID).
			Set("anesthesiologist_id", b.AnesthesiologistID).
			Set("scheduled_start", b.ScheduledStart).
			Set("duration_minutes", b.DurationMinutes).
			Set("status", b.Status).
			Set("cancellation_reason", b.CancellationReason).
			Set("outcome_notes", b.OutcomeNotes).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": b.ID}).
			Suffix("RETURNING updated_at").
			ToSql()
		if err != nil {
			return fmt.Errorf("build update booking query failed: %w", err)
		}

		if err := r.pool.QueryRow(ctx, query, args...).Scan(&b.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("update booking failed: %w", err)
		}
		return nil
	})
}

func (r *pgxRepository) ListActive(ctx context.Context, resourceIDs []string, from, to time.Time) ([]*Booking, error) {
	var bookings []*Booking

	err := store.Do(ctx, r.retryAttempts, func(ctx context.Context) error {
		query := "SELECT " + bookingColumns + `
			FROM public.bookings
			WHERE status = 'scheduled'
			  AND (room_id = ANY($1) OR surgeon_id = ANY($1) OR anesthesiologist_id = ANY($1))
			  AND scheduled_start < $3
			  AND scheduled_start + make_interval(mins => duration_minutes) > $2
			ORDER BY scheduled_start ASC, id ASC
		`

		rows, err := r.pool.Query(ctx, query, resourceIDs, from, to)
		if err != nil {
			return fmt.Errorf("list active bookings failed: %w", err)
		}
		defer rows.Close()

		bookings = bookings[:0]
		for rows.Next() {
			var b Booking
			if err := rows.Scan(
				&b.ID, &b.PatientID, &b.Procedure, &b.RoomID, &b.SurgeonID, &b.AnesthesiologistID,
				&b.ScheduledStart, &b.DurationMinutes, &b.Status, &b.CancellationReason, &b.OutcomeNotes,
				&b.CreatedAt, &b.UpdatedAt,
			); err != nil {
				return fmt.Errorf("scan booking failed: %w", err)
			}
			bookings = append(bookings, &b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID, &b.PatientID, &b.Procedure, &b.RoomID, &b.SurgeonID, &b.AnesthesiologistID,
		&b.ScheduledStart, &b.DurationMinutes, &b.Status, &b.CancellationReason, &b.OutcomeNotes,
		&b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}
