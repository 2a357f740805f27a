package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/locate-ticket-service/internal/domain"
)

// TicketFilter captures list query parameters.
type TicketFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	AssignedTo  *string
	CreatedBy   *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	Update(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListAll(ctx context.Context) ([]domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Delete(ctx context.Context, id string) error
	ReplaceAll(ctx context.Context, tickets []domain.Ticket) error
	NextTicketSequence(ctx context.Context, year int) (int, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `id, ticket_number, title, description, status, priority, created_by, assigned_to,
               expiration_date, address, city, state, zip_code, lat, lng, work_type,
               estimated_duration, notes, attachments, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, title, description, status, priority, created_by, assigned_to,
            expiration_date, address, city, state, zip_code, lat, lng, work_type, estimated_duration, notes, attachments)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        RETURNING id, created_at, updated_at`
	lat, lng := coordinateColumns(ticket.Location.Coordinates)
	return r.pool.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.CreatedBy,
		ticket.AssignedTo,
		ticket.ExpirationDate,
		ticket.Location.Address,
		ticket.Location.City,
		ticket.Location.State,
		ticket.Location.ZipCode,
		lat,
		lng,
		ticket.WorkType,
		ticket.EstimatedDuration,
		ticket.Notes,
		ticket.Attachments,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$1, description=$2, status=$3, priority=$4, assigned_to=$5,
            expiration_date=$6, address=$7, city=$8, state=$9, zip_code=$10, lat=$11, lng=$12,
            work_type=$13, estimated_duration=$14, notes=$15, attachments=$16, updated_at=$17
        WHERE id=$18`
	lat, lng := coordinateColumns(ticket.Location.Coordinates)
	cmd, err := r.pool.Exec(ctx, query,
		ticket.Title,
		ticket.Description,
		ticket.Status,
		ticket.Priority,
		ticket.AssignedTo,
		ticket.ExpirationDate,
		ticket.Location.Address,
		ticket.Location.City,
		ticket.Location.State,
		ticket.Location.ZipCode,
		lat,
		lng,
		ticket.WorkType,
		ticket.EstimatedDuration,
		ticket.Notes,
		ticket.Attachments,
		ticket.UpdatedAt,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicketRow(row)
}

func (r *ticketRepository) ListAll(ctx context.Context) ([]domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets ORDER BY created_at DESC`, ticketColumns)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	base := fmt.Sprintf(`SELECT %s FROM tickets`, ticketColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("created_by=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(ticket_number) LIKE %s OR LOWER(address) LIKE %s)",
			placeholder, placeholder, placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTickets(rows)
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// ReplaceAll swaps the whole ticket collection inside one transaction. Used
// by the bulk import surface only.
func (r *ticketRepository) ReplaceAll(ctx context.Context, tickets []domain.Ticket) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM tickets`); err != nil {
		return err
	}

	const query = `
        INSERT INTO tickets (id, ticket_number, title, description, status, priority, created_by, assigned_to,
            expiration_date, address, city, state, zip_code, lat, lng, work_type, estimated_duration,
            notes, attachments, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`
	for i := range tickets {
		ticket := &tickets[i]
		lat, lng := coordinateColumns(ticket.Location.Coordinates)
		if _, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.TicketNumber,
			ticket.Title,
			ticket.Description,
			ticket.Status,
			ticket.Priority,
			ticket.CreatedBy,
			ticket.AssignedTo,
			ticket.ExpirationDate,
			ticket.Location.Address,
			ticket.Location.City,
			ticket.Location.State,
			ticket.Location.ZipCode,
			lat,
			lng,
			ticket.WorkType,
			ticket.EstimatedDuration,
			ticket.Notes,
			ticket.Attachments,
			ticket.CreatedAt,
			ticket.UpdatedAt,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// NextTicketSequence increments and returns the per-year ticket counter used
// to format ticket numbers.
func (r *ticketRepository) NextTicketSequence(ctx context.Context, year int) (int, error) {
	const query = `
        INSERT INTO ticket_sequences (year, value) VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET value = ticket_sequences.value + 1
        RETURNING value`
	var value int
	if err := r.pool.QueryRow(ctx, query, year).Scan(&value); err != nil {
		return 0, err
	}
	return value, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var (
		ticket   domain.Ticket
		lat, lng *float64
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.Title,
		&ticket.Description,
		&ticket.Status,
		&ticket.Priority,
		&ticket.CreatedBy,
		&ticket.AssignedTo,
		&ticket.ExpirationDate,
		&ticket.Location.Address,
		&ticket.Location.City,
		&ticket.Location.State,
		&ticket.Location.ZipCode,
		&lat,
		&lng,
		&ticket.WorkType,
		&ticket.EstimatedDuration,
		&ticket.Notes,
		&ticket.Attachments,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		ticket.Location.Coordinates = &domain.Coordinates{Lat: *lat, Lng: *lng}
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func coordinateColumns(c *domain.Coordinates) (lat, lng *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Lat, &c.Lng
}
