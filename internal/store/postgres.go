package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the subset of *pgxpool.Pool used by PostgresStore.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresStore struct {
	pool DB
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStoreWithDB wraps an existing connection pool.
func NewPostgresStoreWithDB(db DB) *PostgresStore {
	return &PostgresStore{pool: db}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const placeColumns = `place_id, name, lat, lng, review_count, rating, price_level,
	address, website, hours, photo_refs, created_at, updated_at`

func (s *PostgresStore) UpsertPlace(ctx context.Context, p *Place) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO duel_places (place_id, name, lat, lng, review_count, rating, price_level,
			address, website, hours, photo_refs)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (place_id) DO UPDATE SET
			name = EXCLUDED.name, lat = EXCLUDED.lat, lng = EXCLUDED.lng,
			review_count = EXCLUDED.review_count, rating = EXCLUDED.rating,
			price_level = EXCLUDED.price_level, address = EXCLUDED.address,
			website = EXCLUDED.website, hours = EXCLUDED.hours,
			photo_refs = EXCLUDED.photo_refs, updated_at = now()
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Lat, p.Lng, p.ReviewCount, p.Rating, p.PriceLevel,
		p.Address, p.Website, p.Hours, p.PhotoRefs,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (s *PostgresStore) GetPlace(ctx context.Context, id string) (*Place, error) {
	p := &Place{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+placeColumns+`
		FROM duel_places WHERE place_id = $1`, id,
	).Scan(
		&p.ID, &p.Name, &p.Lat, &p.Lng, &p.ReviewCount, &p.Rating, &p.PriceLevel,
		&p.Address, &p.Website, &p.Hours, &p.PhotoRefs, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPlaces returns places ordered by review count, most reviewed first.
func (s *PostgresStore) ListPlaces(ctx context.Context, filter PlaceFilter) ([]*Place, error) {
	query := `SELECT ` + placeColumns + ` FROM duel_places WHERE 1=1`
	args := []any{}
	n := 0

	if filter.MaxPriceLevel != nil {
		n++
		query += fmt.Sprintf(" AND (price_level IS NULL OR price_level <= $%d)", n)
		args = append(args, *filter.MaxPriceLevel)
	}

	query += " ORDER BY review_count DESC, place_id ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPlaces(rows)
}

func (s *PostgresStore) DeletePlace(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM duel_places WHERE place_id = $1`, id)
	return err
}

func (s *PostgresStore) CreateSelectionEvent(ctx context.Context, e *SelectionEvent) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO duel_selection_events (session_id, epoch, slot, chosen_id, installed_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		e.SessionID, e.Epoch, e.Slot, e.ChosenID, e.InstalledID,
	).Scan(&e.ID, &e.CreatedAt)
}

func (s *PostgresStore) GetSelectionEvents(ctx context.Context, sessionID uuid.UUID) ([]*SelectionEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, session_id, epoch, slot, chosen_id, installed_id, created_at
		FROM duel_selection_events WHERE session_id = $1
		ORDER BY created_at ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*SelectionEvent
	for rows.Next() {
		e := &SelectionEvent{}
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Epoch, &e.Slot, &e.ChosenID, &e.InstalledID, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *PostgresStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM duel_places),
			(SELECT COUNT(*) FROM duel_places WHERE price_level IS NOT NULL),
			(SELECT COUNT(*) FROM duel_selection_events),
			(SELECT COUNT(*) FROM duel_selection_events WHERE installed_id IS NULL)`,
	).Scan(&stats.TotalPlaces, &stats.PricedPlaces, &stats.TotalSelections, &stats.Exhaustions)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func scanPlaces(rows pgx.Rows) ([]*Place, error) {
	var places []*Place
	for rows.Next() {
		p := &Place{}
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Lat, &p.Lng, &p.ReviewCount, &p.Rating, &p.PriceLevel,
			&p.Address, &p.Website, &p.Hours, &p.PhotoRefs, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		places = append(places, p)
	}
	return places, rows.Err()
}
