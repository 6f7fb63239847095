package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skycast/skycast/internal/weather"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
//
// Schema:
//
//	locations          (id int PK, name text, lat float8, lon float8,
//	                    country text, is_favorite bool)
//	current_conditions (location_id int PK REFERENCES locations(id),
//	                    lat float8, lon float8, observed_at timestamptz,
//	                    temp float8, temp_min float8, temp_max float8,
//	                    category text)
//	daily_forecasts    (location_id int REFERENCES locations(id),
//	                    observed_at timestamptz, temp float8,
//	                    temp_min float8, temp_max float8, category text)
//
// The owned-row replacement is explicit delete-then-insert inside one
// transaction; the contract does not rely on FK cascade behavior.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL location repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a record with its owned rows.
func (r *PostgresRepository) Get(ctx context.Context, id int) (*Record, error) {
	query := `
		SELECT
			l.id, l.name, l.lat, l.lon, l.country, l.is_favorite,
			c.lat, c.lon, c.observed_at, c.temp, c.temp_min, c.temp_max, c.category
		FROM locations l
		JOIN current_conditions c ON c.location_id = l.id
		WHERE l.id = $1
	`

	var rec Record
	var category string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&rec.ID,
		&rec.Name,
		&rec.Coord.Lat,
		&rec.Coord.Lon,
		&rec.Country,
		&rec.IsFavorite,
		&rec.Current.Coord.Lat,
		&rec.Current.Coord.Lon,
		&rec.Current.ObservedAt,
		&rec.Current.Temp,
		&rec.Current.TempMin,
		&rec.Current.TempMax,
		&category,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.Current.Category = weather.Category(category)

	daily, err := r.loadDaily(ctx, id)
	if err != nil {
		return nil, err
	}
	rec.Daily = daily

	return &rec, nil
}

// List retrieves all records sorted by name.
func (r *PostgresRepository) List(ctx context.Context) ([]*Record, error) {
	query := `
		SELECT
			l.id, l.name, l.lat, l.lon, l.country, l.is_favorite,
			c.lat, c.lon, c.observed_at, c.temp, c.temp_min, c.temp_max, c.category
		FROM locations l
		JOIN current_conditions c ON c.location_id = l.id
		ORDER BY l.name ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		var rec Record
		var category string
		err := rows.Scan(
			&rec.ID,
			&rec.Name,
			&rec.Coord.Lat,
			&rec.Coord.Lon,
			&rec.Country,
			&rec.IsFavorite,
			&rec.Current.Coord.Lat,
			&rec.Current.Coord.Lon,
			&rec.Current.ObservedAt,
			&rec.Current.Temp,
			&rec.Current.TempMin,
			&rec.Current.TempMax,
			&category,
		)
		if err != nil {
			return nil, err
		}
		rec.Current.Category = weather.Category(category)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, rec := range records {
		daily, err := r.loadDaily(ctx, rec.ID)
		if err != nil {
			return nil, err
		}
		rec.Daily = daily
	}

	return records, nil
}

// loadDaily fetches a record's daily rows ordered by observation time.
func (r *PostgresRepository) loadDaily(ctx context.Context, id int) ([]weather.DailyForecast, error) {
	query := `
		SELECT observed_at, temp, temp_min, temp_max, category
		FROM daily_forecasts
		WHERE location_id = $1
		ORDER BY observed_at ASC
	`

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var daily []weather.DailyForecast
	for rows.Next() {
		var d weather.DailyForecast
		var category string
		if err := rows.Scan(&d.ObservedAt, &d.Temp, &d.TempMin, &d.TempMax, &category); err != nil {
			return nil, err
		}
		d.Category = weather.Category(category)
		daily = append(daily, d)
	}
	return daily, rows.Err()
}

// Replace atomically creates or updates the record and replaces its
// owned rows wholesale.
func (r *PostgresRepository) Replace(ctx context.Context, rec *Record) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	// is_favorite is preserved on conflict; only the service layer
	// flips it via SetFavorite.
	_, err = tx.Exec(ctx, `
		INSERT INTO locations (id, name, lat, lon, country, is_favorite)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			country = EXCLUDED.country
	`, rec.ID, rec.Name, rec.Coord.Lat, rec.Coord.Lon, rec.Country, rec.IsFavorite)
	if err != nil {
		return fmt.Errorf("upsert location: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM current_conditions WHERE location_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("delete current conditions: %w", err)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO current_conditions
			(location_id, lat, lon, observed_at, temp, temp_min, temp_max, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, rec.ID,
		rec.Current.Coord.Lat, rec.Current.Coord.Lon, rec.Current.ObservedAt,
		rec.Current.Temp, rec.Current.TempMin, rec.Current.TempMax,
		string(rec.Current.Category))
	if err != nil {
		return fmt.Errorf("insert current conditions: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM daily_forecasts WHERE location_id = $1`, rec.ID); err != nil {
		return fmt.Errorf("delete daily forecasts: %w", err)
	}
	for _, d := range rec.Daily {
		_, err = tx.Exec(ctx, `
			INSERT INTO daily_forecasts
				(location_id, observed_at, temp, temp_min, temp_max, category)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, rec.ID, d.ObservedAt, d.Temp, d.TempMin, d.TempMax, string(d.Category))
		if err != nil {
			return fmt.Errorf("insert daily forecast: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// Delete removes the record and its owned rows.
func (r *PostgresRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.Exec(ctx, `DELETE FROM daily_forecasts WHERE location_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM current_conditions WHERE location_id = $1`, id); err != nil {
		return err
	}
	result, err := tx.Exec(ctx, `DELETE FROM locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return tx.Commit(ctx)
}

// SetFavorite updates the favorite flag of an existing record.
func (r *PostgresRepository) SetFavorite(ctx context.Context, id int, favorite bool) error {
	result, err := r.pool.Exec(ctx, `UPDATE locations SET is_favorite = $2 WHERE id = $1`, id, favorite)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
