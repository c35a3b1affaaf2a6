package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/UnknownOlympus/haulage/internal/models"
	"github.com/jackc/pgx/v5"
)

const schema = `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		query      TEXT PRIMARY KEY,
		address    TEXT NOT NULL,
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE TABLE IF NOT EXISTS pricing_profiles (
		name       TEXT PRIMARY KEY,
		config     JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

// EnsureSchema creates the cache and profile tables when they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// normalizeQuery folds case and whitespace so that equivalent address texts share a cache row.
func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// GetLocation returns the cached location for an address query, or nil when the query was never resolved.
func (r *Repository) GetLocation(ctx context.Context, query string) (*models.Location, error) {
	const q = `
		SELECT address, latitude, longitude
		FROM geocode_cache
		WHERE query = $1;
	`

	var loc models.Location
	err := r.db.QueryRow(ctx, q, normalizeQuery(query)).
		Scan(&loc.Address, &loc.Coordinates.Latitude, &loc.Coordinates.Longitude)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil //nolint:nilnil // a miss is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read geocode cache: %w", err)
	}

	r.log.DebugContext(ctx, "Geocode cache hit", "query", query, "address", loc.Address)

	return &loc, nil
}

// PutLocation stores or refreshes the location resolved for an address query.
func (r *Repository) PutLocation(ctx context.Context, query string, loc models.Location) error {
	key := normalizeQuery(query)
	if key == "" {
		return errors.New("failed to write geocode cache: empty query")
	}

	const q = `
		INSERT INTO geocode_cache (query, address, latitude, longitude)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (query) DO UPDATE
		SET
			address = EXCLUDED.address,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			updated_at = now();
	`

	_, err := r.db.Exec(ctx, q, key, loc.Address, loc.Coordinates.Latitude, loc.Coordinates.Longitude)
	if err != nil {
		return fmt.Errorf("failed to write geocode cache: %w", err)
	}

	return nil
}

// FetchPricingProfile loads a named pricing configuration.
// It returns ErrProfileNotFound when no profile is stored under name.
func (r *Repository) FetchPricingProfile(ctx context.Context, name string) (*models.PricingConfig, error) {
	const q = `
		SELECT config
		FROM pricing_profiles
		WHERE name = $1;
	`

	var raw []byte
	err := r.db.QueryRow(ctx, q, name).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrProfileNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing profile: %w", err)
	}

	var cfg models.PricingConfig
	if err = json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode pricing profile %q: %w", name, err)
	}

	return &cfg, nil
}

// SavePricingProfile creates or replaces a named pricing configuration.
func (r *Repository) SavePricingProfile(ctx context.Context, name string, cfg models.PricingConfig) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("failed to save pricing profile: empty name")
	}

	payload, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode pricing profile: %w", err)
	}

	const q = `
		INSERT INTO pricing_profiles (name, config)
		VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE
		SET
			config = EXCLUDED.config,
			updated_at = now();
	`

	if _, err = r.db.Exec(ctx, q, name, string(payload)); err != nil {
		return fmt.Errorf("failed to save pricing profile: %w", err)
	}

	r.log.InfoContext(ctx, "Pricing profile saved", "name", name)

	return nil
}

// ListPricingProfiles returns the names of all stored profiles in alphabetical order.
func (r *Repository) ListPricingProfiles(ctx context.Context) ([]string, error) {
	const q = `
		SELECT name
		FROM pricing_profiles
		ORDER BY name ASC;
	`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query pricing profiles: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if errScan := rows.Scan(&name); errScan != nil {
			return nil, fmt.Errorf("failed to scan pricing profile: %w", errScan)
		}
		names = append(names, name)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read row: %w", err)
	}

	return names, nil
}
