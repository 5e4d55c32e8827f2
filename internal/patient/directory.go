// Package patient is the read-only patient directory the scheduling core
// uses to label appointments. The directory may be empty or stale; callers
// always get a usable label back, falling back to the raw id number.
package patient

import (
	"context"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Directory resolves a patient id number to a display label.
type Directory interface {
	Label(ctx context.Context, idNumber string) string
}

// Static is a fixed in-memory directory for tests and tooling.
type Static map[string]string

func (s Static) Label(ctx context.Context, idNumber string) string {
	if name, ok := s[idNumber]; ok {
		return name
	}
	return idNumber
}

// PgDirectory looks labels up in the patients table with a small LRU in
// front; labels are read on every notification render.
type PgDirectory struct {
	pool  *pgxpool.Pool
	cache *lru.Cache[string, string]
	log   zerolog.Logger
}

func NewPgDirectory(pool *pgxpool.Pool, cacheSize int, log zerolog.Logger) (*PgDirectory, error) {
	if cacheSize <= 0 {
		cacheSize = 512
	}
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, err
	}
	return &PgDirectory{pool: pool, cache: cache, log: log}, nil
}

func (d *PgDirectory) Label(ctx context.Context, idNumber string) string {
	if idNumber == "" {
		return idNumber
	}
	if name, ok := d.cache.Get(idNumber); ok {
		return name
	}

	var name string
	err := d.pool.QueryRow(ctx,
		`SELECT full_name FROM patients WHERE id_number = $1`, idNumber,
	).Scan(&name)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			d.log.Warn().Str("patient", idNumber).Err(err).Msg("patient directory lookup failed")
		}
		// Stale or empty directory: the raw id is still a valid label.
		return idNumber
	}

	d.cache.Add(idNumber, name)
	return name
}

var (
	_ Directory = Static(nil)
	_ Directory = (*PgDirectory)(nil)
)
