package appointment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgCollection stores one jsonb row per appointment. Document rows keep the
// tolerant-read policy honest: a payload written by an older build stays
// readable as bytes even when it no longer parses, and the Store decides what
// to drop.
type PgCollection struct {
	pool   *pgxpool.Pool
	notify func()
}

// NewPgCollection creates a Postgres-backed collection. notify, when non-nil,
// is called after every successful write; it feeds the cross-view change
// subscription and is never used for correctness.
func NewPgCollection(pool *pgxpool.Pool, notify func()) *PgCollection {
	return &PgCollection{pool: pool, notify: notify}
}

func (c *PgCollection) LoadAll(ctx context.Context) ([]RawRecord, error) {
	rows, err := c.pool.Query(ctx, `
		SELECT id, data, start_time
		FROM appointments
		ORDER BY start_time NULLS LAST, id
	`)
	if err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}
	defer rows.Close()

	var result []RawRecord
	for rows.Next() {
		var rec RawRecord
		var start *time.Time
		if err := rows.Scan(&rec.ID, &rec.Data, &start); err != nil {
			return nil, &PersistenceError{Op: "read", Err: err}
		}
		if start != nil {
			rec.Start = *start
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, &PersistenceError{Op: "read", Err: err}
	}

	return result, nil
}

func (c *PgCollection) Insert(ctx context.Context, rec RawRecord) error {
	_, err := c.pool.Exec(ctx, `
		INSERT INTO appointments (id, data, start_time)
		VALUES ($1, $2, $3)
	`, rec.ID, rec.Data, rec.Start)
	if err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}

	c.changed()
	return nil
}

func (c *PgCollection) Update(ctx context.Context, rec RawRecord) error {
	_, err := c.pool.Exec(ctx, `
		UPDATE appointments
		SET data = $2,
		    start_time = $3
		WHERE id = $1
	`, rec.ID, rec.Data, rec.Start)
	if err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}

	c.changed()
	return nil
}

func (c *PgCollection) Delete(ctx context.Context, id string) error {
	_, err := c.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}

	c.changed()
	return nil
}

func (c *PgCollection) ReplaceAll(ctx context.Context, recs []RawRecord) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM appointments`); err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}

	for _, rec := range recs {
		_, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, data, start_time)
			VALUES ($1, $2, $3)
		`, rec.ID, rec.Data, rec.Start)
		if err != nil {
			return &PersistenceError{Op: "write", Err: fmt.Errorf("insert %s: %w", rec.ID, err)}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return &PersistenceError{Op: "write", Err: err}
	}

	c.changed()
	return nil
}

func (c *PgCollection) changed() {
	if c.notify != nil {
		c.notify()
	}
}

var _ Collection = (*PgCollection)(nil)
