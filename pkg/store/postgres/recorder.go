// Package postgres implements the recorder backend (components C/D) over
// a shared jackc/pgx/v5 connection pool. A pgxpool.Pool is itself a
// connection pool, so the "one connection per worker" shape the spec
// describes for other backends becomes "the pool's max size bounds worker
// concurrency" here; see DESIGN.md.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/store"
)

// Recorder is the plain postgres-backed aggregate recorder, with no
// notification index. Used by the parallel snapshot store.
type Recorder struct {
	pool *pgxpool.Pool
}

// Open connects to dsn and ensures the records table exists.
func Open(ctx context.Context, dsn string) (*Recorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, recordsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres database: %w", err)
	}
	return &Recorder{pool: pool}, nil
}

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	aggregate_id UUID NOT NULL,
	version      BIGINT NOT NULL,
	topic        TEXT NOT NULL,
	timestamp    TIMESTAMPTZ NOT NULL,
	payload      BYTEA NOT NULL,
	PRIMARY KEY (aggregate_id, version)
);`

func (r *Recorder) Insert(ctx context.Context, records []store.Record) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return wrapOperational("begin insert", err)
	}
	defer tx.Rollback(ctx)

	if err := insertRecords(ctx, tx, "records", records); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapOperational("commit insert", err)
	}
	return nil
}

func insertRecords(ctx context.Context, tx pgx.Tx, table string, records []store.Record) error {
	for _, rec := range records {
		_, err := tx.Exec(ctx, fmt.Sprintf(
			`INSERT INTO %s (aggregate_id, version, topic, timestamp, payload) VALUES ($1, $2, $3, $4, $5)`, table),
			rec.AggregateID, rec.Version, rec.Topic, rec.Timestamp, rec.Payload)
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.IntegrityError{AggregateID: rec.AggregateID.String(), Version: rec.Version}
			}
			return wrapOperational("insert record", err)
		}
	}
	return nil
}

func (r *Recorder) Select(ctx context.Context, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	return selectRecords(ctx, r.pool, "records", aggregateID, opts)
}

func selectRecords(ctx context.Context, q querier, table string, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	query := fmt.Sprintf(`SELECT aggregate_id, version, topic, timestamp, payload FROM %s WHERE aggregate_id = $1`, table)
	args := []any{aggregateID}
	argn := 1

	if opts.Gt != nil {
		argn++
		query += fmt.Sprintf(` AND version > $%d`, argn)
		args = append(args, *opts.Gt)
	}
	if opts.Lte != nil {
		argn++
		query += fmt.Sprintf(` AND version <= $%d`, argn)
		args = append(args, *opts.Lte)
	}
	if opts.Desc {
		query += ` ORDER BY version DESC`
	} else {
		query += ` ORDER BY version ASC`
	}
	if opts.Limit > 0 {
		argn++
		query += fmt.Sprintf(` LIMIT $%d`, argn)
		args = append(args, opts.Limit)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapOperational("select records", err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var rec store.Record
		if err := rows.Scan(&rec.AggregateID, &rec.Version, &rec.Topic, &rec.Timestamp, &rec.Payload); err != nil {
			return nil, wrapOperational("scan record", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapOperational("iterate records", err)
	}
	return out, nil
}

func (r *Recorder) Close() error {
	r.pool.Close()
	return nil
}

var _ store.Recorder = (*Recorder)(nil)

// ApplicationRecorder is the postgres-backed ApplicationRecorder. The
// notification id is NOT a BIGSERIAL column: postgres sequences advance
// outside transaction boundaries, so a nextval() consumed by a row that
// later aborts (e.g. the UNIQUE(aggregate_id, version) conflict on a later
// row in the same batch) is burned permanently, leaving a gap. Instead a
// single-row notification_counter table tracks the next id; it is
// advanced with an ordinary UPDATE inside the same transaction as the
// batch insert, so a rollback undoes the advance exactly like it undoes
// the inserted rows, keeping the index dense the way
// pkg/store/memory and pkg/store/sqlite's non-AUTOINCREMENT rowid both
// are.
type ApplicationRecorder struct {
	pool *pgxpool.Pool
}

const notificationsSchema = `
CREATE TABLE IF NOT EXISTS notifications (
	id           BIGINT PRIMARY KEY,
	aggregate_id UUID NOT NULL,
	version      BIGINT NOT NULL,
	topic        TEXT NOT NULL,
	timestamp    TIMESTAMPTZ NOT NULL,
	payload      BYTEA NOT NULL,
	UNIQUE (aggregate_id, version)
);
CREATE TABLE IF NOT EXISTS notification_counter (
	id    BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (id),
	value BIGINT NOT NULL
);
INSERT INTO notification_counter (id, value) VALUES (TRUE, 0) ON CONFLICT (id) DO NOTHING;`

// OpenApplicationRecorder connects to dsn and ensures the notifications
// table and its counter exist.
func OpenApplicationRecorder(ctx context.Context, dsn string) (*ApplicationRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if _, err := pool.Exec(ctx, notificationsSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres database: %w", err)
	}
	return &ApplicationRecorder{pool: pool}, nil
}

func (a *ApplicationRecorder) Insert(ctx context.Context, records []store.Record) error {
	tx, err := a.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return wrapOperational("begin insert", err)
	}
	defer tx.Rollback(ctx)

	var next uint64
	if err := tx.QueryRow(ctx,
		`UPDATE notification_counter SET value = value + $1 WHERE id RETURNING value`,
		len(records),
	).Scan(&next); err != nil {
		return wrapOperational("advance notification counter", err)
	}
	start := next - uint64(len(records)) + 1

	for i, rec := range records {
		_, err := tx.Exec(ctx,
			`INSERT INTO notifications (id, aggregate_id, version, topic, timestamp, payload) VALUES ($1, $2, $3, $4, $5, $6)`,
			start+uint64(i), rec.AggregateID, rec.Version, rec.Topic, rec.Timestamp, rec.Payload)
		if err != nil {
			if isUniqueViolation(err) {
				return &domain.IntegrityError{AggregateID: rec.AggregateID.String(), Version: rec.Version}
			}
			return wrapOperational("insert record", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapOperational("commit insert", err)
	}
	return nil
}

func (a *ApplicationRecorder) Select(ctx context.Context, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	return selectRecords(ctx, a.pool, "notifications", aggregateID, opts)
}

func (a *ApplicationRecorder) SelectNotifications(ctx context.Context, start uint64, limit int) ([]store.Notification, error) {
	query := `SELECT id, aggregate_id, version, topic, timestamp, payload FROM notifications WHERE id >= $1 ORDER BY id ASC`
	args := []any{start}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := a.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapOperational("select notifications", err)
	}
	defer rows.Close()

	var out []store.Notification
	for rows.Next() {
		var n store.Notification
		if err := rows.Scan(&n.ID, &n.AggregateID, &n.Version, &n.Topic, &n.Timestamp, &n.Payload); err != nil {
			return nil, wrapOperational("scan notification", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapOperational("iterate notifications", err)
	}
	return out, nil
}

func (a *ApplicationRecorder) MaxNotificationID(ctx context.Context) (uint64, error) {
	var max int64
	if err := a.pool.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM notifications`).Scan(&max); err != nil {
		return 0, wrapOperational("max notification id", err)
	}
	return uint64(max), nil
}

func (a *ApplicationRecorder) Close() error {
	a.pool.Close()
	return nil
}

var _ store.ApplicationRecorder = (*ApplicationRecorder)(nil)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func wrapOperational(step string, err error) error {
	return fmt.Errorf("%s: %w: %w", step, domain.ErrOperational, err)
}
