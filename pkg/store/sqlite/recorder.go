// Package sqlite implements the recorder backend (components C/D) over a
// local file using modernc.org/sqlite, a pure-Go driver with no cgo
// dependency. Queries are hand-written database/sql, not sqlc-generated:
// no sqlc toolchain runs as part of building this module.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"

	"github.com/arcflux/eventstore/pkg/domain"
	"github.com/arcflux/eventstore/pkg/store"
)

// Recorder is the plain sqlite-backed aggregate recorder, with no
// notification index. Used by the parallel snapshot store.
type Recorder struct {
	db *sql.DB
}

// Open opens (creating if absent) a sqlite database at dsn, enables WAL
// mode, and ensures the records table exists.
func Open(dsn string) (*Recorder, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite database: %w", err)
	}
	if _, err := db.Exec(recordsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return &Recorder{db: db}, nil
}

const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	aggregate_id TEXT NOT NULL,
	version      INTEGER NOT NULL,
	topic        TEXT NOT NULL,
	timestamp    TEXT NOT NULL,
	payload      BLOB NOT NULL,
	PRIMARY KEY (aggregate_id, version)
);`

func (r *Recorder) Insert(ctx context.Context, records []store.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapOperational("begin insert", err)
	}
	defer tx.Rollback()

	if err := insertRecords(ctx, tx, "records", records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapOperational("commit insert", err)
	}
	return nil
}

// insertRecords writes records into table within tx. For the notifications
// table, each row's notification id is the sqlite-assigned rowid; callers
// read it back via SelectNotifications/MaxNotificationID rather than here.
func insertRecords(ctx context.Context, tx *sql.Tx, table string, records []store.Record) error {
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s (aggregate_id, version, topic, timestamp, payload) VALUES (?, ?, ?, ?, ?)`, table))
	if err != nil {
		return wrapOperational("prepare insert", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.AggregateID.String(), rec.Version, rec.Topic,
			rec.Timestamp.UTC().Format(time.RFC3339Nano), rec.Payload); err != nil {
			if isUniqueViolation(err) {
				return &domain.IntegrityError{AggregateID: rec.AggregateID.String(), Version: rec.Version}
			}
			return wrapOperational("insert record", err)
		}
	}
	return nil
}

func (r *Recorder) Select(ctx context.Context, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	return selectRecords(ctx, r.db, "records", aggregateID, opts)
}

func selectRecords(ctx context.Context, q queryer, table string, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	var b strings.Builder
	args := []any{aggregateID.String()}
	fmt.Fprintf(&b, `SELECT aggregate_id, version, topic, timestamp, payload FROM %s WHERE aggregate_id = ?`, table)
	if opts.Gt != nil {
		b.WriteString(` AND version > ?`)
		args = append(args, *opts.Gt)
	}
	if opts.Lte != nil {
		b.WriteString(` AND version <= ?`)
		args = append(args, *opts.Lte)
	}
	if opts.Desc {
		b.WriteString(` ORDER BY version DESC`)
	} else {
		b.WriteString(` ORDER BY version ASC`)
	}
	if opts.Limit > 0 {
		b.WriteString(` LIMIT ?`)
		args = append(args, opts.Limit)
	}

	rows, err := q.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, wrapOperational("select records", err)
	}
	defer rows.Close()

	var out []store.Record
	for rows.Next() {
		var (
			rec      store.Record
			idStr    string
			tsStr    string
		)
		if err := rows.Scan(&idStr, &rec.Version, &rec.Topic, &tsStr, &rec.Payload); err != nil {
			return nil, wrapOperational("scan record", err)
		}
		rec.AggregateID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, wrapOperational("parse aggregate id", err)
		}
		rec.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, wrapOperational("parse timestamp", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapOperational("iterate records", err)
	}
	return out, nil
}

func (r *Recorder) Close() error {
	return r.db.Close()
}

var _ store.Recorder = (*Recorder)(nil)

// ApplicationRecorder is the sqlite-backed ApplicationRecorder, storing
// records in a table with an INTEGER PRIMARY KEY rowid alias (not
// AUTOINCREMENT): sqlite reuses the highest rowid after a rolled-back
// transaction, which is exactly the density guarantee the notification
// index needs. AUTOINCREMENT would instead burn ids on every rollback.
type ApplicationRecorder struct {
	db *sql.DB
}

const notificationsSchema = `
CREATE TABLE IF NOT EXISTS notifications (
	id           INTEGER PRIMARY KEY,
	aggregate_id TEXT NOT NULL,
	version      INTEGER NOT NULL,
	topic        TEXT NOT NULL,
	timestamp    TEXT NOT NULL,
	payload      BLOB NOT NULL,
	UNIQUE (aggregate_id, version)
);`

// OpenApplicationRecorder opens (creating if absent) a sqlite database at
// dsn configured for the notification-indexed table.
func OpenApplicationRecorder(dsn string) (*ApplicationRecorder, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL; PRAGMA synchronous = NORMAL; PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure sqlite database: %w", err)
	}
	if _, err := db.Exec(notificationsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite database: %w", err)
	}
	return &ApplicationRecorder{db: db}, nil
}

func (a *ApplicationRecorder) Insert(ctx context.Context, records []store.Record) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapOperational("begin insert", err)
	}
	defer tx.Rollback()

	if err := insertRecords(ctx, tx, "notifications", records); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return wrapOperational("commit insert", err)
	}
	return nil
}

func (a *ApplicationRecorder) Select(ctx context.Context, aggregateID uuid.UUID, opts store.SelectOptions) ([]store.Record, error) {
	return selectRecords(ctx, a.db, "notifications", aggregateID, opts)
}

func (a *ApplicationRecorder) SelectNotifications(ctx context.Context, start uint64, limit int) ([]store.Notification, error) {
	query := `SELECT id, aggregate_id, version, topic, timestamp, payload FROM notifications WHERE id >= ? ORDER BY id ASC`
	args := []any{start}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapOperational("select notifications", err)
	}
	defer rows.Close()

	var out []store.Notification
	for rows.Next() {
		var (
			n     store.Notification
			idStr string
			tsStr string
		)
		if err := rows.Scan(&n.ID, &idStr, &n.Version, &n.Topic, &tsStr, &n.Payload); err != nil {
			return nil, wrapOperational("scan notification", err)
		}
		n.AggregateID, err = uuid.Parse(idStr)
		if err != nil {
			return nil, wrapOperational("parse aggregate id", err)
		}
		n.Timestamp, err = time.Parse(time.RFC3339Nano, tsStr)
		if err != nil {
			return nil, wrapOperational("parse timestamp", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapOperational("iterate notifications", err)
	}
	return out, nil
}

func (a *ApplicationRecorder) MaxNotificationID(ctx context.Context) (uint64, error) {
	var max sql.NullInt64
	if err := a.db.QueryRowContext(ctx, `SELECT MAX(id) FROM notifications`).Scan(&max); err != nil {
		return 0, wrapOperational("max notification id", err)
	}
	if !max.Valid {
		return 0, nil
	}
	return uint64(max.Int64), nil
}

func (a *ApplicationRecorder) Close() error {
	return a.db.Close()
}

var _ store.ApplicationRecorder = (*ApplicationRecorder)(nil)

// queryer is satisfied by both *sql.DB and *sql.Tx, letting selectRecords
// run against either.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func wrapOperational(step string, err error) error {
	return fmt.Errorf("%s: %w: %w", step, domain.ErrOperational, err)
}
