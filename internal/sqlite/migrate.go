package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// schemaKind is the type column of sqlite_schema.
type schemaKind string

const (
	schemaKindTable   schemaKind = "table"
	schemaKindTrigger schemaKind = "trigger"
	schemaKindIndex   schemaKind = "index"
)

// changedSchema is an entity whose definition differs between the live and the target schema.
type changedSchema struct {
	name    string
	liveSQL string
	newSQL  string
}

// schemaDiff lists the differences of one schema kind between the live database and the target.
type schemaDiff struct {
	deleted []string
	created []string
	changed []changedSchema
}

// migrateTo makes the live schema match schemaDefinition.
//
// The migration is declarative. The target schema is created in an attached in-memory database and compared with
// the live one through sqlite_schema. Tables are synchronised first, changed tables are rebuilt with the 12-step
// procedure from https://www.sqlite.org/lang_altertable.html#otheralter, then triggers and indexes follow.
//
// Inspired by https://david.rothlis.net/declarative-schema-migration-for-sqlite/
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) (err error) {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Foreign keys cannot be toggled inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil && err == nil {
			err = fmt.Errorf("enable foreign keys: %w", fkErr)
		}
	}()

	var tx *sql.Tx
	if tx, err = db.ReadWrite.BeginTx(ctx, nil); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer db.Rollback(ctx, tx)()

	for _, kind := range []schemaKind{schemaKindTable, schemaKindTrigger, schemaKindIndex} {
		var diff schemaDiff
		if diff, err = db.diffSchema(ctx, tx, kind); err != nil {
			return fmt.Errorf("diff %s: %w", kind, err)
		}
		if err = db.applyDiff(ctx, tx, kind, diff); err != nil {
			return fmt.Errorf("apply %s diff: %w", kind, err)
		}
	}

	if _, err = tx.ExecContext(ctx, "PRAGMA foreign_key_check"); err != nil {
		return fmt.Errorf("foreign key check: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

// attachSchemaTarget attaches an in-memory database initialised with schemaDefinition as schemaTarget.
// The returned function detaches it.
func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target: %w", err)
	}
	// The shared cache database lives while any connection is open, the ATTACH below keeps it alive.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target",
				slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create target schema: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target",
				slog.Any("error", detachErr))
		}
	}, nil
}

// diffSchema compares the entities of kind in the live schema against schemaTarget.
func (db *Database) diffSchema(ctx context.Context, tx *sql.Tx, kind schemaKind) (schemaDiff, error) {
	var (
		diff schemaDiff
		err  error
	)
	scanString := func(rows *sql.Rows) (string, error) {
		var s string
		return s, rows.Scan(&s)
	}

	if diff.deleted, err = queryRows(ctx, tx, scanString, `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`, kind); err != nil {
		return diff, fmt.Errorf("query deleted: %w", err)
	}

	if diff.created, err = queryRows(ctx, tx, scanString, `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ?
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'
  AND target.sql IS NOT NULL`, kind); err != nil {
		return diff, fmt.Errorf("query created: %w", err)
	}

	// Renaming a table quotes its name in sqlite_schema, so quotes are ignored in the comparison.
	if diff.changed, err = queryRows(ctx, tx, func(rows *sql.Rows) (changedSchema, error) {
		var c changedSchema
		return c, rows.Scan(&c.name, &c.liveSQL, &c.newSQL)
	}, `SELECT live.name, live.sql, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`, kind); err != nil {
		return diff, fmt.Errorf("query changed: %w", err)
	}

	return diff, nil
}

func (db *Database) applyDiff(ctx context.Context, tx *sql.Tx, kind schemaKind, diff schemaDiff) error {
	logger := db.logger.With(slog.String("schemaKind", string(kind)))
	exec := func(msg string, query string) error {
		logger.LogAttrs(ctx, slog.LevelInfo, msg, slog.String("query", query))
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("%s %q: %w", msg, query, err)
		}
		return nil
	}
	keyword := strings.ToUpper(string(kind))

	for _, name := range diff.deleted {
		if err := exec("dropping", fmt.Sprintf("DROP %s %s", keyword, name)); err != nil {
			return err
		}
	}
	for _, query := range diff.created {
		if err := exec("creating", query); err != nil {
			return err
		}
	}
	for _, changed := range diff.changed {
		if kind != schemaKindTable {
			if err := exec("dropping changed", fmt.Sprintf("DROP %s %s", keyword, changed.name)); err != nil {
				return err
			}
			if err := exec("creating changed", changed.newSQL); err != nil {
				return err
			}
			continue
		}
		if err := db.rebuildTable(ctx, tx, changed, exec); err != nil {
			return fmt.Errorf("rebuild table %s: %w", changed.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the common columns over, and swaps the
// tables. Indexes and triggers of the old table disappear with it and are recreated by the following diffs.
func (db *Database) rebuildTable(
	ctx context.Context,
	tx *sql.Tx,
	changed changedSchema,
	exec func(msg string, query string) error,
) error {
	tempName := changed.name + "_migration_temp"
	if err := exec("creating temporary table", strings.Replace(changed.newSQL, changed.name, tempName, 1)); err != nil {
		return err
	}

	// Quoted so that columns named after SQLite keywords survive.
	columns, err := queryRows(ctx, tx, func(rows *sql.Rows) (string, error) {
		var s string
		return s, rows.Scan(&s)
	}, `SELECT '"' || target.name || '"'
FROM PRAGMA_TABLE_INFO(:table_name) AS live
         JOIN PRAGMA_TABLE_INFO(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", changed.name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}

	if len(columns) > 0 {
		common := strings.Join(columns, ", ")
		if err = exec("copying data", fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			tempName, common, common, changed.name)); err != nil {
			return err
		}
	}
	if err = exec("dropping old table", "DROP TABLE "+changed.name); err != nil {
		return err
	}
	return exec("renaming table", fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, changed.name))
}

// queryRows runs query inside tx and collects every row with scan.
func queryRows[T any](
	ctx context.Context,
	tx *sql.Tx,
	scan func(*sql.Rows) (T, error),
	query string,
	args ...any,
) (_ []T, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close rows: %w", closeErr)
		}
	}()
	var results []T
	for rows.Next() {
		var result T
		if result, err = scan(rows); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		results = append(results, result)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
