package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "modernc.org/sqlite" // registers the "sqlite" database/sql driver

	"github.com/kailas-cloud/roadsafe/internal/domain"
	"github.com/kailas-cloud/roadsafe/internal/domain/record"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// TableQuery builds the corpus SELECT for a table, ordered by orderBy.
// NULL columns are returned as empty strings.
func TableQuery(table, orderBy string) (string, error) {
	if !identRe.MatchString(table) {
		return "", domain.NewValidationError("invalid table name %q", table)
	}
	if !identRe.MatchString(orderBy) {
		return "", domain.NewValidationError("invalid order column %q", orderBy)
	}
	return fmt.Sprintf(
		`SELECT COALESCE(problem, ''), COALESCE("type", ''), COALESCE(category, ''), `+
			`COALESCE(data, ''), COALESCE(clause, '') FROM %s ORDER BY %s`,
		table, orderBy,
	), nil
}

// rowScanner is satisfied by both pgx.Rows and *sql.Rows.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows rowScanner) ([]record.Record, error) {
	var records []record.Record
	for rows.Next() {
		var problem, kind, category, data, clause string
		if err := rows.Scan(&problem, &kind, &category, &data, &clause); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(records), err)
		}
		records = append(records, record.New(len(records), problem, kind, category, data, clause))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return records, nil
}

// PgQuerier is the subset of pgxpool.Pool used by PostgresSource.
type PgQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresSource reads the corpus from a Postgres table.
type PostgresSource struct {
	db    PgQuerier
	query string
}

// NewPostgresPool opens a pgx connection pool.
func NewPostgresPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	return pool, nil
}

// NewPostgresSource creates a Postgres source reading table ordered by orderBy.
func NewPostgresSource(db PgQuerier, table, orderBy string) (*PostgresSource, error) {
	q, err := TableQuery(table, orderBy)
	if err != nil {
		return nil, err
	}
	return &PostgresSource{db: db, query: q}, nil
}

// Load runs the corpus query.
func (s *PostgresSource) Load(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.Query(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres query: %w", domain.ErrDataUnavailable, err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: postgres: %w", domain.ErrDataUnavailable, err)
	}
	return records, nil
}

// SQLiteSource reads the corpus from a SQLite table.
type SQLiteSource struct {
	db    *sql.DB
	query string
}

// OpenSQLite opens a SQLite database with the pure-Go driver.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

// NewSQLiteSource creates a SQLite source reading table ordered by orderBy.
func NewSQLiteSource(db *sql.DB, table, orderBy string) (*SQLiteSource, error) {
	q, err := TableQuery(table, orderBy)
	if err != nil {
		return nil, err
	}
	return &SQLiteSource{db: db, query: q}, nil
}

// Load runs the corpus query.
func (s *SQLiteSource) Load(ctx context.Context) ([]record.Record, error) {
	rows, err := s.db.QueryContext(ctx, s.query)
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite query: %w", domain.ErrDataUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, fmt.Errorf("%w: sqlite: %w", domain.ErrDataUnavailable, err)
	}
	return records, nil
}
