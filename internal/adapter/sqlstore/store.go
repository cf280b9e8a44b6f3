// Package sqlstore persists observations to PostgreSQL or SQLite and runs
// read-only queries against the same table.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/couchcryptid/bird-observation-etl/internal/config"
	"github.com/couchcryptid/bird-observation-etl/internal/domain"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

const (
	pgxDriver    = "pgx"
	sqliteDriver = "sqlite"

	stagingSuffix    = "__staging"
	defaultBatchSize = 1000
)

// tableNameRe keeps table names safe to interpolate and short enough for the
// staging suffix to fit the 63-byte Postgres identifier limit.
var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,53}$`)

// Config holds the connection settings, passed explicitly at open time.
type Config struct {
	Driver    string
	Host      string
	Port      int
	Database  string
	User      string
	Password  string
	SSLMode   string
	Path      string
	Table     string
	BatchSize int
}

// ConfigFrom copies the store settings out of the service config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Driver:    cfg.DBDriver,
		Host:      cfg.DBHost,
		Port:      cfg.DBPort,
		Database:  cfg.DBName,
		User:      cfg.DBUser,
		Password:  cfg.DBPassword,
		SSLMode:   cfg.DBSSLMode,
		Path:      cfg.DBPath,
		Table:     cfg.DBTable,
		BatchSize: cfg.InsertBatchSize,
	}
}

// DSN renders the driver connection string.
func (c Config) DSN() string {
	if c.Driver == config.DriverSQLite {
		return c.Path
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:   "/" + c.Database,
	}
	if c.User != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.User, c.Password)
		} else {
			u.User = url.User(c.User)
		}
	}
	if c.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.SSLMode}}.Encode()
	}
	return u.String()
}

// Store is a handle on the observation table.
type Store struct {
	db        *sql.DB
	dialect   Dialect
	table     string
	batchSize int
	logger    *slog.Logger
}

// Open connects to the configured engine and verifies the connection.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	dialect, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}
	if !tableNameRe.MatchString(cfg.Table) {
		return nil, fmt.Errorf("invalid table name %q", cfg.Table)
	}

	driver := pgxDriver
	if dialect == SQLite {
		driver = sqliteDriver
	}
	db, err := sql.Open(driver, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}
	if dialect == SQLite {
		// A single connection serializes the replace transaction with readers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}
	if dialect == SQLite {
		if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure sqlite: %w", err)
		}
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Store{db: db, dialect: dialect, table: cfg.Table, batchSize: batchSize, logger: logger}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dialect returns the SQL dialect of the connected engine.
func (s *Store) Dialect() Dialect { return s.dialect }

// Table returns the observation table name.
func (s *Store) Table() string { return s.table }

// DB exposes the underlying sql.DB for integration testing hooks.
func (s *Store) DB() *sql.DB { return s.db }

// Ping verifies the engine is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// QueryContext runs a read-only query.
func (s *Store) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// TableExists reports whether the observation table is present.
func (s *Store) TableExists(ctx context.Context) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.TableExistsQuery(), s.table).Scan(&n); err != nil {
		return false, fmt.Errorf("check table %q: %w", s.table, err)
	}
	return n > 0, nil
}

// CheckReadiness returns nil when the engine answers and the observation
// table has been loaded at least once.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("store unreachable: %w", err)
	}
	ok, err := s.TableExists(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("table %q has not been loaded", s.table)
	}
	return nil
}

// Count returns the number of rows in the observation table.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	q := "SELECT COUNT(*) FROM " + s.dialect.Quote(s.table)
	if err := s.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %q: %w", s.table, err)
	}
	return n, nil
}

// Replace swaps the table contents for obs in one transaction: the rows go
// into a fresh staging table which then replaces the live table. Readers see
// either the previous table or the new one. It returns the number of rows
// written; failures are *domain.StoreWriteError.
func (s *Store) Replace(ctx context.Context, obs []domain.Observation) (n int, err error) {
	staging := s.table + stagingSuffix
	fail := func(op string, cause error) (int, error) {
		return 0, &domain.StoreWriteError{Op: op, Table: s.table, Err: cause}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	q := s.dialect.Quote
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+q(staging)); err != nil {
		return fail("drop staging", err)
	}
	if _, err = tx.ExecContext(ctx, createTableSQL(s.dialect, staging)); err != nil {
		return fail("create staging", err)
	}
	if err = s.insert(ctx, tx, staging, obs); err != nil {
		return fail("insert", err)
	}
	if _, err = tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+q(s.table)); err != nil {
		return fail("drop live", err)
	}
	if _, err = tx.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s RENAME TO %s", q(staging), q(s.table))); err != nil {
		return fail("rename", err)
	}
	for _, stmt := range s.indexSQL() {
		if _, err = tx.ExecContext(ctx, stmt); err != nil {
			return fail("index", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fail("commit", err)
	}

	s.logger.Info("table replaced", "table", s.table, "rows", len(obs))
	return len(obs), nil
}

// insert writes obs with multi-row INSERT statements of at most batchSize
// rows, further capped so one statement stays under the engine's bind limit.
func (s *Store) insert(ctx context.Context, tx *sql.Tx, table string, obs []domain.Observation) error {
	per := s.batchSize
	if limit := s.dialect.MaxParams() / len(Schema); per > limit {
		per = limit
	}

	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", s.dialect.Quote(table), columnList(s.dialect))
	for start := 0; start < len(obs); start += per {
		end := min(start+per, len(obs))
		chunk := obs[start:end]

		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(chunk)*len(Schema))
		for i, o := range chunk {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteByte('(')
			for j := range Schema {
				if j > 0 {
					b.WriteString(", ")
				}
				b.WriteString(s.dialect.Placeholder(len(args) + j + 1))
			}
			b.WriteByte(')')
			args = append(args, rowValues(s.dialect, o)...)
		}
		if _, err := tx.ExecContext(ctx, b.String(), args...); err != nil {
			return fmt.Errorf("rows %d-%d: %w", start+1, end, err)
		}
		s.logger.Debug("inserted batch", "table", table, "from", start+1, "to", end)
	}
	return nil
}

func (s *Store) indexSQL() []string {
	q := s.dialect.Quote
	return []string{
		fmt.Sprintf("CREATE INDEX %s ON %s (%s)", q(s.table+"_common_name_idx"), q(s.table), q(domain.ColCommonName)),
		fmt.Sprintf("CREATE INDEX %s ON %s (%s)", q(s.table+"_location_type_idx"), q(s.table), q(domain.ColLocationType)),
	}
}

// Records reads every row rendered as backup-extract text, in no particular order.
func (s *Store) Records(ctx context.Context) ([][]string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", columnList(s.dialect), s.dialect.Quote(s.table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select %q: %w", s.table, err)
	}
	defer func() { _ = rows.Close() }()

	var out [][]string
	values := make([]any, len(Schema))
	ptrs := make([]any, len(Schema))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %q: %w", s.table, err)
		}
		record := make([]string, len(Schema))
		for i, c := range Schema {
			record[i] = formatValue(c.Kind, values[i])
		}
		out = append(out, record)
	}
	return out, rows.Err()
}
