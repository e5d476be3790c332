package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialects supported by Open.
const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// timeLayout is the fixed-width layout used for timestamps stored as TEXT in SQLite,
// so lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// DB wraps *sql.DB with the dialect it was opened with.
type DB struct {
	*sql.DB
	Dialect string
}

// ParseURL returns the dialect and the driver DSN for dsn.
// postgres:// and postgresql:// select pgx; sqlite://path or a bare file path select SQLite.
func ParseURL(dsn string) (dialect, driverDSN string, err error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", errors.New("db: DATABASE_URL is empty")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return DialectPostgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		path := strings.TrimPrefix(dsn, "sqlite://")
		if path == "" {
			return "", "", errors.New("db: sqlite URL has no path")
		}
		return DialectSQLite, path, nil
	case strings.Contains(dsn, "://"):
		return "", "", fmt.Errorf("db: unsupported database URL scheme in %q", dsn)
	default:
		return DialectSQLite, dsn, nil
	}
}

// Open opens the database named by dsn and pings it. Caller must call Close when done.
// For SQLite the parent directory of the file is created.
func Open(dsn string) (*DB, error) {
	dialect, driverDSN, err := ParseURL(dsn)
	if err != nil {
		return nil, err
	}

	driver := "pgx"
	if dialect == DialectSQLite {
		driver = "sqlite"
		file := driverDSN
		if i := strings.IndexByte(file, '?'); i >= 0 {
			file = file[:i]
		}
		if dir := filepath.Dir(file); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("db: create %s: %w", dir, err)
			}
		}
		if !strings.Contains(driverDSN, "_pragma=") {
			sep := "?"
			if strings.Contains(driverDSN, "?") {
				sep = "&"
			}
			driverDSN += sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
		}
	}

	conn, err := sql.Open(driver, driverDSN)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &DB{DB: conn, Dialect: dialect}, nil
}

// Rebind rewrites ? placeholders to $n for Postgres. Queries are written with ? throughout.
func (d *DB) Rebind(query string) string {
	if d.Dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// TimeArg converts t for use as a query argument in this dialect.
func (d *DB) TimeArg(t time.Time) any {
	if d.Dialect == DialectSQLite {
		return t.UTC().Format(timeLayout)
	}
	return t.UTC()
}

// NullTimeArg is TimeArg for optional timestamps.
func (d *DB) NullTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return d.TimeArg(*t)
}

// Time scans a timestamp column stored either natively (Postgres) or as TEXT (SQLite).
type Time struct {
	Time  time.Time
	Valid bool
}

// Scan implements sql.Scanner.
func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time, t.Valid = time.Time{}, false
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("db: cannot scan %T into Time", src)
	}
}

// Ptr returns nil for NULL, otherwise a pointer to the time.
func (t Time) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func (t *Time) parse(s string) error {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time, t.Valid = v.UTC(), true
			return nil
		}
	}
	return fmt.Errorf("db: cannot parse time %q", s)
}
