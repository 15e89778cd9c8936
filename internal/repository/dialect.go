package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Supported database/sql driver names.
const (
	DriverSQLite3  = "sqlite3"  // github.com/mattn/go-sqlite3 (cgo)
	DriverSQLite   = "sqlite"   // modernc.org/sqlite (pure Go)
	DriverPostgres = "postgres" // github.com/lib/pq
)

// dialect captures the SQL differences between the supported drivers.
type dialect struct {
	driver     string
	primaryKey string
	dollar     bool
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite3, DriverSQLite:
		return dialect{driver: driver, primaryKey: "INTEGER PRIMARY KEY AUTOINCREMENT"}, nil
	case DriverPostgres:
		return dialect{driver: driver, primaryKey: "BIGSERIAL PRIMARY KEY", dollar: true}, nil
	default:
		return dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func (d dialect) isSQLite() bool {
	return d.driver != DriverPostgres
}

// BusyTimeoutMillis is how long a SQLite connection waits on a locked
// database before giving up.
const BusyTimeoutMillis = 5000

// connectParams returns the per-connection settings a SQLite DSN must carry.
// Each entry pairs a marker that shows the setting is already present with
// the query parameter to append otherwise.
func (d dialect) connectParams() [][2]string {
	timeout := strconv.Itoa(BusyTimeoutMillis)
	switch d.driver {
	case DriverSQLite3:
		return [][2]string{
			{"_foreign_keys=", "_foreign_keys=1"},
			{"_busy_timeout=", "_busy_timeout=" + timeout},
		}
	case DriverSQLite:
		return [][2]string{
			{"foreign_keys(", "_pragma=foreign_keys(1)"},
			{"busy_timeout(", "_pragma=busy_timeout(" + timeout + ")"},
		}
	}
	return nil
}

// connectDSN appends the driver's connection settings to dsn when absent.
func (d dialect) connectDSN(dsn string) string {
	for _, p := range d.connectParams() {
		if strings.Contains(dsn, p[0]) {
			continue
		}
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		dsn += sep + p[1]
	}
	return dsn
}

// rebind rewrites ? placeholders into $n for postgres.
func (d dialect) rebind(query string) string {
	if !d.dollar {
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

// isUniqueViolation reports whether err is a unique or primary key violation
// from any supported driver.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var mattnErr sqlite3.Error
	if errors.As(err, &mattnErr) {
		return mattnErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			mattnErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var modernErr *msqlite.Error
	if errors.As(err, &modernErr) {
		switch modernErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
