package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// pgUniqueViolation is the SQLSTATE for unique_violation.
const pgUniqueViolation = "23505"

// sqliteUniquePrefix precedes the failing table.column list in SQLite constraint errors.
const sqliteUniquePrefix = "UNIQUE constraint failed: "

// UniqueViolation describes a rejected insert. Either field may be empty when the
// driver does not report it.
type UniqueViolation struct {
	Constraint string
	Column     string
}

// AsUniqueViolation reports whether err is a unique or primary key violation and,
// where the driver exposes it, which constraint and column were hit.
func AsUniqueViolation(err error) (UniqueViolation, bool) {
	if err == nil {
		return UniqueViolation{}, false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return UniqueViolation{}, false
		}
		return UniqueViolation{
			Constraint: pgErr.ConstraintName,
			Column:     columnFromDetail(pgErr.Detail),
		}, true
	}

	msg := err.Error()
	if idx := strings.Index(msg, sqliteUniquePrefix); idx >= 0 {
		return UniqueViolation{Column: columnFromSQLite(msg[idx+len(sqliteUniquePrefix):])}, true
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return UniqueViolation{}, true
	}
	return UniqueViolation{}, false
}

// columnFromDetail extracts the column from "Key (new_id)=(abc) already exists.".
func columnFromDetail(detail string) string {
	start := strings.Index(detail, "Key (")
	if start < 0 {
		return ""
	}
	rest := detail[start+len("Key ("):]
	end := strings.Index(rest, ")")
	if end < 0 {
		return ""
	}
	return firstColumn(rest[:end])
}

// columnFromSQLite extracts the column from "visit_mappings.new_id (2067)".
func columnFromSQLite(rest string) string {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	qualified := firstColumn(fields[0])
	if dot := strings.LastIndex(qualified, "."); dot >= 0 {
		return qualified[dot+1:]
	}
	return qualified
}

func firstColumn(list string) string {
	first, _, _ := strings.Cut(list, ",")
	return strings.TrimSpace(first)
}
