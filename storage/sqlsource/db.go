// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sqlsource implements storage.RecordSource over database/sql.
//
// Two drivers are registered: "pgx" (PostgreSQL through pgx's stdlib
// adapter) and "sqlite" (modernc.org/sqlite, pure Go). The table must have
// the columns id, title and row_id.
//
// Two selection policies are provided:
//
//   - pending: rows with row_id greater than the checkpoint, ascending
//   - replay: rows named in a failure-replay file, ascending
//
// # Usage
//
//	db, err := sqlsource.Open(ctx, sqlsource.DriverSQLite, "records.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	source, err := sqlsource.NewPendingSource(db, sqlsource.DriverSQLite, "records", checkpoints)
//	defer source.Close() // closes db
package sqlsource

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverPgx    = "pgx"
	DriverSQLite = "sqlite"
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Open opens and pings a database with one of the supported drivers.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	if err := checkDriver(driver); err != nil {
		return nil, err
	}

	logger := slog.Default().With("component", "sqlsource", "driver", driver)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logger.Error("failed to connect to database", "err", err)
		return nil, err
	}

	logger.Debug("connected to database")
	return db, nil
}

func checkDriver(driver string) error {
	switch driver {
	case DriverPgx, DriverSQLite:
		return nil
	}
	return fmt.Errorf("unsupported driver %q (want %s or %s)", driver, DriverPgx, DriverSQLite)
}

func checkTable(table string) error {
	if !tableName.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	return nil
}

// placeholder returns the n-th (1-based) bind parameter for driver.
func placeholder(driver string, n int) string {
	if driver == DriverPgx {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// placeholders returns count comma-separated bind parameters starting at from.
func placeholders(driver string, from, count int) string {
	var b strings.Builder
	for i := range count {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholder(driver, from+i))
	}
	return b.String()
}
