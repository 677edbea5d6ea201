// Package sqlite adapts internal/driver.Adapter to SQLite via
// database/sql and mattn/go-sqlite3.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/driver"
	"github.com/queryforge/queryforge/internal/shaper"
)

// Adapter is the SQLite driver.Adapter implementation. SQLite has no
// real connection pool: the adapter pins the pool to a single
// connection so concurrent callers serialize through database/sql
// rather than racing against SQLite's own locking.
type Adapter struct {
	db     *sql.DB
	config driver.Config
}

func New(config driver.Config) *Adapter {
	return &Adapter{config: config}
}

func (a *Adapter) Connect(ctx context.Context) error {
	db, err := sql.Open("sqlite3", a.config.DSN)
	if err != nil {
		return driver.WrapError("connect", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return driver.WrapError("connect", err)
	}

	a.db = db
	return nil
}

func (a *Adapter) Disconnect(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *Adapter) Query(ctx context.Context, query string, args []interface{}) ([]shaper.Row, error) {
	if a.db == nil {
		return nil, driver.WrapError("query", fmt.Errorf("not connected"))
	}
	rows, err := a.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, driver.WrapError("query", err)
	}
	return driver.ScanRows(rows)
}

func (a *Adapter) Execute(ctx context.Context, query string, args []interface{}) (int64, error) {
	if a.db == nil {
		return 0, driver.WrapError("execute", fmt.Errorf("not connected"))
	}
	result, err := a.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, driver.WrapError("execute", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, driver.WrapError("execute", err)
	}
	return rowsAffected, nil
}

func (a *Adapter) Ping(ctx context.Context) error {
	if a.db == nil {
		return driver.WrapError("ping", fmt.Errorf("not connected"))
	}
	if err := a.db.PingContext(ctx); err != nil {
		return driver.WrapError("ping", err)
	}
	return nil
}

func (a *Adapter) Dialect() dialect.Dialect { return dialect.SQLite }

var _ driver.Adapter = (*Adapter)(nil)
