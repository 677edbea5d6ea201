// Package postgres adapts internal/driver.Adapter to PostgreSQL via
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/driver"
	"github.com/queryforge/queryforge/internal/shaper"
)

// Adapter is the PostgreSQL driver.Adapter implementation.
type Adapter struct {
	db     *sql.DB
	config driver.Config
}

// New creates a PostgreSQL adapter; call Connect before using it.
func New(config driver.Config) *Adapter {
	return &Adapter{config: config}
}

func (a *Adapter) Connect(ctx context.Context) error {
	db, err := sql.Open("postgres", a.config.DSN)
	if err != nil {
		return driver.WrapError("connect", err)
	}

	db.SetMaxOpenConns(a.config.MaxConnections)
	db.SetMaxIdleConns(a.config.MaxConnections / 2)
	db.SetConnMaxIdleTime(time.Duration(a.config.MaxIdleTime) * time.Second)

	connectCtx, cancel := context.WithTimeout(ctx, time.Duration(a.config.ConnectTimeout)*time.Second)
	defer cancel()
	if err := db.PingContext(connectCtx); err != nil {
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

func (a *Adapter) Dialect() dialect.Dialect { return dialect.Postgres }

var _ driver.Adapter = (*Adapter)(nil)
