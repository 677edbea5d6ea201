package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/queryforge/queryforge/internal/catalog"
	"github.com/queryforge/queryforge/internal/dialect"
	"github.com/queryforge/queryforge/internal/queryast"
)

func resolveDialect(name string) (dialect.Dialect, error) {
	switch dialect.Name(name) {
	case dialect.PostgreSQL:
		return dialect.Postgres, nil
	case dialect.SQLiteName:
		return dialect.SQLite, nil
	default:
		return nil, fmt.Errorf("unknown dialect %q (want postgres or sqlite)", name)
	}
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	return catalog.LoadFile(path)
}

func loadQuery(path string) (*queryast.Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read query %s: %w", path, err)
	}
	var q queryast.Query
	if err := json.Unmarshal(data, &q); err != nil {
		return nil, fmt.Errorf("parse query %s: %w", path, err)
	}
	return &q, nil
}

type namedQueryFile struct {
	Key   string         `json:"key"`
	Query queryast.Query `json:"query"`
}

func loadBatch(path string) ([]namedQueryFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}
	var items []namedQueryFile
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}
	return items, nil
}
