package catalog

import (
	"encoding/json"
	"fmt"
	"os"
)

// schemaDocument is the on-disk JSON shape a catalog is loaded from: an
// object whose "models" list holds the models in declaration order.
type schemaDocument struct {
	Models []Model `json:"models"`
}

// LoadJSON builds and validates a Catalog from a JSON schema document.
func LoadJSON(data []byte) (*Catalog, error) {
	var doc schemaDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}
	cat := New(doc.Models)
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("validate schema: %w", err)
	}
	return cat, nil
}

// LoadFile reads and loads a catalog from a JSON schema file on disk.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return LoadJSON(data)
}
