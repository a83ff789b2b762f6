package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"renthunt-state/internal/models"
)

// Catalog is the mocked apartment ingestion source, read from a JSON seed file
type Catalog struct {
	apartments []models.Apartment
	pageSize   int
}

// NewCatalog creates a catalog over an in-memory list
func NewCatalog(apartments []models.Apartment, pageSize int) *Catalog {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &Catalog{apartments: cloneApartments(apartments), pageSize: pageSize}
}

// LoadCatalog reads and validates the apartments of a JSON seed file
func LoadCatalog(path string, pageSize int) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var apartments []models.Apartment
	if err := json.Unmarshal(b, &apartments); err != nil {
		return nil, fmt.Errorf("failed to parse catalog file: %w", err)
	}

	seen := make(map[string]struct{}, len(apartments))
	for i := range apartments {
		if err := models.Validate(apartments[i]); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, invalid(err))
		}
		if _, dup := seen[apartments[i].ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: %w: duplicate id %s", i, ErrInvalidInput, apartments[i].ID)
		}
		seen[apartments[i].ID] = struct{}{}
	}

	return NewCatalog(apartments, pageSize), nil
}

// Len returns the number of catalog apartments
func (c *Catalog) Len() int {
	return len(c.apartments)
}

// Page returns up to one page starting at offset and whether more remain
func (c *Catalog) Page(ctx context.Context, offset int) ([]models.Apartment, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(c.apartments) {
		return []models.Apartment{}, false, nil
	}

	end := offset + c.pageSize
	if end > len(c.apartments) {
		end = len(c.apartments)
	}
	return cloneApartments(c.apartments[offset:end]), end < len(c.apartments), nil
}
