package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/potatoomann/11code-site/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrDuplicateID = errors.New("duplicate id")
)

// ProductStore persists the catalog as a flat JSON document keyed by
// product id. Writes replace the whole file; there is no partial persist.
// Concurrent writers can race (no file locking) — known limitation of the
// flat-file layout.
type ProductStore struct {
	path string
}

func NewProductStore(dataDir string) *ProductStore {
	return &ProductStore{path: filepath.Join(dataDir, "products.json")}
}

func (s *ProductStore) read() (map[string]models.Product, error) {
	if err := ensureDataDir(filepath.Dir(s.path)); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]models.Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read products: %w", err)
	}
	products := map[string]models.Product{}
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("parse products: %w", err)
	}
	return products, nil
}

func (s *ProductStore) write(products map[string]models.Product) error {
	if err := ensureDataDir(filepath.Dir(s.path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write products: %w", err)
	}
	return nil
}

// All returns the catalog keyed by id.
func (s *ProductStore) All() (map[string]models.Product, error) {
	return s.read()
}

// List returns the catalog sorted by id, for stable display.
func (s *ProductStore) List() ([]models.Product, error) {
	byID, err := s.read()
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	products := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		products = append(products, byID[id])
	}
	return products, nil
}

func (s *ProductStore) Get(id string) (*models.Product, error) {
	products, err := s.read()
	if err != nil {
		return nil, err
	}
	p, ok := products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// Create adds a product; the id must not already exist.
func (s *ProductStore) Create(p models.Product) error {
	products, err := s.read()
	if err != nil {
		return err
	}
	if _, exists := products[p.ID]; exists {
		return ErrDuplicateID
	}
	products[p.ID] = p
	return s.write(products)
}

func (s *ProductStore) Update(p models.Product) error {
	products, err := s.read()
	if err != nil {
		return err
	}
	if _, exists := products[p.ID]; !exists {
		return ErrNotFound
	}
	products[p.ID] = p
	return s.write(products)
}

func (s *ProductStore) Delete(id string) error {
	products, err := s.read()
	if err != nil {
		return err
	}
	if _, exists := products[id]; !exists {
		return ErrNotFound
	}
	delete(products, id)
	return s.write(products)
}

func ensureDataDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}
