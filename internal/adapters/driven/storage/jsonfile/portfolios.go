package jsonfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/strategy"
)

// PortfolioStore keeps one JSON file per portfolio.
type PortfolioStore struct {
	dir string
}

// NewPortfolioStore creates the directory if needed.
func NewPortfolioStore(dir string) (*PortfolioStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("portfolio directory: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating portfolio directory: %w", err)
	}
	return &PortfolioStore{dir: dir}, nil
}

func (s *PortfolioStore) path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("portfolio name %q: %w", name, domain.ErrInvalidInput)
	}
	return filepath.Join(s.dir, name+".json"), nil
}

// Load reads the named portfolio.
func (s *PortfolioStore) Load(ctx context.Context, name string) (*strategy.Portfolio, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("portfolio %s: %w", name, domain.ErrNotFound)
	}

	var p strategy.Portfolio
	err = withLock(ctx, path, false, func() error {
		return readJSON(path, &p)
	})
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("portfolio %s: %w", name, err)
	}
	return &p, nil
}

// Save writes p under its name.
func (s *PortfolioStore) Save(ctx context.Context, p *strategy.Portfolio) error {
	if err := p.Validate(); err != nil {
		return err
	}
	path, err := s.path(p.Name)
	if err != nil {
		return err
	}
	return withLock(ctx, path, true, func() error {
		return writeJSON(path, p)
	})
}

// Update loads, modifies and saves a portfolio under one exclusive lock.
func (s *PortfolioStore) Update(ctx context.Context, name string, fn func(*strategy.Portfolio) error) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	return withLock(ctx, path, true, func() error {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("portfolio %s: %w", name, domain.ErrNotFound)
		}
		var p strategy.Portfolio
		if err := readJSON(path, &p); err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		if err := p.Validate(); err != nil {
			return err
		}
		return writeJSON(path, &p)
	})
}

// Delete removes the named portfolio.
func (s *PortfolioStore) Delete(ctx context.Context, name string) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}
	err = withLock(ctx, path, true, func() error {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("portfolio %s: %w", name, domain.ErrNotFound)
			}
			return fmt.Errorf("removing portfolio: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	_ = os.Remove(path + lockSuffix)
	return nil
}

// List returns portfolio names in sorted order.
func (s *PortfolioStore) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading portfolio directory: %w", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}
