package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"ad-placement-service/internal/domain"
)

// interestTTL matches the server-side lifetime of a visitor's list.
const interestTTL = 30 * 24 * time.Hour

// interestFile is the local visitor identity and recent-interest list.
type interestFile struct {
	VisitorID string    `yaml:"visitor_id"`
	Interests []string  `yaml:"interests"`
	UpdatedAt time.Time `yaml:"updated_at"`
}

// loadInterests reads the interest file. A missing file yields a fresh
// visitor; a list untouched for longer than interestTTL is dropped.
func loadInterests(path string, now time.Time) (*interestFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &interestFile{VisitorID: uuid.NewString()}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading interest file: %w", err)
	}

	var f interestFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing interest file %s: %w", path, err)
	}

	if f.VisitorID == "" {
		f.VisitorID = uuid.NewString()
	}
	if !f.UpdatedAt.IsZero() && now.Sub(f.UpdatedAt) > interestTTL {
		f.Interests = nil
	}

	return &f, nil
}

// add puts values at the front of the list with the recent-interest rules.
func (f *interestFile) add(now time.Time, values ...string) {
	f.Interests = domain.RecentInterests(f.Interests).Add(values...)
	f.UpdatedAt = now.UTC()
}

func (f *interestFile) clear(now time.Time) {
	f.Interests = nil
	f.UpdatedAt = now.UTC()
}

func (f *interestFile) recent() domain.RecentInterests {
	return domain.RecentInterests(f.Interests)
}

func saveInterests(path string, f *interestFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating interest directory: %w", err)
	}

	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("encoding interest file: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing interest file: %w", err)
	}
	return nil
}
