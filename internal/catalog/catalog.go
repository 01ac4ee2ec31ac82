// Package catalog loads the project catalog commands are matched against
package catalog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/benvon/smart-worklog/internal/models"
	"github.com/benvon/smart-worklog/internal/validation"
)

// ErrEmpty is returned for catalogs without projects
var ErrEmpty = errors.New("catalog has no projects")

// File is the on-disk catalog layout
type File struct {
	Projects []models.Project `yaml:"projects" validate:"required,min=1,dive"`
}

// Parse decodes and validates a YAML catalog. Project ids must be unique.
func Parse(data []byte) ([]models.Project, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if len(f.Projects) == 0 {
		return nil, ErrEmpty
	}
	if err := validation.Validate.Struct(f); err != nil {
		return nil, fmt.Errorf("invalid catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(f.Projects))
	for _, p := range f.Projects {
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("invalid catalog: duplicate project id %q", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return f.Projects, nil
}

// LoadFile reads a YAML catalog from path
func LoadFile(path string) ([]models.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Static serves a fixed catalog that can be swapped at runtime
type Static struct {
	mu       sync.RWMutex
	projects []models.Project
}

// NewStatic creates a catalog serving projects
func NewStatic(projects []models.Project) *Static {
	s := &Static{}
	s.Replace(projects)
	return s
}

// Projects returns a copy of the current catalog
func (s *Static) Projects(context.Context) ([]models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Project(nil), s.projects...), nil
}

// Replace swaps the catalog. Selections already pending keep their snapshot.
func (s *Static) Replace(projects []models.Project) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects = append([]models.Project(nil), projects...)
}
