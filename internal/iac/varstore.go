package iac

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// VarStore persists the variables fed to each plan between runs, so a
// re-run can tell what a previous apply already recorded. One JSON file
// holds every plan's variables, replaced atomically on save.
type VarStore struct {
	path    string
	mu      sync.RWMutex
	version string
	plans   map[string]map[string]any
}

type varsFile struct {
	Version string                    `json:"version"`
	Plans   map[string]map[string]any `json:"plans"`
}

// NewVarStore creates a VarStore backed by path, loading existing content
// when present.
func NewVarStore(path string) (*VarStore, error) {
	s := &VarStore{
		path:    path,
		version: "1.0",
		plans:   map[string]map[string]any{},
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create var store directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return s, nil
}

func (s *VarStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}

	var file varsFile
	if err := json.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("failed to parse var store: %w", err)
	}

	s.version = file.Version
	if file.Plans != nil {
		s.plans = file.Plans
	}
	return nil
}

// save writes the store to disk atomically. Callers hold the lock.
func (s *VarStore) save() error {
	file := varsFile{Version: s.version, Plans: s.plans}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal var store: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}

// Get returns a copy of the stored variables for a plan.
func (s *VarStore) Get(plan string) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.plans[plan]
	vars := make(map[string]any, len(stored))
	for k, v := range stored {
		vars[k] = v
	}
	return vars
}

// Update merges the supplied variables into a plan's stored set and
// persists the result.
func (s *VarStore) Update(plan string, updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vars := s.plans[plan]
	if vars == nil {
		vars = map[string]any{}
		s.plans[plan] = vars
	}
	for k, v := range updates {
		vars[k] = v
	}
	return s.save()
}

// MergeList unions values into the string-list variable named field. The
// merged list is sorted for stable files. When values add nothing new the
// store is left untouched and changed is false.
func (s *VarStore) MergeList(plan, field string, values []string) (changed bool, merged []string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	vars := s.plans[plan]
	existing := toStringList(vars[field])

	seen := make(map[string]struct{}, len(existing))
	for _, v := range existing {
		seen[v] = struct{}{}
	}
	for _, v := range values {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			changed = true
		}
	}

	merged = make([]string, 0, len(seen))
	for v := range seen {
		merged = append(merged, v)
	}
	sort.Strings(merged)

	if !changed {
		return false, merged, nil
	}

	if vars == nil {
		vars = map[string]any{}
		s.plans[plan] = vars
	}
	vars[field] = merged
	return true, merged, s.save()
}

// toStringList normalises a stored JSON value into []string. JSON
// round-trips turn string lists into []any.
func toStringList(value any) []string {
	switch typed := value.(type) {
	case []string:
		return typed
	case []any:
		list := make([]string, 0, len(typed))
		for _, item := range typed {
			if s, ok := item.(string); ok {
				list = append(list, s)
			}
		}
		return list
	default:
		return nil
	}
}
