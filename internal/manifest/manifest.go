// Package manifest loads declarative dataset definitions from YAML files
// and applies them to the metastore.
package manifest

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// Manifest is the root of a declarative dataset definition file.
type Manifest struct {
	Version  int       `yaml:"version"`
	Datasets []Dataset `yaml:"datasets"`
}

// Dataset is a single dataset entry in a manifest.
type Dataset struct {
	Name        string `yaml:"name"`
	SourceURI   string `yaml:"source_uri"`
	Layout      string `yaml:"layout"`
	Description string `yaml:"description,omitempty"`
	Schedule    string `yaml:"schedule,omitempty"`
	Paused      bool   `yaml:"paused,omitempty"`
}

// Load reads and validates a manifest file. Unknown YAML fields are
// rejected to catch typos early.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks structural constraints across the manifest.
func (m *Manifest) Validate() error {
	if m.Version != 1 {
		return domain.ErrValidation("unsupported manifest version %d: expected 1", m.Version)
	}
	if len(m.Datasets) == 0 {
		return domain.ErrValidation("manifest defines no datasets")
	}
	seen := make(map[string]bool, len(m.Datasets))
	for i, ds := range m.Datasets {
		if ds.Name == "" {
			return domain.ErrValidation("dataset %d: name is required", i)
		}
		if seen[ds.Name] {
			return domain.ErrValidation("duplicate dataset name %q", ds.Name)
		}
		seen[ds.Name] = true
		req := ds.toCreateRequest()
		if err := req.Validate(); err != nil {
			return fmt.Errorf("dataset %q: %w", ds.Name, err)
		}
	}
	return nil
}

func (d Dataset) toCreateRequest() domain.CreateDatasetRequest {
	req := domain.CreateDatasetRequest{
		Name:        d.Name,
		SourceURI:   d.SourceURI,
		Layout:      d.Layout,
		Description: d.Description,
		IsPaused:    d.Paused,
	}
	if d.Schedule != "" {
		schedule := d.Schedule
		req.ScheduleCron = &schedule
	}
	return req
}

// Upserter applies dataset definitions to the metastore.
// Implemented by dataset.Service.
type Upserter interface {
	Upsert(ctx context.Context, actor string, req domain.CreateDatasetRequest) (*domain.Dataset, bool, error)
}

// ApplyResult summarizes one dataset's outcome during Apply.
type ApplyResult struct {
	Name    string
	Created bool
}

// Apply upserts every dataset in the manifest. It stops at the first error.
func Apply(ctx context.Context, m *Manifest, svc Upserter, actor string, logger *slog.Logger) ([]ApplyResult, error) {
	results := make([]ApplyResult, 0, len(m.Datasets))
	for _, ds := range m.Datasets {
		_, created, err := svc.Upsert(ctx, actor, ds.toCreateRequest())
		if err != nil {
			return results, fmt.Errorf("applying dataset %q: %w", ds.Name, err)
		}
		verb := "updated"
		if created {
			verb = "created"
		}
		logger.Info("manifest dataset applied", "dataset", ds.Name, "result", verb)
		results = append(results, ApplyResult{Name: ds.Name, Created: created})
	}
	return results, nil
}
