package manifest

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

const validManifest = `
version: 1
datasets:
  - name: dagm_class1
    source_uri: ./data/dagm_excerpt
    layout: dagm
    description: DAGM class 1 excerpt
    schedule: "0 3 * * *"
  - name: mvtec_bottle
    source_uri: ./data/mvtec_excerpt
    layout: mvtec
    paused: true
`

func TestParse(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	require.Len(t, m.Datasets, 2)
	assert.Equal(t, "dagm_class1", m.Datasets[0].Name)
	assert.Equal(t, "0 3 * * *", m.Datasets[0].Schedule)
	assert.True(t, m.Datasets[1].Paused)
	assert.Empty(t, m.Datasets[1].Schedule)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagelake.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validManifest), 0o600))

	m, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, m.Datasets, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "version: 1\ndatasets:\n  - name: a\n    source_uri: /x\n    layout: flat\n    bogus: true\n"},
		{"bad version", "version: 2\ndatasets:\n  - name: a\n    source_uri: /x\n    layout: flat\n"},
		{"no datasets", "version: 1\ndatasets: []\n"},
		{"missing name", "version: 1\ndatasets:\n  - source_uri: /x\n    layout: flat\n"},
		{"bad layout", "version: 1\ndatasets:\n  - name: a\n    source_uri: /x\n    layout: coco\n"},
		{"duplicate name", "version: 1\ndatasets:\n  - name: a\n    source_uri: /x\n    layout: flat\n  - name: a\n    source_uri: /y\n    layout: flat\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

type fakeUpserter struct {
	calls   []domain.CreateDatasetRequest
	created map[string]bool
	fail    error
}

func (f *fakeUpserter) Upsert(_ context.Context, _ string, req domain.CreateDatasetRequest) (*domain.Dataset, bool, error) {
	if f.fail != nil {
		return nil, false, f.fail
	}
	f.calls = append(f.calls, req)
	return &domain.Dataset{Name: req.Name}, f.created[req.Name], nil
}

func TestApply(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	upserter := &fakeUpserter{created: map[string]bool{"dagm_class1": true}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	results, err := Apply(context.Background(), m, upserter, "cli", logger)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, ApplyResult{Name: "dagm_class1", Created: true}, results[0])
	assert.Equal(t, ApplyResult{Name: "mvtec_bottle", Created: false}, results[1])

	require.Len(t, upserter.calls, 2)
	require.NotNil(t, upserter.calls[0].ScheduleCron)
	assert.Equal(t, "0 3 * * *", *upserter.calls[0].ScheduleCron)
	assert.Nil(t, upserter.calls[1].ScheduleCron)
	assert.True(t, upserter.calls[1].IsPaused)
}

func TestApply_StopsOnError(t *testing.T) {
	m, err := Parse([]byte(validManifest))
	require.NoError(t, err)

	upserter := &fakeUpserter{fail: domain.ErrValidation("boom")}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	results, err := Apply(context.Background(), m, upserter, "cli", logger)
	assert.Error(t, err)
	assert.Empty(t, results)
}
