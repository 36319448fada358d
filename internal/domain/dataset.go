package domain

import "time"

// Dataset layout constants. The layout tells the sampler and the pipeline
// which directory conventions to expect under the dataset root.
const (
	LayoutDAGM  = "dagm"
	LayoutMVTec = "mvtec"
	LayoutFlat  = "flat"
)

// Dataset is a registered image source: a local directory or a remote
// archive that load pipelines pull from.
type Dataset struct {
	ID           string
	Name         string
	SourceURI    string
	Layout       string
	Description  string
	ScheduleCron *string
	IsPaused     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateDatasetRequest holds parameters for registering a dataset.
type CreateDatasetRequest struct {
	Name         string
	SourceURI    string
	Layout       string
	Description  string
	ScheduleCron *string
	IsPaused     bool
}

// Validate checks that the request is well-formed.
func (r *CreateDatasetRequest) Validate() error {
	if r.Name == "" {
		return ErrValidation("name is required")
	}
	if r.SourceURI == "" {
		return ErrValidation("source_uri is required")
	}
	switch r.Layout {
	case LayoutDAGM, LayoutMVTec, LayoutFlat:
	case "":
		return ErrValidation("layout is required")
	default:
		return ErrValidation("unknown layout %q: expected dagm, mvtec, or flat", r.Layout)
	}
	return nil
}

// UpdateDatasetRequest holds partial-update parameters for a dataset.
// Nil fields are left unchanged.
type UpdateDatasetRequest struct {
	SourceURI    *string
	Description  *string
	ScheduleCron *string // pointer-to-pointer semantics not needed: empty string clears
	IsPaused     *bool
}
