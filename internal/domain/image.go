package domain

import "time"

// Split constants for image records. Derived from the path of the original
// file; ground_truth covers defect masks shipped next to test images.
const (
	SplitTrain       = "train"
	SplitTest        = "test"
	SplitGroundTruth = "ground_truth"
	SplitUnknown     = "unknown"

	DatasetUnknown = "unknown"
	ClassUnknown   = "unknown"
)

// ImageRecord is the shared record schema both source datasets are
// normalized into. OriginalPath is the merge key: loading the same file
// twice replaces the earlier row.
type ImageRecord struct {
	Filename       string
	OriginalPath   string
	Dataset        string
	Class          string
	Split          string
	OriginalWidth  int64
	OriginalHeight int64
	ResizedWidth   int64
	ResizedHeight  int64
	ImageData      []byte

	// Load metadata.
	LoadRunID string
	Source    string
	LoadedAt  time.Time
}

// ImageMeta is an ImageRecord without the binary payload, for listings.
type ImageMeta struct {
	Filename       string
	OriginalPath   string
	Dataset        string
	Class          string
	Split          string
	OriginalWidth  int64
	OriginalHeight int64
	ResizedWidth   int64
	ResizedHeight  int64
	SizeBytes      int64
	LoadRunID      string
	Source         string
	LoadedAt       time.Time
}

// ImageFilter narrows lake listings and stats.
type ImageFilter struct {
	Dataset *string
	Class   *string
	Split   *string
	Page    PageRequest
}

// LakeStatsRow is one (dataset, class, split) bucket with its record count.
type LakeStatsRow struct {
	Dataset string
	Class   string
	Split   string
	Count   int64
}
