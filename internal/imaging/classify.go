package imaging

import (
	"path/filepath"
	"strings"

	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// imageExtensions are the file extensions the pipeline walks for,
// compared case-insensitively.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// IsImagePath reports whether path has a recognized image extension.
func IsImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// Classification is the record metadata derived from a source file path.
type Classification struct {
	Dataset string
	Class   string
	Split   string
}

// Classify derives dataset, class, and split from a source path.
//
// Dataset comes from a case-insensitive substring match (mvtec, dagm).
// Split precedence is train, then test, then ground_truth/label, so DAGM
// mask files under Test/Label classify as split=test alongside the defect
// images they annotate.
// Class is the path segment starting with "Class" (DAGM convention), or
// otherwise the segment directly above the first split directory (MVTec:
// mvtec/<class>/train/good/...).
func Classify(path string) Classification {
	lower := strings.ToLower(path)

	c := Classification{
		Dataset: domain.DatasetUnknown,
		Class:   domain.ClassUnknown,
		Split:   domain.SplitUnknown,
	}

	switch {
	case strings.Contains(lower, "mvtec"):
		c.Dataset = "mvtec"
	case strings.Contains(lower, "dagm"):
		c.Dataset = "dagm"
	}

	switch {
	case strings.Contains(lower, "train"):
		c.Split = domain.SplitTrain
	case strings.Contains(lower, "test"):
		c.Split = domain.SplitTest
	case strings.Contains(lower, "ground_truth"), strings.Contains(lower, "label"):
		c.Split = domain.SplitGroundTruth
	}

	segments := strings.FieldsFunc(path, func(r rune) bool {
		return r == '/' || r == '\\'
	})
	for i, seg := range segments {
		if strings.HasPrefix(seg, "Class") {
			c.Class = seg
			break
		}
		if i+1 < len(segments) && isSplitDir(segments[i+1]) && seg != "" {
			c.Class = seg
			break
		}
	}

	return c
}

func isSplitDir(seg string) bool {
	switch strings.ToLower(seg) {
	case "train", "test", "ground_truth":
		return true
	}
	return false
}
