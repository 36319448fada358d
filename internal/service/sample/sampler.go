// Package sample subsets the full DAGM and MVTec datasets into small
// excerpts with the same directory conventions, so pipelines and workshops
// can run against a few megabytes instead of the full archives.
package sample

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Summary reports what one sampling call copied.
type Summary struct {
	Class       string
	CleanCopied int
	PairsCopied int
}

// Sampler copies dataset excerpts. A zero value is not usable; construct
// with New.
type Sampler struct {
	logger *slog.Logger
}

// New creates a Sampler.
func New(logger *slog.Logger) *Sampler {
	return &Sampler{logger: logger}
}

// DAGM copies up to limit clean training images and up to limit defect/mask
// pairs for one DAGM class into out/dagm_excerpt/<class>/.
//
// DAGM layout: <class>/Train/*.PNG holds clean images, <class>/Test/*.PNG
// holds defect images, and <class>/Test/Label/<id>_label.PNG holds masks.
// A defect image is copied only when its mask exists.
func (s *Sampler) DAGM(root, out, class string, limit int) (*Summary, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	classRoot := filepath.Join(root, class)
	trainDir := filepath.Join(classRoot, "Train")
	testDir := filepath.Join(classRoot, "Test")
	labelDir := filepath.Join(testDir, "Label")

	baseOut := filepath.Join(out, "dagm_excerpt", class)
	cleanDst := filepath.Join(baseOut, "Train")
	defectDst := filepath.Join(baseOut, "Test")
	maskDst := filepath.Join(defectDst, "Label")

	// Clean images.
	cleanImgs, err := sortedGlob(trainDir, "*.PNG")
	if err != nil {
		return nil, err
	}
	if len(cleanImgs) > limit {
		cleanImgs = cleanImgs[:limit]
	}
	if err := copyAll(cleanImgs, cleanDst); err != nil {
		return nil, err
	}

	// Defect/mask pairs: walk masks, pair each with its image by stripping
	// the _label suffix. Skip masks whose image is missing.
	if err := os.MkdirAll(defectDst, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", defectDst, err)
	}
	if err := os.MkdirAll(maskDst, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", maskDst, err)
	}

	labels, err := sortedGlob(labelDir, "*_label.PNG")
	if err != nil {
		return nil, err
	}

	copied := 0
	for _, label := range labels {
		if copied >= limit {
			break
		}
		stem := strings.TrimSuffix(filepath.Base(label), "_label.PNG")
		img := filepath.Join(testDir, stem+".PNG")
		if _, err := os.Stat(img); err != nil {
			s.logger.Debug("skipping mask without image", "mask", label)
			continue
		}
		if err := copyFile(img, filepath.Join(defectDst, filepath.Base(img))); err != nil {
			return nil, err
		}
		if err := copyFile(label, filepath.Join(maskDst, filepath.Base(label))); err != nil {
			return nil, err
		}
		copied++
	}

	s.logger.Info("sampled DAGM class",
		"class", class, "clean", len(cleanImgs), "pairs", copied)
	return &Summary{Class: class, CleanCopied: len(cleanImgs), PairsCopied: copied}, nil
}

// MVTec copies up to limit clean training images and up to limit defect/mask
// pairs for one MVTec class into out/mvtec_excerpt/<class>/.
//
// MVTec layout: <class>/train/good/*.png holds clean images,
// <class>/test/<defect_type>/*.png holds defect images, and
// <class>/ground_truth/<defect_type>/<stem>_mask.png holds masks.
// A defect image is copied only when its mask exists.
func (s *Sampler) MVTec(root, out, class string, limit int) (*Summary, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	classRoot := filepath.Join(root, class)
	trainDir := filepath.Join(classRoot, "train", "good")
	testDir := filepath.Join(classRoot, "test")
	maskRoot := filepath.Join(classRoot, "ground_truth")

	baseOut := filepath.Join(out, "mvtec_excerpt", class)
	cleanDst := filepath.Join(baseOut, "train")
	defectDst := filepath.Join(baseOut, "test")
	maskDst := filepath.Join(baseOut, "ground_truth")

	// Clean images.
	cleanImgs, err := sortedGlob(trainDir, "*.png")
	if err != nil {
		return nil, err
	}
	if len(cleanImgs) > limit {
		cleanImgs = cleanImgs[:limit]
	}
	if err := copyAll(cleanImgs, cleanDst); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(defectDst, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", defectDst, err)
	}
	if err := os.MkdirAll(maskDst, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", maskDst, err)
	}

	// Defect images across all defect-type subdirectories, in sorted order.
	var defects []string
	entries, err := os.ReadDir(testDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", testDir, err)
	}
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "good" {
			continue
		}
		imgs, err := sortedGlob(filepath.Join(testDir, entry.Name()), "*.png")
		if err != nil {
			return nil, err
		}
		defects = append(defects, imgs...)
	}

	// Pairs keep their <defect_type>/ subdirectory; basenames repeat across
	// defect types.
	copied := 0
	for _, img := range defects {
		if copied >= limit {
			break
		}
		defectType := filepath.Base(filepath.Dir(img))
		stem := strings.TrimSuffix(filepath.Base(img), filepath.Ext(img))
		mask := filepath.Join(maskRoot, defectType, stem+"_mask.png")
		if _, err := os.Stat(mask); err != nil {
			s.logger.Debug("skipping defect without mask", "image", img)
			continue
		}
		if err := os.MkdirAll(filepath.Join(defectDst, defectType), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Join(defectDst, defectType), err)
		}
		if err := os.MkdirAll(filepath.Join(maskDst, defectType), 0o755); err != nil {
			return nil, fmt.Errorf("mkdir %s: %w", filepath.Join(maskDst, defectType), err)
		}
		if err := copyFile(img, filepath.Join(defectDst, defectType, filepath.Base(img))); err != nil {
			return nil, err
		}
		if err := copyFile(mask, filepath.Join(maskDst, defectType, filepath.Base(mask))); err != nil {
			return nil, err
		}
		copied++
	}

	s.logger.Info("sampled MVTec class",
		"class", class, "clean", len(cleanImgs), "pairs", copied)
	return &Summary{Class: class, CleanCopied: len(cleanImgs), PairsCopied: copied}, nil
}

// sortedGlob returns the sorted matches of pattern under dir.
// A missing directory is reported as an error via the glob result being empty
// plus a stat check, since a typo'd root is the most common operator mistake.
func sortedGlob(dir, pattern string) ([]string, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("source directory %s: %w", dir, err)
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s/%s: %w", dir, pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

func copyAll(srcs []string, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dstDir, err)
	}
	for _, src := range srcs {
		if err := copyFile(src, filepath.Join(dstDir, filepath.Base(src))); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // paths come from directory walks
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.Create(dst) //nolint:gosec // destination is operator-chosen
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy %s: %w", src, err)
	}
	return out.Close()
}
