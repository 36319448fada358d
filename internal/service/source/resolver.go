// Package source resolves dataset source URIs to local directories.
//
// Local paths pass through untouched; remote zip archives (http, https, s3,
// gs, az schemes) are downloaded into a cache directory and extracted once,
// keyed by the URI, so repeated pipeline runs skip the fetch.
package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/michaelsamjatin/imagelake/internal/config"
	"github.com/michaelsamjatin/imagelake/internal/domain"
)

// Resolver turns dataset source URIs into local directories.
type Resolver struct {
	cfg    *config.Config
	logger *slog.Logger
	client *http.Client
}

// NewResolver creates a Resolver backed by the given config.
func NewResolver(cfg *config.Config, logger *slog.Logger) *Resolver {
	return &Resolver{
		cfg:    cfg,
		logger: logger,
		client: &http.Client{Timeout: 10 * time.Minute},
	}
}

// Resolve returns a local directory containing the dataset for sourceURI.
// Dispatch is by scheme; everything without a scheme is a local path.
func (r *Resolver) Resolve(ctx context.Context, sourceURI string) (string, error) {
	scheme, rest := splitScheme(sourceURI)

	switch scheme {
	case "", "file":
		if strings.EqualFold(filepath.Ext(rest), ".zip") {
			return r.resolveCached(sourceURI, func(dst string) error {
				return copyLocal(rest, dst)
			})
		}
		return r.resolveLocal(rest)
	case "http", "https":
		return r.resolveCached(sourceURI, func(dst string) error {
			return r.fetchHTTP(ctx, sourceURI, dst)
		})
	case "s3":
		return r.resolveCached(sourceURI, func(dst string) error {
			return r.fetchS3(ctx, rest, dst)
		})
	case "gs":
		return r.resolveCached(sourceURI, func(dst string) error {
			return r.fetchGCS(ctx, rest, dst)
		})
	case "az":
		return r.resolveCached(sourceURI, func(dst string) error {
			return r.fetchAzure(ctx, rest, dst)
		})
	default:
		return "", domain.ErrValidation("unsupported source scheme %q", scheme)
	}
}

func (r *Resolver) resolveLocal(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", domain.ErrNotFound("source directory %s: %v", path, err)
	}
	if !info.IsDir() {
		return "", domain.ErrValidation("source %s is not a directory", path)
	}
	return path, nil
}

// resolveCached extracts the archive fetched by fetch into a cache directory
// derived from the URI. When the directory already exists the fetch is skipped.
func (r *Resolver) resolveCached(uri string, fetch func(dstFile string) error) (string, error) {
	sum := sha256.Sum256([]byte(uri))
	dir := filepath.Join(r.cfg.CacheDir, hex.EncodeToString(sum[:8]))

	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		r.logger.Debug("source cache hit", "uri", uri, "dir", dir)
		return dir, nil
	}

	if err := os.MkdirAll(r.cfg.CacheDir, 0o755); err != nil {
		return "", fmt.Errorf("create cache dir: %w", err)
	}

	archive, err := os.CreateTemp(r.cfg.CacheDir, "download-*.zip")
	if err != nil {
		return "", fmt.Errorf("create temp archive: %w", err)
	}
	archivePath := archive.Name()
	_ = archive.Close()
	defer func() { _ = os.Remove(archivePath) }()

	r.logger.Info("fetching dataset archive", "uri", uri)
	if err := fetch(archivePath); err != nil {
		return "", err
	}

	// Extract into a staging directory, then rename, so partially extracted
	// trees never pass as cache hits.
	staging := dir + ".partial"
	_ = os.RemoveAll(staging)
	if err := extractZip(archivePath, staging); err != nil {
		_ = os.RemoveAll(staging)
		return "", err
	}
	if err := os.Rename(staging, dir); err != nil {
		return "", fmt.Errorf("finalize cache dir: %w", err)
	}

	r.logger.Info("dataset archive cached", "uri", uri, "dir", dir)
	return dir, nil
}

func (r *Resolver) fetchHTTP(ctx context.Context, uri, dst string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", uri, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", uri, resp.Status)
	}
	return writeStream(dst, resp.Body)
}

// splitScheme separates a URI scheme from the remainder. Single-letter
// "schemes" are treated as Windows drive letters, i.e. local paths.
func splitScheme(uri string) (scheme, rest string) {
	idx := strings.Index(uri, "://")
	if idx <= 1 {
		return "", uri
	}
	return strings.ToLower(uri[:idx]), uri[idx+3:]
}

// splitBucketKey splits "bucket/path/to/object" into its two halves.
func splitBucketKey(rest string) (bucket, key string, err error) {
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return "", "", domain.ErrValidation("expected <bucket>/<key> in source URI, got %q", rest)
	}
	return bucket, key, nil
}

func copyLocal(src, dst string) error {
	in, err := os.Open(src) //nolint:gosec // src is an operator-provided dataset path
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer func() { _ = in.Close() }()
	return writeStream(dst, in)
}

func writeStream(dst string, src io.Reader) error {
	out, err := os.Create(dst) //nolint:gosec // dst lives under the cache dir
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return out.Close()
}
