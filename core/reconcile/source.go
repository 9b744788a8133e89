package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"file-hasher/core/builder"
	"file-hasher/core/catalog"
	"file-hasher/core/manifest"
	"file-hasher/core/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source loads one side of a reconciliation.
type Source interface {
	// Name describes the source in logs and reports.
	Name() string

	// Load returns the manifest. Malformed lines are logged and skipped;
	// only a structural failure returns an error.
	Load(ctx context.Context) (*manifest.Manifest, error)
}

// Reference prefixes understood by ParseSource.
const (
	StoragePrefix = "s3://"
	CatalogPrefix = "catalog://"
)

// Spec names the two manifests of a reconciliation.
type Spec struct {
	// Source describes the desired layout.
	Source Source

	// Destination describes the tree the script runs in. When nil the
	// source is compared against itself.
	Destination Source
}

// Env holds the collaborators needed to resolve non-file references.
type Env struct {
	Storage       storage.Client
	Bucket        string
	StoragePrefix string
	Catalog       *catalog.Catalog
	Logger        *zap.Logger
}

// ParseSource resolves a manifest reference: "s3://<key>" for a published
// manifest, "catalog://<snapshot>" for a catalog snapshot, anything else is
// a local file path.
func ParseSource(ref string, env Env) (Source, error) {
	logger := env.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch {
	case strings.HasPrefix(ref, StoragePrefix):
		if env.Storage == nil {
			return nil, fmt.Errorf("%s: object storage is not configured", ref)
		}
		key := storage.ObjectKey(env.StoragePrefix, strings.TrimPrefix(ref, StoragePrefix))
		return &StorageSource{Client: env.Storage, Bucket: env.Bucket, Key: key, Logger: logger}, nil
	case strings.HasPrefix(ref, CatalogPrefix):
		if env.Catalog == nil {
			return nil, fmt.Errorf("%s: catalog is not configured", ref)
		}
		return &CatalogSource{Catalog: env.Catalog, Snapshot: strings.TrimPrefix(ref, CatalogPrefix)}, nil
	case ref == "":
		return nil, errors.New("empty manifest reference")
	default:
		return &FileSource{Path: ref, Logger: logger}, nil
	}
}

// FileSource reads a manifest file from disk.
type FileSource struct {
	Path   string
	Logger *zap.Logger
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Load(ctx context.Context) (*manifest.Manifest, error) {
	m, warnings, err := manifest.Load(s.Path)
	if err != nil {
		return nil, err
	}
	logWarnings(s.Logger, s.Path, warnings)
	return m, nil
}

// StorageSource downloads a published manifest.
type StorageSource struct {
	Client storage.Client
	Bucket string
	Key    string
	Logger *zap.Logger
}

func (s *StorageSource) Name() string { return StoragePrefix + s.Key }

func (s *StorageSource) Load(ctx context.Context) (*manifest.Manifest, error) {
	m, warnings, err := storage.GetManifest(ctx, s.Client, s.Bucket, s.Key)
	if err != nil {
		return nil, err
	}
	logWarnings(s.Logger, s.Name(), warnings)
	return m, nil
}

// CatalogSource loads a catalog snapshot.
type CatalogSource struct {
	Catalog  *catalog.Catalog
	Snapshot string
}

func (s *CatalogSource) Name() string { return CatalogPrefix + s.Snapshot }

func (s *CatalogSource) Load(ctx context.Context) (*manifest.Manifest, error) {
	return s.Catalog.Load(ctx, s.Snapshot)
}

// ManifestSource serves an already loaded manifest.
type ManifestSource struct {
	Label    string
	Manifest *manifest.Manifest
}

func (s *ManifestSource) Name() string { return s.Label }

func (s *ManifestSource) Load(context.Context) (*manifest.Manifest, error) {
	return s.Manifest, nil
}

// VerifiedSource drops records whose file is no longer present under Root.
// It wraps the destination when the script is planned on the machine that
// holds the tree.
type VerifiedSource struct {
	Source Source
	Root   string
	Logger *zap.Logger
}

func (s *VerifiedSource) Name() string { return s.Source.Name() }

func (s *VerifiedSource) Load(ctx context.Context) (*manifest.Manifest, error) {
	m, err := s.Source.Load(ctx)
	if err != nil {
		return nil, err
	}
	out, skipped, err := builder.Verify(ctx, s.Root, m)
	if err != nil {
		return nil, err
	}
	if s.Logger != nil {
		for _, e := range skipped {
			s.Logger.Warn("Skipping record of unavailable file",
				zap.String("manifest", s.Name()),
				zap.String("path", e.Path),
				zap.Error(e.Err),
			)
		}
	}
	return out, nil
}

func logWarnings(logger *zap.Logger, name string, warnings []*manifest.ParseError) {
	if logger == nil {
		return
	}
	for _, w := range warnings {
		logger.Warn("Skipping malformed manifest line",
			zap.String("manifest", name),
			zap.Int("line", w.Line),
			zap.String("reason", w.Reason),
		)
	}
}

// ReconcileWithPlan loads both manifests concurrently and reconciles them.
// Nothing is planned unless both load completely.
func ReconcileWithPlan(ctx context.Context, spec *Spec, opts Options) (*Plan, error) {
	if spec == nil || spec.Source == nil {
		return nil, errors.New("reconcile: source is required")
	}

	var src, dst *manifest.Manifest
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := spec.Source.Load(gctx)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", spec.Source.Name(), err)
		}
		src = m
		return nil
	})
	if spec.Destination != nil {
		g.Go(func() error {
			m, err := spec.Destination.Load(gctx)
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", spec.Destination.Name(), err)
			}
			dst = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Self-comparison
	if spec.Destination == nil {
		return Dedup(src)
	}
	if SameSource(spec.Source, spec.Destination) {
		return Dedup(dst)
	}
	return Reconcile(src, dst, opts)
}

// SameSource reports whether a and b refer to the same manifest: the same
// file on disk, the same object key, the same catalog snapshot or the same
// in-memory manifest.
func SameSource(a, b Source) bool {
	if v, ok := a.(*VerifiedSource); ok {
		a = v.Source
	}
	if v, ok := b.(*VerifiedSource); ok {
		b = v.Source
	}

	switch x := a.(type) {
	case *FileSource:
		y, ok := b.(*FileSource)
		return ok && samePath(x.Path, y.Path)
	case *ManifestSource:
		y, ok := b.(*ManifestSource)
		return ok && x.Manifest == y.Manifest
	case *StorageSource:
		y, ok := b.(*StorageSource)
		return ok && x.Bucket == y.Bucket && x.Key == y.Key
	case *CatalogSource:
		y, ok := b.(*CatalogSource)
		return ok && x.Catalog == y.Catalog && x.Snapshot == y.Snapshot
	}
	return false
}

func samePath(a, b string) bool {
	if filepath.Clean(a) == filepath.Clean(b) {
		return true
	}
	sa, err := os.Stat(a)
	if err != nil {
		return false
	}
	sb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(sa, sb)
}
