package builder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"file-hasher/core/hasher"
	"file-hasher/core/manifest"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Report summarizes a build.
type Report struct {
	// Enumerated is the number of regular files found.
	Enumerated int
	// Hashed is the number of files whose content was read.
	Hashed int
	// Reused is the number of digests carried over unchanged (update mode).
	Reused int
	// Dropped lists existing record paths removed in update mode.
	Dropped []string
	// Skipped lists files that could not be read.
	Skipped []*manifest.FileUnavailableError
	// Unrepresentable lists paths that cannot be stored in a manifest.
	Unrepresentable []string
	// AlgorithmReset is set when an existing manifest in another algorithm
	// was discarded after an explicit override.
	AlgorithmReset bool
}

// Builder computes manifests for one tree.
type Builder struct {
	opts        Options
	alg         hasher.Algorithm
	logger      *zap.Logger
	manifestRel string
}

// New validates opts and returns a Builder.
func New(opts Options, logger *zap.Logger) (*Builder, error) {
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Mode == "" {
		opts.Mode = ModeGenerate
	}
	if _, err := ParseMode(string(opts.Mode)); err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.Algorithm == "" {
		opts.Algorithm = hasher.Default
	}
	alg, err := hasher.Lookup(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Builder{
		opts:        opts,
		alg:         alg,
		logger:      logger,
		manifestRel: relativeManifest(opts.Root, opts.ManifestPath),
	}, nil
}

// job is one file assigned to a worker.
type job struct {
	entry fileEntry
}

// Build hashes the tree and merges the result with existing according to the
// mode. existing may be nil. On error no manifest is returned.
func (b *Builder) Build(ctx context.Context, existing *manifest.Manifest) (*manifest.Manifest, *Report, error) {
	report := &Report{}

	if b.opts.Mode == ModeGenerate {
		existing = nil
	}
	if existing != nil && existing.Algorithm != "" && existing.Algorithm != b.alg.Name {
		mismatch := &manifest.AlgorithmMismatchError{Existing: existing.Algorithm, Requested: b.alg.Name}
		if !b.opts.AllowAlgorithmChange {
			return nil, nil, mismatch
		}
		b.logger.Warn("Discarding existing manifest hashed with another algorithm", zap.Error(mismatch))
		existing = nil
		report.AlgorithmReset = true
	}

	enum, err := b.enumerate(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate %s: %w", b.opts.Root, err)
	}
	report.Enumerated = len(enum.files)
	report.Skipped = append(report.Skipped, enum.skipped...)
	report.Unrepresentable = enum.unrepresentable

	result := manifest.New(b.alg.Name)
	if b.opts.Mode == ModeAppend && existing != nil {
		result = existing.Clone()
		result.Algorithm = b.alg.Name
	}

	var pending []job
	for _, f := range enum.files {
		if b.opts.Mode == ModeUpdate && existing != nil {
			if prev, ok := existing.Get(f.rel); ok && reusable(prev, f) {
				// Reused digests still require a readable file
				if err := readable(f); err != nil {
					report.Skipped = append(report.Skipped, err)
					continue
				}
				prev.Inode = f.inode
				if err := result.Put(prev); err != nil {
					return nil, nil, err
				}
				report.Reused++
				continue
			}
		}
		pending = append(pending, job{entry: f})
	}

	hashed, skipped, err := b.hashAll(ctx, pending)
	if err != nil {
		return nil, nil, err
	}
	report.Skipped = append(report.Skipped, skipped...)

	for _, rec := range hashed {
		if err := result.Put(rec); err != nil {
			return nil, nil, err
		}
	}
	report.Hashed = len(hashed)
	result.SortByPath()

	if b.opts.Mode == ModeUpdate && existing != nil {
		for _, p := range existing.Paths() {
			if !result.Has(p) {
				report.Dropped = append(report.Dropped, p)
			}
		}
	}

	b.logger.Info("Manifest built",
		zap.String("mode", string(b.opts.Mode)),
		zap.String("algorithm", b.alg.Name),
		zap.Int("files", report.Enumerated),
		zap.Int("hashed", report.Hashed),
		zap.Int("reused", report.Reused),
		zap.Int("dropped", len(report.Dropped)),
		zap.Int("skipped", len(report.Skipped)),
	)

	return result, report, nil
}

// reusable reports whether prev still describes the file on disk.
func reusable(prev manifest.Record, f fileEntry) bool {
	return prev.Mtime.Plausible() && prev.Size == f.size && prev.Mtime == f.mtime
}

// readable opens f for reading without hashing it.
func readable(f fileEntry) *manifest.FileUnavailableError {
	file, err := os.Open(f.abs)
	if err != nil {
		return &manifest.FileUnavailableError{Path: f.rel, Err: err}
	}
	file.Close()
	return nil
}

// hashAll partitions jobs statically across the pool and hashes them.
func (b *Builder) hashAll(ctx context.Context, jobs []job) ([]manifest.Record, []*manifest.FileUnavailableError, error) {
	workers := b.opts.Workers
	if workers > len(jobs) {
		workers = len(jobs)
	}
	if workers == 0 {
		return nil, nil, nil
	}

	partitions := make([][]job, workers)
	for i, j := range jobs {
		partitions[i%workers] = append(partitions[i%workers], j)
	}

	results := make([][]manifest.Record, workers)
	skipped := make([][]*manifest.FileUnavailableError, workers)

	events := make(chan Event, workers*4)
	aggregated := make(chan struct{})
	go func() {
		defer close(aggregated)
		for ev := range events {
			if b.opts.Progress != nil {
				b.opts.Progress(ev)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			assigned := partitions[w]
			for i, j := range assigned {
				rec, err := b.hashOne(gctx, j.entry)
				if err != nil {
					if ctxErr := gctx.Err(); ctxErr != nil {
						return ctxErr
					}
					var unavailable *manifest.FileUnavailableError
					if !errors.As(err, &unavailable) {
						return err
					}
					b.logger.Warn("Skipping file", zap.String("path", j.entry.rel), zap.Error(unavailable.Err))
					skipped[w] = append(skipped[w], unavailable)
				} else {
					results[w] = append(results[w], rec)
				}
				events <- Event{WorkerID: w, Completed: i + 1, Total: len(assigned), Path: j.entry.rel}
			}
			return nil
		})
	}

	err := g.Wait()
	close(events)
	<-aggregated
	if err != nil {
		return nil, nil, err
	}

	var merged []manifest.Record
	var failed []*manifest.FileUnavailableError
	for w := 0; w < workers; w++ {
		merged = append(merged, results[w]...)
		failed = append(failed, skipped[w]...)
	}
	return merged, failed, nil
}

// hashOne streams a single file through the algorithm. Metadata is taken
// from the open file so it matches the content that was hashed.
func (b *Builder) hashOne(ctx context.Context, f fileEntry) (manifest.Record, error) {
	fh, err := os.Open(f.abs)
	if err != nil {
		return manifest.Record{}, &manifest.FileUnavailableError{Path: f.rel, Err: err}
	}
	defer fh.Close()

	info, err := fh.Stat()
	if err != nil {
		return manifest.Record{}, &manifest.FileUnavailableError{Path: f.rel, Err: err}
	}
	if !info.Mode().IsRegular() {
		return manifest.Record{}, &manifest.FileUnavailableError{Path: f.rel, Err: fmt.Errorf("not a regular file")}
	}

	digest, err := hasher.HashReader(ctx, fh, b.alg)
	if err != nil {
		if ctx.Err() != nil {
			return manifest.Record{}, ctx.Err()
		}
		return manifest.Record{}, &manifest.FileUnavailableError{Path: f.rel, Err: err}
	}

	dir, name := manifest.SplitPath(f.rel)
	return manifest.Record{
		Algorithm: b.alg.Name,
		Digest:    digest,
		Dir:       dir,
		Name:      name,
		Size:      info.Size(),
		Inode:     inodeOf(info),
		Mtime:     manifest.MtimeOf(info.ModTime()),
	}, nil
}
