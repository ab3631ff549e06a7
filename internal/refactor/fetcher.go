package refactor

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"

	"go.uber.org/zap"

	"refactory/internal/ingest"
)

// FileFetcher supplies source units from explicit paths or by walking
// directories, keeping only files in a supported language.
type FileFetcher struct {
	paths []string
	log   *zap.Logger
}

// NewFileFetcher builds a fetcher over the given files or directories.
func NewFileFetcher(paths []string, log *zap.Logger) *FileFetcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &FileFetcher{paths: paths, log: log.Named("fetcher")}
}

// Fetch loads every supported file under the configured paths. Files
// that cannot be loaded are logged and skipped; the fetch itself fails
// only on an unreadable root.
func (f *FileFetcher) Fetch(ctx context.Context) ([]*ingest.SourceUnit, error) {
	var units []*ingest.SourceUnit

	for _, root := range f.paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != root && (name == ".git" || name == "node_modules" || name == "vendor") {
					return filepath.SkipDir
				}
				return nil
			}
			if !ingest.Supported(path) {
				return nil
			}
			unit, err := ingest.Load(path)
			if err != nil {
				if errors.Is(err, ingest.ErrBinaryFile) || errors.Is(err, ingest.ErrFileTooLarge) {
					f.log.Debug("skipping file", zap.String("path", path), zap.Error(err))
					return nil
				}
				f.log.Warn("failed to load file", zap.String("path", path), zap.Error(err))
				return nil
			}
			units = append(units, unit)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	f.log.Info("fetched source units", zap.Int("count", len(units)))
	return units, nil
}
