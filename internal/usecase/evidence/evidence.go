// Package evidence stores uploaded workflow files ahead of a transaction and
// removes them again when the transaction does not commit.
package evidence

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rncflow/internal/bootstrap/logging"
	"rncflow/internal/domain/upload"
	"rncflow/internal/errs"
	"rncflow/internal/infrastructure/metrics"
	"rncflow/internal/ports"
)

type Store struct {
	files     ports.FileStore
	maxBytes  int64
	ioTimeout time.Duration
}

func NewStore(files ports.FileStore, maxBytes int64, ioTimeout time.Duration) *Store {
	if maxBytes <= 0 {
		maxBytes = upload.DefaultMaxBytes
	}
	return &Store{files: files, maxBytes: maxBytes, ioTimeout: ioTimeout}
}

// Save checks files against policy and writes them under folder. On any
// failure the files already written are removed and nothing is returned.
func (s *Store) Save(ctx context.Context, op string, folder string, policy upload.Policy, files []upload.File) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}
	if s == nil || s.files == nil {
		return nil, errors.New("file store is required")
	}
	if err := policy.Check(op, files, s.maxBytes); err != nil {
		return nil, err
	}

	ioCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path, err := s.files.Store(ioCtx, folder, f)
		if err != nil {
			s.Discard(ctx, paths...)
			return nil, errs.Wrapf(err, "store %s file %q", policy.Field, f.Filename)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Discard deletes paths best-effort. Failures are logged and counted.
func (s *Store) Discard(ctx context.Context, paths ...string) {
	if s == nil || s.files == nil || len(paths) == 0 {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	// cleanup runs after the caller's ctx may already be done
	ioCtx, cancel := s.withTimeout(context.WithoutCancel(ctx))
	defer cancel()

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := s.files.Delete(ioCtx, path); err != nil {
			metrics.FileCleanupFailures.Inc()
			logging.Warn(ctx, "delete stored file failed",
				slog.String("path", path),
				slog.Any("err", errs.Loggable(err)),
			)
		}
	}
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.ioTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.ioTimeout)
}
