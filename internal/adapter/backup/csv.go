// Package backup writes the consolidated observations to a flat CSV extract
// and optionally uploads it to S3.
package backup

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/bird-observation-etl/internal/config"
	"github.com/couchcryptid/bird-observation-etl/internal/domain"
)

// Uploader copies a finished extract to remote storage.
type Uploader interface {
	Upload(ctx context.Context, name string, body io.ReadSeeker) (uri string, err error)
}

// Writer writes the backup extract. It implements pipeline.Backup.
type Writer struct {
	path     string
	uploader Uploader
	logger   *slog.Logger
}

// NewWriter creates a Writer for path. uploader may be nil.
func NewWriter(path string, uploader Uploader, logger *slog.Logger) *Writer {
	return &Writer{path: path, uploader: uploader, logger: logger}
}

// NewWriterFromConfig creates a Writer for BACKUP_PATH, uploading to S3 when
// BACKUP_S3_BUCKET is set.
func NewWriterFromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Writer, error) {
	var uploader Uploader
	if cfg.BackupS3Bucket != "" {
		u, err := NewS3Uploader(ctx, S3ConfigFrom(cfg))
		if err != nil {
			return nil, err
		}
		uploader = u
	}
	return NewWriter(cfg.BackupPath, uploader, logger), nil
}

// Write replaces the extract with obs, header first, columns in
// domain.Columns order. The file is written beside the target and renamed
// into place, so a failed write leaves the previous extract intact.
func (w *Writer) Write(ctx context.Context, obs []domain.Observation) (domain.BackupArtifact, error) {
	if err := writeCSV(ctx, w.path, obs); err != nil {
		return domain.BackupArtifact{}, err
	}
	res := domain.BackupArtifact{Path: w.path}
	w.logger.Info("backup written", "path", w.path, "rows", len(obs))

	if w.uploader == nil {
		return res, nil
	}
	f, err := os.Open(w.path)
	if err != nil {
		return res, fmt.Errorf("open backup for upload: %w", err)
	}
	defer func() { _ = f.Close() }()

	uri, err := w.uploader.Upload(ctx, filepath.Base(w.path), f)
	if err != nil {
		return res, fmt.Errorf("upload backup: %w", err)
	}
	res.URI = uri
	w.logger.Info("backup uploaded", "uri", uri)
	return res, nil
}

const ctxCheckEvery = 1000

func writeCSV(ctx context.Context, path string, obs []domain.Observation) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create backup dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create backup temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	cw := csv.NewWriter(tmp)
	if err = cw.Write(domain.Columns); err != nil {
		return fmt.Errorf("write backup header: %w", err)
	}
	for i, o := range obs {
		if i%ctxCheckEvery == 0 {
			if err = ctx.Err(); err != nil {
				return err
			}
		}
		if err = cw.Write(o.Record()); err != nil {
			return fmt.Errorf("write backup row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err = cw.Error(); err != nil {
		return fmt.Errorf("flush backup: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync backup: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename backup: %w", err)
	}
	return nil
}

// ReadCSV reads an extract written by Writer, returning the header and the
// data records.
func ReadCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("read %s: missing header", path)
	}
	return records[0], records[1:], nil
}
