package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jjudge-oj/useradmin/config"
)

// Object is a single upload to the archive bucket.
type Object struct {
	Key          string
	Data         []byte
	ContentType  string
	DownloadName string
}

// ObjectStorage defines the object operations the archive needs.
type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	Put(ctx context.Context, obj Object) error
	Bucket() string
}

// Archive keeps a copy of every exported report in object storage.
type Archive struct {
	backend ObjectStorage
	newID   func() string
}

// NewArchive constructs an Archive over the provided backend.
func NewArchive(backend ObjectStorage) *Archive {
	return &Archive{
		backend: backend,
		newID:   uuid.NewString,
	}
}

// Open builds the archive selected by cfg. It returns a nil Archive when
// archiving is disabled.
func Open(ctx context.Context, cfg config.ArchiveConfig) (*Archive, error) {
	var (
		backend ObjectStorage
		err     error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", config.ArchiveNone:
		return nil, nil
	case config.ArchiveMinio:
		backend, err = NewMinioBackend(cfg.Minio)
	case config.ArchiveGCS:
		backend, err = NewGCSBackend(ctx, cfg.GCS)
	default:
		return nil, fmt.Errorf("unknown report archive backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	archive := NewArchive(backend)
	if err := archive.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure archive bucket: %w", err)
	}
	return archive, nil
}

// EnsureBucket ensures the configured bucket exists.
func (a *Archive) EnsureBucket(ctx context.Context) error {
	return a.backend.EnsureBucket(ctx)
}

// Save uploads a report and returns the object key it was stored under.
func (a *Archive) Save(ctx context.Context, name, contentType string, generatedAt time.Time, data []byte) (string, error) {
	key := ReportKey(generatedAt, a.newID(), name)
	err := a.backend.Put(ctx, Object{
		Key:          key,
		Data:         data,
		ContentType:  contentType,
		DownloadName: name,
	})
	if err != nil {
		return "", fmt.Errorf("archive %s: %w", key, err)
	}
	return key, nil
}

// Bucket returns the configured bucket name.
func (a *Archive) Bucket() string {
	return a.backend.Bucket()
}

// ReportKey lays out archived reports by UTC generation date.
func ReportKey(generatedAt time.Time, id, name string) string {
	return fmt.Sprintf("reports/%s/%s-%s", generatedAt.UTC().Format("2006/01/02"), id, name)
}

func contentDisposition(name string) string {
	if name == "" {
		return ""
	}
	return fmt.Sprintf("attachment; filename=%q", name)
}
