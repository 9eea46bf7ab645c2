package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/internal/audit"
	"github.com/jjudge-oj/useradmin/internal/metrics"
	"github.com/jjudge-oj/useradmin/internal/report"
)

// ReportArchive keeps copies of exported reports.
type ReportArchive interface {
	Save(ctx context.Context, name, contentType string, generatedAt time.Time, data []byte) (string, error)
}

// Auditor records audited actions.
type Auditor interface {
	Record(ctx context.Context, event audit.Event)
}

// ReportService renders user reports and archives a copy of each one
// when an archive is configured.
type ReportService struct {
	archive ReportArchive
	auditor Auditor
	metrics *metrics.Collector
	logger  *zap.Logger
}

func NewReportService(archive ReportArchive, auditor Auditor, collector *metrics.Collector, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		archive: archive,
		auditor: auditor,
		metrics: collector,
		logger:  logger,
	}
}

// Export renders doc to PDF. Archiving is best effort: a failed upload is
// logged and the rendered bytes are still returned.
func (s *ReportService) Export(ctx context.Context, doc report.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := report.WritePDF(&buf, doc); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	data := buf.Bytes()
	s.metrics.ReportGenerated()

	var key string
	if s.archive != nil {
		saved, err := s.archive.Save(ctx, report.FileName, report.ContentType, doc.GeneratedAt, data)
		if err != nil {
			s.logger.Warn("archive report", zap.Error(err))
		} else {
			key = saved
			s.logger.Info("report archived", zap.String("key", key), zap.Int("rows", len(doc.Rows)))
		}
	}

	if s.auditor != nil {
		s.auditor.Record(ctx, audit.Event{
			Type:       audit.ReportExported,
			Rows:       len(doc.Rows),
			ArchiveKey: key,
		})
	}
	return data, nil
}
