package services

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jjudge-oj/useradmin/internal/audit"
	"github.com/jjudge-oj/useradmin/internal/metrics"
	"github.com/jjudge-oj/useradmin/internal/report"
	"github.com/jjudge-oj/useradmin/types"
)

type stubSource struct {
	users []types.User
	err   error
}

func (s *stubSource) List(ctx context.Context) ([]types.User, error) { return s.users, s.err }
func (s *stubSource) Update(ctx context.Context, user types.User) error {
	return s.err
}
func (s *stubSource) Delete(ctx context.Context, id string) error { return s.err }

func TestUserServiceWrapsFailures(t *testing.T) {
	cause := errors.New("connection refused")
	collector := metrics.NewCollector()
	svc := NewUserService(&stubSource{err: cause}, collector)

	_, err := svc.List(context.Background())
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, OpList, transportErr.Op)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "list users: connection refused", err.Error())

	err = svc.Update(context.Background(), types.User{ID: "1"})
	assert.True(t, IsTransportError(err))

	err = svc.Delete(context.Background(), "1")
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, OpDelete, transportErr.Op)

	assert.Equal(t, 1.0, testutil.ToFloat64(collector.SourceRequests.WithLabelValues(OpList, "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.SourceRequests.WithLabelValues(OpDelete, "failure")))
}

func TestUserServiceDoesNotDoubleWrap(t *testing.T) {
	inner := &TransportError{Op: OpUpdate, Err: errors.New("503")}
	svc := NewUserService(&stubSource{err: inner}, nil)

	err := svc.Update(context.Background(), types.User{ID: "1"})
	assert.Same(t, inner, err)
}

func TestUserServiceSuccess(t *testing.T) {
	users := []types.User{{ID: "1"}, {ID: "2"}}
	collector := metrics.NewCollector()
	svc := NewUserService(&stubSource{users: users}, collector)

	got, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, users, got)
	assert.NoError(t, svc.Update(context.Background(), users[0]))
	assert.NoError(t, svc.Delete(context.Background(), "2"))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.SourceRequests.WithLabelValues(OpList, "success")))
	assert.False(t, IsTransportError(nil))
}

type recordingArchive struct {
	saved [][]byte
	err   error
}

func (a *recordingArchive) Save(ctx context.Context, name, contentType string, generatedAt time.Time, data []byte) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.saved = append(a.saved, data)
	return "reports/key-" + name, nil
}

type recordingAuditor struct {
	events []audit.Event
}

func (a *recordingAuditor) Record(ctx context.Context, event audit.Event) {
	a.events = append(a.events, event)
}

func TestReportServiceExport(t *testing.T) {
	archive := &recordingArchive{}
	auditor := &recordingAuditor{}
	collector := metrics.NewCollector()
	svc := NewReportService(archive, auditor, collector, nil)

	doc := report.BuildReport([]types.User{{ID: "1", Name: "Alice"}}, time.Now())
	data, err := svc.Export(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
	require.Len(t, archive.saved, 1)
	assert.Equal(t, data, archive.saved[0])
	require.Len(t, auditor.events, 1)
	assert.Equal(t, audit.ReportExported, auditor.events[0].Type)
	assert.Equal(t, 1, auditor.events[0].Rows)
	assert.Equal(t, "reports/key-user_report.pdf", auditor.events[0].ArchiveKey)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.Reports))
}

func TestReportServiceExportSurvivesArchiveFailure(t *testing.T) {
	svc := NewReportService(&recordingArchive{err: errors.New("bucket missing")}, nil, nil, nil)

	data, err := svc.Export(context.Background(), report.BuildReport(nil, time.Now()))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestReportServiceExportRenderFailure(t *testing.T) {
	svc := NewReportService(nil, nil, nil, nil)
	doc := report.BuildReport(nil, time.Now())
	doc.Style.ColumnWidths = []float64{1}

	_, err := svc.Export(context.Background(), doc)
	assert.ErrorContains(t, err, "render report")
}
