package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jjudge-oj/useradmin/config"
	"github.com/jjudge-oj/useradmin/internal/audit"
	"github.com/jjudge-oj/useradmin/internal/db"
	"github.com/jjudge-oj/useradmin/internal/metrics"
	"github.com/jjudge-oj/useradmin/internal/mq"
	"github.com/jjudge-oj/useradmin/internal/services"
	"github.com/jjudge-oj/useradmin/internal/storage"
	"github.com/jjudge-oj/useradmin/internal/store"
	"github.com/jjudge-oj/useradmin/internal/userapi"
)

// Deps holds the services shared by the console server and the one-shot
// CLI commands.
type Deps struct {
	Logger  *zap.Logger
	Metrics *metrics.Collector
	Users   *services.UserService
	Reports *services.ReportService
	Audit   *audit.Publisher

	db *sql.DB
}

// Wire connects every backend selected by cfg.
func Wire(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	deps := &Deps{
		Logger:  logger,
		Metrics: metrics.NewCollector(),
	}

	source, err := deps.openSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	deps.Users = services.NewUserService(source, deps.Metrics)

	queue, err := mq.Open(ctx, cfg.Audit)
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("open audit backend: %w", err)
	}
	if queue != nil {
		deps.Audit = audit.NewPublisher(queue, cfg.Audit.Channel, logger.Named("audit"))
		logger.Info("audit events enabled", zap.String("backend", cfg.Audit.Backend), zap.String("channel", cfg.Audit.Channel))
	}

	archive, err := storage.Open(ctx, cfg.Archive)
	if err != nil {
		_ = deps.Close()
		return nil, fmt.Errorf("open report archive: %w", err)
	}
	var reportArchive services.ReportArchive
	if archive != nil {
		reportArchive = archive
		logger.Info("report archive enabled", zap.String("backend", cfg.Archive.Backend), zap.String("bucket", archive.Bucket()))
	}
	deps.Reports = services.NewReportService(reportArchive, deps.auditor(), deps.Metrics, logger.Named("report"))

	return deps, nil
}

func (d *Deps) openSource(ctx context.Context, cfg config.Config) (services.UserSource, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.DataSource)) {
	case "", config.DataSourceHTTP:
		client, err := userapi.NewClient(cfg.UserAPI)
		if err != nil {
			return nil, fmt.Errorf("create user api client: %w", err)
		}
		d.Logger.Info("using user api", zap.String("base_url", cfg.UserAPI.BaseURL))
		return client, nil
	case config.DataSourcePostgres:
		conn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		d.db = conn
		d.Logger.Info("using postgres", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))
		return store.NewUserRepository(conn), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.DataSource)
	}
}

// auditor returns nil when auditing is disabled so callers can compare
// against nil.
func (d *Deps) auditor() services.Auditor {
	if d.Audit == nil {
		return nil
	}
	return d.Audit
}

// Close releases the database and audit connections.
func (d *Deps) Close() error {
	var errs []error
	if d.Audit != nil {
		if err := d.Audit.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
