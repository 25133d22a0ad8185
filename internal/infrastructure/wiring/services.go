// Package wiring assembles the application services from a workspace root:
// configuration, tracker client, resilience wrapper, state overrides, and
// the analytics and audit services on top.
package wiring

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/felixgeelhaar/flowmetrics/internal/infrastructure/config"
	"github.com/felixgeelhaar/flowmetrics/internal/infrastructure/tracker/jira"
	"github.com/felixgeelhaar/flowmetrics/pkg/application"
	"github.com/felixgeelhaar/flowmetrics/pkg/domain/tracker"
	"github.com/felixgeelhaar/flowmetrics/pkg/storage"
)

// AppServices exposes the wired services for a workspace root.
type AppServices struct {
	Repo      *storage.FilesystemRepository
	Config    *config.Config
	Analytics *application.AnalyticsService
	Audit     *application.AuditService
	Logger    *slog.Logger
}

type trackerClient interface {
	tracker.HistoryProvider
	tracker.StateResolver
	tracker.ItemLister
}

// BuildAppServices constructs the services for a repo root. The workspace
// must be initialized and hold a tracker configuration.
func BuildAppServices(root string) (*AppServices, error) {
	return buildWith(root, func(cfg *config.Config) (trackerClient, error) {
		client, err := jira.NewClient(jira.Config{
			BaseURL:     cfg.Tracker.BaseURL,
			Email:       cfg.Tracker.Email,
			APIToken:    cfg.Tracker.APIToken,
			BearerToken: cfg.Tracker.BearerToken,
		})
		if err != nil {
			return nil, err
		}
		return jira.NewResilientProvider(client), nil
	})
}

// BuildAppServicesWithClient allows callers to supply their own tracker
// client. Used by tests and embedded setups.
func BuildAppServicesWithClient(root string, client trackerClient) (*AppServices, error) {
	return buildWith(root, func(*config.Config) (trackerClient, error) {
		return client, nil
	})
}

func buildWith(root string, makeClient func(*config.Config) (trackerClient, error)) (*AppServices, error) {
	repo := storage.NewFilesystemRepository(root)
	if !repo.IsInitialized() {
		return nil, fmt.Errorf("workspace not initialized (run `flowmetrics init` first)")
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace config: %w", err)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no configuration found (run `flowmetrics init` first)")
	}

	client, err := makeClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build tracker client: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	resolver := config.NewOverridingResolver(client, root)

	analyticsSvc := application.NewAnalyticsService(client, resolver, client, logger)
	auditSvc := application.NewAuditService(analyticsSvc, logger)

	return &AppServices{
		Repo:      repo,
		Config:    cfg,
		Analytics: analyticsSvc,
		Audit:     auditSvc,
		Logger:    logger,
	}, nil
}
