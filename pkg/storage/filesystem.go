// Package storage persists analytics results under the workspace's
// .flowmetrics directory. It is a pure sink: the engine computes, storage
// writes.
package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/felixgeelhaar/flowmetrics/pkg/domain/analytics"
	"github.com/felixgeelhaar/fortify/retry"
	"gopkg.in/yaml.v3"
)

const FlowDir = ".flowmetrics"
const ConfigFile = "config.yaml"
const StatesFile = "states.json"
const ReportsDir = "reports"
const AuditsDir = "audits"

const reportExt = ".yaml"

type FilesystemRepository struct {
	root        string
	retryConfig retry.Config
}

func NewFilesystemRepository(root string) *FilesystemRepository {
	return &FilesystemRepository{
		root: root,
		retryConfig: retry.Config{
			MaxAttempts:   3,
			InitialDelay:  10 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
	}
}

// Root returns the workspace root directory.
func (r *FilesystemRepository) Root() string {
	return r.root
}

// ResolvePath ensures the path is a direct child of the .flowmetrics
// directory and prevents traversal.
func (r *FilesystemRepository) ResolvePath(filename string) (string, error) {
	return r.resolveIn(filepath.Join(r.root, FlowDir), filename)
}

// resolveReportPath resolves a run ID to its file under the given reports
// subdirectory.
func (r *FilesystemRepository) resolveReportPath(dir, runID string) (string, error) {
	if runID == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	return r.resolveIn(filepath.Join(r.root, FlowDir, dir), runID+reportExt)
}

func (r *FilesystemRepository) resolveIn(baseDir, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename cannot be empty")
	}

	fullPath := filepath.Join(baseDir, filename)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, baseDir) || filepath.Dir(cleanPath) != baseDir {
		return "", fmt.Errorf("invalid file path: %s", filename)
	}

	return cleanPath, nil
}

func (r *FilesystemRepository) Initialize() error {
	for _, dir := range []string{
		filepath.Join(r.root, FlowDir),
		filepath.Join(r.root, FlowDir, ReportsDir),
		filepath.Join(r.root, FlowDir, AuditsDir),
	} {
		// G301: Use 0700 for directories
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

func (r *FilesystemRepository) IsInitialized() bool {
	_, err := os.Stat(filepath.Join(r.root, FlowDir))
	return err == nil
}

// SaveBoardReport writes a board report keyed by its run ID.
func (r *FilesystemRepository) SaveBoardReport(report *analytics.BoardReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	path, err := r.resolveReportPath(ReportsDir, report.RunID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	// G306: Use 0600 for files
	return os.WriteFile(path, data, 0600)
}

// LoadBoardReport reads a stored board report by run ID, retrying transient
// read failures.
func (r *FilesystemRepository) LoadBoardReport(runID string) (*analytics.BoardReport, error) {
	retryer := retry.New[*analytics.BoardReport](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*analytics.BoardReport, error) {
		path, err := r.resolveReportPath(ReportsDir, runID)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via resolveReportPath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read report: %w", err)
		}

		var report analytics.BoardReport
		if err := yaml.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal report: %w", err)
		}

		return &report, nil
	})
}

// ListBoardReports returns the run IDs of all stored board reports, sorted.
func (r *FilesystemRepository) ListBoardReports() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, FlowDir, ReportsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	var runIDs []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, reportExt) {
			continue
		}
		runIDs = append(runIDs, strings.TrimSuffix(name, reportExt))
	}
	sort.Strings(runIDs)
	return runIDs, nil
}

// SaveAuditReport writes an audit report keyed by its run ID.
func (r *FilesystemRepository) SaveAuditReport(report *analytics.AuditReport) error {
	if report == nil {
		return fmt.Errorf("report is nil")
	}
	path, err := r.resolveReportPath(AuditsDir, report.RunID)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal audit report: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// LoadAuditReport reads a stored audit report by run ID.
func (r *FilesystemRepository) LoadAuditReport(runID string) (*analytics.AuditReport, error) {
	retryer := retry.New[*analytics.AuditReport](r.retryConfig)

	return retryer.Do(context.Background(), func(ctx context.Context) (*analytics.AuditReport, error) {
		path, err := r.resolveReportPath(AuditsDir, runID)
		if err != nil {
			return nil, err
		}

		// #nosec G304 -- Path is resolved and validated via resolveReportPath
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read audit report: %w", err)
		}

		var report analytics.AuditReport
		if err := yaml.Unmarshal(data, &report); err != nil {
			return nil, fmt.Errorf("failed to unmarshal audit report: %w", err)
		}

		return &report, nil
	})
}
