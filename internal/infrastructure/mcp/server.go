// Package mcp exposes the flow analytics to MCP clients: board reports,
// completion forecasts, per-item dwell intervals, and board health audits.
package mcp

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/flowmetrics/internal/infrastructure/wiring"
	"github.com/felixgeelhaar/flowmetrics/pkg/application"
	mcp "github.com/felixgeelhaar/mcp-go"
)

var (
	Version     = "dev"
	BuildCommit = "unknown"
	BuildDate   = "unknown"
)

type Server struct {
	mcpServer    *mcp.Server
	analyticsSvc *application.AnalyticsService
	auditSvc     *application.AuditService
	defaultBoard string
	root         string
}

// mcpErr returns a user-friendly error for MCP clients.
// Internal details are omitted — only the friendly message is returned.
func mcpErr(friendly string) error {
	return fmt.Errorf("%s", friendly)
}

func NewServer(root string) (*Server, error) {
	services, err := wiring.BuildAppServices(root)
	if err != nil {
		return nil, fmt.Errorf("build services: %w", err)
	}

	info := mcp.ServerInfo{
		Name:    "flowmetrics",
		Version: Version,
	}

	s := &Server{
		mcpServer: mcp.NewServer(info,
			mcp.WithTitle("Flowmetrics MCP Server"),
			mcp.WithDescription("Flowmetrics exposes cycle times, dwell intervals, and completion forecasts derived from issue-tracker history."),
			mcp.WithWebsiteURL("https://github.com/felixgeelhaar/flowmetrics"),
			mcp.WithBuildInfo(BuildCommit, BuildDate),
			mcp.WithInstructions("Use tools to analyze a board's flow, forecast completion windows, inspect item dwell times, and audit history quality."),
		),
		analyticsSvc: services.Analytics,
		auditSvc:     services.Audit,
		defaultBoard: services.Config.Board.ID,
		root:         root,
	}

	s.registerTools()
	return s, nil
}

type BoardArgs struct {
	BoardID string `json:"board_id,omitempty" jsonschema:"description=Board to analyze; defaults to the configured board"`
}

type IntervalsArgs struct {
	ItemKey string `json:"item_key" jsonschema:"description=Key of the item to inspect"`
	BoardID string `json:"board_id,omitempty" jsonschema:"description=Board the item belongs to; defaults to the configured board"`
}

func (s *Server) registerTools() {
	s.mcpServer.Tool("flow_analyze").
		Description("Compute the full flow report for a board: cycle times, percentiles, and completion forecast").
		Handler(s.handleAnalyze)

	s.mcpServer.Tool("flow_forecast").
		Description("Forecast when the next item will be done based on the board's completed cycle times").
		Handler(s.handleForecast)

	s.mcpServer.Tool("flow_intervals").
		Description("Show how long one item spent in each tracked status").
		Handler(s.handleIntervals)

	s.mcpServer.Tool("flow_doctor").
		Description("Audit a board's status history for anomalies such as negative cycle times and illegal transitions").
		Handler(s.handleDoctor)
}

func (s *Server) boardID(requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if s.defaultBoard != "" {
		return s.defaultBoard, nil
	}
	return "", mcpErr("No board configured. Pass board_id or set board.id in the workspace config.")
}

func (s *Server) handleAnalyze(ctx context.Context, args BoardArgs) (any, error) {
	boardID, err := s.boardID(args.BoardID)
	if err != nil {
		return nil, err
	}
	return s.analyticsSvc.AnalyzeBoard(ctx, boardID), nil
}

func (s *Server) handleForecast(ctx context.Context, args BoardArgs) (any, error) {
	boardID, err := s.boardID(args.BoardID)
	if err != nil {
		return nil, err
	}
	report := s.analyticsSvc.AnalyzeBoard(ctx, boardID)
	return map[string]any{
		"board_id":     report.BoardID,
		"sample_size":  report.CompletedCount,
		"percentiles":  report.Percentiles,
		"distribution": report.Distribution,
	}, nil
}

func (s *Server) handleIntervals(ctx context.Context, args IntervalsArgs) (any, error) {
	if args.ItemKey == "" {
		return nil, mcpErr("item_key is required.")
	}
	boardID, err := s.boardID(args.BoardID)
	if err != nil {
		return nil, err
	}

	run, err := s.analyticsSvc.StartRun(ctx, boardID)
	if err != nil {
		return nil, mcpErr("Failed to resolve the board's tracked states. Check the tracker configuration.")
	}
	defer run.Close()

	items, err := s.analyticsSvc.ListItems(ctx, boardID)
	if err != nil {
		return nil, mcpErr("Failed to list board items. Check the tracker configuration.")
	}

	for _, item := range items {
		if item.Key == args.ItemKey {
			return map[string]any{
				"item_key":  item.Key,
				"intervals": run.Intervals(ctx, item),
			}, nil
		}
	}

	return nil, mcpErr(fmt.Sprintf("Item %s not found on board %s.", args.ItemKey, boardID))
}

func (s *Server) handleDoctor(ctx context.Context, args BoardArgs) (any, error) {
	boardID, err := s.boardID(args.BoardID)
	if err != nil {
		return nil, err
	}
	audit, err := s.auditSvc.AuditBoard(ctx, boardID)
	if err != nil {
		return nil, mcpErr("Audit failed. Check the tracker configuration.")
	}
	return audit, nil
}

func (s *Server) StartStdio() error {
	return s.ServeStdio(context.Background())
}

func (s *Server) ServeStdio(ctx context.Context) error {
	return mcp.ServeStdio(ctx, s.mcpServer)
}
