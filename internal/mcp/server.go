// Package mcp exposes the training plan over the Model Context Protocol so
// assistants can read week plans and trigger rebalances.
package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/claude/triplan/internal/config"
	"github.com/claude/triplan/internal/storage"
)

// New creates an MCP server with all tools and resources registered.
func New(db *storage.DB, planCfg config.PlanConfig, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("TriPlan", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("TriPlan training plan server. Read week plans, volume curves and phase layouts, adjust weekly targets, and rebalance partially-executed weeks."),
	)

	h := &handlers{db: db, planCfg: planCfg, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolGetWeekPlan, Handler: h.getWeekPlan},
		server.ServerTool{Tool: toolRebalanceWeek, Handler: h.rebalanceWeek},
		server.ServerTool{Tool: toolGetVolumeCurve, Handler: h.getVolumeCurve},
		server.ServerTool{Tool: toolGetPhasePlan, Handler: h.getPhasePlan},
		server.ServerTool{Tool: toolGetTrainingLoad, Handler: h.getTrainingLoad},
		server.ServerTool{Tool: toolSetWeekTargets, Handler: h.setWeekTargets},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCurrentWeek, Handler: h.currentWeek},
		server.ServerResource{Resource: resPhaseOverview, Handler: h.phaseOverview},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	db      *storage.DB
	planCfg config.PlanConfig
	log     *slog.Logger
}

// --- Resource definitions ---

var resCurrentWeek = mcp.NewResource(
	"triplan://current_week",
	"Current Week",
	mcp.WithResourceDescription("This week's sessions with live and frozen targets"),
	mcp.WithMIMEType("application/json"),
)

var resPhaseOverview = mcp.NewResource(
	"triplan://phase_overview",
	"Phase Overview",
	mcp.WithResourceDescription("The active cycle's phase layout and weekly volume curve"),
	mcp.WithMIMEType("application/json"),
)
