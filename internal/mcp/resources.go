package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/storage"
)

// weekView bundles one week's sessions with its targets for tool and
// resource payloads.
type weekView struct {
	WeekStart     time.Time                `json:"week_start"`
	Sessions      []models.TrainingSession `json:"sessions"`
	LiveTargets   models.TargetSet         `json:"live_targets,omitempty"`
	FrozenTargets *models.WeeklyTarget     `json:"frozen_targets,omitempty"`
}

func (h *handlers) weekView(ctx context.Context, week time.Time) (weekView, error) {
	sessions, err := h.db.WeekSessions(ctx, week)
	if err != nil {
		return weekView{}, err
	}
	live, err := h.db.LiveTargets(ctx, week)
	if err != nil {
		return weekView{}, err
	}
	view := weekView{WeekStart: week, Sessions: sessions, LiveTargets: live}

	frozen, ok, err := h.db.FrozenTargets(ctx).Get(week)
	if err != nil {
		return weekView{}, err
	}
	if ok {
		view.FrozenTargets = &frozen
	}
	return view, nil
}

func (h *handlers) currentWeek(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view, err := h.weekView(ctx, models.MondayOf(time.Now().UTC()))
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, view)
}

func (h *handlers) phaseOverview(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	cycle, err := h.db.LatestCycle(ctx)
	if err == storage.ErrNoCycle {
		return jsonResource(req.Params.URI, map[string]string{"status": "no cycle generated yet"})
	}
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, cycle)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
