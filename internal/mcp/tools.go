package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan"
	"github.com/claude/triplan/internal/storage"
)

// parseWeek parses a YYYY-MM-DD date and normalizes it to its Monday. An
// empty string means the current week.
func parseWeek(s string) (time.Time, error) {
	if s == "" {
		return models.MondayOf(time.Now().UTC()), nil
	}
	day, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	return models.MondayOf(day), nil
}

// --- Tool definitions ---

var toolGetWeekPlan = mcp.NewTool("get_week_plan",
	mcp.WithDescription("Retrieve one week's training sessions with its live and frozen volume targets."),
	mcp.WithString("week", mcp.Description("Any date inside the week (YYYY-MM-DD). Defaults to the current week.")),
)

var toolRebalanceWeek = mcp.NewTool("rebalance_week",
	mcp.WithDescription("Redistribute the remaining sessions of a partially-executed week so completed plus planned work matches the week's frozen target. Completed sessions are never modified."),
	mcp.WithString("week", mcp.Description("Any date inside the week (YYYY-MM-DD). Defaults to the current week.")),
)

var toolGetVolumeCurve = mcp.NewTool("get_volume_curve",
	mcp.WithDescription("Get the active cycle's weekly volume curve with its min/max bounds."),
)

var toolGetPhasePlan = mcp.NewTool("get_phase_plan",
	mcp.WithDescription("Get the active cycle's phase layout (Base/Build/Peak/Taper weeks) with phase descriptions."),
)

var toolGetTrainingLoad = mcp.NewTool("get_training_load",
	mcp.WithDescription("Aggregate training load per week over a date range, normalized across disciplines."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 4 weeks ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to now.")),
)

var toolSetWeekTargets = mcp.NewTool("set_week_targets",
	mcp.WithDescription("Overwrite one week's live volume targets. Does not touch the frozen snapshot; rebalance uses the frozen targets once a week has been frozen."),
	mcp.WithString("week", mcp.Required(), mcp.Description("Any date inside the week (YYYY-MM-DD)")),
	mcp.WithString("targets", mcp.Required(), mcp.Description(`JSON object mapping discipline to weekly volume, e.g. {"Run": 17, "Swim": 2000}`)),
)

// --- Tool handlers ---

func (h *handlers) getWeekPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	week, err := parseWeek(req.GetString("week", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid week date: " + err.Error()), nil
	}

	view, err := h.weekView(ctx, week)
	if err != nil {
		h.log.Error("mcp get_week_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) rebalanceWeek(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	week, err := parseWeek(req.GetString("week", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid week date: " + err.Error()), nil
	}

	sessions, err := h.db.WeekSessions(ctx, week)
	if err != nil {
		h.log.Error("mcp rebalance_week", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	live, err := h.db.LiveTargets(ctx, week)
	if err != nil {
		h.log.Error("mcp rebalance_week", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	store := h.db.FrozenTargets(ctx)
	if live == nil {
		if _, ok, err := store.Get(week); err != nil || !ok {
			return mcp.NewToolResultError("no targets for week " + week.Format("2006-01-02")), nil
		}
	}

	rebalancer := plan.NewRebalancer(store, plan.RebalanceConfig{
		MaxPasses:                h.planCfg.MaxRebalancePasses,
		CountPostponedAsRealized: h.planCfg.CountPostponedAsRealized,
	})
	today := time.Now().UTC().Truncate(24 * time.Hour)
	res, err := rebalancer.RebalanceWeek(week, sessions, live, today)
	if err != nil {
		h.log.Error("mcp rebalance_week", "error", err)
		return mcp.NewToolResultError("rebalance failed: " + err.Error()), nil
	}

	if err := h.db.ReplaceWeekSessions(ctx, week, res.Sessions); err != nil {
		h.log.Error("mcp rebalance_week persist", "error", err)
		return mcp.NewToolResultError("persist failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(res)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getVolumeCurve(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycle, err := h.db.LatestCycle(ctx)
	if err == storage.ErrNoCycle {
		return mcp.NewToolResultError("no cycle generated yet"), nil
	}
	if err != nil {
		h.log.Error("mcp get_volume_curve", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"start":   cycle.Start,
		"weeks":   cycle.Weeks,
		"vol_min": cycle.VolMin,
		"vol_max": cycle.VolMax,
		"curve":   cycle.Curve,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPhasePlan(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cycle, err := h.db.LatestCycle(ctx)
	if err == storage.ErrNoCycle {
		return mcp.NewToolResultError("no cycle generated yet"), nil
	}
	if err != nil {
		h.log.Error("mcp get_phase_plan", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	type phaseView struct {
		models.Phase
		Description string `json:"description,omitempty"`
	}
	phases := make([]phaseView, 0, len(cycle.Phases))
	for _, p := range cycle.Phases {
		phases = append(phases, phaseView{Phase: p, Description: models.PhaseDescriptions[p.Name]})
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"start":    cycle.Start,
		"weeks":    cycle.Weeks,
		"distance": cycle.Distance,
		"goal":     cycle.Goal,
		"phases":   phases,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getTrainingLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := parseWeek(req.GetString("start", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid start date: " + err.Error()), nil
	}
	if req.GetString("start", "") == "" {
		from = from.AddDate(0, 0, -21)
	}
	to, err := parseWeek(req.GetString("end", ""))
	if err != nil {
		return mcp.NewToolResultError("invalid end date: " + err.Error()), nil
	}
	to = to.AddDate(0, 0, 7)

	sessions, err := h.db.QuerySessions(ctx, from, to)
	if err != nil {
		h.log.Error("mcp get_training_load", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	byWeek := make(map[time.Time][]models.TrainingSession)
	for _, s := range sessions {
		byWeek[s.WeekStart] = append(byWeek[s.WeekStart], s)
	}
	type weekLoad struct {
		WeekStart time.Time `json:"week_start"`
		Load      float64   `json:"load"`
	}
	loads := make([]weekLoad, 0, len(byWeek))
	for week := from; week.Before(to); week = week.AddDate(0, 0, 7) {
		if weekSessions, ok := byWeek[week]; ok {
			loads = append(loads, weekLoad{WeekStart: week, Load: plan.WeeklyLoad(weekSessions)})
		}
	}

	result, err := mcp.NewToolResultJSON(loads)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) setWeekTargets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weekStr, err := req.RequireString("week")
	if err != nil {
		return mcp.NewToolResultError("week parameter is required"), nil
	}
	week, err := parseWeek(weekStr)
	if err != nil {
		return mcp.NewToolResultError("invalid week date: " + err.Error()), nil
	}
	targetsStr, err := req.RequireString("targets")
	if err != nil {
		return mcp.NewToolResultError("targets parameter is required"), nil
	}

	var targets models.TargetSet
	if err := json.Unmarshal([]byte(targetsStr), &targets); err != nil {
		return mcp.NewToolResultError("invalid targets JSON: " + err.Error()), nil
	}
	for d, v := range targets {
		if !d.Valid() {
			return mcp.NewToolResultError("unknown discipline " + string(d)), nil
		}
		if v < 0 {
			return mcp.NewToolResultError("negative target for " + string(d)), nil
		}
	}

	if err := h.db.SaveLiveTargets(ctx, week, targets); err != nil {
		h.log.Error("mcp set_week_targets", "error", err)
		return mcp.NewToolResultError("persist failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"week_start": week,
		"targets":    targets,
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
