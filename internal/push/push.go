package push

import (
	"fmt"
	"log/slog"

	"github.com/claude/triplan/internal/plan"
)

// Stats tracks push progress.
type Stats struct {
	WeeksTotal   int
	WeeksPushed  int
	WeeksSkipped int
	SessionsSent int
}

// Pusher uploads a generated cycle week by week, skipping weeks whose content
// the server already has.
type Pusher struct {
	client *Client
	state  *StateDB
	dryRun bool
	log    *slog.Logger
	stats  Stats
}

// New creates a new Pusher.
func New(client *Client, state *StateDB, dryRun bool, log *slog.Logger) *Pusher {
	return &Pusher{
		client: client,
		state:  state,
		dryRun: dryRun,
		log:    log,
	}
}

// Run pushes every week of the cycle to the server.
func (p *Pusher) Run(cycle *plan.Cycle) (*Stats, error) {
	if !p.dryRun {
		if err := p.client.CheckServer(); err != nil {
			return &p.stats, err
		}
	}

	for _, week := range cycle.WeekPlans {
		p.stats.WeeksTotal++

		payload := WeekPayload{
			Sessions: week.Sessions,
			Targets:  week.Targets,
		}
		hash, err := HashPayload(payload)
		if err != nil {
			return &p.stats, fmt.Errorf("hashing week %s: %w", week.WeekStart.Format("2006-01-02"), err)
		}

		pushed, err := p.state.IsPushed(week.WeekStart, hash)
		if err != nil {
			return &p.stats, fmt.Errorf("state check for week %s: %w", week.WeekStart.Format("2006-01-02"), err)
		}
		if pushed {
			p.stats.WeeksSkipped++
			continue
		}

		if p.dryRun {
			p.log.Info("dry-run: would push week",
				"week", week.WeekStart.Format("2006-01-02"),
				"sessions", len(week.Sessions),
			)
		} else {
			if err := p.client.PushWeek(week.WeekStart, payload); err != nil {
				return &p.stats, fmt.Errorf("pushing week %s: %w", week.WeekStart.Format("2006-01-02"), err)
			}
			if err := p.state.MarkPushed(week.WeekStart, hash); err != nil {
				p.log.Warn("failed to mark pushed", "week", week.WeekStart.Format("2006-01-02"), "error", err)
			}
		}

		p.stats.WeeksPushed++
		p.stats.SessionsSent += len(week.Sessions)
	}

	return &p.stats, nil
}
