package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/claude/triplan/internal/models"
	"github.com/claude/triplan/internal/plan"
	"github.com/claude/triplan/internal/push"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	serverURL := flag.String("server", "", "TriPlan server URL (e.g. https://triplan.tail1234.ts.net)")
	apiKey := flag.String("api-key", os.Getenv("TRIPLAN_API_KEY"), "API key for write endpoints (defaults to $TRIPLAN_API_KEY)")
	startDate := flag.String("start", "", "cycle start date YYYY-MM-DD (defaults to next Monday)")
	weeks := flag.Int("weeks", 12, "cycle length in weeks")
	distance := flag.String("distance", string(models.DistanceOlympic), "goal distance (sprint, olympic, 70.3, ironman, 5k, 10k, 21k, 42k)")
	goal := flag.String("goal", string(plan.GoalComplete), "goal intent (complete or perform)")
	dryRun := flag.Bool("dry-run", false, "generate and print the cycle but don't send to server")
	version := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *version {
		fmt.Println("triplan-push", Version)
		return
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *serverURL == "" && !*dryRun {
		fmt.Fprintf(os.Stderr, "Usage: triplan-push -server <URL> [-start YYYY-MM-DD] [-weeks N] [-distance D] [-goal G] [-dry-run]\n\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Strip trailing slash from server URL
	*serverURL = strings.TrimRight(*serverURL, "/")

	start, err := resolveStart(*startDate)
	if err != nil {
		log.Error("invalid start date", "start", *startDate, "error", err)
		os.Exit(1)
	}

	cycle, err := plan.GenerateCycle(plan.CycleConfig{
		StartDate: start,
		Weeks:     *weeks,
		Distance:  models.Distance(*distance),
		Goal:      plan.Goal(*goal),
		Rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
	})
	if err != nil {
		log.Error("cycle generation failed", "error", err)
		os.Exit(1)
	}
	log.Info("cycle generated",
		"start", cycle.Start.Format("2006-01-02"),
		"weeks", cycle.Weeks,
		"distance", cycle.Distance,
		"goal", cycle.Goal,
	)

	// Open state database
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Error("failed to get home directory", "error", err)
		os.Exit(1)
	}
	stateDir := filepath.Join(homeDir, ".triplan-push")

	state, err := push.OpenStateDB(stateDir)
	if err != nil {
		log.Error("failed to open state database", "error", err)
		os.Exit(1)
	}
	defer state.Close()

	if *dryRun {
		log.Info("DRY RUN mode — weeks will be generated but not sent")
	}

	pusher := push.New(push.NewClient(*serverURL, *apiKey), state, *dryRun, log)
	stats, err := pusher.Run(cycle)
	if err != nil {
		log.Error("push failed", "error", err)
		printStats(stats)
		os.Exit(1)
	}

	printStats(stats)
	log.Info("push complete")
}

// resolveStart parses the start date flag, defaulting to the Monday after today.
func resolveStart(s string) (time.Time, error) {
	if s == "" {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		return models.MondayOf(today).AddDate(0, 0, 7), nil
	}
	return time.Parse("2006-01-02", s)
}

func printStats(stats *push.Stats) {
	fmt.Println()
	fmt.Println("=== Push Summary ===")
	fmt.Printf("  Weeks total:    %d\n", stats.WeeksTotal)
	fmt.Printf("  Weeks pushed:   %d\n", stats.WeeksPushed)
	fmt.Printf("  Weeks skipped:  %d (already pushed)\n", stats.WeeksSkipped)
	fmt.Printf("  Sessions sent:  %d\n", stats.SessionsSent)
	fmt.Println()
}
