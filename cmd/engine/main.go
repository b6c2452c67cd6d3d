package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/example/goal-engine/internal/actions"
	"github.com/example/goal-engine/internal/agents"
	"github.com/example/goal-engine/internal/decision"
	"github.com/example/goal-engine/internal/goals"
	"github.com/example/goal-engine/internal/memory"
	"github.com/example/goal-engine/internal/models"
	"github.com/example/goal-engine/internal/orchestrator"
	"github.com/example/goal-engine/internal/providers/llm"
	"github.com/example/goal-engine/internal/store"
	"github.com/example/goal-engine/pkg/logger"
)

const usage = `usage:
  engine run "objective"        start a new goal and run it to completion
  engine resume <goal-id>       resume a paused or interrupted goal
  engine arbitrate              score active goals, pick one and run it`

func main() {
	_ = godotenv.Load()

	if err := logger.NewGlobal(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_PRETTY") == "true"); err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}

	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	app, err := wire(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer app.close()

	switch args[0] {
	case "run":
		if len(args) < 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = app.run(ctx, strings.Join(args[1:], " "))
	case "resume":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = app.resume(ctx, args[1])
	case "arbitrate":
		err = app.arbitrate(ctx)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("command failed")
	}
}

type app struct {
	db       *store.SQLite
	hub      *orchestrator.Hub
	engine   *goals.Engine
	decider  *decision.Engine
	updater  *decision.Updater
	emotions *decision.EmotionTracker
	rules    *agents.RulesWatcher
	userID   string
	orgID    string
}

func wire(ctx context.Context) (*app, error) {
	oracle := llm.NewFromEnv(ctx)

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "engine.db"
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, err
	}

	var mem memory.Store = memory.Noop{}
	if path := os.Getenv("MEMORY_PATH"); path != "" {
		cm, err := memory.NewChromem(path, os.Getenv("MEMORY_COLLECTION"), nil)
		if err != nil {
			db.Close()
			return nil, err
		}
		mem = cm
	}

	var rules agents.RulesSource = agents.StaticRules{Rules: agents.DefaultRules()}
	var watcher *agents.RulesWatcher
	if path := os.Getenv("RULES_PATH"); path != "" {
		watcher, err = agents.NewRulesWatcher(path)
		if err != nil {
			db.Close()
			return nil, err
		}
		rules = watcher
	}

	var allowedDirs []string
	if v := os.Getenv("ALLOWED_DIRS"); v != "" {
		allowedDirs = strings.Split(v, ",")
	}
	registry := actions.Builtin(oracle, allowedDirs...)

	planner := &agents.Planner{Oracle: oracle, Registry: registry, Audit: db}
	runner := &orchestrator.TaskRunner{
		Planner:   planner,
		Executor:  &agents.Executor{Registry: registry},
		Verifier:  &agents.Verifier{Rules: rules},
		Analyzer:  &agents.Analyzer{Oracle: oracle},
		Replanner: &agents.Replanner{Planner: planner},
		Memory:    mem,
		Gate:      &memory.Gate{Oracle: oracle},
		Hub:       orchestrator.NewHub(),
	}

	emotions := decision.NewEmotionTracker()
	orgID := os.Getenv("ORG_ID")
	if orgID == "" {
		orgID = "default"
	}
	userID := os.Getenv("USER_ID")
	if userID == "" {
		userID = "default_user"
	}

	return &app{
		db:  db,
		hub: runner.Hub,
		engine: &goals.Engine{
			Store:      db,
			Decomposer: &goals.Decomposer{Oracle: oracle},
			Runner:     runner,
			Memory:     mem,
			Hub:        runner.Hub,
		},
		decider: &decision.Engine{
			Store:       db,
			Memory:      mem,
			Emotions:    emotions,
			Personality: os.Getenv("PERSONALITY"),
			Org:         decision.OrgProfileFor(os.Getenv("ORG_NAME"), os.Getenv("ORG_INDUSTRY"), envFloat("ORG_RISK_TOLERANCE", 0.5)),
		},
		updater:  &decision.Updater{Store: db},
		emotions: emotions,
		rules:    watcher,
		userID:   userID,
		orgID:    orgID,
	}, nil
}

func (a *app) close() {
	if a.rules != nil {
		a.rules.Close()
	}
	a.db.Close()
}

func (a *app) run(ctx context.Context, objective string) error {
	stop := a.watchProgress()
	g, err := a.engine.Start(ctx, objective, "", a.orgID)
	stop()
	if err != nil {
		return err
	}
	a.finish(ctx, g.ID)
	return nil
}

func (a *app) resume(ctx context.Context, goalID string) error {
	stop := a.watchProgress()
	g, err := a.engine.Resume(ctx, goalID)
	stop()
	if err != nil {
		return err
	}
	a.finish(ctx, g.ID)
	return nil
}

// watchProgress streams lifecycle events to stderr while a goal runs.
func (a *app) watchProgress() func() {
	events, unsubscribe := a.hub.Subscribe("")
	done := make(chan struct{})
	go func() {
		defer close(done)
		for b := range events {
			fmt.Fprintf(os.Stderr, "%s\n", b)
		}
	}()
	return func() {
		unsubscribe()
		<-done
	}
}

func (a *app) arbitrate(ctx context.Context) error {
	rec, err := a.decider.Decide(ctx, a.userID, a.orgID)
	if err != nil {
		return err
	}
	fmt.Printf("decision: %s\n", rec.DecisionType)
	fmt.Printf("reason:   %s\n", rec.Reason)
	if len(rec.PausedGoalIDs) > 0 {
		fmt.Printf("paused:   %v\n", rec.PausedGoalIDs)
	}
	if len(rec.KilledGoalIDs) > 0 {
		fmt.Printf("killed:   %v\n", rec.KilledGoalIDs)
	}
	if rec.DecisionType != models.DecisionSelect {
		return nil
	}
	fmt.Printf("selected: %s\n", rec.SelectedGoalID)
	stop := a.watchProgress()
	g, err := a.engine.Resume(ctx, rec.SelectedGoalID)
	stop()
	if err != nil {
		return err
	}
	a.finish(ctx, g.ID)
	return nil
}

// finish reports the terminal state, records the emotional trigger and
// feeds the outcome back into the priority weights.
func (a *app) finish(ctx context.Context, goalID string) {
	g, err := a.db.GetGoal(ctx, goalID)
	if err != nil {
		log.Warn().Err(err).Msg("could not reload goal for outcome analysis")
		return
	}
	fmt.Printf("goal %s: %s\n", g.ID, g.Status)
	if g.Error != "" {
		fmt.Printf("error: %s\n", g.Error)
	}
	for i, r := range g.Results {
		mark := "ok"
		if !r.Accepted {
			mark = "rejected"
		}
		fmt.Printf("  task %d [%s, score %.2f]: %s\n", i, mark, r.Score, r.Task)
	}

	switch g.Status {
	case models.GoalCompleted:
		a.emotions.Detect(a.userID, decision.TriggerGoalCompleted)
	case models.GoalFailed:
		a.emotions.Detect(a.userID, decision.TriggerGoalFailed)
	}

	prio, err := a.db.GetPriority(ctx, g.ID)
	if err != nil {
		log.Warn().Err(err).Msg("could not load priority for outcome analysis")
		return
	}
	if adj := decision.AnalyzeOutcome(g, prio); len(adj) > 0 {
		if _, changed, err := a.updater.Apply(ctx, adj); err != nil {
			log.Warn().Err(err).Msg("weight update failed")
		} else if changed {
			log.Info().Msg("priority weights updated from outcome")
		}
	}
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var f float64
	if _, err := fmt.Sscanf(v, "%f", &f); err != nil {
		return def
	}
	return f
}
