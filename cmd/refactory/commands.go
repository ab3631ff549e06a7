package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"refactory/internal/analysis"
	"refactory/internal/config"
	"refactory/internal/ingest"
	"refactory/internal/parser"
	"refactory/internal/refactor"
	"refactory/internal/report"
	"refactory/internal/scoring"
	"refactory/internal/store"
	"refactory/internal/watch"
)

var version = "0.3.0"

// analyzeCmd lints and scores files without requesting any refactor.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Analyze source files and report findings and quality scores",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

// refactorCmd runs the full analyze-request-validate-score pipeline.
var refactorCmd = &cobra.Command{
	Use:   "refactor [paths...]",
	Short: "Refactor source files through the LLM collaborator",
	Long: `Runs the full pipeline on every supported file under the given paths:
analysis, LLM refactor request, candidate validation and scoring. A
candidate is accepted only when it clears the improvement margin, stays
above the similarity floor and introduces no new errors.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRefactor,
}

// watchCmd re-analyzes files as they change.
var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Watch directories and re-analyze files on change",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

// historyCmd lists past pipeline outcomes.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent refactoring outcomes",
	RunE:  runHistory,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the refactory version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("refactory %s\n", version)
	},
}

// pipeline bundles the stages every command wires up.
type pipeline struct {
	parser *parser.Adapter
	engine *analysis.Engine
	scorer *scoring.Scorer
}

func buildPipeline(cfg *config.Config, log *zap.Logger) *pipeline {
	return &pipeline{
		parser: parser.NewAdapter(log),
		engine: analysis.NewEngine(analysis.Thresholds{
			MaxFunctionLines: cfg.Analysis.MaxFunctionLines,
			MaxParams:        cfg.Analysis.MaxParams,
			MaxNestingDepth:  cfg.Analysis.MaxNestingDepth,
		}, log),
		scorer: scoring.NewScorer(cfg.Scoring),
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p := buildPipeline(cfg, logger)
	orch := refactor.NewOrchestrator(p.parser, p.engine, p.scorer, nil, refactor.Options{}, logger)

	units, err := refactor.NewFileFetcher(args, logger).Fetch(ctx)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		fmt.Println("no supported source files found")
		return nil
	}

	for _, unit := range units {
		out, err := orch.Analyze(ctx, unit)
		if err != nil {
			logger.Warn("analysis failed", zap.String("path", unit.Path), zap.Error(err))
			continue
		}
		fmt.Println(report.Render(report.Format(out)))
	}
	return nil
}

func runRefactor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := buildPipeline(cfg, logger)

	gemini, err := refactor.NewGeminiClient(ctx, cfg.LLM.APIKey, cfg.LLM.Model)
	if err != nil {
		return err
	}
	defer gemini.Close()

	var client refactor.RefactorClient = gemini
	var db *store.Store
	if cfg.Store.CacheEnabled {
		db, err = store.Open(cfg.Store.DatabasePath)
		if err != nil {
			return err
		}
		defer db.Close()
		client = refactor.NewCachedClient(gemini, db, logger)
	}

	timeout, err := cfg.LLMTimeout()
	if err != nil {
		return err
	}
	orch := refactor.NewOrchestrator(p.parser, p.engine, p.scorer, client, refactor.Options{
		MaxRetryAttempts: cfg.Refactor.MaxRetryAttempts,
		RequestTimeout:   timeout,
		MaxConcurrent:    cfg.Refactor.MaxConcurrent,
		SkipMarker:       cfg.Refactor.SkipMarker,
	}, logger)

	units, err := refactor.NewFileFetcher(args, logger).Fetch(ctx)
	if err != nil {
		return err
	}
	if len(units) == 0 {
		fmt.Println("no supported source files found")
		return nil
	}

	sink := report.NewSink(os.Stdout, cfg.Refactor.WriteAccepted, true, logger)
	outcomes, err := orch.ProcessAll(ctx, units, sink)
	if err != nil {
		return err
	}

	if db != nil {
		for _, out := range outcomes {
			if err := db.RecordOutcome(ctx, out); err != nil {
				logger.Warn("failed to record outcome", zap.String("path", out.Path), zap.Error(err))
			}
		}
	}

	fmt.Println(report.Render(report.Summary(outcomes)))
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := buildPipeline(cfg, logger)
	orch := refactor.NewOrchestrator(p.parser, p.engine, p.scorer, nil, refactor.Options{}, logger)

	handler := func(ctx context.Context, path string) {
		unit, err := ingest.Load(path)
		if err != nil {
			logger.Warn("failed to load changed file", zap.String("path", path), zap.Error(err))
			return
		}
		out, err := orch.Analyze(ctx, unit)
		if err != nil {
			logger.Warn("analysis failed", zap.String("path", path), zap.Error(err))
			return
		}
		fmt.Println(report.Render(report.Format(out)))
	}

	w, err := watch.New(args, handler, logger)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	fmt.Println(report.Banner("watching for changes, press Ctrl-C to stop"))
	<-ctx.Done()
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	db, err := store.Open(cfg.Store.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	records, err := db.History(cmd.Context(), 50)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Println("no recorded outcomes")
		return nil
	}

	for _, r := range records {
		line := fmt.Sprintf("%s  %-10s %-9s %s", r.CreatedAt.Format("2006-01-02 15:04"), r.Language, r.State, r.Path)
		if r.Reason != "" {
			line += " (" + r.Reason + ")"
		}
		fmt.Println(line)
	}
	return nil
}
