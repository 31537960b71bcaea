package main

import (
	"context"
	"flag"
	"os"
	"strconv"
	"strings"

	"leveler/internal/modkit"
	"leveler/internal/modkit/module"
	"leveler/internal/modkit/repokit"
	"leveler/internal/platform/config"
	"leveler/internal/platform/logger"
	"leveler/internal/platform/store"

	"leveler/internal/core/levels"
	bdom "leveler/internal/services/batch/domain"
	batchmod "leveler/internal/services/batch/module"
	cachemod "leveler/internal/services/cache/module"
	telemetrymod "leveler/internal/services/telemetry/module"
	tdom "leveler/internal/services/transform/domain"
	transformmod "leveler/internal/services/transform/module"
	unitsmod "leveler/internal/services/units/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")
	chCfg := root.Prefix("SERVICE_CLICKHOUSE_")

	l := logger.Get()
	chURL := chCfg.MayString("DBURL", "")
	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
		},
		CH: store.CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    "batch",
		},
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	repokit.MustGuard(context.Background(), st)
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	var (
		fUnits    = flag.String("units", "", "comma separated unit ids to plan a new job over")
		fLevels   = flag.String("levels", "", "comma separated levels for planning, e.g. L1,L2 (default all)")
		fJob      = flag.String("job", "", "job id to run, resume, replay, cancel or inspect")
		fPlanOnly = flag.Bool("plan-only", false, "plan the job and exit without running it")
		fReplay   = flag.Bool("replay", false, "queue the job's failed items again before running")
		fCancel   = flag.Bool("cancel", false, "request a cooperative stop of the job and exit")
		fProgress = flag.Bool("progress", false, "print the job's counters and exit")
		fWorkers  = flag.Int("workers", 0, "override worker concurrency for this run")
	)
	flag.Parse()

	if *fUnits == "" && *fJob == "" {
		l.Panic().Msg("must provide -units (plan a new job) or -job (act on an existing one)")
	}
	if *fUnits != "" && *fJob != "" {
		l.Panic().Msg("-units and -job are mutually exclusive")
	}

	if *fWorkers > 0 {
		mustSetEnv("CORE_BATCH_WORKERS", strconv.Itoa(*fWorkers))
	}

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		CH:  st.CH,
		Log: *l,
	}

	units := unitsmod.New(deps)
	module.Register(units.Name(), units.Ports())
	uports := units.Ports().(unitsmod.Ports)

	cache := cachemod.New(deps)
	module.Register(cache.Name(), cache.Ports())
	cports := cache.Ports().(cachemod.Ports)

	var recorder tdom.TelemetryPort
	if st.CH != nil {
		tm := telemetrymod.New(deps)
		module.Register(tm.Name(), tm.Ports())
		tp := tm.Ports().(telemetrymod.Ports)
		recorder = tp.Recorder
		defer tp.Writer.Close()
	}

	transform := transformmod.New(deps, transformmod.Wiring{
		Units:     uports.Chunks,
		Ingest:    uports.Ingest,
		Cache:     cports.Svc,
		Telemetry: recorder,
	})
	module.Register(transform.Name(), transform.Ports())

	batch := batchmod.New(deps, batchmod.Wiring{
		Transform: transform.Ports().(transformmod.Ports).Transform,
		Chunks:    uports.Chunks,
	})
	module.Register(batch.Name(), batch.Ports())
	runner := batch.Ports().(batchmod.Ports).Runner

	ctx := context.Background()

	// Plan a new job from -units x -levels
	if *fUnits != "" {
		lvls, err := parseLevels(*fLevels)
		if err != nil {
			l.Panic().Err(err).Msg("bad -levels")
		}
		job, err := runner.Plan(ctx, splitCSV(*fUnits), lvls)
		if err != nil {
			l.Fatal().Err(err).Msg("plan failed")
		}
		l.Info().
			Str("job_id", job.JobID).
			Int("total_items", job.TotalItems).
			Msg("job planned")
		if *fPlanOnly {
			return
		}
		if err := runner.Run(ctx, job.JobID); err != nil {
			l.Fatal().Err(err).Str("job_id", job.JobID).Msg("run failed")
		}
		report(l, runner, job.JobID)
		return
	}

	// Act on an existing job
	switch {
	case *fCancel:
		if err := runner.Cancel(ctx, *fJob); err != nil {
			l.Fatal().Err(err).Str("job_id", *fJob).Msg("cancel failed")
		}
		report(l, runner, *fJob)

	case *fProgress:
		report(l, runner, *fJob)

	default:
		if *fReplay {
			n, err := runner.ReplayFailed(ctx, *fJob)
			if err != nil {
				l.Fatal().Err(err).Str("job_id", *fJob).Msg("replay failed")
			}
			l.Info().Str("job_id", *fJob).Int("reset", n).Msg("failed items queued again")
			if n == 0 {
				report(l, runner, *fJob)
				return
			}
		}
		if err := runner.Run(ctx, *fJob); err != nil {
			l.Fatal().Err(err).Str("job_id", *fJob).Msg("run failed")
		}
		report(l, runner, *fJob)
	}
}

func report(l *logger.Logger, runner bdom.RunnerPort, jobID string) {
	job, err := runner.Progress(context.Background(), jobID)
	if err != nil {
		l.Fatal().Err(err).Str("job_id", jobID).Msg("progress failed")
	}
	l.Info().
		Str("job_id", job.JobID).
		Str("status", string(job.Status)).
		Int("total_items", job.TotalItems).
		Int("attempted", job.Attempted).
		Int("succeeded", job.Succeeded).
		Int("failed", job.Failed).
		Msg("job progress")
}

func parseLevels(csv string) ([]levels.Level, error) {
	if csv == "" {
		return levels.AllLevels(), nil
	}
	parts := splitCSV(csv)
	out := make([]levels.Level, 0, len(parts))
	for _, p := range parts {
		lvl, err := levels.ParseLevel(p)
		if err != nil {
			return nil, err
		}
		out = append(out, lvl)
	}
	return out, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
