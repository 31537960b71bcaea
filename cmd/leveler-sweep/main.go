package main

import (
	"context"
	"flag"

	"leveler/internal/core/levels"
	"leveler/internal/modkit"
	"leveler/internal/modkit/module"
	"leveler/internal/modkit/repokit"
	"leveler/internal/platform/config"
	"leveler/internal/platform/logger"
	"leveler/internal/platform/store"

	cachemod "leveler/internal/services/cache/module"
)

func main() {
	root := config.New()
	pgCfg := root.Prefix("SERVICE_PGSQL_")

	l := logger.Get()
	st, err := store.Open(context.Background(), store.Config{
		PG: store.PGConfig{
			Enabled:     true,
			URL:         pgCfg.MustString("DBURL"),
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 2)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", true),
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
		fPromptVer    = flag.Int("prompt-version", levels.DefaultParams().Version(), "active prompt version; older entries are deleted")
		fThresholdVer = flag.Int("threshold-version", levels.DefaultThresholds().Version(), "active threshold version; older entries are deleted")
	)
	flag.Parse()

	deps := modkit.Deps{
		Cfg: root,
		PG:  st.PG,
		Log: *l,
	}

	cache := cachemod.New(deps)
	module.Register(cache.Name(), cache.Ports())
	sweeper := cache.Ports().(cachemod.Ports).Sweep

	rep, err := sweeper.Sweep(context.Background(), *fPromptVer, *fThresholdVer)
	if err != nil {
		l.Fatal().Err(err).Msg("sweep failed")
	}
	l.Info().
		Int64("old_version_deleted", rep.OldVersionDeleted).
		Int64("poison_purged", rep.PoisonPurged).
		Int64("stale_deleted", rep.StaleDeleted).
		Msg("cache sweep complete")
}
