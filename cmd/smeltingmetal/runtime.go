package main

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"smeltingmetal.dev/internal/logging"
	"smeltingmetal.dev/internal/persistence/indexdb"
	eventlog "smeltingmetal.dev/internal/persistence/log"
	"smeltingmetal.dev/internal/sim/catalogs"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/engine"
)

// runtime is the wired engine plus the sinks it writes to.
type runtime struct {
	log *zap.Logger
	eng *engine.Engine

	mutations *eventlog.MutationLogger
	passes    *eventlog.PassLogger
	index     *indexdb.SQLiteIndex
}

func openRuntime(s Settings) (*runtime, error) {
	log, err := logging.New(s.LogLevel)
	if err != nil {
		return nil, err
	}

	cats, err := catalogs.Load(s.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("load catalogs: %w", err)
	}
	raw, err := os.ReadFile(s.ConfigPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg := config.Defaults()
	cfg.Normalize()
	if len(raw) > 0 {
		if cfg, err = config.Parse(raw); err != nil {
			return nil, err
		}
	} else {
		log.Warn("config file missing, using defaults", zap.String("path", s.ConfigPath))
	}

	rt := &runtime{
		log:       log,
		mutations: eventlog.NewMutationLogger(s.DataDir),
		passes:    eventlog.NewPassLogger(s.DataDir),
	}
	opts := engine.Options{
		Config:        cfg,
		Catalogs:      cats,
		Log:           log,
		MutationSinks: []engine.MutationSink{rt.mutations},
		PassSinks:     []engine.PassSink{rt.passes},
	}
	if s.Snapshots {
		opts.SnapshotDir = s.SnapshotDir()
	}
	if !s.DisableDB {
		idx, err := indexdb.OpenSQLite(s.IndexPath())
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("open index: %w", err)
		}
		rt.index = idx
		if err := idx.UpsertCatalogs(cats, raw, engine.ConfigDigest(cfg)); err != nil {
			log.Warn("catalog index failed", zap.Error(err))
		}
		opts.MutationSinks = append(opts.MutationSinks, idx)
		opts.PassSinks = append(opts.PassSinks, idx)
		opts.Snapshots = idx
	}

	rt.eng, err = engine.New(opts)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.index != nil {
		if err := rt.index.Close(); err != nil {
			rt.log.Warn("close index", zap.Error(err))
		}
	}
	_ = rt.mutations.Close()
	_ = rt.passes.Close()
	_ = rt.log.Sync()
}
