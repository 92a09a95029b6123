package app

import (
	"context"
	"fmt"
	"time"

	"github.com/samvad-hq/featurette/internal/config"
	"github.com/samvad-hq/featurette/internal/logger"
	"github.com/samvad-hq/featurette/internal/storage"
	"github.com/samvad-hq/featurette/pkg/features"
	"github.com/samvad-hq/featurette/pkg/notifiers"
)

// Agent runs a features client for one base URL. It reloads on a fixed
// interval and routes every load outcome to the journal and the notifiers.
type Agent struct {
	cfg            *config.Config
	client         *features.Client
	fanout         *notifiers.Fanout
	store          storage.Store
	reloadInterval time.Duration
	log            logger.Logger
}

// NewAgent builds the agent runtime from config. The initial load is issued by Run.
func NewAgent(ctx context.Context, cfg *config.Config, log logger.Logger) (*Agent, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	store, err := storage.NewStore(cfg.JournalType, cfg.JournalPath, storage.Options{
		TTL:             cfg.JournalTTL,
		CleanupInterval: cfg.JournalCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init journal: %w", err)
	}
	log.InfoObj("journal initialized", "journal_config", map[string]any{
		"type":                     cfg.JournalType,
		"path":                     cfg.JournalPath,
		"ttl_seconds":              int(cfg.JournalTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.JournalCleanupInterval.Seconds()),
	})

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	listeners := features.Listeners{
		storage.NewListener(store, cfg.BaseURL, log),
		outcomeLogger{log: log},
	}
	if fanout.Size() > 0 {
		listeners = append(listeners, notifiers.NewListener(fanout, cfg.BaseURL, cfg.FetchTimeout, log))
	}

	client := features.New(cfg.BaseURL,
		features.WithTimeout(cfg.FetchTimeout),
		features.WithUserAgent(cfg.UserAgent),
		features.WithListener(listeners),
		features.WithLogger(log),
	)
	client.SetDefaultsToEnabled(cfg.DefaultsToEnabled)

	return &Agent{
		cfg:            cfg,
		client:         client,
		fanout:         fanout,
		store:          store,
		reloadInterval: cfg.ReloadInterval,
		log:            log,
	}, nil
}

// buildFanout loads the notifiers file, if any, and builds the enabled notifiers.
func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*notifiers.Fanout, error) {
	if cfg.NotifiersFile == "" {
		log.InfoObj("no notifiers file configured", "notifiers_file", "")
		return notifiers.NewFanout(nil), nil
	}

	reg, err := notifiers.LoadRegistry(cfg.NotifiersFile)
	if err != nil {
		return nil, fmt.Errorf("load notifiers registry: %w", err)
	}
	enabled := reg.Enabled()
	built, err := notifiers.BuildAll(ctx, notifiers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build notifiers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, n := range enabled {
		summaries = append(summaries, map[string]string{"id": n.ID, "type": n.Type})
	}
	log.InfoObj("notifiers registry loaded", "notifiers_meta", map[string]any{
		"count":     len(summaries),
		"notifiers": summaries,
	})
	return notifiers.NewFanout(built), nil
}

// Client exposes the running features client.
func (a *Agent) Client() *features.Client {
	if a == nil {
		return nil
	}
	return a.client
}

// Run issues the initial load and keeps reloading until the context is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	if a == nil || a.client == nil {
		return fmt.Errorf("agent is not initialized")
	}
	defer a.shutdown()

	a.logPreviousOutcome()
	a.log.InfoObj("agent starting", "agent_state", map[string]any{
		"base_url":            a.cfg.BaseURL,
		"defaults_to_enabled": a.client.DefaultsToEnabled(),
		"notifiers_count":     a.fanout.Size(),
		"reload_interval":     a.reloadInterval.String(),
	})

	a.client.Reload()

	if a.reloadInterval <= 0 {
		<-ctx.Done()
		a.log.InfoObj("agent exiting", "reason", ctx.Err().Error())
		return nil
	}

	ticker := time.NewTicker(a.reloadInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.log.InfoObj("agent exiting", "reason", ctx.Err().Error())
			return nil
		case <-ticker.C:
			a.log.DebugObj("scheduled reload", "reload_interval", a.reloadInterval.String())
			a.client.Reload()
		}
	}
}

// logPreviousOutcome reports the last journaled outcome from an earlier run.
func (a *Agent) logPreviousOutcome() {
	recs, err := a.store.Recent(1)
	if err != nil {
		a.log.WarnObj("journal read failed", "error", err.Error())
		return
	}
	if len(recs) == 0 {
		return
	}
	a.log.InfoObj("previous load outcome", "journal_record", map[string]any{
		"outcome":     string(recs[0].Outcome),
		"flag_count":  recs[0].FlagCount,
		"error":       recs[0].Error,
		"occurred_at": recs[0].OccurredAt,
	})
}

// shutdown stops the client before releasing the sinks its listeners use.
func (a *Agent) shutdown() {
	a.client.Close()
	if err := a.fanout.Close(); err != nil {
		a.log.ErrorObj("notifiers close failed", "error", err.Error())
	}
	if err := a.store.Close(); err != nil {
		a.log.ErrorObj("journal close failed", "error", err.Error())
	}
}

// outcomeLogger logs the flag values of every successful load.
type outcomeLogger struct {
	log logger.Logger
}

func (o outcomeLogger) FeaturesLoaded(set features.FeatureSet) {
	o.log.DebugObj("feature flags", "flags", set.Map())
}

func (o outcomeLogger) FeaturesLoadFailed(error) {}
