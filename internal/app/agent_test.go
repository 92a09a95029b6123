package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/samvad-hq/featurette/internal/config"
	"github.com/samvad-hq/featurette/internal/domain"
	"github.com/samvad-hq/featurette/internal/storage"
	"github.com/samvad-hq/featurette/pkg/notifiers"
)

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		AppName:                "featurette",
		BaseURL:                baseURL,
		UserAgent:              "featurette-test",
		FetchTimeout:           2 * time.Second,
		JournalType:            "bbolt",
		JournalPath:            filepath.Join(t.TempDir(), "journal.db"),
		JournalTTL:             time.Hour,
		JournalCleanupInterval: time.Hour,
	}
}

func runAgent(t *testing.T, agent *Agent) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx) }()
	return cancel, done
}

func stopAgent(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("agent did not stop")
	}
}

func TestAgentLoadsJournalsAndNotifies(t *testing.T) {
	flags := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/features.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"dark_mode": true}`))
	}))
	defer flags.Close()

	events := make(chan notifiers.Event, 4)
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var evt notifiers.Event
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			t.Errorf("decode webhook body: %v", err)
		}
		events <- evt
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	cfg := testConfig(t, flags.URL)
	cfg.DefaultsToEnabled = true
	cfg.NotifiersFile = filepath.Join(t.TempDir(), "notifiers.yaml")
	notifiersYAML := "notifiers:\n  - id: hook\n    type: http\n    http:\n      url: " + hook.URL + "\n"
	if err := os.WriteFile(cfg.NotifiersFile, []byte(notifiersYAML), 0o644); err != nil {
		t.Fatalf("write notifiers file: %v", err)
	}

	agent, err := NewAgent(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	cancel, done := runAgent(t, agent)

	select {
	case evt := <-events:
		if evt.Record.Outcome != domain.OutcomeLoaded || evt.Record.FlagCount != 1 {
			t.Fatalf("unexpected event %+v", evt.Record)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("webhook never received load event")
	}

	client := agent.Client()
	if !client.FeatureEnabled("dark_mode") {
		t.Fatalf("dark_mode should be enabled")
	}
	if !client.FeatureEnabled("unknown") {
		t.Fatalf("unknown flag should follow defaults_to_enabled")
	}
	stopAgent(t, cancel, done)

	store, err := storage.NewStore("bbolt", cfg.JournalPath, storage.Options{TTL: time.Hour, CleanupInterval: time.Hour})
	if err != nil {
		t.Fatalf("reopen journal: %v", err)
	}
	defer store.Close()
	recs, err := store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 1 || recs[0].Outcome != domain.OutcomeLoaded || recs[0].Source != flags.URL {
		t.Fatalf("unexpected journal %+v", recs)
	}
}

func TestAgentReloadsOnInterval(t *testing.T) {
	var hits atomic.Int32
	flags := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`{"a": true}`))
	}))
	defer flags.Close()

	cfg := testConfig(t, flags.URL)
	cfg.JournalType = "none"
	cfg.ReloadInterval = 20 * time.Millisecond

	agent, err := NewAgent(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	cancel, done := runAgent(t, agent)

	deadline := time.Now().Add(2 * time.Second)
	for hits.Load() < 3 {
		if time.Now().After(deadline) {
			t.Fatalf("expected periodic reloads, saw %d requests", hits.Load())
		}
		time.Sleep(5 * time.Millisecond)
	}
	stopAgent(t, cancel, done)
}

func TestAgentKeepsServingAfterFailure(t *testing.T) {
	var mu sync.Mutex
	status := http.StatusOK
	flags := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"x": true}`))
		}
	}))
	defer flags.Close()

	cfg := testConfig(t, flags.URL)
	agent, err := NewAgent(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}
	defer agent.shutdown()

	client := agent.Client()
	if err := client.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	mu.Lock()
	status = http.StatusInternalServerError
	mu.Unlock()
	if err := client.Load(context.Background()); err == nil {
		t.Fatalf("expected failed load")
	}
	if !client.FeatureEnabled("x") {
		t.Fatalf("expected stale flags after failed load")
	}

	recs, err := agent.store.Recent(0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].Outcome != domain.OutcomeFailed || recs[1].Outcome != domain.OutcomeLoaded {
		t.Fatalf("unexpected journal %+v", recs)
	}
}

func TestNewAgentRejectsBadNotifiersFile(t *testing.T) {
	cfg := testConfig(t, "https://flags.example.com")
	cfg.JournalType = "none"
	cfg.NotifiersFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := NewAgent(context.Background(), cfg, nil); err == nil {
		t.Fatalf("expected error for missing notifiers file")
	}
}

func TestNewAgentRequiresConfig(t *testing.T) {
	if _, err := NewAgent(context.Background(), nil, nil); err == nil {
		t.Fatalf("expected error for nil config")
	}
}
