// Package features is a remote feature-flag client. It loads
// <baseURL>/features.json in the background, keeps the parsed flags in
// memory and answers boolean queries without blocking.
package features

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/featurette/pkg/httpclient"
)

// FeaturesFile is the document fetched relative to the base URL.
const FeaturesFile = "features.json"

var (
	// ErrUnexpectedStatus reports a non-2xx response to the features fetch.
	ErrUnexpectedStatus = errors.New("unexpected features response status")
	// ErrSuperseded is returned by Load when a newer load replaced it.
	ErrSuperseded = errors.New("features load superseded by a newer load")
	// ErrClosed is returned by Load after Close.
	ErrClosed = errors.New("features client closed")
)

// Client caches the most recent feature set fetched from a base URL.
//
// Overlapping loads resolve to the latest one issued: starting a load
// cancels any fetch still in flight, and completions of superseded loads
// are dropped without touching state or notifying the listener.
type Client struct {
	baseURL  string
	http     httpclient.Client
	listener Listener
	log      Logger

	defaultsToEnabled atomic.Bool
	flags             atomic.Pointer[FeatureSet]

	mu       sync.Mutex
	state    State
	seq      uint64
	cancel   context.CancelFunc
	closed   bool
	lastErr  error
	loadedAt time.Time

	// emitMu serializes completions and listener calls. Always taken
	// before mu, and mu is never held across a listener call.
	emitMu sync.Mutex

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup
}

// New builds a client without issuing a load.
func New(baseURL string, opts ...Option) *Client {
	return newClient(context.Background(), baseURL, opts)
}

// Start builds a client and begins the initial load in the background. It
// returns before the load completes; queries answer from the default policy
// until then. Cancelling ctx cancels all fetches, like Close without waiting.
func Start(ctx context.Context, baseURL string, opts ...Option) *Client {
	if ctx == nil {
		ctx = context.Background()
	}
	c := newClient(ctx, baseURL, opts)
	c.Reload()
	return c
}

func newClient(parent context.Context, baseURL string, opts []Option) *Client {
	o := buildOptions(opts)
	ctx, stop := context.WithCancel(parent)
	return &Client{
		baseURL:  strings.TrimSpace(baseURL),
		http:     o.http,
		listener: o.listener,
		log:      o.log,
		ctx:      ctx,
		stop:     stop,
	}
}

// BaseURL returns the URL the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// SetDefaultsToEnabled sets the value returned for flags absent from the
// current set. It takes effect for the next query and does not reload.
func (c *Client) SetDefaultsToEnabled(enabled bool) {
	c.defaultsToEnabled.Store(enabled)
}

// DefaultsToEnabled returns the fallback for absent flags.
func (c *Client) DefaultsToEnabled() bool {
	return c.defaultsToEnabled.Load()
}

// FeatureEnabled returns the stored value for key, or the default policy
// when key is absent or nothing has been loaded yet.
func (c *Client) FeatureEnabled(key string) bool {
	if set := c.flags.Load(); set != nil {
		if enabled, ok := set.Lookup(key); ok {
			return enabled
		}
	}
	return c.defaultsToEnabled.Load()
}

// Snapshot returns the current feature set and whether any load has succeeded.
func (c *Client) Snapshot() (FeatureSet, bool) {
	set := c.flags.Load()
	if set == nil {
		return FeatureSet{}, false
	}
	return *set, true
}

// State returns the lifecycle state of the latest issued load.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the cause of the latest failed load, or nil.
func (c *Client) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// LoadedAt returns when the current feature set was installed.
func (c *Client) LoadedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadedAt
}

// Reload fetches the features document in the background. The outcome is
// reported only through the listener. Reload after Close is a no-op.
func (c *Client) Reload() {
	seq, ctx, ok := c.begin(c.ctx)
	if !ok {
		c.log.DebugObj("features reload ignored", "reason", ErrClosed.Error())
		return
	}
	go func() {
		defer c.wg.Done()
		set, err := c.fetch(ctx)
		c.complete(seq, set, err)
	}()
}

// Load fetches the features document and waits for the outcome. It follows
// the same state and listener rules as Reload and also returns the error.
func (c *Client) Load(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	seq, fetchCtx, ok := c.begin(ctx)
	if !ok {
		return ErrClosed
	}
	defer c.wg.Done()

	set, err := c.fetch(fetchCtx)
	if !c.complete(seq, set, err) {
		if c.isClosed() {
			return ErrClosed
		}
		return ErrSuperseded
	}
	return err
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close cancels in-flight fetches and waits for them to finish. Must not
// be called from a Listener.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
}

// begin registers a new load as the latest one and cancels its predecessor.
func (c *Client) begin(parent context.Context) (uint64, context.Context, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return 0, nil, false
	}
	if c.cancel != nil {
		c.cancel()
	}

	ctx, cancel := context.WithCancel(parent)
	stopAfter := context.AfterFunc(c.ctx, cancel)
	c.cancel = func() {
		stopAfter()
		cancel()
	}
	c.seq++
	c.state = StateLoading
	c.wg.Add(1)
	return c.seq, ctx, true
}

// complete applies the outcome of load seq if it is still the latest one
// and notifies the listener. It reports whether the outcome was applied.
func (c *Client) complete(seq uint64, set FeatureSet, err error) bool {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		c.log.DebugObj("features load discarded", "features_load", map[string]any{
			"base_url": c.baseURL,
			"seq":      seq,
		})
		return false
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	if err != nil {
		c.state = StateFailed
		c.lastErr = err
	} else {
		c.flags.Store(&set)
		c.state = StateLoaded
		c.lastErr = nil
		c.loadedAt = time.Now().UTC()
	}
	c.mu.Unlock()

	if err != nil {
		c.log.WarnObj("features load failed", "features_load", map[string]any{
			"base_url": c.baseURL,
			"error":    err.Error(),
		})
		c.listener.FeaturesLoadFailed(err)
		return true
	}
	c.log.InfoObj("features loaded", "features_load", map[string]any{
		"base_url":   c.baseURL,
		"flag_count": set.Len(),
	})
	c.listener.FeaturesLoaded(set)
	return true
}

func (c *Client) fetch(ctx context.Context) (FeatureSet, error) {
	target, err := url.JoinPath(c.baseURL, FeaturesFile)
	if err != nil {
		return FeatureSet{}, fmt.Errorf("build features url from %q: %w", c.baseURL, err)
	}

	resp, err := c.http.Get(ctx, target, map[string]string{"Accept": "application/json"})
	if err != nil {
		return FeatureSet{}, fmt.Errorf("fetch %s: %w", target, err)
	}

	body := resp.Body()
	if code := resp.StatusCode(); code < http.StatusOK || code >= http.StatusMultipleChoices {
		return FeatureSet{}, fmt.Errorf("%w: %s returned status %d body: %s", ErrUnexpectedStatus, target, code, responseSnippet(body))
	}
	c.log.DebugObj("features document fetched", "features_fetch", map[string]any{
		"url":          target,
		"bytes":        len(body),
		"content_type": resp.Header("Content-Type"),
	})

	set, err := ParseFeatureSet(body)
	if err != nil {
		return FeatureSet{}, fmt.Errorf("decode %s: %w", target, err)
	}
	return set, nil
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
