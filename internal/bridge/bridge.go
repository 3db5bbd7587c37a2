package bridge

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/techposts/ambisense-bridge/internal/device"
	"github.com/techposts/ambisense-bridge/internal/logging"
	"github.com/techposts/ambisense-bridge/internal/params"
	"github.com/techposts/ambisense-bridge/internal/state"
)

// DefaultPollInterval is how often the device is polled for fresh state.
const DefaultPollInterval = 5 * time.Second

// Bridge owns the reconciliation loop for one AmbiSense device: it polls
// the device, merges results into the snapshot store, routes setting
// updates to the correct endpoints, and refreshes after every write.
//
// Exactly one reconciliation cycle runs at a time. A Refresh requested
// while a cycle is in flight joins that cycle's result instead of issuing
// a second fetch pair - the embedded HTTP server is single-threaded and
// must not be hit concurrently. Write batches are serialized the same
// way: at most one batch issues sub-calls at any moment.
type Bridge struct {
	client   *device.Client
	store    *state.Store
	interval time.Duration

	mu       sync.Mutex
	inflight *refreshCall

	// Serializes update batches so the device never sees two
	// overlapping write sequences.
	writeMu sync.Mutex

	listenerMu sync.Mutex
	listeners  []func(state.Snapshot, bool)
}

// refreshCall tracks one in-flight poll cycle so that concurrent
// Refresh callers can join it.
type refreshCall struct {
	done chan struct{}
	snap state.Snapshot
	err  error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithPollInterval overrides the default 5s poll interval.
func WithPollInterval(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.interval = d
		}
	}
}

// New creates a bridge for a device client. The snapshot starts empty
// and is rebuilt from the device on the first poll cycle.
func New(client *device.Client, opts ...Option) *Bridge {
	b := &Bridge{
		client:   client,
		store:    state.NewStore(client.Host),
		interval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Snapshot returns the cached snapshot without touching the network.
func (b *Bridge) Snapshot() state.Snapshot {
	return b.store.Snapshot()
}

// Available reports whether the last poll cycle reached the device.
func (b *Bridge) Available() bool {
	return b.store.Available()
}

// Interval returns the configured poll interval.
func (b *Bridge) Interval() time.Duration {
	return b.interval
}

// Subscribe registers a callback invoked after every completed poll
// cycle with the current snapshot and availability. Callbacks run on the
// polling goroutine and should return quickly.
func (b *Bridge) Subscribe(fn func(state.Snapshot, bool)) {
	b.listenerMu.Lock()
	defer b.listenerMu.Unlock()
	b.listeners = append(b.listeners, fn)
}

func (b *Bridge) notify(snap state.Snapshot, available bool) {
	b.listenerMu.Lock()
	listeners := make([]func(state.Snapshot, bool), len(b.listeners))
	copy(listeners, b.listeners)
	b.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(snap, available)
	}
}

// Refresh runs one reconciliation cycle and returns the resulting
// snapshot. Safe to call concurrently: callers arriving while a cycle is
// in flight are coalesced onto it.
func (b *Bridge) Refresh(ctx context.Context) (state.Snapshot, error) {
	b.mu.Lock()
	if call := b.inflight; call != nil {
		b.mu.Unlock()
		select {
		case <-call.done:
			return call.snap, call.err
		case <-ctx.Done():
			return b.store.Snapshot(), ctx.Err()
		}
	}

	call := &refreshCall{done: make(chan struct{})}
	b.inflight = call
	b.mu.Unlock()

	call.snap, call.err = b.pollOnce(ctx)
	close(call.done)

	b.mu.Lock()
	b.inflight = nil
	b.mu.Unlock()

	return call.snap, call.err
}

// pollOnce fetches distance and settings sequentially, merges the
// results, and notifies subscribers. Fetch failures degrade the snapshot
// per the merge rules instead of propagating to the caller; only the
// both-fetches-failed case surfaces as an error.
func (b *Bridge) pollOnce(ctx context.Context) (state.Snapshot, error) {
	start := time.Now()

	var distance *int
	if d, err := b.client.FetchDistance(ctx); err == nil {
		distance = &d
	} else {
		logging.Debug("Distance fetch failed", zap.Error(err))
	}

	var settings *state.Settings
	if raw, err := b.client.FetchSettings(ctx); err == nil {
		parsed := params.FromWireSettings(raw)
		settings = &parsed
	} else {
		logging.Debug("Settings fetch failed", zap.Error(err))
	}

	snap, err := b.store.Merge(distance, settings)
	logging.LogPollCycle(distance != nil, settings != nil, err == nil, time.Since(start))

	b.notify(snap, b.store.Available())
	return snap, err
}

// Run drives periodic polling until the context is canceled. An
// immediate cycle runs first so the snapshot is populated at startup.
// Out-of-band refreshes (after writes, or via the consumer contract) do
// not reset the timer; they are additional cycles that concurrent
// callers coalesce onto.
func (b *Bridge) Run(ctx context.Context) error {
	if _, err := b.Refresh(ctx); err != nil {
		logging.Warn("Initial poll failed, device may be offline",
			zap.String("host", b.client.Host), zap.Error(err))
	}

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := b.Refresh(ctx); err != nil {
				logging.Debug("Scheduled poll failed", zap.Error(err))
			}
		}
	}
}
