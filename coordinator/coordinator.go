package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	starrsonarr "golift.io/starr/sonarr"

	"github.com/hassbridge/sonarrbridge/qbittorrent"
	"github.com/hassbridge/sonarrbridge/sonarr"
)

// ErrUpdateFailed wraps any fetch error raised during a refresh cycle.
var ErrUpdateFailed = errors.New("update failed")

// Fetcher is the slice of the Sonarr client the coordinator uses.
type Fetcher interface {
	GetApp(ctx context.Context) (*sonarr.App, error)
	GetCommands(ctx context.Context) ([]*starrsonarr.CommandResponse, error)
	GetQueue(ctx context.Context, pageSize int) (*sonarr.Queue, error)
	GetSeries(ctx context.Context) ([]*starrsonarr.Series, error)
	GetUpcoming(ctx context.Context, days int) ([]*sonarr.Episode, error)
	GetWantedMissing(ctx context.Context, pageSize int) (*sonarr.WantedMissing, error)
}

// TransferFetcher supplies live torrent transfer data for queue
// enrichment. It is optional.
type TransferFetcher interface {
	GetTransfers(ctx context.Context) (map[string]qbittorrent.Transfer, error)
}

// Listener is notified after every refresh cycle with the new snapshot,
// or with a nil snapshot and the cycle error on failure.
type Listener func(data *Data, err error)

// Options control the refresh cycle.
type Options struct {
	ScanInterval   time.Duration
	UpcomingDays   int
	QueuePageSize  int
	WantedPageSize int
}

// Coordinator periodically fans out one fetch per enabled datapoint and
// merges the results into a snapshot.
type Coordinator struct {
	client   Fetcher
	torrents TransferFetcher
	opts     Options
	logger   zerolog.Logger

	mu      sync.RWMutex
	enabled map[Datapoint]int
	data    *Data
	lastErr error
	success bool

	listenerMu sync.Mutex
	listeners  []Listener

	refreshCh chan struct{}
}

// New creates a coordinator. The torrents fetcher may be nil.
func New(client Fetcher, torrents TransferFetcher, opts Options, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		client:    client,
		torrents:  torrents,
		opts:      opts,
		logger:    logger,
		enabled:   make(map[Datapoint]int),
		refreshCh: make(chan struct{}, 1),
	}
}

// EnableDatapoint registers interest in a datapoint. Several sensors may
// share one datapoint, so registrations are reference counted. Enabling a
// datapoint requests an out-of-band refresh so its data appears without
// waiting for the next tick.
func (c *Coordinator) EnableDatapoint(dp Datapoint) {
	if !dp.Valid() || dp == DatapointApp {
		return
	}

	c.mu.Lock()
	c.enabled[dp]++
	c.mu.Unlock()

	c.RequestRefresh()
}

// DisableDatapoint drops one registration for a datapoint. Disabling below
// zero is a no-op.
func (c *Coordinator) DisableDatapoint(dp Datapoint) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.enabled[dp] > 0 {
		c.enabled[dp]--
	}

	if c.enabled[dp] == 0 {
		delete(c.enabled, dp)
	}
}

// EnabledDatapoints returns the enabled datapoints and their reference
// counts. The always-collected app datapoint is included with count 1.
func (c *Coordinator) EnabledDatapoints() map[Datapoint]int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[Datapoint]int, len(c.enabled)+1)
	out[DatapointApp] = 1

	for dp, n := range c.enabled {
		out[dp] = n
	}

	return out
}

// AddListener registers a refresh notification callback.
func (c *Coordinator) AddListener(fn Listener) {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	c.listeners = append(c.listeners, fn)
}

// Snapshot returns the most recent successful snapshot, or nil before the
// first successful refresh.
func (c *Coordinator) Snapshot() *Data {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.data
}

// LastUpdateSuccess reports whether the most recent refresh cycle
// succeeded.
func (c *Coordinator) LastUpdateSuccess() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.success
}

// LastError returns the error from the most recent failed cycle, or nil.
func (c *Coordinator) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.lastErr
}

// RequestRefresh asks the run loop for an immediate refresh. Requests are
// coalesced; calling before Run starts is safe.
func (c *Coordinator) RequestRefresh() {
	select {
	case c.refreshCh <- struct{}{}:
	default:
	}
}

// Refresh runs one fetch cycle: fan out one call per enabled datapoint,
// merge into a fresh snapshot and notify listeners. Any fetch error fails
// the whole cycle; the previous snapshot is retained.
func (c *Coordinator) Refresh(ctx context.Context) error {
	datapoints := c.cycleDatapoints()
	next := &Data{}

	g, gctx := errgroup.WithContext(ctx)

	for _, dp := range datapoints {
		dp := dp
		// Each datapoint fills a distinct snapshot field, so the
		// goroutines never write the same memory.
		g.Go(func() error {
			return c.fetch(gctx, dp, next)
		})
	}

	if err := g.Wait(); err != nil {
		wrapped := fmt.Errorf("%w: %w", ErrUpdateFailed, err)

		c.mu.Lock()
		c.success = false
		c.lastErr = wrapped
		c.mu.Unlock()

		c.notify(nil, wrapped)

		return wrapped
	}

	next.Updated = time.Now()

	c.mu.Lock()
	c.data = next
	c.success = true
	c.lastErr = nil
	c.mu.Unlock()

	c.notify(next, nil)

	return nil
}

// Run refreshes immediately, then on every tick of the scan interval and
// on every out-of-band refresh request, until ctx is done. A failed cycle
// is logged and retried on the next tick.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
		c.logger.Error().Err(err).Msg("Initial refresh failed")
	}

	ticker := time.NewTicker(c.opts.ScanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-c.refreshCh:
		}

		if err := c.Refresh(ctx); err != nil && ctx.Err() == nil {
			c.logger.Error().Err(err).Msg("Refresh failed")
		}
	}
}

// cycleDatapoints snapshots the datapoints for one cycle. The app
// datapoint is always first.
func (c *Coordinator) cycleDatapoints() []Datapoint {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Datapoint, 0, len(c.enabled)+1)
	out = append(out, DatapointApp)

	for _, dp := range Datapoints {
		if c.enabled[dp] > 0 {
			out = append(out, dp)
		}
	}

	return out
}

// fetch retrieves one datapoint into its snapshot field.
func (c *Coordinator) fetch(ctx context.Context, dp Datapoint, next *Data) error {
	switch dp {
	case DatapointApp:
		app, err := c.client.GetApp(ctx)
		if err != nil {
			return err
		}
		next.App = app
	case DatapointCommands:
		commands, err := c.client.GetCommands(ctx)
		if err != nil {
			return err
		}
		next.Commands = commands
	case DatapointQueue:
		queue, err := c.client.GetQueue(ctx, c.opts.QueuePageSize)
		if err != nil {
			return err
		}
		next.Queue = queue
		next.Transfers = c.fetchTransfers(ctx)
	case DatapointSeries:
		series, err := c.client.GetSeries(ctx)
		if err != nil {
			return err
		}
		next.Series = series
	case DatapointUpcoming:
		upcoming, err := c.client.GetUpcoming(ctx, c.opts.UpcomingDays)
		if err != nil {
			return err
		}
		next.Upcoming = upcoming
	case DatapointWanted:
		wanted, err := c.client.GetWantedMissing(ctx, c.opts.WantedPageSize)
		if err != nil {
			return err
		}
		next.Wanted = wanted
	}

	return nil
}

// fetchTransfers enriches the queue datapoint with live torrent data.
// An unreachable qBittorrent degrades to un-enriched queue data and never
// fails the cycle.
func (c *Coordinator) fetchTransfers(ctx context.Context) map[string]qbittorrent.Transfer {
	if c.torrents == nil {
		return nil
	}

	transfers, err := c.torrents.GetTransfers(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to get torrent transfers, queue attributes will not be enriched")
		return nil
	}

	return transfers
}

func (c *Coordinator) notify(data *Data, err error) {
	c.listenerMu.Lock()
	listeners := make([]Listener, len(c.listeners))
	copy(listeners, c.listeners)
	c.listenerMu.Unlock()

	for _, fn := range listeners {
		fn(data, err)
	}
}
