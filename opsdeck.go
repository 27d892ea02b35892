package opsdeck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opsdeck/opsdeck/internal/clock"
	"github.com/opsdeck/opsdeck/pkg/chains"
	"github.com/opsdeck/opsdeck/pkg/domain"
	"github.com/opsdeck/opsdeck/pkg/observability"
	"github.com/opsdeck/opsdeck/pkg/pipeline"
	"github.com/opsdeck/opsdeck/pkg/ports"
	"github.com/opsdeck/opsdeck/pkg/refresh"
	"github.com/opsdeck/opsdeck/pkg/view"
)

// Version is reported by the CLI and the MCP server. Release builds override
// it through -ldflags.
var Version = "0.1.0-dev"

// Deck is the assembled dashboard engine: the four resource chains wired over
// a set of collaborators, one view binding per resource, and one refresh
// scheduler per view. It is the entrypoint for embedding opsdeck as a
// library; the CLI and the MCP server are both thin shells around it.
type Deck struct {
	collabs ports.Collaborators
	logger  *slog.Logger
	clock   clock.Clock
	hooks   pipeline.LifecycleHooks
	metrics *observability.Metrics

	mode     refresh.Mode
	interval time.Duration

	prefs  ports.PreferenceStore
	user   string
	prefMu sync.Mutex
	demo   bool

	jobs        *chains.JobsChain
	agents      *chains.AgentsChain
	deployments *chains.DeploymentsChain
	queue       *chains.QueueChain

	jobsView        *view.Binding[domain.Job]
	agentsView      *view.Binding[domain.Agent]
	deploymentsView *view.Binding[domain.Deployment]
	queueView       *view.Binding[domain.QueuedJob]

	// schedulers share one mode, so the first one answers Mode queries.
	schedulers []*refresh.Scheduler

	statsMu sync.RWMutex
	stats   *domain.QueueStats
}

// Option configures a Deck.
type Option func(*Deck)

// WithLogger sets the logger shared by the chains, views and schedulers.
// Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Deck) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithClock injects the time source, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(d *Deck) {
		if c != nil {
			d.clock = c
		}
	}
}

// WithLifecycleHooks attaches observer callbacks to every chain the deck
// builds. Merged with the metrics hooks when WithMetrics is also set.
func WithLifecycleHooks(hooks pipeline.LifecycleHooks) Option {
	return func(d *Deck) { d.hooks = hooks }
}

// WithMetrics registers Prometheus collectors for chain and refresh activity
// on reg and wires them into the deck. A nil reg uses the default registry.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(d *Deck) { d.metrics = observability.NewMetrics(reg) }
}

// WithRefreshMode sets the initial refresh mode. Defaults to ModeEfficient.
// A stored preference loaded during Start takes precedence.
func WithRefreshMode(m refresh.Mode) Option {
	return func(d *Deck) { d.mode = m }
}

// WithRefreshInterval sets an explicit polling period that overrides the
// mode's preset.
func WithRefreshInterval(interval time.Duration) Option {
	return func(d *Deck) { d.interval = interval }
}

// WithPreferences persists refresh settings per user. Start loads the stored
// preferences, and SetRefreshMode / SetRefreshInterval save them back. An
// empty user falls back to "default".
func WithPreferences(store ports.PreferenceStore, user string) Option {
	return func(d *Deck) {
		d.prefs = store
		if user == "" {
			user = "default"
		}
		d.user = user
	}
}

// New assembles a Deck over the given collaborators. All four APIs are
// required; adapters that do not serve a resource should not be silently
// absent but stubbed by the caller.
func New(collabs ports.Collaborators, opts ...Option) (*Deck, error) {
	if collabs.Jobs == nil || collabs.Agents == nil || collabs.Deployments == nil || collabs.Queue == nil {
		return nil, fmt.Errorf("opsdeck: all collaborators must be set (jobs, agents, deployments, queue)")
	}

	d := &Deck{
		collabs: collabs,
		logger:  slog.New(slog.NewJSONHandler(io.Discard, nil)),
		clock:   clock.Real(),
		mode:    refresh.ModeEfficient,
	}
	for _, opt := range opts {
		opt(d)
	}

	hooks := d.hooks
	if d.metrics != nil {
		hooks = hooks.Merge(d.metrics.PipelineHooks())
	}
	chainOpts := []pipeline.Option{
		pipeline.WithLogger(d.logger),
		pipeline.WithHooks(hooks),
	}

	d.jobs = chains.NewJobsChain(collabs.Jobs, chainOpts...)
	d.agents = chains.NewAgentsChain(collabs.Agents, chainOpts...)
	d.deployments = chains.NewDeploymentsChain(collabs.Deployments, chainOpts...)
	d.queue = chains.NewQueueChain(collabs.Queue, chainOpts...)

	viewOpts := []view.Option{view.WithLogger(d.logger), view.WithClock(d.clock)}
	d.jobsView = view.NewBinding("jobs", d.jobs.Execute, viewOpts...)
	d.agentsView = view.NewBinding("agents", d.agents.Execute, viewOpts...)
	d.deploymentsView = view.NewBinding("deployments", d.deployments.Execute, viewOpts...)
	d.queueView = view.NewBinding("queue", d.queue.Execute, viewOpts...)

	d.schedulers = []*refresh.Scheduler{
		d.newScheduler("jobs", d.jobsView.Refetch),
		d.newScheduler("agents", d.agentsView.Refetch),
		d.newScheduler("deployments", d.deploymentsView.Refetch),
		d.newScheduler("queue", d.refreshQueue),
	}
	return d, nil
}

func (d *Deck) newScheduler(name string, target func(context.Context) error) *refresh.Scheduler {
	opts := []refresh.Option{
		refresh.WithLogger(d.logger),
		refresh.WithClock(d.clock),
		refresh.WithMode(d.mode),
		refresh.WithInterval(d.interval),
	}
	if d.metrics != nil {
		onRun, onSkip := d.metrics.RefreshObservers(name)
		opts = append(opts, refresh.WithOnRun(onRun), refresh.WithOnSkip(onSkip))
	}
	return refresh.New(name, target, opts...)
}

// refreshQueue is the queue scheduler's target: it refreshes the queue view
// and re-polls the aggregate stats in the same pass.
func (d *Deck) refreshQueue(ctx context.Context) error {
	viewErr := d.queueView.Refetch(ctx)

	stats, statsErr := d.queue.Stats(ctx)
	if statsErr == nil {
		d.statsMu.Lock()
		d.stats = stats
		d.statsMu.Unlock()
	}
	return errors.Join(viewErr, statsErr)
}

// Start loads stored preferences (when a store is configured) and launches
// the refresh schedulers. Ticking stops when ctx is cancelled; call Stop to
// release the timers.
func (d *Deck) Start(ctx context.Context) {
	d.loadPreferences(ctx)
	for _, s := range d.schedulers {
		s.Start(ctx)
	}
}

// Stop halts all schedulers and blocks until in-flight refreshes return.
func (d *Deck) Stop() {
	for _, s := range d.schedulers {
		s.Stop()
	}
}

// RefreshAll refetches every view once, concurrently, and blocks until all
// four complete. Per-view failures are joined; each view also keeps its own
// error in its snapshot.
func (d *Deck) RefreshAll(ctx context.Context) error {
	targets := []func(context.Context) error{
		d.jobsView.Refetch,
		d.agentsView.Refetch,
		d.deploymentsView.Refetch,
		d.refreshQueue,
	}

	var wg sync.WaitGroup
	errs := make([]error, len(targets))
	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = target(ctx)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// SetRefreshMode switches every scheduler to the given mode and, when a
// preference store is configured, persists the choice.
func (d *Deck) SetRefreshMode(ctx context.Context, m refresh.Mode) error {
	for _, s := range d.schedulers {
		s.SetMode(m)
	}
	return d.savePreferences(ctx)
}

// SetRefreshInterval sets or clears (interval <= 0) the explicit period
// override on every scheduler and persists it alongside the mode.
func (d *Deck) SetRefreshInterval(ctx context.Context, interval time.Duration) error {
	if interval < 0 {
		interval = 0
	}
	d.prefMu.Lock()
	d.interval = interval
	d.prefMu.Unlock()
	for _, s := range d.schedulers {
		s.SetInterval(interval)
	}
	return d.savePreferences(ctx)
}

// Mode returns the current refresh mode.
func (d *Deck) Mode() refresh.Mode {
	return d.schedulers[0].Mode()
}

// Interval returns the effective polling period, zero when refreshing is off.
func (d *Deck) Interval() time.Duration {
	return d.schedulers[0].Interval()
}

func (d *Deck) loadPreferences(ctx context.Context) {
	if d.prefs == nil {
		return
	}
	p, err := d.prefs.Load(ctx, d.user)
	if err != nil {
		if !errors.Is(err, ports.ErrPreferencesNotFound) {
			d.logger.Warn("loading preferences failed", "user", d.user, "err", err)
		}
		return
	}

	d.prefMu.Lock()
	d.interval = p.RefreshInterval
	d.demo = p.DemoMode
	d.prefMu.Unlock()

	mode := refresh.ParseMode(p.RefreshMode)
	for _, s := range d.schedulers {
		s.SetMode(mode)
		s.SetInterval(p.RefreshInterval)
	}
}

func (d *Deck) savePreferences(ctx context.Context) error {
	if d.prefs == nil {
		return nil
	}
	d.prefMu.Lock()
	p := &domain.Preferences{
		RefreshMode:     string(d.Mode()),
		RefreshInterval: d.interval,
		DemoMode:        d.demo,
	}
	d.prefMu.Unlock()
	if err := d.prefs.Save(ctx, d.user, p); err != nil {
		return fmt.Errorf("saving preferences for %q: %w", d.user, err)
	}
	return nil
}

// OnUpdate registers fn to run after every state change on any of the four
// views. Callbacks fire on refresh goroutines; fn must be safe for
// concurrent use.
func (d *Deck) OnUpdate(fn func()) {
	if fn == nil {
		return
	}
	d.jobsView.OnUpdate(func(view.Snapshot[domain.Job]) { fn() })
	d.agentsView.OnUpdate(func(view.Snapshot[domain.Agent]) { fn() })
	d.deploymentsView.OnUpdate(func(view.Snapshot[domain.Deployment]) { fn() })
	d.queueView.OnUpdate(func(view.Snapshot[domain.QueuedJob]) { fn() })
}

// Frame captures the point-in-time state of all four views, ready to render.
type Frame struct {
	GeneratedAt time.Time
	Mode        refresh.Mode
	Jobs        view.Snapshot[domain.Job]
	Agents      view.Snapshot[domain.Agent]
	Deployments view.Snapshot[domain.Deployment]
	Queue       view.Snapshot[domain.QueuedJob]
	Stats       *domain.QueueStats
}

// Frame assembles the current snapshots of every view plus the last polled
// queue stats.
func (d *Deck) Frame() Frame {
	return Frame{
		GeneratedAt: d.clock.Now(),
		Mode:        d.Mode(),
		Jobs:        d.jobsView.Snapshot(),
		Agents:      d.agentsView.Snapshot(),
		Deployments: d.deploymentsView.Snapshot(),
		Queue:       d.queueView.Snapshot(),
		Stats:       d.QueueStats(),
	}
}

// QueueStats returns the stats from the newest queue refresh, nil before the
// first one completes.
func (d *Deck) QueueStats() *domain.QueueStats {
	d.statsMu.RLock()
	defer d.statsMu.RUnlock()
	return d.stats
}

// Jobs returns the jobs chain for direct execution and mutations.
func (d *Deck) Jobs() *chains.JobsChain { return d.jobs }

// Agents returns the agents chain.
func (d *Deck) Agents() *chains.AgentsChain { return d.agents }

// Deployments returns the deployments chain.
func (d *Deck) Deployments() *chains.DeploymentsChain { return d.deployments }

// Queue returns the queue chain.
func (d *Deck) Queue() *chains.QueueChain { return d.queue }

// JobsView returns the jobs view binding.
func (d *Deck) JobsView() *view.Binding[domain.Job] { return d.jobsView }

// AgentsView returns the agents view binding.
func (d *Deck) AgentsView() *view.Binding[domain.Agent] { return d.agentsView }

// DeploymentsView returns the deployments view binding.
func (d *Deck) DeploymentsView() *view.Binding[domain.Deployment] { return d.deploymentsView }

// QueueView returns the queue view binding.
func (d *Deck) QueueView() *view.Binding[domain.QueuedJob] { return d.queueView }
