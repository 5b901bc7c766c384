package main

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultPeriodUnits = 7.0
	timeoutPeriods     = 6
	gcPeriods          = 4
)

// DaemonOptions configures a Daemon beyond what the configuration file
// supplies. Zero values select sane defaults.
type DaemonOptions struct {
	Logger *zerolog.Logger
	Metric *Metrics

	// TimeUnit is the duration of one abstract "time unit" PERIOD is
	// expressed in (default one second). Tests shrink it to run the four
	// timer families in milliseconds instead of minutes.
	TimeUnit time.Duration

	// PeriodUnits is PERIOD, in time units (default 7).
	PeriodUnits float64
}

// Daemon is the RIP daemon core: the shared routing table, the neighbor
// links, and the four timer families that mutate the table under a single
// mutex. It generalizes the teacher's Controller — the one actor aware of
// the whole network — into the real orchestrator this protocol needs.
type Daemon struct {
	id    RouterID
	links []*NeighborLink
	byID  map[RouterID]*NeighborLink

	log     zerolog.Logger
	metrics *Metrics

	timeUnit    time.Duration
	periodUnits float64

	mu              sync.Mutex
	routes          map[RouterID]*Route
	gc              map[gcKey]*time.Timer
	triggeredTimers []*time.Timer
	periodicTimer   *time.Timer

	frames chan inboundFrame
}

// NewDaemon builds neighbor links for every configured output and seeds
// the routing table with direct routes, per the Lifecycle rules in the
// data model.
func NewDaemon(cfg *Config, opts DaemonOptions) (*Daemon, error) {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.Metric == nil {
		opts.Metric = NewMetrics()
	}
	if opts.TimeUnit <= 0 {
		opts.TimeUnit = time.Second
	}
	if opts.PeriodUnits <= 0 {
		opts.PeriodUnits = defaultPeriodUnits
	}

	d := &Daemon{
		id:          cfg.RouterID,
		byID:        make(map[RouterID]*NeighborLink, len(cfg.Outputs)),
		log:         logger.With().Uint16("router_id", uint16(cfg.RouterID)).Logger(),
		metrics:     opts.Metric,
		timeUnit:    opts.TimeUnit,
		periodUnits: opts.PeriodUnits,
		routes:      make(map[RouterID]*Route, len(cfg.Outputs)),
		gc:          make(map[gcKey]*time.Timer),
		frames:      make(chan inboundFrame, 32),
	}

	for i, o := range cfg.Outputs {
		link, err := NewNeighborLink(cfg.RouterID, cfg.InputPorts[i], o)
		if err != nil {
			for _, created := range d.links {
				created.Close()
			}
			return nil, err
		}
		d.links = append(d.links, link)
		d.byID[o.Neighbor] = link

		route := &Route{Src: d.id, Dest: o.Neighbor, Via: o.Neighbor, Metric: o.Metric}
		d.armTimeoutLocked(route)
		d.routes[o.Neighbor] = route
	}

	return d, nil
}

// Run drives the event loop until ctx is cancelled: one reader goroutine
// per neighbor link forwards decoded frames onto a shared channel, and
// this goroutine applies them to the table one at a time, serializing
// every mutation the way the teacher's Node.Run serializes message
// handling through a single select statement.
func (d *Daemon) Run(ctx context.Context) error {
	d.mu.Lock()
	d.logRoutingTableLocked()
	d.schedulePeriodicLocked()
	d.mu.Unlock()

	var wg sync.WaitGroup
	for _, link := range d.links {
		wg.Add(1)
		go func(l *NeighborLink) {
			defer wg.Done()
			d.readLoop(ctx, l)
		}(link)
	}

	for {
		select {
		case <-ctx.Done():
			d.teardown()
			for _, link := range d.links {
				link.Close()
			}
			wg.Wait()
			return nil
		case f := <-d.frames:
			d.mu.Lock()
			d.applyFrame(f)
			d.mu.Unlock()
		}
	}
}

func (d *Daemon) readLoop(ctx context.Context, l *NeighborLink) {
	for {
		f, err := l.Receive()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			d.log.Warn().Err(err).Int("port", l.InputPort).Msg("discarding malformed frame")
			d.metrics.framesDiscarded.Inc()
			continue
		}
		if f.skipped > 0 {
			d.metrics.framesDiscarded.Add(f.skipped)
			d.log.Warn().Int("skipped", f.skipped).Uint16("neighbor", uint16(f.src)).Msg("discarded invalid entries")
		}

		select {
		case d.frames <- f:
		case <-ctx.Done():
			return
		}
	}
}

func (d *Daemon) teardown() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.periodicTimer != nil {
		d.periodicTimer.Stop()
	}
	for _, t := range d.triggeredTimers {
		t.Stop()
	}
	for _, r := range d.routes {
		if r.timer != nil {
			r.timer.Stop()
		}
	}
	for _, t := range d.gc {
		t.Stop()
	}
}

// applyFrame implements §4.4's per-entry update rules for one decoded
// frame. src must be a configured neighbor or the whole frame is
// discarded.
func (d *Daemon) applyFrame(f inboundFrame) {
	link, ok := d.byID[f.src]
	if !ok {
		d.log.Warn().Uint16("src", uint16(f.src)).Msg("discarding frame from non-neighbor")
		d.metrics.framesDiscarded.Inc()
		return
	}

	changed := false
	for _, e := range f.entries {
		if d.applyEntry(f.src, link, e) {
			changed = true
		}
	}
	if changed {
		d.logRoutingTableLocked()
	}
}

// applyEntry applies one advertised entry from neighbor src and reports
// whether it changed the table. Callers must hold d.mu.
func (d *Daemon) applyEntry(src RouterID, link *NeighborLink, e Entry) bool {
	if e.Dest == d.id {
		return d.applySelfEntry(src, e)
	}

	newMetric := addMetric(link.LinkMetric, e.Metric)

	existing, ok := d.routes[e.Dest]
	if !ok {
		if newMetric < Infinity {
			d.addRouteLocked(src, e.Dest, newMetric)
			return true
		}
		return false
	}

	if existing.Via == src {
		if existing.Metric == Infinity {
			// Already poisoned; avoid re-issuing triggered updates.
			return false
		}
		changed := existing.Metric != newMetric
		existing.Metric = newMetric
		if newMetric == Infinity {
			d.poisonLocked(existing)
		} else {
			d.resetTimeoutLocked(existing)
		}
		return changed
	}

	if newMetric < existing.Metric {
		existing.Via = src
		existing.Metric = newMetric
		d.resetTimeoutLocked(existing)
		return true
	}
	return false
}

// applySelfEntry handles an advertisement whose destination is this
// router — the neighbor's rebound view of the direct link back to us, per
// §4.4.2 / §9's note on the route-to-self entry.
func (d *Daemon) applySelfEntry(src RouterID, e Entry) bool {
	if e.NextHop != d.id {
		return false
	}

	existing, ok := d.routes[src]
	if !ok {
		d.addRouteLocked(src, src, e.Metric)
		return true
	}

	if existing.Via == src {
		if e.Metric == Infinity {
			return false
		}
		changed := existing.Metric != e.Metric
		existing.Metric = e.Metric
		d.resetTimeoutLocked(existing)
		return changed
	}

	if e.Metric < existing.Metric {
		existing.Via = src
		existing.Metric = e.Metric
		d.resetTimeoutLocked(existing)
		return true
	}
	return false
}

func addMetric(a, b Metric) Metric {
	sum := int(a) + int(b)
	if sum > int(Infinity) {
		return Infinity
	}
	return Metric(sum)
}

func (d *Daemon) addRouteLocked(via, dest RouterID, metric Metric) {
	d.cancelGCLocked(gcKey{Via: via, Dest: dest})

	r := &Route{Src: d.id, Dest: dest, Via: via, Metric: metric}
	d.armTimeoutLocked(r)
	d.routes[dest] = r
}

func (d *Daemon) armTimeoutLocked(r *Route) {
	r.timer = time.AfterFunc(d.timeoutInterval(), func() { d.handleTimeout(r) })
}

func (d *Daemon) resetTimeoutLocked(r *Route) {
	d.cancelGCLocked(gcKey{Via: r.Via, Dest: r.Dest})
	if r.timer != nil {
		r.timer.Stop()
	}
	d.armTimeoutLocked(r)
}

// poisonLocked applies the side effects of setting a route's metric to
// Infinity: its timeout timer is retired, a triggered update is scheduled, and garbage
// collection begins. Callers are responsible for setting r.Metric.
func (d *Daemon) poisonLocked(r *Route) {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	d.scheduleTriggeredUpdateLocked()
	d.startGCLocked(gcKey{Via: r.Via, Dest: r.Dest})
}

func (d *Daemon) startGCLocked(key gcKey) {
	if _, running := d.gc[key]; running {
		return
	}
	d.gc[key] = time.AfterFunc(d.gcInterval(), func() { d.handleGC(key) })
}

func (d *Daemon) cancelGCLocked(key gcKey) {
	if t, ok := d.gc[key]; ok {
		t.Stop()
		delete(d.gc, key)
	}
}

// handleTimeout fires when a route goes 6*PERIOD without a refresh. It
// re-checks the route's identity under the lock before acting, since the
// timer may have fired just as the route was superseded or removed.
func (d *Daemon) handleTimeout(r *Route) {
	d.mu.Lock()
	current, ok := d.routes[r.Dest]
	if !ok || current != r || current.Metric == Infinity {
		d.mu.Unlock()
		return
	}

	current.Metric = Infinity
	d.poisonLocked(current)
	d.logRoutingTableLocked()
	d.mu.Unlock()
}

// handleGC fires 4*PERIOD after a route was poisoned. It re-checks that
// the garbage-collection entry is still registered (it may have been
// cancelled by a fresh route for the same (via, dest)) before deleting.
func (d *Daemon) handleGC(key gcKey) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.gc[key]; !ok {
		return
	}
	delete(d.gc, key)

	if r, ok := d.routes[key.Dest]; ok && r.Via == key.Via && r.Metric == Infinity {
		delete(d.routes, key.Dest)
		d.metrics.routesCollected.Inc()
		d.logRoutingTableLocked()
	}
}

func (d *Daemon) period() time.Duration {
	return time.Duration(d.periodUnits * float64(d.timeUnit))
}

func (d *Daemon) timeoutInterval() time.Duration {
	return timeoutPeriods * d.period()
}

func (d *Daemon) gcInterval() time.Duration {
	return gcPeriods * d.period()
}

func (d *Daemon) periodicInterval() time.Duration {
	return time.Duration((0.8 + 0.4*rand.Float64()) * float64(d.period()))
}

func (d *Daemon) triggeredInterval() time.Duration {
	return time.Duration(rand.Float64() * 2 * float64(d.timeUnit))
}

func (d *Daemon) schedulePeriodicLocked() {
	if d.periodicTimer != nil {
		d.periodicTimer.Stop()
	}
	d.periodicTimer = time.AfterFunc(d.periodicInterval(), d.periodicFire)
}

func (d *Daemon) periodicFire() {
	d.mu.Lock()
	snapshot := d.snapshotLocked()
	d.schedulePeriodicLocked()
	d.mu.Unlock()

	d.sendAll(snapshot)
}

func (d *Daemon) scheduleTriggeredUpdateLocked() {
	t := time.AfterFunc(d.triggeredInterval(), d.triggeredFire)
	d.triggeredTimers = append(d.triggeredTimers, t)
}

func (d *Daemon) triggeredFire() {
	d.mu.Lock()
	snapshot := d.snapshotLocked()
	d.mu.Unlock()

	d.sendAll(snapshot)
	d.metrics.triggeredUpdates.Inc()
}

// snapshotLocked copies every route by value so it can be serialized after
// the mutex is released without racing concurrent field mutation.
func (d *Daemon) snapshotLocked() []Route {
	snapshot := make([]Route, 0, len(d.routes))
	for _, r := range d.routes {
		snapshot = append(snapshot, *r)
	}
	return snapshot
}

func (d *Daemon) sendAll(snapshot []Route) {
	for _, link := range d.links {
		if err := link.Send(snapshot); err != nil {
			d.log.Warn().Err(err).Uint16("neighbor", uint16(link.NeighborID)).Msg("send failed")
		}
	}
}

// Routes returns a point-in-time copy of the routing table, safe for a
// caller that does not hold d.mu.
func (d *Daemon) Routes() []Route {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

// logRoutingTableLocked reports the current table to both the structured
// logger and the metrics exporter. Called after every pass that changes a
// route and once at startup, per the console/structured reporter.
func (d *Daemon) logRoutingTableLocked() {
	d.metrics.Set(float64(len(d.routes)))

	entries := make([]map[string]interface{}, 0, len(d.routes))
	for _, r := range d.routes {
		entries = append(entries, map[string]interface{}{
			"dest":   r.Dest,
			"via":    r.Via,
			"metric": r.Metric,
		})
	}

	d.log.Info().
		Int("route_count", len(entries)).
		Interface("routes", entries).
		Msg("routing table")
}
