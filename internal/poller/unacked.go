package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/retry"
)

type Logger interface {
	Printf(format string, args ...any)
}

type CountsClient interface {
	UnackedCounts(ctx context.Context, q busybird.UnackedCountsQuery) (map[string]busybird.Counts, error)
}

// Callback receives the latest unacked counts of one timeline.
type Callback func(name string, counts busybird.Counts)

type Registration struct {
	Name          string
	Callback      Callback
	InitialCounts busybird.Counts
}

type Options struct {
	// Level is the count level the server compares against, "total" by default.
	Level  string
	Logger Logger
	Sleep  func(ctx context.Context, d time.Duration) error
}

type registration struct {
	callback Callback
	counts   busybird.Counts
}

// UnackedPoller long-polls unacked counts for a set of timelines. The server
// answers as soon as a count differs from the one sent, so each response
// immediately triggers the next request.
type UnackedPoller struct {
	client CountsClient
	level  string
	logger Logger
	sleep  func(ctx context.Context, d time.Duration) error

	mu        sync.Mutex
	timelines map[string]*registration
	running   bool
	restart   chan struct{}
}

func NewUnackedPoller(client CountsClient, opts Options) (*UnackedPoller, error) {
	level := opts.Level
	if level == "" {
		level = busybird.TotalKey
	}
	if !busybird.ValidLevel(level) {
		return nil, fmt.Errorf("poll level %q must be %q or a number", level, busybird.TotalKey)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &UnackedPoller{
		client:    client,
		level:     level,
		logger:    logger,
		sleep:     opts.Sleep,
		timelines: make(map[string]*registration),
		restart:   make(chan struct{}, 1),
	}, nil
}

// AddTimeline registers a timeline. A running poller restarts its pending
// request so the new timeline is included.
func (p *UnackedPoller) AddTimeline(r Registration) error {
	if r.Name == "" {
		return errors.New("add timeline: name is required")
	}
	if r.Callback == nil {
		return errors.New("add timeline: callback is required")
	}
	counts := busybird.Counts{}
	for k, v := range r.InitialCounts {
		counts[k] = v
	}

	p.mu.Lock()
	p.timelines[r.Name] = &registration{callback: r.Callback, counts: counts}
	running := p.running
	p.mu.Unlock()

	if running {
		select {
		case p.restart <- struct{}{}:
		default:
		}
	}
	return nil
}

func (p *UnackedPoller) Timelines() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.timelines))
	for name := range p.timelines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p *UnackedPoller) query() busybird.UnackedCountsQuery {
	p.mu.Lock()
	defer p.mu.Unlock()
	known := make(map[string]int, len(p.timelines))
	for name, r := range p.timelines {
		known[name] = r.counts.Get(p.level)
	}
	return busybird.UnackedCountsQuery{Level: p.level, Known: known}
}

// Run polls until ctx is cancelled. Failed requests are retried with backoff
// and never end the loop.
func (p *UnackedPoller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("unacked poller is already running")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	policy := retry.Policy{Name: "poll unacked counts", Logger: p.logger, Sleep: p.sleep}
	for {
		if ctx.Err() != nil {
			return nil
		}
		q := p.query()
		call := retry.Start(ctx, policy, func(ctx context.Context) (map[string]busybird.Counts, error) {
			return p.client.UnackedCounts(ctx, q)
		})
		select {
		case <-call.Done():
		case <-p.restart:
			call.Cancel()
			continue
		case <-ctx.Done():
			call.Cancel()
			return nil
		}
		counts, err := call.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Printf("poll unacked counts: %v", err)
			continue
		}
		p.dispatch(counts)
	}
}

// Start runs the poller in the background. The returned function stops it
// and waits for it to exit.
func (p *UnackedPoller) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := p.Run(ctx); err != nil {
			p.logger.Printf("unacked poller: %v", err)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

func (p *UnackedPoller) dispatch(all map[string]busybird.Counts) {
	type delivery struct {
		name     string
		callback Callback
		counts   busybird.Counts
	}
	var deliveries []delivery

	p.mu.Lock()
	for name, counts := range all {
		r, ok := p.timelines[name]
		if !ok {
			continue
		}
		r.counts = counts
		deliveries = append(deliveries, delivery{name: name, callback: r.callback, counts: counts})
	}
	p.mu.Unlock()

	sort.Slice(deliveries, func(i, j int) bool { return deliveries[i].name < deliveries[j].name })
	for _, d := range deliveries {
		d.callback(d.name, d.counts)
	}
}
