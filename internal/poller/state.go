package poller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/glabrego/busybird-cli/internal/retry"
)

const initialBase = "_"

type StateClient interface {
	State(ctx context.Context, bases map[string]string) (map[string]json.RawMessage, error)
}

// Consumer handles a new value of a state element and returns the base to
// send with the next request.
type Consumer func(raw json.RawMessage) (string, error)

type element struct {
	base    string
	consume Consumer
	enabled bool
}

// StatePoller long-polls state.json for a set of named elements.
type StatePoller struct {
	client StateClient
	logger Logger
	sleep  func(ctx context.Context, d time.Duration) error

	mu       sync.Mutex
	elements map[string]*element
	running  bool
	restart  chan struct{}
}

func NewStatePoller(client StateClient, opts Options) *StatePoller {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &StatePoller{
		client:   client,
		logger:   logger,
		sleep:    opts.Sleep,
		elements: make(map[string]*element),
		restart:  make(chan struct{}, 1),
	}
}

func (p *StatePoller) Add(name string, consume Consumer) error {
	if name == "" || consume == nil {
		return errors.New("add state element: name and consumer are required")
	}
	p.mu.Lock()
	p.elements[name] = &element{base: initialBase, consume: consume, enabled: true}
	running := p.running
	p.mu.Unlock()
	if running {
		p.kick()
	}
	return nil
}

// SetEnabled includes or excludes an element from subsequent requests.
func (p *StatePoller) SetEnabled(name string, enabled bool) {
	p.mu.Lock()
	e, ok := p.elements[name]
	if ok {
		e.enabled = enabled
	}
	running := p.running
	p.mu.Unlock()
	if ok && running {
		p.kick()
	}
}

func (p *StatePoller) kick() {
	select {
	case p.restart <- struct{}{}:
	default:
	}
}

func (p *StatePoller) bases() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.elements))
	for name, e := range p.elements {
		if e.enabled {
			out[name] = e.base
		}
	}
	return out
}

func (p *StatePoller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return errors.New("state poller is already running")
	}
	p.running = true
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	policy := retry.Policy{Name: "poll state", Logger: p.logger, Sleep: p.sleep}
	for {
		if ctx.Err() != nil {
			return nil
		}
		bases := p.bases()
		call := retry.Start(ctx, policy, func(ctx context.Context) (map[string]json.RawMessage, error) {
			return p.client.State(ctx, bases)
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
		state, err := call.Wait(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Printf("poll state: %v", err)
			continue
		}
		p.consume(state)
	}
}

func (p *StatePoller) consume(state map[string]json.RawMessage) {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.mu.Lock()
		e, ok := p.elements[name]
		p.mu.Unlock()
		if !ok {
			continue
		}
		next, err := e.consume(state[name])
		if err != nil {
			p.logger.Printf("consume state %s: %v", name, err)
			continue
		}
		if next == "" {
			continue
		}
		p.mu.Lock()
		e.base = next
		p.mu.Unlock()
	}
}
