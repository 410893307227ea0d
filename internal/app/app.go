package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/retry"
)

const (
	DefaultCountPerPage = 100
	DefaultMaxPageNum   = 6
	LoadMoreCount       = 20
	loadStatusesTryMax  = 3
	ackTryMax           = 3
)

var ErrInvalidArgument = errors.New("invalid argument")

type StatusClient interface {
	FetchStatuses(ctx context.Context, timeline string, q busybird.StatusQuery) ([]busybird.Status, error)
	AckStatuses(ctx context.Context, timeline string, ack busybird.AckRequest) error
}

// Container is the ordered status list shown to the user.
type Container interface {
	Prepend(ctx context.Context, statuses []busybird.Status) error
	Append(ctx context.Context, statuses []busybird.Status) error
	SetThreshold(ctx context.Context, level int) error
	Threshold() int
}

type PreferenceStore interface {
	SaveThreshold(ctx context.Context, timeline string, level int) error
	LoadThreshold(ctx context.Context, timeline string) (int, bool, error)
}

type Logger interface {
	Printf(format string, args ...any)
}

type Option func(*Service)

func WithFormat(format busybird.Format) Option {
	return func(s *Service) { s.format = format }
}

func WithPreferenceStore(prefs PreferenceStore) Option {
	return func(s *Service) { s.prefs = prefs }
}

func WithLogger(logger Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithRetrySleep replaces the wait between retried requests.
func WithRetrySleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) { s.sleep = sleep }
}

type Service struct {
	client    StatusClient
	container Container
	timeline  string
	format    busybird.Format
	prefs     PreferenceStore
	logger    Logger
	sleep     func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	lastLoadedID string
}

func NewService(client StatusClient, container Container, timeline string, opts ...Option) *Service {
	s := &Service{
		client:    client,
		container: container,
		timeline:  timeline,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type PageRequest struct {
	AckState     string
	CountPerPage int
	StartMaxID   string
	MaxPageNum   int
}

type PageResult struct {
	Statuses []busybird.Status
	// MoreAvailable is set when the last page was full, so older statuses may exist.
	MoreAvailable bool
	RequestCount  int
}

type LoadResult struct {
	Statuses      []busybird.Status
	MoreAvailable bool
}

func (s *Service) Timeline() string {
	return s.timeline
}

// LastLoadedID is the id of the oldest status loaded so far, used as the
// starting point of the next LoadMore.
func (s *Service) LastLoadedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastLoadedID
}

func (s *Service) policy(name string, attempts int) retry.Policy {
	return retry.Policy{
		Name:        name,
		MaxAttempts: attempts,
		Retryable:   busybird.IsRetryable,
		Sleep:       s.sleep,
		Logger:      s.logger,
	}
}

// LoadPage fetches up to MaxPageNum consecutive pages, each starting at the
// last id of the previous one. A page shorter than CountPerPage ends the walk.
func (s *Service) LoadPage(ctx context.Context, req PageRequest) (PageResult, error) {
	if s.timeline == "" {
		return PageResult{}, fmt.Errorf("load statuses: timeline is required: %w", ErrInvalidArgument)
	}
	maxPages := req.MaxPageNum
	if maxPages == 0 {
		maxPages = DefaultMaxPageNum
	}
	if maxPages < 0 {
		return PageResult{}, fmt.Errorf("load statuses: max page num must be greater than 0, got %d: %w", maxPages, ErrInvalidArgument)
	}
	count := req.CountPerPage
	if count == 0 {
		count = DefaultCountPerPage
	}
	if count < 0 {
		return PageResult{}, fmt.Errorf("load statuses: count per page must be greater than 0, got %d: %w", count, ErrInvalidArgument)
	}
	ackState := req.AckState
	if ackState == "" {
		ackState = busybird.AckStateAny
	}

	query := busybird.StatusQuery{AckState: ackState, Count: count, MaxID: req.StartMaxID, Format: s.format}
	var (
		loaded   []busybird.Status
		lastID   string
		requests int
	)
	for {
		page, err := retry.Do(ctx, s.policy("load statuses", loadStatusesTryMax), func(ctx context.Context) ([]busybird.Status, error) {
			return s.client.FetchStatuses(ctx, s.timeline, query)
		})
		if err != nil {
			return PageResult{}, fmt.Errorf("fetch statuses from busybird: %w", err)
		}
		requests++
		exhausted := len(page) < count
		if lastID != "" && len(page) > 0 && page[0].ID == lastID {
			page = page[1:]
		}
		loaded = append(loaded, page...)
		if exhausted || requests >= maxPages {
			return PageResult{Statuses: loaded, MoreAvailable: !exhausted, RequestCount: requests}, nil
		}
		if len(page) > 0 {
			lastID = page[len(page)-1].ID
		}
		query.MaxID = lastID
	}
}

// LoadUnacked loads unacked statuses, acknowledges them and puts them on top.
func (s *Service) LoadUnacked(ctx context.Context) (LoadResult, error) {
	result, err := s.LoadPage(ctx, PageRequest{AckState: busybird.AckStateUnacked})
	if err != nil {
		return LoadResult{}, err
	}
	if err := s.Acknowledge(ctx, result.Statuses, true); err != nil {
		return LoadResult{}, err
	}
	if err := s.container.Prepend(ctx, result.Statuses); err != nil {
		return LoadResult{}, fmt.Errorf("show unacked statuses: %w", err)
	}
	if len(result.Statuses) > 0 {
		s.mu.Lock()
		if s.lastLoadedID == "" {
			s.lastLoadedID = result.Statuses[len(result.Statuses)-1].ID
		}
		s.mu.Unlock()
	}
	return LoadResult{Statuses: result.Statuses, MoreAvailable: result.MoreAvailable}, nil
}

// LoadMore appends the statuses older than the last loaded one.
func (s *Service) LoadMore(ctx context.Context) (LoadResult, error) {
	start := s.LastLoadedID()
	result, err := s.LoadPage(ctx, PageRequest{
		AckState:     busybird.AckStateAny,
		CountPerPage: LoadMoreCount,
		StartMaxID:   start,
		MaxPageNum:   1,
	})
	if err != nil {
		return LoadResult{}, err
	}
	statuses := result.Statuses
	if start != "" && len(statuses) > 0 && statuses[0].ID == start {
		statuses = statuses[1:]
	}
	if err := s.container.Append(ctx, statuses); err != nil {
		return LoadResult{}, fmt.Errorf("show older statuses: %w", err)
	}
	if len(statuses) > 0 {
		s.mu.Lock()
		s.lastLoadedID = statuses[len(statuses)-1].ID
		s.mu.Unlock()
	}
	return LoadResult{Statuses: statuses, MoreAvailable: result.MoreAvailable}, nil
}

// LoadInit loads unacked statuses and, when the server has more than the
// first pages held, one batch of older ones.
func (s *Service) LoadInit(ctx context.Context) (LoadResult, error) {
	result, err := s.LoadUnacked(ctx)
	if err != nil {
		return LoadResult{}, err
	}
	if result.MoreAvailable {
		if _, err := s.LoadMore(ctx); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Acknowledge marks statuses as read on the server. With setMaxID the last
// status id is sent as max_id too.
func (s *Service) Acknowledge(ctx context.Context, statuses []busybird.Status, setMaxID bool) error {
	if len(statuses) == 0 {
		return nil
	}
	ack := busybird.AckRequest{IDs: make([]string, 0, len(statuses))}
	for _, st := range statuses {
		ack.IDs = append(ack.IDs, st.ID)
	}
	if setMaxID {
		ack.MaxID = statuses[len(statuses)-1].ID
	}
	_, err := retry.Do(ctx, s.policy("ack statuses", ackTryMax), func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.client.AckStatuses(ctx, s.timeline, ack)
	})
	if err != nil {
		return fmt.Errorf("ack statuses on busybird: %w", err)
	}
	return nil
}

func (s *Service) ThresholdLevel() int {
	return s.container.Threshold()
}

// SetThresholdLevel changes the display threshold and remembers it for the timeline.
func (s *Service) SetThresholdLevel(ctx context.Context, level int) error {
	if err := s.container.SetThreshold(ctx, level); err != nil {
		return fmt.Errorf("set threshold level: %w", err)
	}
	if s.prefs == nil {
		return nil
	}
	if err := s.prefs.SaveThreshold(ctx, s.timeline, level); err != nil {
		s.logger.Printf("save threshold for %s: %v", s.timeline, err)
	}
	return nil
}

// RestoreThreshold applies the threshold saved for the timeline, if any.
func (s *Service) RestoreThreshold(ctx context.Context) (int, error) {
	if s.prefs == nil {
		return s.container.Threshold(), nil
	}
	level, ok, err := s.prefs.LoadThreshold(ctx, s.timeline)
	if err != nil {
		return 0, fmt.Errorf("load threshold from cache: %w", err)
	}
	if !ok {
		return s.container.Threshold(), nil
	}
	if err := s.container.SetThreshold(ctx, level); err != nil {
		return 0, fmt.Errorf("set threshold level: %w", err)
	}
	return level, nil
}
