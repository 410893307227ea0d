package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glabrego/busybird-cli/internal/busybird"
	"github.com/glabrego/busybird-cli/internal/storage"
	"github.com/glabrego/busybird-cli/internal/timeline"
)

// fakeServer serves statuses.html and ack.json for a single timeline whose
// statuses are numbered from n down to 1.
type fakeServer struct {
	mu     sync.Mutex
	n      int
	levels func(id int) int
	acked  []string
}

func (s *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/timelines/home/statuses.html":
		q := r.URL.Query()
		count, _ := strconv.Atoi(q.Get("count"))
		top := s.n
		if maxID := q.Get("max_id"); maxID != "" {
			top, _ = strconv.Atoi(maxID)
		}
		var b strings.Builder
		for id := top; id > 0 && id > top-count; id-- {
			fmt.Fprintf(&b, `<li class="bb-status" data-bb-status-level="%d"><span class="bb-status-id">%d</span><div class="bb-status-text">status %d</div></li>`, s.levels(id), id, id)
		}
		_, _ = io.WriteString(w, b.String())
	case "/timelines/home/ack.json":
		body, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.acked = append(s.acked, string(body))
		s.mu.Unlock()
		_, _ = io.WriteString(w, `{"error":null,"count":1}`)
	default:
		http.NotFound(w, r)
	}
}

func TestLoadInitShowsStatusesAboveThreshold(t *testing.T) {
	server := &fakeServer{n: 130, levels: func(id int) int { return id % 3 }}
	ts := httptest.NewServer(server)
	defer ts.Close()

	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "busybird.db"))
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := repo.Init(ctx); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if err := repo.SaveThreshold(ctx, "home", 1); err != nil {
		t.Fatalf("SaveThreshold returned error: %v", err)
	}

	container := timeline.NewContainer(timeline.Options{Height: 20, Width: 80})
	client := busybird.NewClient(ts.URL, ts.Client())
	svc := NewService(client, container, "home", WithPreferenceStore(repo), WithRetrySleep(noSleep), WithLogger(discardLogger{}))

	level, err := svc.RestoreThreshold(ctx)
	if err != nil {
		t.Fatalf("RestoreThreshold returned error: %v", err)
	}
	if level != 1 {
		t.Fatalf("expected restored level 1, got %d", level)
	}

	result, err := svc.LoadInit(ctx)
	if err != nil {
		t.Fatalf("LoadInit returned error: %v", err)
	}
	if len(result.Statuses) != 130 {
		t.Fatalf("expected 130 unacked statuses, got %d", len(result.Statuses))
	}
	if container.Len() != 130 {
		t.Fatalf("expected 130 statuses in container, got %d", container.Len())
	}
	for i, s := range container.Statuses() {
		if container.Visible(i) != (s.Level() >= 1) {
			t.Fatalf("status %s (level %d) has wrong visibility", s.ID, s.Level())
		}
	}
	server.mu.Lock()
	acked := append([]string(nil), server.acked...)
	server.mu.Unlock()
	if len(acked) != 1 || !strings.HasSuffix(acked[0], `"max_id":"1"}`) {
		t.Fatalf("unexpected acks: %v", acked)
	}

	if err := svc.SetThresholdLevel(ctx, 2); err != nil {
		t.Fatalf("SetThresholdLevel returned error: %v", err)
	}
	saved, ok, err := repo.LoadThreshold(ctx, "home")
	if err != nil || !ok || saved != 2 {
		t.Fatalf("expected saved threshold 2, got %d ok=%v err=%v", saved, ok, err)
	}
	total := 0
	for _, p := range container.Placeholders() {
		total += p.Count
	}
	if total != container.Len()-container.VisibleCount() {
		t.Fatalf("placeholders cover %d statuses, want %d", total, container.Len()-container.VisibleCount())
	}
}

func TestIntegration_LoadInitAgainstServer(t *testing.T) {
	if os.Getenv("BUSYBIRD_INTEGRATION") != "1" {
		t.Skip("set BUSYBIRD_INTEGRATION=1 to run integration tests")
	}

	baseURL := os.Getenv("BUSYBIRD_BASE_URL")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:5000"
	}
	name := os.Getenv("BUSYBIRD_TIMELINE")
	if name == "" {
		name = "home"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	client := busybird.NewClient(baseURL, nil)
	if err := client.Confirm(ctx); err != nil {
		t.Skipf("busybird server not reachable: %v", err)
	}

	container := timeline.NewContainer(timeline.Options{Height: 40, Width: 100})
	svc := NewService(client, container, name)
	if _, err := svc.LoadInit(ctx); err != nil {
		t.Fatalf("LoadInit returned error: %v", err)
	}

	before := container.Len()
	if _, err := svc.LoadMore(ctx); err != nil {
		t.Fatalf("LoadMore returned error: %v", err)
	}
	if container.Len() < before {
		t.Fatalf("expected container to grow or stay, got %d < %d", container.Len(), before)
	}
}
