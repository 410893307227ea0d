package busybird

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

const (
	AckStateAny     = "any"
	AckStateUnacked = "unacked"
	AckStateAcked   = "acked"
)

type Format int

const (
	FormatHTML Format = iota
	FormatJSON
)

type StatusQuery struct {
	AckState string
	Count    int
	MaxID    string
	Format   Format
}

type AckRequest struct {
	IDs   []string `json:"ids"`
	MaxID string   `json:"max_id,omitempty"`
}

type UnackedCountsQuery struct {
	// Level is "total" or a status level number.
	Level string
	// Known maps a timeline name to the count the caller already has at Level.
	Known map[string]int
}

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// FetchStatuses loads one page of statuses in the format selected by q.
func (c *Client) FetchStatuses(ctx context.Context, timeline string, q StatusQuery) ([]Status, error) {
	if q.Format == FormatJSON {
		return c.ListStatuses(ctx, timeline, q)
	}
	return c.ListStatusesHTML(ctx, timeline, q)
}

func (c *Client) ListStatusesHTML(ctx context.Context, timeline string, q StatusQuery) ([]Status, error) {
	path, err := statusesPath(timeline, "statuses.html", q)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	body, err := c.do(req, "list statuses")
	if err != nil {
		return nil, err
	}
	statuses, err := ParseStatusesHTML(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	return statuses, nil
}

func (c *Client) ListStatuses(ctx context.Context, timeline string, q StatusQuery) ([]Status, error) {
	path, err := statusesPath(timeline, "statuses.json", q)
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, "list statuses")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Error    *string  `json:"error"`
		Statuses []Status `json:"statuses"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode statuses response: %w", err)
	}
	if payload.Error != nil {
		return nil, &APIError{Op: "list statuses", Message: *payload.Error}
	}
	return payload.Statuses, nil
}

func (c *Client) AckStatuses(ctx context.Context, timeline string, ack AckRequest) error {
	if timeline == "" {
		return fmt.Errorf("ack statuses: timeline is required: %w", ErrInvalidArgument)
	}
	if ack.IDs == nil {
		ack.IDs = []string{}
	}
	payload, err := sonic.Marshal(ack)
	if err != nil {
		return fmt.Errorf("encode ack request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/timelines/"+url.PathEscape(timeline)+"/ack.json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := c.do(req, "ack statuses")
	if err != nil {
		return err
	}
	return checkAPIError(body, "ack statuses")
}

func (c *Client) UnackedCounts(ctx context.Context, q UnackedCountsQuery) (map[string]Counts, error) {
	level := q.Level
	if level == "" {
		level = TotalKey
	}
	if !ValidLevel(level) {
		return nil, fmt.Errorf("unacked counts: level %q: %w", level, ErrInvalidArgument)
	}
	values := make(url.Values)
	values.Set("level", level)
	for name, count := range q.Known {
		values.Set("tl_"+name, strconv.Itoa(count))
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/updates/unacked_counts.json?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, "unacked counts")
	if err != nil {
		return nil, err
	}
	var payload struct {
		Error         *string           `json:"error"`
		UnackedCounts map[string]Counts `json:"unacked_counts"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode unacked counts response: %w", err)
	}
	if payload.Error != nil {
		return nil, &APIError{Op: "unacked counts", Message: *payload.Error}
	}
	return payload.UnackedCounts, nil
}

// State long-polls state.json. bases maps element names to the value the
// caller last saw; the response holds the new value of each changed element.
func (c *Client) State(ctx context.Context, bases map[string]string) (map[string]json.RawMessage, error) {
	values := make(url.Values)
	names := make([]string, 0, len(bases))
	for name := range bases {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values.Set(name, bases[name])
	}
	req, err := c.newRequest(ctx, http.MethodGet, "/state.json?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, "poll state")
	if err != nil {
		return nil, err
	}
	var payload map[string]json.RawMessage
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode state response: %w", err)
	}
	return payload, nil
}

// Confirm checks that the server is a reachable BusyBird instance.
func (c *Client) Confirm(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, "/confirm.json", nil)
	if err != nil {
		return err
	}
	body, err := c.do(req, "confirm")
	if err != nil {
		return err
	}
	return checkAPIError(body, "confirm")
}

func (c *Client) do(req *http.Request, op string) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &HTTPError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", op, err)
	}
	return body, nil
}

func checkAPIError(body []byte, op string) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	var payload struct {
		Error *string `json:"error"`
	}
	if err := sonic.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	if payload.Error != nil {
		return &APIError{Op: op, Message: *payload.Error}
	}
	return nil
}

func statusesPath(timeline, file string, q StatusQuery) (string, error) {
	if timeline == "" {
		return "", fmt.Errorf("list statuses: timeline is required: %w", ErrInvalidArgument)
	}
	if q.Count < 0 {
		return "", fmt.Errorf("list statuses: count must be positive, got %d: %w", q.Count, ErrInvalidArgument)
	}
	values := make(url.Values)
	ackState := q.AckState
	if ackState == "" {
		ackState = AckStateAny
	}
	values.Set("ack_state", ackState)
	if q.Count > 0 {
		values.Set("count", strconv.Itoa(q.Count))
	}
	if q.MaxID != "" {
		values.Set("max_id", q.MaxID)
	}
	return "/timelines/" + url.PathEscape(timeline) + "/" + file + "?" + values.Encode(), nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	fullURL := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}
