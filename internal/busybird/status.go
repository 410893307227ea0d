package busybird

import (
	"bytes"
	"encoding/json"

	"github.com/bytedance/sonic"
)

// Status is the subset of BusyBird status fields required by the viewer.
type Status struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	CreatedAt string   `json:"created_at"`
	User      User     `json:"user"`
	Entities  Entities `json:"entities"`
	BusyBird  Meta     `json:"busybird"`

	// HTML is the server-rendered fragment when the status came from statuses.html.
	HTML string `json:"-"`
}

type User struct {
	ScreenName      string `json:"screen_name"`
	ProfileImageURL string `json:"profile_image_url"`
}

type Entities struct {
	URLs []URLEntity `json:"urls"`
}

type URLEntity struct {
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url"`
}

type Meta struct {
	Level           int    `json:"level"`
	IsNew           bool   `json:"is_new"`
	StatusPermalink string `json:"status_permalink,omitempty"`
}

func (s Status) Level() int {
	return s.BusyBird.Level
}

func (s Status) Permalink() string {
	return s.BusyBird.StatusPermalink
}

// UnmarshalJSON accepts both numeric and string ids.
func (s *Status) UnmarshalJSON(data []byte) error {
	type plain Status
	aux := struct {
		ID json.RawMessage `json:"id"`
		*plain
	}{plain: (*plain)(s)}
	if err := sonic.Unmarshal(data, &aux); err != nil {
		return err
	}
	id, err := normalizeID(aux.ID)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

func normalizeID(raw []byte) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var id string
		if err := sonic.Unmarshal(raw, &id); err != nil {
			return "", err
		}
		return id, nil
	}
	return string(raw), nil
}
