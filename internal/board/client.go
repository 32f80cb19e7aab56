package board

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"parley/internal/domain"
)

// Client is a thin JSON-over-HTTP board client.
type Client struct {
	base string
	http *http.Client
}

// NewClient builds a client for the board at base. A nil httpClient falls
// back to http.DefaultClient.
func NewClient(base string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{base: base, http: httpClient}
}

type announcementsPage struct {
	Next          int64    `json:"next"`
	Announcements [][]byte `json:"announcements"`
}

type seekerSet struct {
	Seekers [][]byte `json:"seekers"`
}

type entryPage struct {
	Entries []domain.BoardEntry `json:"entries"`
}

// PostAnnouncement publishes announcement bytes to the public feed.
func (c *Client) PostAnnouncement(ctx context.Context, wire []byte) error {
	return c.post(ctx, "/announcements", struct {
		Blob []byte `json:"blob"`
	}{Blob: wire}, nil)
}

// FetchAnnouncements returns announcements after cursor since and the
// cursor to resume from.
func (c *Client) FetchAnnouncements(ctx context.Context, since int64) ([][]byte, int64, error) {
	var page announcementsPage
	if err := c.getJSON(ctx, fmt.Sprintf("/announcements?since=%d", since), &page); err != nil {
		return nil, since, err
	}
	return page.Announcements, page.Next, nil
}

// PostEntry files a ciphertext under its seeker.
func (c *Client) PostEntry(ctx context.Context, post domain.BoardPost) error {
	return c.post(ctx, "/entries", post, nil)
}

// FetchEntries returns the entries present for any of the given seekers.
func (c *Client) FetchEntries(ctx context.Context, seekers [][]byte) ([]domain.BoardEntry, error) {
	if len(seekers) == 0 {
		return nil, nil
	}
	var page entryPage
	if err := c.post(ctx, "/entries/fetch", seekerSet{Seekers: seekers}, &page); err != nil {
		return nil, err
	}
	return page.Entries, nil
}

// ReleaseEntries deletes consumed entries from the board.
func (c *Client) ReleaseEntries(ctx context.Context, seekers [][]byte) error {
	if len(seekers) == 0 {
		return nil
	}
	return c.post(ctx, "/entries/release", seekerSet{Seekers: seekers}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("board post %s: %s", path, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("board get %s: %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

var _ domain.BoardClient = (*Client)(nil)
