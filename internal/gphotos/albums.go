package gphotos

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
)

// Album is a server-side collection of media items. Identity is the
// server-assigned ID; Title is matched case-insensitively when
// deduplicating.
type Album struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// albumPager walks the paginated album listing one page at a time,
// carrying the continuation token as explicit state. Pages are fetched
// on demand so a match on an early page stops the listing.
type albumPager struct {
	c         *Client
	pageToken string
	done      bool
}

// next returns the next page of albums, or nil once the listing is
// exhausted. Only app-created albums are requested.
func (p *albumPager) next(ctx context.Context) ([]Album, error) {
	if p.done {
		return nil, nil
	}
	if err := p.c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("excludeNonAppCreatedData", "true")
	if p.pageToken != "" {
		params.Set("pageToken", p.pageToken)
	}
	resp, err := p.c.session.Get(ctx, "/albums", params)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse("list albums", resp); err != nil {
		return nil, err
	}

	var page struct {
		Albums        []Album `json:"albums"`
		NextPageToken string  `json:"nextPageToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode albums page: %w", err)
	}

	p.pageToken = page.NextPageToken
	if p.pageToken == "" {
		p.done = true
	}
	if len(page.Albums) == 0 {
		if p.done {
			return nil, nil
		}
		// An empty page with a continuation token is not the end.
		return []Album{}, nil
	}
	return page.Albums, nil
}

// ResolveAlbum returns the id of the app-created album with the given
// title, matching case-insensitively, or creates the album if no match
// exists. Creation is a side effect callers must expect. Each title is
// resolved at most once per run; later calls return the memoized id.
//
// Failures during listing or creation are reported as *AlbumError. A
// create response without an id yields an *AlbumError wrapping
// ErrAlbumUnresolved.
func (c *Client) ResolveAlbum(ctx context.Context, title string) (string, error) {
	if id, ok := c.albumIDs[strings.ToLower(title)]; ok {
		return id, nil
	}

	pager := &albumPager{c: c}
	for {
		albums, err := pager.next(ctx)
		if err != nil {
			return "", &AlbumError{Title: title, Err: err}
		}
		if albums == nil {
			break
		}
		for _, album := range albums {
			if strings.EqualFold(album.Title, title) {
				c.logger.Info("Uploading into existing album",
					slog.String("album", title))
				c.albumIDs[strings.ToLower(title)] = album.ID
				return album.ID, nil
			}
		}
	}

	// No match on any page, create a new album with the exact title.
	id, err := c.createAlbum(ctx, title)
	if err != nil {
		return "", &AlbumError{Title: title, Err: err}
	}
	if id == "" {
		c.logger.Error("Album create response carried no id",
			slog.String("album", title))
		return "", &AlbumError{Title: title, Err: ErrAlbumUnresolved}
	}
	c.logger.Info("Uploading into new album",
		slog.String("album", title))
	c.albumIDs[strings.ToLower(title)] = id
	return id, nil
}

func (c *Client) createAlbum(ctx context.Context, title string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	reqBody := struct {
		Album struct {
			Title string `json:"title"`
		} `json:"album"`
	}{}
	reqBody.Album.Title = title

	resp, err := c.session.PostJSON(ctx, "/albums", reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to create album: %w", err)
	}
	defer resp.Body.Close()
	if err := checkResponse("create album", resp); err != nil {
		return "", err
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("failed to decode create album response: %w", err)
	}
	return created.ID, nil
}
