package render

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// Client caches rendered pages by URL. An inventory routinely lists the
// same card more than once; the second lookup must not hit the site again.
type Client struct {
	renderer   Renderer
	pageCache  sync.Map
	fetchCount int64
	fetchMutex sync.Mutex
}

func NewClient(renderer Renderer) *Client {
	return &Client{renderer: renderer}
}

// incrementFetch safely increments the remote fetch counter
func (c *Client) incrementFetch() {
	c.fetchMutex.Lock()
	c.fetchCount++
	c.fetchMutex.Unlock()
}

// GetFetchCount returns how many renders went to the remote site.
func (c *Client) GetFetchCount() int64 {
	c.fetchMutex.Lock()
	defer c.fetchMutex.Unlock()
	return c.fetchCount
}

// ResetFetchCount resets the remote fetch counter to zero.
func (c *Client) ResetFetchCount() {
	c.fetchMutex.Lock()
	c.fetchCount = 0
	c.fetchMutex.Unlock()
}

// GetPage returns the rendered text of the page at url, fetching it at
// most once per Client lifetime. Render failures are not cached.
func (c *Client) GetPage(ctx context.Context, url string) (string, error) {
	if cached, ok := c.pageCache.Load(url); ok {
		log.Debug().Str("url", url).Msg("Page cache hit")
		return cached.(string), nil
	}

	c.incrementFetch()

	log.Debug().Str("url", url).Msg("Rendering page")
	text, err := c.renderer.Render(ctx, url)
	if err != nil {
		return "", err
	}

	c.pageCache.Store(url, text)
	return text, nil
}
