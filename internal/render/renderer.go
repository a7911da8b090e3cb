package render

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-resty/resty/v2"
)

// Renderer turns a URL into the text of the page behind it.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// RendererFunc adapts a function to the Renderer interface.
type RendererFunc func(ctx context.Context, url string) (string, error)

func (f RendererFunc) Render(ctx context.Context, url string) (string, error) {
	return f(ctx, url)
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// detectChromePath detects the path to Chrome/Chromium executable.
// Checks CHROME_PATH env var first, then common installation paths.
func detectChromePath() string {
	if chromePath := os.Getenv("CHROME_PATH"); chromePath != "" {
		if _, err := os.Stat(chromePath); err == nil {
			return chromePath
		}
	}

	paths := []string{
		"/usr/bin/chromium",
		"/usr/bin/chromium-browser",
		"/usr/bin/google-chrome",
		"/usr/bin/google-chrome-stable",
		"/snap/bin/chromium",
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// ChromeRenderer renders pages in a headless browser so that prices
// injected by client-side scripts are present in the returned document.
// One browser serves the whole run; tabs are reused across Render calls.
type ChromeRenderer struct {
	browserCtx context.Context
	cancels    []context.CancelFunc
}

// settleDelay gives page scripts time to inject prices after the document
// is ready. WaitReady alone fires before they run.
const settleDelay = 500 * time.Millisecond

// NewChromeRenderer prepares a headless browser bound to ctx. The browser
// process starts lazily on the first Render and dies when ctx is canceled
// or Close is called.
func NewChromeRenderer(ctx context.Context) *ChromeRenderer {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox, // Required for running in Docker/containers
	)
	if chromePath := detectChromePath(); chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)

	return &ChromeRenderer{
		browserCtx: browserCtx,
		cancels:    []context.CancelFunc{cancelBrowser, cancelAlloc},
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var html string
	err := chromedp.Run(r.browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}
	return html, nil
}

// Close shuts the browser down. Safe to call more than once.
func (r *ChromeRenderer) Close() {
	for _, cancel := range r.cancels {
		cancel()
	}
}

// HTTPRenderer fetches pages over plain HTTP without executing scripts.
// Suitable for sources that serve prices in static markup, and for tests.
type HTTPRenderer struct {
	http *resty.Client
}

func NewHTTPRenderer(timeout time.Duration) *HTTPRenderer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("user-agent", userAgent)

	return &HTTPRenderer{http: client}
}

func (r *HTTPRenderer) Render(ctx context.Context, url string) (string, error) {
	resp, err := r.http.R().SetContext(ctx).Get(url)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("fetching %s: status %d", url, resp.StatusCode())
	}
	return resp.String(), nil
}
