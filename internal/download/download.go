package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"stitchfetch/internal/fileutil"
	"stitchfetch/internal/logging"
)

// DefaultMaxRedirects bounds the redirect chain followed for one artifact.
const DefaultMaxRedirects = 10

// Result describes a completed artifact download.
type Result struct {
	URL         string
	FinalURL    string
	Path        string
	StatusCode  int
	ContentType string
	Bytes       int64
	SHA256      string
	Redirects   int
	Duration    time.Duration
}

// Downloader streams artifacts to local files, following 301/302 redirects
// itself so the hop limit and the status policy stay explicit.
type Downloader struct {
	client       *http.Client
	maxRedirects int
	strictStatus bool
	timeout      time.Duration
	logger       *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the default HTTP client. Its redirect policy is
// replaced so redirects reach the download loop.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithMaxRedirects sets the redirect hop limit.
func WithMaxRedirects(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.maxRedirects = n
		}
	}
}

// WithStrictStatus controls whether non-2xx final responses fail the download.
func WithStrictStatus(strict bool) Option {
	return func(d *Downloader) {
		d.strictStatus = strict
	}
}

// WithTimeout bounds each artifact download, redirects included.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

// WithLogger sets the logger used for redirect and transfer diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a Downloader. Strict status handling is on by default.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		client:       &http.Client{},
		maxRedirects: DefaultMaxRedirects,
		strictStatus: true,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	client := *d.client
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	d.client = &client
	return d
}

// Download fetches rawURL into dest, creating or truncating the file first.
// On any failure the destination is removed so no truncated or error payload
// is left behind under the artifact's name.
func (d *Downloader) Download(ctx context.Context, rawURL, dest string) (Result, error) {
	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	start := time.Now()
	file, err := fileutil.Create(dest)
	if err != nil {
		return Result{}, fmt.Errorf("open destination: %w", err)
	}

	result, err := d.fetch(ctx, rawURL, file)
	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close destination: %w", closeErr)
	}
	if err != nil {
		if !fileutil.RemoveQuietly(dest) {
			d.logger.Debug("partial artifact left on disk", logging.String("path", dest))
		}
		return Result{}, err
	}

	result.Path = dest
	result.Duration = time.Since(start)
	return result, nil
}

func (d *Downloader) fetch(ctx context.Context, rawURL string, dst io.Writer) (Result, error) {
	result := Result{URL: rawURL}
	current := rawURL
	for {
		resp, err := d.get(ctx, current)
		if err != nil {
			return Result{}, err
		}

		if isFollowedRedirect(resp.StatusCode) {
			next, err := redirectTarget(resp)
			drainAndClose(resp)
			if err != nil {
				return Result{}, err
			}
			if result.Redirects >= d.maxRedirects {
				return Result{}, fmt.Errorf("%w: more than %d hops starting at %s", ErrTooManyRedirects, d.maxRedirects, displayURL(rawURL))
			}
			result.Redirects++
			d.logger.Debug("following redirect",
				logging.Int("status", resp.StatusCode),
				logging.Int("hop", result.Redirects),
				logging.String("location", displayURL(next)),
			)
			current = next
			continue
		}

		defer resp.Body.Close()
		result.FinalURL = current
		result.StatusCode = resp.StatusCode
		result.ContentType = resp.Header.Get("Content-Type")

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			if d.strictStatus {
				return Result{}, &UnexpectedStatusError{StatusCode: resp.StatusCode, URL: displayURL(current)}
			}
			d.logger.Debug("saving non-2xx response body as artifact", logging.Int("status", resp.StatusCode))
		}

		written, sum, err := fileutil.CopyHashed(dst, resp.Body)
		if err != nil {
			return Result{}, fmt.Errorf("stream body after %d bytes: %w", written, err)
		}
		result.Bytes = written
		result.SHA256 = sum
		return result, nil
	}
}

func (d *Downloader) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", displayURL(rawURL), err)
	}
	return resp, nil
}

// Only 301 and 302 are followed; other 3xx codes are final responses.
func isFollowedRedirect(status int) bool {
	return status == http.StatusMovedPermanently || status == http.StatusFound
}

func redirectTarget(resp *http.Response) (string, error) {
	location := strings.TrimSpace(resp.Header.Get("Location"))
	if location == "" {
		return "", fmt.Errorf("%w: %d response without Location header", ErrBadRedirect, resp.StatusCode)
	}
	target, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("%w: parse location %q: %v", ErrBadRedirect, location, err)
	}
	if resp.Request != nil && resp.Request.URL != nil {
		target = resp.Request.URL.ResolveReference(target)
	}
	return target.String(), nil
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}

// displayURL drops the query string, which for signed download links carries
// credentials that should not reach logs.
func displayURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.Redacted()
}

// IsStatusError reports whether err came from a non-2xx final response.
func IsStatusError(err error) bool {
	var statusErr *UnexpectedStatusError
	return errors.As(err, &statusErr)
}
