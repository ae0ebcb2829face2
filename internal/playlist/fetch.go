package playlist

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ErrUnavailable means a playlist location produced no content. Callers treat
// it as a playlist with zero entries.
var ErrUnavailable = errors.New("playlist unavailable")

// Fetcher retrieves raw playlist text from HTTP(S) URLs or local paths.
type Fetcher struct {
	client    *http.Client
	fs        afero.Fs
	userAgent string
	timeout   time.Duration
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = client }
}

func WithFs(fs afero.Fs) FetcherOption {
	return func(f *Fetcher) { f.fs = fs }
}

func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithTimeout bounds each remote request. Zero disables the per-request deadline.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.timeout = d }
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client: http.DefaultClient,
		fs:     afero.NewOsFs(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the playlist text at location. Any failure, including a
// non-200 status, is reported as ErrUnavailable wrapping the cause.
func (f *Fetcher) Fetch(ctx context.Context, location string) (string, error) {
	if isRemote(location) {
		return f.fetchRemote(ctx, location)
	}
	data, err := afero.ReadFile(f.fs, location)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, location, err)
	}
	return string(data), nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, location string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, location, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnavailable, location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %s: HTTP %d", ErrUnavailable, location, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %s: read body: %v", ErrUnavailable, location, err)
	}
	return string(body), nil
}

func isRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// ReadLocations reads a list of playlist locations, one per line. Blank lines
// and lines starting with # are ignored.
func ReadLocations(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist list: %w", err)
	}

	var locations []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		locations = append(locations, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan playlist list: %w", err)
	}
	return locations, nil
}
