package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"
	"unicode/utf8"
)

// Fetcher retrieves sketch text by reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (string, error)
}

var (
	// ErrNotText is returned when a resource body is not valid UTF-8 text.
	ErrNotText = errors.New("resource is not text")
	// ErrTooLarge is returned when a resource exceeds the size cap.
	ErrTooLarge = errors.New("resource exceeds size limit")
	// ErrOutsideBank is returned for local references escaping the bank.
	ErrOutsideBank = errors.New("reference escapes the sketch bank")
)

// Default fetch limits.
const (
	DefaultFetchTimeout = 10 * time.Second
	DefaultMaxBytes     = 2 << 20
)

// FetchConfig configures a ResourceFetcher.
type FetchConfig struct {
	// BankDir resolves references without an http(s) scheme.
	BankDir  string
	Timeout  time.Duration
	MaxBytes int64
	Client   *http.Client
}

// ResourceFetcher fetches http(s) URLs over the network and everything else
// from the sketch bank directory.
type ResourceFetcher struct {
	client   *http.Client
	bank     fs.FS
	maxBytes int64
}

// NewFetcher creates a ResourceFetcher, applying default limits for zero values.
func NewFetcher(cfg FetchConfig) *ResourceFetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	var bank fs.FS
	if cfg.BankDir != "" {
		bank = os.DirFS(cfg.BankDir)
	}

	return &ResourceFetcher{
		client:   client,
		bank:     bank,
		maxBytes: cfg.MaxBytes,
	}
}

// Fetch returns the text of the referenced resource.
func (f *ResourceFetcher) Fetch(ctx context.Context, ref string) (string, error) {
	if u, err := url.Parse(ref); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return f.fetchHTTP(ctx, u.String())
	}
	return f.fetchBank(ref)
}

func (f *ResourceFetcher) fetchHTTP(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("failed to fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	return f.readText(resp.Body)
}

func (f *ResourceFetcher) fetchBank(ref string) (string, error) {
	if f.bank == nil {
		return "", fmt.Errorf("no sketch bank configured for %q", ref)
	}

	name := strings.TrimPrefix(path.Clean(strings.ReplaceAll(ref, "\\", "/")), "./")
	if !fs.ValidPath(name) || name == "." {
		return "", fmt.Errorf("%w: %s", ErrOutsideBank, ref)
	}

	file, err := f.bank.Open(name)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", ref, err)
	}
	defer func() { _ = file.Close() }()

	return f.readText(file)
}

func (f *ResourceFetcher) readText(r io.Reader) (string, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read resource: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return "", ErrTooLarge
	}
	if !utf8.Valid(body) {
		return "", ErrNotText
	}
	return string(body), nil
}
