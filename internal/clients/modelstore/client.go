package modelstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"time"

	apperr "github.com/KirkDiggler/bot-stage/internal/errors"
	"github.com/KirkDiggler/bot-stage/internal/repositories/blobcache"
)

// DefaultMaxBytes caps a single payload
const DefaultMaxBytes = 64 << 20

type client struct {
	httpClient *http.Client
	maxBytes   int64
	cache      blobcache.Repository
	logger     *slog.Logger
}

// Config configures the fetcher
type Config struct {
	HttpClient *http.Client
	// Timeout applies when HttpClient is nil
	Timeout  time.Duration
	MaxBytes int64
	// Cache, when set, holds remote payloads across loads
	Cache  blobcache.Repository
	Logger *slog.Logger
}

// New creates a fetcher
func New(cfg *Config) (Client, error) {
	if cfg == nil {
		return nil, apperr.InvalidArgument("modelstore config is required")
	}

	httpClient := cfg.HttpClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	maxBytes := cfg.MaxBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &client{
		httpClient: httpClient,
		maxBytes:   maxBytes,
		cache:      cfg.Cache,
		logger:     logger,
	}, nil
}

func (c *client) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if rawURL == "" {
		return nil, apperr.InvalidArgument("model URL is required")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInvalidArgument, "parse model URL")
	}

	switch u.Scheme {
	case "http", "https":
		return c.fetchRemote(ctx, rawURL)
	case "file":
		return c.readFile(u.Path)
	case "":
		return c.readFile(rawURL)
	default:
		return nil, apperr.InvalidArgument(fmt.Sprintf("unsupported model URL scheme %q", u.Scheme))
	}
}

func (c *client) fetchRemote(ctx context.Context, rawURL string) ([]byte, error) {
	key := blobcache.KeyFor(rawURL)

	if c.cache != nil {
		data, err := c.cache.Get(ctx, key)
		if err == nil {
			c.logger.Debug("model cache hit", "url", rawURL, "bytes", len(data))
			return data, nil
		}
		if !apperr.IsNotFound(err) {
			c.logger.Warn("model cache read failed", "url", rawURL, "error", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeInvalidArgument, "build model request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeLoadFailed, "fetch model").WithMeta("url", rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.LoadFailedf("fetch model: unexpected status %d", resp.StatusCode).
			WithMeta("url", rawURL)
	}

	data, err := c.readLimited(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(err, "read model body").WithMeta("url", rawURL)
	}

	if c.cache != nil {
		if err := c.cache.Put(ctx, key, data); err != nil {
			c.logger.Warn("model cache write failed", "url", rawURL, "error", err)
		}
	}

	return data, nil
}

// local files are not cached so edits show up on the next load
func (c *client) readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFoundf("model file %s not found", path)
		}
		return nil, apperr.WrapWithCode(err, apperr.CodeLoadFailed, "open model file")
	}
	defer f.Close()

	return c.readLimited(f)
}

func (c *client) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, c.maxBytes+1))
	if err != nil {
		return nil, apperr.WrapWithCode(err, apperr.CodeLoadFailed, "read model")
	}
	if int64(len(data)) > c.maxBytes {
		return nil, apperr.LoadFailedf("model exceeds %d bytes", c.maxBytes)
	}
	return data, nil
}
