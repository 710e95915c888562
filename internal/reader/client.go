package reader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// maxDocumentBytes caps a single fetched document.
const maxDocumentBytes = 256 << 20

// Client reads catalog documents.
type Client struct {
	hc     *http.Client
	strict bool
	logger log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client, which also serves file:// URLs.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithStrict enables the byte-exact round trip check on every read.
func WithStrict(strict bool) Option {
	return func(c *Client) { c.strict = strict }
}

// WithTimeout sets the timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.hc.Timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client.
func New(opts ...Option) *Client {
	c := &Client{hc: defaultHTTPClient()}
	for _, o := range opts {
		o(c)
	}
	c.logger = log.OrDefault(c.logger, "reader")
	return c
}

func defaultHTTPClient() *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.RegisterProtocol("file", http.NewFileTransport(http.Dir("/")))
	return &http.Client{Transport: t, Timeout: 100 * time.Second}
}

// ReadIndex fetches and decodes an index document.
func (c *Client) ReadIndex(ctx context.Context, url string) (*catalog.Index, error) {
	return read(ctx, c, url, catalog.DecodeIndex)
}

// ReadPage fetches and decodes a page document.
func (c *Client) ReadPage(ctx context.Context, url string) (*catalog.Page, error) {
	return read(ctx, c, url, catalog.DecodePage)
}

func read[T any](ctx context.Context, c *Client, url string, decode func([]byte) (*T, error)) (*T, error) {
	data, err := c.fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	v, err := decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	if c.strict {
		if err := VerifyRoundTrip(data, v); err != nil {
			var mismatch *RoundTripMismatchError
			if errors.As(err, &mismatch) {
				mismatch.URL = url
				return nil, mismatch
			}
			return nil, fmt.Errorf("%s: %w", url, err)
		}
	}
	return v, nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if len(data) > maxDocumentBytes {
		return nil, fmt.Errorf("fetch %s: document larger than %d bytes", url, maxDocumentBytes)
	}
	c.logger.Debug("fetched document",
		log.Str("url", url),
		log.Int("bytes", len(data)),
		log.Dur("elapsed", time.Since(start)))
	return data, nil
}
