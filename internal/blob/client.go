package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Client talks to the blob HTTP API.
type Client struct {
	endpoint string
	hc       *http.Client
}

// NewClient returns a Client for endpoint, e.g. http://127.0.0.1:10000.
// A nil hc uses http.DefaultClient.
func NewClient(endpoint string, hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: strings.TrimSuffix(endpoint, "/"), hc: hc}
}

// CreateContainer creates a container. ErrConflict if it exists.
func (c *Client) CreateContainer(ctx context.Context, container string) error {
	resp, err := c.do(ctx, http.MethodPut, c.containerURL(container), nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	return checkStatus(resp, http.StatusCreated)
}

// DeleteContainer deletes a container and its blobs.
func (c *Client) DeleteContainer(ctx context.Context, container string) error {
	resp, err := c.do(ctx, http.MethodDelete, c.containerURL(container), nil, nil)
	if err != nil {
		return err
	}
	defer drain(resp)
	return checkStatus(resp, http.StatusAccepted)
}

// ContainerExists reports whether the container exists.
func (c *Client) ContainerExists(ctx context.Context, container string) (bool, error) {
	resp, err := c.do(ctx, http.MethodGet, c.containerURL(container), nil, nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)
	if resp.StatusCode == http.StatusOK {
		return true, nil
	}
	err = checkStatus(resp, http.StatusOK)
	if errors.Is(err, ErrContainerNotFound) {
		return false, nil
	}
	return false, err
}

// Get downloads a blob.
func (c *Client) Get(ctx context.Context, container, name string) (Blob, error) {
	resp, err := c.do(ctx, http.MethodGet, c.blobURL(container, name), nil, nil)
	if err != nil {
		return Blob{}, err
	}
	defer drain(resp)
	if err := checkStatus(resp, http.StatusOK); err != nil {
		return Blob{}, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Blob{}, fmt.Errorf("blob: read %s/%s: %w", container, name, err)
	}
	b := Blob{
		Name:        name,
		ContentType: resp.Header.Get("Content-Type"),
		ETag:        resp.Header.Get("ETag"),
		Data:        data,
	}
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		b.LastModified = lm.UTC()
	}
	return b, nil
}

// Put uploads a blob and returns its new ETag.
func (c *Client) Put(ctx context.Context, container, name string, data []byte, opts PutOptions) (string, error) {
	h := http.Header{}
	if opts.ContentType != "" {
		h.Set("Content-Type", opts.ContentType)
	}
	if opts.IfMatch != "" {
		h.Set("If-Match", opts.IfMatch)
	}
	if opts.IfNoneMatch {
		h.Set("If-None-Match", "*")
	}
	resp, err := c.do(ctx, http.MethodPut, c.blobURL(container, name), h, data)
	if err != nil {
		return "", err
	}
	defer drain(resp)
	if err := checkStatus(resp, http.StatusCreated); err != nil {
		return "", err
	}
	return resp.Header.Get("ETag"), nil
}

// Healthy calls /healthz and reports whether the service answered 200.
func (c *Client) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	resp, err := c.do(ctx, http.MethodGet, c.endpoint+"/healthz", nil, nil)
	if err != nil {
		return false
	}
	defer drain(resp)
	return resp.StatusCode == http.StatusOK
}

func (c *Client) containerURL(container string) string {
	return c.endpoint + "/" + url.PathEscape(container)
}

func (c *Client) blobURL(container, name string) string {
	segs := strings.Split(name, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return c.containerURL(container) + "/" + strings.Join(segs, "/")
}

func (c *Client) do(ctx context.Context, method, u string, h http.Header, body []byte) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range h {
		req.Header[k] = vs
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("blob: %s %s: %w", method, u, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	var body ErrorBody
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body)
	if sentinel := FromCode(body.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, body.Message)
	}
	return fmt.Errorf("blob: unexpected status %d: %s", resp.StatusCode, body.Message)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
