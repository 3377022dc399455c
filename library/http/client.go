// Package http implements the Http.fetch library call (spec §4.5,
// scenario S6): a reactor that dispatches requests to a bounded worker
// pool and reports completion through a vm.Waker, so the single-threaded
// process scheduler never blocks on network I/O.
//
// Grounded on vm.SleepOnWaker/vm.Waker (the engine's own
// suspend-until-signaled primitive) for the reactor handoff, and on
// golang.org/x/sync/errgroup, used only by this package, for the worker
// pool that bounds in-flight requests.
package http

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// Client runs Http.fetch requests on a bounded worker pool.
type Client struct {
	http *http.Client
	pool *errgroup.Group
}

// NewClient builds a Client whose worker pool admits at most poolSize
// concurrent requests. poolSize <= 0 means unlimited.
func NewClient(poolSize int, timeout time.Duration) *Client {
	g := &errgroup.Group{}
	if poolSize > 0 {
		g.SetLimit(poolSize)
	}
	return &Client{
		http: &http.Client{Timeout: timeout},
		pool: g,
	}
}

// Request is one fetch's resolved parameters.
type Request struct {
	Method  string
	URL     string
	Body    string
	Headers map[string]string
	Bearer  string
	Timeout time.Duration
}

// Result is the outcome of a completed fetch.
type Result struct {
	Status      int
	OK          bool
	Headers     map[string]string
	ContentType string
	Text        string
	Bytes       []byte
	Err         error
}

// Dispatch submits req to the worker pool and returns at once; cell is
// filled with the result once the request completes, which wakes the
// cell's waker. Submission runs on its own goroutine, so Dispatch itself
// never blocks, even while the pool is at its limit.
func (c *Client) Dispatch(ctx context.Context, req Request, cell *Cell) {
	go c.pool.Go(func() error {
		res := c.do(ctx, req)
		cell.fill(res)
		return nil
	})
}

func (c *Client) do(ctx context.Context, req Request) Result {
	reqCtx := ctx
	var cancel context.CancelFunc
	if req.Timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var bodyReader io.Reader
	if req.Body != "" {
		bodyReader = strings.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(reqCtx, req.Method, req.URL, bodyReader)
	if err != nil {
		return Result{Err: err}
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}
	if req.Bearer != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Bearer)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Err: err}
	}

	headers := make(map[string]string, len(resp.Header))
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return Result{
		Status:      resp.StatusCode,
		OK:          resp.StatusCode >= 200 && resp.StatusCode < 300,
		Headers:     headers,
		ContentType: resp.Header.Get("Content-Type"),
		Text:        string(data),
		Bytes:       data,
	}
}
