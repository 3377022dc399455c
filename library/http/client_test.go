package http_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stofhttp "github.com/stof-engine/stof/library/http"
)

func waitForCell(t *testing.T, cell *stofhttp.Cell) stofhttp.Result {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if res, ok := cell.Take(); ok {
			return res
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("cell never filled")
	return stofhttp.Result{}
}

// TestClientDispatchSucceeds matches spec §4.5 scenario S6: fetch
// dispatches to the reactor's worker pool and the result cell fills in
// once the request completes, waking its waker.
func TestClientDispatchSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.NewServeMux())
	defer srv.Close()

	client := stofhttp.NewClient(2, time.Second)
	cell := stofhttp.NewCell()
	require.False(t, cell.Waker().Ready())

	client.Dispatch(t.Context(), stofhttp.Request{Method: "GET", URL: srv.URL}, cell)
	res := waitForCell(t, cell)

	assert.NoError(t, res.Err)
	assert.Equal(t, 404, res.Status)
	assert.True(t, cell.Waker().Ready())
}

// TestClientDispatchRequestError covers the fetch error path: an
// unreachable/invalid URL resolves the cell with a populated Err rather
// than panicking or hanging the reactor.
func TestClientDispatchRequestError(t *testing.T) {
	client := stofhttp.NewClient(1, 50*time.Millisecond)
	cell := stofhttp.NewCell()

	client.Dispatch(t.Context(), stofhttp.Request{Method: "GET", URL: "http://127.0.0.1:1/does-not-exist"}, cell)
	res := waitForCell(t, cell)

	assert.Error(t, res.Err)
	assert.False(t, res.OK)
}
