package wreq

import (
	"context"
	"net/http"
	"sync"
)

// defaultClient is the process-scoped client behind the package-level
// convenience functions. It is built with default options on first use and
// lives for the rest of the process; there is no teardown. Callers that need
// their own configuration, pool or jar should construct a Client instead.
var defaultClient = sync.OnceValues(func() (*Client, error) {
	return NewClient()
})

// DefaultClient returns the shared client used by the package-level call
// functions, constructing it on first use.
func DefaultClient() (*Client, error) {
	return defaultClient()
}

func defaultDo(ctx context.Context, method, url string, opts []RequestOption) (*Response, error) {
	c, err := defaultClient()
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, method, url, opts...)
}

// Get issues a GET request on the shared default client.
func Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return defaultDo(ctx, http.MethodGet, url, opts)
}

// Post issues a POST request on the shared default client.
func Post(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return defaultDo(ctx, http.MethodPost, url, opts)
}

// Put issues a PUT request on the shared default client.
func Put(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return defaultDo(ctx, http.MethodPut, url, opts)
}

// Patch issues a PATCH request on the shared default client.
func Patch(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return defaultDo(ctx, http.MethodPatch, url, opts)
}

// Delete issues a DELETE request on the shared default client.
func Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return defaultDo(ctx, http.MethodDelete, url, opts)
}

// Head issues a HEAD request on the shared default client.
func Head(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return defaultDo(ctx, http.MethodHead, url, opts)
}

// Options issues an OPTIONS request on the shared default client.
func Options(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return defaultDo(ctx, http.MethodOptions, url, opts)
}
