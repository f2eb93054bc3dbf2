package wreq

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Response is the final result of a request: complete, immutable and owned
// by the caller. The text and JSON views are derived lazily; their decode
// failures surface on access, never at construction.
type Response struct {
	status  int
	headers []Header
	body    []byte
	url     string
	proto   string

	// contentLength is the decoded body length; transferSize the bytes moved
	// on the wire, which can be smaller under compression.
	contentLength int64
	transferSize  int64

	textOnce sync.Once
	text     string
	textErr  error

	jsonOnce  sync.Once
	jsonValue any
	jsonErr   error
}

// StatusCode returns the numeric HTTP status.
func (r *Response) StatusCode() int { return r.status }

// Bytes returns the decoded response body.
func (r *Response) Bytes() []byte { return r.body }

// Text returns the body decoded as UTF-8. Invalid UTF-8 fails with a
// *DecodeError, surfaced only when this view is requested.
func (r *Response) Text() (string, error) {
	r.textOnce.Do(func() {
		if !utf8.Valid(r.body) {
			r.textErr = &DecodeError{View: "text", Err: fmt.Errorf("body is not valid UTF-8")}
			return
		}
		r.text = string(r.body)
	})
	return r.text, r.textErr
}

// JSON unmarshals the body into v. Invalid JSON fails with a *DecodeError,
// surfaced only on access.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.body, v); err != nil {
		return &DecodeError{View: "json", Err: err}
	}
	return nil
}

// JSONValue parses the body once into generic JSON values (map[string]any,
// []any, string, float64, bool, nil) and caches the result.
func (r *Response) JSONValue() (any, error) {
	r.jsonOnce.Do(func() {
		var v any
		if err := json.Unmarshal(r.body, &v); err != nil {
			r.jsonErr = &DecodeError{View: "json", Err: err}
			return
		}
		r.jsonValue = v
	})
	return r.jsonValue, r.jsonErr
}

// Headers returns the ordered response header list.
func (r *Response) Headers() []Header {
	out := make([]Header, len(r.headers))
	copy(out, r.headers)
	return out
}

// Header returns the first value for name, case-insensitively.
func (r *Response) Header(name string) string {
	v, _ := headerValue(r.headers, name)
	return v
}

// HeaderValues returns every value for name, case-insensitively, in order.
func (r *Response) HeaderValues(name string) []string {
	var values []string
	for _, h := range r.headers {
		if strings.EqualFold(h.Name, name) {
			values = append(values, h.Value)
		}
	}
	return values
}

// URL returns the final URL after any redirects.
func (r *Response) URL() string { return r.url }

// Version returns the protocol version string, e.g. "HTTP/2.0".
func (r *Response) Version() string { return r.proto }

// ContentLength returns the decoded body length in bytes.
func (r *Response) ContentLength() int64 { return r.contentLength }

// TransferSize returns the bytes transferred on the wire. Under compression
// this can be smaller than ContentLength.
func (r *Response) TransferSize() int64 { return r.transferSize }

// Success reports a 2xx status.
func (r *Response) Success() bool { return r.status >= 200 && r.status < 300 }

// Redirect reports a 3xx status.
func (r *Response) Redirect() bool { return r.status >= 300 && r.status < 400 }

// ClientError reports a 4xx status.
func (r *Response) ClientError() bool { return r.status >= 400 && r.status < 500 }

// ServerError reports a 5xx status.
func (r *Response) ServerError() bool { return r.status >= 500 && r.status < 600 }

func (r *Response) String() string {
	return fmt.Sprintf("wreq.Response(status=%d url=%q)", r.status, r.url)
}
