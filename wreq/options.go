package wreq

import (
	"time"

	"github.com/ditsuke/wreq/wreq/emulation"
)

// Pair is one ordered key-value pair for query strings and form bodies.
// Order is preserved exactly as given.
type Pair struct {
	Key   string
	Value string
}

// requestOptions collects the per-call option surface. It is short-lived:
// one instance per call, merged with the client configuration into an
// effective request.
type requestOptions struct {
	headers []Header
	query   []Pair

	rawBody  []byte
	rawSet   bool
	jsonBody any
	jsonSet  bool
	formBody []Pair
	formSet  bool

	authRaw   string
	authSet   bool
	bearer    string
	bearerSet bool
	basicUser string
	basicPass string
	basicSet  bool

	timeout time.Duration
	proxy   string

	emu    emulation.Selector
	emuSet bool
}

// RequestOption configures a single call.
type RequestOption func(*requestOptions) error

func buildRequestOptions(opts []RequestOption) (*requestOptions, error) {
	ro := &requestOptions{}
	for _, opt := range opts {
		if err := opt(ro); err != nil {
			return nil, err
		}
	}
	return ro, nil
}

// Headers appends request headers. A name already present among the client's
// default headers is overridden for this call, not duplicated.
func Headers(headers map[string]string) RequestOption {
	return func(o *requestOptions) error {
		for name, value := range headers {
			o.headers = append(o.headers, Header{Name: name, Value: value})
		}
		return nil
	}
}

// SetHeader appends one request header, overriding a same-named client
// default.
func SetHeader(name, value string) RequestOption {
	return func(o *requestOptions) error {
		o.headers = append(o.headers, Header{Name: name, Value: value})
		return nil
	}
}

// Query appends one query parameter. Parameters are appended to the URL's
// existing query string in the order given, values percent-encoded.
func Query(key, value string) RequestOption {
	return func(o *requestOptions) error {
		o.query = append(o.query, Pair{Key: key, Value: value})
		return nil
	}
}

// QueryPairs appends query parameters preserving the given order.
func QueryPairs(pairs ...Pair) RequestOption {
	return func(o *requestOptions) error {
		o.query = append(o.query, pairs...)
		return nil
	}
}

// Body sets a raw request body. It is passed through unchanged and no
// Content-Type is inferred.
func Body(body []byte) RequestOption {
	return func(o *requestOptions) error {
		o.rawBody = body
		o.rawSet = true
		return nil
	}
}

// BodyString sets a raw request body from a string.
func BodyString(body string) RequestOption {
	return Body([]byte(body))
}

// JSON sets a JSON request body. The value is marshaled with encoding/json
// and Content-Type is set to application/json unless explicitly overridden.
// Mutually exclusive with Body and Form.
func JSON(value any) RequestOption {
	return func(o *requestOptions) error {
		o.jsonBody = value
		o.jsonSet = true
		return nil
	}
}

// Form sets an application/x-www-form-urlencoded body from ordered pairs.
// Mutually exclusive with Body and JSON.
func Form(pairs ...Pair) RequestOption {
	return func(o *requestOptions) error {
		o.formBody = append(o.formBody, pairs...)
		o.formSet = true
		return nil
	}
}

// FormMap sets a form body from a map. Iteration order of the map is
// unspecified; use Form for order-sensitive bodies.
func FormMap(form map[string]string) RequestOption {
	return func(o *requestOptions) error {
		for key, value := range form {
			o.formBody = append(o.formBody, Pair{Key: key, Value: value})
		}
		o.formSet = true
		return nil
	}
}

// Auth sets a raw Authorization header value. Mutually exclusive with Bearer
// and BasicAuth.
func Auth(value string) RequestOption {
	return func(o *requestOptions) error {
		o.authRaw = value
		o.authSet = true
		return nil
	}
}

// Bearer sets an Authorization: Bearer <token> header. Mutually exclusive
// with Auth and BasicAuth.
func Bearer(token string) RequestOption {
	return func(o *requestOptions) error {
		o.bearer = token
		o.bearerSet = true
		return nil
	}
}

// BasicAuth sets a standard base64-encoded basic credential header.
// Mutually exclusive with Auth and Bearer.
func BasicAuth(user, pass string) RequestOption {
	return func(o *requestOptions) error {
		o.basicUser = user
		o.basicPass = pass
		o.basicSet = true
		return nil
	}
}

// Timeout overrides the client's total timeout for this call only.
func Timeout(d time.Duration) RequestOption {
	return func(o *requestOptions) error {
		o.timeout = d
		return nil
	}
}

// Proxy overrides the client's proxy for this call only.
func Proxy(proxyURL string) RequestOption {
	return func(o *requestOptions) error {
		o.proxy = proxyURL
		return nil
	}
}

// Emulation overrides the client's emulation profile for this call only.
func Emulation(name string) RequestOption {
	return func(o *requestOptions) error {
		o.emu = emulation.Named(name)
		o.emuSet = true
		return nil
	}
}

// NoEmulation disables emulation for this call only.
func NoEmulation() RequestOption {
	return func(o *requestOptions) error {
		o.emu = emulation.Disabled()
		o.emuSet = true
		return nil
	}
}
