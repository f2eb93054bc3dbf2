package wreq

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/samber/lo"
)

// transportRequest is the builder's output: everything the executor needs to
// run one request against the transport engine. The body is held as bytes so
// redirect hops can replay it.
type transportRequest struct {
	method  string
	url     *url.URL
	headers []Header // final ordered set, auth and content type resolved
	body    []byte

	eff *effectiveRequest
}

// build turns an effective request plus method and URL into a transport-ready
// descriptor. The URL must be absolute with an http or https scheme.
func build(eff *effectiveRequest, method, rawURL string) (*transportRequest, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &ConfigError{Kind: ConfigInvalidURL, Message: rawURL, Err: err}
	}
	if !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &ConfigError{
			Kind:    ConfigInvalidURL,
			Message: fmt.Sprintf("%q is not an absolute http(s) URL", rawURL),
		}
	}
	if u.Scheme == "http" {
		if eff.httpsOnly {
			return nil, &ConfigError{
				Kind:    ConfigInvalidURL,
				Message: fmt.Sprintf("%q rejected: client is https-only", rawURL),
			}
		}
		if eff.http2Only {
			return nil, &ConfigError{
				Kind:    ConfigInvalidURL,
				Message: fmt.Sprintf("%q rejected: http2-only requires https", rawURL),
			}
		}
	}

	// Query parameters append to the existing query string, order preserved.
	if len(eff.query) > 0 {
		encoded := strings.Join(lo.Map(eff.query, func(p Pair, _ int) string {
			return url.QueryEscape(p.Key) + "=" + url.QueryEscape(p.Value)
		}), "&")
		if u.RawQuery == "" {
			u.RawQuery = encoded
		} else {
			u.RawQuery += "&" + encoded
		}
	}

	headers := make([]Header, len(eff.headers))
	copy(headers, eff.headers)

	var body []byte
	switch eff.body {
	case bodyRaw:
		// Passed through unchanged, no content-type inference.
		body = eff.rawBody
	case bodyJSON:
		body, err = json.Marshal(eff.jsonBody)
		if err != nil {
			return nil, &ConfigError{Kind: ConfigBody, Message: "marshaling JSON body", Err: err}
		}
		if _, ok := headerValue(headers, "Content-Type"); !ok {
			headers = setHeader(headers, Header{Name: "Content-Type", Value: "application/json"})
		}
	case bodyForm:
		body = []byte(encodeForm(eff.formBody))
		if _, ok := headerValue(headers, "Content-Type"); !ok {
			headers = setHeader(headers, Header{Name: "Content-Type", Value: "application/x-www-form-urlencoded"})
		}
	}

	switch eff.auth {
	case authRaw:
		headers = setHeader(headers, Header{Name: "Authorization", Value: eff.authRaw})
	case authBearer:
		headers = setHeader(headers, Header{Name: "Authorization", Value: "Bearer " + eff.bearer})
	case authBasic:
		credential := base64.StdEncoding.EncodeToString([]byte(eff.basicUser + ":" + eff.basicPass))
		headers = setHeader(headers, Header{Name: "Authorization", Value: "Basic " + credential})
	}

	if eff.userAgent != "" {
		headers = setHeader(headers, Header{Name: "User-Agent", Value: eff.userAgent})
	}
	if _, ok := headerValue(headers, "Accept-Encoding"); !ok && eff.acceptEncoding != "" {
		headers = setHeader(headers, Header{Name: "Accept-Encoding", Value: eff.acceptEncoding})
	}

	return &transportRequest{
		method:  method,
		url:     u,
		headers: headers,
		body:    body,
		eff:     eff,
	}, nil
}

// encodeForm percent-encodes ordered form pairs. url.Values would sort keys;
// the wire order must stay as given.
func encodeForm(pairs []Pair) string {
	return strings.Join(lo.Map(pairs, func(p Pair, _ int) string {
		return url.QueryEscape(p.Key) + "=" + url.QueryEscape(p.Value)
	}), "&")
}

// applyHeaders copies the ordered header set onto an engine request,
// preserving duplicates and recording the wire order for the engine.
func applyHeaders(req *fhttp.Request, headers []Header) {
	order := make([]string, 0, len(headers))
	seen := map[string]bool{}
	for _, h := range headers {
		req.Header.Add(h.Name, h.Value)
		key := strings.ToLower(h.Name)
		if !seen[key] {
			seen[key] = true
			order = append(order, key)
		}
	}
	if len(order) > 0 {
		req.Header[fhttp.HeaderOrderKey] = order
	}
}
