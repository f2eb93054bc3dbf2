package wreq

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"io"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"k8s.io/klog/v2"

	"github.com/ditsuke/wreq/wreq/instrumentation"
)

// hopResult is the collected outcome of one exchange with the engine: pure
// data, body fully read and decoded, connection released.
type hopResult struct {
	status  int
	proto   string
	headers []Header
	body    []byte
	wireLen int64
}

type dispatchOutcome struct {
	res *hopResult
	err error
}

// execute runs a built request against the transport engine. The blocking
// network wait happens on a dispatch goroutine; the calling goroutine blocks
// only on the completion channel or its context, so cancelling the context
// aborts this call promptly without waiting out the configured timeout.
func (c *Client) execute(ctx context.Context, treq *transportRequest) (resp *Response, err error) {
	engine, release, engineErr := c.engineFor(treq.eff)
	if engineErr != nil {
		return nil, engineErr
	}
	if release != nil {
		defer release()
	}

	rt := instrumentation.StartRequest(ctx, treq.method, treq.url.Host)
	ctx = rt.Context()
	defer func() {
		status := 0
		if resp != nil {
			status = resp.status
		}
		rt.End(status, err)
	}()

	if treq.eff.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, treq.eff.timeout,
			&TransportError{Kind: TransportTotalTimeout, Message: "total timeout exceeded"})
		defer cancel()
	}

	method := treq.method
	currentURL := treq.url
	headers := treq.headers
	body := treq.body

	for hops := 0; ; hops++ {
		res, hopErr := c.roundTrip(ctx, engine, method, currentURL, headers, body, treq.eff.readTimeout)
		if hopErr != nil {
			err = classifyTransport(ctx, hopErr)
			klog.V(1).Infof("wreq: %s %s failed: %v", method, currentURL, err)
			return nil, err
		}

		// The engine offers the profile's full ALPN set, so an http2-only
		// restriction is enforced on the negotiated protocol of every hop.
		if treq.eff.http2Only && res.proto != "HTTP/2.0" {
			err = &TransportError{
				Kind:    TransportProtocol,
				Message: "http2-only client negotiated " + res.proto,
			}
			return nil, err
		}

		if location, redirecting := redirectTarget(res, treq.eff.followRedirects); redirecting {
			if hops >= treq.eff.redirectLimit {
				err = &TransportError{
					Kind:    TransportTooManyRedirect,
					Message: "redirect limit of " + strconv.Itoa(treq.eff.redirectLimit) + " exceeded",
				}
				return nil, err
			}
			next, resolveErr := currentURL.Parse(location)
			if resolveErr != nil {
				err = &TransportError{Kind: TransportNetwork, Message: "unparsable redirect location", Err: resolveErr}
				return nil, err
			}
			// Redirect targets honor the same scheme restrictions the
			// original URL did; a downgrade to plain http never follows.
			if next.Scheme != "http" && next.Scheme != "https" {
				err = &TransportError{
					Kind:    TransportRedirectBlocked,
					Message: "redirect to non-http(s) URL " + next.String(),
				}
				return nil, err
			}
			if next.Scheme == "http" && (treq.eff.httpsOnly || treq.eff.http2Only) {
				err = &TransportError{
					Kind:    TransportRedirectBlocked,
					Message: "redirect downgrade to " + next.String() + " violates the client's scheme restriction",
				}
				return nil, err
			}
			method, body, headers = redirectedRequest(res.status, method, body, headers, currentURL, next)
			instrumentation.RecordRedirect(ctx, currentURL.String(), next.String())
			klog.V(2).Infof("wreq: following redirect %d -> %s", res.status, next)
			currentURL = next
			continue
		}

		klog.V(2).Infof("wreq: %s %s -> %d (%s)", treq.method, treq.url, res.status, res.proto)
		return &Response{
			status:        res.status,
			headers:       res.headers,
			body:          res.body,
			url:           currentURL.String(),
			proto:         res.proto,
			contentLength: int64(len(res.body)),
			transferSize:  res.wireLen,
		}, nil
	}
}

// roundTrip performs a single exchange. The engine call runs on its own
// goroutine with the hop context attached to the wire request, so a
// cancelled or expired context both unblocks the caller immediately and
// closes the underlying connection.
func (c *Client) roundTrip(ctx context.Context, engine tls_client.HttpClient, method string, u *url.URL, headers []Header, body []byte, readTimeout time.Duration) (*hopResult, error) {
	hopCtx := ctx
	if readTimeout > 0 {
		var cancel context.CancelFunc
		hopCtx, cancel = context.WithTimeoutCause(ctx, readTimeout,
			&TransportError{Kind: TransportReadTimeout, Message: "read timeout exceeded"})
		defer cancel()
	}

	var reader io.Reader
	if len(body) > 0 {
		reader = bytes.NewReader(body)
	}
	req, err := fhttp.NewRequestWithContext(hopCtx, method, u.String(), reader)
	if err != nil {
		return nil, err
	}
	applyHeaders(req, headers)

	outcome := make(chan dispatchOutcome, 1)
	go func() {
		res, doErr := engine.Do(req)
		if doErr != nil {
			outcome <- dispatchOutcome{err: doErr}
			return
		}
		wireLen := res.ContentLength
		res.Body = fhttp.DecompressBody(res)
		data, readErr := io.ReadAll(res.Body)
		_ = res.Body.Close()
		if readErr != nil {
			outcome <- dispatchOutcome{err: readErr}
			return
		}
		if wireLen < 0 {
			wireLen = int64(len(data))
		}
		outcome <- dispatchOutcome{res: &hopResult{
			status:  res.StatusCode,
			proto:   res.Proto,
			headers: collectHeaders(res.Header),
			body:    data,
			wireLen: wireLen,
		}}
	}()

	select {
	case <-hopCtx.Done():
		// The engine aborts on its own via the request context; the buffered
		// channel lets the dispatch goroutine finish and be collected. The
		// cause carries the timeout kind when a deadline fired.
		return nil, context.Cause(hopCtx)
	case out := <-outcome:
		return out.res, out.err
	}
}

// redirectTarget reports whether the response asks for a redirect this client
// follows, returning the Location value.
func redirectTarget(res *hopResult, follow bool) (string, bool) {
	if !follow {
		return "", false
	}
	switch res.status {
	case 301, 302, 303, 307, 308:
	default:
		return "", false
	}
	for _, h := range res.headers {
		if strings.EqualFold(h.Name, "Location") {
			return h.Value, h.Value != ""
		}
	}
	return "", false
}

// redirectedRequest applies standard redirect semantics: 303 (and 301/302
// for non-GET/HEAD) downgrade to a bodyless GET, 307/308 replay the request
// unchanged, and credentials never cross to another host.
func redirectedRequest(status int, method string, body []byte, headers []Header, from, to *url.URL) (string, []byte, []Header) {
	switch status {
	case 303:
		if method != "HEAD" {
			method = "GET"
		}
		body = nil
		headers = dropHeaders(headers, "Content-Type", "Content-Length")
	case 301, 302:
		if method != "GET" && method != "HEAD" {
			method = "GET"
			body = nil
			headers = dropHeaders(headers, "Content-Type", "Content-Length")
		}
	}
	if !strings.EqualFold(from.Host, to.Host) {
		headers = dropHeaders(headers, "Authorization", "Cookie")
	}
	return method, body, headers
}

func dropHeaders(headers []Header, names ...string) []Header {
	out := make([]Header, 0, len(headers))
	for _, h := range headers {
		dropped := false
		for _, name := range names {
			if strings.EqualFold(h.Name, name) {
				dropped = true
				break
			}
		}
		if !dropped {
			out = append(out, h)
		}
	}
	return out
}

// collectHeaders flattens the engine's header map into an ordered pair list.
// The map carries no wire order, so names are sorted canonically with their
// values kept in received order.
func collectHeaders(header fhttp.Header) []Header {
	names := make([]string, 0, len(header))
	for name := range header {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]Header, 0, len(header))
	for _, name := range names {
		for _, value := range header[name] {
			out = append(out, Header{Name: name, Value: value})
		}
	}
	return out
}

// classifyTransport maps an engine failure onto the TransportError taxonomy
// using the error chain, so callers can discriminate kinds without
// string-matching messages.
func classifyTransport(ctx context.Context, err error) error {
	var te *TransportError
	if errors.As(err, &te) {
		return te
	}

	// Context expiry carries its cause: our timeout kinds, or cancellation.
	if ctx.Err() != nil {
		if cause := context.Cause(ctx); errors.As(cause, &te) {
			return te
		}
		return &TransportError{Kind: TransportCancelled, Message: "request cancelled", Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &TransportError{Kind: TransportConnRefused, Message: "connection refused", Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		switch {
		case opErr.Op == "dial" && opErr.Timeout():
			return &TransportError{Kind: TransportConnectTimeout, Message: "connect timeout exceeded", Err: err}
		case opErr.Op == "dial":
			return &TransportError{Kind: TransportNetwork, Message: "dial failed", Err: err}
		case opErr.Op == "remote error":
			// A TLS alert from the peer surfaces as this op.
			return &TransportError{Kind: TransportTLSHandshake, Message: "TLS handshake failed", Err: err}
		case opErr.Timeout():
			return &TransportError{Kind: TransportReadTimeout, Message: "read timed out", Err: err}
		}
	}

	var recordErr tls.RecordHeaderError
	if errors.As(err, &recordErr) {
		return &TransportError{Kind: TransportTLSHandshake, Message: "TLS handshake failed", Err: err}
	}
	var unknownAuthority x509.UnknownAuthorityError
	var hostnameErr x509.HostnameError
	var certInvalid x509.CertificateInvalidError
	if errors.As(err, &unknownAuthority) || errors.As(err, &hostnameErr) || errors.As(err, &certInvalid) {
		return &TransportError{Kind: TransportTLSHandshake, Message: "certificate verification failed", Err: err}
	}

	return &TransportError{Kind: TransportNetwork, Message: "request failed", Err: err}
}
