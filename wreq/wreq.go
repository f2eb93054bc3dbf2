package wreq

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"

	fhttp "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/go-logr/logr"
	"k8s.io/klog/v2"

	"github.com/ditsuke/wreq/wreq/emulation"
)

// Client is a long-lived, concurrency-safe HTTP client with browser
// fingerprint emulation. It owns one pooled transport engine and, when
// enabled, one cookie jar; both are shared by every call made through it and
// need no external locking. Construct it with NewClient.
type Client struct {
	cfg     *ClientConfig
	profile *emulation.Profile // nil when emulation is disabled
	proxy   string
	jar     fhttp.CookieJar // nil when the cookie store is disabled
	engine  tls_client.HttpClient

	closeOnce sync.Once
}

// NewClient builds a client from functional options. Construction fails with
// a *ConfigError on contradictory options (http1-only with http2-only), an
// unknown emulation profile, or an engine rejection.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	profile, err := emulation.Resolve(cfg.emulation)
	if err != nil {
		return nil, &ConfigError{Kind: ConfigUnknownProfile, Message: "client emulation", Err: err}
	}

	proxy, err := cfg.resolveProxy()
	if err != nil {
		return nil, err
	}

	var jar fhttp.CookieJar
	if cfg.cookieStore {
		jar = tls_client.NewCookieJar()
	}

	engine, err := newEngine(cfg, profile, proxy, jar)
	if err != nil {
		return nil, err
	}

	klog.V(1).Infof("wreq: client ready (emulation=%s proxy=%q cookies=%v)",
		profileName(profile), proxy, cfg.cookieStore)
	return &Client{
		cfg:     cfg,
		profile: profile,
		proxy:   proxy,
		jar:     jar,
		engine:  engine,
	}, nil
}

// newEngine builds a transport engine. Redirects and timeouts stay with the
// executor: the engine never follows redirects itself and carries no
// timeout of its own, so per-call deadlines govern.
func newEngine(cfg *ClientConfig, profile *emulation.Profile, proxy string, jar fhttp.CookieJar) (tls_client.HttpClient, error) {
	opts := []tls_client.HttpClientOption{
		tls_client.WithNotFollowRedirects(),
		tls_client.WithTimeoutSeconds(0),
	}
	if profile != nil {
		opts = append(opts, tls_client.WithClientProfile(profile.Transport))
	}
	if jar != nil {
		opts = append(opts, tls_client.WithCookieJar(jar))
	}
	if !cfg.verifyHost || !cfg.verifyCert {
		opts = append(opts, tls_client.WithInsecureSkipVerify())
	}
	if cfg.http1Only {
		opts = append(opts, tls_client.WithForceHttp1())
	}
	if cfg.connectTimeout > 0 {
		opts = append(opts, tls_client.WithDialer(net.Dialer{Timeout: cfg.connectTimeout}))
	}
	if proxy != "" {
		opts = append(opts, tls_client.WithProxyUrl(proxy))
	}

	engine, err := tls_client.NewHttpClient(newEngineLogger(), opts...)
	if err != nil {
		return nil, &ConfigError{Kind: ConfigEngine, Message: "building transport engine", Err: err}
	}
	return engine, nil
}

// engineFor returns the engine to run one effective request on: the client's
// pooled engine, or a transient one when the call overrides proxy or
// emulation. The transient engine shares the client's cookie jar so cookies
// keep flowing, and is released after the call.
func (c *Client) engineFor(eff *effectiveRequest) (tls_client.HttpClient, func(), error) {
	if !eff.engineOverride {
		return c.engine, nil, nil
	}
	engine, err := newEngine(c.cfg, eff.profile, eff.proxy, c.jar)
	if err != nil {
		return nil, nil, err
	}
	return engine, engine.CloseIdleConnections, nil
}

// Do executes one request. The call blocks the calling goroutine until the
// response is complete or ctx is cancelled; the network wait itself runs off
// this goroutine, so concurrent calls and unrelated work keep progressing.
func (c *Client) Do(ctx context.Context, method, url string, opts ...RequestOption) (*Response, error) {
	ro, err := buildRequestOptions(opts)
	if err != nil {
		return nil, err
	}
	eff, err := c.merge(ro)
	if err != nil {
		return nil, err
	}
	treq, err := build(eff, method, url)
	if err != nil {
		return nil, err
	}
	return c.execute(ctx, treq)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, url, opts...)
}

// Post issues a POST request.
func (c *Client) Post(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, url, opts...)
}

// Put issues a PUT request.
func (c *Client) Put(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPut, url, opts...)
}

// Patch issues a PATCH request.
func (c *Client) Patch(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, url, opts...)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, url, opts...)
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodHead, url, opts...)
}

// Options issues an OPTIONS request.
func (c *Client) Options(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodOptions, url, opts...)
}

// Close releases the engine's pooled connections. Safe to call more than
// once; the client must not be used afterwards.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.engine.CloseIdleConnections()
	})
}

// engineLogger bridges the transport engine's log output into the process
// logging stack (klog through its logr interface).
type engineLogger struct {
	log logr.Logger
}

func newEngineLogger() tls_client.Logger {
	return &engineLogger{log: klog.Background().WithName("wreq.engine")}
}

func (l *engineLogger) Debug(format string, args ...any) {
	l.log.V(3).Info(fmt.Sprintf(format, args...))
}

func (l *engineLogger) Info(format string, args ...any) {
	l.log.V(2).Info(fmt.Sprintf(format, args...))
}

func (l *engineLogger) Warn(format string, args ...any) {
	l.log.V(1).Info(fmt.Sprintf(format, args...))
}

func (l *engineLogger) Error(format string, args ...any) {
	l.log.Error(nil, fmt.Sprintf(format, args...))
}
