package wreq

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/http/httpproxy"

	"github.com/ditsuke/wreq/wreq/emulation"
)

// defaultRedirectLimit bounds redirect chains when redirects are enabled
// without an explicit count.
const defaultRedirectLimit = 10

// Header is one ordered header pair. Client-level default headers preserve
// both their order and any deliberate duplicates.
type Header struct {
	Name  string
	Value string
}

// ClientConfig is the long-lived configuration of a Client. It is assembled
// through ClientOption functions and immutable once the client is built.
type ClientConfig struct {
	headers        []Header
	userAgent      string
	timeout        time.Duration // total, 0 = none
	connectTimeout time.Duration // 0 = engine default
	readTimeout    time.Duration // per redirect hop, 0 = none

	followRedirects bool
	redirectLimit   int

	cookieStore bool

	proxyURL  string
	proxyUser string
	proxyPass string
	noProxy   bool

	httpsOnly  bool
	verifyHost bool
	verifyCert bool

	http1Only bool
	http2Only bool

	gzip    bool
	brotli  bool
	deflate bool
	zstd    bool

	emulation emulation.Selector
}

// ClientOption configures a Client at construction time.
type ClientOption func(*ClientConfig) error

func defaultConfig() *ClientConfig {
	return &ClientConfig{
		followRedirects: true,
		redirectLimit:   defaultRedirectLimit,
		verifyHost:      true,
		verifyCert:      true,
		gzip:            true,
		brotli:          true,
		deflate:         true,
		zstd:            true,
	}
}

// WithHeader appends one default header. Repeated names are preserved as
// duplicates, in order.
func WithHeader(name, value string) ClientOption {
	return func(c *ClientConfig) error {
		c.headers = append(c.headers, Header{Name: name, Value: value})
		return nil
	}
}

// WithHeaders appends default headers from a map. Iteration order of the map
// is unspecified; use WithHeader for order-sensitive defaults.
func WithHeaders(headers map[string]string) ClientOption {
	return func(c *ClientConfig) error {
		for name, value := range headers {
			c.headers = append(c.headers, Header{Name: name, Value: value})
		}
		return nil
	}
}

// WithUserAgent sets an explicit user agent. It suppresses the emulation
// profile's default user agent even when emulation is active; the profile
// still supplies the TLS and HTTP/2 shape.
func WithUserAgent(ua string) ClientOption {
	return func(c *ClientConfig) error {
		c.userAgent = ua
		return nil
	}
}

// WithTimeout sets the total per-request timeout, covering every redirect hop.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) error {
		c.timeout = d
		return nil
	}
}

// WithConnectTimeout bounds connection establishment.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) error {
		c.connectTimeout = d
		return nil
	}
}

// WithReadTimeout bounds a single exchange (request sent to body read), reset
// on every redirect hop.
func WithReadTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) error {
		c.readTimeout = d
		return nil
	}
}

// WithRedirects enables redirect following bounded at limit hops. Exceeding
// the bound fails the request rather than silently stopping.
func WithRedirects(limit int) ClientOption {
	return func(c *ClientConfig) error {
		if limit < 0 {
			return &ConfigError{Kind: ConfigInvalidOption, Message: fmt.Sprintf("redirect limit must be >= 0, got %d", limit)}
		}
		c.followRedirects = true
		c.redirectLimit = limit
		return nil
	}
}

// WithoutRedirects disables redirect following; 3xx responses are returned
// to the caller as-is.
func WithoutRedirects() ClientOption {
	return func(c *ClientConfig) error {
		c.followRedirects = false
		return nil
	}
}

// WithCookieStore enables or disables the client's shared cookie jar.
func WithCookieStore(enabled bool) ClientOption {
	return func(c *ClientConfig) error {
		c.cookieStore = enabled
		return nil
	}
}

// WithProxy routes all requests through the given proxy URL.
func WithProxy(proxyURL string) ClientOption {
	return func(c *ClientConfig) error {
		c.proxyURL = proxyURL
		return nil
	}
}

// WithProxyAuth sets basic credentials for the proxy configured with WithProxy.
func WithProxyAuth(user, pass string) ClientOption {
	return func(c *ClientConfig) error {
		c.proxyUser = user
		c.proxyPass = pass
		return nil
	}
}

// WithNoProxy disables proxying entirely, including proxies picked up from
// HTTP_PROXY / HTTPS_PROXY in the environment.
func WithNoProxy() ClientOption {
	return func(c *ClientConfig) error {
		c.noProxy = true
		return nil
	}
}

// WithHTTPSOnly rejects plain-http request URLs.
func WithHTTPSOnly() ClientOption {
	return func(c *ClientConfig) error {
		c.httpsOnly = true
		return nil
	}
}

// WithVerifyHost toggles TLS host name verification.
func WithVerifyHost(verify bool) ClientOption {
	return func(c *ClientConfig) error {
		c.verifyHost = verify
		return nil
	}
}

// WithVerifyCert toggles TLS certificate chain verification.
func WithVerifyCert(verify bool) ClientOption {
	return func(c *ClientConfig) error {
		c.verifyCert = verify
		return nil
	}
}

// WithHTTP1Only restricts the client to HTTP/1.1. Mutually exclusive with
// WithHTTP2Only.
func WithHTTP1Only() ClientOption {
	return func(c *ClientConfig) error {
		c.http1Only = true
		return nil
	}
}

// WithHTTP2Only restricts the client to HTTP/2. Mutually exclusive with
// WithHTTP1Only. Since the engine negotiates HTTP/2 via ALPN, this also
// rejects plain-http URLs.
func WithHTTP2Only() ClientOption {
	return func(c *ClientConfig) error {
		c.http2Only = true
		return nil
	}
}

// WithGzip toggles gzip in the advertised Accept-Encoding set.
func WithGzip(enabled bool) ClientOption {
	return func(c *ClientConfig) error {
		c.gzip = enabled
		return nil
	}
}

// WithBrotli toggles brotli in the advertised Accept-Encoding set.
func WithBrotli(enabled bool) ClientOption {
	return func(c *ClientConfig) error {
		c.brotli = enabled
		return nil
	}
}

// WithDeflate toggles deflate in the advertised Accept-Encoding set.
func WithDeflate(enabled bool) ClientOption {
	return func(c *ClientConfig) error {
		c.deflate = enabled
		return nil
	}
}

// WithZstd toggles zstd in the advertised Accept-Encoding set.
func WithZstd(enabled bool) ClientOption {
	return func(c *ClientConfig) error {
		c.zstd = enabled
		return nil
	}
}

// WithEmulation selects the browser emulation profile by name, e.g.
// "chrome_146" or "firefox_147". Without this option the default profile
// applies.
func WithEmulation(name string) ClientOption {
	return func(c *ClientConfig) error {
		c.emulation = emulation.Named(name)
		return nil
	}
}

// WithoutEmulation disables browser fingerprint emulation. No profile-derived
// TLS shaping or default user agent applies.
func WithoutEmulation() ClientOption {
	return func(c *ClientConfig) error {
		c.emulation = emulation.Disabled()
		return nil
	}
}

// validate checks cross-field invariants after all options were applied.
func (c *ClientConfig) validate() error {
	if c.http1Only && c.http2Only {
		return &ConfigError{
			Kind:    ConfigProtocolConflict,
			Message: "http1-only and http2-only are mutually exclusive",
		}
	}
	if c.proxyURL != "" {
		if _, err := url.Parse(c.proxyURL); err != nil {
			return &ConfigError{Kind: ConfigInvalidProxy, Message: c.proxyURL, Err: err}
		}
	}
	return nil
}

// acceptEncoding renders the Accept-Encoding value for the enabled
// compression algorithms, empty when all are disabled.
func (c *ClientConfig) acceptEncoding() string {
	algos := make([]string, 0, 4)
	if c.gzip {
		algos = append(algos, "gzip")
	}
	if c.deflate {
		algos = append(algos, "deflate")
	}
	if c.brotli {
		algos = append(algos, "br")
	}
	if c.zstd {
		algos = append(algos, "zstd")
	}
	return strings.Join(algos, ", ")
}

// resolveProxy returns the effective client-level proxy URL: the explicit
// proxy with credentials folded in, or the environment's proxy settings when
// none was configured. WithNoProxy suppresses both.
func (c *ClientConfig) resolveProxy() (string, error) {
	if c.noProxy {
		return "", nil
	}
	if c.proxyURL != "" {
		u, err := url.Parse(c.proxyURL)
		if err != nil {
			return "", &ConfigError{Kind: ConfigInvalidProxy, Message: c.proxyURL, Err: err}
		}
		if c.proxyUser != "" {
			u.User = url.UserPassword(c.proxyUser, c.proxyPass)
		}
		return u.String(), nil
	}
	env := httpproxy.FromEnvironment()
	if env.HTTPSProxy != "" {
		return env.HTTPSProxy, nil
	}
	return env.HTTPProxy, nil
}
