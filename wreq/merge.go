package wreq

import (
	"strings"
	"time"

	"github.com/ditsuke/wreq/wreq/emulation"
)

// bodyKind identifies the single body representation of an effective request.
type bodyKind int

const (
	bodyNone bodyKind = iota
	bodyRaw
	bodyJSON
	bodyForm
)

// authKind identifies the single auth representation of an effective request.
type authKind int

const (
	authNone authKind = iota
	authRaw
	authBearer
	authBasic
)

// effectiveRequest is the merge result of the client configuration and one
// call's options. It is never built by callers; every field is definite, and
// a zero value is a deliberate "unset" the builder understands.
type effectiveRequest struct {
	headers   []Header
	userAgent string // "" = engine default; suppresses profile UA when set

	query []Pair

	body     bodyKind
	rawBody  []byte
	jsonBody any
	formBody []Pair

	auth      authKind
	authRaw   string
	bearer    string
	basicUser string
	basicPass string

	timeout        time.Duration
	connectTimeout time.Duration
	readTimeout    time.Duration

	followRedirects bool
	redirectLimit   int

	proxy   string
	profile *emulation.Profile // nil = emulation disabled

	// engineOverride marks that this call needs its own transient engine
	// (per-request proxy or emulation differing from the client's).
	engineOverride bool

	httpsOnly      bool
	http2Only      bool
	acceptEncoding string
}

// merge combines the client configuration with one call's options,
// field by field, into an unambiguous effective request.
func (c *Client) merge(opts *requestOptions) (*effectiveRequest, error) {
	cfg := c.cfg

	eff := &effectiveRequest{
		headers:         mergeHeaders(cfg.headers, opts.headers),
		query:           opts.query,
		timeout:         cfg.timeout,
		connectTimeout:  cfg.connectTimeout,
		readTimeout:     cfg.readTimeout,
		followRedirects: cfg.followRedirects,
		redirectLimit:   cfg.redirectLimit,
		proxy:           c.proxy,
		profile:         c.profile,
		httpsOnly:       cfg.httpsOnly,
		http2Only:       cfg.http2Only,
		acceptEncoding:  cfg.acceptEncoding(),
	}

	// Per-request values replace client-level values for this call only.
	if opts.timeout > 0 {
		eff.timeout = opts.timeout
	}
	if opts.proxy != "" {
		eff.proxy = opts.proxy
		eff.engineOverride = true
	}
	if opts.emuSet {
		profile, err := emulation.Resolve(opts.emu)
		if err != nil {
			return nil, &ConfigError{Kind: ConfigUnknownProfile, Message: "per-request emulation", Err: err}
		}
		eff.profile = profile
		if profileName(profile) != profileName(c.profile) {
			eff.engineOverride = true
		}
	}

	// Exactly one body representation may be set.
	set := 0
	if opts.rawSet {
		set++
		eff.body = bodyRaw
		eff.rawBody = opts.rawBody
	}
	if opts.jsonSet {
		set++
		eff.body = bodyJSON
		eff.jsonBody = opts.jsonBody
	}
	if opts.formSet {
		set++
		eff.body = bodyForm
		eff.formBody = opts.formBody
	}
	if set > 1 {
		return nil, &ConfigError{
			Kind:    ConfigConflictingBody,
			Message: "only one of raw body, JSON and form may be set per call",
		}
	}

	// Same exclusivity for auth.
	set = 0
	if opts.authSet {
		set++
		eff.auth = authRaw
		eff.authRaw = opts.authRaw
	}
	if opts.bearerSet {
		set++
		eff.auth = authBearer
		eff.bearer = opts.bearer
	}
	if opts.basicSet {
		set++
		eff.auth = authBasic
		eff.basicUser = opts.basicUser
		eff.basicPass = opts.basicPass
	}
	if set > 1 {
		return nil, &ConfigError{
			Kind:    ConfigConflictingAuth,
			Message: "only one of raw auth, bearer and basic may be set per call",
		}
	}

	// User agent precedence: explicit header > client user_agent > profile
	// default > engine default. An explicit value at any level suppresses the
	// profile's user agent; the profile still shapes TLS and HTTP/2.
	if ua, ok := headerValue(eff.headers, "User-Agent"); ok {
		eff.userAgent = ua
	} else if cfg.userAgent != "" {
		eff.userAgent = cfg.userAgent
	} else if eff.profile != nil {
		eff.userAgent = eff.profile.UserAgent
	}

	return eff, nil
}

// mergeHeaders lays request headers over the client defaults: defaults keep
// their order and duplicates, while a name supplied per-request overrides the
// default in place (case-insensitively) instead of duplicating it.
func mergeHeaders(base, overlay []Header) []Header {
	merged := make([]Header, len(base))
	copy(merged, base)
	for _, h := range overlay {
		merged = setHeader(merged, h)
	}
	return merged
}

// setHeader replaces the first same-named entry and drops later duplicates of
// that name; an unseen name is appended.
func setHeader(headers []Header, h Header) []Header {
	replaced := false
	out := headers[:0]
	for _, existing := range headers {
		if strings.EqualFold(existing.Name, h.Name) {
			if replaced {
				continue
			}
			existing.Value = h.Value
			replaced = true
		}
		out = append(out, existing)
	}
	if !replaced {
		out = append(out, h)
	}
	return out
}

// headerValue returns the first value for name, case-insensitively.
func headerValue(headers []Header, name string) (string, bool) {
	for _, h := range headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

func profileName(p *emulation.Profile) string {
	if p == nil {
		return ""
	}
	return p.Name
}
