package wreq

import (
	"fmt"
)

// ConfigErrorKind discriminates configuration failures. Configuration errors
// are always surfaced synchronously at call time and are never retried.
type ConfigErrorKind string

const (
	// ConfigProtocolConflict: http1-only and http2-only both requested.
	ConfigProtocolConflict ConfigErrorKind = "protocol_conflict"
	// ConfigUnknownProfile: an emulation profile name is not registered.
	ConfigUnknownProfile ConfigErrorKind = "unknown_profile"
	// ConfigInvalidURL: the request URL is not an absolute http(s) URL, or
	// violates an https-only / http2-only restriction.
	ConfigInvalidURL ConfigErrorKind = "invalid_url"
	// ConfigConflictingBody: more than one of raw body, JSON and form was
	// supplied for a single call.
	ConfigConflictingBody ConfigErrorKind = "conflicting_body"
	// ConfigConflictingAuth: more than one of raw auth, bearer and basic was
	// supplied for a single call.
	ConfigConflictingAuth ConfigErrorKind = "conflicting_auth"
	// ConfigInvalidProxy: a proxy URL could not be parsed.
	ConfigInvalidProxy ConfigErrorKind = "invalid_proxy"
	// ConfigInvalidOption: an option value is out of range.
	ConfigInvalidOption ConfigErrorKind = "invalid_option"
	// ConfigEngine: the transport engine rejected its configuration.
	ConfigEngine ConfigErrorKind = "engine"
	// ConfigBody: a body could not be serialized (e.g. unmarshalable JSON value).
	ConfigBody ConfigErrorKind = "body"
)

// ConfigError reports an invalid client configuration or per-call option set.
type ConfigError struct {
	Kind    ConfigErrorKind
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wreq: %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("wreq: %s: %s", e.Kind, e.Message)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// TransportErrorKind discriminates network-level failures.
type TransportErrorKind string

const (
	TransportConnectTimeout  TransportErrorKind = "connect_timeout"
	TransportReadTimeout     TransportErrorKind = "read_timeout"
	TransportTotalTimeout    TransportErrorKind = "total_timeout"
	TransportConnRefused     TransportErrorKind = "connection_refused"
	TransportTLSHandshake    TransportErrorKind = "tls_handshake_failure"
	TransportTooManyRedirect TransportErrorKind = "too_many_redirects"
	TransportCancelled       TransportErrorKind = "cancelled"
	TransportDecode          TransportErrorKind = "decode_error"
	// TransportProtocol: the server negotiated a protocol the client's
	// restriction excludes (an http2-only client got HTTP/1.1 over TLS).
	TransportProtocol TransportErrorKind = "protocol_mismatch"
	// TransportRedirectBlocked: a redirect target violates the client's
	// scheme restrictions (https-only or http2-only downgraded to http,
	// or a non-http(s) Location).
	TransportRedirectBlocked TransportErrorKind = "redirect_blocked"
	// TransportNetwork covers network failures outside the kinds above
	// (DNS failures, connection resets, protocol errors).
	TransportNetwork TransportErrorKind = "network"
)

// TransportError reports a failure while executing a request against the
// transport engine. The library performs no implicit retries; retry policy is
// the caller's responsibility.
type TransportError struct {
	Kind    TransportErrorKind
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wreq: transport %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("wreq: transport %s: %s", e.Kind, e.Message)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was any of the timeout kinds.
func (e *TransportError) Timeout() bool {
	switch e.Kind {
	case TransportConnectTimeout, TransportReadTimeout, TransportTotalTimeout:
		return true
	}
	return false
}

// DecodeError reports a failure computing a derived view of a response body.
// It is deferred until the specific view is accessed: a caller that never
// asks for Text or JSON never observes it.
type DecodeError struct {
	// View names the derived view that failed: "text" or "json".
	View string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wreq: decoding %s view: %v", e.View, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
