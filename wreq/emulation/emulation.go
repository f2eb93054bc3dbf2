package emulation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bogdanfinn/tls-client/profiles"
	"github.com/samber/lo"
)

// Profile is an immutable browser emulation bundle: the transport-engine
// configuration that shapes the TLS handshake and HTTP/2 frames, plus the
// default User-Agent the emulated browser would send.
type Profile struct {
	// Name is the normalized registry name, e.g. "chrome_146".
	Name string
	// Transport is the engine-level fingerprint bundle.
	Transport profiles.ClientProfile
	// UserAgent is the browser's default User-Agent header value. It is only
	// a default: an explicit user agent at the client or request level wins.
	UserAgent string
}

// Selector expresses an emulation choice: the default profile, a named
// profile, or emulation explicitly disabled. The zero Selector means
// "use the default profile".
type Selector struct {
	name     string
	disabled bool
}

// DefaultSelector selects the default profile.
func DefaultSelector() Selector { return Selector{} }

// Named selects a profile by name. The name is normalized before lookup.
func Named(name string) Selector { return Selector{name: name} }

// Disabled turns emulation off entirely: no fingerprint shaping and no
// profile-derived User-Agent.
func Disabled() Selector { return Selector{disabled: true} }

// IsDisabled reports whether the selector turns emulation off.
func (s Selector) IsDisabled() bool { return s.disabled }

// IsNamed reports whether the selector names a specific profile.
func (s Selector) IsNamed() bool { return s.name != "" }

// UnknownProfileError is returned when a profile name is not registered.
type UnknownProfileError struct {
	Name string
}

func (e *UnknownProfileError) Error() string {
	return fmt.Sprintf("unknown emulation profile %q, known profiles: %s",
		e.Name, strings.Join(Names(), ", "))
}

// registry maps normalized profile names to their bundles. The entries track
// the browser generations the transport engine ships fingerprints for.
var registry = map[string]Profile{
	"chrome_131": {
		Name:      "chrome_131",
		Transport: profiles.Chrome_131,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	},
	"chrome_133": {
		Name:      "chrome_133",
		Transport: profiles.Chrome_133,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/133.0.0.0 Safari/537.36",
	},
	"chrome_144": {
		Name:      "chrome_144",
		Transport: profiles.Chrome_144,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/144.0.0.0 Safari/537.36",
	},
	"chrome_146": {
		Name:      "chrome_146",
		Transport: profiles.Chrome_146,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/146.0.0.0 Safari/537.36",
	},
	"firefox_133": {
		Name:      "firefox_133",
		Transport: profiles.Firefox_133,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	},
	"firefox_135": {
		Name:      "firefox_135",
		Transport: profiles.Firefox_135,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:135.0) Gecko/20100101 Firefox/135.0",
	},
	"firefox_147": {
		Name:      "firefox_147",
		Transport: profiles.Firefox_147,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0",
	},
	"safari_15_6_1": {
		Name:      "safari_15_6_1",
		Transport: profiles.Safari_15_6_1,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.6.1 Safari/605.1.15",
	},
	"safari_16_0": {
		Name:      "safari_16_0",
		Transport: profiles.Safari_16_0,
		UserAgent: "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Safari/605.1.15",
	},
	"safari_ipad_15_6": {
		Name:      "safari_ipad_15_6",
		Transport: profiles.Safari_Ipad_15_6,
		UserAgent: "Mozilla/5.0 (iPad; CPU OS 15_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.6 Mobile/15E148 Safari/604.1",
	},
	"safari_ios_16_0": {
		Name:      "safari_ios_16_0",
		Transport: profiles.Safari_IOS_16_0,
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
	},
	"safari_ios_17_0": {
		Name:      "safari_ios_17_0",
		Transport: profiles.Safari_IOS_17_0,
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1",
	},
	"opera_91": {
		Name:      "opera_91",
		Transport: profiles.Opera_91,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/105.0.0.0 Safari/537.36 OPR/91.0.4516.20",
	},
	"okhttp4_android_13": {
		Name:      "okhttp4_android_13",
		Transport: profiles.Okhttp4Android13,
		UserAgent: "okhttp/4.10.0",
	},
}

// defaultName is the profile used when no selector is given: the newest
// Chrome generation in the registry.
const defaultName = "chrome_146"

// Default returns the default emulation profile.
func Default() *Profile {
	p := registry[defaultName]
	return &p
}

// Resolve maps a selector to a profile. A disabled selector resolves to
// (nil, nil), meaning no fingerprint emulation at all. An unregistered name
// fails with *UnknownProfileError.
func Resolve(s Selector) (*Profile, error) {
	if s.disabled {
		return nil, nil
	}
	if s.name == "" {
		return Default(), nil
	}
	normalized := Normalize(s.name)
	p, ok := registry[normalized]
	if !ok {
		return nil, &UnknownProfileError{Name: s.name}
	}
	return &p, nil
}

// Normalize canonicalizes a profile name: lowercase with dots, dashes and
// spaces folded to underscores. Both "safari_16.0" and "Safari-16 0" map to
// "safari_16_0".
func Normalize(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '-', ' ':
			return '_'
		}
		return r
	}, lowered)
}

// Names returns the registered profile names in sorted order.
func Names() []string {
	names := lo.Keys(registry)
	sort.Strings(names)
	return names
}
