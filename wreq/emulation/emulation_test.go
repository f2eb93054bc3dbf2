package emulation

import (
	"errors"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	t.Run("default selector", func(t *testing.T) {
		p, err := Resolve(DefaultSelector())
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p == nil {
			t.Fatal("Resolve() returned nil profile for default selector")
		}
		if p.Name != defaultName {
			t.Errorf("default profile = %s, want %s", p.Name, defaultName)
		}
		if !strings.HasPrefix(p.Name, "chrome_") {
			t.Errorf("default profile %s should be a chrome profile", p.Name)
		}
	})

	t.Run("named selector", func(t *testing.T) {
		p, err := Resolve(Named("firefox_147"))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p.Name != "firefox_147" {
			t.Errorf("profile = %s, want firefox_147", p.Name)
		}
		if p.UserAgent == "" {
			t.Error("profile should carry a default user agent")
		}
	})

	t.Run("disabled selector", func(t *testing.T) {
		p, err := Resolve(Disabled())
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if p != nil {
			t.Errorf("disabled selector should resolve to nil, got %s", p.Name)
		}
	})

	t.Run("unknown profile", func(t *testing.T) {
		_, err := Resolve(Named("netscape_4"))
		if err == nil {
			t.Fatal("Resolve() should fail for an unregistered name")
		}
		var unknownErr *UnknownProfileError
		if !errors.As(err, &unknownErr) {
			t.Fatalf("error = %T, want *UnknownProfileError", err)
		}
		if unknownErr.Name != "netscape_4" {
			t.Errorf("error name = %q, want netscape_4", unknownErr.Name)
		}
		if !strings.Contains(err.Error(), "netscape_4") {
			t.Errorf("error message should enumerate the bad value: %v", err)
		}
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"chrome_146", "chrome_146"},
		{"Chrome_146", "chrome_146"},
		{"safari_16.0", "safari_16_0"},
		{"safari-16 0", "safari_16_0"},
		{"  Firefox_147  ", "firefox_147"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDottedAndUnderscoreVariantsResolveIdentically(t *testing.T) {
	dotted, err := Resolve(Named("safari_16.0"))
	if err != nil {
		t.Fatalf("Resolve(safari_16.0) error = %v", err)
	}
	underscored, err := Resolve(Named("safari_16_0"))
	if err != nil {
		t.Fatalf("Resolve(safari_16_0) error = %v", err)
	}
	if dotted.Name != underscored.Name {
		t.Errorf("variants resolved to %s and %s", dotted.Name, underscored.Name)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("Names() returned no profiles")
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("Names() not sorted at %d: %s >= %s", i, names[i-1], names[i])
		}
	}
	seen := map[string]bool{}
	for _, n := range names {
		if n != Normalize(n) {
			t.Errorf("registered name %q is not normalized", n)
		}
		seen[n] = true
	}
	if !seen[defaultName] {
		t.Errorf("default profile %s missing from Names()", defaultName)
	}
}
