package wreq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestRoundTripJSONEcho(t *testing.T) {
	g := NewGomegaWithT(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			http.Error(w, "unexpected content type "+ct, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.Copy(w, r.Body)
	}))
	defer server.Close()

	client := newTestClient(t)
	resp, err := client.Post(context.Background(), server.URL,
		JSON(map[string]any{"name": "wreq", "version": 1}))
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(resp.Success()).To(BeTrue())
	g.Expect(resp.Header("Content-Type")).To(Equal("application/json"))

	var payload struct {
		Name    string `json:"name"`
		Version int    `json:"version"`
	}
	g.Expect(resp.JSON(&payload)).To(Succeed())
	g.Expect(payload.Name).To(Equal("wreq"))
	g.Expect(payload.Version).To(Equal(1))
}

func TestRoundTripQueryAndHeaders(t *testing.T) {
	g := NewGomegaWithT(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{
			"query":  r.URL.RawQuery,
			"accept": r.Header.Get("Accept"),
			"trace":  r.Header.Get("X-Trace"),
			"auth":   r.Header.Get("Authorization"),
		})
	}))
	defer server.Close()

	client := newTestClient(t, WithHeader("Accept", "text/plain"), WithHeader("X-Trace", "base"))
	resp, err := client.Get(context.Background(), server.URL+"/search?page=2",
		Query("foo", "bar"),
		Query("baz", "qux"),
		SetHeader("Accept", "application/json"),
		Bearer("tok123"),
	)
	g.Expect(err).ToNot(HaveOccurred())

	var seen map[string]string
	g.Expect(resp.JSON(&seen)).To(Succeed())
	g.Expect(seen["query"]).To(Equal("page=2&foo=bar&baz=qux"))
	g.Expect(seen["accept"]).To(Equal("application/json"), "per-request header overrides the client default")
	g.Expect(seen["trace"]).To(Equal("base"), "untouched client headers still apply")
	g.Expect(seen["auth"]).To(Equal("Bearer tok123"))
}

func TestRoundTripFormPost(t *testing.T) {
	g := NewGomegaWithT(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_, _ = fmt.Fprintf(w, "%s|%s", r.Header.Get("Content-Type"), body)
	}))
	defer server.Close()

	client := newTestClient(t)
	resp, err := client.Post(context.Background(), server.URL,
		Form(Pair{Key: "user", Value: "jo"}, Pair{Key: "pass", Value: "s3cret"}))
	g.Expect(err).ToNot(HaveOccurred())
	text, err := resp.Text()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(text).To(Equal("application/x-www-form-urlencoded|user=jo&pass=s3cret"))
}

func TestRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, "method=%s", r.Method)
	})
	mux.HandleFunc("/submit", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusSeeOther)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	t.Run("follows within the bound and reports the final url", func(t *testing.T) {
		g := NewGomegaWithT(t)
		client := newTestClient(t, WithRedirects(5))
		resp, err := client.Get(context.Background(), server.URL+"/a")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(resp.StatusCode()).To(Equal(200))
		g.Expect(resp.URL()).To(Equal(server.URL + "/final"))
	})

	t.Run("exceeding the bound fails with a typed error", func(t *testing.T) {
		g := NewGomegaWithT(t)
		client := newTestClient(t, WithRedirects(1))
		_, err := client.Get(context.Background(), server.URL+"/a")
		var transportErr *TransportError
		g.Expect(errors.As(err, &transportErr)).To(BeTrue())
		g.Expect(transportErr.Kind).To(Equal(TransportTooManyRedirect))
	})

	t.Run("disabled redirects surface the 3xx response", func(t *testing.T) {
		g := NewGomegaWithT(t)
		client := newTestClient(t, WithoutRedirects())
		resp, err := client.Get(context.Background(), server.URL+"/a")
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(resp.Redirect()).To(BeTrue())
		g.Expect(resp.Header("Location")).To(Equal("/b"))
		g.Expect(resp.URL()).To(Equal(server.URL + "/a"))
	})

	t.Run("303 downgrades a post to a bodyless get", func(t *testing.T) {
		g := NewGomegaWithT(t)
		client := newTestClient(t)
		resp, err := client.Post(context.Background(), server.URL+"/submit",
			Form(Pair{Key: "a", Value: "1"}))
		g.Expect(err).ToNot(HaveOccurred())
		text, err := resp.Text()
		g.Expect(err).ToNot(HaveOccurred())
		g.Expect(text).To(Equal("method=GET"))
	})
}

func TestConcurrentRequestsOverlap(t *testing.T) {
	const (
		calls = 8
		delay = 300 * time.Millisecond
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(delay)
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	client := newTestClient(t)

	start := time.Now()
	var wg sync.WaitGroup
	errs := make([]error, calls)
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.Get(context.Background(), server.URL)
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for i, err := range errs {
		if err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}
	// Calls must overlap on the shared pool rather than serialize.
	if elapsed > time.Duration(calls)*delay/2 {
		t.Errorf("%d concurrent calls took %v, expected roughly the single-call delay of %v", calls, elapsed, delay)
	}
}

func TestCancellationAbortsPromptly(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(200 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := client.Get(ctx, server.URL)
	elapsed := time.Since(start)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if transportErr.Kind != TransportCancelled {
		t.Errorf("kind = %s, want %s", transportErr.Kind, TransportCancelled)
	}
	if elapsed > 3*time.Second {
		t.Errorf("cancellation took %v, should abort within a few seconds", elapsed)
	}
}

func TestTotalTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t)
	start := time.Now()
	_, err := client.Get(context.Background(), server.URL, Timeout(250*time.Millisecond))
	elapsed := time.Since(start)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if transportErr.Kind != TransportTotalTimeout {
		t.Errorf("kind = %s, want %s", transportErr.Kind, TransportTotalTimeout)
	}
	if !transportErr.Timeout() {
		t.Error("Timeout() should report true for a total timeout")
	}
	if elapsed > 3*time.Second {
		t.Errorf("timeout enforcement took %v", elapsed)
	}
}

func TestReadTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := newTestClient(t, WithReadTimeout(250*time.Millisecond))
	_, err := client.Get(context.Background(), server.URL)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if transportErr.Kind != TransportReadTimeout {
		t.Errorf("kind = %s, want %s", transportErr.Kind, TransportReadTimeout)
	}
}

func TestConnectFailureIsTyped(t *testing.T) {
	// Grab a port that is certainly closed.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	target := "http://" + listener.Addr().String()
	_ = listener.Close()

	client := newTestClient(t)
	_, err = client.Get(context.Background(), target)

	var transportErr *TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("error = %v, want *TransportError", err)
	}
	if transportErr.Timeout() {
		t.Errorf("a refused connection should not classify as a timeout, got %s", transportErr.Kind)
	}
}

func TestCookieStoreAcrossRequests(t *testing.T) {
	g := NewGomegaWithT(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie("session")
		if err != nil {
			http.Error(w, "no session", http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(cookie.Value))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t, WithCookieStore(true))
	resp, err := client.Get(context.Background(), server.URL+"/login")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(resp.Success()).To(BeTrue())

	resp, err = client.Get(context.Background(), server.URL+"/me")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(resp.StatusCode()).To(Equal(200))
	text, err := resp.Text()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(text).To(Equal("abc123"))

	t.Run("cookie accessors see the stored cookie", func(t *testing.T) {
		u := mustParseURL(t, server.URL)
		cookies := client.Cookies(u)
		g.Expect(cookies).ToNot(BeEmpty())
		g.Expect(cookies[0].Name).To(Equal("session"))
	})
}

func TestCookiesDisabledByDefault(t *testing.T) {
	g := NewGomegaWithT(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "session", Value: "abc123", Path: "/"})
	})
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("session"); err == nil {
			http.Error(w, "unexpected cookie", http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte("anonymous"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := newTestClient(t)
	_, err := client.Get(context.Background(), server.URL+"/login")
	g.Expect(err).ToNot(HaveOccurred())

	resp, err := client.Get(context.Background(), server.URL+"/me")
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(resp.StatusCode()).To(Equal(200))
}

func TestPerRequestEmulationOverride(t *testing.T) {
	g := NewGomegaWithT(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.UserAgent()))
	}))
	defer server.Close()

	client := newTestClient(t, WithEmulation("chrome_146"))

	resp, err := client.Get(context.Background(), server.URL, Emulation("firefox_147"))
	g.Expect(err).ToNot(HaveOccurred())
	text, err := resp.Text()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(text).To(ContainSubstring("Firefox/147"))

	// The client's own profile is untouched for the next call.
	resp, err = client.Get(context.Background(), server.URL)
	g.Expect(err).ToNot(HaveOccurred())
	text, err = resp.Text()
	g.Expect(err).ToNot(HaveOccurred())
	g.Expect(text).To(ContainSubstring("Chrome/146"))
}

func TestMethodSurface(t *testing.T) {
	g := NewGomegaWithT(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Method", r.Method)
	}))
	defer server.Close()

	client := newTestClient(t)
	ctx := context.Background()

	for _, call := range []struct {
		name string
		do   func() (*Response, error)
		want string
	}{
		{"Get", func() (*Response, error) { return client.Get(ctx, server.URL) }, "GET"},
		{"Post", func() (*Response, error) { return client.Post(ctx, server.URL) }, "POST"},
		{"Put", func() (*Response, error) { return client.Put(ctx, server.URL) }, "PUT"},
		{"Patch", func() (*Response, error) { return client.Patch(ctx, server.URL) }, "PATCH"},
		{"Delete", func() (*Response, error) { return client.Delete(ctx, server.URL) }, "DELETE"},
		{"Head", func() (*Response, error) { return client.Head(ctx, server.URL) }, "HEAD"},
		{"Options", func() (*Response, error) { return client.Options(ctx, server.URL) }, "OPTIONS"},
	} {
		resp, err := call.do()
		g.Expect(err).ToNot(HaveOccurred(), call.name)
		g.Expect(resp.Header("X-Method")).To(Equal(call.want), call.name)
	}
}

func TestDefaultClientIsShared(t *testing.T) {
	first, err := DefaultClient()
	if err != nil {
		t.Fatalf("DefaultClient() error = %v", err)
	}
	second, err := DefaultClient()
	if err != nil {
		t.Fatalf("DefaultClient() error = %v", err)
	}
	if first != second {
		t.Error("DefaultClient() should return the same shared instance")
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer server.Close()

	resp, err := Get(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !resp.Success() {
		t.Errorf("status = %d", resp.StatusCode())
	}
}

func TestDoRejectsUnparsableURLEarly(t *testing.T) {
	client := newTestClient(t)
	_, err := client.Do(context.Background(), http.MethodGet, "not a url")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *ConfigError", err)
	}
	if cfgErr.Kind != ConfigInvalidURL {
		t.Errorf("kind = %s, want %s", cfgErr.Kind, ConfigInvalidURL)
	}
}

func mustParseURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatal(err)
	}
	return u
}
