// Package wreq is an HTTP client that emulates browser network fingerprints
// (TLS handshake shape, HTTP/2 settings, header ordering) behind an
// ergonomic request API.
//
// The transport engine is github.com/bogdanfinn/tls-client; wreq layers on
// top of it the configuration model, the request/response surface and a
// cancellable execution path.
//
// Quick use through the shared default client:
//
//	resp, err := wreq.Get(ctx, "https://example.com")
//
// A long-lived client with its own configuration, connection pool and cookie
// jar:
//
//	client, err := wreq.NewClient(
//	    wreq.WithEmulation("chrome_146"),
//	    wreq.WithTimeout(30*time.Second),
//	    wreq.WithCookieStore(true),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	resp, err := client.Post(ctx, "https://example.com/api",
//	    wreq.JSON(map[string]any{"name": "wreq"}),
//	    wreq.Bearer(token),
//	)
//
// Clients are safe for concurrent use: calls share the pool and jar, block
// only their own goroutine during network I/O, and abort promptly when their
// context is cancelled. Errors are discriminated by type: *ConfigError for
// invalid options, *TransportError (with a Kind) for network failures, and
// *DecodeError for lazy text/JSON view failures.
package wreq
