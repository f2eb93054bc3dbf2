package wreq

import (
	"net/http"
	"net/url"

	fhttp "github.com/bogdanfinn/fhttp"
)

// Cookies returns the cookies the client's shared jar holds for u, converted
// to net/http values. Nil when the cookie store is disabled.
func (c *Client) Cookies(u *url.URL) []*http.Cookie {
	if c.jar == nil {
		return nil
	}
	fCookies := c.jar.Cookies(u)
	cookies := make([]*http.Cookie, len(fCookies))
	for i, fc := range fCookies {
		cookies[i] = &http.Cookie{
			Name:       fc.Name,
			Value:      fc.Value,
			Path:       fc.Path,
			Domain:     fc.Domain,
			Expires:    fc.Expires,
			RawExpires: fc.RawExpires,
			MaxAge:     fc.MaxAge,
			Secure:     fc.Secure,
			HttpOnly:   fc.HttpOnly,
			SameSite:   http.SameSite(fc.SameSite),
			Raw:        fc.Raw,
			Unparsed:   fc.Unparsed,
		}
	}
	return cookies
}

// SetCookies stores cookies for u in the client's shared jar. A no-op when
// the cookie store is disabled.
func (c *Client) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if c.jar == nil {
		return
	}
	fCookies := make([]*fhttp.Cookie, len(cookies))
	for i, cookie := range cookies {
		fCookies[i] = &fhttp.Cookie{
			Name:       cookie.Name,
			Value:      cookie.Value,
			Path:       cookie.Path,
			Domain:     cookie.Domain,
			Expires:    cookie.Expires,
			RawExpires: cookie.RawExpires,
			MaxAge:     cookie.MaxAge,
			Secure:     cookie.Secure,
			HttpOnly:   cookie.HttpOnly,
			SameSite:   fhttp.SameSite(cookie.SameSite),
			Raw:        cookie.Raw,
			Unparsed:   cookie.Unparsed,
		}
	}
	c.jar.SetCookies(u, fCookies)
}
