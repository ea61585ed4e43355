package apiclient

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// sessionJar is a cookie jar that can be emptied in one step on logout.
type sessionJar struct {
	mu    sync.RWMutex
	inner *cookiejar.Jar
}

func newSessionJar() (*sessionJar, error) {
	inner, err := newCookieJar()
	if err != nil {
		return nil, err
	}
	return &sessionJar{inner: inner}, nil
}

func newCookieJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("apiclient: create cookie jar: %w", err)
	}
	return jar, nil
}

func (j *sessionJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	j.inner.SetCookies(u, cookies)
}

func (j *sessionJar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

func (j *sessionJar) reset() error {
	fresh, err := newCookieJar()
	if err != nil {
		return err
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner = fresh
	return nil
}

// Cookies returns the cookies the client would send to the API root.
func (c *Client) Cookies() []*http.Cookie {
	return c.jar.Cookies(c.base)
}

// SetCookies seeds the jar, e.g. from a persisted cookie file. Cookies
// without a path are scoped to "/".
func (c *Client) SetCookies(cookies []*http.Cookie) {
	scoped := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		cp := *ck
		if cp.Path == "" {
			cp.Path = "/"
		}
		scoped = append(scoped, &cp)
	}
	c.jar.SetCookies(c.base, scoped)
}

// ClearCookies drops every cookie held by the client.
func (c *Client) ClearCookies() error {
	return c.jar.reset()
}

// SessionToken returns the access token cookie value, or "".
func (c *Client) SessionToken() string {
	for _, ck := range c.jar.Cookies(c.base) {
		if ck.Name == c.cookieName {
			return ck.Value
		}
	}
	return ""
}

// HasSession reports whether an access token cookie is present.
func (c *Client) HasSession() bool { return c.SessionToken() != "" }
