package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	domainauth "github.com/ecoledesexcellents/ecole-ui/internal/domain/auth"
	apperrors "github.com/ecoledesexcellents/ecole-ui/internal/errors"
	"github.com/ecoledesexcellents/ecole-ui/internal/ports"
)

var _ ports.AuthAPI = (*Client)(nil)

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login posts credentials to the cookie login endpoint. The backend answers
// with Set-Cookie headers that land in the client's jar.
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   PathLogin,
		Body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return err
	}
	return resp.Err()
}

// Logout asks the backend to clear the session and always empties the local
// cookie jar, even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.Do(ctx, &Request{Method: http.MethodPost, Path: PathLogout})
	if err == nil {
		err = resp.Err()
	}
	if clearErr := c.ClearCookies(); clearErr != nil {
		return errors.Join(err, clearErr)
	}
	return err
}

// CurrentUser fetches the identity bound to the session cookie. It goes
// through the refresh interceptor like any other request.
func (c *Client) CurrentUser(ctx context.Context) (*domainauth.Identity, error) {
	var id domainauth.Identity
	if err := c.GetJSON(ctx, PathMe, nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// refreshSession performs POST /auth/refresh-cookie/. The backend may return
// the new access token only in the body; in that case it is stored in the jar
// under the session cookie name.
func (c *Client) refreshSession(ctx context.Context) error {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: PathRefresh})
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	if c.setsSessionCookie(resp.Header) {
		return nil
	}

	var body struct {
		Access string `json:"access"`
	}
	if len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, &body); err != nil {
			return apperrors.Wrap(err, apperrors.ErrCodeInternal, "réponse de rafraîchissement illisible")
		}
	}
	if body.Access != "" {
		c.jar.SetCookies(c.base, []*http.Cookie{{Name: c.cookieName, Value: body.Access, Path: "/"}})
	}
	return nil
}

func (c *Client) setsSessionCookie(h http.Header) bool {
	for _, ck := range (&http.Response{Header: h}).Cookies() {
		if ck.Name == c.cookieName {
			return true
		}
	}
	return false
}
