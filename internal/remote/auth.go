package remote

import (
	"context"
	"net/http"
	"net/url"

	"islandstay/internal/models"
)

// SignInWithPassword exchanges email and password for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.AuthSession, error) {
	resp, err := c.do(ctx, call{
		op:     "auth.sign_in",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": []string{"password"}},
		body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, err
	}
	return decodeSession(resp)
}

// RefreshSession trades a refresh token for a new token pair.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*models.AuthSession, error) {
	resp, err := c.do(ctx, call{
		op:     "auth.refresh",
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": []string{"refresh_token"}},
		body:   map[string]string{"refresh_token": refreshToken},
	})
	if err != nil {
		return nil, err
	}
	return decodeSession(resp)
}

// SignUp creates an account. When the remote service requires email
// confirmation the result carries the user but no tokens.
func (c *Client) SignUp(ctx context.Context, email, password string, metadata map[string]any) (*models.AuthSession, error) {
	resp, err := c.do(ctx, call{
		op:     "auth.sign_up",
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   map[string]any{"email": email, "password": password, "data": metadata},
	})
	if err != nil {
		return nil, err
	}

	var session models.AuthSession
	if err := resp.Decode(&session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		if err := resp.Decode(&session.User); err != nil {
			return nil, err
		}
	}
	if session.User.ID == "" {
		return nil, &Error{Kind: KindDecode, Op: "auth.sign_up", Status: resp.Status, Message: "sign-up without user"}
	}
	return &session, nil
}

// ResetPasswordForEmail asks the remote service to mail a recovery link.
func (c *Client) ResetPasswordForEmail(ctx context.Context, email string) error {
	_, err := c.do(ctx, call{
		op:     "auth.recover",
		method: http.MethodPost,
		path:   "/auth/v1/recover",
		body:   map[string]string{"email": email},
	})
	return err
}

// GetUser returns the user the access token belongs to.
func (c *Client) GetUser(ctx context.Context, creds models.Credentials) (*models.RemoteUser, error) {
	if creds.Anonymous() {
		return nil, &Error{Kind: KindUnauthorized, Op: "auth.user", Message: "no access token"}
	}
	resp, err := c.do(ctx, call{
		op:     "auth.user",
		method: http.MethodGet,
		path:   "/auth/v1/user",
		creds:  creds,
	})
	if err != nil {
		return nil, err
	}
	var user models.RemoteUser
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignOut revokes the refresh tokens of the session behind creds.
func (c *Client) SignOut(ctx context.Context, creds models.Credentials) error {
	if creds.Anonymous() {
		return nil
	}
	_, err := c.do(ctx, call{
		op:     "auth.sign_out",
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		creds:  creds,
	})
	return err
}

func decodeSession(resp *Response) (*models.AuthSession, error) {
	var session models.AuthSession
	if err := resp.Decode(&session); err != nil {
		return nil, err
	}
	if session.AccessToken == "" {
		return nil, &Error{Kind: KindDecode, Op: "auth.session", Status: resp.Status, Message: "session without access token"}
	}
	return &session, nil
}
