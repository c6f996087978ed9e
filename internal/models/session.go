package models

import "time"

// Credentials are the tokens a single request presents to the remote service.
// They are passed explicitly into every remote call and never stored globally.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}

// Anonymous reports whether no user token is attached.
func (c Credentials) Anonymous() bool {
	return c.AccessToken == ""
}

// AuthSession is what the remote auth service returns on sign-in or refresh.
type AuthSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int64      `json:"expires_in"`
	ExpiresAt    int64      `json:"expires_at"`
	User         RemoteUser `json:"user"`
}

func (s AuthSession) Credentials() Credentials {
	return Credentials{AccessToken: s.AccessToken, RefreshToken: s.RefreshToken}
}

type RemoteUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// Role maps user_metadata.user_type to a role. Anything but a business
// account is a regular user.
func (u RemoteUser) Role() string {
	if v, _ := u.UserMetadata["user_type"].(string); v == RoleBusiness {
		return RoleBusiness
	}
	return RoleUser
}

// Session is the server-side session keyed by an opaque session id.
type Session struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Email       string      `json:"email"`
	Role        string      `json:"role"`
	Credentials Credentials `json:"credentials"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
